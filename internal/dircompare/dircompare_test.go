package dircompare

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, tree map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	for rel, content := range tree {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

var licenseTree = map[string]string{
	"LICENSE":                                      "project",
	"THIRD_PARTY_LICENSES/a-LICENSE.txt":           "license a",
	"THIRD_PARTY_LICENSES/b-LICENSE.txt":           "license b",
	"THIRD_PARTY_LICENSES/@types.node-LICENSE.txt": "license node",
}

func quiet() *log.Logger { return log.New(io.Discard) }

func TestAreEqual_Reflexive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x")
	writeTree(t, dir, licenseTree)

	assert.True(t, AreEqual(context.Background(), dir, dir, quiet()))
}

func TestAreEqual_IdenticalCopies(t *testing.T) {
	root := t.TempDir()
	a, b := filepath.Join(root, "a"), filepath.Join(root, "b")
	writeTree(t, a, licenseTree)
	writeTree(t, b, licenseTree)

	assert.True(t, AreEqual(context.Background(), a, b, quiet()))
	assert.True(t, AreEqual(context.Background(), b, a, quiet()))
}

func TestCompare_Differences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, b string)
		check  func(t *testing.T, d *Diff)
	}{
		{
			name: "extra committed file",
			mutate: func(t *testing.T, b string) {
				writeTree(t, b, map[string]string{"THIRD_PARTY_LICENSES/stale-LICENSE.txt": "old"})
			},
			check: func(t *testing.T, d *Diff) {
				assert.Equal(t, []string{"THIRD_PARTY_LICENSES/stale-LICENSE.txt"}, d.OnlyInB)
				assert.Empty(t, d.OnlyInA)
			},
		},
		{
			name: "missing committed file",
			mutate: func(t *testing.T, b string) {
				require.NoError(t, os.Remove(filepath.Join(b, "THIRD_PARTY_LICENSES", "a-LICENSE.txt")))
			},
			check: func(t *testing.T, d *Diff) {
				assert.Equal(t, []string{"THIRD_PARTY_LICENSES/a-LICENSE.txt"}, d.OnlyInA)
			},
		},
		{
			name: "content differs",
			mutate: func(t *testing.T, b string) {
				writeTree(t, b, map[string]string{"LICENSE": "project v2"})
			},
			check: func(t *testing.T, d *Diff) {
				require.Len(t, d.Differing, 1)
				assert.Equal(t, "LICENSE", d.Differing[0].Path)
				assert.NotEqual(t, d.Differing[0].DigestA, d.Differing[0].DigestB)
			},
		},
		{
			name: "file replaced by directory",
			mutate: func(t *testing.T, b string) {
				p := filepath.Join(b, "THIRD_PARTY_LICENSES", "b-LICENSE.txt")
				require.NoError(t, os.Remove(p))
				require.NoError(t, os.Mkdir(p, 0o755))
			},
			check: func(t *testing.T, d *Diff) {
				require.Len(t, d.Differing, 1)
				assert.Equal(t, Mismatch{Path: "THIRD_PARTY_LICENSES/b-LICENSE.txt", DigestA: "file", DigestB: "directory"}, d.Differing[0])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			a, b := filepath.Join(root, "a"), filepath.Join(root, "b")
			writeTree(t, a, licenseTree)
			writeTree(t, b, licenseTree)
			tt.mutate(t, b)

			d, err := Compare(context.Background(), a, b)
			require.NoError(t, err)
			assert.False(t, d.Equal())
			tt.check(t, d)

			// Symmetry
			assert.Equal(t, AreEqual(context.Background(), a, b, quiet()), AreEqual(context.Background(), b, a, quiet()))
			reverse, err := Compare(context.Background(), b, a)
			require.NoError(t, err)
			assert.Equal(t, d.OnlyInA, reverse.OnlyInB)
			assert.Equal(t, d.OnlyInB, reverse.OnlyInA)
		})
	}
}

func TestCompare_MissingDirectoryIsEmpty(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	writeTree(t, a, map[string]string{"LICENSE": "p"})

	d, err := Compare(context.Background(), a, filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Equal(t, []string{"LICENSE"}, d.OnlyInA)

	assert.True(t, AreEqual(context.Background(), filepath.Join(root, "none1"), filepath.Join(root, "none2"), quiet()))
}

func TestCompare_DeeperLevelsByNameOnly(t *testing.T) {
	root := t.TempDir()
	a, b := filepath.Join(root, "a"), filepath.Join(root, "b")
	writeTree(t, a, map[string]string{"THIRD_PARTY_LICENSES/nested/x": "one"})
	writeTree(t, b, map[string]string{"THIRD_PARTY_LICENSES/nested/x": "two"})

	d, err := Compare(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, d.Equal())
}

func TestAreEqual_LogsDifferences(t *testing.T) {
	root := t.TempDir()
	a, b := filepath.Join(root, "a"), filepath.Join(root, "b")
	writeTree(t, a, map[string]string{"LICENSE": "p", "THIRD_PARTY_LICENSES/new-LICENSE.txt": "n"})
	writeTree(t, b, map[string]string{"LICENSE": "q", "THIRD_PARTY_LICENSES/old-LICENSE.txt": "o"})

	var buf bytes.Buffer
	assert.False(t, AreEqual(context.Background(), a, b, log.New(&buf)))

	out := buf.String()
	assert.Contains(t, out, "only in generated")
	assert.Contains(t, out, "THIRD_PARTY_LICENSES/new-LICENSE.txt")
	assert.Contains(t, out, "only in committed")
	assert.Contains(t, out, "THIRD_PARTY_LICENSES/old-LICENSE.txt")
	assert.Contains(t, out, "content differs")
}

func TestFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x")
	writeTree(t, dir, licenseTree)

	got, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"LICENSE",
		"THIRD_PARTY_LICENSES/@types.node-LICENSE.txt",
		"THIRD_PARTY_LICENSES/a-LICENSE.txt",
		"THIRD_PARTY_LICENSES/b-LICENSE.txt",
	}, got)

	none, err := Files(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWithLayout(t *testing.T) {
	root := t.TempDir()
	staged, committed := filepath.Join(root, "staged"), filepath.Join(root, "committed")
	writeTree(t, staged, licenseTree)
	writeTree(t, staged, map[string]string{"build.log": "noise", "other/x": "noise"})
	writeTree(t, committed, licenseTree)

	layout := WithLayout("LICENSE", "THIRD_PARTY_LICENSES")

	d, err := Compare(context.Background(), staged, committed, layout)
	require.NoError(t, err)
	assert.True(t, d.Equal())

	got, err := Files(staged, layout)
	require.NoError(t, err)
	assert.NotContains(t, got, "build.log")
	assert.Len(t, got, len(licenseTree))

	// The committed side is never filtered
	writeTree(t, committed, map[string]string{"NOTICE": "extra"})
	d, err = Compare(context.Background(), staged, committed, layout)
	require.NoError(t, err)
	assert.Equal(t, []string{"NOTICE"}, d.OnlyInB)
}
