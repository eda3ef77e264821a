// Package dircompare decides whether two license directories hold the same
// files with the same bytes.
package dircompare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/ethanolivertroy/license-audit/internal/digest"
	"github.com/ethanolivertroy/license-audit/internal/files"
)

// maxDepth is how many directory levels below the root are compared
// file by file. The license layout has one: THIRD_PARTY_LICENSES.
const maxDepth = 1

// Mismatch is a file present on both sides with different contents
type Mismatch struct {
	Path    string
	DigestA string
	DigestB string
}

// Diff lists every difference between two directories. Paths are relative
// and slash-separated.
type Diff struct {
	OnlyInA   []string
	OnlyInB   []string
	Differing []Mismatch
}

// Equal returns true if no difference was found
func (d *Diff) Equal() bool {
	return len(d.OnlyInA) == 0 && len(d.OnlyInB) == 0 && len(d.Differing) == 0
}

// Option adjusts what Compare, AreEqual and Files look at
type Option func(*options)

type options struct {
	layout map[string]bool
}

// WithLayout restricts the top level of the generated directory (dirA, or
// the listed dir for Files) to the given entry names. Anything else there is
// not part of the generated output and is ignored. The committed side is
// never filtered.
func WithLayout(names ...string) Option {
	return func(o *options) {
		o.layout = lo.SliceToMap(names, func(name string) (string, bool) { return name, true })
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// keep drops top-level entries outside the layout
func (o *options) keep(entries map[string]bool, depth int) map[string]bool {
	if o.layout == nil || depth > 0 {
		return entries
	}
	return lo.PickBy(entries, func(name string, _ bool) bool { return o.layout[name] })
}

// Compare diffs dirA against dirB. A directory that does not exist compares
// as empty.
func Compare(ctx context.Context, dirA, dirB string, opts ...Option) (*Diff, error) {
	diff := &Diff{}
	if err := compareLevel(ctx, dirA, dirB, "", 0, newOptions(opts), diff); err != nil {
		return nil, err
	}
	sort.Strings(diff.OnlyInA)
	sort.Strings(diff.OnlyInB)
	sort.Slice(diff.Differing, func(i, j int) bool { return diff.Differing[i].Path < diff.Differing[j].Path })
	return diff, nil
}

// AreEqual reports whether dirA and dirB match, logging each difference.
// I/O failures count as a mismatch.
func AreEqual(ctx context.Context, dirA, dirB string, logger *log.Logger, opts ...Option) bool {
	diff, err := Compare(ctx, dirA, dirB, opts...)
	if err != nil {
		logger.Error("failed to compare directories", "generated", dirA, "committed", dirB, "err", err)
		return false
	}
	for _, p := range diff.OnlyInA {
		logger.Warn("only in generated", "file", p, "dir", dirA)
	}
	for _, p := range diff.OnlyInB {
		logger.Warn("only in committed", "file", p, "dir", dirB)
	}
	for _, m := range diff.Differing {
		logger.Warn("content differs", "file", m.Path, "generated", m.DigestA, "committed", m.DigestB)
	}
	return diff.Equal()
}

// Files lists the files under dir that Compare looks at, as relative
// slash-separated paths. A missing dir yields no files.
func Files(dir string, opts ...Option) ([]string, error) {
	o := newOptions(opts)
	var out []string
	var walk func(rel string, depth int) error
	walk = func(rel string, depth int) error {
		entries, err := readLevel(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		entries = o.keep(entries, depth)
		for _, name := range lo.Keys(entries) {
			p := path.Join(rel, name)
			if !entries[name] {
				out = append(out, p)
				continue
			}
			if depth < maxDepth {
				if err := walk(p, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk("", 0); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func compareLevel(ctx context.Context, rootA, rootB, rel string, depth int, o *options, diff *Diff) error {
	a, err := readLevel(filepath.Join(rootA, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	a = o.keep(a, depth)
	b, err := readLevel(filepath.Join(rootB, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}

	namesA, namesB := lo.Keys(a), lo.Keys(b)
	onlyA, onlyB := lo.Difference(namesA, namesB)
	for _, name := range onlyA {
		diff.OnlyInA = append(diff.OnlyInA, path.Join(rel, name))
	}
	for _, name := range onlyB {
		diff.OnlyInB = append(diff.OnlyInB, path.Join(rel, name))
	}

	for _, name := range lo.Intersect(namesA, namesB) {
		p := path.Join(rel, name)
		isDirA, isDirB := a[name], b[name]

		switch {
		case isDirA != isDirB:
			diff.Differing = append(diff.Differing, Mismatch{Path: p, DigestA: kind(isDirA), DigestB: kind(isDirB)})
		case isDirA:
			if depth < maxDepth {
				if err := compareLevel(ctx, rootA, rootB, p, depth+1, o, diff); err != nil {
					return err
				}
			}
		default:
			m, err := compareFiles(ctx, filepath.Join(rootA, filepath.FromSlash(p)), filepath.Join(rootB, filepath.FromSlash(p)))
			if err != nil {
				return err
			}
			if m != nil {
				m.Path = p
				diff.Differing = append(diff.Differing, *m)
			}
		}
	}
	return nil
}

func compareFiles(ctx context.Context, pathA, pathB string) (*Mismatch, error) {
	dataA, err := files.Read(ctx, pathA)
	if err != nil {
		return nil, err
	}
	dataB, err := files.Read(ctx, pathB)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(dataA, dataB) {
		return nil, nil
	}

	sumA, err := digest.Sum(dataA)
	if err != nil {
		return nil, err
	}
	sumB, err := digest.Sum(dataB)
	if err != nil {
		return nil, err
	}
	return &Mismatch{DigestA: sumA, DigestB: sumB}, nil
}

// readLevel maps entry names to whether they are directories
func readLevel(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		out[e.Name()] = e.IsDir()
	}
	return out, nil
}

func kind(isDir bool) string {
	if isDir {
		return "directory"
	}
	return "file"
}
