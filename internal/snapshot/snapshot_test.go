package snapshot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/license-audit/internal/collector"
	"github.com/ethanolivertroy/license-audit/internal/models"
)

type stubReader struct {
	deps []models.Dependency
}

func (s *stubReader) Ecosystem() models.Ecosystem { return models.EcosystemSwift }

func (s *stubReader) Read(context.Context, *models.Config) ([]models.Dependency, error) {
	return s.deps, nil
}

type fixture struct {
	root   string
	cfg    *models.Config
	reader *stubReader
	logger *log.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	root := t.TempDir()

	f := &fixture{
		root:   root,
		reader: &stubReader{},
		logger: log.New(io.Discard),
		cfg: &models.Config{
			Ecosystem:      models.EcosystemSwift,
			ProjectDir:     filepath.Join(root, "analyzer"),
			StagingDir:     filepath.Join(root, "build", "swift-licenses"),
			CommittedDir:   filepath.Join(root, "src", "main", "resources", "swift-licenses"),
			ProjectLicense: filepath.Join(root, "LICENSE"),
		},
	}
	f.write(t, "LICENSE", "project")
	f.addDep(t, "swift-syntax", "Apache 2.0")
	f.addDep(t, "swift-collections", "Apache 2.0 (collections)")
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func (f *fixture) addDep(t *testing.T, id, license string) {
	t.Helper()
	f.write(t, "checkouts/"+id+"/LICENSE.txt", license)
	f.reader.deps = append(f.reader.deps, models.Dependency{
		Identity:     id,
		ResolvedPath: filepath.Join(f.root, "checkouts", id),
		Ecosystem:    models.EcosystemSwift,
	})
}

func (f *fixture) collector() *collector.Collector {
	return collector.New(f.reader, f.logger)
}

func (f *fixture) committed(rel string) string {
	return filepath.Join(f.cfg.CommittedDir, filepath.FromSlash(rel))
}

func TestPublishThenValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := Publish(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)

	assert.FileExists(t, f.committed("LICENSE"))
	assert.FileExists(t, f.committed("THIRD_PARTY_LICENSES/swift-syntax-LICENSE.txt"))
	assert.FileExists(t, f.committed("THIRD_PARTY_LICENSES/swift-collections-LICENSE.txt"))

	report, err := Validate(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Collected())
}

func TestValidate_MissingCommittedDir(t *testing.T) {
	f := newFixture(t)

	_, err := Validate(context.Background(), f.collector(), f.cfg, f.logger)

	var drift *DriftError
	require.True(t, errors.As(err, &drift), "got %v", err)
	assert.Equal(t, f.cfg.CommittedDir, drift.CommittedDir)
	assert.Contains(t, err.Error(), "license-audit publish --ecosystem swift")
	assert.Contains(t, err.Error(), f.cfg.CommittedDir)
	assert.NoDirExists(t, f.cfg.CommittedDir, "validate never writes the committed dir")
}

func TestValidate_ChangedLicense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := Publish(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)

	f.write(t, "checkouts/swift-syntax/LICENSE.txt", "Apache 2.0, updated")

	_, err = Validate(ctx, f.collector(), f.cfg, f.logger)
	var drift *DriftError
	require.True(t, errors.As(err, &drift))

	got, err := os.ReadFile(f.committed("THIRD_PARTY_LICENSES/swift-syntax-LICENSE.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Apache 2.0", string(got), "committed snapshot untouched")
}

func TestPublish_OverlayKeepsStaleFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := Publish(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)

	// The dependency loses its license file: collect succeeds, but the
	// committed copy stays behind and validate reports drift.
	require.NoError(t, os.Remove(filepath.Join(f.root, "checkouts", "swift-collections", "LICENSE.txt")))

	report, err := Publish(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"swift-collections"}, report.Missing)
	assert.FileExists(t, f.committed("THIRD_PARTY_LICENSES/swift-collections-LICENSE.txt"))

	_, err = Validate(ctx, f.collector(), f.cfg, f.logger)
	var drift *DriftError
	assert.True(t, errors.As(err, &drift))
}

func TestPublish_Prune(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.write(t, "src/main/resources/swift-licenses/THIRD_PARTY_LICENSES/removed-LICENSE.txt", "old")
	f.cfg.Prune = true

	_, err := Publish(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)
	assert.NoFileExists(t, f.committed("THIRD_PARTY_LICENSES/removed-LICENSE.txt"))

	_, err = Validate(ctx, f.collector(), f.cfg, f.logger)
	assert.NoError(t, err)
}

func TestPublish_OverwritesExisting(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/main/resources/swift-licenses/LICENSE", "an older and much longer project license")

	_, err := Publish(context.Background(), f.collector(), f.cfg, f.logger)
	require.NoError(t, err)

	got, err := os.ReadFile(f.committed("LICENSE"))
	require.NoError(t, err)
	assert.Equal(t, "project", string(got))
}

func TestPublish_IgnoresUnrelatedStagingFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.write(t, "build/swift-licenses/build.log", "compiler output")

	_, err := Publish(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)
	assert.NoFileExists(t, f.committed("build.log"))

	// The stray file is still staged and is not drift
	_, err = Validate(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)

	f.cfg.StagingDir = filepath.Join(f.root, "fresh-staging")
	_, err = Validate(ctx, f.collector(), f.cfg, f.logger)
	assert.NoError(t, err)
}

func TestValidate_ExtraCommittedFileIsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := Publish(ctx, f.collector(), f.cfg, f.logger)
	require.NoError(t, err)

	f.write(t, "src/main/resources/swift-licenses/NOTICE", "extra")

	_, err = Validate(ctx, f.collector(), f.cfg, f.logger)
	var drift *DriftError
	assert.True(t, errors.As(err, &drift))
}

func TestRemediation(t *testing.T) {
	cfg := &models.Config{Ecosystem: models.EcosystemDart, ProjectDir: "analyzer", CommittedDir: "src/main/resources/dart-licenses"}
	assert.Equal(t,
		"license-audit publish --ecosystem dart --project-dir analyzer --committed-dir src/main/resources/dart-licenses",
		Remediation(cfg))
}
