package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	fs.Bool(FlagNames[KeyPrune], false, "")
	fs.String(FlagNames[KeyFormat], "", "")
	fs.String(FlagNames[KeyOutput], "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(models.EcosystemDart, "", nil)
	require.NoError(t, err)

	assert.Equal(t, models.EcosystemDart, cfg.Ecosystem)
	assert.Equal(t, "analyzer", cfg.ProjectDir)
	assert.Equal(t, "src/main/resources/dart-licenses", cfg.CommittedDir)
	assert.Equal(t, "LICENSE", cfg.ProjectLicense)
	assert.Equal(t, "terminal", cfg.OutputFormat)
	assert.Empty(t, cfg.StagingDir)
	assert.Empty(t, cfg.Ignore)
	assert.Zero(t, cfg.Timeout)

	gomod, err := Load(models.EcosystemGoMod, "", newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, ".", gomod.ProjectDir)
	assert.Equal(t, "src/main/resources/gomod-licenses", gomod.CommittedDir)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
committed_dir = "third_party/licenses"
timeout = "45s"

[swift]
project_dir = "ios/analyzer"
ignore = ["swift-*-internal", "apple/**"]

[dart]
committed_dir = "dart-licenses"
`)

	swift, err := Load(models.EcosystemSwift, path, nil)
	require.NoError(t, err)
	assert.Equal(t, "ios/analyzer", swift.ProjectDir)
	assert.Equal(t, "third_party/licenses", swift.CommittedDir)
	assert.Equal(t, []string{"swift-*-internal", "apple/**"}, swift.Ignore)
	assert.Equal(t, 45*time.Second, swift.Timeout)

	dart, err := Load(models.EcosystemDart, path, nil)
	require.NoError(t, err)
	assert.Equal(t, "dart-licenses", dart.CommittedDir, "ecosystem table overrides shared keys")
	assert.Equal(t, "analyzer", dart.ProjectDir)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
[npm]
committed_dir = "from-file"
project_dir = "web"
lock_file = "web/package-lock.json"
`)
	t.Setenv("LICENSE_AUDIT_COMMITTED_DIR", "from-env")
	t.Setenv("LICENSE_AUDIT_PROJECT_DIR", "from-env")

	cfg, err := Load(models.EcosystemNpm, path, newFlags(t, "--committed-dir", "from-flag", "--prune"))
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.CommittedDir, "flag beats env")
	assert.Equal(t, "from-env", cfg.ProjectDir, "env beats file")
	assert.Equal(t, "web/package-lock.json", cfg.LockFile, "file beats default")
	assert.True(t, cfg.Prune)
}

func TestLoad_FlagValues(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(models.EcosystemGoMod, "", newFlags(t,
		"--out", "build/licenses",
		"--ignore", "golang.org/x/*",
		"--ignore", "example.com/**",
		"--include-indirect",
		"--timeout", "2m",
		"--format", "json",
		"--output", "report.json",
	))
	require.NoError(t, err)

	assert.Equal(t, "build/licenses", cfg.StagingDir)
	assert.Equal(t, []string{"golang.org/x/*", "example.com/**"}, cfg.Ignore)
	assert.True(t, cfg.IncludeIndirect)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "report.json", cfg.OutputFile)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("[dart]\nproject_dir = \"pkg\"\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load(models.EcosystemDart, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "pkg", cfg.ProjectDir)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		_, err := Load(models.EcosystemDart, filepath.Join(t.TempDir(), "nope.toml"), nil)
		assert.ErrorContains(t, err, "failed to load config file")
	})

	t.Run("invalid toml", func(t *testing.T) {
		_, err := Load(models.EcosystemDart, writeConfig(t, "[dart\nproject_dir ="), nil)
		assert.Error(t, err)
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("LICENSE_AUDIT_TIMEOUT", "-5s")
		_, err := Load(models.EcosystemDart, "", nil)
		assert.ErrorContains(t, err, "timeout must not be negative")
	})

	t.Run("empty project dir", func(t *testing.T) {
		_, err := Load(models.EcosystemDart, writeConfig(t, "[dart]\nproject_dir = \"\"\n"), nil)
		assert.ErrorContains(t, err, "project directory")
	})
}
