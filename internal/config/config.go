// Package config resolves a models.Config from built-in defaults, an optional
// TOML file, LICENSE_AUDIT_* environment variables and command-line flags,
// in increasing order of precedence.
//
// The file holds shared keys at the top level and one table per ecosystem:
//
//	committed_dir = "third_party"
//
//	[dart]
//	project_dir = "analyzer"
//	ignore = ["flutter_*"]
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// DefaultFileName is read from the working directory when no path is given
const DefaultFileName = ".license-audit.toml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "LICENSE_AUDIT"

// Config keys
const (
	KeyProjectDir      = "project_dir"
	KeyStagingDir      = "staging_dir"
	KeyCommittedDir    = "committed_dir"
	KeyProjectLicense  = "project_license"
	KeyPackageConfig   = "package_config"
	KeyLockFile        = "lock_file"
	KeyIgnore          = "ignore"
	KeyIncludeIndirect = "include_indirect"
	KeyTimeout         = "timeout"
	KeyPrune           = "prune"
	KeyFormat          = "format"
	KeyOutput          = "output"
)

// FlagNames maps config keys to the flags that override them
var FlagNames = map[string]string{
	KeyProjectDir:      "project-dir",
	KeyStagingDir:      "out",
	KeyCommittedDir:    "committed-dir",
	KeyProjectLicense:  "project-license",
	KeyPackageConfig:   "package-config",
	KeyLockFile:        "lock-file",
	KeyIgnore:          "ignore",
	KeyIncludeIndirect: "include-indirect",
	KeyTimeout:         "timeout",
	KeyPrune:           "prune",
	KeyFormat:          "format",
	KeyOutput:          "output",
}

// Load builds the Config for eco. path names the config file; when empty,
// DefaultFileName is used if it exists. flags may be nil.
func Load(eco models.Ecosystem, path string, flags *pflag.FlagSet) (*models.Config, error) {
	v := viper.New()

	defaults := models.DefaultConfig(eco)
	v.SetDefault(KeyProjectDir, defaults.ProjectDir)
	v.SetDefault(KeyStagingDir, defaults.StagingDir)
	v.SetDefault(KeyCommittedDir, defaults.CommittedDir)
	v.SetDefault(KeyProjectLicense, defaults.ProjectLicense)
	v.SetDefault(KeyPackageConfig, defaults.PackageConfig)
	v.SetDefault(KeyLockFile, defaults.LockFile)
	v.SetDefault(KeyIgnore, []string{})
	v.SetDefault(KeyIncludeIndirect, defaults.IncludeIndirect)
	v.SetDefault(KeyTimeout, defaults.Timeout)
	v.SetDefault(KeyPrune, defaults.Prune)
	v.SetDefault(KeyFormat, defaults.OutputFormat)
	v.SetDefault(KeyOutput, defaults.OutputFile)

	if err := loadFile(v, eco, path); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	cfg := &models.Config{
		Ecosystem:       eco,
		ProjectDir:      v.GetString(KeyProjectDir),
		StagingDir:      v.GetString(KeyStagingDir),
		CommittedDir:    v.GetString(KeyCommittedDir),
		ProjectLicense:  v.GetString(KeyProjectLicense),
		PackageConfig:   v.GetString(KeyPackageConfig),
		LockFile:        v.GetString(KeyLockFile),
		Ignore:          v.GetStringSlice(KeyIgnore),
		IncludeIndirect: v.GetBool(KeyIncludeIndirect),
		Timeout:         v.GetDuration(KeyTimeout),
		Prune:           v.GetBool(KeyPrune),
		OutputFormat:    v.GetString(KeyFormat),
		OutputFile:      v.GetString(KeyOutput),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges the shared keys and the ecosystem's table into v
func loadFile(v *viper.Viper, eco models.Ecosystem, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	var doc map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	merged := make(map[string]any)
	for key, value := range doc {
		if _, isTable := value.(map[string]any); !isTable {
			merged[key] = value
		}
	}
	if table, ok := doc[string(eco)].(map[string]any); ok {
		for key, value := range table {
			merged[key] = value
		}
	}

	if err := v.MergeConfigMap(merged); err != nil {
		return fmt.Errorf("failed to merge config file %s: %w", path, err)
	}
	return nil
}

func validate(cfg *models.Config) error {
	if cfg.ProjectDir == "" {
		return errors.New("project directory must not be empty")
	}
	if cfg.ProjectLicense == "" {
		return errors.New("project license path must not be empty")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	return nil
}

// RegisterFlags adds the flags shared by every pipeline command to fs.
// Their defaults are empty so unset flags never shadow the file or the
// environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagNames[KeyProjectDir], "", "directory the package manager runs in (default: analyzer for dart/swift, . otherwise)")
	fs.String(FlagNames[KeyStagingDir], "", "staging directory (default: per-project directory under the user cache)")
	fs.String(FlagNames[KeyCommittedDir], "", "committed license directory (default: src/main/resources/<ecosystem>-licenses)")
	fs.String(FlagNames[KeyProjectLicense], "", "the project's own license file (default: LICENSE)")
	fs.String(FlagNames[KeyPackageConfig], "", "dart: package_config.json path (default: <project-dir>/.dart_tool/package_config.json)")
	fs.String(FlagNames[KeyLockFile], "", "gomod/npm: go.mod or package-lock.json path")
	fs.StringSlice(FlagNames[KeyIgnore], nil, "glob pattern of package identities to skip (repeatable)")
	fs.Bool(FlagNames[KeyIncludeIndirect], false, "gomod: include // indirect requirements")
	fs.Duration(FlagNames[KeyTimeout], 0, "package manager timeout, 0 for none")
}
