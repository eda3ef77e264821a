// Package staging owns the ephemeral directory a collection run writes to.
package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// AppName names the per-user cache directory
const AppName = "license-audit"

// Dir resolves the staging root for cfg: the configured directory, or a
// per-project directory under the user cache.
func Dir(cfg *models.Config) (string, error) {
	if cfg.StagingDir != "" {
		return filepath.Abs(cfg.StagingDir)
	}
	return DefaultDir(cfg.ProjectDir, cfg.Ecosystem)
}

// DefaultDir returns $XDG_CACHE_HOME/license-audit/<key>/<ecosystem>, where
// key is derived from the absolute project directory
func DefaultDir(projectDir string, eco models.Ecosystem) (string, error) {
	return defaultDirWith(os.Getenv, projectDir, eco)
}

func defaultDirWith(getenv func(string) string, projectDir string, eco models.Ecosystem) (string, error) {
	base := getenv("XDG_CACHE_HOME")
	if base == "" {
		home := getenv("HOME")
		if home == "" {
			var err error
			if home, err = os.UserHomeDir(); err != nil {
				return "", fmt.Errorf("failed to locate cache directory: %w", err)
			}
		}
		base = filepath.Join(home, ".cache")
	}

	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", projectDir, err)
	}
	return filepath.Join(base, AppName, keyFor(abs), string(eco)), nil
}

// keyFor converts a path to a short stable directory name
func keyFor(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}

// Reset clears the previous run's output under root and recreates the
// THIRD_PARTY_LICENSES directory. Anything else under root is left alone.
func Reset(root string) (string, error) {
	thirdParty := filepath.Join(root, models.ThirdPartyDir)
	if err := os.RemoveAll(thirdParty); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", thirdParty, err)
	}
	license := filepath.Join(root, models.ProjectLicenseName)
	if err := os.Remove(license); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to clear %s: %w", license, err)
	}
	if err := os.MkdirAll(thirdParty, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", thirdParty, err)
	}
	return thirdParty, nil
}
