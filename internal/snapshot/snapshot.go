// Package snapshot checks and updates the committed license snapshot against
// a fresh collection.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/ethanolivertroy/license-audit/internal/dircompare"
	"github.com/ethanolivertroy/license-audit/internal/files"
	"github.com/ethanolivertroy/license-audit/internal/models"
)

// stagingLayout limits the staging root to what a collection writes, so
// unrelated files next to it are never compared or published
var stagingLayout = dircompare.WithLayout(models.ProjectLicenseName, models.ThirdPartyDir)

// Collector produces a fresh staging directory
type Collector interface {
	Collect(ctx context.Context, cfg *models.Config) (*models.CollectionReport, error)
}

// DriftError reports that the committed snapshot differs from a fresh collection
type DriftError struct {
	Ecosystem    models.Ecosystem
	CommittedDir string
	Remediation  string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%s license files in %s are out of date; run `%s` to regenerate them",
		e.Ecosystem, e.CommittedDir, e.Remediation)
}

// Remediation returns the command that regenerates the committed snapshot
func Remediation(cfg *models.Config) string {
	args := []string{"license-audit", "publish", "--ecosystem", string(cfg.Ecosystem)}
	if cfg.ProjectDir != "" {
		args = append(args, "--project-dir", cfg.ProjectDir)
	}
	args = append(args, "--committed-dir", cfg.CommittedDir)
	return strings.Join(args, " ")
}

// Validate collects into staging and fails with a DriftError when staging
// and the committed directory differ. The committed directory is never
// written.
func Validate(ctx context.Context, c Collector, cfg *models.Config, logger *log.Logger) (*models.CollectionReport, error) {
	report, err := c.Collect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if !dircompare.AreEqual(ctx, report.StagingDir, cfg.CommittedDir, logger, stagingLayout) {
		return report, &DriftError{
			Ecosystem:    cfg.Ecosystem,
			CommittedDir: cfg.CommittedDir,
			Remediation:  Remediation(cfg),
		}
	}

	logger.Info("license validation succeeded", "ecosystem", cfg.Ecosystem, "dir", cfg.CommittedDir)
	return report, nil
}

// Publish collects into staging and copies every staged file into the
// committed directory, overwriting existing files. Committed files with no
// staged counterpart are kept unless cfg.Prune is set.
func Publish(ctx context.Context, c Collector, cfg *models.Config, logger *log.Logger) (*models.CollectionReport, error) {
	report, err := c.Collect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.CommittedDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", cfg.CommittedDir, err)
	}

	staged, err := dircompare.Files(report.StagingDir, stagingLayout)
	if err != nil {
		return nil, err
	}
	for _, rel := range staged {
		src := filepath.Join(report.StagingDir, filepath.FromSlash(rel))
		dst := filepath.Join(cfg.CommittedDir, filepath.FromSlash(rel))
		if _, err := files.Copy(ctx, src, dst); err != nil {
			return nil, err
		}
	}

	if cfg.Prune {
		if err := prune(cfg.CommittedDir, staged, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("published license files", "files", len(staged), "dir", cfg.CommittedDir)
	return report, nil
}

// prune removes committed files that were not staged
func prune(committedDir string, staged []string, logger *log.Logger) error {
	committed, err := dircompare.Files(committedDir)
	if err != nil {
		return err
	}
	_, stale := lo.Difference(staged, committed)
	for _, rel := range stale {
		p := filepath.Join(committedDir, filepath.FromSlash(rel))
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to prune %s: %w", p, err)
		}
		logger.Info("pruned stale license file", "file", rel)
	}
	return nil
}
