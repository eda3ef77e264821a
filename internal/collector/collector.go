// Package collector gathers dependency license files into a staging directory.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/ethanolivertroy/license-audit/internal/digest"
	"github.com/ethanolivertroy/license-audit/internal/files"
	"github.com/ethanolivertroy/license-audit/internal/locator"
	"github.com/ethanolivertroy/license-audit/internal/manifest"
	"github.com/ethanolivertroy/license-audit/internal/models"
	"github.com/ethanolivertroy/license-audit/internal/staging"
)

// MissingProjectLicenseError is returned when the project's own license
// file cannot be found
type MissingProjectLicenseError struct {
	Path string
}

func (e *MissingProjectLicenseError) Error() string {
	return fmt.Sprintf("project license file not found: %s", e.Path)
}

// Collector orchestrates the license collection process
type Collector struct {
	reader manifest.Reader
	logger *log.Logger
}

// New creates a Collector reading dependencies with reader
func New(reader manifest.Reader, logger *log.Logger) *Collector {
	return &Collector{
		reader: reader,
		logger: logger,
	}
}

// Collect lists the production dependencies and collects their licenses
// into the staging directory
func (c *Collector) Collect(ctx context.Context, cfg *models.Config) (*models.CollectionReport, error) {
	readCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	deps, err := c.reader.Read(readCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s dependencies: %w", c.reader.Ecosystem(), err)
	}

	return c.CollectDependencies(ctx, cfg, deps)
}

// CollectDependencies writes one license file per dependency plus the
// project license into the staging directory. A dependency without a license
// file is reported, not fatal; a missing project license is.
func (c *Collector) CollectDependencies(ctx context.Context, cfg *models.Config, deps []models.Dependency) (*models.CollectionReport, error) {
	patterns, err := validPatterns(cfg.Ignore)
	if err != nil {
		return nil, err
	}

	// The project's own license is mandatory; check it before the previous
	// output is wiped
	if info, err := os.Stat(cfg.ProjectLicense); err != nil || !info.Mode().IsRegular() {
		return nil, &MissingProjectLicenseError{Path: cfg.ProjectLicense}
	}

	root, err := staging.Dir(cfg)
	if err != nil {
		return nil, err
	}

	lock, err := staging.Acquire(root)
	if err != nil {
		return nil, fmt.Errorf("failed to lock staging directory: %w", err)
	}
	defer lock.Release()

	// Step 1: Start from an empty output directory
	thirdParty, err := staging.Reset(root)
	if err != nil {
		return nil, err
	}

	// Step 2: Drop ignored dependencies, order the rest by identity
	deps = lo.UniqBy(deps, func(d models.Dependency) string { return d.Identity })
	ignored := lo.Filter(deps, func(d models.Dependency, _ int) bool { return matchesAny(patterns, d.Identity) })
	deps = lo.Filter(deps, func(d models.Dependency, _ int) bool { return !matchesAny(patterns, d.Identity) })
	sort.Slice(deps, func(i, j int) bool { return deps[i].Identity < deps[j].Identity })

	report := &models.CollectionReport{
		Ecosystem:    cfg.Ecosystem,
		StagingDir:   root,
		Dependencies: deps,
		Ignored:      lo.Map(ignored, func(d models.Dependency, _ int) string { return d.Identity }),
	}
	sort.Strings(report.Ignored)

	c.logger.Info("collecting licenses", "ecosystem", cfg.Ecosystem, "packages", len(deps), "staging", root)

	// Step 3: Copy each dependency's license verbatim
	for _, dep := range deps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, ok := locator.Find(dep.ResolvedPath)
		if !ok {
			c.logger.Warn("no LICENSE file found", "package", dep.Identity, "looked_in", dep.ResolvedPath)
			report.Missing = append(report.Missing, dep.Identity)
			report.Warnings = append(report.Warnings, models.Warning{
				Identity:     dep.Identity,
				SearchedPath: dep.ResolvedPath,
				Message:      "no LICENSE file found",
			})
			continue
		}

		name := models.LicenseFileName(dep.Identity)
		lf, err := copyLicense(ctx, src, filepath.Join(thirdParty, name))
		if err != nil {
			return nil, fmt.Errorf("failed to copy license of %s: %w", dep.Identity, err)
		}
		lf.Identity = dep.Identity
		lf.Destination = name
		report.Licenses = append(report.Licenses, *lf)
		c.logger.Debug("copied license", "package", dep.Identity, "from", src)
	}

	// Step 4: Add the project's own license
	if _, err := copyLicense(ctx, cfg.ProjectLicense, filepath.Join(root, models.ProjectLicenseName)); err != nil {
		return nil, fmt.Errorf("failed to copy project license: %w", err)
	}
	report.ProjectLicense = cfg.ProjectLicense

	c.logger.Info("collected license files", "collected", report.Collected(), "missing", report.MissingCount(), "packages", report.Total())
	return report, nil
}

func copyLicense(ctx context.Context, src, dst string) (*models.LicenseFile, error) {
	data, err := files.Copy(ctx, src, dst)
	if err != nil {
		return nil, err
	}
	sum, err := digest.Sum(data)
	if err != nil {
		return nil, err
	}
	return &models.LicenseFile{
		Source: src,
		Size:   int64(len(data)),
		Digest: sum,
	}, nil
}

func validPatterns(patterns []string) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return patterns, nil
}

func matchesAny(patterns []string, identity string) bool {
	return lo.SomeBy(patterns, func(p string) bool {
		ok, _ := doublestar.Match(p, identity)
		return ok
	})
}
