package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// GoModReader resolves go.mod requirements to module cache directories
type GoModReader struct {
	// Getenv looks up GOMODCACHE and GOPATH. Defaults to os.Getenv.
	Getenv func(string) string
}

// Ecosystem returns the Go modules ecosystem
func (r *GoModReader) Ecosystem() models.Ecosystem {
	return models.EcosystemGoMod
}

// Read extracts required modules from go.mod. Indirect requirements are
// skipped unless cfg.IncludeIndirect is set.
func (r *GoModReader) Read(ctx context.Context, cfg *models.Config) ([]models.Dependency, error) {
	path := cfg.LockFile
	if path == "" {
		path = filepath.Join(cfg.ProjectDir, "go.mod")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}

	mod, err := modfile.Parse(path, content, nil)
	if err != nil {
		return nil, &ParseError{Source: path, Reason: "malformed go.mod", Err: err}
	}

	modDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	cacheDir := r.moduleCacheDir()

	var deps []models.Dependency
	seen := make(map[string]bool)

	for _, req := range mod.Require {
		if req.Indirect && !cfg.IncludeIndirect {
			continue
		}
		if seen[req.Mod.Path] {
			continue
		}
		seen[req.Mod.Path] = true

		dir, ok := resolveModuleDir(req.Mod, mod.Replace, modDir, cacheDir)
		if !ok {
			continue
		}

		deps = append(deps, models.Dependency{
			Identity:     req.Mod.Path,
			DisplayName:  req.Mod.Path,
			Version:      req.Mod.Version,
			SourceURL:    "https://pkg.go.dev/" + req.Mod.Path,
			ResolvedPath: dir,
			Ecosystem:    models.EcosystemGoMod,
		})
	}

	return deps, nil
}

// resolveModuleDir applies replace directives, preferring a version-specific
// replacement over a wildcard one
func resolveModuleDir(mv module.Version, replaces []*modfile.Replace, modDir, cacheDir string) (string, bool) {
	target := replacementFor(mv, replaces)

	if target.Version == "" && modfile.IsDirectoryPath(target.Path) {
		dir := filepath.FromSlash(target.Path)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(modDir, dir)
		}
		return filepath.Clean(dir), true
	}

	escapedPath, err := module.EscapePath(target.Path)
	if err != nil {
		return "", false
	}
	escapedVersion, err := module.EscapeVersion(target.Version)
	if err != nil {
		return "", false
	}
	return filepath.Join(cacheDir, filepath.FromSlash(escapedPath)+"@"+escapedVersion), true
}

func replacementFor(mv module.Version, replaces []*modfile.Replace) module.Version {
	var wildcard *modfile.Replace
	for _, rep := range replaces {
		if rep.Old.Path != mv.Path {
			continue
		}
		if rep.Old.Version == mv.Version {
			return rep.New
		}
		if rep.Old.Version == "" {
			wildcard = rep
		}
	}
	if wildcard != nil {
		return wildcard.New
	}
	return mv
}

// moduleCacheDir mirrors the go command: GOMODCACHE, else GOPATH/pkg/mod,
// else ~/go/pkg/mod
func (r *GoModReader) moduleCacheDir() string {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if dir := getenv("GOMODCACHE"); dir != "" {
		return dir
	}
	if gopath := getenv("GOPATH"); gopath != "" {
		if list := filepath.SplitList(gopath); len(list) > 0 && list[0] != "" {
			return filepath.Join(list[0], "pkg", "mod")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("go", "pkg", "mod")
	}
	return filepath.Join(home, "go", "pkg", "mod")
}
