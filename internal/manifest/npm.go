package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

const nodeModulesPrefix = "node_modules/"

// NpmReader resolves installed npm packages from package-lock.json
type NpmReader struct{}

// Ecosystem returns the npm ecosystem
func (r *NpmReader) Ecosystem() models.Ecosystem {
	return models.EcosystemNpm
}

// packageLock represents the structure of package-lock.json (v2/v3)
type packageLock struct {
	LockfileVersion int                        `json:"lockfileVersion"`
	Packages        map[string]lockfilePackage `json:"packages"`
}

type lockfilePackage struct {
	Version  string `json:"version"`
	Resolved string `json:"resolved"`
	Dev      bool   `json:"dev"`
	Link     bool   `json:"link"`
}

// Read extracts non-dev packages installed under node_modules
func (r *NpmReader) Read(ctx context.Context, cfg *models.Config) ([]models.Dependency, error) {
	path := cfg.LockFile
	if path == "" {
		path = filepath.Join(cfg.ProjectDir, "package-lock.json")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package lock: %w", err)
	}

	var lock packageLock
	if err := json.Unmarshal(content, &lock); err != nil {
		return nil, &ParseError{Source: path, Reason: "expected a JSON object", Err: err}
	}
	if lock.Packages == nil {
		return nil, &ParseError{Source: path, Reason: "missing 'packages' map (lockfileVersion 2 or later required)"}
	}

	projectDir, err := filepath.Abs(cfg.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.ProjectDir, err)
	}

	var deps []models.Dependency
	seen := make(map[string]bool)

	for _, key := range sortedLockKeys(lock.Packages) {
		pkg := lock.Packages[key]
		if pkg.Dev {
			continue
		}

		name := packageNameFromKey(key)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		dir := filepath.Join(projectDir, filepath.FromSlash(key))
		if pkg.Link && pkg.Resolved != "" {
			dir = filepath.Join(projectDir, filepath.FromSlash(pkg.Resolved))
		}

		deps = append(deps, models.Dependency{
			Identity:     name,
			DisplayName:  name,
			Version:      pkg.Version,
			SourceURL:    "https://www.npmjs.com/package/" + name,
			ResolvedPath: dir,
			Ecosystem:    models.EcosystemNpm,
		})
	}

	return deps, nil
}

// packageNameFromKey extracts the package name from paths like
// "node_modules/lodash" or "node_modules/a/node_modules/@types/node".
// Workspace sources outside node_modules yield "".
func packageNameFromKey(key string) string {
	idx := strings.LastIndex(key, nodeModulesPrefix)
	if idx < 0 {
		return ""
	}
	return key[idx+len(nodeModulesPrefix):]
}

// sortedLockKeys orders keys by nesting depth, then lexically, so the hoisted
// copy of a package is seen before nested duplicates
func sortedLockKeys(packages map[string]lockfilePackage) []string {
	keys := make([]string, 0, len(packages))
	for key := range packages {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		di := strings.Count(keys[i], nodeModulesPrefix)
		dj := strings.Count(keys[j], nodeModulesPrefix)
		if di != dj {
			return di < dj
		}
		return keys[i] < keys[j]
	})
	return keys
}
