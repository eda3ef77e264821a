package manifest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

var dartDepsArgs = []string{"pub", "deps", "--no-dev", "--style=compact"}

// dartPackageLine matches compact `dart pub deps` lines like "- path 1.9.0 [meta]"
var dartPackageLine = regexp.MustCompile(`^- (\S+) (.+)$`)

// dartSectionHeader matches "dependencies:" and "transitive dependencies:"
var dartSectionHeader = regexp.MustCompile(`^(?:[a-z]+ )?dependencies:$`)

// dartPackageRoot is a resolved package_config entry
type dartPackageRoot struct {
	dir    string
	pubDev bool
}

// DartReader resolves Dart packages from `dart pub deps` and package_config.json
type DartReader struct {
	Runner Runner
}

// Ecosystem returns the Dart ecosystem
func (r *DartReader) Ecosystem() models.Ecosystem {
	return models.EcosystemDart
}

// Read lists the non-dev packages that also have a root in package_config.json
func (r *DartReader) Read(ctx context.Context, cfg *models.Config) ([]models.Dependency, error) {
	output, err := r.Runner.Run(ctx, cfg.ProjectDir, "dart", dartDepsArgs...)
	if err != nil {
		return nil, err
	}
	versions, err := parseDartDeps(output)
	if err != nil {
		return nil, err
	}

	configPath := cfg.PackageConfig
	if configPath == "" {
		configPath = filepath.Join(cfg.ProjectDir, ".dart_tool", "package_config.json")
	}
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read package config: %w", err)
	}
	roots, err := parsePackageConfig(configPath, content)
	if err != nil {
		return nil, err
	}

	// Dev-only packages never show up in the name set; packages without a
	// resolvable root (SDK packages) never show up in roots.
	names := lo.Filter(lo.Keys(versions), func(name string, _ int) bool {
		_, ok := roots[name]
		return ok
	})
	sort.Strings(names)

	deps := make([]models.Dependency, 0, len(names))
	for _, name := range names {
		root := roots[name]
		dep := models.Dependency{
			Identity:     name,
			DisplayName:  name,
			Version:      versions[name],
			ResolvedPath: root.dir,
			Ecosystem:    models.EcosystemDart,
		}
		// Path, git and third-party hosted packages have no pub.dev page
		if root.pubDev {
			dep.SourceURL = "https://pub.dev/packages/" + name
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// parseDartDeps returns package name -> version for every package line.
// Output carrying neither a dependencies section nor a package line is not
// `dart pub deps` output.
func parseDartDeps(output []byte) (map[string]string, error) {
	versions := make(map[string]string)
	sawSection := false
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if dartSectionHeader.MatchString(strings.TrimSpace(line)) {
			sawSection = true
			continue
		}
		matches := dartPackageLine.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		version := ""
		if fields := strings.Fields(matches[2]); len(fields) > 0 {
			version = fields[0]
		}
		versions[matches[1]] = version
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Source: dartDepsSource(), Reason: "unreadable output", Err: err}
	}
	if !sawSection && len(versions) == 0 {
		return nil, &ParseError{Source: dartDepsSource(), Reason: "no dependencies section or package lines"}
	}
	return versions, nil
}

func dartDepsSource() string {
	return "output of dart " + strings.Join(dartDepsArgs, " ")
}

// parsePackageConfig maps package name -> absolute root directory
func parsePackageConfig(configPath string, content []byte) (map[string]dartPackageRoot, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil || doc == nil {
		return nil, &ParseError{Source: configPath, Reason: "expected a JSON object", Err: err}
	}

	rawPackages, ok := doc["packages"]
	if !ok {
		return nil, &ParseError{Source: configPath, Reason: "missing 'packages' array"}
	}
	var packages []json.RawMessage
	if err := json.Unmarshal(rawPackages, &packages); err != nil || packages == nil {
		return nil, &ParseError{Source: configPath, Reason: "missing 'packages' array", Err: err}
	}

	baseDir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", configPath, err)
	}

	roots := make(map[string]dartPackageRoot, len(packages))
	for _, raw := range packages {
		var entry struct {
			Name    *string `json:"name"`
			RootURI *string `json:"rootUri"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Name == nil || entry.RootURI == nil {
			continue
		}
		root, ok := resolveRootURI(*entry.RootURI, baseDir)
		if !ok {
			continue
		}
		roots[*entry.Name] = dartPackageRoot{dir: root, pubDev: isPubDevRootURI(*entry.RootURI)}
	}
	return roots, nil
}

// resolveRootURI turns a package_config rootUri into a directory. Absolute
// file:// URIs are used as-is, relative references resolve against baseDir.
func resolveRootURI(rootURI, baseDir string) (string, bool) {
	u, err := url.Parse(rootURI)
	if err != nil {
		return "", false
	}

	if u.Scheme == "file" {
		if u.Path == "" {
			return "", false
		}
		p := u.Path
		// file:///C:/pub-cache/... on Windows
		if len(p) > 2 && p[0] == '/' && p[2] == ':' {
			p = p[1:]
		}
		return filepath.Clean(filepath.FromSlash(p)), true
	}
	if u.Scheme != "" || u.Path == "" {
		return "", false
	}

	return canonicalPath(filepath.Join(baseDir, filepath.FromSlash(u.Path))), true
}

// pubDevCacheDirs are the pub cache directories holding packages downloaded
// from pub.dev, keyed by the hosted-url the package came from
var pubDevCacheDirs = []string{"/hosted/pub.dev/", "/hosted/pub.dartlang.org/"}

// isPubDevRootURI reports whether rootUri points at a pub.dev download in
// the pub cache
func isPubDevRootURI(rootURI string) bool {
	u, err := url.Parse(rootURI)
	if err != nil || u.Scheme != "file" {
		return false
	}
	return lo.SomeBy(pubDevCacheDirs, func(dir string) bool {
		return strings.Contains(u.Path, dir)
	})
}

// canonicalPath resolves symlinks when the path exists
func canonicalPath(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}
