package manifest

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

var swiftDepsArgs = []string{"package", "show-dependencies", "--format", "json"}

// SwiftReader resolves Swift Package Manager dependencies from
// `swift package show-dependencies --format json`. Every resolved package is
// treated as production since SPM has no dev-only dependencies.
type SwiftReader struct {
	Runner Runner
}

// Ecosystem returns the Swift ecosystem
func (r *SwiftReader) Ecosystem() models.Ecosystem {
	return models.EcosystemSwift
}

// Read flattens the dependency tree into one entry per identity
func (r *SwiftReader) Read(ctx context.Context, cfg *models.Config) ([]models.Dependency, error) {
	output, err := r.Runner.Run(ctx, cfg.ProjectDir, "swift", swiftDepsArgs...)
	if err != nil {
		return nil, err
	}

	source := "output of swift " + strings.Join(swiftDepsArgs, " ")
	var root map[string]any
	if err := json.Unmarshal(output, &root); err != nil || root == nil {
		return nil, &ParseError{Source: source, Reason: "expected a JSON object", Err: err}
	}
	if _, ok := root["dependencies"].([]any); !ok {
		return nil, &ParseError{Source: source, Reason: "missing 'dependencies' array"}
	}

	deps := flattenSwiftDependencies(root)
	for i := range deps {
		if !filepath.IsAbs(deps[i].ResolvedPath) {
			deps[i].ResolvedPath = filepath.Join(cfg.ProjectDir, deps[i].ResolvedPath)
		}
	}
	return deps, nil
}

// flattenSwiftDependencies walks dependencies[] at every level in pre-order
// using an explicit stack. The first occurrence of an identity wins and its
// subtree is walked once. Entries without an identity or path are skipped
// together with their subtree.
func flattenSwiftDependencies(root map[string]any) []models.Dependency {
	var deps []models.Dependency
	seen := make(map[string]bool)

	stack := pushReversed(nil, swiftChildren(root))
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		identity, ok := node["identity"].(string)
		if !ok {
			continue
		}
		path, ok := node["path"].(string)
		if !ok || path == "" {
			continue
		}
		if seen[identity] {
			continue
		}
		seen[identity] = true

		name, ok := node["name"].(string)
		if !ok {
			name = identity
		}
		sourceURL, _ := node["url"].(string)
		version, _ := node["version"].(string)

		deps = append(deps, models.Dependency{
			Identity:     identity,
			DisplayName:  name,
			Version:      version,
			SourceURL:    sourceURL,
			ResolvedPath: path,
			Ecosystem:    models.EcosystemSwift,
		})

		stack = pushReversed(stack, swiftChildren(node))
	}

	return deps
}

func swiftChildren(node map[string]any) []map[string]any {
	list, _ := node["dependencies"].([]any)
	children := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if child, ok := item.(map[string]any); ok {
			children = append(children, child)
		}
	}
	return children
}

// pushReversed appends nodes so the first one is popped first
func pushReversed(stack, nodes []map[string]any) []map[string]any {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, nodes[i])
	}
	return stack
}
