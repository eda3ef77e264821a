// Package locator finds the license file shipped at the root of a package.
package locator

import (
	"os"
	"path/filepath"
)

// Candidates are the license file names tried, in priority order.
// Matching is exact and case-sensitive.
var Candidates = []string{
	"LICENSE",
	"LICENSE.md",
	"LICENSE.txt",
	"LICENCE",
	"LICENCE.md",
	"LICENCE.txt",
}

// Find returns the path of the first candidate present in dir. A dir that
// does not exist or is not a directory yields false, never an error.
func Find(dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}

	// Read the entry names once so matching stays case-sensitive on
	// case-insensitive filesystems.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() || e.Type()&os.ModeSymlink != 0 {
			present[e.Name()] = true
		}
	}

	for _, name := range Candidates {
		if !present[name] {
			continue
		}
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
