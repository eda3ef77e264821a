package models

import (
	"fmt"
	"strings"
)

// Ecosystem represents a package ecosystem
type Ecosystem string

const (
	EcosystemDart  Ecosystem = "dart"
	EcosystemSwift Ecosystem = "swift"
	EcosystemGoMod Ecosystem = "gomod"
	EcosystemNpm   Ecosystem = "npm"
)

// Ecosystems lists every supported ecosystem in display order
var Ecosystems = []Ecosystem{EcosystemDart, EcosystemSwift, EcosystemGoMod, EcosystemNpm}

// ParseEcosystem validates an ecosystem name given on the command line
func ParseEcosystem(name string) (Ecosystem, error) {
	for _, e := range Ecosystems {
		if string(e) == strings.ToLower(strings.TrimSpace(name)) {
			return e, nil
		}
	}
	names := make([]string, len(Ecosystems))
	for i, e := range Ecosystems {
		names[i] = string(e)
	}
	return "", fmt.Errorf("unsupported ecosystem %q (supported: %s)", name, strings.Join(names, ", "))
}

// Dependency represents a single resolved production dependency
type Dependency struct {
	Identity     string // Unique within one ecosystem run
	DisplayName  string
	Version      string // Informational only
	SourceURL    string // Informational only
	ResolvedPath string // Package root directory on disk
	Ecosystem    Ecosystem
}

// String returns a human-readable representation
func (d Dependency) String() string {
	if d.Version == "" {
		return d.Identity
	}
	return d.Identity + "@" + d.Version
}

// LicenseFileName returns the staging file name for a dependency identity.
// Path separators are flattened so scoped or slash-separated identities stay
// inside the output directory.
func LicenseFileName(identity string) string {
	safe := strings.NewReplacer("/", ".", "\\", ".").Replace(identity)
	return safe + "-LICENSE.txt"
}
