package models

import "time"

const (
	// ThirdPartyDir is the staging subdirectory holding dependency licenses
	ThirdPartyDir = "THIRD_PARTY_LICENSES"

	// ProjectLicenseName is the file name of the project license at the staging root
	ProjectLicenseName = "LICENSE"
)

// Config holds the explicit inputs of one license-audit invocation
type Config struct {
	Ecosystem Ecosystem

	// Locations
	ProjectDir     string // Directory the package manager runs in
	StagingDir     string // Freshly generated output (staging root)
	CommittedDir   string // Version-controlled license snapshot
	ProjectLicense string // The project's own license file

	// Ecosystem inputs
	PackageConfig   string // Dart package_config.json
	LockFile        string // go.mod or package-lock.json
	IncludeIndirect bool   // gomod: include // indirect requirements

	// Behavior settings
	Ignore  []string      // Glob patterns of identities to skip
	Prune   bool          // publish: delete committed files absent from staging
	Timeout time.Duration // Package manager timeout, 0 means none

	// Output settings
	OutputFormat string // "terminal", "json", "yaml", "sarif"
	OutputFile   string // Optional report file path
}

// DefaultConfig returns a Config with the conventional layout for an ecosystem
func DefaultConfig(eco Ecosystem) *Config {
	projectDir := "analyzer"
	if eco == EcosystemGoMod || eco == EcosystemNpm {
		projectDir = "."
	}
	return &Config{
		Ecosystem:      eco,
		ProjectDir:     projectDir,
		StagingDir:     "",
		CommittedDir:   "src/main/resources/" + string(eco) + "-licenses",
		ProjectLicense: ProjectLicenseName,
		OutputFormat:   "terminal",
	}
}
