package models

// LicenseFile is a license copied into the staging directory
type LicenseFile struct {
	Identity    string
	Source      string // Path the bytes were read from
	Destination string // File name under THIRD_PARTY_LICENSES
	Size        int64
	Digest      string
}

// Warning is a non-fatal per-dependency problem
type Warning struct {
	Identity     string
	SearchedPath string
	Message      string
}

// CollectionReport summarises one collection run
type CollectionReport struct {
	Ecosystem  Ecosystem
	StagingDir string

	Dependencies []Dependency // Sorted by identity
	Licenses     []LicenseFile
	Missing      []string // Identities without a license file
	Ignored      []string // Identities matched by an ignore pattern
	Warnings     []Warning

	ProjectLicense string // Source path of the copied project license
}

// Total returns the number of dependencies considered
func (r *CollectionReport) Total() int {
	return len(r.Dependencies)
}

// Collected returns the number of license files written
func (r *CollectionReport) Collected() int {
	return len(r.Licenses)
}

// MissingCount returns the number of dependencies without a license file
func (r *CollectionReport) MissingCount() int {
	return len(r.Missing)
}

// HasMissing returns true if any dependency had no license file
func (r *CollectionReport) HasMissing() bool {
	return len(r.Missing) > 0
}
