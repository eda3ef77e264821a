package reporter

import (
	"encoding/json"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// JSONReporter outputs the report in JSON format
type JSONReporter struct{}

// document is the machine-readable shape shared by the JSON and YAML reporters
type document struct {
	Summary        summary       `json:"summary" yaml:"summary"`
	Ecosystem      string        `json:"ecosystem" yaml:"ecosystem"`
	StagingDir     string        `json:"staging_dir" yaml:"staging_dir"`
	ProjectLicense string        `json:"project_license" yaml:"project_license"`
	Licenses       []licenseItem `json:"licenses" yaml:"licenses"`
	Missing        []missingItem `json:"missing" yaml:"missing"`
	Ignored        []string      `json:"ignored" yaml:"ignored"`
}

type summary struct {
	Total     int `json:"total" yaml:"total"`
	Collected int `json:"collected" yaml:"collected"`
	Missing   int `json:"missing" yaml:"missing"`
	Ignored   int `json:"ignored" yaml:"ignored"`
}

type licenseItem struct {
	Package     string `json:"package" yaml:"package"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Size        int64  `json:"size" yaml:"size"`
	Digest      string `json:"digest" yaml:"digest"`
}

type missingItem struct {
	Package   string `json:"package" yaml:"package"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	LookedIn  string `json:"looked_in" yaml:"looked_in"`
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}

// Report generates JSON output for the given report
func (r *JSONReporter) Report(report *models.CollectionReport) ([]byte, error) {
	return json.MarshalIndent(newDocument(report), "", "  ")
}

func newDocument(report *models.CollectionReport) document {
	doc := document{
		Summary: summary{
			Total:     report.Total(),
			Collected: report.Collected(),
			Missing:   report.MissingCount(),
			Ignored:   len(report.Ignored),
		},
		Ecosystem:      string(report.Ecosystem),
		StagingDir:     report.StagingDir,
		ProjectLicense: report.ProjectLicense,
		Licenses:       make([]licenseItem, 0, len(report.Licenses)),
		Missing:        make([]missingItem, 0, len(report.Missing)),
		Ignored:        append([]string{}, report.Ignored...),
	}

	deps := dependencyIndex(report)
	for _, lf := range report.Licenses {
		doc.Licenses = append(doc.Licenses, licenseItem{
			Package:     lf.Identity,
			Version:     deps[lf.Identity].Version,
			Source:      lf.Source,
			Destination: models.ThirdPartyDir + "/" + lf.Destination,
			Size:        lf.Size,
			Digest:      lf.Digest,
		})
	}
	for _, w := range report.Warnings {
		doc.Missing = append(doc.Missing, missingItem{
			Package:   w.Identity,
			Version:   deps[w.Identity].Version,
			LookedIn:  w.SearchedPath,
			SourceURL: deps[w.Identity].SourceURL,
		})
	}
	return doc
}

func dependencyIndex(report *models.CollectionReport) map[string]models.Dependency {
	index := make(map[string]models.Dependency, len(report.Dependencies))
	for _, d := range report.Dependencies {
		index[d.Identity] = d
	}
	return index
}
