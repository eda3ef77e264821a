package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// MissingLicenseRuleID identifies the rule raised for dependencies without a
// license file
const MissingLicenseRuleID = "missing-license-file"

// SARIFReporter outputs missing licenses in SARIF format for code scanning
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	FullDescription  sarifText       `json:"fullDescription"`
	Help             sarifText       `json:"help"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags []string `json:"tags"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

var missingLicenseRule = sarifRule{
	ID:   MissingLicenseRuleID,
	Name: "MissingLicenseFile",
	ShortDescription: sarifText{
		Text: "Dependency ships no license file",
	},
	FullDescription: sarifText{
		Text: "No LICENSE, LICENSE.md, LICENSE.txt, LICENCE, LICENCE.md or LICENCE.txt was found at the root of a production dependency.",
	},
	Help: sarifText{
		Text: "Check the dependency's license terms by hand, then add it to the ignore list or vendor its license text.",
	},
	DefaultConfig: sarifRuleConfig{Level: "warning"},
	Properties:    sarifProperties{Tags: []string{"license", "compliance"}},
}

// Report generates SARIF output for the given report
func (r *SARIFReporter) Report(report *models.CollectionReport) ([]byte, error) {
	out := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "license-audit",
					Version:        "1.0.0",
					InformationURI: "https://github.com/ethanolivertroy/license-audit",
					Rules:          []sarifRule{missingLicenseRule},
				},
			},
			Results: r.buildResults(report),
		}},
	}

	return json.MarshalIndent(out, "", "  ")
}

func (r *SARIFReporter) buildResults(report *models.CollectionReport) []sarifResult {
	deps := dependencyIndex(report)
	results := make([]sarifResult, 0, len(report.Warnings))

	for _, w := range report.Warnings {
		name := w.Identity
		if dep, ok := deps[w.Identity]; ok {
			name = dep.String()
		}
		msg := fmt.Sprintf("Dependency %s has no license file in %s", name, w.SearchedPath)

		results = append(results, sarifResult{
			RuleID:    MissingLicenseRuleID,
			RuleIndex: 0,
			Level:     "warning",
			Message:   sarifText{Text: msg},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifact{URI: w.SearchedPath},
				},
			}},
			PartialFingerprints: map[string]string{
				"primaryLocationLineHash": fmt.Sprintf("%s:%s:%s", report.Ecosystem, w.Identity, MissingLicenseRuleID),
			},
		})
	}

	return results
}
