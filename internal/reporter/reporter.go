// Package reporter renders collection reports for people and for tools.
package reporter

import "github.com/ethanolivertroy/license-audit/internal/models"

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given collection report
	Report(report *models.CollectionReport) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "yaml", "yml":
		return &YAMLReporter{}
	case "sarif":
		return &SARIFReporter{}
	default:
		return &TerminalReporter{}
	}
}
