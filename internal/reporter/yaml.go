package reporter

import (
	"gopkg.in/yaml.v3"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// YAMLReporter outputs the report in YAML format
type YAMLReporter struct{}

// Report generates YAML output for the given report
func (r *YAMLReporter) Report(report *models.CollectionReport) ([]byte, error) {
	return yaml.Marshal(newDocument(report))
}
