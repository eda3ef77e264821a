package reporter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// Color palette for dark terminal backgrounds
const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)
)

// TerminalReporter outputs the report in a human-readable terminal format
type TerminalReporter struct{}

// Report generates terminal output for the given report
func (r *TerminalReporter) Report(report *models.CollectionReport) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("\n" + titleStyle.Render(fmt.Sprintf("%s licenses", report.Ecosystem)) + "\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	sb.WriteString(fmt.Sprintf("Collected %d of %d license files into %s\n",
		report.Collected(), report.Total(), report.StagingDir))
	if len(report.Ignored) > 0 {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("Ignored: %s", strings.Join(report.Ignored, ", "))) + "\n")
	}
	sb.WriteString("\n")

	if !report.HasMissing() {
		sb.WriteString(successStyle.Render("All dependencies ship a license file.") + "\n")
		return []byte(sb.String()), nil
	}

	sb.WriteString(warningStyle.Render(fmt.Sprintf("%d dependencies have no license file:", report.MissingCount())) + "\n\n")

	deps := dependencyIndex(report)
	for _, w := range report.Warnings {
		name := w.Identity
		if dep, ok := deps[w.Identity]; ok {
			name = dep.String()
		}
		sb.WriteString(fmt.Sprintf("  %s\n", name))
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("    looked in: %s", w.SearchedPath)) + "\n")
		if url := deps[w.Identity].SourceURL; url != "" {
			sb.WriteString(mutedStyle.Render(fmt.Sprintf("    source:    %s", url)) + "\n")
		}
	}
	sb.WriteString("\n" + strings.Repeat("-", 60) + "\n")

	return []byte(sb.String()), nil
}
