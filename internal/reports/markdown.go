package reports

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"atmodensity/internal/models"
)

// Markdown renders the batch summary: totals followed by one table row per year
func Markdown(report *models.BatchReport) string {
	var b strings.Builder

	b.WriteString("# Density Batch Summary\n\n")
	fmt.Fprintf(&b, "- **Started:** %s\n", report.Started.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Finished:** %s\n", report.Finished.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Years:** %d succeeded, %d failed\n\n", len(report.Succeeded()), len(report.Failed()))

	b.WriteString("| Year | Date | Status | Stage | Ap | F10.7 | F10.7A | Dataset | Image | Duration | Error |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|---|\n")
	for _, o := range report.Outcomes {
		status := "✅ success"
		indices := []string{fmt.Sprintf("%g", o.Ap), fmt.Sprintf("%g", o.F107), fmt.Sprintf("%g", o.F107A)}
		if !o.OK() {
			status = "❌ failure"
			if o.Stage == "compute" || o.Stage == "config" || o.Stage == "cancelled" {
				indices = []string{"-", "-", "-"}
			}
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			o.Year,
			o.Date.Format(models.TimestampLayout),
			status,
			cell(o.Stage),
			indices[0], indices[1], indices[2],
			cell(base(o.DatasetPath)),
			cell(base(o.ImagePath)),
			o.Duration.Round(time.Millisecond).String(),
			cell(o.Error),
		)
	}
	return b.String()
}

func base(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// cell escapes table separators, angle brackets and line breaks
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
