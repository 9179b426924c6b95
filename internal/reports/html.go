package reports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"atmodensity/internal/logger"
	"atmodensity/internal/models"
)

const (
	SummaryFilename = "batch_summary.html"
	JSONFilename    = "batch_summary.json"
)

var pageTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Density Batch Summary</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #212529; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ced4da; padding: 4px 8px; font-size: 13px; }
th { background: #f1f3f5; }
</style>
</head>
<body>
{{.Content}}
{{if .Chart}}<h2>Model Drivers</h2>
{{.Chart}}{{end}}
</body>
</html>
`))

// HTMLReporter writes the batch summary as HTML plus a JSON copy of the outcomes
type HTMLReporter struct {
	dir      string
	goldmark goldmark.Markdown
	log      *logger.Logger
}

// NewHTMLReporter creates a reporter writing into dir
func NewHTMLReporter(dir string) *HTMLReporter {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	return &HTMLReporter{
		dir:      dir,
		goldmark: md,
		log:      logger.GetGlobalLogger().WithComponent("reports"),
	}
}

// ConvertMarkdownToHTML converts markdown to HTML using goldmark
func (h *HTMLReporter) ConvertMarkdownToHTML(markdownContent string) (string, error) {
	var buf bytes.Buffer
	if err := h.goldmark.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Write renders the summary page and returns its path
func (h *HTMLReporter) Write(report *models.BatchReport) (string, error) {
	if err := os.MkdirAll(h.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	content, err := h.ConvertMarkdownToHTML(Markdown(report))
	if err != nil {
		return "", err
	}

	// A batch with no successful year has nothing to chart
	chart, err := IndicesChart(report)
	if err != nil {
		h.log.Warn("indices chart unavailable", map[string]interface{}{"error": err.Error()})
		chart = ""
	}

	var page bytes.Buffer
	if err := pageTemplate.Execute(&page, struct {
		Content template.HTML
		Chart   template.HTML
	}{template.HTML(content), template.HTML(chart)}); err != nil {
		return "", fmt.Errorf("failed to render summary page: %w", err)
	}

	path := filepath.Join(h.dir, SummaryFilename)
	if err := os.WriteFile(path, page.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(h.dir, JSONFilename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write batch report json: %w", err)
	}

	return path, nil
}
