package model

import (
	"fmt"
	"strings"
)

// ExtractionType discriminates structured extraction payloads.
type ExtractionType string

const (
	ExtractionTypeTable ExtractionType = "table"
	ExtractionTypeChart ExtractionType = "chart"
)

// maxRenderedRows bounds how many table rows are serialized into chunk text.
const maxRenderedRows = 10

// Extraction is the structured result of the vision capability for one table
// or figure region. Exactly one of Table/Chart is set according to Type.
// A failed extraction carries Err and empty content instead of raising.
type Extraction struct {
	RegionID string         `json:"region_id"`
	PageNum  int            `json:"page_num"`
	Type     ExtractionType `json:"type"`
	Err      string         `json:"error,omitempty"`
	Table    *TableData     `json:"table,omitempty"`
	Chart    *ChartData     `json:"chart,omitempty"`
}

// TableData is the structured content of an extracted table.
type TableData struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	Units     string     `json:"units,omitempty"`
	Footnotes string     `json:"footnotes,omitempty"`
	Summary   string     `json:"summary,omitempty"`
}

// Axis describes one axis of an extracted chart.
type Axis struct {
	Label  string   `json:"label,omitempty"`
	Values []string `json:"values,omitempty"`
	Range  string   `json:"range,omitempty"`
}

// DataSeries names one plotted series of an extracted chart.
type DataSeries struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// ChartData is the structured content of an extracted chart or figure.
type ChartData struct {
	ChartType   string       `json:"chart_type"`
	Title       string       `json:"title,omitempty"`
	XAxis       Axis         `json:"x_axis,omitempty"`
	YAxis       Axis         `json:"y_axis,omitempty"`
	DataSeries  []DataSeries `json:"data_series,omitempty"`
	KeyInsights []string     `json:"key_insights,omitempty"`
	Trends      string       `json:"trends,omitempty"`
	Anomalies   string       `json:"anomalies,omitempty"`
	Summary     string       `json:"summary,omitempty"`
}

// RenderText serializes the extraction into the tagged textual block that
// becomes chunk text. Structured data is lossy as flat OCR text; re-serializing
// the extraction keeps the semantic structure visible to the embedding model.
func (e Extraction) RenderText() string {
	switch {
	case e.Type == ExtractionTypeTable && e.Table != nil:
		return e.Table.renderText()
	case e.Type == ExtractionTypeChart && e.Chart != nil:
		return e.Chart.renderText()
	default:
		return ""
	}
}

func (t *TableData) renderText() string {
	parts := []string{"[TABLE]"}

	if t.Summary != "" {
		parts = append(parts, "Summary: "+t.Summary)
	}
	if len(t.Headers) > 0 {
		parts = append(parts, "Headers: "+strings.Join(t.Headers, ", "))
	}
	if len(t.Rows) > 0 {
		parts = append(parts, "Data:")
		for i, row := range t.Rows {
			if i >= maxRenderedRows {
				break
			}
			parts = append(parts, fmt.Sprintf("  Row %d: %s", i+1, strings.Join(row, ", ")))
		}
	}
	if t.Units != "" {
		parts = append(parts, "Units: "+t.Units)
	}
	if t.Footnotes != "" {
		parts = append(parts, "Notes: "+t.Footnotes)
	}

	return strings.Join(parts, "\n")
}

func (c *ChartData) renderText() string {
	chartType := c.ChartType
	if chartType == "" {
		chartType = "unknown"
	}
	parts := []string{fmt.Sprintf("[CHART: %s]", chartType)}

	if c.Title != "" {
		parts = append(parts, "Title: "+c.Title)
	}
	if c.Summary != "" {
		parts = append(parts, "Summary: "+c.Summary)
	}
	if c.XAxis.Label != "" {
		parts = append(parts, "X-axis: "+c.XAxis.Label)
	}
	if c.YAxis.Label != "" {
		yAxisRange := c.YAxis.Range
		if yAxisRange == "" {
			yAxisRange = "N/A"
		}
		parts = append(parts, fmt.Sprintf("Y-axis: %s (Range: %s)", c.YAxis.Label, yAxisRange))
	}
	if c.Trends != "" {
		parts = append(parts, "Trends: "+c.Trends)
	}
	if len(c.KeyInsights) > 0 {
		parts = append(parts, "Key Insights:")
		for _, insight := range c.KeyInsights {
			parts = append(parts, "  - "+insight)
		}
	}
	if c.Anomalies != "" {
		parts = append(parts, "Anomalies: "+c.Anomalies)
	}

	return strings.Join(parts, "\n")
}
