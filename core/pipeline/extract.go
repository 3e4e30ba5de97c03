package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/evidra/evidra/model"
)

// TablePrompt instructs the vision model to return table structure as raw JSON.
const TablePrompt = `Analyze this table image and extract structured information.

You MUST respond with ONLY a valid JSON object. Do not include any text before or after the JSON.
Do not use markdown code blocks. Just return the raw JSON.

Return this exact structure:
{
    "headers": ["col1", "col2"],
    "rows": [["val1", "val2"], ["val3", "val4"]],
    "units": "description of units if any or empty string",
    "footnotes": "any footnotes or empty string",
    "summary": "brief description of what the table shows"
}

Extract all visible data. If you cannot see the table clearly, return empty arrays for headers and rows.
Respond with JSON only, no other text.`

// ChartPrompt instructs the vision model to return chart structure as raw JSON.
const ChartPrompt = `Analyze this chart/figure and extract key information.

You MUST respond with ONLY a valid JSON object. Do not include any text before or after the JSON.
Do not use markdown code blocks. Just return the raw JSON.

Return this exact structure:
{
    "chart_type": "bar/line/scatter/pie/diagram/other",
    "title": "chart title if visible or empty string",
    "x_axis": {"label": "x-axis label", "values": ["val1", "val2"]},
    "y_axis": {"label": "y-axis label", "range": "min-max"},
    "data_series": [{"name": "series1", "description": "what it shows"}],
    "key_insights": ["insight1", "insight2"],
    "trends": "description of visible trends",
    "anomalies": "any notable anomalies or empty string",
    "summary": "comprehensive description of what the chart shows"
}

If you cannot clearly see certain elements, use empty strings or empty arrays.
Respond with JSON only, no other text.`

var (
	jsonFenceRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fenceRegex     = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// CleanJSONResponse repairs a model response into parseable JSON: markdown
// code fences are stripped, then everything outside the outermost brace pair
// is discarded.
func CleanJSONResponse(response string) string {
	if strings.Contains(response, "```json") {
		if match := jsonFenceRegex.FindStringSubmatch(response); match != nil {
			response = match[1]
		}
	} else if strings.Contains(response, "```") {
		if match := fenceRegex.FindStringSubmatch(response); match != nil {
			response = match[1]
		}
	}

	firstBrace := strings.Index(response, "{")
	lastBrace := strings.LastIndex(response, "}")
	if firstBrace != -1 && lastBrace > firstBrace {
		response = response[firstBrace : lastBrace+1]
	}

	return strings.TrimSpace(response)
}

// ParseTableResponse parses a vision response for a table region. A response
// that is not valid JSON even after repair yields a degraded extraction with
// the parse error recorded instead of failing the document.
func ParseTableResponse(response string, region model.Region) model.Extraction {
	extraction := model.Extraction{
		RegionID: region.ID,
		PageNum:  region.PageNum,
		Type:     model.ExtractionTypeTable,
	}

	var table model.TableData
	if err := json.Unmarshal([]byte(CleanJSONResponse(response)), &table); err != nil {
		extraction.Err = fmt.Sprintf("JSON parse error: %v", err)
		extraction.Table = &model.TableData{
			Headers: []string{},
			Rows:    [][]string{},
			Summary: "Table extraction failed - invalid JSON response",
		}
		return extraction
	}

	if table.Headers == nil {
		table.Headers = []string{}
	}
	if table.Rows == nil {
		table.Rows = [][]string{}
	}

	extraction.Table = &table
	return extraction
}

// ParseChartResponse parses a vision response for a chart or figure region,
// degrading like ParseTableResponse on unparseable responses.
func ParseChartResponse(response string, region model.Region) model.Extraction {
	extraction := model.Extraction{
		RegionID: region.ID,
		PageNum:  region.PageNum,
		Type:     model.ExtractionTypeChart,
	}

	var chart model.ChartData
	if err := json.Unmarshal([]byte(CleanJSONResponse(response)), &chart); err != nil {
		extraction.Err = fmt.Sprintf("JSON parse error: %v", err)
		extraction.Chart = &model.ChartData{
			ChartType: "unknown",
			Summary:   "Chart extraction failed - invalid JSON response",
		}
		return extraction
	}

	if chart.ChartType == "" {
		chart.ChartType = "unknown"
	}

	extraction.Chart = &chart
	return extraction
}

// FailedExtraction builds the degraded extraction recorded when the vision
// call itself fails for a region.
func FailedExtraction(region model.Region, callErr error) model.Extraction {
	extraction := model.Extraction{
		RegionID: region.ID,
		PageNum:  region.PageNum,
		Err:      callErr.Error(),
	}

	switch region.Type {
	case model.RegionTypeFigure:
		extraction.Type = model.ExtractionTypeChart
		extraction.Chart = &model.ChartData{
			ChartType: "unknown",
			Summary:   "Chart extraction failed",
		}
	default:
		extraction.Type = model.ExtractionTypeTable
		extraction.Table = &model.TableData{
			Headers: []string{},
			Rows:    [][]string{},
			Summary: "Table extraction failed",
		}
	}

	return extraction
}
