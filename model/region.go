package model

import (
	"fmt"

	"github.com/google/uuid"
)

// RegionType classifies a detected layout region.
type RegionType string

const (
	RegionTypeText   RegionType = "text"
	RegionTypeTitle  RegionType = "title"
	RegionTypeList   RegionType = "list"
	RegionTypeTable  RegionType = "table"
	RegionTypeFigure RegionType = "figure"
)

// Priority returns the reading-flow rank of a region type.
// Titles and body text come before lists, tables and figures so that
// headings lead even when a table starts at the same vertical position.
func (t RegionType) Priority() int {
	switch t {
	case RegionTypeTitle:
		return 0
	case RegionTypeText:
		return 1
	case RegionTypeList:
		return 2
	case RegionTypeTable:
		return 3
	case RegionTypeFigure:
		return 4
	default:
		return 5
	}
}

// BBox is a rectangular bounding box [x1, y1, x2, y2] in page coordinates.
// It serializes as a plain JSON array.
type BBox [4]float64

// XCenter returns the horizontal center of the box.
func (b BBox) XCenter() float64 {
	return (b[0] + b[2]) / 2
}

// Y1 returns the top edge of the box.
func (b BBox) Y1() float64 {
	return b[1]
}

// Region is a detected layout region on a page, produced by the layout
// capability. Immutable once created.
type Region struct {
	ID         string     `json:"region_id"`
	Type       RegionType `json:"region_type"`
	BBox       BBox       `json:"bbox"`
	Confidence float64    `json:"confidence"`
	PageNum    int        `json:"page_num"`
}

// NewRegion creates a region with a generated identifier.
func NewRegion(regionType RegionType, bbox BBox, confidence float64, pageNum int) Region {
	return Region{
		ID:         fmt.Sprintf("page%d_region_%s", pageNum, uuid.NewString()[:8]),
		Type:       regionType,
		BBox:       bbox,
		Confidence: confidence,
		PageNum:    pageNum,
	}
}

// OrderedRegion is a region annotated with its position in the document's
// linear reading sequence. ReadingOrder is globally unique and strictly
// increasing across the whole document, not just per page.
type OrderedRegion struct {
	Region
	ReadingOrder int `json:"reading_order"`
}
