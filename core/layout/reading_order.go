// Package layout reconstructs the linear reading sequence of multi-column
// document layouts from detected regions.
package layout

import (
	"sort"
	"strings"

	"github.com/evidra/evidra/model"
)

// DefaultColumnThreshold is the maximum horizontal distance between a
// region's x-center and the running column mean for the region to join that
// column, in source coordinate units.
const DefaultColumnThreshold = 50.0

// Resolver assigns a global reading order to layout regions using column
// detection, top-to-bottom ordering and region-type priority tie-breaks.
type Resolver struct {
	ColumnThreshold float64
}

// NewResolver creates a resolver with the default column threshold.
func NewResolver() *Resolver {
	return &Resolver{ColumnThreshold: DefaultColumnThreshold}
}

// Resolve annotates every input region with a reading order that is strictly
// increasing across pages and follows columns left-to-right within a page.
func (r *Resolver) Resolve(regions []model.Region) []model.OrderedRegion {
	if len(regions) == 0 {
		return []model.OrderedRegion{}
	}

	byPage := make(map[int][]model.Region)
	for _, region := range regions {
		byPage[region.PageNum] = append(byPage[region.PageNum], region)
	}

	pages := make([]int, 0, len(byPage))
	for page := range byPage {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	ordered := make([]model.OrderedRegion, 0, len(regions))
	globalOrder := 0

	for _, page := range pages {
		for _, region := range r.orderPage(byPage[page]) {
			ordered = append(ordered, model.OrderedRegion{
				Region:       region,
				ReadingOrder: globalOrder,
			})
			globalOrder++
		}
	}

	return ordered
}

// orderPage orders the regions of a single page: columns left-to-right, and
// within a column by (type priority, y1).
func (r *Resolver) orderPage(regions []model.Region) []model.Region {
	columns := r.detectColumns(regions)

	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].xCenter < columns[j].xCenter
	})

	ordered := make([]model.Region, 0, len(regions))
	for _, col := range columns {
		colRegions := col.regions
		sort.SliceStable(colRegions, func(i, j int) bool {
			pi, pj := colRegions[i].Type.Priority(), colRegions[j].Type.Priority()
			if pi != pj {
				return pi < pj
			}
			return colRegions[i].BBox.Y1() < colRegions[j].BBox.Y1()
		})
		ordered = append(ordered, colRegions...)
	}

	return ordered
}

type column struct {
	xCenter float64
	regions []model.Region
}

// detectColumns clusters regions into columns by horizontal center. Regions
// are swept in x-center order and greedily assigned to the current column
// while within the threshold of its running mean.
func (r *Resolver) detectColumns(regions []model.Region) []column {
	if len(regions) == 0 {
		return nil
	}

	sorted := make([]model.Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.XCenter() < sorted[j].BBox.XCenter()
	})

	var columns []column
	current := column{
		xCenter: sorted[0].BBox.XCenter(),
		regions: []model.Region{sorted[0]},
	}

	for _, region := range sorted[1:] {
		xCenter := region.BBox.XCenter()
		if abs(xCenter-current.xCenter) < r.ColumnThreshold {
			current.regions = append(current.regions, region)
			n := float64(len(current.regions))
			current.xCenter = (current.xCenter*(n-1) + xCenter) / n
		} else {
			columns = append(columns, current)
			current = column{
				xCenter: xCenter,
				regions: []model.Region{region},
			}
		}
	}
	columns = append(columns, current)

	return columns
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// OrderedText concatenates region texts in reading order, skipping regions
// without text.
func OrderedText(ordered []model.OrderedRegion, textByRegion map[string]string) string {
	sorted := make([]model.OrderedRegion, len(ordered))
	copy(sorted, ordered)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReadingOrder < sorted[j].ReadingOrder
	})

	var texts []string
	for _, region := range sorted {
		if text := textByRegion[region.ID]; text != "" {
			texts = append(texts, text)
		}
	}

	return strings.Join(texts, "\n\n")
}
