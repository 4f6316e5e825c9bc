// yearly.go
// Lays out a year of daily counts on a GitHub-like calendar grid and renders it as SVG.
package heatmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/model"
)

// maxWeeks caps the grid width. A leap year starting on Saturday would need
// a 54th column for Dec 31 alone; that day is dropped.
const maxWeeks = 53

// GridOptions configures BuildGrid.
type GridOptions struct {
	Normalization Normalization
	// Today marks in-year days after it as Future. The zero value disables marking.
	Today time.Time
}

// BuildGrid lays out the daily counts of year on a week-aligned grid.
// Column 0 starts on the Sunday on or before January 1; every column has 7 cells.
// Records whose key is not a day key, or whose day falls outside year, are ignored.
func BuildGrid(records []model.CountRecord, year int, opts GridOptions) model.CalendarGrid {
	if opts.Normalization == "" {
		opts.Normalization = Linear
	}

	// map date string to count (last write wins)
	countMap := make(map[string]int, len(records))
	for _, r := range records {
		countMap[r.BucketKey] = r.Count
	}

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	// align first column to Sunday
	gridStart := jan1.AddDate(0, 0, -int(jan1.Weekday()))

	days := int(dec31.Sub(gridStart).Hours() / 24)
	weeks := min(maxWeeks, (days+1+6)/7)

	var today time.Time
	if !opts.Today.IsZero() {
		today = clock.CivilDate(opts.Today)
	}
	isFuture := func(d time.Time) bool {
		return !today.IsZero() && d.After(today)
	}

	// find the maximum count over the visible in-year days
	maxCount := 0
	for w := range weeks {
		for i := range 7 {
			current := gridStart.AddDate(0, 0, w*7+i)
			if current.Year() != year || isFuture(current) {
				continue
			}
			if c := countMap[model.DayKey(current)]; c > maxCount {
				maxCount = c
			}
		}
	}

	grid := model.CalendarGrid{
		Year:          year,
		Weeks:         make([]model.Week, weeks),
		MonthLabels:   make([]string, weeks),
		MaxCount:      maxCount,
		Normalization: string(opts.Normalization),
	}

	lastMonth := time.Month(0)
	for w := range weeks {
		weekStart := gridStart.AddDate(0, 0, w*7)
		if weekStart.Year() == year && weekStart.Month() != lastMonth {
			grid.MonthLabels[w] = months[weekStart.Month()-1]
			lastMonth = weekStart.Month()
		}

		for i := range 7 {
			current := gridStart.AddDate(0, 0, w*7+i)
			if current.Year() != year {
				continue // padding
			}
			key := model.DayKey(current)
			cell := model.CalendarCell{BucketKey: key, InYear: true}
			if isFuture(current) {
				cell.Future = true
			} else {
				cell.Count = countMap[key]
				cell.Value = opts.Normalization.Normalize(cell.Count, maxCount)
			}
			grid.Weeks[w][i] = cell
		}
	}

	return grid
}

// GridBuilder builds calendar grids relative to an injected clock.
type GridBuilder struct {
	Clock         clock.Clock
	DayStartHour  int
	Normalization Normalization
}

// Build lays out year, marking days after the current (day-start shifted) date as future.
func (b *GridBuilder) Build(records []model.CountRecord, year int) model.CalendarGrid {
	return BuildGrid(records, year, GridOptions{
		Normalization: b.Normalization,
		Today:         clock.Today(b.Clock, b.DayStartHour),
	})
}

// GenerateYearlyHeatmapSVG returns an SVG string representing the calendar grid.
// Padding and future cells are left blank so in-year cells keep their weekday row.
func GenerateYearlyHeatmapSVG(grid model.CalendarGrid, opts *Options) string {
	// default options
	if opts == nil {
		opts = DefaultOptions()
	}

	weeks := len(grid.Weeks)
	if weeks == 0 {
		return ""
	}

	// compute dimensions
	titleHeight := 0
	if opts.Title != "" {
		titleHeight = opts.FontSize + 8 // title text + padding
	}
	legendHeight := 0
	if opts.Legend {
		legendHeight = opts.CellSize + 6
	}
	step := opts.CellSize + opts.CellPadding
	gridTop := opts.CellPadding + opts.FontSize + 4 + titleHeight
	width := weeks*step + opts.CellPadding
	height := gridTop + 7*step + legendHeight

	var sb strings.Builder
	writeHeader(&sb, width, height, opts)

	// month labels
	monthLabelY := opts.FontSize + titleHeight
	for w, label := range grid.MonthLabels {
		if label == "" {
			continue
		}
		x := opts.CellPadding + w*step
		sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label">%s</text>`+"\n", x, monthLabelY, label))
	}

	// draw cells
	for w, week := range grid.Weeks {
		for i, cell := range week {
			if !cell.InYear || cell.Future {
				continue
			}
			x := opts.CellPadding + w*step
			y := gridTop + i*step

			// 各セルに矩形と、その中にtitle要素（ツールチップ）を追加
			sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" data-date="%s" data-count="%d">`+"\n",
				x, y, opts.CellSize, opts.CellSize, opts.Scale.Map(cell.Value).Hex(), cell.BucketKey, cell.Count))

			date, _ := model.ParseDayKey(cell.BucketKey)
			sb.WriteString(fmt.Sprintf(`    <title>%s: %s</title>`+"\n", date.Format("Mon, Jan 2"), formatCount(cell.Count, opts.Unit)))
			sb.WriteString(`  </rect>` + "\n")
		}
	}

	if opts.Legend {
		writeLegend(&sb, width, gridTop+7*step+4, opts)
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

// writeHeader writes the svg element and the shared style block.
func writeHeader(sb *strings.Builder, width, height int, opts *Options) {
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+"\n", width, height))
	sb.WriteString(fmt.Sprintf(`  <style>.label{font-family:%s;font-size:%dpx;fill:#8b949e}.title{font-family:%s;font-size:%dpx;fill:#c9d1d9;font-weight:bold}</style>`+"\n",
		opts.FontFamily, opts.FontSize, opts.FontFamily, opts.FontSize))

	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="title">%s</text>`+"\n",
			opts.CellPadding, opts.FontSize, escapeText(opts.Title)))
	}
}

// writeLegend draws "Less [] [] [] [] [] More" right-aligned at y.
func writeLegend(sb *strings.Builder, width, y int, opts *Options) {
	colors := opts.Scale.Legend()
	step := opts.CellSize + opts.CellPadding
	moreWidth := opts.FontSize * 3
	x := width - opts.CellPadding - moreWidth - len(colors)*step
	textY := y + opts.CellSize - 2

	sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label" text-anchor="end">Less</text>`+"\n", x-4, textY))
	for i, c := range colors {
		sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="legend"/>`+"\n",
			x+i*step, y, opts.CellSize, opts.CellSize, c.Hex()))
	}
	sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label">More</text>`+"\n", x+len(colors)*step+2, textY))
}

// formatCount renders "1,234 keys".
func formatCount(count int, unit string) string {
	s := humanize.Comma(int64(count))
	if unit == "" {
		return s
	}
	return s + " " + unit
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
