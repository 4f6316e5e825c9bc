// daily.go
// Renders dense bucket sequences (hourly, weekly and monthly views) as SVG bar charts.
package heatmap

import (
	"fmt"
	"strings"

	"github.com/stsysd/selfgraph/model"
)

// minBarHeight keeps non-zero bars visible next to a much larger maximum.
const minBarHeight = 2

// BarHeights returns the pixel height of each bar relative to the largest count.
func BarHeights(points []model.BucketPoint, chartHeight int) []float64 {
	maxCount := 0
	for _, p := range points {
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}

	heights := make([]float64, len(points))
	if maxCount == 0 {
		return heights
	}
	for i, p := range points {
		h := float64(p.Count) / float64(maxCount) * float64(chartHeight)
		if p.Count > 0 && h < minBarHeight {
			h = minBarHeight
		}
		heights[i] = h
	}
	return heights
}

// GenerateBarChartSVG returns an SVG bar chart of points, oldest on the left.
// An empty sequence renders an empty string.
func GenerateBarChartSVG(points []model.BucketPoint, opts *Options) string {
	// default options
	if opts == nil {
		opts = DefaultOptions()
	}

	if len(points) == 0 {
		return ""
	}

	titleHeight := 0
	if opts.Title != "" {
		titleHeight = opts.FontSize + 8 // title text + padding
	}
	barWidth := opts.CellSize
	step := barWidth + opts.CellPadding*2
	plotTop := opts.CellPadding + titleHeight
	baseline := plotTop + opts.ChartHeight
	width := len(points)*step + opts.CellPadding
	height := baseline + opts.FontSize + 6

	var sb strings.Builder
	writeHeader(&sb, width, height, opts)

	fill := opts.Scale.High.Hex()
	heights := BarHeights(points, opts.ChartHeight)
	for i, p := range points {
		x := opts.CellPadding + i*step
		h := heights[i]

		sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%.1f" width="%d" height="%.1f" fill="%s" data-label="%s" data-count="%d"`,
			x, float64(baseline)-h, barWidth, h, fill, escapeText(p.Label), p.Count))
		if p.BucketKey != "" {
			sb.WriteString(fmt.Sprintf(` data-date="%s"`, p.BucketKey))
		}
		sb.WriteString(">\n")
		sb.WriteString(fmt.Sprintf(`    <title>%s</title>`+"\n", formatCount(p.Count, opts.Unit)))
		sb.WriteString(`  </rect>` + "\n")

		sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label" text-anchor="middle">%s</text>`+"\n",
			x+barWidth/2, baseline+opts.FontSize+2, escapeText(p.Label)))
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}
