package heatmap

import (
	"fmt"
	"strings"

	"github.com/stsysd/selfgraph/model"
)

// hour rows that get a label in the weekly heatmap
var hourLabels = map[int]bool{0: true, 6: true, 12: true, 18: true}

// MatrixOptions configures BuildMatrix.
type MatrixOptions struct {
	// DayStartHour moves hours before DayStartHour:00 onto the previous day's row.
	// 0 keeps calendar days.
	DayStartHour int
}

// BuildMatrix aggregates day/hour counts into a 7×24 matrix.
// Row i is startDate+i days, column h is hour h. Cells without a record are 0;
// records outside the window or with an hour outside 0..23 are ignored.
func BuildMatrix(records []model.HourDayRecord, startDate string, opts MatrixOptions) (model.HeatmapMatrix, error) {
	start, err := model.ParseDayKey(startDate)
	if err != nil {
		return model.HeatmapMatrix{}, err
	}
	if opts.DayStartHour < 0 || opts.DayStartHour > 23 {
		return model.HeatmapMatrix{}, model.NewValidationError(fmt.Sprintf("day start hour out of range: %d", opts.DayStartHour))
	}

	m := model.HeatmapMatrix{StartDate: model.DayKey(start)}
	rows := make(map[string]int, 7)
	for i := range 7 {
		key := model.DayKey(start.AddDate(0, 0, i))
		m.Days[i] = key
		rows[key] = i
	}

	for _, r := range records {
		if r.Hour < 0 || r.Hour > 23 {
			continue
		}
		day := r.Day
		if r.Hour < opts.DayStartHour {
			d, err := model.ParseDayKey(r.Day)
			if err != nil {
				continue
			}
			day = model.DayKey(d.AddDate(0, 0, -1))
		}
		row, ok := rows[day]
		if !ok {
			continue
		}
		m.Cells[row][r.Hour] = r.Count
	}

	m.MaxCount = 1
	for _, row := range m.Cells {
		for _, c := range row {
			if c > m.MaxCount {
				m.MaxCount = c
			}
		}
	}

	return m, nil
}

// GenerateWeeklyHeatmapSVG renders the matrix with one column per day and one row per hour.
// Intensities are count/MaxCount.
func GenerateWeeklyHeatmapSVG(m model.HeatmapMatrix, opts *Options) string {
	// default options
	if opts == nil {
		opts = DefaultOptions()
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
	labelWidth := opts.FontSize * 3
	step := opts.CellSize + opts.CellPadding
	gridTop := opts.CellPadding + opts.FontSize + 4 + titleHeight
	width := labelWidth + 7*step + opts.CellPadding
	height := gridTop + 24*step + legendHeight

	var sb strings.Builder
	writeHeader(&sb, width, height, opts)

	// day labels
	dayNames := [7]string{}
	for i, key := range m.Days {
		d, err := model.ParseDayKey(key)
		if err != nil {
			continue
		}
		dayNames[i] = weekdays[d.Weekday()]
		x := labelWidth + i*step
		sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label">%s</text>`+"\n",
			x, opts.FontSize+titleHeight, dayNames[i]))
	}

	// hour labels
	for hour := range 24 {
		if !hourLabels[hour] {
			continue
		}
		y := gridTop + hour*step + opts.CellSize - 2
		sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label">%d:00</text>`+"\n", opts.CellPadding, y, hour))
	}

	maxCount := max(1, m.MaxCount)
	for i := range 7 {
		x := labelWidth + i*step
		for hour := range 24 {
			count := m.Cells[i][hour]
			y := gridTop + hour*step
			fill := opts.Scale.Map(Linear.Normalize(count, maxCount)).Hex()
			if count == 0 {
				sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" data-date="%s" data-hour="%d" data-count="0"/>`+"\n",
					x, y, opts.CellSize, opts.CellSize, fill, m.Days[i], hour))
				continue
			}

			// 曜日と時間をツールチップとして表示
			sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" data-date="%s" data-hour="%d" data-count="%d">`+"\n",
				x, y, opts.CellSize, opts.CellSize, fill, m.Days[i], hour, count))
			sb.WriteString(fmt.Sprintf(`    <title>%s %d:00 - %s</title>`+"\n", dayNames[i], hour, formatCount(count, opts.Unit)))
			sb.WriteString(`  </rect>` + "\n")
		}
	}

	if opts.Legend {
		writeLegend(&sb, width, gridTop+24*step+4, opts)
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}
