// Package main demonstrates the use of the heatmap package to generate SVG heatmaps.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/stsysd/selfgraph/heatmap"
	"github.com/stsysd/selfgraph/model"
)

func main() {
	kind := flag.String("kind", "yearly", "yearly or weekly")
	flag.Parse()

	now := time.Now()
	switch *kind {
	case "weekly":
		start := model.DayKey(now.AddDate(0, 0, -6))
		m, err := heatmap.BuildMatrix(generateWeekData(now), start, heatmap.MatrixOptions{})
		if err != nil {
			panic(err)
		}
		fmt.Println(heatmap.GenerateWeeklyHeatmapSVG(m, nil))
	default:
		grid := heatmap.BuildGrid(generateYearData(now), now.Year(), heatmap.GridOptions{Today: now})
		fmt.Println(heatmap.GenerateYearlyHeatmapSVG(grid, nil))
	}
}

// generateYearData creates random activity data for the current year
func generateYearData(now time.Time) []model.CountRecord {
	var data []model.CountRecord

	current := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	for !current.After(now) {
		// Higher probability of activity on weekdays
		var count int
		if current.Weekday() == time.Saturday || current.Weekday() == time.Sunday {
			count = rand.Intn(2000)
		} else {
			count = rand.Intn(8000)
		}

		// Add occasional spikes of activity
		if rand.Intn(20) == 0 {
			count += rand.Intn(20000)
		}

		if count != 0 {
			data = append(data, model.CountRecord{BucketKey: model.DayKey(current), Count: count})
		}

		current = current.AddDate(0, 0, 1)
	}

	return data
}

// generateWeekData creates random hourly activity for the last 7 days
func generateWeekData(now time.Time) []model.HourDayRecord {
	var data []model.HourDayRecord
	for i := range 7 {
		day := model.DayKey(now.AddDate(0, 0, -i))
		for hour := 9; hour < 23; hour++ {
			data = append(data, model.HourDayRecord{Day: day, Hour: hour, Count: rand.Intn(1500)})
		}
	}
	return data
}
