// Package stats derives trend figures from a dense daily sequence.
package stats

import "github.com/stsysd/selfgraph/model"

// HistoryDays is the number of daily points ComputeTrend needs.
const HistoryDays = 30

// ComputeTrend compares today with yesterday and the last 7 days with the 7 before.
// points must be a dense daily sequence, oldest first. Only the trailing
// HistoryDays points are used; with fewer, ok is false.
func ComputeTrend(points []model.BucketPoint) (stats model.TrendStats, ok bool) {
	if len(points) < HistoryDays {
		return model.TrendStats{}, false
	}
	p := points[len(points)-HistoryDays:]

	stats.Today = p[29].Count
	stats.TodayDelta = p[29].Count - p[28].Count
	stats.ThisWeek = sum(p[23:30])
	stats.WeekDelta = stats.ThisWeek - sum(p[16:23])
	return stats, true
}

func sum(points []model.BucketPoint) int {
	total := 0
	for _, p := range points {
		total += p.Count
	}
	return total
}
