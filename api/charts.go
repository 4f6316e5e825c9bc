package api

import (
	"net/http"

	"github.com/stsysd/selfgraph/heatmap"
	"github.com/stsysd/selfgraph/model"
	"github.com/stsysd/selfgraph/stats"
)

// YearlyResponse はカレンダーグリッドと凡例の色を返します。
type YearlyResponse struct {
	model.CalendarGrid
	Legend []heatmap.Color `json:"legend"`
}

// StatsResponse は傾向値を返します。履歴が30日に満たない場合 Available は false です。
type StatsResponse struct {
	Available bool              `json:"available"`
	Stats     *model.TrendStats `json:"stats,omitempty"`
}

// hourlyPoints は時間単位の24本の棒グラフデータを生成します。
func (s *Server) hourlyPoints(r *http.Request, params *HourlyParams) ([]model.BucketPoint, error) {
	if params.Date != nil {
		records, err := s.source.HourlyForDate(r.Context(), params.Date.String())
		if err != nil {
			return nil, err
		}
		return s.agg.HoursForDate(records, params.Date.String())
	}

	records, err := s.source.Hourly(r.Context(), params.Offset.Days())
	if err != nil {
		return nil, err
	}
	return s.agg.Hourly(records, params.Offset.Days()), nil
}

// dailyPoints は日単位の棒グラフデータを生成します。
// オフセット分だけ過去に遡れるよう、上流にはウィンドウ+オフセット日分を要求します。
func (s *Server) dailyPoints(r *http.Request, params *DailyParams) ([]model.BucketPoint, error) {
	records, err := s.source.Daily(r.Context(), params.Window.Days()+params.Offset.Days())
	if err != nil {
		return nil, err
	}
	return s.agg.Daily(records, params.Window.Days(), params.Offset.Days()), nil
}

// monthlyPoints は直近30日分の日次データを生成します。
func (s *Server) monthlyPoints(r *http.Request) ([]model.BucketPoint, error) {
	records, err := s.source.Daily(r.Context(), model.MonthWindow)
	if err != nil {
		return nil, err
	}
	return s.agg.Monthly(records, 0), nil
}

// yearly はカレンダーグリッドを生成します。
func (s *Server) yearly(r *http.Request, year int) (YearlyResponse, error) {
	records, err := s.source.Yearly(r.Context(), year)
	if err != nil {
		return YearlyResponse{}, err
	}
	return YearlyResponse{
		CalendarGrid: s.grid.Build(records, year),
		Legend:       s.scale.Legend(),
	}, nil
}

// weekly は7日×24時間のヒートマップを生成します。
func (s *Server) weekly(r *http.Request) (model.HeatmapMatrix, error) {
	hm, err := s.source.WeeklyHeatmap(r.Context())
	if err != nil {
		return model.HeatmapMatrix{}, err
	}
	opts := heatmap.MatrixOptions{}
	if s.config.Dashboard.HeatmapDayStart {
		opts.DayStartHour = s.config.Dashboard.DayStartHour
	}
	return heatmap.BuildMatrix(hm.Data, hm.StartDate, opts)
}

// trend は30日分の日次データから傾向値を算出します。
func trend(monthly []model.BucketPoint) StatsResponse {
	ts, ok := stats.ComputeTrend(monthly)
	if !ok {
		return StatsResponse{Available: false}
	}
	return StatsResponse{Available: true, Stats: &ts}
}

// handleHourly は時間単位の棒グラフデータを返すハンドラーです。
func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewHourlyParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	points, err := s.hourlyPoints(r, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, points)
}

// handleDaily は7日または30日の棒グラフデータを返すハンドラーです。
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewDailyParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	points, err := s.dailyPoints(r, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, points)
}

// handleYearly はカレンダーグリッドを返すハンドラーです。
func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := s.NewYearlyParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.yearly(r, params.Year.Int())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleHeatmap は7日×24時間のヒートマップを返すハンドラーです。
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	m, err := s.weekly(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, m)
}

// handleStats は今日・今週の傾向値を返すハンドラーです。
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	monthly, err := s.monthlyPoints(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, trend(monthly))
}
