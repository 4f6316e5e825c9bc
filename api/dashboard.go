package api

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/stsysd/selfgraph/logging"
	"github.com/stsysd/selfgraph/model"
)

// Panel はダッシュボードの1パネル分の結果です。
// 取得に失敗したパネルは Data が nil になり、Error に理由が入ります。
type Panel[T any] struct {
	Data  *T     `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// DashboardResponse はダッシュボード全体のレスポンスです。
type DashboardResponse struct {
	DayStartHour int                        `json:"day_start_hour"`
	HourlyTitle  string                     `json:"hourly_title"`
	Hourly       Panel[[]model.BucketPoint] `json:"hourly"`
	Weekly       Panel[[]model.BucketPoint] `json:"weekly"`
	Monthly      Panel[[]model.BucketPoint] `json:"monthly"`
	Yearly       Panel[YearlyResponse]      `json:"yearly"`
	Heatmap      Panel[model.HeatmapMatrix] `json:"heatmap"`
	Stats        Panel[StatsResponse]       `json:"stats"`
}

// fill はパネルに結果またはエラーを設定します。
func fill[T any](r *http.Request, p *Panel[T], name string, v T, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("panel", name).Msg("Dashboard panel failed")
		p.Error = panelError(err)
		return
	}
	p.Data = &v
}

// panelError はクライアントに返すエラーメッセージを返します。
func panelError(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return "Failed to retrieve records from upstream"
}

// handleDashboard は全パネルのデータを並行して取得するハンドラーです。
// 1つのパネルの失敗は他のパネルに影響しません。
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	hourlyParams, err := NewHourlyParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	yearlyParams, err := s.NewYearlyParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r = r.WithContext(logging.ContextWithNewCorrelationID(r.Context()))
	resp := DashboardResponse{
		DayStartHour: s.agg.DayStartHour(),
		HourlyTitle:  s.agg.HourlyTitle(hourlyParams.Offset.Days()),
	}

	// 各パネルは自分のエラーを保持するため、goroutine は常に nil を返す
	var g errgroup.Group
	g.Go(func() error {
		points, err := s.hourlyPoints(r, hourlyParams)
		fill(r, &resp.Hourly, "hourly", points, err)
		return nil
	})
	g.Go(func() error {
		// 週次・月次パネルは同じ30日分のデータを共有する
		records, err := s.source.Daily(r.Context(), model.MonthWindow)
		if err != nil {
			fill[[]model.BucketPoint](r, &resp.Weekly, "weekly", nil, err)
			fill[[]model.BucketPoint](r, &resp.Monthly, "monthly", nil, err)
			fill(r, &resp.Stats, "stats", StatsResponse{}, err)
			return nil
		}
		monthly := s.agg.Monthly(records, 0)
		fill(r, &resp.Weekly, "weekly", s.agg.Weekly(records, 0), nil)
		fill(r, &resp.Monthly, "monthly", monthly, nil)
		fill(r, &resp.Stats, "stats", trend(monthly), nil)
		return nil
	})
	g.Go(func() error {
		yearly, err := s.yearly(r, yearlyParams.Year.Int())
		fill(r, &resp.Yearly, "yearly", yearly, err)
		return nil
	})
	g.Go(func() error {
		m, err := s.weekly(r)
		fill(r, &resp.Heatmap, "heatmap", m, err)
		return nil
	})
	_ = g.Wait()

	writeJSON(w, r, http.StatusOK, resp)
}
