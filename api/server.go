// Package api はselfgraphのダッシュボードAPIサーバー実装を提供します。
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/stsysd/selfgraph/bucket"
	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/config"
	"github.com/stsysd/selfgraph/heatmap"
	"github.com/stsysd/selfgraph/logging"
	"github.com/stsysd/selfgraph/metrics"
	"github.com/stsysd/selfgraph/model"
)

// Source は上流サーバーからカウントデータを取得するインターフェースです。
// 取得失敗は model.ErrRetrieval に一致するエラーとして返されます。
type Source interface {
	Hourly(ctx context.Context, offsetDays int) ([]model.CountRecord, error)
	HourlyForDate(ctx context.Context, date string) ([]model.CountRecord, error)
	Daily(ctx context.Context, days int) ([]model.CountRecord, error)
	Yearly(ctx context.Context, year int) ([]model.CountRecord, error)
	WeeklyHeatmap(ctx context.Context) (model.WeeklyHeatmap, error)
}

// Server はAPIサーバーの構造体です。
type Server struct {
	router chi.Router
	source Source
	config *config.Config
	clock  clock.Clock
	agg    *bucket.Aggregator
	grid   *heatmap.GridBuilder
	scale  heatmap.Scale
}

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// writeJSON はJSON形式でレスポンスを返却します。
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Error encoding response")
	}
}

// writeJSONError はJSON形式でエラーレスポンスを返却します。
func writeJSONError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	writeJSON(w, r, statusCode, ErrorResponse{Error: message, Code: statusCode})
}

// writeError はエラーの種類に応じたステータスコードでエラーを返却します。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONError(w, r, verr.Message, http.StatusBadRequest)
	case errors.Is(err, model.ErrRetrieval):
		writeJSONError(w, r, "Failed to retrieve records from upstream", http.StatusBadGateway)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Unexpected error")
		writeJSONError(w, r, "Internal server error", http.StatusInternalServerError)
	}
}

// NewServer は新しいAPIサーバーインスタンスを生成します。
func NewServer(source Source, cfg *config.Config, clk clock.Clock) *Server {
	scale, err := cfg.Scale()
	if err != nil {
		logging.Warn().Err(err).Msg("Invalid color scale, using default")
		scale = heatmap.DefaultScale
	}

	s := &Server{
		router: chi.NewRouter(),
		source: source,
		config: cfg,
		clock:  clk,
		agg:    bucket.NewAggregator(clk, cfg.Dashboard.DayStartHour),
		grid: &heatmap.GridBuilder{
			Clock:         clk,
			DayStartHour:  cfg.Dashboard.DayStartHour,
			Normalization: cfg.Normalization(),
		},
		scale: scale,
	}
	s.routes()
	return s
}

// routes はAPIエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware())

	// ヘルスチェックとメトリクスはレート制限の対象外
	r.Get("/healthz", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if !s.config.Security.RateLimitDisabled {
			r.Use(s.rateLimitMiddleware())
		}

		// JSON endpoints
		r.Route("/api/v0", func(r chi.Router) {
			r.Get("/hourly", s.handleHourly)
			r.Get("/daily", s.handleDaily)
			r.Get("/yearly", s.handleYearly)
			r.Get("/heatmap", s.handleHeatmap)
			r.Get("/stats", s.handleStats)
			r.Get("/dashboard", s.handleDashboard)
		})

		// Graph endpoints - support both with and without .svg extension
		r.Route("/graph", func(r chi.Router) {
			r.Get("/hourly.svg", s.handleHourlyGraph)
			r.Get("/hourly", s.handleHourlyGraph)
			r.Get("/daily.svg", s.handleDailyGraph)
			r.Get("/daily", s.handleDailyGraph)
			r.Get("/yearly.svg", s.handleYearlyGraph)
			r.Get("/yearly", s.handleYearlyGraph)
			r.Get("/heatmap.svg", s.handleHeatmapGraph)
			r.Get("/heatmap", s.handleHeatmapGraph)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, "Not found", http.StatusNotFound)
	})
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealthCheck はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Run はサーバーを指定されたアドレスで起動し、ctx がキャンセルされると停止します。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
