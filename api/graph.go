package api

import (
	"fmt"
	"net/http"

	"github.com/stsysd/selfgraph/bucket"
	"github.com/stsysd/selfgraph/heatmap"
)

// svgOptions は設定に基づいた描画オプションを返します。
func (s *Server) svgOptions(title string) *heatmap.Options {
	opts := heatmap.DefaultOptions()
	opts.Scale = s.scale
	if s.config.Dashboard.Unit != "" {
		opts.Unit = s.config.Dashboard.Unit
	}
	opts.Title = title
	return opts
}

// writeSVG はSVG形式でレスポンスを返却します。
func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

// handleHourlyGraph は時間単位の棒グラフSVGを返すハンドラーです。
func (s *Server) handleHourlyGraph(w http.ResponseWriter, r *http.Request) {
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

	title := s.agg.HourlyTitle(params.Offset.Days())
	if params.Date != nil {
		title, err = bucket.FocusedDateTitle(params.Date.String())
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeSVG(w, heatmap.GenerateBarChartSVG(points, s.svgOptions(title)))
}

// handleDailyGraph は日単位の棒グラフSVGを返すハンドラーです。
func (s *Server) handleDailyGraph(w http.ResponseWriter, r *http.Request) {
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

	title := fmt.Sprintf("Last %d days", params.Window.Days())
	writeSVG(w, heatmap.GenerateBarChartSVG(points, s.svgOptions(title)))
}

// handleYearlyGraph は年次カレンダーのSVGを返すハンドラーです。
func (s *Server) handleYearlyGraph(w http.ResponseWriter, r *http.Request) {
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

	title := fmt.Sprintf("%d", params.Year.Int())
	writeSVG(w, heatmap.GenerateYearlyHeatmapSVG(resp.CalendarGrid, s.svgOptions(title)))
}

// handleHeatmapGraph は7日×24時間のヒートマップSVGを返すハンドラーです。
func (s *Server) handleHeatmapGraph(w http.ResponseWriter, r *http.Request) {
	m, err := s.weekly(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSVG(w, heatmap.GenerateWeeklyHeatmapSVG(m, s.svgOptions("Last 7 days by hour")))
}
