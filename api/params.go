package api

import (
	"net/http"

	"github.com/stsysd/selfgraph/model"
	"github.com/stsysd/selfgraph/validation"
)

// HourlyParams represents parameters for the hourly chart.
// When Date is set, the chart shows that calendar day instead of the last 24 hours.
type HourlyParams struct {
	Offset *model.Offset
	Date   *model.Date
}

// NewHourlyParams creates parameters for the hourly chart from HTTP request.
func NewHourlyParams(r *http.Request) (*HourlyParams, error) {
	query := struct {
		Offset string `query:"offset"`
		Date   string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	}{
		Offset: r.URL.Query().Get("offset"),
		Date:   r.URL.Query().Get("date"),
	}
	if err := validation.ValidateStruct(query); err != nil {
		return nil, err
	}

	params := &HourlyParams{Offset: model.NewOffset(query.Offset)}
	if query.Date != "" {
		date, err := model.NewDate(query.Date)
		if err != nil {
			return nil, err
		}
		params.Date = date
	}
	return params, nil
}

// DailyParams represents parameters for the 7 or 30 day chart.
type DailyParams struct {
	Window *model.Window
	Offset *model.Offset
}

// NewDailyParams creates parameters for the daily chart from HTTP request.
func NewDailyParams(r *http.Request) (*DailyParams, error) {
	query := r.URL.Query()

	window, err := model.NewWindow(query.Get("window"))
	if err != nil {
		return nil, err
	}

	return &DailyParams{
		Window: window,
		Offset: model.NewOffset(query.Get("offset")),
	}, nil
}

// YearlyParams represents parameters for the calendar grid.
type YearlyParams struct {
	Year *model.Year
}

// NewYearlyParams creates parameters for the calendar grid from HTTP request.
func (s *Server) NewYearlyParams(r *http.Request) (*YearlyParams, error) {
	year, err := model.NewYear(r.URL.Query().Get("year"), s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &YearlyParams{Year: year}, nil
}
