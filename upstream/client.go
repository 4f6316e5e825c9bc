// Package upstream fetches sparse count records from the activity server.
//
// Every failure (network, non-2xx status, open circuit, undecodable or
// invalid payload) is returned as a *model.RetrievalError so callers can
// put the affected chart into an error state without touching the others.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/config"
	"github.com/stsysd/selfgraph/logging"
	"github.com/stsysd/selfgraph/metrics"
	"github.com/stsysd/selfgraph/model"
)

// Upstream endpoints.
const (
	EndpointHourly        = "/api/hourly"
	EndpointDaily         = "/api/daily"
	EndpointYearly        = "/api/yearly"
	EndpointWeeklyHeatmap = "/api/weekly-heatmap"
)

// maxBodySize bounds a single upstream response.
const maxBodySize = 8 << 20

const breakerName = "upstream"

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	clock   clock.Clock
}

// New returns a client for cfg.URL. clk supplies the zone used when the
// server omits the heatmap start date.
func New(cfg config.UpstreamConfig, clk clock.Clock) (*Client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream url %q: scheme must be http or https", cfg.URL)
	}

	threshold := cfg.FailureThreshold
	metrics.BreakerState.Set(0)
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// client errors mean our request was wrong, not that the server is down
		IsSuccessful: func(err error) bool {
			var rerr *model.RetrievalError
			if errors.As(err, &rerr) && rerr.StatusCode >= 400 && rerr.StatusCode < 500 {
				return true
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			metrics.BreakerState.Set(float64(to))
		},
	})

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
		clock:   clk,
	}, nil
}

// Hourly fetches hour records for the 24 hours ending offsetDays days ago.
func (c *Client) Hourly(ctx context.Context, offsetDays int) ([]model.CountRecord, error) {
	q := url.Values{"offset": {strconv.Itoa(offsetDays)}}
	return c.counts(ctx, EndpointHourly, q)
}

// HourlyForDate fetches the hour records of one "YYYY-MM-DD" date.
func (c *Client) HourlyForDate(ctx context.Context, date string) ([]model.CountRecord, error) {
	return c.counts(ctx, EndpointHourly, url.Values{"date": {date}})
}

// Daily fetches day records for the last days days.
func (c *Client) Daily(ctx context.Context, days int) ([]model.CountRecord, error) {
	return c.counts(ctx, EndpointDaily, url.Values{"days": {strconv.Itoa(days)}})
}

// Yearly fetches the day records of year.
func (c *Client) Yearly(ctx context.Context, year int) ([]model.CountRecord, error) {
	return c.counts(ctx, EndpointYearly, url.Values{"year": {strconv.Itoa(year)}})
}

// WeeklyHeatmap fetches day/hour records of the last 7 days.
// Servers that answer with a bare record array get a start date of today-6.
func (c *Client) WeeklyHeatmap(ctx context.Context) (model.WeeklyHeatmap, error) {
	body, err := c.get(ctx, EndpointWeeklyHeatmap, nil)
	if err != nil {
		return model.WeeklyHeatmap{}, err
	}

	var hm model.WeeklyHeatmap
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &hm.Data); err != nil {
			return model.WeeklyHeatmap{}, decodeError(EndpointWeeklyHeatmap, err)
		}
		hm.StartDate = model.DayKey(clock.Today(c.clock, 0).AddDate(0, 0, -6))
	} else if err := json.Unmarshal(trimmed, &hm); err != nil {
		return model.WeeklyHeatmap{}, decodeError(EndpointWeeklyHeatmap, err)
	}

	if !model.IsDayKey(hm.StartDate) {
		return model.WeeklyHeatmap{}, decodeError(EndpointWeeklyHeatmap, fmt.Errorf("invalid startDate %q", hm.StartDate))
	}
	for _, r := range hm.Data {
		if err := r.Validate(); err != nil {
			return model.WeeklyHeatmap{}, decodeError(EndpointWeeklyHeatmap, err)
		}
	}
	return hm, nil
}

func (c *Client) counts(ctx context.Context, endpoint string, q url.Values) ([]model.CountRecord, error) {
	body, err := c.get(ctx, endpoint, q)
	if err != nil {
		return nil, err
	}

	var records []model.CountRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, decodeError(endpoint, err)
	}
	if err := model.ValidateRecords(records); err != nil {
		return nil, decodeError(endpoint, err)
	}

	if dups := model.DuplicateKeys(records); len(dups) > 0 {
		metrics.DuplicateKeys.WithLabelValues(endpoint).Add(float64(len(dups)))
		logging.Ctx(ctx).Warn().Str("endpoint", endpoint).Strs("keys", dups).Msg("Duplicate bucket keys in upstream response")
	}

	if records == nil {
		records = []model.CountRecord{}
	}
	return records, nil
}

// get performs one rate-limited, circuit-protected GET and returns the body.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	start := time.Now()
	body, err := c.doGet(ctx, endpoint, q)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		logging.Ctx(ctx).Error().Err(err).Str("endpoint", endpoint).Msg("Upstream request failed")
	}
	metrics.ObserveUpstream(endpoint, outcome, start)
	return body, err
}

func (c *Client) doGet(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &model.RetrievalError{Endpoint: endpoint, Err: err}
	}

	u := c.baseURL.JoinPath(endpoint)
	u.RawQuery = q.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, &model.RetrievalError{Endpoint: endpoint, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		if id := logging.RequestIDFromContext(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}
		if id := logging.CorrelationIDFromContext(ctx); id != "" {
			req.Header.Set("X-Correlation-ID", id)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &model.RetrievalError{Endpoint: endpoint, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, &model.RetrievalError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &model.RetrievalError{
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("unexpected response: %s", bytes.TrimSpace(data)),
			}
		}
		return data, nil
	})
	if err != nil {
		var rerr *model.RetrievalError
		if errors.As(err, &rerr) {
			return nil, err
		}
		// gobreaker.ErrOpenState / ErrTooManyRequests
		return nil, &model.RetrievalError{Endpoint: endpoint, Err: err}
	}
	return body, nil
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func decodeError(endpoint string, err error) error {
	return &model.RetrievalError{Endpoint: endpoint, Err: fmt.Errorf("invalid payload: %w", err)}
}
