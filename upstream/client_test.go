package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/config"
	"github.com/stsysd/selfgraph/logging"
	"github.com/stsysd/selfgraph/model"
)

var testNow = time.Date(2024, 3, 5, 14, 37, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := config.Default().Upstream
	cfg.URL = ts.URL
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	cfg.FailureThreshold = 2
	cfg.OpenTimeout = time.Minute

	c, err := New(cfg, clock.Fixed(testNow))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestClient_Counts(t *testing.T) {
	var gotQuery, gotPath, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case EndpointHourly:
			w.Write([]byte(`[{"Hour":"2024-03-05 14","Count":3}]`))
		case EndpointDaily, EndpointYearly:
			w.Write([]byte(`[{"Day":"2024-03-05","Count":12}]`))
		}
	})

	ctx := logging.ContextWithRequestID(context.Background(), "req-42")

	tests := []struct {
		name          string
		call          func() ([]model.CountRecord, error)
		expectedPath  string
		expectedQuery string
		expected      []model.CountRecord
	}{
		{
			name:          "hourly",
			call:          func() ([]model.CountRecord, error) { return c.Hourly(ctx, 2) },
			expectedPath:  "/api/hourly",
			expectedQuery: "offset=2",
			expected:      []model.CountRecord{{BucketKey: "2024-03-05 14", Count: 3}},
		},
		{
			name:          "hourly for date",
			call:          func() ([]model.CountRecord, error) { return c.HourlyForDate(ctx, "2024-03-01") },
			expectedPath:  "/api/hourly",
			expectedQuery: "date=2024-03-01",
			expected:      []model.CountRecord{{BucketKey: "2024-03-05 14", Count: 3}},
		},
		{
			name:          "daily",
			call:          func() ([]model.CountRecord, error) { return c.Daily(ctx, 30) },
			expectedPath:  "/api/daily",
			expectedQuery: "days=30",
			expected:      []model.CountRecord{{BucketKey: "2024-03-05", Count: 12}},
		},
		{
			name:          "yearly",
			call:          func() ([]model.CountRecord, error) { return c.Yearly(ctx, 2024) },
			expectedPath:  "/api/yearly",
			expectedQuery: "year=2024",
			expected:      []model.CountRecord{{BucketKey: "2024-03-05", Count: 12}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
			if gotPath != tt.expectedPath || gotQuery != tt.expectedQuery {
				t.Errorf("requested %s?%s, want %s?%s", gotPath, gotQuery, tt.expectedPath, tt.expectedQuery)
			}
			if gotRequestID != "req-42" {
				t.Errorf("expected request ID to be forwarded, got %q", gotRequestID)
			}
		})
	}
}

func TestClient_EmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})
	got, err := c.Daily(context.Background(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil records, got %#v", got)
	}
}

func TestClient_RetrievalErrors(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expectedStatus int
		description    string
	}{
		{"server error", http.StatusInternalServerError, `boom`, 500, "5xxはRetrievalErrorになること"},
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`, 400, "4xxもRetrievalErrorになること"},
		{"bad json", http.StatusOK, `{not json`, 0, "デコードできない場合はRetrievalErrorになること"},
		{"bad key", http.StatusOK, `[{"Day":"yesterday","Count":1}]`, 0, "不正なキーはRetrievalErrorになること"},
		{"negative count", http.StatusOK, `[{"Day":"2024-03-05","Count":-1}]`, 0, "負のカウントはRetrievalErrorになること"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Daily(context.Background(), 30)
			if !errors.Is(err, model.ErrRetrieval) {
				t.Fatalf("%s: expected ErrRetrieval, got %v", tt.description, err)
			}
			var rerr *model.RetrievalError
			if !errors.As(err, &rerr) {
				t.Fatalf("%s: expected *RetrievalError, got %T", tt.description, err)
			}
			if rerr.StatusCode != tt.expectedStatus {
				t.Errorf("%s: expected status %d, got %d", tt.description, tt.expectedStatus, rerr.StatusCode)
			}
			if rerr.Endpoint != EndpointDaily {
				t.Errorf("%s: expected endpoint %s, got %s", tt.description, EndpointDaily, rerr.Endpoint)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx := context.Background()
	for range 2 {
		if _, err := c.Daily(ctx, 30); err == nil {
			t.Fatal("expected error")
		}
	}
	if c.BreakerState() != "open" {
		t.Fatalf("expected open breaker after 2 failures, got %s", c.BreakerState())
	}

	_, err := c.Daily(ctx, 30)
	if !errors.Is(err, model.ErrRetrieval) {
		t.Errorf("expected ErrRetrieval from open breaker, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("open breaker must not reach the server, got %d calls", calls.Load())
	}
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	for range 5 {
		c.Yearly(context.Background(), 1900)
	}
	if c.BreakerState() != "closed" {
		t.Errorf("4xx responses must not open the breaker, got %s", c.BreakerState())
	}
}

func TestClient_WeeklyHeatmap(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expected    model.WeeklyHeatmap
		expectError bool
		description string
	}{
		{
			name: "object",
			body: `{"startDate":"2024-02-28","data":[{"day":"2024-02-28","hour":9,"count":5}]}`,
			expected: model.WeeklyHeatmap{
				StartDate: "2024-02-28",
				Data:      []model.HourDayRecord{{Day: "2024-02-28", Hour: 9, Count: 5}},
			},
			description: "startDate付きのレスポンスを読み込めること",
		},
		{
			name: "bare array",
			body: `[{"day":"2024-03-05","hour":14,"count":2}]`,
			expected: model.WeeklyHeatmap{
				StartDate: "2024-02-28",
				Data:      []model.HourDayRecord{{Day: "2024-03-05", Hour: 14, Count: 2}},
			},
			description: "配列のみの場合は今日-6日を開始日とすること",
		},
		{
			name:        "missing start date",
			body:        `{"data":[]}`,
			expectError: true,
			description: "startDateがない場合はエラーになること",
		},
		{
			name:        "invalid hour",
			body:        `{"startDate":"2024-02-28","data":[{"day":"2024-02-28","hour":24,"count":5}]}`,
			expectError: true,
			description: "範囲外の時刻はエラーになること",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := c.WeeklyHeatmap(context.Background())
			if tt.expectError {
				if !errors.Is(err, model.ErrRetrieval) {
					t.Errorf("%s: expected ErrRetrieval, got %v", tt.description, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.description, err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("%s (-want +got):\n%s", tt.description, diff)
			}
		})
	}
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := config.Default().Upstream
	cfg.URL = "ftp://example.com"
	if _, err := New(cfg, clock.Fixed(testNow)); err == nil {
		t.Error("expected error for non-http scheme")
	}
}
