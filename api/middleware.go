package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/stsysd/selfgraph/logging"
	"github.com/stsysd/selfgraph/metrics"
)

// requestIDHeader はリクエストIDを受け渡すヘッダーです。
const requestIDHeader = "X-Request-ID"

// requestLogger はリクエストIDを付与し、アクセスログとメトリクスを記録するミドルウェアです。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// クライアントから渡されたIDがあれば引き継ぐ
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		// ルーティング後のパターン（例: /api/v0/daily）でメトリクスを集計
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.ObserveHTTP(route, r.Method, status, start)

		logging.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// corsMiddleware は設定されたオリジンからの読み取りリクエストを許可します。
func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: s.config.Security.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})
}

// rateLimitMiddleware はIPアドレスごとのレート制限を行うミドルウェアです。
func (s *Server) rateLimitMiddleware() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.config.Security.RateLimitRequests,
		s.config.Security.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, r, "Too many requests", http.StatusTooManyRequests)
		}),
	)
}
