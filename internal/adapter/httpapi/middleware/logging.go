package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/campustrade/market-service/internal/platform/logger"
	"github.com/campustrade/market-service/internal/platform/metrics"
)

// RequestLogger logs every request and feeds the latency histogram.
func RequestLogger(log logger.Logger, m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			route := r.Method + " " + r.URL.Path
			if m != nil {
				m.APILatency.WithLabelValues(route).Observe(elapsed.Seconds())
			}
			log.Infof("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), elapsed)
		})
	}
}
