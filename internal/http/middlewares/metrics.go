package middlewares

import (
	"net/http"
	"time"

	metrics "github.com/dropDatabas3/tokensmith/internal/http"
)

// WithMetrics registra contadores y latencia por request.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			metrics.ObserveRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}
