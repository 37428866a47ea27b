package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openresearch/research-agent/internal/monitoring"
)

// timingWriter stamps X-Process-Time just before the first byte of the
// response goes out and remembers the status for the metric labels.
type timingWriter struct {
	http.ResponseWriter
	start  time.Time
	status int
	wrote  bool
}

func (tw *timingWriter) WriteHeader(code int) {
	if !tw.wrote {
		tw.Header().Set("X-Process-Time", fmt.Sprintf("%f", time.Since(tw.start).Seconds()))
		tw.status = code
		tw.wrote = true
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timingWriter) Write(b []byte) (int, error) {
	if !tw.wrote {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}

// Metrics records a request counter and duration histogram per route.
// The endpoint label uses the chi route pattern, not the raw path, to
// keep label cardinality bounded.
func Metrics(m *monitoring.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timingWriter{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
			next.ServeHTTP(tw, r)

			endpoint := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}
			m.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(tw.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(tw.start).Seconds())
		})
	}
}
