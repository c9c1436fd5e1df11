package middleware

import (
	"net/http"
	"time"

	"pet-health-tracker/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger loguea una línea por request; el nivel depende del status.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := map[string]any{
					"request_id":  chimw.GetReqID(r.Context()),
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      status,
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
					"remote_addr": r.RemoteAddr,
				}
				if u := CurrentUsername(r.Context()); u != "" {
					fields["user"] = u
				}

				switch {
				case status >= http.StatusInternalServerError:
					log.Error("request completed", fields)
				case status >= http.StatusBadRequest:
					log.Warn("request completed", fields)
				default:
					log.Info("request completed", fields)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
