package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bcnelson/winterface/internal/access"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logging logs one line per request once it has been served.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			// The admission tier is only known inside the chain, so it is
			// captured on the way back out.
			var tier access.Tier
			next.ServeHTTP(ww, r.WithContext(withTierSink(r.Context(), &tier)))

			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"tier", tier.String(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

// ContentType sets the JSON content type on API responses.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
