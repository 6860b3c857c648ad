package middleware

import (
	"log/slog"
	"net/http"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/metrics"
)

const forbiddenBody = `{"code":403,"message":"forbidden"}`

// Admission creates the admission control middleware. Every request is
// classified by its connection address (forwarding headers are ignored) and
// denied clients get a generic 403 that does not say which list failed.
func Admission(filter *access.Filter, cfg *access.Configuration, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier := filter.ClassifyRemote(r.RemoteAddr)
			m.ObserveAdmission(tier)
			recordTier(r.Context(), tier)

			if !tier.Admitted() {
				logger.Debug("Request denied", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				forbidden(w)
				return
			}

			ctx := access.NewContext(r.Context(), access.Admission{
				Tier:          tier,
				PublicGateway: cfg.PublicGateway(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireFullAccess rejects requests that were not admitted with full access.
func RequireFullAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if access.TierFromContext(r.Context()) != access.FullAccess {
			forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(forbiddenBody + "\n"))
}
