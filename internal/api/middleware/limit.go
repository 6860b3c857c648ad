package middleware

import (
	"net/http"

	"github.com/bcnelson/winterface/internal/access"
)

// LimitBody caps request bodies at the configured maxLength, read per request
// so changes apply without a restart. A limit of zero disables the cap.
func LimitBody(cfg *access.Configuration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit := cfg.MaxLength(); limit > 0 && r.Body != nil {
				if r.ContentLength > limit {
					http.Error(w, `{"code":413,"message":"request body too large"}`, http.StatusRequestEntityTooLarge)
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
