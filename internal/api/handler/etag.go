package handler

import (
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/bcnelson/winterface/internal/domain"
)

// GenerateETag generates an ETag for a setting from its effective value.
// Format: "setting-<name>-<fnv64a(value)>"
func GenerateETag(name, value string) string {
	h := fnv.New64a()
	h.Write([]byte(value))
	return fmt.Sprintf(`"setting-%s-%x"`, name, h.Sum64())
}

// SetETagHeader sets the ETag header on the response.
func SetETagHeader(w http.ResponseWriter, name, value string) {
	w.Header().Set("ETag", GenerateETag(name, value))
}

// CheckIfMatch checks if the If-Match header matches the current ETag.
// Returns true if:
//   - No If-Match header is present (ETag checking is optional)
//   - The If-Match header matches the current ETag
//
// Returns false if the If-Match header is present but doesn't match.
func CheckIfMatch(r *http.Request, name, value string) bool {
	ifMatch := r.Header.Get("If-Match")
	if ifMatch == "" {
		return true
	}
	return ifMatch == GenerateETag(name, value)
}

// RespondPreconditionFailed writes a 412 Precondition Failed response.
func RespondPreconditionFailed(w http.ResponseWriter, name, value string) {
	respondStandardError(w, http.StatusPreconditionFailed, domain.ErrCodePreconditionFailed,
		"setting has been modified", name, map[string]any{
			"currentETag": GenerateETag(name, value),
		})
}
