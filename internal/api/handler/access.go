package handler

import (
	"net/http"

	"github.com/bcnelson/winterface/internal/access"
)

// AccessHandler reports the caller's own admission.
type AccessHandler struct{}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler() *AccessHandler {
	return &AccessHandler{}
}

// Get returns the tier the request was admitted with and whether the
// interface runs as a public gateway.
func (h *AccessHandler) Get(w http.ResponseWriter, r *http.Request) {
	admission, ok := access.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}
	respondJSON(w, http.StatusOK, admission)
}
