package handler

import (
	"net/http"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/domain"
	"github.com/bcnelson/winterface/internal/hostlist"
	"github.com/bcnelson/winterface/internal/service"
	"github.com/go-chi/chi/v5"
)

const defaultChangesLimit = 50

// SettingsHandler handles admin interface setting endpoints.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// List returns every setting with its default.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.settings.Settings())
}

// Get returns one setting.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	value, err := h.settings.Get(name)
	if err != nil {
		handleError(w, err)
		return
	}

	SetETagHeader(w, name, value)
	respondJSON(w, http.StatusOK, &domain.Setting{Name: name, Value: value})
}

// Update validates, stores and applies a new value for one setting.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	current, err := h.settings.Get(name)
	if err != nil {
		handleError(w, err)
		return
	}
	if !CheckIfMatch(r, name, current) {
		RespondPreconditionFailed(w, name, current)
		return
	}

	var req domain.UpdateSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.settings.Update(r.Context(), name, req.Value, actor(r))
	if err != nil {
		handleError(w, err)
		return
	}

	h.respondOutcome(w, name, outcome)
}

// Reset restores the default value of one setting.
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	outcome, err := h.settings.Reset(r.Context(), name, actor(r))
	if err != nil {
		handleError(w, err)
		return
	}

	h.respondOutcome(w, name, outcome)
}

// respondOutcome reports the value now in effect for name.
func (h *SettingsHandler) respondOutcome(w http.ResponseWriter, name string, outcome access.Outcome) {
	value, err := h.settings.Get(name)
	if err != nil {
		handleError(w, err)
		return
	}

	SetETagHeader(w, name, value)
	respondJSON(w, http.StatusOK, &domain.UpdateSettingResponse{
		Name:            name,
		Value:           value,
		Outcome:         outcome.String(),
		RestartRequired: outcome.NeedsRestart(),
	})
}

// Changes lists recorded setting changes, newest first.
func (h *SettingsHandler) Changes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultChangesLimit)
	if err != nil {
		handleError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		handleError(w, err)
		return
	}

	changes, err := h.settings.Changes(r.Context(), limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}
	if changes == nil {
		changes = []*domain.SettingChange{}
	}

	respondJSON(w, http.StatusOK, changes)
}

// actor identifies who made a change by the client address.
func actor(r *http.Request) string {
	if addr, ok := hostlist.ParseRemoteAddr(r.RemoteAddr); ok {
		return addr.Unmap().String()
	}
	return r.RemoteAddr
}
