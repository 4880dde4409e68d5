// Package handlers provides HTTP handlers for frequency profile management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/domain"
	"github.com/CR-00/tree/internal/events"
	"github.com/CR-00/tree/internal/modules/profiles"
)

// Handler provides HTTP handlers for profile endpoints.
type Handler struct {
	repo *profiles.Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewHandler creates a new profiles handler.
func NewHandler(repo *profiles.Repository, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("handler", "profiles").Logger(),
	}
}

// RegisterRoutes mounts the profile routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/spots/{id}/profiles", h.HandleList)
	r.Put("/api/spots/{id}/profiles/{player}/{role}", h.HandleSave)
	r.Delete("/api/spots/{id}/profiles/{player}/{role}", h.HandleDelete)
}

// HandleList handles GET /api/spots/{id}/profiles.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.ListBySpot(chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list profiles")
		http.Error(w, "Failed to list profiles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(all); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode profiles response")
	}
}

// HandleSave handles PUT /api/spots/{id}/profiles/{player}/{role}.
// The body carries the profile name and node data; the URL fixes the key.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string                          `json:"name"`
		NodeData map[string]domain.NodeFrequency `json:"nodeData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.repo.Save(&profiles.StoredProfile{
		SpotID:   chi.URLParam(r, "id"),
		Player:   domain.Player(chi.URLParam(r, "player")),
		Role:     profiles.Role(chi.URLParam(r, "role")),
		Name:     body.Name,
		NodeData: body.NodeData,
	})
	if err != nil {
		var invalid *domain.InvalidFrequencyError
		if errors.As(err, &invalid) {
			http.Error(w, invalid.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to save profile")
		http.Error(w, "Failed to save profile: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.bus.Publish(events.ProfileSaved, map[string]string{
		"spot_id": saved.SpotID,
		"player":  string(saved.Player),
		"role":    string(saved.Role),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(saved); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode profile response")
	}
}

// HandleDelete handles DELETE /api/spots/{id}/profiles/{player}/{role}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(
		chi.URLParam(r, "id"),
		domain.Player(chi.URLParam(r, "player")),
		profiles.Role(chi.URLParam(r, "role")),
	)
	if errors.Is(err, profiles.ErrNotFound) {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to delete profile")
		http.Error(w, "Failed to delete profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
