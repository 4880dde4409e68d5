// Package handlers provides HTTP handlers for spot management.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/domain"
	"github.com/CR-00/tree/internal/events"
	"github.com/CR-00/tree/internal/modules/profiles"
	"github.com/CR-00/tree/internal/modules/spots"
)

// Handler provides HTTP handlers for spot endpoints.
type Handler struct {
	repo        *spots.Repository
	profileRepo *profiles.Repository
	bus         *events.Bus
	log         zerolog.Logger
}

// NewHandler creates a new spots handler.
func NewHandler(repo *spots.Repository, profileRepo *profiles.Repository, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		repo:        repo,
		profileRepo: profileRepo,
		bus:         bus,
		log:         log.With().Str("handler", "spots").Logger(),
	}
}

// RegisterRoutes mounts the spot routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/spots", h.HandleList)
	r.Post("/api/spots", h.HandleCreate)
	r.Post("/api/spots/import", h.HandleImport)
	r.Get("/api/spots/{id}", h.HandleGet)
	r.Put("/api/spots/{id}", h.HandleUpdate)
	r.Delete("/api/spots/{id}", h.HandleDelete)
	r.Get("/api/spots/{id}/export", h.HandleExport)
}

// HandleList handles GET /api/spots.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list spots")
		http.Error(w, "Failed to list spots", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, all, h.log)
}

// HandleCreate handles POST /api/spots.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var spot spots.Spot
	if err := json.NewDecoder(r.Body).Decode(&spot); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.repo.Create(&spot)
	if err != nil {
		h.writeSpotError(w, err, "Failed to create spot")
		return
	}

	h.bus.Publish(events.SpotCreated, map[string]string{"id": created.ID, "name": created.Name})
	writeJSON(w, http.StatusCreated, created, h.log)
}

// HandleGet handles GET /api/spots/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	spot, err := h.repo.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeSpotError(w, err, "Failed to get spot")
		return
	}
	writeJSON(w, http.StatusOK, spot, h.log)
}

// HandleUpdate handles PUT /api/spots/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var spot spots.Spot
	if err := json.NewDecoder(r.Body).Decode(&spot); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	spot.ID = chi.URLParam(r, "id")

	updated, err := h.repo.Update(&spot)
	if err != nil {
		h.writeSpotError(w, err, "Failed to update spot")
		return
	}

	h.bus.Publish(events.SpotUpdated, map[string]string{"id": updated.ID, "name": updated.Name})
	writeJSON(w, http.StatusOK, updated, h.log)
}

// HandleDelete handles DELETE /api/spots/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(id); err != nil {
		h.writeSpotError(w, err, "Failed to delete spot")
		return
	}

	h.bus.Publish(events.SpotDeleted, map[string]string{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport handles GET /api/spots/{id}/export. The format query
// parameter selects JSON (default) or the binary archive.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	spot, err := h.repo.Get(id)
	if err != nil {
		h.writeSpotError(w, err, "Failed to get spot")
		return
	}

	stored, err := h.profileRepo.ListBySpot(id)
	if err != nil {
		h.log.Error().Err(err).Str("spot_id", id).Msg("Failed to load profiles for export")
		http.Error(w, "Failed to export spot", http.StatusInternalServerError)
		return
	}

	records := make([]spots.ProfileRecord, 0, len(stored))
	for _, p := range stored {
		records = append(records, spots.ProfileRecord{
			Player:   p.Player,
			Role:     string(p.Role),
			Name:     p.Name,
			NodeData: p.NodeData,
		})
	}

	if r.URL.Query().Get("format") == "archive" {
		data, err := spots.ExportArchive(spot, records)
		if err != nil {
			h.log.Error().Err(err).Str("spot_id", id).Msg("Failed to encode archive")
			http.Error(w, "Failed to export spot", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.Header().Set("Content-Disposition", `attachment; filename="spot-`+id+`.bin"`)
		_, _ = w.Write(data)
		return
	}

	data, err := spots.ExportJSON(spot, records)
	if err != nil {
		h.log.Error().Err(err).Str("spot_id", id).Msg("Failed to encode export")
		http.Error(w, "Failed to export spot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// HandleImport handles POST /api/spots/import, accepting either a JSON or
// a binary archive body and recreating the spot with its profiles under a
// fresh id.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 16<<20))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var archive *spots.Archive
	if r.Header.Get("Content-Type") == "application/msgpack" {
		archive, err = spots.ImportArchive(body)
	} else {
		archive, err = spots.ImportJSON(body)
	}
	if err != nil {
		http.Error(w, "Invalid archive: "+err.Error(), http.StatusBadRequest)
		return
	}

	spot := archive.Spot
	spot.ID = ""
	created, err := h.repo.Create(spot)
	if err != nil {
		h.writeSpotError(w, err, "Failed to import spot")
		return
	}

	for _, record := range archive.Profiles {
		_, err := h.profileRepo.Save(&profiles.StoredProfile{
			SpotID:   created.ID,
			Player:   record.Player,
			Role:     profiles.Role(record.Role),
			Name:     record.Name,
			NodeData: record.NodeData,
		})
		if err != nil {
			h.log.Error().Err(err).Str("spot_id", created.ID).Msg("Failed to import profile")
			http.Error(w, "Failed to import profiles", http.StatusInternalServerError)
			return
		}
	}

	h.bus.Publish(events.SpotCreated, map[string]string{"id": created.ID, "name": created.Name})
	writeJSON(w, http.StatusCreated, created, h.log)
}

func (h *Handler) writeSpotError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, spots.ErrNotFound):
		http.Error(w, "Spot not found", http.StatusNotFound)
	case errors.Is(err, spots.ErrMissingName):
		http.Error(w, "Spot name is required", http.StatusBadRequest)
	default:
		var malformed *domain.MalformedTreeError
		if errors.As(err, &malformed) {
			http.Error(w, malformed.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
