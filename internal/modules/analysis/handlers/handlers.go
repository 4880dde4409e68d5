// Package handlers provides HTTP handlers for running analyses and
// browsing past runs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/domain"
	"github.com/CR-00/tree/internal/events"
	"github.com/CR-00/tree/internal/modules/analysis"
	"github.com/CR-00/tree/internal/modules/profiles"
	"github.com/CR-00/tree/internal/modules/runs"
	"github.com/CR-00/tree/internal/modules/spots"
)

// Handler provides HTTP handlers for the analysis endpoints.
type Handler struct {
	service     *analysis.Service
	spotRepo    *spots.Repository
	profileRepo *profiles.Repository
	runRepo     *runs.Repository
	bus         *events.Bus
	log         zerolog.Logger
}

// NewHandler creates a new analysis handler.
func NewHandler(service *analysis.Service, spotRepo *spots.Repository, profileRepo *profiles.Repository, runRepo *runs.Repository, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		service:     service,
		spotRepo:    spotRepo,
		profileRepo: profileRepo,
		runRepo:     runRepo,
		bus:         bus,
		log:         log.With().Str("handler", "analysis").Logger(),
	}
}

// RegisterRoutes mounts the analysis routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/analyze", h.HandleAnalyzeAdHoc)
	r.Post("/api/spots/{id}/analyze", h.HandleAnalyzeSpot)
	r.Get("/api/spots/{id}/patterns/{nodeId}", h.HandleClassifyPattern)
	r.Get("/api/spots/{id}/runs", h.HandleListRuns)
	r.Get("/api/runs/{id}", h.HandleGetRun)
}

// HandleAnalyzeAdHoc handles POST /api/analyze: a full analysis input in
// the request body, nothing persisted.
func (h *Handler) HandleAnalyzeAdHoc(w http.ResponseWriter, r *http.Request) {
	var input analysis.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Analyze(input)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleAnalyzeSpot handles POST /api/spots/{id}/analyze: runs the stored
// spot against its stored profiles and persists the result as a run.
func (h *Handler) HandleAnalyzeSpot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	spot, err := h.spotRepo.Get(id)
	if errors.Is(err, spots.ErrNotFound) {
		http.Error(w, "Spot not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("spot_id", id).Msg("Failed to load spot")
		http.Error(w, "Failed to load spot", http.StatusInternalServerError)
		return
	}

	profileSet, err := h.profileRepo.AnalysisProfiles(id)
	if err != nil {
		h.log.Error().Err(err).Str("spot_id", id).Msg("Failed to load profiles")
		http.Error(w, "Failed to load profiles", http.StatusInternalServerError)
		return
	}

	report, err := h.service.Analyze(analysis.Input{
		Tree:              spot.Tree,
		Pot:               spot.Pot,
		OOPCombos:         spot.OOPCombos,
		IPCombos:          spot.IPCombos,
		Profiles:          profileSet,
		ExcludeRootAction: spot.ExcludeRootAction,
	})
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	run, err := h.runRepo.Create(id, report)
	if err != nil {
		h.log.Error().Err(err).Str("spot_id", id).Msg("Failed to persist analysis run")
		http.Error(w, "Failed to persist analysis run", http.StatusInternalServerError)
		return
	}

	h.bus.Publish(events.AnalysisCompleted, map[string]interface{}{
		"spot_id":  id,
		"run_id":   run.ID,
		"leaks":    run.LeakCount,
		"exploits": run.ExploitCount,
	})

	h.writeJSON(w, http.StatusOK, run)
}

// HandleClassifyPattern handles GET /api/spots/{id}/patterns/{nodeId}:
// classifies one node of a stored spot's tree as stab, probe or donk.
func (h *Handler) HandleClassifyPattern(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nodeID := chi.URLParam(r, "nodeId")

	spot, err := h.spotRepo.Get(id)
	if errors.Is(err, spots.ErrNotFound) {
		http.Error(w, "Spot not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("spot_id", id).Msg("Failed to load spot")
		http.Error(w, "Failed to load spot", http.StatusInternalServerError)
		return
	}

	idx, err := domain.BuildParentIndex(spot.Tree)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}
	if idx.Node(nodeID) == nil {
		http.Error(w, "Node not found", http.StatusNotFound)
		return
	}

	pattern, ok := analysis.ClassifyPattern(idx, nodeID)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"nodeId":  nodeID,
		"pattern": pattern,
		"matched": ok,
	})
}

// HandleListRuns handles GET /api/spots/{id}/runs.
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	all, err := h.runRepo.ListBySpot(chi.URLParam(r, "id"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, all)
}

// HandleGetRun handles GET /api/runs/{id}.
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runRepo.Get(chi.URLParam(r, "id"))
	if errors.Is(err, runs.ErrNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get run")
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}

// writeAnalysisError maps domain validation failures to 400s and
// everything else to a 500.
func (h *Handler) writeAnalysisError(w http.ResponseWriter, err error) {
	var malformed *domain.MalformedTreeError
	var invalid *domain.InvalidFrequencyError
	if errors.As(err, &malformed) || errors.As(err, &invalid) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.log.Error().Err(err).Msg("Analysis failed")
	http.Error(w, "Analysis failed", http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
