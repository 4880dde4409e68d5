package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CR-00/tree/internal/database"
	"github.com/CR-00/tree/internal/domain"
	"github.com/CR-00/tree/internal/events"
	"github.com/CR-00/tree/internal/modules/profiles"
	"github.com/CR-00/tree/internal/modules/spots"
	"github.com/CR-00/tree/pkg/logger"
)

func setup(t *testing.T) (chi.Router, *profiles.Repository) {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "spots.db"),
		Name: "spots",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error"})
	profileRepo := profiles.NewRepository(db.Conn(), log)

	router := chi.NewRouter()
	h := NewHandler(spots.NewRepository(db.Conn(), log), profileRepo, events.NewBus(log), log)
	h.RegisterRoutes(router)
	return router, profileRepo
}

func f64(v float64) *float64 { return &v }

func spotPayload() spots.Spot {
	return spots.Spot{
		Name:      "SRP flop c-bet",
		Pot:       10,
		OOPCombos: 100,
		IPCombos:  100,
		Tree: &domain.DecisionNode{
			ID: "root", Action: domain.ActionCheck, Player: domain.OOP, Street: domain.StreetFlop,
			Children: []*domain.DecisionNode{{
				ID: "bet", Action: domain.ActionBet, Player: domain.IP, Street: domain.StreetFlop, Sizing: f64(50),
			}},
		},
	}
}

func do(t *testing.T, router chi.Router, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSpot(t *testing.T, router chi.Router) spots.Spot {
	t.Helper()

	raw, err := json.Marshal(spotPayload())
	require.NoError(t, err)

	rec := do(t, router, http.MethodPost, "/api/spots", raw, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created spots.Spot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	return created
}

func TestCreateAndGetSpot(t *testing.T) {
	router, _ := setup(t)
	created := createSpot(t, router)

	rec := do(t, router, http.MethodGet, "/api/spots/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got spots.Spot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "SRP flop c-bet", got.Name)
	require.NotNil(t, got.Tree)
	assert.Equal(t, "root", got.Tree.ID)
}

func TestCreateSpotValidation(t *testing.T) {
	router, _ := setup(t)

	payload := spotPayload()
	payload.Name = ""
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := do(t, router, http.MethodPost, "/api/spots", raw, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteSpot(t *testing.T) {
	router, _ := setup(t)
	created := createSpot(t, router)

	created.Description = "updated"
	raw, err := json.Marshal(created)
	require.NoError(t, err)

	rec := do(t, router, http.MethodPut, "/api/spots/"+created.ID, raw, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/spots/"+created.ID, nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/spots/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	router, profileRepo := setup(t)
	created := createSpot(t, router)

	_, err := profileRepo.Save(&profiles.StoredProfile{
		SpotID:   created.ID,
		Player:   domain.IP,
		Role:     profiles.RoleGTO,
		NodeData: map[string]domain.NodeFrequency{"bet": {Frequency: f64(0.6)}},
	})
	require.NoError(t, err)

	rec := do(t, router, http.MethodGet, "/api/spots/"+created.ID+"/export?format=archive", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	rec = do(t, router, http.MethodPost, "/api/spots/import", rec.Body.Bytes(), "application/msgpack")
	require.Equal(t, http.StatusCreated, rec.Code)

	var imported spots.Spot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&imported))
	assert.NotEqual(t, created.ID, imported.ID)
	assert.Equal(t, created.Name, imported.Name)

	stored, err := profileRepo.Get(imported.ID, domain.IP, profiles.RoleGTO)
	require.NoError(t, err)
	assert.Equal(t, 0.6, *stored.NodeData["bet"].Frequency)
}

func TestImportRejectsGarbage(t *testing.T) {
	router, _ := setup(t)

	rec := do(t, router, http.MethodPost, "/api/spots/import", []byte("not an archive"), "application/msgpack")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
