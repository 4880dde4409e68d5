package profiles

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CR-00/tree/internal/database"
	"github.com/CR-00/tree/internal/domain"
	"github.com/CR-00/tree/pkg/logger"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "spots.db"),
		Name: "spots",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	return db.Conn()
}

// insertSpot satisfies the foreign key from profiles to spots.
func insertSpot(t *testing.T, db *sql.DB) string {
	t.Helper()

	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.Exec(`
		INSERT INTO spots (id, name, tree_json, created_at, updated_at)
		VALUES (?, 'test spot', '{"id":"root","action":"check","actingPlayer":"OOP","street":"flop"}', ?, ?)
	`, id, now, now)
	require.NoError(t, err)
	return id
}

func f64(v float64) *float64 { return &v }

func TestRepositorySaveAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db, logger.New(logger.Config{Level: "error"}))
	spotID := insertSpot(t, db)

	saved, err := repo.Save(&StoredProfile{
		SpotID: spotID,
		Player: domain.OOP,
		Role:   RoleGTO,
		Name:   "solver baseline",
		NodeData: map[string]domain.NodeFrequency{
			"fold": {Frequency: f64(0.3)},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := repo.Get(spotID, domain.OOP, RoleGTO)
	require.NoError(t, err)
	assert.Equal(t, "solver baseline", got.Name)
	require.Contains(t, got.NodeData, "fold")
	assert.Equal(t, 0.3, *got.NodeData["fold"].Frequency)
}

func TestRepositorySaveUpserts(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db, logger.New(logger.Config{Level: "error"}))
	spotID := insertSpot(t, db)

	_, err := repo.Save(&StoredProfile{
		SpotID: spotID, Player: domain.IP, Role: RoleActive,
		NodeData: map[string]domain.NodeFrequency{"bet": {Frequency: f64(0.5)}},
	})
	require.NoError(t, err)

	_, err = repo.Save(&StoredProfile{
		SpotID: spotID, Player: domain.IP, Role: RoleActive,
		NodeData: map[string]domain.NodeFrequency{"bet": {Frequency: f64(0.7)}},
	})
	require.NoError(t, err)

	all, err := repo.ListBySpot(spotID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 0.7, *all[0].NodeData["bet"].Frequency)
}

func TestRepositorySaveValidates(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db, logger.New(logger.Config{Level: "error"}))
	spotID := insertSpot(t, db)

	_, err := repo.Save(&StoredProfile{SpotID: spotID, Player: "MP", Role: RoleGTO})
	assert.Error(t, err)

	_, err = repo.Save(&StoredProfile{SpotID: spotID, Player: domain.OOP, Role: "baseline"})
	assert.Error(t, err)

	_, err = repo.Save(&StoredProfile{
		SpotID: spotID, Player: domain.OOP, Role: RoleGTO,
		NodeData: map[string]domain.NodeFrequency{"fold": {Frequency: f64(1.5)}},
	})
	require.Error(t, err)
	var invalid *domain.InvalidFrequencyError
	assert.ErrorAs(t, err, &invalid)
}

func TestRepositoryDelete(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db, logger.New(logger.Config{Level: "error"}))
	spotID := insertSpot(t, db)

	_, err := repo.Save(&StoredProfile{SpotID: spotID, Player: domain.OOP, Role: RoleGTO})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(spotID, domain.OOP, RoleGTO))
	assert.ErrorIs(t, repo.Delete(spotID, domain.OOP, RoleGTO), ErrNotFound)

	_, err = repo.Get(spotID, domain.OOP, RoleGTO)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryAnalysisProfiles(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db, logger.New(logger.Config{Level: "error"}))
	spotID := insertSpot(t, db)

	_, err := repo.Save(&StoredProfile{
		SpotID: spotID, Player: domain.OOP, Role: RoleGTO,
		NodeData: map[string]domain.NodeFrequency{"fold": {Frequency: f64(0.2)}},
	})
	require.NoError(t, err)
	_, err = repo.Save(&StoredProfile{
		SpotID: spotID, Player: domain.OOP, Role: RoleActive,
		NodeData: map[string]domain.NodeFrequency{"fold": {Frequency: f64(0.5)}},
	})
	require.NoError(t, err)

	result, err := repo.AnalysisProfiles(spotID)
	require.NoError(t, err)

	require.NotNil(t, result.OOP.GTO)
	require.NotNil(t, result.OOP.Active)
	assert.Nil(t, result.IP.GTO)

	gto, ok := result.OOP.GTO.Lookup("fold")
	require.True(t, ok)
	assert.Equal(t, 0.2, *gto.Frequency)
}
