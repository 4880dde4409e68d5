package spots

import (
	"database/sql"
	"path/filepath"
	"testing"

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

func testTree() *domain.DecisionNode {
	sizing := 50.0
	return &domain.DecisionNode{
		ID: "root", Action: domain.ActionCheck, Player: domain.OOP, Street: domain.StreetFlop,
		Children: []*domain.DecisionNode{
			{
				ID: "bet", Action: domain.ActionBet, Player: domain.IP, Street: domain.StreetFlop, Sizing: &sizing,
				Children: []*domain.DecisionNode{
					{ID: "fold", Action: domain.ActionFold, Player: domain.OOP, Street: domain.StreetFlop},
				},
			},
		},
	}
}

func testSpot() *Spot {
	return &Spot{
		Name:      "SRP flop c-bet",
		Pot:       10,
		OOPCombos: 100,
		IPCombos:  100,
		Tree:      testTree(),
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewRepository(testDB(t), logger.New(logger.Config{Level: "error"}))

	created, err := repo.Create(testSpot())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, 10.0, got.Pot)
	require.NotNil(t, got.Tree)
	assert.Equal(t, "root", got.Tree.ID)
	require.Len(t, got.Tree.Children, 1)
	assert.Equal(t, domain.ActionBet, got.Tree.Children[0].Action)
}

func TestRepositoryCreateRejectsInvalid(t *testing.T) {
	repo := NewRepository(testDB(t), logger.New(logger.Config{Level: "error"}))

	_, err := repo.Create(&Spot{Tree: testTree()})
	assert.ErrorIs(t, err, ErrMissingName)

	spot := testSpot()
	spot.Tree = nil
	_, err = repo.Create(spot)
	require.Error(t, err)
	var malformed *domain.MalformedTreeError
	assert.ErrorAs(t, err, &malformed)
}

func TestRepositoryList(t *testing.T) {
	repo := NewRepository(testDB(t), logger.New(logger.Config{Level: "error"}))

	first, err := repo.Create(testSpot())
	require.NoError(t, err)

	second := testSpot()
	second.Name = "turn probe"
	_, err = repo.Create(second)
	require.NoError(t, err)

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 2)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_ = first
}

func TestRepositoryUpdate(t *testing.T) {
	repo := NewRepository(testDB(t), logger.New(logger.Config{Level: "error"}))

	created, err := repo.Create(testSpot())
	require.NoError(t, err)

	created.Name = "renamed"
	created.Pot = 25
	updated, err := repo.Update(created)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 25.0, updated.Pot)

	missing := testSpot()
	missing.ID = "does-not-exist"
	_, err = repo.Update(missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	repo := NewRepository(testDB(t), logger.New(logger.Config{Level: "error"}))

	created, err := repo.Create(testSpot())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(created.ID))

	_, err = repo.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(created.ID), ErrNotFound)
}
