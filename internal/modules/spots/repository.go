package spots

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/domain"
)

var (
	// ErrNotFound is returned when a spot id does not exist.
	ErrNotFound = errors.New("spot not found")
	// ErrMissingName is returned when a spot has no name.
	ErrMissingName = errors.New("spot name is required")
)

// Repository handles spot persistence in spots.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new spots repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "spots").Logger(),
	}
}

// Create stores a new spot and returns it with its generated id.
func (r *Repository) Create(spot *Spot) (*Spot, error) {
	if err := spot.Validate(); err != nil {
		return nil, err
	}

	treeJSON, err := json.Marshal(spot.Tree)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tree: %w", err)
	}

	now := time.Now().UTC()
	spot.ID = uuid.New().String()
	spot.CreatedAt = now
	spot.UpdatedAt = now

	_, err = r.db.Exec(`
		INSERT INTO spots (id, name, description, pot, oop_combos, ip_combos, exclude_root_action, tree_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, spot.ID, spot.Name, spot.Description, spot.Pot, spot.OOPCombos, spot.IPCombos,
		boolToInt(spot.ExcludeRootAction), string(treeJSON),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert spot: %w", err)
	}

	r.log.Debug().Str("spot_id", spot.ID).Str("name", spot.Name).Msg("Spot created")
	return spot, nil
}

// Get retrieves a spot by id.
func (r *Repository) Get(id string) (*Spot, error) {
	row := r.db.QueryRow(`
		SELECT id, name, description, pot, oop_combos, ip_combos, exclude_root_action, tree_json, created_at, updated_at
		FROM spots WHERE id = ?
	`, id)
	return scanSpot(row)
}

// List returns all spots, most recently updated first. Trees are included;
// callers wanting a light listing should project in the handler.
func (r *Repository) List() ([]*Spot, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, pot, oop_combos, ip_combos, exclude_root_action, tree_json, created_at, updated_at
		FROM spots ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list spots: %w", err)
	}
	defer rows.Close()

	var result []*Spot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, spot)
	}
	return result, rows.Err()
}

// Update replaces a spot's mutable fields. The id and creation time are
// preserved.
func (r *Repository) Update(spot *Spot) (*Spot, error) {
	if err := spot.Validate(); err != nil {
		return nil, err
	}

	treeJSON, err := json.Marshal(spot.Tree)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tree: %w", err)
	}

	spot.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(`
		UPDATE spots
		SET name = ?, description = ?, pot = ?, oop_combos = ?, ip_combos = ?, exclude_root_action = ?, tree_json = ?, updated_at = ?
		WHERE id = ?
	`, spot.Name, spot.Description, spot.Pot, spot.OOPCombos, spot.IPCombos,
		boolToInt(spot.ExcludeRootAction), string(treeJSON),
		spot.UpdatedAt.Format(time.RFC3339Nano), spot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update spot: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}

	return r.Get(spot.ID)
}

// Delete removes a spot. Profiles and runs cascade via foreign keys.
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM spots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete spot: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	r.log.Debug().Str("spot_id", id).Msg("Spot deleted")
	return nil
}

// Count returns the number of stored spots.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM spots").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count spots: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpot(row rowScanner) (*Spot, error) {
	var (
		spot        Spot
		excludeRoot int
		treeJSON    string
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&spot.ID, &spot.Name, &spot.Description, &spot.Pot,
		&spot.OOPCombos, &spot.IPCombos, &excludeRoot, &treeJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan spot: %w", err)
	}

	spot.ExcludeRootAction = excludeRoot != 0

	var tree domain.DecisionNode
	if err := json.Unmarshal([]byte(treeJSON), &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree for spot %s: %w", spot.ID, err)
	}
	spot.Tree = &tree

	if spot.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at for spot %s: %w", spot.ID, err)
	}
	if spot.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at for spot %s: %w", spot.ID, err)
	}

	return &spot, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
