// Package profiles manages stored frequency profiles. Each spot carries up
// to four: a GTO baseline and an active strategy per player.
package profiles

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/domain"
	"github.com/CR-00/tree/internal/modules/analysis"
)

// Role distinguishes the baseline from the strategy under review.
type Role string

const (
	RoleGTO    Role = "gto"
	RoleActive Role = "active"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	return r == RoleGTO || r == RoleActive
}

// ErrNotFound is returned when no profile matches the query.
var ErrNotFound = errors.New("profile not found")

// StoredProfile is one persisted frequency profile row.
type StoredProfile struct {
	ID       string                          `json:"id"`
	SpotID   string                          `json:"spot_id"`
	Player   domain.Player                   `json:"player"`
	Role     Role                            `json:"role"`
	Name     string                          `json:"name"`
	NodeData map[string]domain.NodeFrequency `json:"nodeData"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository handles profile persistence in spots.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new profiles repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "profiles").Logger(),
	}
}

// Save upserts a profile. The (spot, player, role) triple is unique, so
// saving twice replaces the node data in place.
func (r *Repository) Save(p *StoredProfile) (*StoredProfile, error) {
	if !p.Player.Valid() {
		return nil, fmt.Errorf("invalid player %q", p.Player)
	}
	if !p.Role.Valid() {
		return nil, fmt.Errorf("invalid profile role %q", p.Role)
	}

	freqProfile := domain.FrequencyProfile{Name: p.Name, Player: p.Player, Nodes: p.NodeData}
	if err := freqProfile.Validate(); err != nil {
		return nil, err
	}

	nodeData, err := json.Marshal(p.NodeData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node data: %w", err)
	}

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err = r.db.Exec(`
		INSERT INTO profiles (id, spot_id, player, role, name, node_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spot_id, player, role) DO UPDATE SET
			name = excluded.name,
			node_data = excluded.node_data,
			updated_at = excluded.updated_at
	`, p.ID, p.SpotID, string(p.Player), string(p.Role), p.Name, string(nodeData),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	r.log.Debug().
		Str("spot_id", p.SpotID).
		Str("player", string(p.Player)).
		Str("role", string(p.Role)).
		Msg("Profile saved")

	return r.Get(p.SpotID, p.Player, p.Role)
}

// Get retrieves one profile by its (spot, player, role) key.
func (r *Repository) Get(spotID string, player domain.Player, role Role) (*StoredProfile, error) {
	row := r.db.QueryRow(`
		SELECT id, spot_id, player, role, name, node_data, created_at, updated_at
		FROM profiles WHERE spot_id = ? AND player = ? AND role = ?
	`, spotID, string(player), string(role))
	return scanProfile(row)
}

// ListBySpot returns all profiles stored for a spot.
func (r *Repository) ListBySpot(spotID string) ([]*StoredProfile, error) {
	rows, err := r.db.Query(`
		SELECT id, spot_id, player, role, name, node_data, created_at, updated_at
		FROM profiles WHERE spot_id = ? ORDER BY player, role
	`, spotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var result []*StoredProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Delete removes one profile.
func (r *Repository) Delete(spotID string, player domain.Player, role Role) error {
	res, err := r.db.Exec(`
		DELETE FROM profiles WHERE spot_id = ? AND player = ? AND role = ?
	`, spotID, string(player), string(role))
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AnalysisProfiles assembles the four stored profiles of a spot into the
// structure the analysis engine consumes. Missing profiles stay nil, which
// the resolver treats as "inherit everything".
func (r *Repository) AnalysisProfiles(spotID string) (analysis.Profiles, error) {
	stored, err := r.ListBySpot(spotID)
	if err != nil {
		return analysis.Profiles{}, err
	}

	var result analysis.Profiles
	for _, p := range stored {
		fp := &domain.FrequencyProfile{Name: p.Name, Player: p.Player, Nodes: p.NodeData}

		pair := &result.OOP
		if p.Player == domain.IP {
			pair = &result.IP
		}
		switch p.Role {
		case RoleGTO:
			pair.GTO = fp
		case RoleActive:
			pair.Active = fp
		}
	}
	return result, nil
}

func scanProfile(row interface{ Scan(...interface{}) error }) (*StoredProfile, error) {
	var (
		p         StoredProfile
		player    string
		role      string
		nodeData  string
		createdAt string
		updatedAt string
	)
	err := row.Scan(&p.ID, &p.SpotID, &player, &role, &p.Name, &nodeData, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.Player = domain.Player(player)
	p.Role = Role(role)

	if err := json.Unmarshal([]byte(nodeData), &p.NodeData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node data for profile %s: %w", p.ID, err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at for profile %s: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at for profile %s: %w", p.ID, err)
	}

	return &p, nil
}
