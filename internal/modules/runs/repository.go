// Package runs persists completed analysis reports so past results can be
// compared without re-running the detectors.
package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/modules/analysis"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("analysis run not found")

// Run is one stored analysis result.
type Run struct {
	ID           string           `json:"id"`
	SpotID       string           `json:"spot_id"`
	Report       *analysis.Report `json:"report"`
	LeakCount    int              `json:"leak_count"`
	ExploitCount int              `json:"exploit_count"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Repository handles analysis run persistence in cache.db. Run history is
// rebuildable, so it lives with the other ephemeral data.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new runs repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Create stores a completed report for a spot.
func (r *Repository) Create(spotID string, report *analysis.Report) (*Run, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	run := &Run{
		ID:           uuid.New().String(),
		SpotID:       spotID,
		Report:       report,
		LeakCount:    len(report.Leaks),
		ExploitCount: len(report.Exploits),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = r.db.Exec(`
		INSERT INTO analysis_runs (id, spot_id, report_json, leak_count, exploit_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.SpotID, string(reportJSON), run.LeakCount, run.ExploitCount,
		run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis run: %w", err)
	}

	return run, nil
}

// Get retrieves a run by id.
func (r *Repository) Get(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, spot_id, report_json, leak_count, exploit_count, created_at
		FROM analysis_runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListBySpot returns a spot's runs, newest first, up to limit (0 = all).
func (r *Repository) ListBySpot(spotID string, limit int) ([]*Run, error) {
	query := `
		SELECT id, spot_id, report_json, leak_count, exploit_count, created_at
		FROM analysis_runs WHERE spot_id = ? ORDER BY created_at DESC
	`
	args := []interface{}{spotID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// DeleteExpired removes runs older than the retention window and returns
// how many were deleted.
func (r *Repository) DeleteExpired(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := r.db.Exec(`
		DELETE FROM analysis_runs WHERE created_at < ?
	`, cutoff.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired runs: %w", err)
	}

	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Expired analysis runs removed")
	}
	return deleted, nil
}

func scanRun(row interface{ Scan(...interface{}) error }) (*Run, error) {
	var (
		run        Run
		reportJSON string
		createdAt  string
	)
	err := row.Scan(&run.ID, &run.SpotID, &reportJSON, &run.LeakCount, &run.ExploitCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis run: %w", err)
	}

	if err := json.Unmarshal([]byte(reportJSON), &run.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report for run %s: %w", run.ID, err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at for run %s: %w", run.ID, err)
	}

	return &run, nil
}
