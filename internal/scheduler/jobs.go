package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/database"
	"github.com/CR-00/tree/internal/modules/runs"
	"github.com/CR-00/tree/internal/reliability"
)

// CleanupJob removes analysis runs past the retention window.
type CleanupJob struct {
	repo      *runs.Repository
	retention time.Duration
	log       zerolog.Logger
}

// NewCleanupJob creates the run-history cleanup job.
func NewCleanupJob(repo *runs.Repository, retention time.Duration, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:      repo,
		retention: retention,
		log:       log.With().Str("job", "run_cleanup").Logger(),
	}
}

func (j *CleanupJob) Name() string { return "run_cleanup" }

func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpired(j.retention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Run history cleaned up")
	}
	return nil
}

// CheckpointJob truncates the WAL files of all databases so they never
// grow unbounded between backups.
type CheckpointJob struct {
	databases []*database.DB
}

// NewCheckpointJob creates the WAL checkpoint job.
func NewCheckpointJob(databases []*database.DB) *CheckpointJob {
	return &CheckpointJob{databases: databases}
}

func (j *CheckpointJob) Name() string { return "wal_checkpoint" }

func (j *CheckpointJob) Run() error {
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			return fmt.Errorf("checkpoint %s: %w", db.Name(), err)
		}
	}
	return nil
}

// BackupJob creates a local backup archive and, when an offsite target is
// configured, replicates and rotates it there.
type BackupJob struct {
	local         *reliability.BackupService
	offsite       *reliability.S3BackupService
	retentionDays int
}

// NewBackupJob creates the backup job. offsite may be nil.
func NewBackupJob(local *reliability.BackupService, offsite *reliability.S3BackupService, retentionDays int) *BackupJob {
	return &BackupJob{
		local:         local,
		offsite:       offsite,
		retentionDays: retentionDays,
	}
}

func (j *BackupJob) Name() string { return "backup" }

func (j *BackupJob) Run() error {
	if err := j.local.Run(); err != nil {
		return err
	}

	if j.offsite == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := j.offsite.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	return j.offsite.RotateOldBackups(ctx, j.retentionDays)
}
