// Package scheduler runs the periodic maintenance jobs: run-history
// cleanup, WAL checkpoints and backups.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one schedulable unit of work.
type Job interface {
	Name() string
	Run() error
}

// Scheduler wraps a cron runner with logging and panic isolation.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a stopped scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("module", "scheduler").Logger(),
	}
}

// Register adds a job on the given cron spec.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		log := s.log.With().Str("job", job.Name()).Logger()

		defer func() {
			if p := recover(); p != nil {
				log.Error().Interface("panic", p).Msg("Job panicked")
			}
		}()

		log.Debug().Msg("Job starting")
		if err := job.Run(); err != nil {
			log.Error().Err(err).Dur("duration_ms", time.Since(start)).Msg("Job failed")
			return
		}
		log.Info().Dur("duration_ms", time.Since(start)).Msg("Job completed")
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}

	s.log.Info().Str("job", job.Name()).Str("spec", spec).Msg("Job registered")
	return nil
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
