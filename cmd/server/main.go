// Package main is the entry point for the tree analysis server. It wires
// the databases, repositories, analysis service, HTTP API, event bus and
// maintenance scheduler, then runs until a shutdown signal arrives.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CR-00/tree/internal/config"
	"github.com/CR-00/tree/internal/database"
	"github.com/CR-00/tree/internal/events"
	"github.com/CR-00/tree/internal/modules/analysis"
	analysishandlers "github.com/CR-00/tree/internal/modules/analysis/handlers"
	"github.com/CR-00/tree/internal/modules/profiles"
	profilehandlers "github.com/CR-00/tree/internal/modules/profiles/handlers"
	"github.com/CR-00/tree/internal/modules/runs"
	"github.com/CR-00/tree/internal/modules/spots"
	spothandlers "github.com/CR-00/tree/internal/modules/spots/handlers"
	"github.com/CR-00/tree/internal/reliability"
	"github.com/CR-00/tree/internal/scheduler"
	"github.com/CR-00/tree/internal/server"
	"github.com/CR-00/tree/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting tree server")

	// Databases. Spots holds the durable data (spots, profiles); cache
	// holds the rebuildable run history.
	spotsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "spots.db"),
		Profile: database.ProfileStandard,
		Name:    "spots",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open spots database")
	}
	defer spotsDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{spotsDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to run migrations")
		}
	}

	bus := events.NewBus(log)

	// Repositories and the analysis service.
	spotRepo := spots.NewRepository(spotsDB.Conn(), log)
	profileRepo := profiles.NewRepository(spotsDB.Conn(), log)
	runRepo := runs.NewRepository(cacheDB.Conn(), log)
	analysisService := analysis.NewService(log)

	// Backups: always local, offsite when an S3 target is configured.
	databases := []*database.DB{spotsDB, cacheDB}
	backupService := reliability.NewBackupService(databases, cfg.DataDir, cfg.BackupKeepLocal, bus, log)

	var offsiteBackup *reliability.S3BackupService
	if cfg.S3.Enabled() {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		offsiteBackup = reliability.NewS3BackupService(s3Client, backupService, log)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Offsite backups enabled")
	}

	// Maintenance scheduler.
	sched := scheduler.New(log)
	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.CleanupSchedule, scheduler.NewCleanupJob(runRepo, time.Duration(cfg.RunRetentionDays)*24*time.Hour, log)},
		{cfg.CheckpointSchedule, scheduler.NewCheckpointJob(databases)},
		{cfg.BackupSchedule, scheduler.NewBackupJob(backupService, offsiteBackup, cfg.BackupRetentionDays)},
	}
	for _, j := range jobs {
		if err := sched.Register(j.spec, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
		}
	}
	sched.Start()

	// HTTP server.
	srv := server.New(server.Config{
		Log:     log,
		SpotsDB: spotsDB,
		CacheDB: cacheDB,
		Config:  cfg,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,

		Bus:              bus,
		SpotHandlers:     spothandlers.NewHandler(spotRepo, profileRepo, bus, log),
		ProfileHandlers:  profilehandlers.NewHandler(profileRepo, bus, log),
		AnalysisHandlers: analysishandlers.NewHandler(analysisService, spotRepo, profileRepo, runRepo, bus, log),
		SystemHandlers:   server.NewSystemHandlers(log, cfg.DataDir, spotsDB, cacheDB, backupService),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for shutdown signal or server failure.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
