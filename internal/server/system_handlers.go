package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/CR-00/tree/internal/database"
)

// BackupRunner triggers an on-demand backup.
type BackupRunner interface {
	Run() error
}

// SystemHandlers serves system status, database statistics and
// maintenance endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	spotsDB   *database.DB
	cacheDB   *database.DB
	backup    BackupRunner
	startTime time.Time
}

// NewSystemHandlers creates the system handlers.
func NewSystemHandlers(log zerolog.Logger, dataDir string, spotsDB, cacheDB *database.DB, backup BackupRunner) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		spotsDB:   spotsDB,
		cacheDB:   cacheDB,
		backup:    backup,
		startTime: time.Now(),
	}
}

// RegisterRoutes mounts the system routes on the given router.
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/api/system/status", h.HandleSystemStatus)
	r.Get("/api/system/databases", h.HandleDatabaseStats)
	r.Get("/api/system/disk", h.HandleDiskUsage)
	r.Post("/api/system/backup", h.HandleTriggerBackup)
	r.Post("/api/system/checkpoint", h.HandleWALCheckpoint)
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"go_version"`
}

// HandleSystemStatus handles GET /api/system/status.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent, memUsedMB := h.getSystemStats()

	status := "healthy"
	if err := h.spotsDB.QuickCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Spots database ping failed")
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, SystemStatusResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		MemoryUsedMB:  memUsedMB,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	}, h.log)
}

// HandleDatabaseStats handles GET /api/system/databases.
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	result := make(map[string]interface{})

	for _, db := range []*database.DB{h.spotsDB, h.cacheDB} {
		if db == nil {
			continue
		}
		stats, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			result[db.Name()] = map[string]string{"error": err.Error()}
			continue
		}
		result[db.Name()] = map[string]interface{}{
			"size_bytes":     stats.SizeBytes,
			"wal_size_bytes": stats.WALSizeBytes,
			"page_count":     stats.PageCount,
			"page_size":      stats.PageSize,
			"freelist_count": stats.FreelistCount,
			"profile":        string(db.Profile()),
		}
	}

	writeJSON(w, http.StatusOK, result, h.log)
}

// HandleDiskUsage handles GET /api/system/disk.
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data_dir":      h.dataDir,
		"total_size_mb": h.getDirSize(h.dataDir),
	}, h.log)
}

// HandleTriggerBackup handles POST /api/system/backup.
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		http.Error(w, "Backups not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.backup.Run(); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, "Backup failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"}, h.log)
}

// HandleWALCheckpoint handles POST /api/system/checkpoint.
func (h *SystemHandlers) HandleWALCheckpoint(w http.ResponseWriter, r *http.Request) {
	for _, db := range []*database.DB{h.spotsDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			http.Error(w, "Checkpoint failed for "+db.Name(), http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"}, h.log)
}

// getDirSize returns a directory's total size in megabytes.
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var total int64
	_ = filepath.Walk(dirPath, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return float64(total) / 1024 / 1024
}

// getSystemStats samples CPU and memory usage. Failures degrade to zeros
// rather than failing the status endpoint.
func (h *SystemHandlers) getSystemStats() (cpuPercent, memPercent, memUsedMB float64) {
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		memPercent = memStat.UsedPercent
		memUsedMB = float64(memStat.Used) / 1024 / 1024
	}
	return cpuPercent, memPercent, memUsedMB
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
