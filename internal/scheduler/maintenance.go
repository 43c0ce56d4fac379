package scheduler

import (
	"fmt"

	"github.com/aristath/forecast/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// VacuumJob reclaims space in the cache database after expired rows are purged
type VacuumJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewVacuumJob creates a new VacuumJob
func NewVacuumJob(db *database.DB, log zerolog.Logger) *VacuumJob {
	return &VacuumJob{
		db:  db,
		log: log.With().Str("job", "vacuum").Logger(),
	}
}

// Name returns the job name
func (j *VacuumJob) Name() string {
	return "vacuum_database"
}

// Run executes VACUUM and logs the reclaimed space.
func (j *VacuumJob) Run() error {
	if j.db == nil {
		return nil
	}

	before, err := j.db.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats before VACUUM: %w", err)
	}

	if _, err := j.db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed for %s: %w", j.db.Name(), err)
	}

	after, err := j.db.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats after VACUUM: %w", err)
	}

	sizeBefore := float64(before.PageCount*before.PageSize) / 1024 / 1024
	sizeAfter := float64(after.PageCount*after.PageSize) / 1024 / 1024
	j.log.Info().
		Str("database", j.db.Name()).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")

	return nil
}

// Disk space thresholds in GB.
const (
	diskCriticalGB = 0.5
	diskWarnGB     = 5.0
)

// DiskSpaceJob watches free space on the volume holding the data directory
type DiskSpaceJob struct {
	dir   string
	usage func(path string) (*disk.UsageStat, error)
	log   zerolog.Logger
}

// NewDiskSpaceJob creates a new DiskSpaceJob
func NewDiskSpaceJob(dir string, log zerolog.Logger) *DiskSpaceJob {
	return &DiskSpaceJob{
		dir:   dir,
		usage: disk.Usage,
		log:   log.With().Str("job", "disk_space").Logger(),
	}
}

// Name returns the job name
func (j *DiskSpaceJob) Name() string {
	return "check_disk_space"
}

// Run fails below the critical threshold and warns below the warning threshold.
func (j *DiskSpaceJob) Run() error {
	stat, err := j.usage(j.dir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem for %s: %w", j.dir, err)
	}

	availableGB := float64(stat.Free) / 1e9
	log := j.log.With().Str("dir", j.dir).Float64("available_gb", availableGB).Logger()

	switch {
	case availableGB < diskCriticalGB:
		log.Error().Msg("Insufficient disk space for archives and cache")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dir)
	case availableGB < diskWarnGB:
		log.Warn().Msg("Disk space running low")
	default:
		log.Debug().Msg("Disk space check")
	}
	return nil
}
