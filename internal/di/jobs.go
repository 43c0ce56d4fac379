package di

import (
	"fmt"
	"time"

	"github.com/aristath/forecast/internal/archive"
	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/scheduler"
	"github.com/rs/zerolog"
)

// Job schedules (seconds first).
const (
	ScheduleClientDataCleanup = "0 0 3 * * *"
	ScheduleArchiveRetention  = "0 30 3 * * *"
	ScheduleCheckDatabase     = "0 0 */6 * * *"
	ScheduleVacuum            = "0 0 4 * * SUN"
	ScheduleDiskSpace         = "0 15 * * * *"
)

// RegisterJobs creates the maintenance jobs.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		CheckDatabase:     scheduler.NewCheckDatabaseJob(container.ClientDataDB, log),
		Vacuum:            scheduler.NewVacuumJob(container.ClientDataDB, log),
		DiskSpace:         scheduler.NewDiskSpaceJob(cfg.DataDir, log),
	}
	if cfg.Archive.RetentionDays > 0 {
		maxAge := time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour
		instances.ArchiveRetention = archive.NewRetentionJob(cfg.Archive.Dir, maxAge, log)
	}

	return instances, nil
}

// Scheduled lists every job with its schedule.
func (j *JobInstances) Scheduled() []ScheduledJob {
	jobs := []ScheduledJob{
		{Schedule: ScheduleClientDataCleanup, Job: j.ClientDataCleanup},
		{Schedule: ScheduleCheckDatabase, Job: j.CheckDatabase},
		{Schedule: ScheduleVacuum, Job: j.Vacuum},
		{Schedule: ScheduleDiskSpace, Job: j.DiskSpace},
	}
	if j.ArchiveRetention != nil {
		jobs = append(jobs, ScheduledJob{Schedule: ScheduleArchiveRetention, Job: j.ArchiveRetention})
	}
	return jobs
}

// All returns the jobs without schedules, for manual triggering.
func (j *JobInstances) All() []scheduler.Job {
	var jobs []scheduler.Job
	for _, s := range j.Scheduled() {
		jobs = append(jobs, s.Job)
	}
	return jobs
}
