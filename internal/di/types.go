// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/forecast/internal/archive"
	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/clients/alphavantage"
	"github.com/aristath/forecast/internal/clients/exchangerate"
	"github.com/aristath/forecast/internal/clients/tushare"
	"github.com/aristath/forecast/internal/database"
	"github.com/aristath/forecast/internal/forecast"
	"github.com/aristath/forecast/internal/forecast/handlers"
	"github.com/aristath/forecast/internal/reliability"
	"github.com/aristath/forecast/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire and is the single source of truth for service instances.
type Container struct {
	// Databases
	ClientDataDB *database.DB

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Clients
	TushareClient      tushare.Caller // retrying
	AlphaVantageClient *alphavantage.Client
	ExchangeRateClient *exchangerate.Client

	// Services
	Retrier          *reliability.Retrier
	Archive          archive.Store
	Builder          *forecast.Builder
	RateChain        *forecast.RateChain
	DomesticPipeline *forecast.DomesticPipeline
	ForeignPipeline  *forecast.ForeignPipeline
	ForecastService  *forecast.Service
	ForecastHandler  *handlers.Handler
}

// Close releases resources held by the container.
func (c *Container) Close() error {
	if c == nil || c.ClientDataDB == nil {
		return nil
	}
	return c.ClientDataDB.Close()
}

// JobInstances holds the maintenance jobs together with their schedules
type JobInstances struct {
	ClientDataCleanup *clientdata.CleanupJob
	ArchiveRetention  *archive.RetentionJob // nil when retention is disabled
	CheckDatabase     *scheduler.CheckDatabaseJob
	Vacuum            *scheduler.VacuumJob
	DiskSpace         *scheduler.DiskSpaceJob
}

// ScheduledJob pairs a job with its cron schedule.
type ScheduledJob struct {
	Schedule string
	Job      scheduler.Job
}
