package di

import (
	"context"
	"fmt"

	"github.com/aristath/forecast/internal/archive"
	"github.com/aristath/forecast/internal/clients/alphavantage"
	"github.com/aristath/forecast/internal/clients/exchangerate"
	"github.com/aristath/forecast/internal/clients/transport"
	"github.com/aristath/forecast/internal/clients/tushare"
	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/forecast"
	"github.com/aristath/forecast/internal/forecast/handlers"
	"github.com/aristath/forecast/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates upstream clients, pipelines and the forecast service.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	httpClient, err := transport.NewHTTPClient(transport.Options{ProxyURL: cfg.Proxy.URL()})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if cfg.Proxy.Enabled {
		log.Info().Str("proxy", cfg.Proxy.URL()).Msg("Routing upstream calls through proxy")
	}

	// Upstream clients
	container.Retrier = reliability.NewRetrier(log)
	container.TushareClient = tushare.NewRetryingClient(
		tushare.NewClient(cfg.TushareBaseURL, cfg.TushareToken, httpClient, log),
		container.Retrier,
	)
	container.AlphaVantageClient = alphavantage.NewClient(cfg.AlphaVantageAPIKey, log,
		alphavantage.WithBaseURL(cfg.AlphaVantageBaseURL),
		alphavantage.WithHTTPClient(httpClient),
	)
	container.ExchangeRateClient = exchangerate.NewClient(cfg.ExchangeRateBaseURL, httpClient, log)

	if cfg.TushareToken == "" {
		log.Warn().Msg("TUSHARE_TOKEN not set, domestic forecasts will fail")
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY not set, foreign forecasts will fail")
	}

	// Archive
	store, err := newArchiveStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	container.Archive = store

	// Forecast
	container.Builder = forecast.NewBuilder(container.Archive, log)
	container.RateChain = forecast.NewRateChain(
		[]forecast.RateProvider{container.AlphaVantageClient, container.ExchangeRateClient},
		container.ClientDataRepo,
		forecast.DefaultUSDCNYRate,
		log,
	)
	container.DomesticPipeline = forecast.NewDomesticPipeline(container.TushareClient, container.Builder, log)
	container.ForeignPipeline = forecast.NewForeignPipeline(container.AlphaVantageClient, container.RateChain, container.Builder, log)
	container.ForecastService = forecast.NewService(
		container.DomesticPipeline,
		container.ForeignPipeline,
		container.Builder,
		cfg.FallbackReportPeriod,
		log,
	)
	container.ForecastHandler = handlers.NewHandler(container.ForecastService, log)

	return nil
}

// newArchiveStore returns the file store, fanned out to S3 when a bucket is configured.
func newArchiveStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (archive.Store, error) {
	fileStore := archive.NewFileStore(cfg.Archive.Dir, log)
	if !cfg.Archive.S3.Enabled() {
		return fileStore, nil
	}

	s3cfg := cfg.Archive.S3
	s3Store, err := archive.NewS3Store(ctx, archive.S3Config{
		Bucket:          s3cfg.Bucket,
		Endpoint:        s3cfg.Endpoint,
		Region:          s3cfg.Region,
		AccessKeyID:     s3cfg.AccessKeyID,
		SecretAccessKey: s3cfg.SecretAccessKey,
		Prefix:          s3cfg.Prefix,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 archive store: %w", err)
	}
	log.Info().Str("bucket", s3cfg.Bucket).Msg("S3 archive enabled")
	return archive.MultiStore{fileStore, s3Store}, nil
}
