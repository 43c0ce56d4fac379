package forecast

import (
	"context"
	"strings"
	"time"

	"github.com/aristath/forecast/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Query is a forecast request.
type Query struct {
	Identifier   string
	ReportPeriod string
}

// DomesticRunner runs the domestic pipeline.
type DomesticRunner interface {
	Run(ctx context.Context, code, period string) Result
}

// ForeignRunner runs the foreign pipeline.
type ForeignRunner interface {
	Run(ctx context.Context, symbol string) Result
}

// Service routes queries to the pipeline for their segment.
type Service struct {
	domestic       DomesticRunner
	foreign        ForeignRunner
	builder        *Builder
	fallbackPeriod string
	now            func() time.Time
	log            zerolog.Logger
}

// NewService creates the service. fallbackPeriod replaces a missing period when set;
// otherwise today's date is used.
func NewService(domestic DomesticRunner, foreign ForeignRunner, builder *Builder, fallbackPeriod string, log zerolog.Logger) *Service {
	return &Service{
		domestic:       domestic,
		foreign:        foreign,
		builder:        builder,
		fallbackPeriod: fallbackPeriod,
		now:            time.Now,
		log:            log.With().Str("service", "forecast").Logger(),
	}
}

// Normalize trims the identifier and fills a missing period ("", "null").
func (s *Service) Normalize(q Query) Query {
	q.Identifier = strings.TrimSpace(q.Identifier)
	q.ReportPeriod = strings.TrimSpace(q.ReportPeriod)
	if q.ReportPeriod == "" || strings.EqualFold(q.ReportPeriod, "null") {
		q.ReportPeriod = s.fallbackPeriod
		if q.ReportPeriod == "" {
			q.ReportPeriod = utils.FormatReportDate(s.now())
		}
	}
	return q
}

// Forecast answers one query. It always returns exactly one record shape.
func (s *Service) Forecast(ctx context.Context, identifier, period string) Result {
	q := s.Normalize(Query{Identifier: identifier, ReportPeriod: period})
	segment := Classify(q.Identifier)

	log := s.log.With().
		Str("request_id", uuid.NewString()).
		Str("identifier", q.Identifier).
		Str("period", q.ReportPeriod).
		Str("segment", string(segment)).
		Logger()
	defer utils.OperationTimer("forecast."+string(segment), log)()

	if q.Identifier == "" {
		return s.builder.Failure(ctx, "", q.ReportPeriod, ErrKindDataMissing, "identifier is required")
	}

	log.Info().Msg("Forecast requested")

	var res Result
	switch segment {
	case SegmentDomestic:
		res = s.domestic.Run(ctx, q.Identifier, q.ReportPeriod)
	default:
		res = s.foreign.Run(ctx, q.Identifier)
	}

	switch {
	case res.Failed():
		log.Warn().Str("error", res.Failure.Kind).Str("message", res.Failure.Message).Msg("Forecast failed")
	case res.Degraded():
		log.Warn().Str("season_desc", res.Record.OperatingData.SeasonDesc).Msg("Forecast degraded")
	default:
		log.Info().Str("rating", res.Record.Rating).Float64("target_price", res.Record.TargetPrice).Msg("Forecast built")
	}
	return res
}
