package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aristath/forecast/internal/archive"
	"github.com/rs/zerolog"
)

// Unit is the magnitude suffix of formatted operating figures.
type Unit string

const (
	// UnitHundredMillion is 1e8 yuan.
	UnitHundredMillion Unit = "亿元"
	// UnitBillion is 1e9 yuan.
	UnitBillion Unit = "十亿元"
)

const archiveTimeout = 10 * time.Second

// Builder assembles result contracts and hands them to the archive.
type Builder struct {
	store archive.Store
	now   func() time.Time
	log   zerolog.Logger
}

// NewBuilder creates a builder. A nil store disables archiving.
func NewBuilder(store archive.Store, log zerolog.Logger) *Builder {
	return &Builder{
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "result_builder").Logger(),
	}
}

// Success synthesizes and formats a record.
func (b *Builder) Success(ctx context.Context, in Inputs) Result {
	rec := Synthesize(in)
	rec.OperatingData = OperatingData{
		Revenue:     FormatAmount(in.Revenue, in.Unit),
		NetProfit:   FormatAmount(in.Profit, in.Unit),
		DataSource:  in.Source,
		SeasonDesc:  seasonDesc(in.Source, in.Degraded),
		DataQuality: QualityComplete,
	}
	if len(in.Degraded) > 0 {
		rec.OperatingData.DataQuality = QualityDegraded
	}

	res := Result{Record: &rec}
	b.archive(ctx, rec.StockCode, rec.ReportDate, res)
	return res
}

// Failure builds an ErrorRecord.
func (b *Builder) Failure(ctx context.Context, stockCode, reportDate, kind, message string) Result {
	res := Result{Failure: &ErrorRecord{
		Kind:       kind,
		Message:    message,
		Status:     StatusFailed,
		SeasonDesc: FailedSeasonDesc,
	}}
	b.archive(ctx, stockCode, reportDate, res)
	return res
}

// FormatAmount renders "%.2f<unit>". Non-finite values render as zero.
func FormatAmount(v float64, unit Unit) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%.2f%s", v, unit)
}

func seasonDesc(source string, degraded []string) string {
	desc := "Based on " + source + " data"
	if len(degraded) > 0 {
		desc += " " + DegradedMarker + ": " + strings.Join(degraded, "; ") + "]"
	}
	return desc
}

// archive is best effort. Failures are logged and never reach the caller.
func (b *Builder) archive(ctx context.Context, stockCode, reportDate string, res Result) {
	if b.store == nil {
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		b.log.Warn().Err(err).Str("stock_code", stockCode).Msg("Failed to encode result for archive")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	entry := archive.Entry{
		StockCode:  stockCode,
		ReportDate: reportDate,
		CreatedAt:  b.now(),
		Payload:    payload,
	}
	if err := b.store.Put(ctx, entry); err != nil {
		b.log.Warn().Err(err).Str("key", entry.Key()).Msg("Failed to archive result")
	}
}
