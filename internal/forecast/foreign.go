package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/forecast/internal/clients/alphavantage"
	"github.com/rs/zerolog"
)

const (
	// ForeignSource labels records built from the company overview.
	ForeignSource = "Alpha Vantage overview"
	// ForeignReportDate is the report date of foreign records, which use trailing figures.
	ForeignReportDate = "Latest"

	quoteCurrency = "USD"
	localCurrency = "CNY"
	billion       = 1e9
)

// OverviewQuoteSource is the subset of the Alpha Vantage client used here.
type OverviewQuoteSource interface {
	GetCompanyOverview(ctx context.Context, symbol string) (*alphavantage.CompanyOverview, error)
	GetGlobalQuote(ctx context.Context, symbol string) (*alphavantage.GlobalQuote, error)
}

// ForeignFacts are the raw USD figures for a symbol plus the conversion rate.
type ForeignFacts struct {
	PE             float64
	EPS            float64
	RevenueTTM     float64
	GrossProfitTTM float64
	Price          float64
	Rate           RateQuote

	// PriceProblem is set when the live quote was unusable.
	PriceProblem string
}

// ForeignPipeline builds forecasts for ticker symbols.
type ForeignPipeline struct {
	source  OverviewQuoteSource
	rates   *RateChain
	builder *Builder
	log     zerolog.Logger
}

// NewForeignPipeline creates the pipeline.
func NewForeignPipeline(source OverviewQuoteSource, rates *RateChain, builder *Builder, log zerolog.Logger) *ForeignPipeline {
	return &ForeignPipeline{
		source:  source,
		rates:   rates,
		builder: builder,
		log:     log.With().Str("pipeline", "foreign").Logger(),
	}
}

// Run never returns an error or panics; failures become ErrorRecords.
func (p *ForeignPipeline) Run(ctx context.Context, symbol string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("symbol", symbol).Msg("Foreign pipeline panicked")
			res = p.builder.Failure(ctx, symbol, ForeignReportDate, ErrKindAPIException, fmt.Sprintf("foreign data fetch failed: %v", r))
		}
	}()

	facts, err := p.Fetch(ctx, symbol)
	if err != nil {
		kind := errorKind(err)
		p.log.Warn().Err(err).Str("symbol", symbol).Str("kind", kind).Msg("Foreign fetch failed")
		return p.builder.Failure(ctx, symbol, ForeignReportDate, kind, fmt.Sprintf("foreign data fetch failed: %v", err))
	}

	return p.builder.Success(ctx, ForeignInputs(symbol, facts))
}

// Fetch resolves the rate, then the overview, then the quote. Only a missing overview is fatal.
func (p *ForeignPipeline) Fetch(ctx context.Context, symbol string) (ForeignFacts, error) {
	facts := ForeignFacts{Rate: p.rates.Resolve(ctx, quoteCurrency, localCurrency)}
	p.log.Debug().Float64("rate", facts.Rate.Rate).Str("rate_source", facts.Rate.Source).Msg("Applied USD->CNY rate")

	overview, err := p.source.GetCompanyOverview(ctx, symbol)
	var notFound alphavantage.ErrSymbolNotFound
	switch {
	case errors.As(err, &notFound):
		return ForeignFacts{}, &DataMissingError{Source: "Alpha Vantage overview", Key: symbol}
	case err != nil:
		return ForeignFacts{}, err
	case overview == nil || overview.Symbol == "":
		return ForeignFacts{}, &DataMissingError{Source: "Alpha Vantage overview", Key: symbol}
	}

	facts.PE = valueOr(overview.PERatio, IndustryPE)
	facts.EPS = valueOr(overview.EPS, 0)
	facts.RevenueTTM = valueOr(overview.RevenueTTM, 0)
	facts.GrossProfitTTM = valueOr(overview.GrossProfitTTM, 0)

	quote, err := p.source.GetGlobalQuote(ctx, symbol)
	switch {
	case err == nil && quote != nil && quote.HasPrice:
		facts.Price = quote.Price
	default:
		reason := "quote missing price"
		if err != nil {
			reason = "quote unavailable: " + err.Error()
		}
		facts.Price = valueOr(overview.FiftyDayMovingAvg, 0)
		facts.PriceProblem = reason + ", price from 50-day moving average"
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Falling back to 50-day moving average")
	}
	return facts, nil
}

// ForeignInputs converts USD facts to CNY. Converted values stay unrounded; the
// synthesizer rounds what it outputs. Revenue and profit are scaled to billions.
func ForeignInputs(symbol string, f ForeignFacts) Inputs {
	rate := f.Rate.Rate
	in := Inputs{
		StockCode:    symbol,
		ReportDate:   ForeignReportDate,
		CurrentPrice: f.Price * rate,
		EPS:          f.EPS * rate,
		PE:           f.PE,
		Revenue:      f.RevenueTTM * rate / billion,
		Profit:       f.GrossProfitTTM * rate / billion,
		Unit:         UnitBillion,
		Source:       ForeignSource,
	}
	if f.PriceProblem != "" {
		in.Degraded = append(in.Degraded, f.PriceProblem)
	}
	if f.Rate.Source == RateSourceDefault {
		in.Degraded = append(in.Degraded, fmt.Sprintf("default USD/CNY rate %.2f applied", rate))
	}
	return in
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
