package forecast

import (
	"context"
	"fmt"

	"github.com/aristath/forecast/internal/clients/tushare"
	"github.com/aristath/forecast/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DomesticSource labels records built from the quarterly income statement.
	DomesticSource = "Tushare quarterly report"

	quoteWindowDays = 30
	hundredMillion  = 1e8
)

// DomesticFacts are the raw figures for a domestic code, in yuan.
type DomesticFacts struct {
	TotalRevenue     float64
	NetIncome        float64
	TotalMarketValue float64
	EndDate          string
	LatestClose      float64
	TradeDate        string

	// QuoteProblem is set when the daily quote lookup was empty or failed.
	QuoteProblem string
}

// DomesticPipeline builds forecasts for exchange-listed domestic codes.
type DomesticPipeline struct {
	caller  tushare.Caller
	builder *Builder
	log     zerolog.Logger
}

// NewDomesticPipeline creates the pipeline. caller should be a retrying caller.
func NewDomesticPipeline(caller tushare.Caller, builder *Builder, log zerolog.Logger) *DomesticPipeline {
	return &DomesticPipeline{
		caller:  caller,
		builder: builder,
		log:     log.With().Str("pipeline", "domestic").Logger(),
	}
}

// Run never returns an error or panics; failures become ErrorRecords.
func (p *DomesticPipeline) Run(ctx context.Context, code, period string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("code", code).Msg("Domestic pipeline panicked")
			res = p.builder.Failure(ctx, code, period, ErrKindAPIException, fmt.Sprintf("Tushare call failed: %v", r))
		}
	}()

	facts, err := p.Fetch(ctx, code, period)
	if err != nil {
		kind := errorKind(err)
		p.log.Warn().Err(err).Str("code", code).Str("period", period).Str("kind", kind).Msg("Domestic fetch failed")
		return p.builder.Failure(ctx, code, period, kind, fmt.Sprintf("Tushare call failed: %v", err))
	}

	if facts.EndDate != "" && facts.EndDate != period {
		p.log.Info().Str("code", code).Str("requested", period).Str("end_date", facts.EndDate).Msg("Report period differs from request")
	}

	return p.builder.Success(ctx, DomesticInputs(code, period, facts))
}

// Fetch runs the income and daily lookups concurrently. The daily window only depends on
// the requested period. A failed income lookup cancels the daily one; a failed daily lookup
// only degrades the facts.
func (p *DomesticPipeline) Fetch(ctx context.Context, code, period string) (DomesticFacts, error) {
	tsCode := tushare.NormalizeTSCode(code)

	var facts DomesticFacts
	var daily *tushare.Response
	var dailyErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverInto(&err)

		resp, err := p.caller.Call(gctx, tushare.APIIncome, tushare.IncomeParams(tsCode, period))
		if err != nil {
			return err
		}
		income, ok := tushare.ParseIncome(resp)
		if !ok {
			return &DataMissingError{Source: "Tushare income", Key: tsCode + "@" + period}
		}
		facts.TotalRevenue = income.TotalRevenue
		facts.NetIncome = income.NetIncome
		facts.TotalMarketValue = income.TotalMarketValue
		facts.EndDate = income.EndDate
		return nil
	})
	g.Go(func() (err error) {
		defer recoverInto(&err)

		start := utils.ShiftDate(period, quoteWindowDays)
		daily, dailyErr = p.caller.Call(gctx, tushare.APIDaily, tushare.DailyParams(tsCode, start, period))
		return nil
	})
	if err := g.Wait(); err != nil {
		return DomesticFacts{}, err
	}

	switch {
	case dailyErr != nil:
		facts.QuoteProblem = fmt.Sprintf("daily quote unavailable: %v", dailyErr)
		p.log.Warn().Err(dailyErr).Str("code", tsCode).Msg("Daily quote lookup failed")
	default:
		price, tradeDate, ok := tushare.ParseLatestClose(daily)
		if !ok {
			facts.QuoteProblem = fmt.Sprintf("no daily quote in the %d-day window", quoteWindowDays)
		} else {
			facts.LatestClose = price
			facts.TradeDate = tradeDate
		}
	}
	return facts, nil
}

// DomesticInputs derives EPS and PE from market value and price:
// shares = mv / close, eps = net income / shares, pe = mv / net income.
func DomesticInputs(code, period string, f DomesticFacts) Inputs {
	in := Inputs{
		StockCode:  code,
		ReportDate: period,
		Revenue:    f.TotalRevenue / hundredMillion,
		Profit:     f.NetIncome / hundredMillion,
		Unit:       UnitHundredMillion,
		Source:     DomesticSource,
	}
	if f.QuoteProblem != "" {
		in.Degraded = append(in.Degraded, f.QuoteProblem)
	}

	if f.LatestClose > 0 {
		in.CurrentPrice = f.LatestClose
		if totalShares := f.TotalMarketValue / f.LatestClose; totalShares > 0 {
			in.EPS = f.NetIncome / totalShares
		} else {
			in.Degraded = append(in.Degraded, "market value missing, EPS not derived")
		}
		if f.NetIncome > 0 {
			in.PE = f.TotalMarketValue / f.NetIncome
		}
	}
	return in
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
