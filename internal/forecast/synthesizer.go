package forecast

import (
	"github.com/aristath/forecast/internal/utils"
)

// Valuation model constants.
const (
	IndustryPE    = 20.0
	ValuationYear = 2025

	priorYearFactor = 0.85
	nextYearFactor  = 1.15
)

// Ratings
const (
	RatingBuy        = "Buy"
	RatingAccumulate = "Accumulate"
	RatingNeutral    = "Neutral"
	RatingReduce     = "Reduce"
	RatingSell       = "Sell"
)

// Action labels
const (
	ActionUpgrade   = "Upgrade"
	ActionDowngrade = "Downgrade"
	ActionMaintain  = "Maintain"
)

// Inputs are the normalized facts handed to the synthesizer. Monetary values are in the
// reporting currency; Revenue and Profit are already scaled to Unit.
type Inputs struct {
	StockCode    string
	ReportDate   string
	CurrentPrice float64
	EPS          float64
	PE           float64
	Revenue      float64
	Profit       float64
	Unit         Unit
	Source       string

	// Degraded lists why the facts are incomplete. Empty means complete.
	Degraded []string
}

// Synthesize derives the valuation fields of a Record. OperatingData is left for the Builder.
// It is total: any finite input yields a record.
func Synthesize(in Inputs) Record {
	eps2024 := in.EPS
	eps2023 := eps2024 * priorYearFactor
	eps2025 := eps2024 * nextYearFactor
	target := utils.Round2(eps2025 * IndustryPE)

	return Record{
		StockCode:     in.StockCode,
		ReportDate:    in.ReportDate,
		Rating:        rating(in.CurrentPrice, target),
		TargetPrice:   target,
		CurrentPrice:  utils.Round2(in.CurrentPrice),
		ActionEPS:     epsAction(eps2023, eps2024),
		ActionPrice:   priceAction(in.CurrentPrice, target),
		EPS2023:       utils.Round2(eps2023),
		EPS2024:       utils.Round2(eps2024),
		EPS2025:       utils.Round2(eps2025),
		ValuationYear: ValuationYear,
		PERatio:       utils.Round2(in.PE),
	}
}

// rating buckets the upside to target. Comparisons are strict, so an exact boundary
// falls into the more conservative bucket.
func rating(currentPrice, targetPrice float64) string {
	if currentPrice <= 0 {
		return RatingNeutral
	}
	change := (targetPrice - currentPrice) / currentPrice
	switch {
	case change > 0.20:
		return RatingBuy
	case change > 0.10:
		return RatingAccumulate
	case change > -0.10:
		return RatingNeutral
	case change > -0.20:
		return RatingReduce
	default:
		return RatingSell
	}
}

func epsAction(previous, current float64) string {
	if previous <= 0 || current <= 0 {
		return ActionMaintain
	}
	change := (current - previous) / previous
	switch {
	case change > 0.05:
		return ActionUpgrade
	case change < -0.05:
		return ActionDowngrade
	default:
		return ActionMaintain
	}
}

func priceAction(currentPrice, targetPrice float64) string {
	if currentPrice <= 0 {
		return ActionMaintain
	}
	switch {
	case targetPrice > currentPrice*1.10:
		return ActionUpgrade
	case targetPrice < currentPrice*0.90:
		return ActionDowngrade
	default:
		return ActionMaintain
	}
}
