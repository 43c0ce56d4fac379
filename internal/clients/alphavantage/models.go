package alphavantage

import "time"

// CompanyOverview is the subset of OVERVIEW used for valuation.
type CompanyOverview struct {
	Symbol            string
	Name              string
	Currency          string
	PERatio           *float64
	EPS               *float64
	RevenueTTM        *float64
	GrossProfitTTM    *float64
	FiftyDayMovingAvg *float64
}

// GlobalQuote is a GLOBAL_QUOTE response. HasPrice is false when "05. price" was absent.
type GlobalQuote struct {
	Symbol           string
	Price            float64
	HasPrice         bool
	LatestTradingDay time.Time
}

// ExchangeRate is a CURRENCY_EXCHANGE_RATE response.
type ExchangeRate struct {
	FromCurrency  string
	ToCurrency    string
	ExchangeRate  float64
	LastRefreshed time.Time
}
