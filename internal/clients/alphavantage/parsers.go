package alphavantage

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aristath/forecast/internal/utils"
)

func parseFloat64(s string) float64 {
	return utils.ParseFloat(s, 0)
}

// parseFloat64Ptr returns nil for missing markers and unparseable text.
func parseFloat64Ptr(s string) *float64 {
	v := utils.ParseFloat(s, math.NaN())
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func parseDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", strings.TrimSpace(s))
	return t
}

func parseDateTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseGlobalQuote(body []byte) (*GlobalQuote, error) {
	var raw struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse global quote: %w", err)
	}

	q := raw.Quote
	price, hasPrice := q["05. price"]
	return &GlobalQuote{
		Symbol:           q["01. symbol"],
		Price:            parseFloat64(price),
		HasPrice:         hasPrice && parseFloat64Ptr(price) != nil,
		LatestTradingDay: parseDate(q["07. latest trading day"]),
	}, nil
}

func parseCompanyOverview(body []byte) (*CompanyOverview, error) {
	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse company overview: %w", err)
	}

	return &CompanyOverview{
		Symbol:            raw["Symbol"],
		Name:              raw["Name"],
		Currency:          raw["Currency"],
		PERatio:           parseFloat64Ptr(raw["PERatio"]),
		EPS:               parseFloat64Ptr(raw["EPS"]),
		RevenueTTM:        parseFloat64Ptr(raw["RevenueTTM"]),
		GrossProfitTTM:    parseFloat64Ptr(raw["GrossProfitTTM"]),
		FiftyDayMovingAvg: parseFloat64Ptr(raw["50DayMovingAverage"]),
	}, nil
}

func parseExchangeRate(body []byte) (*ExchangeRate, error) {
	var raw struct {
		Rate map[string]string `json:"Realtime Currency Exchange Rate"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse exchange rate: %w", err)
	}
	if len(raw.Rate) == 0 {
		return nil, fmt.Errorf("exchange rate missing from response")
	}

	r := raw.Rate
	return &ExchangeRate{
		FromCurrency:  r["1. From_Currency Code"],
		ToCurrency:    r["3. To_Currency Code"],
		ExchangeRate:  parseFloat64(r["5. Exchange Rate"]),
		LastRefreshed: parseDateTime(r["6. Last Refreshed"]),
	}, nil
}
