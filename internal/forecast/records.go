package forecast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aristath/forecast/internal/reliability"
)

// Error kinds carried in ErrorRecord.Kind.
const (
	ErrKindDataMissing       = "DataMissing"
	ErrKindUpstreamExhausted = "UpstreamExhausted"
	ErrKindAPIException      = "ApiException"
)

// Data quality markers. Consumers refuse to narrate degraded records as precise.
const (
	QualityComplete = "complete"
	QualityDegraded = "degraded"
)

const (
	// StatusFailed is the status of every ErrorRecord.
	StatusFailed = "failed"
	// FailedSeasonDesc is the season description of every ErrorRecord.
	FailedSeasonDesc = "API fetch failed"
	// DegradedMarker prefixes the degradation reason in season_desc.
	DegradedMarker = "[DEGRADED"
)

// OperatingData holds the formatted operating figures.
type OperatingData struct {
	Revenue     string `json:"revenue"`
	NetProfit   string `json:"net_profit"`
	DataSource  string `json:"data_source"`
	SeasonDesc  string `json:"season_desc"`
	DataQuality string `json:"data_quality"`
}

// Record is the forecast contract. Field names are consumed verbatim downstream.
type Record struct {
	StockCode     string        `json:"stock_code"`
	ReportDate    string        `json:"report_date"`
	Rating        string        `json:"rating"`
	TargetPrice   float64       `json:"target_price"`
	CurrentPrice  float64       `json:"current_price"`
	ActionEPS     string        `json:"action_eps"`
	ActionPrice   string        `json:"action_price"`
	EPS2023       float64       `json:"eps_2023"`
	EPS2024       float64       `json:"eps_2024"`
	EPS2025       float64       `json:"eps_2025"`
	ValuationYear int           `json:"valuation_year"`
	PERatio       float64       `json:"pe_ratio"`
	OperatingData OperatingData `json:"operating_data"`
}

// ErrorRecord is the terminal failure shape.
type ErrorRecord struct {
	Kind       string `json:"error"`
	Message    string `json:"error_message"`
	Status     string `json:"status"`
	SeasonDesc string `json:"season_desc"`
}

// Result holds exactly one of Record or Failure.
type Result struct {
	Record  *Record
	Failure *ErrorRecord
}

// Failed reports whether the result is an ErrorRecord.
func (r Result) Failed() bool {
	return r.Failure != nil
}

// Degraded reports whether the result is a record built from partial data.
func (r Result) Degraded() bool {
	return r.Record != nil && r.Record.OperatingData.DataQuality == QualityDegraded
}

// MarshalJSON emits the single populated shape.
func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Failure != nil:
		return json.Marshal(r.Failure)
	case r.Record != nil:
		return json.Marshal(r.Record)
	default:
		return nil, fmt.Errorf("empty forecast result")
	}
}

// DataMissingError means the upstream answered but had nothing for the key.
type DataMissingError struct {
	Source string
	Key    string
}

func (e *DataMissingError) Error() string {
	return fmt.Sprintf("%s returned no data for %s", e.Source, e.Key)
}

// errorKind maps a pipeline error onto the contract taxonomy.
func errorKind(err error) string {
	var missing *DataMissingError
	switch {
	case errors.As(err, &missing):
		return ErrKindDataMissing
	case errors.Is(err, reliability.ErrUpstreamExhausted):
		return ErrKindUpstreamExhausted
	default:
		return ErrKindAPIException
	}
}
