package alphavantage

import "fmt"

// ErrRateLimitExceeded is returned when the daily budget is spent or the API answers
// with a throttling note.
type ErrRateLimitExceeded struct{}

func (e ErrRateLimitExceeded) Error() string {
	return "alpha vantage rate limit exceeded"
}

// ErrInvalidAPIKey is returned when the API rejects the key.
type ErrInvalidAPIKey struct{}

func (e ErrInvalidAPIKey) Error() string {
	return "alpha vantage rejected the API key as invalid"
}

// ErrSymbolNotFound is returned when the API has no data for a symbol.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("alpha vantage has no data for symbol %s", e.Symbol)
}

// ErrAPI carries any other in-body error message.
type ErrAPI struct {
	Message string
}

func (e ErrAPI) Error() string {
	return "alpha vantage error: " + e.Message
}
