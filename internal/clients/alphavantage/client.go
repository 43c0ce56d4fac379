// Package alphavantage provides a client for the Alpha Vantage market data API.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aristath/forecast/internal/clients/transport"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"

	// DailyRequestBudget is the free-tier request allowance per UTC day.
	DailyRequestBudget = 25

	// DefaultRequestsPerMinute is the free-tier burst allowance.
	DefaultRequestsPerMinute = 5
)

// Client talks to Alpha Vantage with a daily request budget and per-minute pacing.
// Every lookup is a network request; nothing is served from a cache.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	limiter    *rate.Limiter

	mu           sync.Mutex
	requestCount int
	resetAt      time.Time
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRequestsPerMinute paces requests. Zero or less disables pacing.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		c.limiter = newLimiter(n)
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		log:     log.With().Str("client", "alphavantage").Logger(),
		resetAt: nextMidnightUTC(),
		limiter: newLimiter(DefaultRequestsPerMinute),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient, _ = transport.NewHTTPClient(transport.Options{})
	}
	return c
}

// GetRemainingRequests returns the requests left in today's budget.
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	return DailyRequestBudget - c.requestCount
}

// checkRateLimit consumes one request from the budget.
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()

	if c.requestCount >= DailyRequestBudget {
		return ErrRateLimitExceeded{}
	}
	c.requestCount++
	return nil
}

func (c *Client) maybeResetLocked() {
	if !time.Now().Before(c.resetAt) {
		c.requestCount = 0
		c.resetAt = nextMidnightUTC()
	}
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}

// GetCompanyOverview fetches OVERVIEW. A response without a Symbol is ErrSymbolNotFound.
func (c *Client) GetCompanyOverview(ctx context.Context, symbol string) (*CompanyOverview, error) {
	body, err := c.doRequest(ctx, "OVERVIEW", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	overview, err := parseCompanyOverview(body)
	if err != nil {
		return nil, err
	}
	if overview.Symbol == "" {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}
	if overview.Currency != "" && !strings.EqualFold(overview.Currency, "USD") {
		c.log.Warn().Str("symbol", symbol).Str("currency", overview.Currency).Msg("Overview not reported in USD")
	}
	c.log.Debug().Str("symbol", symbol).Str("name", overview.Name).Msg("Fetched company overview")
	return overview, nil
}

// GetGlobalQuote fetches GLOBAL_QUOTE. Check HasPrice before using Price.
func (c *Client) GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	body, err := c.doRequest(ctx, "GLOBAL_QUOTE", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	quote, err := parseGlobalQuote(body)
	if err != nil {
		return nil, err
	}
	if quote.HasPrice && !quote.LatestTradingDay.IsZero() {
		c.log.Debug().
			Str("symbol", symbol).
			Float64("price", quote.Price).
			Str("trading_day", quote.LatestTradingDay.Format("2006-01-02")).
			Msg("Fetched quote")
	}
	return quote, nil
}

// GetExchangeRate fetches CURRENCY_EXCHANGE_RATE.
func (c *Client) GetExchangeRate(ctx context.Context, fromCurrency, toCurrency string) (*ExchangeRate, error) {
	params := map[string]string{"from_currency": fromCurrency, "to_currency": toCurrency}
	body, err := c.doRequest(ctx, "CURRENCY_EXCHANGE_RATE", params)
	if err != nil {
		return nil, err
	}
	rate, err := parseExchangeRate(body)
	if err != nil {
		return nil, err
	}
	if rate.ExchangeRate <= 0 {
		return nil, fmt.Errorf("non-positive exchange rate for %s->%s", fromCurrency, toCurrency)
	}
	if !rate.LastRefreshed.IsZero() && time.Since(rate.LastRefreshed) > 72*time.Hour {
		c.log.Warn().
			Str("pair", fromCurrency+":"+toCurrency).
			Time("last_refreshed", rate.LastRefreshed).
			Msg("Exchange rate has not been refreshed recently")
	}
	return rate, nil
}

// Name identifies the provider in logs.
func (c *Client) Name() string {
	return "alphavantage"
}

// GetRate adapts GetExchangeRate to a plain rate lookup.
func (c *Client) GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	rate, err := c.GetExchangeRate(ctx, fromCurrency, toCurrency)
	if err != nil {
		return 0, err
	}
	return rate.ExchangeRate, nil
}

func (c *Client) doRequest(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s request not sent: %w", function, err)
	}

	q := url.Values{}
	q.Set("function", function)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", transport.BrowserUserAgent)

	c.log.Debug().Str("function", function).Interface("params", params).Msg("Alpha Vantage request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", function, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", function, resp.StatusCode)
	}
	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkAPIError detects errors reported inside a 200 response body.
func (c *Client) checkAPIError(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if bytes.Contains(trimmed, []byte("Thank you for using Alpha Vantage")) {
		return ErrRateLimitExceeded{}
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}

	message := func(key string) string {
		var s string
		_ = json.Unmarshal(fields[key], &s)
		return s
	}

	if _, ok := fields["Note"]; ok {
		return ErrRateLimitExceeded{}
	}
	if _, ok := fields["Information"]; ok {
		info := message("Information")
		if strings.Contains(strings.ToLower(info), "api key") && strings.Contains(strings.ToLower(info), "invalid") {
			return ErrInvalidAPIKey{}
		}
		return ErrRateLimitExceeded{}
	}
	if _, ok := fields["Error Message"]; ok {
		msg := message("Error Message")
		if strings.Contains(strings.ToLower(msg), "apikey") {
			return ErrInvalidAPIKey{}
		}
		return ErrAPI{Message: msg}
	}
	return nil
}
