// Package tushare provides a client for Tushare-protocol financial data gateways.
// Every call is a JSON POST of {api_name, token, params} answered by a
// {code, msg, data:{fields, items}} envelope.
package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aristath/forecast/internal/clients/transport"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public Tushare Pro endpoint.
	DefaultBaseURL = "http://api.tushare.pro"

	maxErrorBody = 512
)

// Caller issues a single API call. Implemented by Client and RetryingClient.
type Caller interface {
	Call(ctx context.Context, apiName string, params map[string]string) (*Response, error)
}

// Client is the single-shot gateway. It never retries.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a gateway client. A nil httpClient gets the default 15s/15s transport.
func NewClient(baseURL, token string, httpClient *http.Client, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient, _ = transport.NewHTTPClient(transport.Options{})
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		log:        log.With().Str("client", "tushare").Logger(),
	}
}

// Call posts one request and validates the envelope. Non-2xx statuses, malformed JSON and
// non-zero codes are all returned as errors.
func (c *Client) Call(ctx context.Context, apiName string, params map[string]string) (*Response, error) {
	body, err := json.Marshal(Request{APIName: apiName, Token: c.token, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", apiName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", transport.BrowserUserAgent)

	c.log.Debug().
		Str("api_name", apiName).
		Str("url", c.baseURL).
		Msg("Tushare request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", apiName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{APIName: apiName, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var out Response
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", apiName, err)
	}

	if out.Code != 0 {
		return nil, &APIError{APIName: apiName, Code: out.Code, Msg: out.Msg}
	}

	c.log.Debug().
		Str("api_name", apiName).
		Int("rows", out.Len()).
		Dur("duration_ms", time.Since(start)).
		Msg("Tushare response")

	return &out, nil
}
