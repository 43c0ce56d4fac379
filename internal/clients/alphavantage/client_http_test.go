package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overviewBody = `{
	"Symbol": "AAPL",
	"Name": "Apple Inc",
	"Currency": "USD",
	"PERatio": "29.5",
	"EPS": "6.43",
	"RevenueTTM": "385600000000",
	"GrossProfitTTM": "170800000000",
	"50DayMovingAverage": "189.50"
}`

// fakeAPI routes by the function query parameter and counts calls.
func fakeAPI(t *testing.T, bodies map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))

		body, ok := bodies[r.URL.Query().Get("function")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestGetCompanyOverview(t *testing.T) {
	server, calls := fakeAPI(t, map[string]string{"OVERVIEW": overviewBody})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL))

	overview, err := client.GetCompanyOverview(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", overview.Symbol)
	require.NotNil(t, overview.EPS)
	assert.Equal(t, 6.43, *overview.EPS)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, DailyRequestBudget-1, client.GetRemainingRequests())
}

func TestGetCompanyOverview_UnknownSymbol(t *testing.T) {
	server, _ := fakeAPI(t, map[string]string{"OVERVIEW": `{}`})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL))

	_, err := client.GetCompanyOverview(context.Background(), "ZZZZ")
	require.Error(t, err)

	var notFound ErrSymbolNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "ZZZZ", notFound.Symbol)
}

func TestRepeatedLookupsAlwaysHitNetwork(t *testing.T) {
	server, calls := fakeAPI(t, map[string]string{
		"OVERVIEW":     overviewBody,
		"GLOBAL_QUOTE": `{"Global Quote": {"01. symbol": "NVDA", "05. price": "120.00"}}`,
	})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL), WithRequestsPerMinute(0))

	first, err := client.GetGlobalQuote(context.Background(), "NVDA")
	require.NoError(t, err)
	second, err := client.GetGlobalQuote(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	_, err = client.GetCompanyOverview(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = client.GetCompanyOverview(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
	assert.Equal(t, DailyRequestBudget-4, client.GetRemainingRequests())
}

func TestGetGlobalQuote(t *testing.T) {
	server, _ := fakeAPI(t, map[string]string{
		"GLOBAL_QUOTE": `{"Global Quote": {"01. symbol": "AAPL", "05. price": "191.20"}}`,
	})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL))

	quote, err := client.GetGlobalQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, quote.HasPrice)
	assert.Equal(t, 191.2, quote.Price)
}

func TestGetExchangeRate(t *testing.T) {
	server, _ := fakeAPI(t, map[string]string{
		"CURRENCY_EXCHANGE_RATE": `{"Realtime Currency Exchange Rate": {"1. From_Currency Code": "USD", "3. To_Currency Code": "CNY", "5. Exchange Rate": "7.2345"}}`,
	})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL))

	rate, err := client.GetRate(context.Background(), "USD", "CNY")
	require.NoError(t, err)
	assert.Equal(t, 7.2345, rate)
}

func TestGetExchangeRate_Throttled(t *testing.T) {
	server, _ := fakeAPI(t, map[string]string{
		"CURRENCY_EXCHANGE_RATE": `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
	})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL))

	_, err := client.GetRate(context.Background(), "USD", "CNY")
	assert.IsType(t, ErrRateLimitExceeded{}, err)
}

func TestDoRequest_BudgetExhausted(t *testing.T) {
	server, calls := fakeAPI(t, map[string]string{"GLOBAL_QUOTE": `{"Global Quote": {}}`})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL))

	for i := 0; i < DailyRequestBudget; i++ {
		require.NoError(t, client.checkRateLimit())
	}

	_, err := client.GetGlobalQuote(context.Background(), "AAPL")
	assert.IsType(t, ErrRateLimitExceeded{}, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestDoRequest_HTTPStatus(t *testing.T) {
	server, _ := fakeAPI(t, map[string]string{})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL))

	_, err := client.GetGlobalQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestRequestPacing(t *testing.T) {
	server, calls := fakeAPI(t, map[string]string{"GLOBAL_QUOTE": `{"Global Quote": {"01. symbol": "AAPL", "05. price": "190.00"}}`})
	client := NewClient("secret", zerolog.Nop(), WithBaseURL(server.URL), WithRequestsPerMinute(1))

	_, err := client.GetGlobalQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GetGlobalQuote(ctx, "MSFT")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
