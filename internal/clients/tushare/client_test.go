package tushare

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(t *testing.T, req Request) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(t, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestCall_IncomeSuccess(t *testing.T) {
	server := newTestServer(t, func(t *testing.T, req Request) (int, string) {
		assert.Equal(t, "income", req.APIName)
		assert.Equal(t, "secret-token", req.Token)
		assert.Equal(t, "600519.SH", req.Params["ts_code"])
		assert.Equal(t, "20240930", req.Params["period"])
		assert.Equal(t, IncomeFields, req.Params["fields"])
		return http.StatusOK, `{"code":0,"msg":"","data":{"fields":["total_revenue","n_income","total_mv","end_date"],"items":[[100000000000,20000000000,2000000000000,"20240930"]]}}`
	})
	defer server.Close()

	client := NewClient(server.URL, "secret-token", nil, zerolog.Nop())
	resp, err := client.Call(context.Background(), APIIncome, IncomeParams("600519.SH", "20240930"))
	require.NoError(t, err)

	income, ok := ParseIncome(resp)
	require.True(t, ok)
	assert.Equal(t, 1.0e11, income.TotalRevenue)
	assert.Equal(t, 2.0e10, income.NetIncome)
	assert.Equal(t, 2.0e12, income.TotalMarketValue)
	assert.Equal(t, "20240930", income.EndDate)
}

func TestCall_NonZeroCode(t *testing.T) {
	server := newTestServer(t, func(t *testing.T, req Request) (int, string) {
		return http.StatusOK, `{"code":40101,"msg":"token invalid","data":null}`
	})
	defer server.Close()

	client := NewClient(server.URL, "bad", nil, zerolog.Nop())
	_, err := client.Call(context.Background(), APIIncome, IncomeParams("600519.SH", "20240930"))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 40101, apiErr.Code)
	assert.Contains(t, err.Error(), "token invalid")
}

func TestCall_HTTPStatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		hint   string
	}{
		{"forbidden", http.StatusForbidden, "authentication failed"},
		{"rate limited", http.StatusTooManyRequests, "request rate exceeded"},
		{"server error", http.StatusBadGateway, "unexpected HTTP status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, func(t *testing.T, req Request) (int, string) {
				return tt.status, `upstream says no`
			})
			defer server.Close()

			client := NewClient(server.URL, "tok", nil, zerolog.Nop())
			_, err := client.Call(context.Background(), APIDaily, DailyParams("600519.SH", "20240831", "20240930"))
			require.Error(t, err)

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Contains(t, err.Error(), tt.hint)
		})
	}
}

func TestCall_MalformedJSON(t *testing.T) {
	server := newTestServer(t, func(t *testing.T, req Request) (int, string) {
		return http.StatusOK, `<html>gateway error</html>`
	})
	defer server.Close()

	client := NewClient(server.URL, "tok", nil, zerolog.Nop())
	_, err := client.Call(context.Background(), APIIncome, IncomeParams("600519.SH", "20240930"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestCall_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "tok", nil, zerolog.Nop())
	_, err := client.Call(context.Background(), APIIncome, IncomeParams("600519.SH", "20240930"))
	assert.Error(t, err)
}

func TestResponse_EmptyItems(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"code":0,"data":{"fields":["total_revenue"],"items":[]}}`), &resp))

	assert.True(t, resp.Empty())
	_, ok := ParseIncome(&resp)
	assert.False(t, ok)

	var nilData Response
	assert.True(t, nilData.Empty())
}

func TestTable_PositionalFallback(t *testing.T) {
	resp := &Response{Data: &Data{Items: [][]any{
		{"600519.SH", "20240930", json.Number("1800.5")},
		{"600519.SH", "20240927", json.Number("1790")},
	}}}

	price, tradeDate, ok := ParseLatestClose(resp)
	require.True(t, ok)
	assert.Equal(t, 1800.5, price)
	assert.Equal(t, "20240930", tradeDate)
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		list string
		want []string
	}{
		{"income list", IncomeFields, []string{"total_revenue", "n_income", "total_mv", "end_date"}},
		{"daily list", DailyFields, []string{"ts_code", "trade_date", "close"}},
		{"spacing and empties", " ts_code , ,close,", []string{"ts_code", "close"}},
		{"empty", "", nil},
		{"only commas", ",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitFields(tt.list))
		})
	}
}

func TestTable_PositionalFallbackWithSpacedFields(t *testing.T) {
	resp := &Response{Data: &Data{Items: [][]any{{"000001.SZ", "20240930", json.Number("10.5")}}}}

	table := resp.Table("ts_code, trade_date , close")
	assert.Equal(t, "20240930", table.String(0, "trade_date"))
	assert.Equal(t, 10.5, table.Float(0, "close", 0))
}

func TestTable_TolerantCells(t *testing.T) {
	resp := &Response{Data: &Data{
		Fields: []string{"total_revenue", "n_income", "total_mv", "end_date"},
		Items:  [][]any{{nil, "garbage", 12.5, "20240930"}},
	}}

	income, ok := ParseIncome(resp)
	require.True(t, ok)
	assert.Equal(t, 0.0, income.TotalRevenue)
	assert.Equal(t, 0.0, income.NetIncome)
	assert.Equal(t, 12.5, income.TotalMarketValue)

	table := resp.Table(IncomeFields)
	assert.Equal(t, "", table.String(0, "unknown_field"))
	assert.Equal(t, "", table.String(5, "end_date"))
}

func TestNormalizeTSCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"600519", "600519.SH"},
		{"000001", "000001.SZ"},
		{"300750", "300750.SZ"},
		{"830799", "830799.BJ"},
		{"600519.sh", "600519.SH"},
		{" 000001.SZ ", "000001.SZ"},
		{"12345", "12345"},
		{"1A2B3C", "1A2B3C"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTSCode(tt.in))
		})
	}
}
