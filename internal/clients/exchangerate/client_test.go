package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate_SameCurrency(t *testing.T) {
	client := NewClient("http://invalid.local", nil, zerolog.Nop())
	rate, err := client.GetRate(context.Background(), "usd", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestGetRate_FetchesEveryCall(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/USD", r.URL.Path)
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"CNY":7.21,"EUR":0.92}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	rate, err := client.GetRate(context.Background(), "USD", "CNY")
	require.NoError(t, err)
	assert.Equal(t, 7.21, rate)

	rate, err = client.GetRate(context.Background(), "USD", "CNY")
	require.NoError(t, err)
	assert.Equal(t, 7.21, rate)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetRate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		errMsg  string
	}{
		{
			name:    "status",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			errMsg:  "status 500",
		},
		{
			name:    "malformed",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"rates":`)) },
			errMsg:  "failed to parse",
		},
		{
			name:    "missing currency",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`)) },
			errMsg:  "rate not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, nil, zerolog.Nop())
			_, err := client.GetRate(context.Background(), "USD", "CNY")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
