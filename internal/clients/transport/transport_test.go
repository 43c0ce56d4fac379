package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_Defaults(t *testing.T) {
	client, err := NewHTTPClient(Options{})
	require.NoError(t, err)

	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, DefaultReadTimeout, tr.ResponseHeaderTimeout)
	assert.Equal(t, DefaultConnectTimeout+DefaultReadTimeout, client.Timeout)
	assert.Nil(t, tr.Proxy)
}

func TestNewHTTPClient_Proxy(t *testing.T) {
	client, err := NewHTTPClient(Options{ProxyURL: "http://127.0.0.1:7890"})
	require.NoError(t, err)

	tr := client.Transport.(*http.Transport)
	require.NotNil(t, tr.Proxy)

	req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	proxyURL, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7890", proxyURL.Host)
}

func TestNewHTTPClient_InvalidProxy(t *testing.T) {
	_, err := NewHTTPClient(Options{ProxyURL: "not a url"})
	assert.Error(t, err)
}
