// Package transport builds the HTTP clients used by upstream market-data clients.
package transport

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultConnectTimeout bounds TCP connection establishment.
	DefaultConnectTimeout = 15 * time.Second

	// DefaultReadTimeout bounds the wait for response headers once connected.
	DefaultReadTimeout = 15 * time.Second

	// BrowserUserAgent is sent to gateways that reject non-browser clients.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
)

// Options configures an upstream HTTP client
type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ProxyURL       string // optional, e.g. "http://127.0.0.1:7890"
}

// NewHTTPClient creates an HTTP client with separate connect and read timeouts and an
// optional HTTP proxy. Zero timeouts fall back to the 15s defaults.
func NewHTTPClient(opts Options) (*http.Client, error) {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}

	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if proxy.Scheme == "" || proxy.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q: scheme and host required", opts.ProxyURL)
		}
		tr.Proxy = http.ProxyURL(proxy)
	}

	return &http.Client{
		Transport: tr,
		// Upper bound for a whole exchange: connect + headers + body.
		Timeout: connectTimeout + readTimeout,
	}, nil
}
