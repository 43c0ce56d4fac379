package tushare

import (
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx response from the gateway.
type HTTPError struct {
	APIName    string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("tushare %s: %s (status %d): %s", e.APIName, e.hint(), e.StatusCode, e.Body)
}

func (e *HTTPError) hint() string {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication failed, check the token"
	case http.StatusTooManyRequests:
		return "request rate exceeded"
	default:
		return "unexpected HTTP status"
	}
}

// APIError is a well-formed envelope carrying a non-zero code.
type APIError struct {
	APIName string
	Code    int
	Msg     string
}

func (e *APIError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("tushare %s returned code %d: %s", e.APIName, e.Code, msg)
}
