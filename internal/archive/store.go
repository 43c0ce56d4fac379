// Package archive persists built forecast payloads for auditing. Writes are best effort
// from the caller's point of view; stores report errors and callers log them.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the creation-time suffix of archive keys.
const TimestampLayout = "20060102_150405"

// Entry is one archived payload.
type Entry struct {
	StockCode  string
	ReportDate string
	CreatedAt  time.Time
	Payload    []byte
}

// Key returns "<code>_<reportDate>_<yyyyMMdd_HHmmss>.json" with unsafe characters replaced.
func (e Entry) Key() string {
	return fmt.Sprintf("%s_%s_%s.json",
		sanitize(e.StockCode), sanitize(e.ReportDate), e.CreatedAt.Format(TimestampLayout))
}

func sanitize(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// Store persists archive entries.
type Store interface {
	Put(ctx context.Context, e Entry) error
}

// MultiStore writes to every store and joins the failures.
type MultiStore []Store

// Put writes e to all stores, continuing past failures.
func (m MultiStore) Put(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Put(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
