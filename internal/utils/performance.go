package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowQueryThreshold is the duration after which a forecast query is logged as slow.
// A single upstream chain can take up to ~48s (3 attempts x 15s + 2 x 1s delay).
const SlowQueryThreshold = 20 * time.Second

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func (s *Service) Forecast(...) {
//	    defer utils.OperationTimer("forecast", log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > SlowQueryThreshold {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
	}
}
