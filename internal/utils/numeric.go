package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseFloat parses an upstream numeric field, returning def for anything that is not a
// finite number. Providers send "None", "null", "-" or "" for missing values.
func ParseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "null", "None", "none", "-", ".", "N/A":
		return def
	}
	s = strings.TrimSuffix(s, "%")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Round2 rounds to 2 decimal places, half away from zero, on the shortest decimal
// representation of x (so 2.675 rounds to 2.68, not 2.67).
func Round2(x float64) float64 {
	return RoundPlaces(x, 2)
}

// RoundPlaces rounds x to the given number of decimal places, half away from zero.
func RoundPlaces(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return f
}
