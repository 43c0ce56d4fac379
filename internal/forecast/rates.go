package forecast

import (
	"context"
	"encoding/json"

	"github.com/aristath/forecast/internal/clientdata"
	"github.com/rs/zerolog"
)

// DefaultUSDCNYRate is used when no provider or cache can supply a rate.
const DefaultUSDCNYRate = 7.25

// RateProvider supplies live exchange rates.
type RateProvider interface {
	Name() string
	GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error)
}

// RateQuote is a resolved rate and where it came from.
type RateQuote struct {
	Rate   float64
	Source string
}

// Rate sources outside the provider list.
const (
	RateSourceCache   = "stale_cache"
	RateSourceDefault = "default"
)

type cachedRate struct {
	Rate float64 `json:"rate"`
}

// RateChain tries providers in order, then the last cached rate, then a fixed default.
// It never fails.
type RateChain struct {
	providers []RateProvider
	cache     *clientdata.Repository
	fallback  float64
	log       zerolog.Logger
}

// NewRateChain creates a chain. cache may be nil.
func NewRateChain(providers []RateProvider, cache *clientdata.Repository, fallback float64, log zerolog.Logger) *RateChain {
	if fallback <= 0 {
		fallback = DefaultUSDCNYRate
	}
	return &RateChain{
		providers: providers,
		cache:     cache,
		fallback:  fallback,
		log:       log.With().Str("component", "rate_chain").Logger(),
	}
}

// Resolve returns the first positive rate in the chain.
func (c *RateChain) Resolve(ctx context.Context, fromCurrency, toCurrency string) RateQuote {
	pair := fromCurrency + ":" + toCurrency

	for _, p := range c.providers {
		rate, err := p.GetRate(ctx, fromCurrency, toCurrency)
		if err == nil && rate > 0 {
			c.remember(pair, rate)
			return RateQuote{Rate: rate, Source: p.Name()}
		}
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("pair", pair).Msg("Rate provider failed")
	}

	if c.cache != nil {
		if data, err := c.cache.Get(clientdata.TableExchangeRate, pair); err == nil && data != nil {
			var cached cachedRate
			if json.Unmarshal(data, &cached) == nil && cached.Rate > 0 {
				c.log.Warn().Str("pair", pair).Float64("rate", cached.Rate).Msg("Using stale cached rate")
				return RateQuote{Rate: cached.Rate, Source: RateSourceCache}
			}
		}
	}

	c.log.Warn().Str("pair", pair).Float64("rate", c.fallback).Msg("Using default rate")
	return RateQuote{Rate: c.fallback, Source: RateSourceDefault}
}

func (c *RateChain) remember(pair string, rate float64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Store(clientdata.TableExchangeRate, pair, cachedRate{Rate: rate}, clientdata.TTLExchangeRate); err != nil {
		c.log.Warn().Err(err).Str("pair", pair).Msg("Failed to cache rate")
	}
}
