// Package domain holds the price data shapes C3 produces and validates.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Source tags where a PriceData point came from.
type Source string

const (
	SourceChainlink  Source = "chainlink"
	SourceUniswapV2  Source = "uniswap-v2"
	SourceUniswapV3  Source = "uniswap-v3"
	SourceSushiswap  Source = "sushiswap"
	SourceBinance    Source = "binance"
	SourceCoinGecko  Source = "coingecko"
	SourceManual     Source = "manual"
	SourceAggregated Source = "aggregated"
)

// PriceData is a single price observation for a token, carrying enough
// metadata for the aggregator to validate, combine, and cache it.
type PriceData struct {
	Token       common.Address
	PriceUSD    decimal.Decimal
	PriceETH    decimal.Decimal
	Timestamp   time.Time
	Source      Source
	Confidence  float64 // 0.0-1.0
	Change24h   *float64
	Volume24hUSD *decimal.Decimal
}

// NewPriceData builds a PriceData observed now with full confidence.
func NewPriceData(token common.Address, priceUSD, priceETH decimal.Decimal, source Source) PriceData {
	return PriceData{
		Token:      token,
		PriceUSD:   priceUSD,
		PriceETH:   priceETH,
		Timestamp:  time.Now(),
		Source:     source,
		Confidence: 1.0,
	}
}

// IsStale reports whether this price is older than maxAge.
func (p PriceData) IsStale(maxAge time.Duration) bool {
	return time.Since(p.Timestamp) > maxAge
}

// Validate rejects non-positive prices, future timestamps, and confidence
// scores outside [0,1].
func Validate(p PriceData) error {
	if p.PriceUSD.Sign() <= 0 {
		return ErrNonPositivePrice
	}
	if p.Timestamp.After(time.Now().Add(time.Minute)) {
		return ErrFutureTimestamp
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return ErrInvalidConfidence
	}
	return nil
}

// DeviatesBeyond reports whether a and b differ by more than maxDeviationPct
// (expressed as e.g. 5.0 for 5%) of a's USD price.
func DeviatesBeyond(a, b PriceData, maxDeviationPct float64) bool {
	if a.PriceUSD.IsZero() {
		return false
	}
	diff := a.PriceUSD.Sub(b.PriceUSD).Abs()
	pct := diff.Div(a.PriceUSD).Mul(decimal.NewFromInt(100))
	return pct.GreaterThan(decimal.NewFromFloat(maxDeviationPct))
}
