package app

import "math/big"

// Config tunes the sandwich detector's sizing and rejection thresholds,
// all taken directly from the 4.5.1 sandwich formulas.
type Config struct {
	MinPriceImpactPct     float64 // skip victims below this price impact
	HighImpactThresholdPct float64 // above this, size more conservatively
	HighImpactSizeFraction float64 // fraction of victim amount when impact is high
	LowImpactSizeFraction  float64 // fraction of victim amount otherwise
	ReserveFractionDivisor int64   // cap size at reserveIn / this divisor
	ExpectedProfitFactor   float64 // fraction of size*impact captured as profit
	LegGasLimit            uint64  // gas per leg (frontrun or backrun)
	MinProfitWei           *big.Int
	MinProfitPct           float64 // net profit / size
	MinSuccessProbability  float64
	FrontrunGasPercentile  float64
	BackrunGasPercentile   float64
	GasWindowSize          int
	DeadlineSeconds        int64
	LiquidityThresholdWei  *big.Int // reserveIn above this counts as deep liquidity
}

// DefaultConfig returns the formulas' literal defaults.
func DefaultConfig() Config {
	return Config{
		MinPriceImpactPct:      0.5,
		HighImpactThresholdPct: 2.0,
		HighImpactSizeFraction: 0.3,
		LowImpactSizeFraction:  0.5,
		ReserveFractionDivisor: 20,
		ExpectedProfitFactor:   0.7,
		LegGasLimit:            300_000,
		MinProfitWei:           big.NewInt(1e16), // 0.01 ETH
		MinProfitPct:           0.001,            // 0.1%
		MinSuccessProbability:  0.4,
		FrontrunGasPercentile:  80,
		BackrunGasPercentile:   70,
		GasWindowSize:          256,
		DeadlineSeconds:        120,
		LiquidityThresholdWei:  new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18)), // 100 ETH-equivalent
	}
}
