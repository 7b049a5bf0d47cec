package app

import "time"

// Config tunes the micro-arbitrage detector's poll cadence, the symbols
// it watches, and its 4.5.3 thresholds.
type Config struct {
	Symbols         []string
	ScanInterval    time.Duration
	MinProfitPct    float64 // minimum fee-adjusted spread to consider
	OpportunityRate float64 // Bernoulli gate probability in [0,1]
	MinAmountUSD    float64
	MaxAmountUSD    float64
}

// DefaultConfig returns the 4.5.3 defaults.
func DefaultConfig() Config {
	return Config{
		Symbols:         []string{"ETH/USDC", "BTC/USDC"},
		ScanInterval:    5 * time.Second,
		MinProfitPct:    0.05,
		OpportunityRate: 0.3,
		MinAmountUSD:    100,
		MaxAmountUSD:    5_000,
	}
}
