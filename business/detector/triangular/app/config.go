package app

import (
	"time"

	"github.com/fd1az/mev-searcher/business/detector/triangular/domain"
)

// Config tunes the triangular arbitrage detector's scan cadence, the
// (A,B,C) paths it watches, and its 4.5.4 cost model.
type Config struct {
	Paths               []domain.Path
	ScanInterval        time.Duration
	SlippageBps         int
	MinProfitPct        float64
	FlashLoanPremiumBps int     // Aave flash-loan premium, 0.09% default
	GasLimit            uint64  // fixed per-bundle gas estimate
	VolatilityPct       float64 // fed into C4's dynamic aggregator threshold
}

// DefaultConfig returns the 4.5.4 defaults. Paths is empty; the module
// wiring populates it from configuration.
func DefaultConfig() Config {
	return Config{
		ScanInterval:        15 * time.Second,
		SlippageBps:         50,
		MinProfitPct:        0.5,
		FlashLoanPremiumBps: 9,
		GasLimit:            500_000,
		VolatilityPct:       2.0,
	}
}
