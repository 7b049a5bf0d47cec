package app

import "time"

// Config tunes the execution engine's concurrency cap, timing, and risk
// thresholds.
type Config struct {
	MaxConcurrentTrades int
	ExecutionDeadline   time.Duration
	FillPollInterval    time.Duration
	MaxLatencyMs        float64
	HighRiskNotionalUSD     float64
	CriticalRiskNotionalUSD float64
}

// DefaultConfig returns the 4.9 defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentTrades:     5,
		ExecutionDeadline:       10 * time.Second,
		FillPollInterval:        100 * time.Millisecond,
		MaxLatencyMs:            500,
		HighRiskNotionalUSD:     1_000,
		CriticalRiskNotionalUSD: 10_000,
	}
}
