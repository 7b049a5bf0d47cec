package app

import "time"

// Config tunes the liquidation detector's scan cadence and Aave-style
// liquidation parameters.
type Config struct {
	ScanInterval        time.Duration
	CloseFactor         float64 // fraction of a reserve's debt liquidatable per call
	LiquidationBonusPct float64 // collateral bonus paid to the liquidator
	MinDebtToCoverUSD   float64 // skip positions whose largest debt reserve is dust
	LegGasLimit         uint64  // gas for a single liquidationCall
}

// DefaultConfig returns the 4.5.2 liquidation defaults: Aave's 50%
// close factor and 5% liquidation bonus.
func DefaultConfig() Config {
	return Config{
		ScanInterval:        12 * time.Second,
		CloseFactor:         0.5,
		LiquidationBonusPct: 5.0,
		MinDebtToCoverUSD:   10,
		LegGasLimit:         400_000,
	}
}
