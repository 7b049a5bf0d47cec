// Package mocksim implements the Simulator port without a relay, for
// API_MODE=mock: it manufactures a plausible SimulationResult from the
// bundle's own gas estimate and a configured success rate, the same
// shape a relay's eth_callBundle-style simulation would return.
package mocksim

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/fd1az/mev-searcher/business/bundle/domain"
)

var failureMessages = []string{
	"mock simulation: insufficient liquidity",
	"mock simulation: transaction would revert",
	"mock simulation: gas estimation failed",
	"mock simulation: slippage too high",
}

// Client is a deterministic-shape, randomized-outcome stand-in for a
// relay's bundle simulation endpoint.
type Client struct {
	successRate float64
	gasPriceWei int64
	rng         *rand.Rand
}

// New constructs a mock Client. successRate and gasPriceWei come from
// configuration.
func New(successRate float64, gasPriceWei int64) *Client {
	return &Client{
		successRate: successRate,
		gasPriceWei: gasPriceWei,
		rng:         rand.New(rand.NewSource(1)),
	}
}

// Simulate never calls out over the network: it derives gas_cost from
// bundle.GasEstimate * the configured mock gas price, clamps net_profit at
// zero, and rolls a random price impact and pass/fail outcome.
func (c *Client) Simulate(ctx context.Context, bundle *domain.Bundle) (*domain.SimulationResult, error) {
	if c.rng.Float64() >= c.successRate {
		msg := failureMessages[c.rng.Intn(len(failureMessages))]
		return &domain.SimulationResult{
			Success:      false,
			Profit:       big.NewInt(0),
			GasUsed:      0,
			GasCost:      big.NewInt(0),
			NetProfit:    big.NewInt(0),
			PriceImpact:  0,
			ErrorMessage: msg,
			Traces:       []string{fmt.Sprintf("[mock] bundle %s simulation failed", bundle.ID)},
		}, nil
	}

	gasCost := new(big.Int).Mul(big.NewInt(int64(bundle.GasEstimate)), big.NewInt(c.gasPriceWei))
	profit := bundle.ExpectedProfitWei
	if profit == nil {
		profit = big.NewInt(0)
	}
	netProfit := new(big.Int).Sub(profit, gasCost)
	if netProfit.Sign() < 0 {
		netProfit = big.NewInt(0)
	}

	return &domain.SimulationResult{
		Success:     true,
		Profit:      profit,
		GasUsed:     bundle.GasEstimate,
		GasCost:     gasCost,
		NetProfit:   netProfit,
		PriceImpact: c.rng.Float64()*0.049 + 0.001,
		Traces: []string{
			fmt.Sprintf("[mock] bundle %s simulation trace", bundle.ID),
			"[mock] transaction 1: dex swap successful",
			"[mock] transaction 2: arbitrage execution successful",
		},
	}, nil
}
