// Package domain holds the pool-reserve shapes the sandwich detector
// reasons over; the Opportunity it produces lives in business/opportunity/domain.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PoolInfo is a cached snapshot of a UniswapV2-shaped pool's reserves,
// oriented to whatever tokenIn/tokenOut pair it was read for.
type PoolInfo struct {
	Pool        common.Address
	Token0      common.Address
	Token1      common.Address
	Reserve0    *big.Int
	Reserve1    *big.Int
	FeeBps      int
	LastUpdated time.Time
}

// IsStale reports whether the snapshot is older than ttl.
func (p PoolInfo) IsStale(ttl time.Duration) bool {
	return time.Since(p.LastUpdated) > ttl
}

// ReserveFor returns (reserveIn, reserveOut) oriented to tokenIn.
func (p PoolInfo) ReserveFor(tokenIn common.Address) (*big.Int, *big.Int) {
	if tokenIn == p.Token0 {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}
