// Package domain holds the triangular-arbitrage path shape the detector
// quotes; the Opportunity it produces lives in business/opportunity/domain.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Path is one configured triangular route: swap a base amount of A into
// C, a base amount of B into C, then split the resulting C back into A
// and B and compare the total return against 2x the base amount.
type Path struct {
	AssetA        common.Address
	AssetB        common.Address
	AssetC        common.Address
	BaseAmountWei *big.Int
}
