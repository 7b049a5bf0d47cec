package app

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config tunes the bundle builder's fee derivation, flash-loan usage, and
// the protocol addresses its legs target.
type Config struct {
	Deadline                time.Duration
	MaxGasPriceWei          *big.Int
	UseFlashLoanSandwich    bool
	UseFlashLoanLiquidation bool
	FlashLoanPool           common.Address
	FlashLoanReceiver       common.Address
	SandwichGasLimit        uint64
	LiquidationGasLimit     uint64

	// RouterAddress is the Uniswap V2 style router the sandwich legs swap
	// through and the liquidation builder sells seized collateral
	// through.
	RouterAddress common.Address
	// AavePoolAddress is the Aave V3 Pool liquidationCall/flashLoanSimple
	// target; currently the only liquidation protocol wired end to end.
	AavePoolAddress common.Address
}

// DefaultConfig returns conservative defaults; callers override from
// configuration.
func DefaultConfig() Config {
	return Config{
		Deadline:                120 * time.Second,
		MaxGasPriceWei:          big.NewInt(200_000_000_000), // 200 gwei
		UseFlashLoanSandwich:    false,
		UseFlashLoanLiquidation: true,
		SandwichGasLimit:        600_000,
		LiquidationGasLimit:     800_000,
	}
}
