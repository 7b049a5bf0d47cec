package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// LiquidationReceiverParams is the argument layout for the flash-loan
// receiver's executeLiquidation entry point.
type LiquidationReceiverParams struct {
	LiqTarget       common.Address
	LiqCalldata     []byte
	SellTarget      common.Address
	SellCalldata    []byte
	SellSpender     common.Address
	DebtAsset       common.Address
	Amount          *big.Int
	CollateralAsset common.Address
	MinOut          *big.Int
}

// SandwichReceiverParams is the argument layout for executeSandwich.
type SandwichReceiverParams struct {
	Router        common.Address
	FrontCalldata []byte
	BackCalldata  []byte
	Asset         common.Address
	Amount        *big.Int
}

// ArbitrageReceiverParams is the argument layout for executeArbitrage.
type ArbitrageReceiverParams struct {
	RouterBuy   common.Address
	BuyCalldata []byte
	RouterSell  common.Address
	SellCalldata []byte
	Asset       common.Address
	Amount      *big.Int
}
