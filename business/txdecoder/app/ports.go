package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PriceSource is the minimal capability the classifier needs from C3: a
// USD price for a token, falling back to ETH-equivalent when unavailable.
type PriceSource interface {
	GetPriceUSD(ctx context.Context, token common.Address) (decimal.Decimal, error)
	GetPriceETH(ctx context.Context, token common.Address) (decimal.Decimal, error)
}

// RouterRegistry reports whether an address is a known DEX router.
type RouterRegistry interface {
	IsRouter(addr common.Address) bool
}
