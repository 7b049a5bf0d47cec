package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TxDecoderPriceSource adapts an Oracle (typically the Aggregator) to the
// narrower decimal-only PriceSource capability business/txdecoder consumes.
// The zero address is the convention for "native ETH" throughout C2/C3.
type TxDecoderPriceSource struct {
	oracle Oracle
}

// NewTxDecoderPriceSource wraps oracle for consumption by C2's classifier.
func NewTxDecoderPriceSource(oracle Oracle) *TxDecoderPriceSource {
	return &TxDecoderPriceSource{oracle: oracle}
}

// GetPriceUSD returns the token's aggregated USD price.
func (s *TxDecoderPriceSource) GetPriceUSD(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	p, err := s.oracle.GetPriceUSD(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	return p.PriceUSD, nil
}

// GetPriceETH returns the token's aggregated ETH-denominated price.
func (s *TxDecoderPriceSource) GetPriceETH(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	p, err := s.oracle.GetPriceETH(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	return p.PriceETH, nil
}
