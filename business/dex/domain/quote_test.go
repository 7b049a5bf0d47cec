package domain

import (
	"math/big"
	"testing"
)

func TestQuote_MinAmountOut(t *testing.T) {
	q := Quote{AmountOut: big.NewInt(10000), SlippageBps: 50} // 0.5%
	got := q.MinAmountOut()
	want := big.NewInt(9950)
	if got.Cmp(want) != 0 {
		t.Errorf("MinAmountOut = %s, want %s", got, want)
	}
}

func TestQuote_MinAmountOut_ZeroSlippage(t *testing.T) {
	q := Quote{AmountOut: big.NewInt(10000), SlippageBps: 0}
	if got := q.MinAmountOut(); got.Cmp(big.NewInt(10000)) != 0 {
		t.Errorf("MinAmountOut = %s, want 10000", got)
	}
}

func TestQuote_WeightedAmountOut(t *testing.T) {
	tests := []struct {
		dexType DexType
		want    int64
	}{
		{DexUniswapV2, 1000},
		{DexUniswapV3, 1100},
		{DexZeroEx, 1300},
	}
	for _, tt := range tests {
		q := Quote{AmountOut: big.NewInt(1000), DexType: tt.dexType}
		if got := q.WeightedAmountOut(); got.Int64() != tt.want {
			t.Errorf("%s: WeightedAmountOut = %d, want %d", tt.dexType, got.Int64(), tt.want)
		}
	}
}
