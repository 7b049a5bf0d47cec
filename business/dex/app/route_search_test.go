package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/fd1az/mev-searcher/business/dex/domain"
)

func TestDynamicAggregatorThresholdPct(t *testing.T) {
	tests := []struct {
		volatility float64
		want       float64
	}{
		{15, 3.0},
		{7, 4.0},
		{2, 5.0},
	}
	for _, tt := range tests {
		if got := DynamicAggregatorThresholdPct(tt.volatility); got != tt.want {
			t.Errorf("DynamicAggregatorThresholdPct(%v) = %v, want %v", tt.volatility, got, tt.want)
		}
	}
}

func TestSearchBestRoute_PrefersAggregatorAboveThreshold(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "v2", dexType: domain.DexUniswapV2, amountOut: 1000})
	factory.Register(&fakeAdapter{name: "0x", dexType: domain.DexZeroEx, amountOut: 1200})

	sel := NewSelector(factory)
	q, adapter, err := sel.SearchBestRoute(context.Background(), tokenA, tokenB, big.NewInt(1000), 50, 2)
	if err != nil {
		t.Fatalf("SearchBestRoute: %v", err)
	}
	if adapter.Name() != "0x" {
		t.Errorf("got adapter %s, want 0x (aggregator clears threshold)", adapter.Name())
	}
	if q.AmountOut.Int64() != 1200 {
		t.Errorf("got amountOut %s, want 1200", q.AmountOut)
	}
}

func TestSearchBestRoute_FallsBackToNativeBelowThreshold(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "v2", dexType: domain.DexUniswapV2, amountOut: 1000})
	factory.Register(&fakeAdapter{name: "0x", dexType: domain.DexZeroEx, amountOut: 800})

	sel := NewSelector(factory)
	_, adapter, err := sel.SearchBestRoute(context.Background(), tokenA, tokenB, big.NewInt(1000), 50, 2)
	if err != nil {
		t.Fatalf("SearchBestRoute: %v", err)
	}
	if adapter.Name() != "v2" {
		t.Errorf("got adapter %s, want v2 (aggregator does not clear threshold)", adapter.Name())
	}
}

func TestSearchBestRoute_NativeOnlyFallback(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "v2", dexType: domain.DexUniswapV2, amountOut: 1000})

	sel := NewSelector(factory)
	_, adapter, err := sel.SearchBestRoute(context.Background(), tokenA, tokenB, big.NewInt(1000), 50, 2)
	if err != nil {
		t.Fatalf("SearchBestRoute: %v", err)
	}
	if adapter.Name() != "v2" {
		t.Errorf("got adapter %s, want v2", adapter.Name())
	}
}

func TestSearchBestRoute_AggregatorOnlyFallback(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "0x", dexType: domain.DexZeroEx, amountOut: 1000})

	sel := NewSelector(factory)
	_, adapter, err := sel.SearchBestRoute(context.Background(), tokenA, tokenB, big.NewInt(1000), 50, 2)
	if err != nil {
		t.Fatalf("SearchBestRoute: %v", err)
	}
	if adapter.Name() != "0x" {
		t.Errorf("got adapter %s, want 0x", adapter.Name())
	}
}

func TestSearchBestRoute_NoAdaptersErrors(t *testing.T) {
	factory := NewFactory()
	sel := NewSelector(factory)
	_, _, err := sel.SearchBestRoute(context.Background(), tokenA, tokenB, big.NewInt(1000), 50, 2)
	if err != domain.ErrNoRouteFound {
		t.Errorf("got err %v, want ErrNoRouteFound", err)
	}
}
