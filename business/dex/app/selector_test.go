package app

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/dex/domain"
)

type fakeAdapter struct {
	name      string
	dexType   domain.DexType
	amountOut int64
	err       error
}

func (f *fakeAdapter) Name() string            { return f.name }
func (f *fakeAdapter) DexType() domain.DexType { return f.dexType }

func (f *fakeAdapter) Quote(_ context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, error) {
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	return domain.Quote{
		AdapterName: f.name,
		DexType:     f.dexType,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		AmountOut:   big.NewInt(f.amountOut),
		SlippageBps: slippageBps,
		Timestamp:   time.Now(),
	}, nil
}

func (f *fakeAdapter) BuildSwapCalldata(context.Context, domain.Quote, common.Address, time.Time) (domain.CalldataBundle, error) {
	return domain.CalldataBundle{}, nil
}
func (f *fakeAdapter) ValidateQuote(q domain.Quote) bool { return q.AmountOut != nil && q.AmountOut.Sign() > 0 }
func (f *fakeAdapter) SupportsPair(common.Address, common.Address) bool { return true }
func (f *fakeAdapter) GetMinAmount(q domain.Quote) *big.Int              { return q.MinAmountOut() }
func (f *fakeAdapter) GetFeeInfo() domain.FeeInfo                        { return domain.FeeInfo{} }

var tokenA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
var tokenB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

func TestSelector_BestQuote(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "low", dexType: domain.DexUniswapV2, amountOut: 100})
	factory.Register(&fakeAdapter{name: "high", dexType: domain.DexUniswapV3, amountOut: 200})

	sel := NewSelector(factory)
	q, adapter, err := sel.Select(context.Background(), StrategyBestQuote, "", tokenA, tokenB, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if adapter.Name() != "high" || q.AmountOut.Int64() != 200 {
		t.Errorf("got adapter %s amountOut %s, want high/200", adapter.Name(), q.AmountOut)
	}
}

func TestSelector_SkipsFailingAdapter(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "broken", dexType: domain.DexUniswapV2, err: errSelectorFake})
	factory.Register(&fakeAdapter{name: "ok", dexType: domain.DexUniswapV3, amountOut: 50})

	sel := NewSelector(factory)
	q, adapter, err := sel.Select(context.Background(), StrategyBestQuote, "", tokenA, tokenB, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if adapter.Name() != "ok" || q.AmountOut.Int64() != 50 {
		t.Errorf("got adapter %s, want ok", adapter.Name())
	}
}

func TestSelector_Fixed(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "low", dexType: domain.DexUniswapV2, amountOut: 100})
	factory.Register(&fakeAdapter{name: "high", dexType: domain.DexUniswapV3, amountOut: 200})

	sel := NewSelector(factory)
	_, adapter, err := sel.Select(context.Background(), StrategyFixed, "low", tokenA, tokenB, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if adapter.Name() != "low" {
		t.Errorf("got adapter %s, want low", adapter.Name())
	}
}

func TestSelector_NativeFirstFallsBackToAggregator(t *testing.T) {
	factory := NewFactory()
	factory.Register(&fakeAdapter{name: "0x", dexType: domain.DexZeroEx, amountOut: 300})

	sel := NewSelector(factory)
	_, adapter, err := sel.Select(context.Background(), StrategyNativeFirst, "", tokenA, tokenB, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if adapter.Name() != "0x" {
		t.Errorf("got adapter %s, want fallback to 0x", adapter.Name())
	}
}

type fakeSelectorErr struct{ msg string }

func (e *fakeSelectorErr) Error() string { return e.msg }

var errSelectorFake = &fakeSelectorErr{"adapter unavailable"}
