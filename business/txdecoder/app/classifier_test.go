package app

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	"github.com/fd1az/mev-searcher/business/txdecoder/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type fakeRouters struct{ addr common.Address }

func (f fakeRouters) IsRouter(a common.Address) bool { return a == f.addr }

type fakePrices struct {
	usd map[common.Address]decimal.Decimal
}

func (f fakePrices) GetPriceUSD(_ context.Context, token common.Address) (decimal.Decimal, error) {
	if p, ok := f.usd[token]; ok {
		return p, nil
	}
	return decimal.Zero, errNoPrice
}

func (f fakePrices) GetPriceETH(_ context.Context, token common.Address) (decimal.Decimal, error) {
	return decimal.Zero, errNoPrice
}

var errNoPrice = &testErr{"no price"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }

func newTestClassifier(t *testing.T, minUSD decimal.Decimal, router common.Address, usd map[common.Address]decimal.Decimal) *Classifier {
	t.Helper()
	enc, err := codecapp.NewEncoder()
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	dec, err := codecapp.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	_ = enc
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewClassifier(dec, fakeRouters{addr: router}, fakePrices{usd: usd}, ClassifierConfig{MinUSDValue: minUSD}, log)
}

func TestClassifier_SandwichTargetAboveThreshold(t *testing.T) {
	router := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	enc, _ := codecapp.NewEncoder()
	data, err := enc.SwapExactTokensForTokens(
		new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18)), // 5 tokens (18 decimals)
		big.NewInt(0),
		[]common.Address{weth, usdc},
		router,
		big.NewInt(1_700_000_000),
	)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	c := newTestClassifier(t, decimal.NewFromInt(10_000), router, map[common.Address]decimal.Decimal{
		weth: decimal.NewFromInt(3000), // $3000/WETH -> 5 WETH = $15,000
	})

	tx := &domain.Transaction{To: &router, Input: data, Value: big.NewInt(0)}
	decoded, err := c.Classify(context.Background(), tx)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decoded.Kind != domain.KindSandwichTarget {
		t.Fatalf("kind = %s, want %s", decoded.Kind, domain.KindSandwichTarget)
	}
}

func TestClassifier_BelowThresholdIsUnknown(t *testing.T) {
	router := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	enc, _ := codecapp.NewEncoder()
	data, _ := enc.SwapExactTokensForTokens(
		big.NewInt(1e15), // 0.001 token
		big.NewInt(0),
		[]common.Address{weth, usdc},
		router,
		big.NewInt(1_700_000_000),
	)

	c := newTestClassifier(t, decimal.NewFromInt(10_000), router, map[common.Address]decimal.Decimal{
		weth: decimal.NewFromInt(3000),
	})

	tx := &domain.Transaction{To: &router, Input: data, Value: big.NewInt(0)}
	decoded, err := c.Classify(context.Background(), tx)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decoded.Kind != domain.KindUnknown {
		t.Fatalf("kind = %s, want %s", decoded.Kind, domain.KindUnknown)
	}
}

func TestClassifier_NonRouterIsUnknown(t *testing.T) {
	router := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	other := common.HexToAddress("0x1111111111111111111111111111111111111111")
	c := newTestClassifier(t, decimal.NewFromInt(10_000), router, nil)

	tx := &domain.Transaction{To: &other, Input: []byte{0x38, 0xed, 0x17, 0x39}, Value: big.NewInt(0)}
	decoded, err := c.Classify(context.Background(), tx)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decoded.Kind != domain.KindUnknown {
		t.Fatalf("kind = %s, want %s", decoded.Kind, domain.KindUnknown)
	}
}
