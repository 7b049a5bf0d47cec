package app

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/fd1az/mev-searcher/business/detector/microarb/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type fakeExchangeSource struct {
	name string
	bid  float64
	ask  float64
	fee  float64
	err  error
}

func (f *fakeExchangeSource) Name() string { return f.name }

func (f *fakeExchangeSource) GetQuote(_ context.Context, symbol string) (domain.ExchangeQuote, error) {
	if f.err != nil {
		return domain.ExchangeQuote{}, f.err
	}
	return domain.ExchangeQuote{
		Exchange:  f.name,
		Symbol:    symbol,
		Bid:       f.bid,
		Ask:       f.ask,
		FeeBps:    f.fee,
		Timestamp: time.Now(),
	}, nil
}

type fakeOppSink struct {
	mu   sync.Mutex
	subs []opportunitydomain.Opportunity
}

func (f *fakeOppSink) Submit(_ context.Context, opp opportunitydomain.Opportunity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, opp)
	return nil
}

func (f *fakeOppSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func newTestDetector(sources []ExchangeSource, cfg Config) (*Detector, *fakeOppSink) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	sink := &fakeOppSink{}
	d := NewDetector(sources, sink, cfg, log, rand.New(rand.NewSource(1)))
	return d, sink
}

func TestDetector_EmitsOpportunityForCrossingSpread(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbols = []string{"ETH/USDC"}
	cfg.OpportunityRate = 1.0 // force the Bernoulli gate open
	cfg.MinProfitPct = 0.05

	cheap := &fakeExchangeSource{name: "coinbase", bid: 1999, ask: 2000, fee: 10}
	rich := &fakeExchangeSource{name: "binance", bid: 2010, ask: 2011, fee: 10}
	d, sink := newTestDetector([]ExchangeSource{cheap, rich}, cfg)

	d.evaluateSymbol(context.Background(), "ETH/USDC")

	if n := sink.count(); n != 1 {
		t.Fatalf("sink received %d opportunities, want 1", n)
	}
	opp := sink.subs[0]
	if opp.Strategy != opportunitydomain.StrategyMicroArbitrage {
		t.Errorf("Strategy = %v, want StrategyMicroArbitrage", opp.Strategy)
	}
	if opp.GasEstimate != 0 {
		t.Errorf("GasEstimate = %d, want 0 for a CEX-only strategy", opp.GasEstimate)
	}
	details, ok := opp.Details.(opportunitydomain.MicroArbitrageDetails)
	if !ok {
		t.Fatalf("Details type = %T, want MicroArbitrageDetails", opp.Details)
	}
	if details.BuyExchange != "coinbase" || details.SellExchange != "binance" {
		t.Errorf("unexpected buy/sell exchanges: %+v", details)
	}
	if details.AmountTokens <= 0 {
		t.Errorf("AmountTokens = %v, want > 0", details.AmountTokens)
	}
}

func TestDetector_SkipsWhenSpreadBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpportunityRate = 1.0
	cfg.MinProfitPct = 5.0 // spread below won't clear this

	a := &fakeExchangeSource{name: "coinbase", bid: 1999, ask: 2000, fee: 10}
	b := &fakeExchangeSource{name: "binance", bid: 2001, ask: 2002, fee: 10}
	d, sink := newTestDetector([]ExchangeSource{a, b}, cfg)

	d.evaluateSymbol(context.Background(), "ETH/USDC")

	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 below the profit threshold", n)
	}
}

func TestDetector_SkipsWhenBernoulliGateClosed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpportunityRate = 0.0 // gate always closed
	cfg.MinProfitPct = 0.05

	cheap := &fakeExchangeSource{name: "coinbase", bid: 1999, ask: 2000, fee: 10}
	rich := &fakeExchangeSource{name: "binance", bid: 2010, ask: 2011, fee: 10}
	d, sink := newTestDetector([]ExchangeSource{cheap, rich}, cfg)

	d.evaluateSymbol(context.Background(), "ETH/USDC")

	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 with the gate closed", n)
	}
}

func TestDetector_SkipsWithFewerThanTwoQuotes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpportunityRate = 1.0

	only := &fakeExchangeSource{name: "coinbase", bid: 1999, ask: 2000, fee: 10}
	d, sink := newTestDetector([]ExchangeSource{only}, cfg)

	d.evaluateSymbol(context.Background(), "ETH/USDC")

	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 with only one venue quoted", n)
	}
}

func TestDetector_ScanCoversAllConfiguredSymbols(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbols = []string{"ETH/USDC", "BTC/USDC"}
	cfg.OpportunityRate = 1.0
	cfg.MinProfitPct = 0.05

	cheap := &fakeExchangeSource{name: "coinbase", bid: 1999, ask: 2000, fee: 10}
	rich := &fakeExchangeSource{name: "binance", bid: 2010, ask: 2011, fee: 10}
	d, sink := newTestDetector([]ExchangeSource{cheap, rich}, cfg)

	d.scan(context.Background())

	if n := sink.count(); n != 2 {
		t.Fatalf("sink received %d opportunities, want 2 (one per symbol)", n)
	}
}
