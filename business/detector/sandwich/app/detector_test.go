package app

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	"github.com/fd1az/mev-searcher/business/detector/sandwich/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	txdecoderdomain "github.com/fd1az/mev-searcher/business/txdecoder/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

var (
	weth  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	pool  = common.HexToAddress("0x1111111111111111111111111111111111111a")
)

type fakeMempool struct {
	txs chan *txdecoderdomain.Transaction
}

func newFakeMempool() *fakeMempool {
	return &fakeMempool{txs: make(chan *txdecoderdomain.Transaction, 4)}
}

func (f *fakeMempool) Subscribe(context.Context) (<-chan *txdecoderdomain.Transaction, error) {
	return f.txs, nil
}

type fakeClassifier struct {
	result *txdecoderdomain.DecodedTransaction
}

func (f *fakeClassifier) Classify(context.Context, *txdecoderdomain.Transaction) (*txdecoderdomain.DecodedTransaction, error) {
	return f.result, nil
}

type fakePoolReader struct {
	pool domain.PoolInfo
}

func (f *fakePoolReader) GetPool(context.Context, common.Address, common.Address) (domain.PoolInfo, error) {
	return f.pool, nil
}

type fakeGasSource struct{ weiGasPrice int64 }

func (f *fakeGasSource) GetGasPriceWei(context.Context) (int64, error) { return f.weiGasPrice, nil }

type fakeSink struct {
	mu   sync.Mutex
	subs []opportunitydomain.Opportunity
}

func (f *fakeSink) Submit(_ context.Context, opp opportunitydomain.Opportunity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, opp)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func newTestDetector(t *testing.T, classified *txdecoderdomain.DecodedTransaction, poolInfo domain.PoolInfo, gasPriceWei int64) (*Detector, *fakeMempool, *fakeSink) {
	t.Helper()
	encoder, err := codecapp.NewEncoder()
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	mp := newFakeMempool()
	sink := &fakeSink{}

	d := NewDetector(
		mp,
		&fakeClassifier{result: classified},
		&fakePoolReader{pool: poolInfo},
		&fakeGasSource{weiGasPrice: gasPriceWei},
		sink,
		encoder,
		common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		common.HexToAddress("0x2222222222222222222222222222222222222b"),
		DefaultConfig(),
		log,
	)
	return d, mp, sink
}

func bigETH(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestDetector_EmitsOpportunityForHighImpactVictim(t *testing.T) {
	poolInfo := domain.PoolInfo{
		Pool:        pool,
		Token0:      weth,
		Token1:      usdc,
		Reserve0:    bigETH(100),    // 100 WETH
		Reserve1:    bigETH(200_000), // 200,000 "USDC" units, kept at 18dp for arithmetic simplicity
		FeeBps:      30,
		LastUpdated: time.Now(),
	}
	decoded := &txdecoderdomain.DecodedTransaction{
		Kind: txdecoderdomain.KindSandwichTarget,
		Parameters: map[string]any{
			"path":      []common.Address{weth, usdc},
			"amount_in": bigETH(10), // 10% of pool reserve: large price impact
		},
	}

	d, mp, sink := newTestDetector(t, decoded, poolInfo, 20_000_000_000) // 20 gwei
	tx := &txdecoderdomain.Transaction{
		Hash:     common.HexToHash("0xabc"),
		GasPrice: big.NewInt(10_000_000_000), // victim bids 10 gwei, we out-bid
	}

	d.processTx(context.Background(), tx)

	if n := sink.count(); n != 1 {
		t.Fatalf("sink received %d opportunities, want 1", n)
	}
	opp := sink.subs[0]
	if opp.Strategy != opportunitydomain.StrategySandwich {
		t.Errorf("Strategy = %v, want StrategySandwich", opp.Strategy)
	}
	if opp.ExpectedProfitWei.Sign() <= 0 {
		t.Errorf("ExpectedProfitWei = %s, want > 0", opp.ExpectedProfitWei)
	}
	if opp.Confidence < DefaultConfig().MinSuccessProbability {
		t.Errorf("Confidence = %v, want >= %v", opp.Confidence, DefaultConfig().MinSuccessProbability)
	}
	details, ok := opp.Details.(opportunitydomain.SandwichDetails)
	if !ok {
		t.Fatalf("Details type = %T, want SandwichDetails", opp.Details)
	}
	if len(details.FrontrunTx) == 0 || len(details.BackrunTx) == 0 {
		t.Error("expected non-empty frontrun/backrun calldata")
	}

	_ = mp // subscription channel unused directly in this synchronous test
}

func TestDetector_SkipsNonSandwichTarget(t *testing.T) {
	decoded := &txdecoderdomain.DecodedTransaction{Kind: txdecoderdomain.KindUnknown}
	d, _, sink := newTestDetector(t, decoded, domain.PoolInfo{}, 20_000_000_000)

	d.processTx(context.Background(), &txdecoderdomain.Transaction{Hash: common.HexToHash("0x1")})

	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 for an unclassified tx", n)
	}
}

func TestDetector_SkipsNegligibleImpact(t *testing.T) {
	poolInfo := domain.PoolInfo{
		Pool:        pool,
		Token0:      weth,
		Token1:      usdc,
		Reserve0:    bigETH(1_000_000),
		Reserve1:    bigETH(2_000_000_000),
		FeeBps:      30,
		LastUpdated: time.Now(),
	}
	decoded := &txdecoderdomain.DecodedTransaction{
		Kind: txdecoderdomain.KindSandwichTarget,
		Parameters: map[string]any{
			"path":      []common.Address{weth, usdc},
			"amount_in": big.NewInt(1), // negligible against a 1M-ETH pool
		},
	}
	d, _, sink := newTestDetector(t, decoded, poolInfo, 20_000_000_000)

	d.processTx(context.Background(), &txdecoderdomain.Transaction{Hash: common.HexToHash("0x2")})

	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 for a negligible-impact trade", n)
	}
}
