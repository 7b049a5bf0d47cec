package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	blockchainapp "github.com/fd1az/mev-searcher/business/blockchain/app"
	blockchaindomain "github.com/fd1az/mev-searcher/business/blockchain/domain"
	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type fakeSubscriber struct{ block *blockchaindomain.Block }

func (f *fakeSubscriber) Subscribe(ctx context.Context) (<-chan *blockchaindomain.Block, error) {
	return nil, nil
}
func (f *fakeSubscriber) LatestBlock(ctx context.Context) (*blockchaindomain.Block, error) {
	return f.block, nil
}
func (f *fakeSubscriber) State() blockchaindomain.ConnectionState { return blockchaindomain.StateConnected }

type fakeGasOracle struct{ price *blockchaindomain.GasPrice }

func (f *fakeGasOracle) GetGasPrice(ctx context.Context) (*blockchaindomain.GasPrice, error) {
	return f.price, nil
}
func (f *fakeGasOracle) EstimateGas(ctx context.Context, data []byte, to string) (uint64, error) {
	return 21000, nil
}

type fixedSimulator struct {
	result *bundledomain.SimulationResult
	err    error
}

func (s *fixedSimulator) Simulate(ctx context.Context, bundle *bundledomain.Bundle) (*bundledomain.SimulationResult, error) {
	return s.result, s.err
}

type recordingPublisher struct {
	events []bundledomain.BundleEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event bundledomain.BundleEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newTestService(t *testing.T, simulator Simulator, publisher EventPublisher) *Service {
	t.Helper()
	cfg := testConfig()
	builder := testBuilder(t, cfg)

	sub := &fakeSubscriber{block: &blockchaindomain.Block{Number: 100, BaseFee: big.NewInt(20_000_000_000)}}
	gas := &fakeGasOracle{price: blockchaindomain.NewGasPrice(big.NewInt(2_000_000_000))}
	blockchain := blockchainapp.NewBlockchainService(sub, gas)

	log := logger.New(nopWriter{}, logger.LevelError, "bundle-test", nil)
	return NewService(builder, simulator, blockchain, publisher, log)
}

func TestBuildAndSimulate_AcceptsPositiveNetProfit(t *testing.T) {
	publisher := &recordingPublisher{}
	simulator := &fixedSimulator{result: &bundledomain.SimulationResult{Success: true, NetProfit: big.NewInt(1), GasUsed: 100}}
	svc := newTestService(t, simulator, publisher)

	opp := opportunitydomain.Opportunity{
		ID:                "sandwich-0xabc",
		Strategy:          opportunitydomain.StrategySandwich,
		ExpectedProfitWei: big.NewInt(1e16),
		Details: opportunitydomain.SandwichDetails{
			TokenIn:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
			FrontrunTx: []byte{0x01},
			BackrunTx:  []byte{0x02},
		},
	}

	bundle, result, err := svc.BuildAndSimulate(context.Background(), opp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle == nil || result == nil {
		t.Fatalf("expected non-nil bundle and result")
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
	if !publisher.events[0].Success {
		t.Fatalf("expected published event to record success")
	}
}

func TestBuildAndSimulate_RejectsNonPositiveNetProfit(t *testing.T) {
	publisher := &recordingPublisher{}
	simulator := &fixedSimulator{result: &bundledomain.SimulationResult{Success: true, NetProfit: big.NewInt(0), GasUsed: 100}}
	svc := newTestService(t, simulator, publisher)

	opp := opportunitydomain.Opportunity{
		ID:       "sandwich-0xdef",
		Strategy: opportunitydomain.StrategySandwich,
		Details: opportunitydomain.SandwichDetails{
			FrontrunTx: []byte{0x01},
			BackrunTx:  []byte{0x02},
		},
	}

	_, _, err := svc.BuildAndSimulate(context.Background(), opp)
	if err == nil {
		t.Fatalf("expected rejection error")
	}
}

func TestBuildAndSimulate_RejectsFailedSimulation(t *testing.T) {
	publisher := &recordingPublisher{}
	simulator := &fixedSimulator{result: &bundledomain.SimulationResult{Success: false, NetProfit: big.NewInt(0)}}
	svc := newTestService(t, simulator, publisher)

	opp := opportunitydomain.Opportunity{
		ID:       "sandwich-0x111",
		Strategy: opportunitydomain.StrategySandwich,
		Details: opportunitydomain.SandwichDetails{
			FrontrunTx: []byte{0x01},
			BackrunTx:  []byte{0x02},
		},
	}

	_, _, err := svc.BuildAndSimulate(context.Background(), opp)
	if err == nil {
		t.Fatalf("expected rejection error on failed simulation")
	}
}
