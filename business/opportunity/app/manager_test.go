package app

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewManager(DefaultConfig(), weiFromETH(0.1), log)
}

func testOpportunity(id string, strategy domain.StrategyTag, profitETH float64) domain.Opportunity {
	return domain.Opportunity{
		ID:                id,
		Strategy:          strategy,
		ExpectedProfitWei: weiFromETH(profitETH),
		Confidence:        0.8,
		GasEstimate:       150_000,
	}
}

func TestManager_InsertAddsToStrategyAndGlobalQueues(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1_700_000_000, 0)

	added := m.Insert(context.Background(), testOpportunity("sw-1", domain.StrategySandwich, 0.5), now)
	if !added {
		t.Fatal("expected a profitable opportunity to be queued")
	}

	sizes := m.QueueSizes()
	if sizes["global"] != 1 || sizes[string(domain.StrategySandwich)] != 1 {
		t.Fatalf("expected size 1 in both global and sandwich queues, got %+v", sizes)
	}
}

func TestManager_NextPrefersGlobalQueueOrder(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1_700_000_000, 0)

	m.Insert(context.Background(), testOpportunity("liq-1", domain.StrategyLiquidation, 0.2), now)
	m.Insert(context.Background(), testOpportunity("sw-1", domain.StrategySandwich, 2.0), now)

	p, ok := m.Next(now)
	if !ok {
		t.Fatal("expected an opportunity to be dequeued")
	}
	if p.Opportunity.ID != "sw-1" {
		t.Fatalf("expected the higher-profit sandwich opportunity first, got %s", p.Opportunity.ID)
	}
}

func TestManager_NextForStrategyFallsBackToGlobalQueue(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1_700_000_000, 0)

	opp := testOpportunity("liq-1", domain.StrategyLiquidation, 0.3)
	m.Insert(context.Background(), opp, now)

	if _, ok := m.strategyQueue(domain.StrategyLiquidation); !ok {
		t.Fatal("expected a liquidation strategy queue to exist")
	}
	// Drain the strategy queue directly so NextForStrategy must fall
	// back to a global-queue match.
	m.strategyQueues[domain.StrategyLiquidation].Dequeue(now)

	p, ok := m.NextForStrategy(domain.StrategyLiquidation, now)
	if !ok || p.Opportunity.ID != "liq-1" {
		t.Fatalf("expected fallback to find 'liq-1' in the global queue, got %+v ok=%v", p, ok)
	}
}

func TestManager_RecordExecutionUpdatesStats(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1_700_000_000, 0)

	m.Insert(context.Background(), testOpportunity("sw-1", domain.StrategySandwich, 1.0), now)
	p, ok := m.Next(now)
	if !ok {
		t.Fatal("expected to dequeue the inserted opportunity")
	}

	m.RecordExecution(context.Background(), p.Opportunity.ID, true, weiFromETH(0.95), 180_000, "", 250, now)

	stats := m.Stats()
	if stats.TotalExecuted != 1 || stats.TotalSuccessful != 1 {
		t.Fatalf("expected 1 executed and 1 successful, got %+v", stats)
	}
	if stats.TotalProfitWei.Cmp(weiFromETH(0.95)) != 0 {
		t.Fatalf("expected total profit 0.95 ETH, got %s", stats.TotalProfitWei.String())
	}
	if stats.SuccessRate != 1.0 {
		t.Fatalf("expected success rate 1.0, got %v", stats.SuccessRate)
	}

	history := m.History(10)
	if len(history) != 1 || history[0].OpportunityID != p.Opportunity.ID {
		t.Fatalf("expected one history record for %s, got %+v", p.Opportunity.ID, history)
	}
}

func TestManager_RecordExecutionIsNoOpForUnknownID(t *testing.T) {
	m := testManager(t)
	m.RecordExecution(context.Background(), "never-dequeued", true, big.NewInt(1), 0, "", 0, time.Now())

	if m.Stats().TotalExecuted != 0 {
		t.Fatalf("expected recording an unknown opportunity ID to be a no-op")
	}
}

func TestManager_UpdateNetworkStateAffectsSubsequentScoring(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1_700_000_000, 0)

	m.UpdateNetworkState(0.9, 5, 0, 0.1)
	added := m.Insert(context.Background(), testOpportunity("sw-1", domain.StrategySandwich, 1.0), now)
	if !added {
		t.Fatal("expected opportunity to still be accepted under high congestion")
	}
}
