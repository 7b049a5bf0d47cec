package app

import (
	"testing"
	"time"

	"github.com/fd1az/mev-searcher/business/opportunity/domain"
)

func priorityAt(id string, score float64, now time.Time, ttl time.Duration) domain.OpportunityPriority {
	return domain.OpportunityPriority{
		Opportunity:   domain.Opportunity{ID: id},
		PriorityScore: score,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(ttl).Unix(),
	}
}

func TestQueue_InsertAndDequeueReturnsHighestScore(t *testing.T) {
	q := NewQueue(10, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	q.Insert(priorityAt("low", 0.2, now, time.Minute), now)
	q.Insert(priorityAt("high", 0.9, now, time.Minute), now)
	q.Insert(priorityAt("mid", 0.5, now, time.Minute), now)

	p, ok := q.Dequeue(now)
	if !ok || p.Opportunity.ID != "high" {
		t.Fatalf("expected to dequeue 'high', got %+v ok=%v", p, ok)
	}
}

func TestQueue_RejectsExpiredOnInsert(t *testing.T) {
	q := NewQueue(10, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	expired := priorityAt("stale", 0.9, now.Add(-time.Hour), time.Minute)

	if q.Insert(expired, now) {
		t.Fatal("expected insert of an already-expired entry to be rejected")
	}
	if q.Stats().TotalRejected != 1 {
		t.Fatalf("expected TotalRejected=1, got %d", q.Stats().TotalRejected)
	}
}

func TestQueue_EvictsMinWhenFullAndNewScoreHigher(t *testing.T) {
	q := NewQueue(2, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	q.Insert(priorityAt("a", 0.3, now, time.Minute), now)
	q.Insert(priorityAt("b", 0.4, now, time.Minute), now)

	if !q.Insert(priorityAt("c", 0.9, now, time.Minute), now) {
		t.Fatal("expected higher-scored entry to evict the minimum and be accepted")
	}
	if q.Size() != 2 {
		t.Fatalf("expected size to stay bounded at 2, got %d", q.Size())
	}

	all := q.All()
	for _, p := range all {
		if p.Opportunity.ID == "a" {
			t.Fatal("expected lowest-scored entry 'a' to have been evicted")
		}
	}
}

func TestQueue_RejectsWhenFullAndNewScoreNotHigher(t *testing.T) {
	q := NewQueue(1, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	q.Insert(priorityAt("a", 0.5, now, time.Minute), now)
	if q.Insert(priorityAt("b", 0.5, now, time.Minute), now) {
		t.Fatal("expected equal score to be rejected, not evict-and-replace")
	}
	if q.Stats().TotalRejected != 1 {
		t.Fatalf("expected TotalRejected=1, got %d", q.Stats().TotalRejected)
	}
}

func TestQueue_DequeuePurgesExpiredFirst(t *testing.T) {
	q := NewQueue(10, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	q.Insert(priorityAt("expired", 0.9, now.Add(-2*time.Minute), time.Minute), now.Add(-2*time.Minute))
	q.Insert(priorityAt("fresh", 0.1, now, time.Minute), now)

	p, ok := q.Dequeue(now)
	if !ok || p.Opportunity.ID != "fresh" {
		t.Fatalf("expected the expired entry purged and 'fresh' dequeued, got %+v ok=%v", p, ok)
	}
	if q.Stats().TotalExpired != 1 {
		t.Fatalf("expected TotalExpired=1, got %d", q.Stats().TotalExpired)
	}
}

func TestQueue_DequeueMatchingPreservesNonMatchOrder(t *testing.T) {
	q := NewQueue(10, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	a := priorityAt("a", 0.8, now, time.Minute)
	a.Opportunity.Strategy = domain.StrategySandwich
	b := priorityAt("b", 0.6, now, time.Minute)
	b.Opportunity.Strategy = domain.StrategyLiquidation

	q.Insert(a, now)
	q.Insert(b, now)

	p, ok := q.DequeueMatching(now, func(o domain.Opportunity) bool { return o.Strategy == domain.StrategyLiquidation })
	if !ok || p.Opportunity.ID != "b" {
		t.Fatalf("expected to dequeue 'b', got %+v ok=%v", p, ok)
	}
	if q.Size() != 1 {
		t.Fatalf("expected non-matching entry to remain queued, size=%d", q.Size())
	}
}

func TestQueue_DequeueEmptyReturnsFalse(t *testing.T) {
	q := NewQueue(10, time.Minute)
	if _, ok := q.Dequeue(time.Unix(0, 0)); ok {
		t.Fatal("expected dequeue on an empty queue to return false")
	}
}
