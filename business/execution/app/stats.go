package app

import (
	"sync"
	"time"

	"github.com/fd1az/mev-searcher/business/execution/domain"
)

// exchangeStats tracks per-exchange latency and success counters.
type exchangeStats struct {
	ordersPlaced int64
	ordersFilled int64
	totalLatencyMs float64
}

// Stats accumulates engine-wide execution statistics, guarded by mu.
type Stats struct {
	mu sync.Mutex

	startedAt time.Time

	totalExecutions   int64
	completed         int64
	partiallyFilled   int64
	failed            int64
	timedOut          int64
	totalVolumeUSD    float64
	totalProfitUSD    float64
	perExchange       map[string]*exchangeStats
}

// NewStats constructs a Stats tracker with its uptime clock starting now.
func NewStats() *Stats {
	return &Stats{
		startedAt:   time.Now(),
		perExchange: make(map[string]*exchangeStats),
	}
}

// RecordExecution folds one ExecutionRecord into the running totals.
func (s *Stats) RecordExecution(rec domain.ExecutionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalExecutions++
	s.totalVolumeUSD += rec.NotionalUSD
	s.totalProfitUSD += rec.ProfitUSD

	switch rec.Outcome {
	case domain.OutcomeCompleted:
		s.completed++
	case domain.OutcomePartiallyFilled:
		s.partiallyFilled++
	case domain.OutcomeFailed:
		s.failed++
	case domain.OutcomeTimedOut:
		s.timedOut++
	}
}

// RecordOrder folds one exchange's order placement/fill outcome into its
// per-exchange counters.
func (s *Stats) RecordOrder(exchange string, latencyMs float64, filled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	es, ok := s.perExchange[exchange]
	if !ok {
		es = &exchangeStats{}
		s.perExchange[exchange] = es
	}
	es.ordersPlaced++
	es.totalLatencyMs += latencyMs
	if filled {
		es.ordersFilled++
	}
}

// Snapshot is a point-in-time, allocation-free-to-read copy of Stats,
// safe to hand to an HTTP handler.
type Snapshot struct {
	TotalExecutions int64
	Completed       int64
	PartiallyFilled int64
	Failed          int64
	TimedOut        int64
	SuccessRate     float64
	TotalVolumeUSD  float64
	TotalProfitUSD  float64
	UptimeSeconds   float64
	PerExchange     map[string]ExchangeSnapshot
}

// ExchangeSnapshot is one venue's slice of the Snapshot.
type ExchangeSnapshot struct {
	OrdersPlaced    int64
	OrdersFilled    int64
	SuccessRate     float64
	AvgLatencyMs    float64
}

// Snapshot returns the current aggregate statistics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalExecutions: s.totalExecutions,
		Completed:       s.completed,
		PartiallyFilled: s.partiallyFilled,
		Failed:          s.failed,
		TimedOut:        s.timedOut,
		TotalVolumeUSD:  s.totalVolumeUSD,
		TotalProfitUSD:  s.totalProfitUSD,
		UptimeSeconds:   time.Since(s.startedAt).Seconds(),
		PerExchange:     make(map[string]ExchangeSnapshot, len(s.perExchange)),
	}
	if s.totalExecutions > 0 {
		snap.SuccessRate = float64(s.completed) / float64(s.totalExecutions)
	}
	for name, es := range s.perExchange {
		ex := ExchangeSnapshot{OrdersPlaced: es.ordersPlaced, OrdersFilled: es.ordersFilled}
		if es.ordersPlaced > 0 {
			ex.SuccessRate = float64(es.ordersFilled) / float64(es.ordersPlaced)
			ex.AvgLatencyMs = es.totalLatencyMs / float64(es.ordersPlaced)
		}
		snap.PerExchange[name] = ex
	}
	return snap
}
