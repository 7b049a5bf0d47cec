// Package app implements the opportunity manager and priority queue
// (C6): scores each detector's Opportunity against live network
// conditions, arbitrates it into a bounded per-strategy queue and the
// global queue, and tracks execution outcomes through to a ring-
// retained history, following the queue/manager split of
// business/dex/app's Factory/Selector pair.
package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const historyLimit = 1000

// dequeueOrder is the strategy-queue fallback order Next walks after
// the global queue comes up empty, per §4.6: Sandwich first (highest
// time-value), then the two mid-urgency strategies, Liquidation last.
var dequeueOrder = []domain.StrategyTag{
	domain.StrategySandwich,
	domain.StrategyMicroArbitrage,
	domain.StrategyMultiAssetArbitrage,
	domain.StrategyLiquidation,
}

// StrategyStats captures running per-strategy execution outcomes.
type StrategyStats struct {
	TotalOpportunities uint64
	TotalExecuted      uint64
	TotalSuccessful    uint64
	TotalProfitWei     *big.Int
	AvgProfitWei       *big.Int
	SuccessRate        float64
}

// ManagerStats captures the aggregate totals across every strategy.
type ManagerStats struct {
	TotalOpportunities uint64
	TotalExecuted      uint64
	TotalSuccessful    uint64
	TotalFailed        uint64
	TotalExpired       uint64
	TotalProfitWei     *big.Int
	TotalGasSpent      uint64
	AvgExecutionTimeMs float64
	SuccessRate        float64
	StrategyStats      map[domain.StrategyTag]*StrategyStats
}

// ExecutionRecord is one completed opportunity outcome.
type ExecutionRecord struct {
	OpportunityID     string
	Strategy          domain.StrategyTag
	ExpectedProfitWei *big.Int
	ActualProfitWei   *big.Int
	GasUsed           uint64
	Success           bool
	ErrorMessage      string
	ExecutedAt        time.Time
	ExecutionTimeMs   int64
}

// Manager arbitrates opportunities across one bounded queue per
// strategy plus a global queue, scoring each on insertion and tracking
// execution outcomes through to a bounded history.
type Manager struct {
	mu sync.Mutex

	strategyQueues map[domain.StrategyTag]*Queue
	globalQueue    *Queue

	minProfitThresholdWei *big.Int
	scoringCtx            ScoringContext

	executing map[string]domain.OpportunityPriority
	history   []ExecutionRecord

	stats  ManagerStats
	logger logger.LoggerInterface
}

// NewManager builds a Manager with cfg's per-strategy queue bounds.
// minProfitThresholdWei scales the profitability score's log-ratio
// term (§4.6.1) across every strategy alike.
func NewManager(cfg Config, minProfitThresholdWei *big.Int, log logger.LoggerInterface) *Manager {
	return &Manager{
		strategyQueues: map[domain.StrategyTag]*Queue{
			domain.StrategySandwich:            NewQueue(cfg.Sandwich.MaxSize, cfg.Sandwich.TTL),
			domain.StrategyMicroArbitrage:       NewQueue(cfg.MicroArbitrage.MaxSize, cfg.MicroArbitrage.TTL),
			domain.StrategyLiquidation:          NewQueue(cfg.Liquidation.MaxSize, cfg.Liquidation.TTL),
			domain.StrategyMultiAssetArbitrage:  NewQueue(cfg.MultiAssetArbitrage.MaxSize, cfg.MultiAssetArbitrage.TTL),
		},
		globalQueue:           NewQueue(cfg.Global.MaxSize, cfg.Global.TTL),
		minProfitThresholdWei: minProfitThresholdWei,
		scoringCtx:            ScoringContext{Volatility: 0.2},
		executing:             make(map[string]domain.OpportunityPriority),
		stats: ManagerStats{
			TotalProfitWei: big.NewInt(0),
			StrategyStats:  make(map[domain.StrategyTag]*StrategyStats),
		},
		logger: log,
	}
}

// UpdateNetworkState refreshes the congestion/competitor/block/
// volatility signals every subsequent Insert scores against.
func (m *Manager) UpdateNetworkState(congestion float64, competitors int, currentBlock uint64, volatility float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoringCtx = ScoringContext{
		NetworkCongestion: clamp01(congestion),
		Competitors:       competitors,
		CurrentBlock:      currentBlock,
		Volatility:        clamp01(volatility),
	}
}

// Insert scores opp and offers it to both its strategy's queue and the
// global queue, returning true if either accepted it.
func (m *Manager) Insert(ctx context.Context, opp domain.Opportunity, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ttl := m.globalQueue.ttl
	strategyQueue, hasStrategyQueue := m.strategyQueues[opp.Strategy]
	if hasStrategyQueue {
		ttl = strategyQueue.ttl
	}

	profitability, risk, timing, competition, composite := Score(opp, m.minProfitThresholdWei, m.scoringCtx)
	priority := domain.OpportunityPriority{
		Opportunity:        opp,
		ProfitabilityScore: profitability,
		RiskScore:          risk,
		TimingScore:        timing,
		CompetitionScore:   competition,
		PriorityScore:      composite,
		CreatedAt:          now.Unix(),
		ExpiresAt:          now.Add(ttl).Unix(),
	}

	addedStrategy := hasStrategyQueue && strategyQueue.Insert(priority, now)
	addedGlobal := m.globalQueue.Insert(priority, now)

	if addedStrategy || addedGlobal {
		m.stats.TotalOpportunities++
		m.strategyStatsLocked(opp.Strategy).TotalOpportunities++
	}

	m.logger.Debug(ctx, "opportunity scored and queued",
		"id", opp.ID, "strategy", string(opp.Strategy), "score", composite,
		"added_strategy", addedStrategy, "added_global", addedGlobal,
	)

	return addedStrategy || addedGlobal
}

func (m *Manager) strategyStatsLocked(strategy domain.StrategyTag) *StrategyStats {
	ss, ok := m.stats.StrategyStats[strategy]
	if !ok {
		ss = &StrategyStats{TotalProfitWei: big.NewInt(0), AvgProfitWei: big.NewInt(0)}
		m.stats.StrategyStats[strategy] = ss
	}
	return ss
}

func (m *Manager) strategyQueue(strategy domain.StrategyTag) (*Queue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.strategyQueues[strategy]
	return q, ok
}

func (m *Manager) markExecuting(p domain.OpportunityPriority) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executing[p.Opportunity.ID] = p
}

// Next returns the highest-priority opportunity across every queue:
// the global queue first, falling back to each strategy queue in
// dequeueOrder, per §4.6's dequeue rule.
func (m *Manager) Next(now time.Time) (domain.OpportunityPriority, bool) {
	if p, ok := m.globalQueue.Dequeue(now); ok {
		m.markExecuting(p)
		return p, true
	}

	for _, strategy := range dequeueOrder {
		q, ok := m.strategyQueue(strategy)
		if !ok {
			continue
		}
		if p, ok := q.Dequeue(now); ok {
			m.markExecuting(p)
			return p, true
		}
	}
	return domain.OpportunityPriority{}, false
}

// NextForStrategy returns the highest-priority opportunity for one
// strategy: its own queue first, then a single matching pull from the
// global queue, preserving the relative order of every entry it skips.
func (m *Manager) NextForStrategy(strategy domain.StrategyTag, now time.Time) (domain.OpportunityPriority, bool) {
	if q, ok := m.strategyQueue(strategy); ok {
		if p, ok := q.Dequeue(now); ok {
			m.markExecuting(p)
			return p, true
		}
	}

	if p, ok := m.globalQueue.DequeueMatching(now, func(o domain.Opportunity) bool { return o.Strategy == strategy }); ok {
		m.markExecuting(p)
		return p, true
	}
	return domain.OpportunityPriority{}, false
}

// RecordExecution removes opportunityID from the executing set and
// appends an ExecutionRecord to the ring-retained history (last 1000),
// updating aggregate and per-strategy stats. A no-op if opportunityID
// was never marked executing (already recorded, or never dequeued).
func (m *Manager) RecordExecution(ctx context.Context, opportunityID string, success bool, actualProfitWei *big.Int, gasUsed uint64, errMsg string, executionTimeMs int64, executedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.executing[opportunityID]
	if !ok {
		return
	}
	delete(m.executing, opportunityID)

	record := ExecutionRecord{
		OpportunityID:     opportunityID,
		Strategy:          p.Opportunity.Strategy,
		ExpectedProfitWei: p.Opportunity.ExpectedProfitWei,
		ActualProfitWei:   actualProfitWei,
		GasUsed:           gasUsed,
		Success:           success,
		ErrorMessage:      errMsg,
		ExecutedAt:        executedAt,
		ExecutionTimeMs:   executionTimeMs,
	}

	m.history = append(m.history, record)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}

	m.updateStatsLocked(record)

	m.logger.Info(ctx, "opportunity execution recorded",
		"id", opportunityID, "success", success, "gas_used", gasUsed,
	)
}

func (m *Manager) updateStatsLocked(record ExecutionRecord) {
	m.stats.TotalExecuted++
	if record.Success {
		m.stats.TotalSuccessful++
		if record.ActualProfitWei != nil {
			m.stats.TotalProfitWei.Add(m.stats.TotalProfitWei, record.ActualProfitWei)
		}
	} else {
		m.stats.TotalFailed++
	}
	m.stats.TotalGasSpent += record.GasUsed

	n := float64(m.stats.TotalExecuted)
	if n == 1 {
		m.stats.AvgExecutionTimeMs = float64(record.ExecutionTimeMs)
	} else {
		m.stats.AvgExecutionTimeMs = (m.stats.AvgExecutionTimeMs*(n-1) + float64(record.ExecutionTimeMs)) / n
	}
	m.stats.SuccessRate = float64(m.stats.TotalSuccessful) / float64(m.stats.TotalExecuted)

	ss := m.strategyStatsLocked(record.Strategy)
	ss.TotalExecuted++
	if record.Success {
		ss.TotalSuccessful++
		if record.ActualProfitWei != nil {
			ss.TotalProfitWei.Add(ss.TotalProfitWei, record.ActualProfitWei)
		}
	}
	if ss.TotalExecuted > 0 {
		ss.SuccessRate = float64(ss.TotalSuccessful) / float64(ss.TotalExecuted)
	}
	if ss.TotalSuccessful > 0 {
		ss.AvgProfitWei = new(big.Int).Div(ss.TotalProfitWei, big.NewInt(int64(ss.TotalSuccessful)))
	}
}

// Stats returns a snapshot of the aggregate execution stats.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// History returns up to limit most-recent execution records, or all of
// them if limit is <= 0 or exceeds the retained count.
func (m *Manager) History(limit int) []ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	start := len(m.history) - limit
	out := make([]ExecutionRecord, limit)
	copy(out, m.history[start:])
	return out
}

// QueueSizes reports the current occupancy of every queue, keyed by
// strategy name plus "global".
func (m *Manager) QueueSizes() map[string]int {
	m.mu.Lock()
	queues := make(map[domain.StrategyTag]*Queue, len(m.strategyQueues))
	for k, v := range m.strategyQueues {
		queues[k] = v
	}
	global := m.globalQueue
	m.mu.Unlock()

	sizes := make(map[string]int, len(queues)+1)
	sizes["global"] = global.Size()
	for strategy, q := range queues {
		sizes[string(strategy)] = q.Size()
	}
	return sizes
}

// QueueStats reports the running counters for every queue, keyed the
// same way as QueueSizes.
func (m *Manager) QueueStats() map[string]QueueStats {
	m.mu.Lock()
	queues := make(map[domain.StrategyTag]*Queue, len(m.strategyQueues))
	for k, v := range m.strategyQueues {
		queues[k] = v
	}
	global := m.globalQueue
	m.mu.Unlock()

	out := make(map[string]QueueStats, len(queues)+1)
	out["global"] = global.Stats()
	for strategy, q := range queues {
		out[string(strategy)] = q.Stats()
	}
	return out
}
