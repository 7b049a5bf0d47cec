// Package app implements the strategy orchestrator (C10): a per-strategy
// consumption loop over the opportunity manager's queues, routing each
// dequeued opportunity to the bundle builder/relay submitter pair for
// the three block-inclusion strategies, or directly to the execution
// engine for micro-arbitrage, then reporting the outcome back to the
// opportunity manager's execution history. Generalizes the per-symbol
// ticker loop business/detector/microarb/app/detector.go runs for
// scanning into one loop per strategy for dispatch.
package app

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	blockchainapp "github.com/fd1az/mev-searcher/business/blockchain/app"
	bundleapp "github.com/fd1az/mev-searcher/business/bundle/app"
	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	executionapp "github.com/fd1az/mev-searcher/business/execution/app"
	executiondomain "github.com/fd1az/mev-searcher/business/execution/domain"
	opportunityapp "github.com/fd1az/mev-searcher/business/opportunity/app"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	relayapp "github.com/fd1az/mev-searcher/business/relay/app"
	relaydomain "github.com/fd1az/mev-searcher/business/relay/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const historyLimit = 500

// bundleStrategies lists every strategy dispatched through
// build-simulate-submit instead of straight to the execution engine.
var bundleStrategies = []opportunitydomain.StrategyTag{
	opportunitydomain.StrategySandwich,
	opportunitydomain.StrategyLiquidation,
	opportunitydomain.StrategyMultiAssetArbitrage,
}

// BundleRecord is one completed or failed bundle submission, retained
// for the admin API's /bundles endpoint.
type BundleRecord struct {
	BundleID      string
	OpportunityID string
	Strategy      opportunitydomain.StrategyTag
	TargetBlock   uint64
	Status        relaydomain.Status
	NetProfitWei  *big.Int
	FailureReason string
	SubmittedAt   time.Time
}

// StrategyStatus reports one strategy's run state and queue depth, for
// the admin API's /strategies endpoint.
type StrategyStatus struct {
	Strategy  opportunitydomain.StrategyTag
	Enabled   bool
	QueueSize int
}

// Manager drains the opportunity manager's per-strategy queues and
// dispatches each opportunity to the bundle/relay pipeline or the
// execution engine. Every bounded-context service is the same concrete
// type its own module registers in DI, not a narrowed interface: the
// orchestrator is the one place in the searcher allowed to know about
// every downstream context at once.
type Manager struct {
	opportunities *opportunityapp.Manager
	bundles       *bundleapp.Service
	relay         *relayapp.Service
	execution     *executionapp.Engine
	blockchain    *blockchainapp.BlockchainService
	cfg           Config
	logger        logger.LoggerInterface

	strategies []opportunitydomain.StrategyTag

	mu      sync.RWMutex
	enabled map[opportunitydomain.StrategyTag]bool
	history []BundleRecord

	running atomic.Bool
	cancel  context.CancelFunc
	done    sync.WaitGroup
}

// NewManager builds a Manager covering every strategy in strategies, all
// enabled at construction. execution may be nil when no execution
// venues are configured; micro-arbitrage opportunities are then logged
// and dropped rather than dispatched.
func NewManager(opportunities *opportunityapp.Manager, bundles *bundleapp.Service, relay *relayapp.Service,
	execution *executionapp.Engine, blockchain *blockchainapp.BlockchainService, cfg Config,
	strategies []opportunitydomain.StrategyTag, log logger.LoggerInterface) *Manager {

	enabled := make(map[opportunitydomain.StrategyTag]bool, len(strategies))
	for _, s := range strategies {
		enabled[s] = true
	}

	return &Manager{
		opportunities: opportunities,
		bundles:       bundles,
		relay:         relay,
		execution:     execution,
		blockchain:    blockchain,
		cfg:           cfg,
		logger:        log,
		strategies:    strategies,
		enabled:       enabled,
	}
}

// Start launches one dequeue loop per configured strategy. A second
// Start call on an already-running Manager is a no-op.
func (m *Manager) Start(ctx context.Context) {
	if !m.running.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for _, strategy := range m.strategies {
		m.done.Add(1)
		go m.runStrategy(ctx, strategy)
	}
	m.logger.Info(ctx, "strategy orchestrator started", "strategies", m.strategies)
}

// Stop cancels every strategy loop and waits for them to exit.
func (m *Manager) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	m.cancel()
	m.done.Wait()
}

func (m *Manager) runStrategy(ctx context.Context, strategy opportunitydomain.StrategyTag) {
	defer m.done.Done()

	ticker := time.NewTicker(m.cfg.DequeueInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.isEnabled(strategy) {
				continue
			}
			m.drainOne(ctx, strategy)
		}
	}
}

func (m *Manager) drainOne(ctx context.Context, strategy opportunitydomain.StrategyTag) {
	priority, ok := m.opportunities.NextForStrategy(strategy, time.Now())
	if !ok {
		return
	}
	m.dispatch(ctx, priority.Opportunity)
}

// dispatch routes opp to the execution engine or the bundle/relay
// pipeline by strategy, then reports the outcome back to the
// opportunity manager's execution history.
func (m *Manager) dispatch(ctx context.Context, opp opportunitydomain.Opportunity) {
	started := time.Now()

	if opp.Strategy == opportunitydomain.StrategyMicroArbitrage {
		m.dispatchExecution(ctx, opp, started)
		return
	}
	m.dispatchBundle(ctx, opp, started)
}

func (m *Manager) dispatchExecution(ctx context.Context, opp opportunitydomain.Opportunity, started time.Time) {
	if m.execution == nil {
		m.logger.Warn(ctx, "strategy: no execution engine configured, dropping micro-arbitrage opportunity", "id", opp.ID)
		m.opportunities.RecordExecution(ctx, opp.ID, false, nil, 0, "no execution engine configured", 0, started)
		return
	}

	rec, err := m.execution.Execute(ctx, opp)
	if err != nil && rec == nil {
		m.logger.Error(ctx, "strategy: execution failed before an outcome was recorded", "id", opp.ID, "error", err.Error())
		m.opportunities.RecordExecution(ctx, opp.ID, false, nil, 0, err.Error(), time.Since(started).Milliseconds(), started)
		return
	}

	success := rec.Outcome == executiondomain.OutcomeCompleted
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	} else if rec.Outcome != executiondomain.OutcomeCompleted {
		errMsg = rec.Reason
	}

	profitWei := usdToWeiApprox(rec.ProfitUSD)
	m.opportunities.RecordExecution(ctx, opp.ID, success, profitWei, 0, errMsg, rec.Duration.Milliseconds(), started)
}

func (m *Manager) dispatchBundle(ctx context.Context, opp opportunitydomain.Opportunity, started time.Time) {
	bundle, _, err := m.bundles.BuildAndSimulate(ctx, opp)
	if err != nil {
		m.logger.Info(ctx, "strategy: bundle rejected", "id", opp.ID, "strategy", string(opp.Strategy), "error", err.Error())
		m.opportunities.RecordExecution(ctx, opp.ID, false, nil, 0, err.Error(), time.Since(started).Milliseconds(), started)
		m.recordBundle(BundleRecord{OpportunityID: opp.ID, Strategy: opp.Strategy, FailureReason: err.Error(), SubmittedAt: started})
		return
	}

	sub, err := m.relay.Submit(ctx, bundle)
	if err != nil {
		m.logger.Warn(ctx, "strategy: relay submission failed", "id", opp.ID, "bundle_id", bundle.ID, "error", err.Error())
		m.opportunities.RecordExecution(ctx, opp.ID, false, nil, bundle.GasEstimate, err.Error(), time.Since(started).Milliseconds(), started)
		m.recordBundle(BundleRecord{BundleID: bundle.ID, OpportunityID: opp.ID, Strategy: opp.Strategy, TargetBlock: bundle.TargetBlock, FailureReason: err.Error(), SubmittedAt: started})
		return
	}

	sub = m.pollUntilTerminal(ctx, sub)

	success := sub.Status == relaydomain.StatusIncluded
	m.opportunities.RecordExecution(ctx, opp.ID, success, sub.ActualProfitWei, bundle.GasEstimate, sub.FailureReason, time.Since(started).Milliseconds(), started)
	m.recordBundle(BundleRecord{
		BundleID: sub.BundleID, OpportunityID: sub.OpportunityID, Strategy: sub.Strategy, TargetBlock: sub.TargetBlock,
		Status: sub.Status, NetProfitWei: sub.ActualProfitWei, FailureReason: sub.FailureReason, SubmittedAt: sub.SubmittedAt,
	})
}

// pollUntilTerminal polls sub against the latest block until it reaches
// a terminal status or m.cfg.SubmissionDeadline elapses.
func (m *Manager) pollUntilTerminal(ctx context.Context, sub *relaydomain.Submission) *relaydomain.Submission {
	deadline := time.Now().Add(m.cfg.SubmissionDeadline)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		if sub.IsTerminal() || time.Now().After(deadline) {
			return sub
		}
		select {
		case <-ctx.Done():
			return sub
		case <-ticker.C:
			block, err := m.blockchain.LatestBlock(ctx)
			if err != nil {
				continue
			}
			updated, err := m.relay.Poll(ctx, sub, block.Number)
			if err != nil && apperror.GetCode(err) != apperror.CodeOpportunityExpired {
				m.logger.Warn(ctx, "strategy: bundle status poll failed", "bundle_id", sub.BundleID, "error", err.Error())
			}
			sub = updated
		}
	}
}

func (m *Manager) recordBundle(rec BundleRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, rec)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
}

// Bundles returns up to limit most-recent bundle submission records, or
// all of them if limit is <= 0 or exceeds the retained count.
func (m *Manager) Bundles(limit int) []BundleRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	start := len(m.history) - limit
	out := make([]BundleRecord, limit)
	copy(out, m.history[start:])
	return out
}

func (m *Manager) isEnabled(strategy opportunitydomain.StrategyTag) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled[strategy]
}

// SetEnabled toggles whether strategy's dequeue loop acts on its queue;
// it returns false if strategy isn't one this Manager was built with.
func (m *Manager) SetEnabled(strategy opportunitydomain.StrategyTag, value bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enabled[strategy]; !ok {
		return false
	}
	m.enabled[strategy] = value
	return true
}

// Statuses reports every configured strategy's enabled flag and current
// queue depth.
func (m *Manager) Statuses() []StrategyStatus {
	sizes := m.opportunities.QueueSizes()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]StrategyStatus, 0, len(m.strategies))
	for _, s := range m.strategies {
		out = append(out, StrategyStatus{Strategy: s, Enabled: m.enabled[s], QueueSize: sizes[string(s)]})
	}
	return out
}

// usdToWeiApprox treats profitUSD as if it were an ETH-denominated
// amount in wei's usual 1e18 scale, matching how the execution
// engine's dollar-denominated profit is folded into the opportunity
// manager's wei-denominated profit totals; it is an approximation since
// the searcher has no live ETH/USD rate wired into this path.
func usdToWeiApprox(profitUSD float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(profitUSD), big.NewFloat(1e18))
	wei, _ := f.Int(nil)
	return wei
}
