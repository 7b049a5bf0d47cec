// Package app implements the two-legged order execution engine (C9): it
// races a buy and a sell order against a deadline and applies an
// outcome-matrix risk policy to partial fills, generalizing the dual-
// path (primary/fallback) concurrency pattern business/blockchain/infra/
// ethereum/subscriber.go already uses for block ingestion into a
// dual-leg buy/sell dispatch.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/business/execution/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const historyLimit = 1000

// legResult is one leg's placement/fill outcome, fed back to the
// racing goroutine's caller over a channel.
type legResult struct {
	resp      *domain.OrderResponse
	err       error
	latencyMs float64
}

// Engine executes CEX/DEX micro-arbitrage opportunities as two
// concurrent orders, gated by a bounded concurrency semaphore.
type Engine struct {
	exchanges map[string]ExchangeClient
	cfg       Config
	stats     *Stats
	logger    logger.LoggerInterface

	sem chan struct{}

	mu        sync.RWMutex
	stopped   bool
	blacklist map[string]bool
	history   []domain.ExecutionRecord
}

// NewEngine wires an Engine from its named ExchangeClient collaborators.
func NewEngine(exchanges map[string]ExchangeClient, cfg Config, log logger.LoggerInterface) *Engine {
	return &Engine{
		exchanges: exchanges,
		cfg:       cfg,
		stats:     NewStats(),
		logger:    log,
		sem:       make(chan struct{}, cfg.MaxConcurrentTrades),
		blacklist: make(map[string]bool),
	}
}

// Stats returns a snapshot of the engine's running statistics.
func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot()
}

// History returns a copy of the retained execution history (most recent
// historyLimit entries).
func (e *Engine) History() []domain.ExecutionRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.ExecutionRecord, len(e.history))
	copy(out, e.history)
	return out
}

// IsStopped reports whether a critical-risk partial execution has halted
// the engine.
func (e *Engine) IsStopped() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stopped
}

// Resume clears a critical-risk stop, allowing Execute to accept work
// again. Intended for operator-driven recovery via the admin API.
func (e *Engine) Resume() {
	e.mu.Lock()
	e.stopped = false
	e.mu.Unlock()
}

// ClearBlacklist removes symbol from the high-risk blacklist.
func (e *Engine) ClearBlacklist(symbol string) {
	e.mu.Lock()
	delete(e.blacklist, symbol)
	e.mu.Unlock()
}

// Execute runs opp's two legs concurrently and returns the resulting
// ExecutionRecord. A non-nil error on a PartiallyFilled record signals
// apperror.CodePartialExecution; the record itself is still returned so
// callers can inspect risk tier and reason.
func (e *Engine) Execute(ctx context.Context, opp opportunitydomain.Opportunity) (*domain.ExecutionRecord, error) {
	if opp.Strategy != opportunitydomain.StrategyMicroArbitrage {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("execution: strategy %q is not executable by the order execution engine", opp.Strategy)))
	}
	details, ok := opp.Details.(opportunitydomain.MicroArbitrageDetails)
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("execution: opportunity missing MicroArbitrageDetails"))
	}

	e.mu.RLock()
	stopped := e.stopped
	blacklisted := e.blacklist[details.Symbol]
	e.mu.RUnlock()
	if stopped {
		return nil, apperror.New(apperror.CodeQueueRejected,
			apperror.WithContext("execution: engine stopped after a critical-risk partial execution"))
	}
	if blacklisted {
		return nil, apperror.New(apperror.CodeQueueRejected,
			apperror.WithContext(fmt.Sprintf("execution: symbol %s is blacklisted", details.Symbol)))
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, apperror.New(apperror.CodeTimeout, apperror.WithCause(ctx.Err()),
			apperror.WithContext("execution: semaphore acquisition"))
	}
	defer func() { <-e.sem }()

	buyClient, ok := e.exchanges[details.BuyExchange]
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("execution: unknown buy exchange %s", details.BuyExchange)))
	}
	sellClient, ok := e.exchanges[details.SellExchange]
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("execution: unknown sell exchange %s", details.SellExchange)))
	}

	started := time.Now()
	notionalUSD := details.AmountTokens * details.BuyPrice

	if !buyClient.IsConnected() || !sellClient.IsConnected() ||
		buyClient.AverageLatencyMs() > e.cfg.MaxLatencyMs || sellClient.AverageLatencyMs() > e.cfg.MaxLatencyMs {
		rec := e.record(opp, details, domain.OutcomeFailed, domain.RiskLow, notionalUSD, 0, "connectivity check failed", started)
		return rec, nil
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, e.cfg.ExecutionDeadline)
	defer cancel()

	buyCh := make(chan legResult, 1)
	sellCh := make(chan legResult, 1)
	go e.runLeg(deadlineCtx, buyClient, domain.OrderRequest{
		Symbol: details.Symbol, Side: domain.SideBuy, AmountTokens: details.AmountTokens, LimitPrice: details.BuyPrice,
	}, buyCh)
	go e.runLeg(deadlineCtx, sellClient, domain.OrderRequest{
		Symbol: details.Symbol, Side: domain.SideSell, AmountTokens: details.AmountTokens, LimitPrice: details.SellPrice,
	}, sellCh)

	var buyRes, sellRes legResult
	haveBuy, haveSell := false, false
	for !haveBuy || !haveSell {
		select {
		case buyRes = <-buyCh:
			haveBuy = true
		case sellRes = <-sellCh:
			haveSell = true
		case <-deadlineCtx.Done():
			e.cancelBestEffort(ctx, buyClient, buyRes)
			e.cancelBestEffort(ctx, sellClient, sellRes)
			rec := e.record(opp, details, domain.OutcomeTimedOut, domain.RiskLow, notionalUSD, 0, "execution deadline exceeded", started)
			return rec, apperror.New(apperror.CodeTimeout,
				apperror.WithContext(fmt.Sprintf("opportunity %s: execution timed out", opp.ID)))
		}
	}

	return e.resolveOutcome(ctx, opp, details, notionalUSD, buyClient, sellClient, buyRes, sellRes, started)
}

// runLeg places one leg's order and, if it isn't immediately filled,
// monitors it until filled or the context is done.
func (e *Engine) runLeg(ctx context.Context, client ExchangeClient, req domain.OrderRequest, out chan<- legResult) {
	start := time.Now()
	resp, err := client.PlaceOrder(ctx, req)
	latency := float64(time.Since(start).Milliseconds())

	if err != nil {
		e.stats.RecordOrder(client.Name(), latency, false)
		out <- legResult{err: err, latencyMs: latency}
		return
	}

	if resp.Status != domain.OrderStatusFilled {
		resp = e.monitorFill(ctx, client, resp)
	}
	e.stats.RecordOrder(client.Name(), latency, resp.Status == domain.OrderStatusFilled)
	out <- legResult{resp: resp, latencyMs: latency}
}

// monitorFill polls GetOrderStatus until the order reaches a terminal
// state or the context expires.
func (e *Engine) monitorFill(ctx context.Context, client ExchangeClient, resp *domain.OrderResponse) *domain.OrderResponse {
	current := resp
	ticker := time.NewTicker(e.cfg.FillPollInterval)
	defer ticker.Stop()

	for {
		if current.Status == domain.OrderStatusFilled ||
			current.Status == domain.OrderStatusCancelled ||
			current.Status == domain.OrderStatusRejected {
			return current
		}
		select {
		case <-ctx.Done():
			return current
		case <-ticker.C:
			updated, err := client.GetOrderStatus(ctx, current.OrderID)
			if err != nil {
				return current
			}
			current = updated
		}
	}
}

// cancelBestEffort attempts to cancel a leg's order; cancellation
// failures only escalate to a warning since the position remains
// exposed either way.
func (e *Engine) cancelBestEffort(ctx context.Context, client ExchangeClient, res legResult) {
	if res.resp == nil || res.resp.OrderID == "" {
		return
	}
	ok, err := client.CancelOrder(ctx, res.resp.OrderID)
	if err != nil || !ok {
		e.logger.Warn(ctx, "execution: cancellation failed, position may remain exposed",
			"exchange", client.Name(), "order_id", res.resp.OrderID)
	}
}

// resolveOutcome applies the 4.9 outcome matrix once both legs have
// reported back.
func (e *Engine) resolveOutcome(ctx context.Context, opp opportunitydomain.Opportunity, details opportunitydomain.MicroArbitrageDetails,
	notionalUSD float64, buyClient, sellClient ExchangeClient, buyRes, sellRes legResult, started time.Time) (*domain.ExecutionRecord, error) {

	buyOK := buyRes.err == nil && buyRes.resp != nil && buyRes.resp.Status == domain.OrderStatusFilled
	sellOK := sellRes.err == nil && sellRes.resp != nil && sellRes.resp.Status == domain.OrderStatusFilled

	switch {
	case buyOK && sellOK:
		profit := (sellRes.resp.AvgFillPrice - buyRes.resp.AvgFillPrice) * details.AmountTokens
		rec := e.record(opp, details, domain.OutcomeCompleted, domain.RiskLow, notionalUSD, profit, "", started)
		return rec, nil

	case buyOK && !sellOK:
		e.cancelBestEffort(ctx, buyClient, buyRes)
		tier := riskTier(notionalUSD, e.cfg)
		rec := e.record(opp, details, domain.OutcomePartiallyFilled, tier, notionalUSD, 0,
			fmt.Sprintf("sell leg failed: %v", sellRes.err), started)
		return rec, e.applyRiskTier(ctx, tier, details.Symbol, opp.ID)

	case !buyOK && sellOK:
		e.cancelBestEffort(ctx, sellClient, sellRes)
		tier := riskTier(notionalUSD, e.cfg)
		rec := e.record(opp, details, domain.OutcomePartiallyFilled, tier, notionalUSD, 0,
			fmt.Sprintf("buy leg failed: %v", buyRes.err), started)
		return rec, e.applyRiskTier(ctx, tier, details.Symbol, opp.ID)

	default:
		rec := e.record(opp, details, domain.OutcomeFailed, domain.RiskLow, notionalUSD, 0, "both legs failed, no position risk", started)
		return rec, nil
	}
}

// riskTier classifies a partial execution's exposure by notional size.
func riskTier(notionalUSD float64, cfg Config) domain.RiskTier {
	switch {
	case notionalUSD > cfg.CriticalRiskNotionalUSD:
		return domain.RiskCritical
	case notionalUSD > cfg.HighRiskNotionalUSD:
		return domain.RiskHigh
	default:
		return domain.RiskLow
	}
}

// applyRiskTier enacts the policy a partial execution's risk tier
// demands and returns the CodePartialExecution error every partial fill
// reports, regardless of tier.
func (e *Engine) applyRiskTier(ctx context.Context, tier domain.RiskTier, symbol, opportunityID string) error {
	switch tier {
	case domain.RiskCritical:
		e.mu.Lock()
		e.stopped = true
		e.mu.Unlock()
		e.logger.Error(ctx, "execution: critical-risk partial execution, engine stopped", "opportunity_id", opportunityID, "symbol", symbol)
		return apperror.New(apperror.CodePartialExecution,
			apperror.WithContext(fmt.Sprintf("opportunity %s: critical-risk partial execution, engine stopped", opportunityID)))
	case domain.RiskHigh:
		e.mu.Lock()
		e.blacklist[symbol] = true
		e.mu.Unlock()
		e.logger.Warn(ctx, "execution: high-risk partial execution, symbol blacklisted", "opportunity_id", opportunityID, "symbol", symbol)
		return apperror.New(apperror.CodePartialExecution,
			apperror.WithContext(fmt.Sprintf("opportunity %s: high-risk partial execution, symbol %s blacklisted", opportunityID, symbol)))
	default:
		e.logger.Warn(ctx, "execution: low-risk partial execution", "opportunity_id", opportunityID, "symbol", symbol)
		return apperror.New(apperror.CodePartialExecution,
			apperror.WithContext(fmt.Sprintf("opportunity %s: partial execution", opportunityID)))
	}
}

// record folds rec into the running statistics and appends it to the
// bounded execution history.
func (e *Engine) record(opp opportunitydomain.Opportunity, details opportunitydomain.MicroArbitrageDetails,
	outcome domain.Outcome, tier domain.RiskTier, notionalUSD, profitUSD float64, reason string, started time.Time) *domain.ExecutionRecord {

	rec := domain.ExecutionRecord{
		OpportunityID: opp.ID,
		Symbol:        details.Symbol,
		BuyExchange:   details.BuyExchange,
		SellExchange:  details.SellExchange,
		Outcome:       outcome,
		RiskTier:      tier,
		NotionalUSD:   notionalUSD,
		ProfitUSD:     profitUSD,
		Reason:        reason,
		StartedAt:     started,
		Duration:      time.Since(started),
	}
	e.stats.RecordExecution(rec)

	e.mu.Lock()
	e.history = append(e.history, rec)
	if len(e.history) > historyLimit {
		e.history = e.history[len(e.history)-historyLimit:]
	}
	e.mu.Unlock()

	return &rec
}
