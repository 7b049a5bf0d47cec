package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/business/execution/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type fakeExchange struct {
	name      string
	connected bool
	latencyMs float64

	mu          sync.Mutex
	placeErr    error
	placeStatus domain.OrderStatus
	cancelled   []string
	cancelErr   error
	cancelOK    bool
}

func (f *fakeExchange) Name() string               { return f.name }
func (f *fakeExchange) IsConnected() bool           { return f.connected }
func (f *fakeExchange) AverageLatencyMs() float64   { return f.latencyMs }

func (f *fakeExchange) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	status := f.placeStatus
	if status == "" {
		status = domain.OrderStatusFilled
	}
	return &domain.OrderResponse{
		OrderID:            f.name + "-order",
		Exchange:           f.name,
		Status:             status,
		FilledAmountTokens: req.AmountTokens,
		AvgFillPrice:       req.LimitPrice,
	}, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
	if f.cancelErr != nil {
		return false, f.cancelErr
	}
	return f.cancelOK, nil
}

func (f *fakeExchange) GetOrderStatus(ctx context.Context, orderID string) (*domain.OrderResponse, error) {
	return &domain.OrderResponse{OrderID: orderID, Exchange: f.name, Status: domain.OrderStatusFilled}, nil
}

func (f *fakeExchange) GetOrderFills(ctx context.Context, orderID string) ([]domain.Fill, error) {
	return nil, nil
}

func (f *fakeExchange) GetBalance(ctx context.Context, token string) (float64, error) {
	return 1_000_000, nil
}

func (f *fakeExchange) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}

func testOpportunity(details opportunitydomain.MicroArbitrageDetails) opportunitydomain.Opportunity {
	return opportunitydomain.Opportunity{
		ID:       "opp-1",
		Strategy: opportunitydomain.StrategyMicroArbitrage,
		Details:  details,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ExecutionDeadline = 200 * time.Millisecond
	cfg.FillPollInterval = 10 * time.Millisecond
	return cfg
}

func TestExecute_BothLegsFillCompletes(t *testing.T) {
	buy := &fakeExchange{name: "coinbase", connected: true, latencyMs: 50}
	sell := &fakeExchange{name: "binance", connected: true, latencyMs: 50}
	engine := NewEngine(map[string]ExchangeClient{"coinbase": buy, "binance": sell}, testConfig(), nopLogger{})

	opp := testOpportunity(opportunitydomain.MicroArbitrageDetails{
		Symbol: "ETHUSDC", BuyExchange: "coinbase", SellExchange: "binance",
		BuyPrice: 2000, SellPrice: 2010, AmountTokens: 1,
	})

	rec, err := engine.Execute(context.Background(), opp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Outcome != domain.OutcomeCompleted {
		t.Fatalf("outcome = %v, want completed", rec.Outcome)
	}
	if rec.ProfitUSD != 10 {
		t.Fatalf("profit = %v, want 10", rec.ProfitUSD)
	}
}

func TestExecute_RejectsNonMicroArbitrageStrategy(t *testing.T) {
	engine := NewEngine(map[string]ExchangeClient{}, testConfig(), nopLogger{})
	opp := opportunitydomain.Opportunity{ID: "opp-2", Strategy: opportunitydomain.StrategySandwich}

	_, err := engine.Execute(context.Background(), opp)
	if apperror.GetCode(err) != apperror.CodeInvalidState {
		t.Fatalf("code = %v, want CodeInvalidState", apperror.GetCode(err))
	}
}

func TestExecute_LowRiskPartialFillLogsOnly(t *testing.T) {
	buy := &fakeExchange{name: "coinbase", connected: true, latencyMs: 50}
	sell := &fakeExchange{name: "binance", connected: true, latencyMs: 50, placeErr: errors.New("insufficient liquidity")}
	engine := NewEngine(map[string]ExchangeClient{"coinbase": buy, "binance": sell}, testConfig(), nopLogger{})

	opp := testOpportunity(opportunitydomain.MicroArbitrageDetails{
		Symbol: "ETHUSDC", BuyExchange: "coinbase", SellExchange: "binance",
		BuyPrice: 10, SellPrice: 10.5, AmountTokens: 1,
	})

	rec, err := engine.Execute(context.Background(), opp)
	if rec.Outcome != domain.OutcomePartiallyFilled {
		t.Fatalf("outcome = %v, want partially_filled", rec.Outcome)
	}
	if rec.RiskTier != domain.RiskLow {
		t.Fatalf("risk tier = %v, want low", rec.RiskTier)
	}
	if apperror.GetCode(err) != apperror.CodePartialExecution {
		t.Fatalf("code = %v, want CodePartialExecution", apperror.GetCode(err))
	}
	if engine.IsStopped() {
		t.Fatalf("engine should not stop on a low-risk partial fill")
	}
	buy.mu.Lock()
	cancelled := len(buy.cancelled)
	buy.mu.Unlock()
	if cancelled != 1 {
		t.Fatalf("expected the filled leg to be cancelled, got %d cancel calls", cancelled)
	}
}

func TestExecute_CriticalRiskPartialFillStopsEngine(t *testing.T) {
	buy := &fakeExchange{name: "coinbase", connected: true, latencyMs: 50}
	sell := &fakeExchange{name: "binance", connected: true, latencyMs: 50, placeErr: errors.New("rejected")}
	engine := NewEngine(map[string]ExchangeClient{"coinbase": buy, "binance": sell}, testConfig(), nopLogger{})

	opp := testOpportunity(opportunitydomain.MicroArbitrageDetails{
		Symbol: "ETHUSDC", BuyExchange: "coinbase", SellExchange: "binance",
		BuyPrice: 50_000, SellPrice: 50_100, AmountTokens: 1,
	})

	_, err := engine.Execute(context.Background(), opp)
	if apperror.GetCode(err) != apperror.CodePartialExecution {
		t.Fatalf("code = %v, want CodePartialExecution", apperror.GetCode(err))
	}
	if !engine.IsStopped() {
		t.Fatalf("expected engine to stop after a critical-risk partial fill")
	}

	_, err = engine.Execute(context.Background(), opp)
	if apperror.GetCode(err) != apperror.CodeQueueRejected {
		t.Fatalf("code = %v, want CodeQueueRejected once stopped", apperror.GetCode(err))
	}
}

func TestExecute_BothLegsFailReportsFailedWithNoPartialError(t *testing.T) {
	buy := &fakeExchange{name: "coinbase", connected: true, latencyMs: 50, placeErr: errors.New("down")}
	sell := &fakeExchange{name: "binance", connected: true, latencyMs: 50, placeErr: errors.New("down")}
	engine := NewEngine(map[string]ExchangeClient{"coinbase": buy, "binance": sell}, testConfig(), nopLogger{})

	opp := testOpportunity(opportunitydomain.MicroArbitrageDetails{
		Symbol: "ETHUSDC", BuyExchange: "coinbase", SellExchange: "binance",
		BuyPrice: 2000, SellPrice: 2010, AmountTokens: 1,
	})

	rec, err := engine.Execute(context.Background(), opp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Outcome != domain.OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", rec.Outcome)
	}
}

func TestExecute_DisconnectedExchangeFailsFast(t *testing.T) {
	buy := &fakeExchange{name: "coinbase", connected: false, latencyMs: 50}
	sell := &fakeExchange{name: "binance", connected: true, latencyMs: 50}
	engine := NewEngine(map[string]ExchangeClient{"coinbase": buy, "binance": sell}, testConfig(), nopLogger{})

	opp := testOpportunity(opportunitydomain.MicroArbitrageDetails{
		Symbol: "ETHUSDC", BuyExchange: "coinbase", SellExchange: "binance",
		BuyPrice: 2000, SellPrice: 2010, AmountTokens: 1,
	})

	rec, err := engine.Execute(context.Background(), opp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Outcome != domain.OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", rec.Outcome)
	}
}

func TestExecute_UnknownExchangeRejected(t *testing.T) {
	engine := NewEngine(map[string]ExchangeClient{}, testConfig(), nopLogger{})
	opp := testOpportunity(opportunitydomain.MicroArbitrageDetails{
		Symbol: "ETHUSDC", BuyExchange: "coinbase", SellExchange: "binance",
		BuyPrice: 2000, SellPrice: 2010, AmountTokens: 1,
	})

	_, err := engine.Execute(context.Background(), opp)
	if apperror.GetCode(err) != apperror.CodeInvalidState {
		t.Fatalf("code = %v, want CodeInvalidState", apperror.GetCode(err))
	}
}

func TestStats_TracksCompletedExecution(t *testing.T) {
	buy := &fakeExchange{name: "coinbase", connected: true, latencyMs: 50}
	sell := &fakeExchange{name: "binance", connected: true, latencyMs: 50}
	engine := NewEngine(map[string]ExchangeClient{"coinbase": buy, "binance": sell}, testConfig(), nopLogger{})

	opp := testOpportunity(opportunitydomain.MicroArbitrageDetails{
		Symbol: "ETHUSDC", BuyExchange: "coinbase", SellExchange: "binance",
		BuyPrice: 2000, SellPrice: 2010, AmountTokens: 1,
	})
	if _, err := engine.Execute(context.Background(), opp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := engine.Stats()
	if snap.TotalExecutions != 1 || snap.Completed != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(engine.History()) != 1 {
		t.Fatalf("expected one history entry, got %d", len(engine.History()))
	}
}

// nopLogger discards every call; engine tests only assert on return
// values and stats, never on log output.
type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, kv ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, kv ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, kv ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, kv ...any) {}
func (nopLogger) With(kv ...any) logger.LoggerInterface            { return nopLogger{} }
