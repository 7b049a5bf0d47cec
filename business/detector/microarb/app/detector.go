package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/detector/microarb/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	tracerName = "github.com/fd1az/mev-searcher/business/detector/microarb/app"
	meterName  = "github.com/fd1az/mev-searcher/business/detector/microarb/app"
)

type detectorMetrics struct {
	symbolsScanned     metric.Int64Counter
	opportunitiesFound metric.Int64Counter
	rejectedNoSpread   metric.Int64Counter
	gatedByBernoulli   metric.Int64Counter
	bestSpreadPct      metric.Float64Histogram
}

// Detector implements the micro-arbitrage strategy: poll every enabled
// exchange source in parallel, compare every ordered pair of venues for a
// fee-adjusted spread, and emit at most one Opportunity per symbol per
// scan.
type Detector struct {
	sources []ExchangeSource
	sink    OpportunitySink
	cfg     Config
	logger  logger.LoggerInterface
	rng     *rand.Rand
	rngMu   sync.Mutex

	tracer  trace.Tracer
	metrics *detectorMetrics
}

// NewDetector wires a micro-arbitrage Detector from its collaborators.
// A nil rng seeds a fresh one from the current time.
func NewDetector(sources []ExchangeSource, sink OpportunitySink, cfg Config, log logger.LoggerInterface, rng *rand.Rand) *Detector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Detector{
		sources: sources,
		sink:    sink,
		cfg:     cfg,
		logger:  log,
		rng:     rng,
		tracer:  otel.Tracer(tracerName),
	}
	if err := d.initMetrics(); err != nil {
		log.Error(context.Background(), "microarb: failed to init metrics", "error", err)
	}
	return d
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	d.metrics = &detectorMetrics{}

	if d.metrics.symbolsScanned, err = meter.Int64Counter("microarb_symbols_scanned_total"); err != nil {
		return err
	}
	if d.metrics.opportunitiesFound, err = meter.Int64Counter("microarb_opportunities_found_total"); err != nil {
		return err
	}
	if d.metrics.rejectedNoSpread, err = meter.Int64Counter("microarb_rejected_no_spread_total"); err != nil {
		return err
	}
	if d.metrics.gatedByBernoulli, err = meter.Int64Counter("microarb_gated_by_bernoulli_total"); err != nil {
		return err
	}
	if d.metrics.bestSpreadPct, err = meter.Float64Histogram(
		"microarb_best_spread_pct",
		metric.WithExplicitBucketBoundaries(0, 0.05, 0.1, 0.25, 0.5, 1, 2, 5),
	); err != nil {
		return err
	}
	return nil
}

// Start begins the periodic poll loop, running one scan immediately
// before settling into the configured cadence.
func (d *Detector) Start(ctx context.Context) error {
	go d.run(ctx)
	d.logger.Info(ctx, "micro-arbitrage detector started", "scan_interval", d.cfg.ScanInterval.String(), "symbols", d.cfg.Symbols)
	return nil
}

func (d *Detector) run(ctx context.Context) {
	d.scan(ctx)

	ticker := time.NewTicker(d.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "micro-arbitrage detector stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			d.scan(ctx)
		}
	}
}

func (d *Detector) scan(ctx context.Context) {
	ctx, span := d.tracer.Start(ctx, "microarb.scan")
	defer span.End()

	for _, symbol := range d.cfg.Symbols {
		d.metrics.symbolsScanned.Add(ctx, 1)
		d.evaluateSymbol(ctx, symbol)
	}
}

// evaluateSymbol polls every source in parallel for one symbol, then
// compares every ordered pair of venues for the best fee-adjusted spread.
func (d *Detector) evaluateSymbol(ctx context.Context, symbol string) {
	quotes := d.pollAll(ctx, symbol)
	if len(quotes) < 2 {
		return
	}

	ctx, span := d.tracer.Start(ctx, "microarb.evaluate", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	var bestProfitPct float64
	var bestBuy, bestSell domain.ExchangeQuote
	found := false

	for _, buy := range quotes {
		for _, sell := range quotes {
			if buy.Exchange == sell.Exchange {
				continue
			}
			effBuy := effectiveBuyPrice(buy.Ask, buy.FeeBps)
			effSell := effectiveSellPrice(sell.Bid, sell.FeeBps)
			if effSell <= effBuy {
				continue
			}
			pct := profitPct(effBuy, effSell)
			if pct < d.cfg.MinProfitPct {
				continue
			}
			if !found || pct > bestProfitPct {
				bestProfitPct = pct
				bestBuy = buy
				bestSell = sell
				found = true
			}
		}
	}

	if !found {
		d.metrics.rejectedNoSpread.Add(ctx, 1)
		return
	}
	d.metrics.bestSpreadPct.Record(ctx, bestProfitPct)

	if !d.bernoulliGate() {
		d.metrics.gatedByBernoulli.Add(ctx, 1)
		return
	}

	amountUSD := d.cfg.MinAmountUSD + d.randFloat()*(d.cfg.MaxAmountUSD-d.cfg.MinAmountUSD)
	amountTokens := 0.0
	if bestBuy.Ask > 0 {
		amountTokens = amountUSD / bestBuy.Ask
	}
	profitUSD := amountUSD * bestProfitPct / 100

	opp := opportunitydomain.Opportunity{
		ID:                fmt.Sprintf("microarb-%s-%d", symbol, time.Now().UnixNano()),
		Strategy:          opportunitydomain.StrategyMicroArbitrage,
		ExpectedProfitWei: usdToWei(profitUSD),
		Confidence:        confidence(bestProfitPct, d.cfg.MinProfitPct),
		GasEstimate:       0,
		DiscoveredAt:      time.Now(),
		Details: opportunitydomain.MicroArbitrageDetails{
			Symbol:       symbol,
			BuyExchange:  bestBuy.Exchange,
			SellExchange: bestSell.Exchange,
			BuyPrice:     bestBuy.Ask,
			SellPrice:    bestSell.Bid,
			AmountTokens: amountTokens,
		},
	}

	d.metrics.opportunitiesFound.Add(ctx, 1)
	span.SetAttributes(
		attribute.Float64("profit_pct", bestProfitPct),
		attribute.String("buy_exchange", bestBuy.Exchange),
		attribute.String("sell_exchange", bestSell.Exchange),
	)

	if err := d.sink.Submit(ctx, opp); err != nil {
		d.logger.Error(ctx, "microarb: failed to submit opportunity", "error", err)
	}
}

// pollAll queries every source concurrently, following the fan-out/
// collect-under-mutex shape business/oracle/app/aggregator.go uses to
// poll its price feeds.
func (d *Detector) pollAll(ctx context.Context, symbol string) []domain.ExchangeQuote {
	quotes := make([]domain.ExchangeQuote, 0, len(d.sources))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, src := range d.sources {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := src.GetQuote(ctx, symbol)
			if err != nil {
				d.logger.Warn(ctx, "microarb: quote failed", "exchange", src.Name(), "symbol", symbol, "error", err)
				return
			}
			mu.Lock()
			quotes = append(quotes, q)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return quotes
}

func (d *Detector) bernoulliGate() bool {
	return d.randFloat() < d.cfg.OpportunityRate
}

func (d *Detector) randFloat() float64 {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	return d.rng.Float64()
}

// confidence grows with how far the spread clears the minimum threshold,
// since a deeper fee-adjusted spread is more likely to survive slippage
// and latency before both legs fill.
func confidence(profitPct, minProfitPct float64) float64 {
	if minProfitPct <= 0 {
		minProfitPct = 0.01
	}
	c := 0.5 + (profitPct/minProfitPct-1)*0.1
	if c < 0.5 {
		return 0.5
	}
	if c > 0.95 {
		return 0.95
	}
	return c
}

// Stop is a no-op: the scan loop exits when ctx is cancelled.
func (d *Detector) Stop() error {
	return nil
}
