package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/detector/triangular/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	tracerName = "github.com/fd1az/mev-searcher/business/detector/triangular/app"
	meterName  = "github.com/fd1az/mev-searcher/business/detector/triangular/app"
)

type detectorMetrics struct {
	pathsScanned       metric.Int64Counter
	opportunitiesFound metric.Int64Counter
	rejectedNoReturn   metric.Int64Counter
	rejectedLowProfit  metric.Int64Counter
	rejectedNetNegative metric.Int64Counter
	profitPct          metric.Float64Histogram
}

// Detector implements the multi-asset triangular arbitrage strategy: for
// every configured path, quote the four legs through C4's parallel route
// search and emit an Opportunity when the round trip clears its flash-
// loan premium and gas cost.
type Detector struct {
	router   RouteSearcher
	gasPrice GasPriceSource
	sink     OpportunitySink
	cfg      Config
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *detectorMetrics
}

// NewDetector wires a triangular arbitrage Detector from its collaborators.
func NewDetector(router RouteSearcher, gasPrice GasPriceSource, sink OpportunitySink, cfg Config, log logger.LoggerInterface) *Detector {
	d := &Detector{
		router:   router,
		gasPrice: gasPrice,
		sink:     sink,
		cfg:      cfg,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := d.initMetrics(); err != nil {
		log.Error(context.Background(), "triangular: failed to init metrics", "error", err)
	}
	return d
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	d.metrics = &detectorMetrics{}

	if d.metrics.pathsScanned, err = meter.Int64Counter("triangular_paths_scanned_total"); err != nil {
		return err
	}
	if d.metrics.opportunitiesFound, err = meter.Int64Counter("triangular_opportunities_found_total"); err != nil {
		return err
	}
	if d.metrics.rejectedNoReturn, err = meter.Int64Counter("triangular_rejected_no_return_total"); err != nil {
		return err
	}
	if d.metrics.rejectedLowProfit, err = meter.Int64Counter("triangular_rejected_low_profit_total"); err != nil {
		return err
	}
	if d.metrics.rejectedNetNegative, err = meter.Int64Counter("triangular_rejected_net_negative_total"); err != nil {
		return err
	}
	if d.metrics.profitPct, err = meter.Float64Histogram(
		"triangular_profit_pct",
		metric.WithExplicitBucketBoundaries(0, 0.25, 0.5, 1, 2, 5, 10),
	); err != nil {
		return err
	}
	return nil
}

// Start begins the periodic scan loop.
func (d *Detector) Start(ctx context.Context) error {
	go d.run(ctx)
	d.logger.Info(ctx, "triangular arbitrage detector started", "scan_interval", d.cfg.ScanInterval.String(), "paths", len(d.cfg.Paths))
	return nil
}

func (d *Detector) run(ctx context.Context) {
	d.scan(ctx)

	ticker := time.NewTicker(d.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "triangular arbitrage detector stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			d.scan(ctx)
		}
	}
}

func (d *Detector) scan(ctx context.Context) {
	ctx, span := d.tracer.Start(ctx, "triangular.scan")
	defer span.End()

	for _, path := range d.cfg.Paths {
		d.metrics.pathsScanned.Add(ctx, 1)
		if err := d.evaluatePath(ctx, path); err != nil {
			d.logger.Warn(ctx, "triangular: path evaluation failed", "error", err)
		}
	}
}

// evaluatePath runs the four-leg round trip for one configured path and
// submits an Opportunity if it clears every threshold.
func (d *Detector) evaluatePath(ctx context.Context, path domain.Path) error {
	ctx, span := d.tracer.Start(ctx, "triangular.evaluate", trace.WithAttributes(
		attribute.String("asset_a", path.AssetA.Hex()),
		attribute.String("asset_b", path.AssetB.Hex()),
		attribute.String("asset_c", path.AssetC.Hex()),
	))
	defer span.End()

	quoteCFromA, dexAC, err := d.router.SearchBestRoute(ctx, path.AssetA, path.AssetC, path.BaseAmountWei, d.cfg.SlippageBps, d.cfg.VolatilityPct)
	if err != nil || quoteCFromA.AmountOut == nil || quoteCFromA.AmountOut.Sign() == 0 {
		d.metrics.rejectedNoReturn.Add(ctx, 1)
		return nil
	}

	quoteCFromB, dexBC, err := d.router.SearchBestRoute(ctx, path.AssetB, path.AssetC, path.BaseAmountWei, d.cfg.SlippageBps, d.cfg.VolatilityPct)
	if err != nil || quoteCFromB.AmountOut == nil || quoteCFromB.AmountOut.Sign() == 0 {
		d.metrics.rejectedNoReturn.Add(ctx, 1)
		return nil
	}

	totalC := new(big.Int).Add(quoteCFromA.AmountOut, quoteCFromB.AmountOut)
	halfC := new(big.Int).Div(totalC, big.NewInt(2))
	remainingC := new(big.Int).Sub(totalC, halfC)

	quoteAFromC, dexCA, err := d.router.SearchBestRoute(ctx, path.AssetC, path.AssetA, halfC, d.cfg.SlippageBps, d.cfg.VolatilityPct)
	if err != nil || quoteAFromC.AmountOut == nil || quoteAFromC.AmountOut.Sign() == 0 {
		d.metrics.rejectedNoReturn.Add(ctx, 1)
		return nil
	}

	quoteBFromC, dexCB, err := d.router.SearchBestRoute(ctx, path.AssetC, path.AssetB, remainingC, d.cfg.SlippageBps, d.cfg.VolatilityPct)
	if err != nil || quoteBFromC.AmountOut == nil || quoteBFromC.AmountOut.Sign() == 0 {
		d.metrics.rejectedNoReturn.Add(ctx, 1)
		return nil
	}

	totalReturn := new(big.Int).Add(quoteAFromC.AmountOut, quoteBFromC.AmountOut)
	totalInput := new(big.Int).Mul(path.BaseAmountWei, big.NewInt(2))

	if totalReturn.Cmp(totalInput) <= 0 {
		d.metrics.rejectedNoReturn.Add(ctx, 1)
		return nil
	}

	profit := new(big.Int).Sub(totalReturn, totalInput)
	pct := profitPercentage(totalReturn, totalInput)
	d.metrics.profitPct.Record(ctx, pct)

	if pct < d.cfg.MinProfitPct {
		d.metrics.rejectedLowProfit.Add(ctx, 1)
		return nil
	}

	premium := flashLoanPremium(totalInput, d.cfg.FlashLoanPremiumBps)

	gasPriceWei, err := d.gasPrice.GetGasPriceWei(ctx)
	if err != nil {
		return fmt.Errorf("triangular: gas price lookup failed: %w", err)
	}
	gasCost := gasCostWei(d.cfg.GasLimit, big.NewInt(gasPriceWei))

	netProfit := new(big.Int).Sub(profit, premium)
	netProfit.Sub(netProfit, gasCost)

	if netProfit.Sign() <= 0 {
		d.metrics.rejectedNetNegative.Add(ctx, 1)
		return nil
	}

	uniqueDexes := uniqueAdapterCount(dexAC, dexBC, dexCA, dexCB)
	confidence := baseConfidence(pct) + dexDiversityBonus(uniqueDexes)
	if confidence > 1 {
		confidence = 1
	}

	opp := opportunitydomain.Opportunity{
		ID:                fmt.Sprintf("triangular-%s-%s-%s-%d", path.AssetA.Hex(), path.AssetB.Hex(), path.AssetC.Hex(), time.Now().UnixNano()),
		Strategy:          opportunitydomain.StrategyMultiAssetArbitrage,
		ExpectedProfitWei: netProfit,
		Confidence:        confidence,
		GasEstimate:       d.cfg.GasLimit,
		DiscoveredAt:      time.Now(),
		Details: opportunitydomain.MultiAssetArbitrageDetails{
			BorrowAsset:         path.AssetA,
			BorrowAmountWei:     path.BaseAmountWei,
			SwapSequence:        []string{dexAC.Name(), dexBC.Name(), dexCA.Name(), dexCB.Name()},
			FlashLoanPremiumBps: d.cfg.FlashLoanPremiumBps,
			DEXDiversityCount:   uniqueDexes,
		},
	}

	d.metrics.opportunitiesFound.Add(ctx, 1)
	span.SetAttributes(
		attribute.Float64("profit_pct", pct),
		attribute.Int("unique_dexes", uniqueDexes),
	)

	if err := d.sink.Submit(ctx, opp); err != nil {
		d.logger.Error(ctx, "triangular: failed to submit opportunity", "error", err)
	}
	return nil
}

type namedAdapter interface{ Name() string }

func uniqueAdapterCount(adapters ...namedAdapter) int {
	seen := make(map[string]struct{}, len(adapters))
	for _, a := range adapters {
		if a == nil {
			continue
		}
		seen[a.Name()] = struct{}{}
	}
	return len(seen)
}

// Stop is a no-op: the scan loop exits when ctx is cancelled.
func (d *Detector) Stop() error {
	return nil
}
