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

	"github.com/fd1az/mev-searcher/business/detector/liquidation/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	tracerName = "github.com/fd1az/mev-searcher/business/detector/liquidation/app"
	meterName  = "github.com/fd1az/mev-searcher/business/detector/liquidation/app"
)

type detectorMetrics struct {
	usersScanned        metric.Int64Counter
	opportunitiesFound  metric.Int64Counter
	rejectedNotLiquid   metric.Int64Counter
	rejectedDust        metric.Int64Counter
	priorityScore       metric.Float64Histogram
}

// Detector implements the liquidation strategy: periodically scan
// lending-protocol user state, flag positions below a 1.0 health factor,
// and emit an Opportunity sized by the protocol's close factor.
type Detector struct {
	positions PositionSource
	sink      OpportunitySink
	cfg       Config
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *detectorMetrics
}

// NewDetector wires a liquidation Detector from its collaborators.
func NewDetector(positions PositionSource, sink OpportunitySink, cfg Config, log logger.LoggerInterface) *Detector {
	d := &Detector{
		positions: positions,
		sink:      sink,
		cfg:       cfg,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	if err := d.initMetrics(); err != nil {
		log.Error(context.Background(), "liquidation: failed to init metrics", "error", err)
	}
	return d
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	d.metrics = &detectorMetrics{}

	if d.metrics.usersScanned, err = meter.Int64Counter("liquidation_users_scanned_total"); err != nil {
		return err
	}
	if d.metrics.opportunitiesFound, err = meter.Int64Counter("liquidation_opportunities_found_total"); err != nil {
		return err
	}
	if d.metrics.rejectedNotLiquid, err = meter.Int64Counter("liquidation_rejected_healthy_total"); err != nil {
		return err
	}
	if d.metrics.rejectedDust, err = meter.Int64Counter("liquidation_rejected_dust_total"); err != nil {
		return err
	}
	if d.metrics.priorityScore, err = meter.Float64Histogram(
		"liquidation_priority_score",
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 50, 100, 500, 1000),
	); err != nil {
		return err
	}
	return nil
}

// Start begins the periodic scan loop, running one scan immediately
// before settling into the configured cadence.
func (d *Detector) Start(ctx context.Context) error {
	go d.run(ctx)
	d.logger.Info(ctx, "liquidation detector started", "scan_interval", d.cfg.ScanInterval.String())
	return nil
}

func (d *Detector) run(ctx context.Context) {
	d.scan(ctx)

	ticker := time.NewTicker(d.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "liquidation detector stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			d.scan(ctx)
		}
	}
}

func (d *Detector) scan(ctx context.Context) {
	ctx, span := d.tracer.Start(ctx, "liquidation.scan")
	defer span.End()

	positions, err := d.positions.ScanPositions(ctx)
	if err != nil {
		span.RecordError(err)
		d.logger.Error(ctx, "liquidation: scan failed", "error", err)
		return
	}
	d.metrics.usersScanned.Add(ctx, int64(len(positions)))

	for _, pos := range positions {
		d.evaluate(ctx, pos)
	}
}

func (d *Detector) evaluate(ctx context.Context, pos domain.Position) {
	if !pos.IsLiquidatable() {
		d.metrics.rejectedNotLiquid.Add(ctx, 1)
		return
	}

	ctx, span := d.tracer.Start(ctx, "liquidation.evaluate",
		trace.WithAttributes(
			attribute.String("user", pos.User.Hex()),
			attribute.String("protocol", pos.Protocol),
			attribute.Float64("health_factor", pos.HealthFactor),
		))
	defer span.End()

	debt, ok := pos.LargestDebt()
	if !ok || debt.DebtUSD < d.cfg.MinDebtToCoverUSD {
		d.metrics.rejectedDust.Add(ctx, 1)
		return
	}
	collateral, ok := pos.LargestCollateral()
	if !ok {
		return
	}

	score := priorityScore(pos.TotalDebtUSD, pos.HealthFactor)
	d.metrics.priorityScore.Record(ctx, score)

	debtToCoverWei := maxLiquidatableDebtWei(debt.DebtWei, d.cfg.CloseFactor)
	if debtToCoverWei.Sign() <= 0 {
		return
	}
	bonusWei := mulFloat(debtToCoverWei, d.cfg.LiquidationBonusPct/100)

	opp := opportunitydomain.Opportunity{
		ID:                fmt.Sprintf("liquidation-%s-%s", pos.Protocol, pos.User.Hex()),
		Strategy:          opportunitydomain.StrategyLiquidation,
		ExpectedProfitWei: bonusWei,
		Confidence:        confidence(pos.HealthFactor),
		GasEstimate:       d.cfg.LegGasLimit,
		DiscoveredAt:      time.Now(),
		Details: opportunitydomain.LiquidationDetails{
			TargetUser:          pos.User,
			Protocol:            pos.Protocol,
			CollateralAsset:     collateral.Asset,
			DebtAsset:           debt.Asset,
			DebtToCoverWei:      debtToCoverWei,
			HealthFactor:        pos.HealthFactor,
			LiquidationBonusPct: d.cfg.LiquidationBonusPct,
		},
	}

	d.metrics.opportunitiesFound.Add(ctx, 1)
	span.SetAttributes(
		attribute.Float64("priority_score", score),
		attribute.String("debt_to_cover_wei", debtToCoverWei.String()),
	)

	if err := d.sink.Submit(ctx, opp); err != nil {
		d.logger.Error(ctx, "liquidation: failed to submit opportunity", "error", err)
	}
}

// confidence derives a rough execution-certainty proxy from how far below
// 1.0 the health factor has fallen: a deeply underwater position is very
// unlikely to be rescued by the borrower before the liquidation lands, a
// borderline one (HF just under 1) could recover first.
func confidence(healthFactor float64) float64 {
	c := 1.1 - healthFactor
	if c < 0.5 {
		return 0.5
	}
	if c > 0.99 {
		return 0.99
	}
	return c
}

// Stop is a no-op: the scan loop exits when ctx is cancelled.
func (d *Detector) Stop() error {
	return nil
}
