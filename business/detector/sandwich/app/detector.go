package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	txdecoderdomain "github.com/fd1az/mev-searcher/business/txdecoder/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	tracerName = "github.com/fd1az/mev-searcher/business/detector/sandwich/app"
	meterName  = "github.com/fd1az/mev-searcher/business/detector/sandwich/app"
)

type detectorMetrics struct {
	txsClassified       metric.Int64Counter
	opportunitiesFound  metric.Int64Counter
	rejectedLowImpact   metric.Int64Counter
	rejectedUnprofitable metric.Int64Counter
	rejectedLowProb     metric.Int64Counter
	successProbability  metric.Float64Histogram
}

// Detector implements the sandwich strategy: classify pending transactions,
// price the target pool, size the sandwich and emit an Opportunity when it
// clears every threshold.
type Detector struct {
	mempool   MempoolSource
	classify  Classifier
	pools     PoolReader
	gas       GasPriceSource
	sink      OpportunitySink
	encoder   *codecapp.Encoder
	router    common.Address
	recipient common.Address
	cfg       Config
	logger    logger.LoggerInterface

	gasWindow *gasPercentileTracker

	tracer  trace.Tracer
	metrics *detectorMetrics
}

// NewDetector wires a sandwich Detector from its collaborators.
func NewDetector(
	mempool MempoolSource,
	classify Classifier,
	pools PoolReader,
	gas GasPriceSource,
	sink OpportunitySink,
	encoder *codecapp.Encoder,
	router, recipient common.Address,
	cfg Config,
	log logger.LoggerInterface,
) *Detector {
	d := &Detector{
		mempool:   mempool,
		classify:  classify,
		pools:     pools,
		gas:       gas,
		sink:      sink,
		encoder:   encoder,
		router:    router,
		recipient: recipient,
		cfg:       cfg,
		logger:    log,
		gasWindow: newGasPercentileTracker(cfg.GasWindowSize),
		tracer:    otel.Tracer(tracerName),
	}
	if err := d.initMetrics(); err != nil {
		log.Error(context.Background(), "sandwich: failed to init metrics", "error", err)
	}
	return d
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	d.metrics = &detectorMetrics{}

	if d.metrics.txsClassified, err = meter.Int64Counter("sandwich_txs_classified_total"); err != nil {
		return err
	}
	if d.metrics.opportunitiesFound, err = meter.Int64Counter("sandwich_opportunities_found_total"); err != nil {
		return err
	}
	if d.metrics.rejectedLowImpact, err = meter.Int64Counter("sandwich_rejected_low_impact_total"); err != nil {
		return err
	}
	if d.metrics.rejectedUnprofitable, err = meter.Int64Counter("sandwich_rejected_unprofitable_total"); err != nil {
		return err
	}
	if d.metrics.rejectedLowProb, err = meter.Int64Counter("sandwich_rejected_low_probability_total"); err != nil {
		return err
	}
	if d.metrics.successProbability, err = meter.Float64Histogram(
		"sandwich_success_probability",
		metric.WithExplicitBucketBoundaries(0, 0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0),
	); err != nil {
		return err
	}
	return nil
}

// Start subscribes to the mempool and begins the detection loop.
func (d *Detector) Start(ctx context.Context) error {
	txs, err := d.mempool.Subscribe(ctx)
	if err != nil {
		d.logger.Error(ctx, "sandwich: failed to subscribe to mempool", "error", err)
		return err
	}
	go d.run(ctx, txs)
	d.logger.Info(ctx, "sandwich detector started")
	return nil
}

func (d *Detector) run(ctx context.Context, txs <-chan *txdecoderdomain.Transaction) {
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "sandwich detector stopping", "reason", ctx.Err())
			return
		case tx := <-txs:
			if tx == nil {
				continue
			}
			if tx.GasPrice != nil {
				d.gasWindow.Observe(tx.GasPrice.Int64())
			}
			d.processTx(ctx, tx)
		}
	}
}

func (d *Detector) processTx(ctx context.Context, tx *txdecoderdomain.Transaction) {
	decoded, err := d.classify.Classify(ctx, tx)
	if err != nil || decoded.Kind != txdecoderdomain.KindSandwichTarget {
		return
	}
	d.metrics.txsClassified.Add(ctx, 1)

	ctx, span := d.tracer.Start(ctx, "sandwich.analyze",
		trace.WithAttributes(attribute.String("victim_tx", tx.Hash.Hex())))
	defer span.End()

	path, ok := decoded.Parameters["path"].([]common.Address)
	if !ok || len(path) < 2 {
		return
	}
	amountIn, ok := decoded.Parameters["amount_in"].(*big.Int)
	if !ok || amountIn == nil || amountIn.Sign() <= 0 {
		return
	}
	tokenIn, tokenOut := path[0], path[len(path)-1]

	pool, err := d.pools.GetPool(ctx, tokenIn, tokenOut)
	if err != nil {
		span.RecordError(err)
		return
	}
	reserveIn, reserveOut := pool.ReserveFor(tokenIn)
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return
	}

	impactPct := priceImpactPct(amountIn, reserveIn, reserveOut, pool.FeeBps)
	span.SetAttributes(attribute.Float64("price_impact_pct", impactPct))
	if impactPct < d.cfg.MinPriceImpactPct {
		d.metrics.rejectedLowImpact.Add(ctx, 1)
		return
	}

	optimalSize := d.optimalSandwichSize(amountIn, reserveIn, impactPct)
	if optimalSize.Sign() <= 0 {
		return
	}

	gasPriceWei, err := d.gas.GetGasPriceWei(ctx)
	if err != nil {
		span.RecordError(err)
		return
	}

	expectedProfitWei := expectedProfit(optimalSize, impactPct, d.cfg.ExpectedProfitFactor)
	gasCostWei := new(big.Int).Mul(
		big.NewInt(int64(d.cfg.LegGasLimit)*2),
		big.NewInt(gasPriceWei),
	)
	netProfitWei := new(big.Int).Sub(expectedProfitWei, gasCostWei)

	if netProfitWei.Cmp(d.cfg.MinProfitWei) < 0 {
		d.metrics.rejectedUnprofitable.Add(ctx, 1)
		return
	}
	netProfitPct := weiRatio(netProfitWei, optimalSize)
	if netProfitPct < d.cfg.MinProfitPct {
		d.metrics.rejectedUnprofitable.Add(ctx, 1)
		return
	}

	victimGasPrice := int64(0)
	if tx.GasPrice != nil {
		victimGasPrice = tx.GasPrice.Int64()
	}
	probability := d.successProbability(impactPct, netProfitPct, reserveIn, victimGasPrice, gasPriceWei)
	d.metrics.successProbability.Record(ctx, probability)
	if probability < d.cfg.MinSuccessProbability {
		d.metrics.rejectedLowProb.Add(ctx, 1)
		return
	}

	frontrunGas := d.gasWindow.Percentile(d.cfg.FrontrunGasPercentile, gasPriceWei*12/10)
	backrunGas := d.gasWindow.Percentile(d.cfg.BackrunGasPercentile, gasPriceWei*11/10)
	deadline := time.Now().Add(time.Duration(d.cfg.DeadlineSeconds) * time.Second)

	frontCalldata, backCalldata, err := d.buildCalldata(path, optimalSize, deadline)
	if err != nil {
		span.RecordError(err)
		return
	}

	opp := opportunitydomain.Opportunity{
		ID:                fmt.Sprintf("sandwich-%s", tx.Hash.Hex()),
		Strategy:          opportunitydomain.StrategySandwich,
		ExpectedProfitWei: netProfitWei,
		Confidence:        probability,
		GasEstimate:       d.cfg.LegGasLimit * 2,
		DiscoveredAt:      time.Now(),
		Details: opportunitydomain.SandwichDetails{
			VictimTxHash: tx.Hash,
			Pool:         pool.Pool,
			TokenIn:      tokenIn,
			TokenOut:     tokenOut,
			FrontrunTx:   frontCalldata,
			BackrunTx:    backCalldata,
		},
	}

	d.metrics.opportunitiesFound.Add(ctx, 1)
	span.SetAttributes(
		attribute.String("net_profit_wei", netProfitWei.String()),
		attribute.Float64("success_probability", probability),
		attribute.Int64("frontrun_gas_price", frontrunGas),
		attribute.Int64("backrun_gas_price", backrunGas),
	)

	if err := d.sink.Submit(ctx, opp); err != nil {
		d.logger.Error(ctx, "sandwich: failed to submit opportunity", "error", err)
	}
}

// optimalSandwichSize caps the sandwich at min(victim_amount*f,
// reserveIn/20), where f narrows to 0.3 once the victim's own price impact
// already exceeds the high-impact threshold.
func (d *Detector) optimalSandwichSize(amountIn, reserveIn *big.Int, impactPct float64) *big.Int {
	fraction := d.cfg.LowImpactSizeFraction
	if impactPct > d.cfg.HighImpactThresholdPct {
		fraction = d.cfg.HighImpactSizeFraction
	}

	byFraction := mulFloat(amountIn, fraction)
	byLiquidity := new(big.Int).Div(reserveIn, big.NewInt(d.cfg.ReserveFractionDivisor))

	if byFraction.Cmp(byLiquidity) < 0 {
		return byFraction
	}
	return byLiquidity
}

// successProbability multiplies four independent factors: gas
// competitiveness (can we out-bid the victim), profitability, pool
// liquidity depth, and baseline network congestion.
func (d *Detector) successProbability(impactPct, netProfitPct float64, reserveIn *big.Int, victimGasPrice, ourGasPrice int64) float64 {
	gasFactor := 0.4
	if victimGasPrice > 0 && ourGasPrice > victimGasPrice {
		gasFactor = 0.8
	}

	profitFactor := 0.6
	if netProfitPct > 0.01 {
		profitFactor = 0.9
	}

	liquidityFactor := 0.7
	if reserveIn != nil && reserveIn.Cmp(d.cfg.LiquidityThresholdWei) >= 0 {
		liquidityFactor = 0.9
	}

	const congestionFactor = 0.8

	p := gasFactor * profitFactor * liquidityFactor * congestionFactor
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// buildCalldata encodes the frontrun swap along the victim's path and the
// backrun swap along the reversed path, using the full optimal size as the
// frontrun's amount_in and the frontrun's implied output as the backrun's.
func (d *Detector) buildCalldata(path []common.Address, amountIn *big.Int, deadline time.Time) ([]byte, []byte, error) {
	deadlineBig := big.NewInt(deadline.Unix())

	frontCalldata, err := d.encoder.SwapExactTokensForTokens(amountIn, big.NewInt(0), path, d.recipient, deadlineBig)
	if err != nil {
		return nil, nil, err
	}

	reversed := make([]common.Address, len(path))
	for i, addr := range path {
		reversed[len(path)-1-i] = addr
	}
	backCalldata, err := d.encoder.SwapExactTokensForTokens(amountIn, big.NewInt(0), reversed, d.recipient, deadlineBig)
	if err != nil {
		return nil, nil, err
	}
	return frontCalldata, backCalldata, nil
}

// Stop is a no-op: the detection goroutine exits when ctx is cancelled.
func (d *Detector) Stop() error {
	return nil
}
