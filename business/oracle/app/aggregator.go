package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/oracle/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/cache"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	tracerName = "oracle"
	meterName  = "oracle"
)

// Strategy selects how the aggregator combines survivor prices into one.
type Strategy string

const (
	StrategyMedian       Strategy = "median"
	StrategyMean         Strategy = "mean"
	StrategyWeightedMean Strategy = "weighted-mean"
	StrategyMode         Strategy = "mode"
	StrategyMostReliable Strategy = "most-reliable"
	StrategyMostRecent   Strategy = "most-recent"
)

// Feed pairs an oracle with its priority (lower = preferred for tie-breaks,
// unused beyond ordering) and aggregation weight.
type Feed struct {
	Oracle Oracle
	Weight float64
}

// AggregatorConfig tunes deviation tolerance, minimum survivors, cache TTL,
// and the per-oracle collection timeout.
type AggregatorConfig struct {
	Strategy        Strategy
	MaxDeviationPct float64       // default 5.0
	MinSources      int           // default 2
	CacheTTL        time.Duration // default 60s
	PerOracleTimeout time.Duration // default 2s
}

// DefaultAggregatorConfig returns spec.md §4.3's defaults.
func DefaultAggregatorConfig(strategy Strategy) AggregatorConfig {
	return AggregatorConfig{
		Strategy:         strategy,
		MaxDeviationPct:  5.0,
		MinSources:       2,
		CacheTTL:         60 * time.Second,
		PerOracleTimeout: 2 * time.Second,
	}
}

type aggregatorMetrics struct {
	collectionsTotal metric.Int64Counter
	sourceFailures   metric.Int64Counter
	deviationEvents  metric.Int64Counter
	cacheHits        metric.Int64Counter
}

// Aggregator collects prices from N oracle feeds in parallel, validates
// them, requires a minimum number of survivors, combines them by the
// configured Strategy, flags (without excluding) outliers beyond the
// deviation threshold, and caches the result per token.
type Aggregator struct {
	mu    sync.RWMutex
	feeds []Feed
	cfg   AggregatorConfig

	cache  *cache.Cache[common.Address, domain.PriceData]
	logger logger.LoggerInterface
	tracer trace.Tracer

	metrics *aggregatorMetrics
}

var _ Oracle = (*Aggregator)(nil)

// NewAggregator creates an empty Aggregator; feeds are added with AddFeed.
func NewAggregator(cfg AggregatorConfig, log logger.LoggerInterface) (*Aggregator, error) {
	a := &Aggregator{
		cfg:    cfg,
		cache:  cache.New[common.Address, domain.PriceData](cfg.CacheTTL),
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Aggregator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	a.metrics = &aggregatorMetrics{}

	if a.metrics.collectionsTotal, err = meter.Int64Counter(
		"oracle_collections_total",
		metric.WithDescription("Total price collection rounds"),
	); err != nil {
		return err
	}
	if a.metrics.sourceFailures, err = meter.Int64Counter(
		"oracle_source_failures_total",
		metric.WithDescription("Per-source collection failures"),
	); err != nil {
		return err
	}
	if a.metrics.deviationEvents, err = meter.Int64Counter(
		"oracle_deviation_events_total",
		metric.WithDescription("Survivor prices that deviated beyond the threshold"),
	); err != nil {
		return err
	}
	if a.metrics.cacheHits, err = meter.Int64Counter(
		"oracle_cache_hits_total",
		metric.WithDescription("Aggregated prices served from cache"),
	); err != nil {
		return err
	}
	return nil
}

// AddFeed registers an oracle source with its aggregation weight.
func (a *Aggregator) AddFeed(oracle Oracle, weight float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.feeds = append(a.feeds, Feed{Oracle: oracle, Weight: weight})
}

// GetPriceUSD returns the aggregated USD price for token, serving from
// cache when fresh.
func (a *Aggregator) GetPriceUSD(ctx context.Context, token common.Address) (domain.PriceData, error) {
	ctx, span := a.tracer.Start(ctx, "oracle.aggregate",
		trace.WithAttributes(attribute.String("token", token.Hex())))
	defer span.End()

	if cached, ok := a.cache.Get(ctx, token); ok {
		a.metrics.cacheHits.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	a.metrics.collectionsTotal.Add(ctx, 1)
	prices := a.collectPrices(ctx, token)

	if len(prices) < a.cfg.MinSources {
		span.SetStatus(codes.Error, "not enough sources")
		return domain.PriceData{}, apperror.New(apperror.CodeNotEnoughSources,
			apperror.WithContext("insufficient price sources survived validation"))
	}

	aggregated, err := a.combine(prices)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.PriceData{}, err
	}

	a.flagDeviations(ctx, prices, aggregated)

	a.cache.Set(ctx, token, aggregated, a.cfg.CacheTTL)

	span.SetAttributes(
		attribute.Int("survivors", len(prices)),
		attribute.String("price_usd", aggregated.PriceUSD.String()),
	)
	span.SetStatus(codes.Ok, "aggregated")

	return aggregated, nil
}

// GetPriceETH delegates to GetPriceUSD; the aggregated PriceData already
// carries both denominations when sources provide them.
func (a *Aggregator) GetPriceETH(ctx context.Context, token common.Address) (domain.PriceData, error) {
	return a.GetPriceUSD(ctx, token)
}

// GetPriceRatio returns priceA/priceB in USD terms.
func (a *Aggregator) GetPriceRatio(ctx context.Context, tokenA, tokenB common.Address) (float64, error) {
	pa, err := a.GetPriceUSD(ctx, tokenA)
	if err != nil {
		return 0, err
	}
	pb, err := a.GetPriceUSD(ctx, tokenB)
	if err != nil {
		return 0, err
	}
	if pb.PriceUSD.IsZero() {
		return 0, apperror.New(apperror.CodeInvalidPrice, apperror.WithContext("denominator price is zero"))
	}
	ratio, _ := pa.PriceUSD.Div(pb.PriceUSD).Float64()
	return ratio, nil
}

// GetPricesBatch resolves every token, logging and skipping failures.
func (a *Aggregator) GetPricesBatch(ctx context.Context, tokens []common.Address) ([]domain.PriceData, error) {
	out := make([]domain.PriceData, 0, len(tokens))
	for _, t := range tokens {
		p, err := a.GetPriceUSD(ctx, t)
		if err != nil {
			a.logger.Warn(ctx, "oracle: batch entry failed", "token", t.Hex(), "error", err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetTWAP delegates to the first feed that supports it, falling back to
// the current aggregated price.
func (a *Aggregator) GetTWAP(ctx context.Context, token common.Address, period time.Duration) (domain.PriceData, error) {
	a.mu.RLock()
	feeds := append([]Feed(nil), a.feeds...)
	a.mu.RUnlock()

	for _, f := range feeds {
		if twap, err := f.Oracle.GetTWAP(ctx, token, period); err == nil {
			return twap, nil
		}
	}
	return a.GetPriceUSD(ctx, token)
}

// SourceType reports this as an aggregated source.
func (a *Aggregator) SourceType() domain.Source { return domain.SourceAggregated }

// ReliabilityScore is the feed-weighted average of member reliabilities.
func (a *Aggregator) ReliabilityScore() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.feeds) == 0 {
		return 0
	}
	var sum, totalWeight float64
	for _, f := range a.feeds {
		sum += f.Oracle.ReliabilityScore() * f.Weight
		totalWeight += f.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// UpdateFrequency is the fastest update frequency among member feeds.
func (a *Aggregator) UpdateFrequency() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.feeds) == 0 {
		return 60 * time.Second
	}
	fastest := a.feeds[0].Oracle.UpdateFrequency()
	for _, f := range a.feeds[1:] {
		if freq := f.Oracle.UpdateFrequency(); freq < fastest {
			fastest = freq
		}
	}
	return fastest
}

// collectPrices queries every feed in parallel under a per-oracle timeout,
// discarding failures and invalid results. Errors here never abort the
// round; GetPriceUSD decides survivor sufficiency afterwards.
func (a *Aggregator) collectPrices(ctx context.Context, token common.Address) []domain.PriceData {
	a.mu.RLock()
	feeds := append([]Feed(nil), a.feeds...)
	a.mu.RUnlock()

	results := make([]domain.PriceData, 0, len(feeds))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, f := range feeds {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()

			octx, cancel := context.WithTimeout(ctx, a.cfg.PerOracleTimeout)
			defer cancel()

			price, err := f.Oracle.GetPriceUSD(octx, token)
			if err != nil {
				a.metrics.sourceFailures.Add(ctx, 1)
				a.logger.Debug(ctx, "oracle: source failed", "source", f.Oracle.SourceType(), "error", err)
				return
			}
			if err := domain.Validate(price); err != nil {
				a.metrics.sourceFailures.Add(ctx, 1)
				a.logger.Warn(ctx, "oracle: invalid price", "source", price.Source, "error", err)
				return
			}

			mu.Lock()
			results = append(results, price)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

// combine dispatches to the strategy-specific reducer.
func (a *Aggregator) combine(prices []domain.PriceData) (domain.PriceData, error) {
	switch a.cfg.Strategy {
	case StrategyMedian, StrategyMode: // mode falls back to median, matching the upstream approximation
		return medianOf(prices), nil
	case StrategyMean:
		return meanOf(prices), nil
	case StrategyWeightedMean:
		return a.weightedMeanOf(prices), nil
	case StrategyMostReliable:
		return mostReliableOf(prices), nil
	case StrategyMostRecent:
		return mostRecentOf(prices), nil
	default:
		return domain.PriceData{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("unknown aggregation strategy"))
	}
}

func avgConfidence(prices []domain.PriceData) float64 {
	if len(prices) == 0 {
		return 0
	}
	var sum float64
	for _, p := range prices {
		sum += p.Confidence
	}
	return sum / float64(len(prices))
}

func medianOf(prices []domain.PriceData) domain.PriceData {
	usd := make([]decimal.Decimal, len(prices))
	eth := make([]decimal.Decimal, len(prices))
	for i, p := range prices {
		usd[i] = p.PriceUSD
		eth[i] = p.PriceETH
	}
	sort.Slice(usd, func(i, j int) bool { return usd[i].LessThan(usd[j]) })
	sort.Slice(eth, func(i, j int) bool { return eth[i].LessThan(eth[j]) })

	result := domain.NewPriceData(prices[0].Token, medianDecimal(usd), medianDecimal(eth), domain.SourceAggregated)
	result.Confidence = avgConfidence(prices)
	return result
}

func medianDecimal(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n%2 == 0 {
		mid := n / 2
		return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
	}
	return sorted[n/2]
}

func meanOf(prices []domain.PriceData) domain.PriceData {
	sumUSD, sumETH := decimal.Zero, decimal.Zero
	for _, p := range prices {
		sumUSD = sumUSD.Add(p.PriceUSD)
		sumETH = sumETH.Add(p.PriceETH)
	}
	n := decimal.NewFromInt(int64(len(prices)))
	result := domain.NewPriceData(prices[0].Token, sumUSD.Div(n), sumETH.Div(n), domain.SourceAggregated)
	result.Confidence = avgConfidence(prices)
	return result
}

func (a *Aggregator) weightedMeanOf(prices []domain.PriceData) domain.PriceData {
	a.mu.RLock()
	feeds := append([]Feed(nil), a.feeds...)
	a.mu.RUnlock()

	weightFor := func(source domain.Source) float64 {
		for _, f := range feeds {
			if f.Oracle.SourceType() == source {
				return f.Weight
			}
		}
		return 1.0
	}

	weightedUSD, weightedETH := decimal.Zero, decimal.Zero
	var totalWeight float64
	for _, p := range prices {
		w := weightFor(p.Source)
		wd := decimal.NewFromFloat(w)
		weightedUSD = weightedUSD.Add(p.PriceUSD.Mul(wd))
		weightedETH = weightedETH.Add(p.PriceETH.Mul(wd))
		totalWeight += w
	}
	if totalWeight == 0 {
		totalWeight = 1
	}
	twd := decimal.NewFromFloat(totalWeight)

	result := domain.NewPriceData(prices[0].Token, weightedUSD.Div(twd), weightedETH.Div(twd), domain.SourceAggregated)
	result.Confidence = avgConfidence(prices)
	return result
}

func mostReliableOf(prices []domain.PriceData) domain.PriceData {
	best := prices[0]
	for _, p := range prices[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	best.Source = domain.SourceAggregated
	return best
}

func mostRecentOf(prices []domain.PriceData) domain.PriceData {
	best := prices[0]
	for _, p := range prices[1:] {
		if p.Timestamp.After(best.Timestamp) {
			best = p
		}
	}
	best.Source = domain.SourceAggregated
	return best
}

// flagDeviations logs (never excludes) survivors that deviate from the
// aggregate beyond the configured threshold.
func (a *Aggregator) flagDeviations(ctx context.Context, prices []domain.PriceData, aggregated domain.PriceData) {
	for _, p := range prices {
		if domain.DeviatesBeyond(aggregated, p, a.cfg.MaxDeviationPct) {
			a.metrics.deviationEvents.Add(ctx, 1)
			a.logger.Warn(ctx, "oracle: price deviation beyond threshold",
				"source", p.Source, "price_usd", p.PriceUSD.String(),
				"aggregated_usd", aggregated.PriceUSD.String(),
				"max_deviation_pct", a.cfg.MaxDeviationPct)
		}
	}
}
