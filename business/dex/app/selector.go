package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/dex/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
)

// Strategy chooses which adapter(s) a Selector queries for a given request.
type Strategy string

const (
	StrategyBestQuote        Strategy = "best_quote"
	StrategyNativeFirst      Strategy = "native_first"
	StrategyAggregatorFirst  Strategy = "aggregator_first"
	StrategyHybrid           Strategy = "hybrid"
	StrategyFixed            Strategy = "fixed"
)

// Selector picks one adapter's quote per request according to Strategy.
type Selector struct {
	factory *Factory
}

// NewSelector builds a Selector over factory's registered adapters.
func NewSelector(factory *Factory) *Selector {
	return &Selector{factory: factory}
}

// quoteResult pairs an adapter with the quote (or error) it returned.
type quoteResult struct {
	adapter DexAdapter
	quote   domain.Quote
	err     error
}

// Select runs the chosen strategy and returns the winning adapter's quote.
// fixedName is only consulted when strategy == StrategyFixed.
func (s *Selector) Select(ctx context.Context, strategy Strategy, fixedName string, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, DexAdapter, error) {
	switch strategy {
	case StrategyFixed:
		adapter, ok := s.factory.Get(fixedName)
		if !ok {
			return domain.Quote{}, nil, apperror.New(apperror.CodeUnsupportedPair,
				apperror.WithContext("fixed adapter not found: "+fixedName))
		}
		return s.quoteOne(ctx, adapter, tokenIn, tokenOut, amountIn, slippageBps)

	case StrategyNativeFirst:
		if q, a, err := s.bestOf(ctx, s.factory.Native(), tokenIn, tokenOut, amountIn, slippageBps); err == nil {
			return q, a, nil
		}
		return s.bestOf(ctx, s.factory.All(), tokenIn, tokenOut, amountIn, slippageBps)

	case StrategyAggregatorFirst:
		if q, a, err := s.bestOf(ctx, s.factory.Aggregators(), tokenIn, tokenOut, amountIn, slippageBps); err == nil {
			return q, a, nil
		}
		return s.bestOf(ctx, s.factory.All(), tokenIn, tokenOut, amountIn, slippageBps)

	case StrategyHybrid:
		if q, a, err := s.bestOf(ctx, s.factory.Native(), tokenIn, tokenOut, amountIn, slippageBps); err == nil {
			return q, a, nil
		}
		return s.bestOf(ctx, s.factory.Aggregators(), tokenIn, tokenOut, amountIn, slippageBps)

	default: // StrategyBestQuote
		return s.bestOf(ctx, s.factory.All(), tokenIn, tokenOut, amountIn, slippageBps)
	}
}

// quoteOne queries a single adapter, recording its stats.
func (s *Selector) quoteOne(ctx context.Context, adapter DexAdapter, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, DexAdapter, error) {
	start := time.Now()
	q, err := adapter.Quote(ctx, tokenIn, tokenOut, amountIn, slippageBps)
	if stats := s.factory.statsFor(adapter.Name()); stats != nil {
		stats.Record(err == nil, time.Since(start))
	}
	if err != nil {
		return domain.Quote{}, nil, err
	}
	return q, adapter, nil
}

// bestOf queries candidates in parallel and returns the highest amount_out.
func (s *Selector) bestOf(ctx context.Context, candidates []DexAdapter, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, DexAdapter, error) {
	if len(candidates) == 0 {
		return domain.Quote{}, nil, domain.ErrNoAdapters
	}

	results := make([]quoteResult, len(candidates))
	var wg sync.WaitGroup
	for i, adapter := range candidates {
		wg.Add(1)
		go func(i int, adapter DexAdapter) {
			defer wg.Done()
			q, _, err := s.quoteOne(ctx, adapter, tokenIn, tokenOut, amountIn, slippageBps)
			results[i] = quoteResult{adapter: adapter, quote: q, err: err}
		}(i, adapter)
	}
	wg.Wait()

	var best *quoteResult
	for i := range results {
		r := &results[i]
		if r.err != nil || !r.adapter.ValidateQuote(r.quote) {
			continue
		}
		if best == nil || r.quote.AmountOut.Cmp(best.quote.AmountOut) > 0 {
			best = r
		}
	}
	if best == nil {
		return domain.Quote{}, nil, domain.ErrNoRouteFound
	}
	return best.quote, best.adapter, nil
}
