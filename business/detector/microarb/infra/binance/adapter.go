// Package binance adapts the pricing context's Binance CEXProvider to the
// micro-arbitrage detector's narrower ExchangeSource port, resolving the
// "BASE/QUOTE" symbol strings the detector trades in through the shared
// asset registry, following the same resolve-then-quote shape
// business/oracle/infra/spot.CexSource uses.
package binance

import (
	"context"
	"strings"

	"github.com/fd1az/mev-searcher/business/detector/microarb/domain"
	pricingapp "github.com/fd1az/mev-searcher/business/pricing/app"
	pricingdomain "github.com/fd1az/mev-searcher/business/pricing/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/asset"
)

// feeBps is Binance's standard spot taker fee.
const feeBps = 10.0

// Adapter quotes symbols on Binance via an existing CEXProvider.
type Adapter struct {
	cex      pricingapp.CEXProvider
	registry *asset.Registry
}

// NewAdapter builds a microarb ExchangeSource backed by a Binance CEXProvider.
func NewAdapter(cex pricingapp.CEXProvider, registry *asset.Registry) *Adapter {
	return &Adapter{cex: cex, registry: registry}
}

func (a *Adapter) Name() string { return "binance" }

func (a *Adapter) GetQuote(ctx context.Context, symbol string) (domain.ExchangeQuote, error) {
	base, quote, err := a.resolvePair(symbol)
	if err != nil {
		return domain.ExchangeQuote{}, err
	}

	ob, err := a.cex.GetOrderbook(ctx, pricingdomain.NewPair(base, quote))
	if err != nil {
		return domain.ExchangeQuote{}, err
	}
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == nil || ask == nil {
		return domain.ExchangeQuote{}, apperror.New(apperror.CodeExternalServiceError,
			apperror.WithContext("binance orderbook missing a bid or ask side for "+symbol))
	}

	bidF, _ := bid.Price.Float64()
	askF, _ := ask.Price.Float64()

	return domain.ExchangeQuote{
		Exchange:  a.Name(),
		Symbol:    symbol,
		Bid:       bidF,
		Ask:       askF,
		FeeBps:    feeBps,
		Timestamp: ob.Timestamp,
	}, nil
}

func (a *Adapter) resolvePair(symbol string) (base, quote *asset.Asset, err error) {
	parts := strings.SplitN(symbol, "/", 2)
	if len(parts) != 2 {
		return nil, nil, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext("malformed symbol "+symbol+", expected BASE/QUOTE"))
	}
	baseAsset, ok := a.registry.GetBySymbolAndChain(parts[0], asset.ChainIDEthereum)
	if !ok {
		return nil, nil, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext("unknown base asset "+parts[0]))
	}
	quoteAsset, ok := a.registry.GetBySymbolAndChain(parts[1], asset.ChainIDEthereum)
	if !ok {
		return nil, nil, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext("unknown quote asset "+parts[1]))
	}
	return baseAsset, quoteAsset, nil
}
