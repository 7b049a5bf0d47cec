// Package arbitrage implements the CEX/DEX spread bounded context: the
// simplest of the searcher's strategies, kept alongside the MEV strategies
// in business/detector as the straight-line detector/reporter pattern they
// all follow.
package arbitrage

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/mev-searcher/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/mev-searcher/business/arbitrage/di"
	"github.com/fd1az/mev-searcher/business/arbitrage/infra"
	blockchainDI "github.com/fd1az/mev-searcher/business/blockchain/di"
	pricingDI "github.com/fd1az/mev-searcher/business/pricing/di"
	pricingDomain "github.com/fd1az/mev-searcher/business/pricing/domain"
	"github.com/fd1az/mev-searcher/internal/asset"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers the ProfitCalculator, Reporter, and Detector.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.ProfitCalculator, func(sr di.ServiceRegistry) *app.ProfitCalculator {
		cfg := sr.Get("config").(*config.Config)
		return app.NewProfitCalculator(
			decimal.NewFromFloat(cfg.Arbitrage.MinProfitBps),
			decimal.NewFromFloat(cfg.Arbitrage.MinProfitUSD),
		)
	})

	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Arbitrage.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		blockchainSvc := blockchainDI.GetBlockchainService(sr)
		pricingSvc := pricingDI.GetPricingService(sr)
		calculator := arbitrageDI.GetProfitCalculator(sr)
		reporter := arbitrageDI.GetReporter(sr)

		pairs := resolvePairs(registry, cfg.Arbitrage.Pairs)
		detectorCfg := app.DetectorConfig{
			Pairs:      pairs,
			TradeSizes: cfg.Arbitrage.TradeSizesDecimal(),
		}

		return app.NewDetector(blockchainSvc, pricingSvc, calculator, reporter, detectorCfg, log)
	})

	return nil
}

// Startup starts the reporter; the detector itself is started by the
// caller once every module has finished registering (see cmd/searcher).
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	reporter := arbitrageDI.GetReporter(mono.Services())
	if err := reporter.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "arbitrage module started")
	return nil
}

// resolvePairs turns "ETH/USDC"-style strings into pricingDomain.Pair,
// skipping any symbol the registry doesn't know about.
func resolvePairs(registry *asset.Registry, raw []string) []pricingDomain.Pair {
	pairs := make([]pricingDomain.Pair, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, "/", 2)
		if len(parts) != 2 {
			continue
		}
		base, ok := registry.GetBySymbolAndChain(parts[0], asset.ChainIDEthereum)
		if !ok {
			continue
		}
		quote, ok := registry.GetBySymbolAndChain(parts[1], asset.ChainIDEthereum)
		if !ok {
			continue
		}
		pairs = append(pairs, pricingDomain.Pair{Base: base, Quote: quote})
	}
	return pairs
}
