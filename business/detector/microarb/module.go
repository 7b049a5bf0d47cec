// Package microarb implements the CEX<->CEX micro-arbitrage detector
// bounded context (C5.3): poll every enabled exchange client in parallel
// and emit an Opportunity for the best fee-adjusted crossing spread per
// symbol. Must be registered after the pricing and opportunity modules.
package microarb

import (
	"context"

	"github.com/fd1az/mev-searcher/business/detector/microarb/app"
	microarbDI "github.com/fd1az/mev-searcher/business/detector/microarb/di"
	"github.com/fd1az/mev-searcher/business/detector/microarb/infra/binance"
	"github.com/fd1az/mev-searcher/business/detector/microarb/infra/coinbase"
	opportunityDI "github.com/fd1az/mev-searcher/business/opportunity/di"
	opportunityInfra "github.com/fd1az/mev-searcher/business/opportunity/infra"
	pricingDI "github.com/fd1az/mev-searcher/business/pricing/di"
	"github.com/fd1az/mev-searcher/internal/asset"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the micro-arbitrage detector bounded context.
type Module struct{}

// RegisterServices wires the exchange sources (Binance via the pricing
// module's CEXProvider, plus a direct Coinbase REST client) and the
// Detector.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, microarbDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		cex := pricingDI.GetCEXProvider(sr)
		sources := []app.ExchangeSource{binance.NewAdapter(cex, registry)}

		if cbClient, err := coinbase.NewClient(log); err != nil {
			log.Error(context.Background(), "microarb: failed to build coinbase client, running with binance only", "error", err)
		} else {
			sources = append(sources, cbClient)
		}

		sink := opportunityInfra.NewSink(opportunityDI.GetManager(sr))

		detCfg := app.DefaultConfig()
		if len(cfg.MicroArbitrage.Symbols) > 0 {
			detCfg.Symbols = cfg.MicroArbitrage.Symbols
		}
		if cfg.MicroArbitrage.ScanInterval > 0 {
			detCfg.ScanInterval = cfg.MicroArbitrage.ScanInterval
		}
		if cfg.MicroArbitrage.MinProfitPct > 0 {
			detCfg.MinProfitPct = cfg.MicroArbitrage.MinProfitPct
		}
		if cfg.MicroArbitrage.OpportunityRate > 0 {
			detCfg.OpportunityRate = cfg.MicroArbitrage.OpportunityRate
		}
		if cfg.MicroArbitrage.MinAmountUSD > 0 {
			detCfg.MinAmountUSD = cfg.MicroArbitrage.MinAmountUSD
		}
		if cfg.MicroArbitrage.MaxAmountUSD > 0 {
			detCfg.MaxAmountUSD = cfg.MicroArbitrage.MaxAmountUSD
		}

		return app.NewDetector(sources, sink, detCfg, log, nil)
	})

	return nil
}

// Startup starts the detector's poll loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	detector := microarbDI.GetDetector(mono.Services())
	if err := detector.Start(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "micro-arbitrage detector module started")
	return nil
}
