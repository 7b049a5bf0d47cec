// Package liquidation implements the liquidation detector bounded
// context (C5.2): periodically scan lending-protocol user state and emit
// an Opportunity for every position below a 1.0 health factor.
package liquidation

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/mev-searcher/business/detector/liquidation/app"
	liquidationDI "github.com/fd1az/mev-searcher/business/detector/liquidation/di"
	"github.com/fd1az/mev-searcher/business/detector/liquidation/infra/indexer"
	"github.com/fd1az/mev-searcher/business/detector/liquidation/infra/onchain"
	opportunityDI "github.com/fd1az/mev-searcher/business/opportunity/di"
	opportunityInfra "github.com/fd1az/mev-searcher/business/opportunity/infra"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the liquidation detector bounded context. Must be
// registered after the blockchain and opportunity modules.
type Module struct{}

// RegisterServices wires the position source (on-chain scanner or
// indexer client, per config) and the Detector.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, liquidationDI.PositionSource, func(sr di.ServiceRegistry) app.PositionSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Liquidation.Source == "indexer" {
			client, err := indexer.NewClient(cfg.Liquidation.IndexerEndpoint, "aave_v3", log)
			if err != nil {
				panic("liquidation: failed to build indexer client: " + err.Error())
			}
			return client
		}

		ethClient := sr.Get("ethClient").(*ethclient.Client)
		scanner, err := onchain.NewAaveScanner(ethClient, cfg.Liquidation.AavePoolAddressHex(), cfg.Liquidation.WatchlistAddresses(), log)
		if err != nil {
			panic("liquidation: failed to build Aave scanner: " + err.Error())
		}
		return scanner
	})

	di.RegisterToken(c, liquidationDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		positions := di.Get[app.PositionSource](sr, liquidationDI.PositionSource)
		sink := opportunityInfra.NewSink(opportunityDI.GetManager(sr))

		detCfg := app.DefaultConfig()
		if cfg.Liquidation.ScanInterval > 0 {
			detCfg.ScanInterval = cfg.Liquidation.ScanInterval
		}
		if cfg.Liquidation.CloseFactor > 0 {
			detCfg.CloseFactor = cfg.Liquidation.CloseFactor
		}
		if cfg.Liquidation.LiquidationBonusPct > 0 {
			detCfg.LiquidationBonusPct = cfg.Liquidation.LiquidationBonusPct
		}
		if cfg.Liquidation.MinDebtToCoverUSD > 0 {
			detCfg.MinDebtToCoverUSD = cfg.Liquidation.MinDebtToCoverUSD
		}

		return app.NewDetector(positions, sink, detCfg, log)
	})

	return nil
}

// Startup starts the detector's scan loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	detector := liquidationDI.GetDetector(mono.Services())
	if err := detector.Start(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "liquidation detector module started")
	return nil
}
