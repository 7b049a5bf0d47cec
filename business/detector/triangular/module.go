// Package triangular implements the multi-asset triangular arbitrage
// detector bounded context (C5.4): for each configured (A,B,C) path,
// quote all four legs through C4's parallel route search and emit an
// Opportunity when the round trip clears its flash-loan premium and gas
// cost. Must be registered after the blockchain, dex, and opportunity
// modules.
package triangular

import (
	"context"
	"math/big"

	blockchainDI "github.com/fd1az/mev-searcher/business/blockchain/di"
	triangularApp "github.com/fd1az/mev-searcher/business/detector/triangular/app"
	triangularDI "github.com/fd1az/mev-searcher/business/detector/triangular/di"
	"github.com/fd1az/mev-searcher/business/detector/triangular/domain"
	"github.com/fd1az/mev-searcher/business/detector/triangular/infra"
	dexDI "github.com/fd1az/mev-searcher/business/dex/di"
	opportunityDI "github.com/fd1az/mev-searcher/business/opportunity/di"
	opportunityInfra "github.com/fd1az/mev-searcher/business/opportunity/infra"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the triangular arbitrage detector bounded context.
type Module struct{}

// RegisterServices wires the detector over the dex module's route
// searcher and the blockchain module's gas oracle.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, triangularDI.Detector, func(sr di.ServiceRegistry) *triangularApp.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		selector := dexDI.GetSelector(sr)
		gasSource := infra.NewBlockchainGasSource(blockchainDI.GetBlockchainService(sr))
		sink := opportunityInfra.NewSink(opportunityDI.GetManager(sr))

		detCfg := triangularApp.DefaultConfig()
		detCfg.Paths = buildPaths(cfg.Triangular.Paths, log)
		if cfg.Triangular.ScanInterval > 0 {
			detCfg.ScanInterval = cfg.Triangular.ScanInterval
		}
		if cfg.Triangular.SlippageBps > 0 {
			detCfg.SlippageBps = cfg.Triangular.SlippageBps
		}
		if cfg.Triangular.MinProfitPct > 0 {
			detCfg.MinProfitPct = cfg.Triangular.MinProfitPct
		}
		if cfg.Triangular.FlashLoanPremiumBps > 0 {
			detCfg.FlashLoanPremiumBps = cfg.Triangular.FlashLoanPremiumBps
		}
		if cfg.Triangular.GasLimit > 0 {
			detCfg.GasLimit = cfg.Triangular.GasLimit
		}
		if cfg.Triangular.VolatilityPct > 0 {
			detCfg.VolatilityPct = cfg.Triangular.VolatilityPct
		}

		return triangularApp.NewDetector(selector, gasSource, sink, detCfg, log)
	})

	return nil
}

// buildPaths converts the configured path entries into domain.Path values,
// skipping and logging any entry whose amount fails to parse rather than
// failing startup over one bad config line.
func buildPaths(entries []config.TriangularPathEntry, log logger.LoggerInterface) []domain.Path {
	paths := make([]domain.Path, 0, len(entries))
	for _, entry := range entries {
		a, b, cAddr := entry.AssetAddresses()
		amount, ok := new(big.Int).SetString(entry.BaseAmountWei, 10)
		if !ok {
			log.Error(context.Background(), "triangular path config: invalid base_amount_wei, skipping",
				"asset_a", entry.AssetA, "asset_b", entry.AssetB, "asset_c", entry.AssetC,
				"base_amount_wei", entry.BaseAmountWei,
			)
			continue
		}
		paths = append(paths, domain.Path{
			AssetA:        a,
			AssetB:        b,
			AssetC:        cAddr,
			BaseAmountWei: amount,
		})
	}
	return paths
}

// Startup starts the detector's scan loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	detector := triangularDI.GetDetector(mono.Services())
	if err := detector.Start(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "triangular arbitrage detector module started")
	return nil
}
