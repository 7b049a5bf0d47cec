// Package execution implements the order execution bounded context (C9):
// races a buy and a sell order for a detected micro-arbitrage opportunity
// and applies a notional-based risk policy to partial fills. Must be
// registered after the blockchain and dex modules.
package execution

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/mev-searcher/business/execution/app"
	executionDI "github.com/fd1az/mev-searcher/business/execution/di"
	"github.com/fd1az/mev-searcher/business/execution/infra/cexclient"
	"github.com/fd1az/mev-searcher/business/execution/infra/dexexchange"
	"github.com/fd1az/mev-searcher/business/execution/infra/mockexchange"
	dexDI "github.com/fd1az/mev-searcher/business/dex/di"
	"github.com/fd1az/mev-searcher/internal/asset"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the order execution bounded context.
type Module struct{}

// RegisterServices wires one ExchangeClient per configured venue (mock
// in API_MODE=mock, cexclient/dexexchange in real mode) and the
// orchestrating Engine.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, executionDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		exchanges := make(map[string]app.ExchangeClient)

		if cfg.App.IsMockMode() {
			fillRate := cfg.Execution.MockFillRate
			if fillRate <= 0 {
				fillRate = 0.85
			}
			for i, cex := range cfg.Execution.CEXExchanges {
				exchanges[cex.Name] = mockexchange.New(cex.Name, fillRate, 50, int64(i+1))
			}
			for i, sym := range cfg.Execution.DEXSymbols {
				name := "dex:" + sym.Symbol
				exchanges[name] = mockexchange.New(name, fillRate, 200, int64(1000+i))
			}
		} else {
			for _, cex := range cfg.Execution.CEXExchanges {
				client, err := cexclient.New(cex.Name, cex.BaseURL, cex.APIKey, log)
				if err != nil {
					log.Warn(context.Background(), "execution: cex venue unavailable", "venue", cex.Name, "error", err)
					continue
				}
				exchanges[cex.Name] = client
			}

			ethClient := sr.Get("ethClient").(*ethclient.Client)
			registry := sr.Get("assetRegistry").(*asset.Registry)
			factory := dexDI.GetFactory(sr)
			chainID := new(big.Int).SetUint64(cfg.Ethereum.ChainID)

			for _, sym := range cfg.Execution.DEXSymbols {
				adapter, ok := factory.Get("uniswap_v2")
				if !ok {
					log.Warn(context.Background(), "execution: no dex adapter available for symbol", "symbol", sym.Symbol)
					continue
				}
				base, ok := registry.GetBySymbolAndChain(sym.BaseSymbol, asset.ChainIDEthereum)
				if !ok {
					log.Warn(context.Background(), "execution: unknown base asset", "symbol", sym.BaseSymbol)
					continue
				}
				quote, ok := registry.GetBySymbolAndChain(sym.QuoteSymbol, asset.ChainIDEthereum)
				if !ok {
					log.Warn(context.Background(), "execution: unknown quote asset", "symbol", sym.QuoteSymbol)
					continue
				}
				pairs := map[string]dexexchange.SymbolPair{
					sym.Symbol: {TokenIn: base, TokenOut: quote},
				}
				name := "dex:" + sym.Symbol
				client, err := dexexchange.New(name, adapter, ethClient, cfg.Relay.OperatorPrivateKey, chainID, pairs, 12_000, 50, log)
				if err != nil {
					log.Warn(context.Background(), "execution: dex venue unavailable", "symbol", sym.Symbol, "error", err)
					continue
				}
				exchanges[name] = client
			}
		}

		executionCfg := app.Config{
			MaxConcurrentTrades:     cfg.Execution.MaxConcurrentTrades,
			ExecutionDeadline:       time.Duration(cfg.Execution.ExecutionDeadlineSeconds) * time.Second,
			FillPollInterval:        time.Duration(cfg.Execution.FillPollIntervalMs) * time.Millisecond,
			MaxLatencyMs:            cfg.Execution.MaxLatencyMs,
			HighRiskNotionalUSD:     cfg.Execution.HighRiskNotionalUSD,
			CriticalRiskNotionalUSD: cfg.Execution.CriticalRiskNotionalUSD,
		}
		if executionCfg.MaxConcurrentTrades <= 0 {
			executionCfg = app.DefaultConfig()
		}

		return app.NewEngine(exchanges, executionCfg, log)
	})

	return nil
}

// Startup logs the wired venues; the engine itself has no background
// loop, Execute is invoked per opportunity by the strategy manager.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "execution module started")
	return nil
}
