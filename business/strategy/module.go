// Package strategy implements the orchestrator bounded context (C10):
// drains the opportunity manager's per-strategy queues, dispatches each
// opportunity through the bundle/relay pipeline or the execution
// engine, and exposes the admin API for operator control. Must be
// registered last, after every bounded context it coordinates
// (blockchain, opportunity, bundle, relay, execution).
package strategy

import (
	"context"
	"time"

	blockchainDI "github.com/fd1az/mev-searcher/business/blockchain/di"
	bundleDI "github.com/fd1az/mev-searcher/business/bundle/di"
	executionDI "github.com/fd1az/mev-searcher/business/execution/di"
	opportunityDI "github.com/fd1az/mev-searcher/business/opportunity/di"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	relayDI "github.com/fd1az/mev-searcher/business/relay/di"
	"github.com/fd1az/mev-searcher/business/strategy/app"
	strategyDI "github.com/fd1az/mev-searcher/business/strategy/di"
	"github.com/fd1az/mev-searcher/business/strategy/infra/adminapi"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// allStrategies is the fixed dispatch set; every strategy tag the
// opportunity manager scores against is drained here, regardless of
// which detector modules happen to be active.
var allStrategies = []opportunitydomain.StrategyTag{
	opportunitydomain.StrategySandwich,
	opportunitydomain.StrategyLiquidation,
	opportunitydomain.StrategyMicroArbitrage,
	opportunitydomain.StrategyMultiAssetArbitrage,
}

// Module implements the strategy orchestrator bounded context.
type Module struct {
	adminServer *adminapi.Server
}

// RegisterServices wires the orchestrator Manager from every downstream
// context's already-registered service.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, strategyDI.Manager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := sr.Get("config").(*config.Config)

		scfg := app.DefaultConfig()
		if cfg.Strategy.DequeueIntervalMs > 0 {
			scfg.DequeueInterval = time.Duration(cfg.Strategy.DequeueIntervalMs) * time.Millisecond
		}
		if cfg.Strategy.SubmissionTimeoutSeconds > 0 {
			scfg.SubmissionDeadline = time.Duration(cfg.Strategy.SubmissionTimeoutSeconds) * time.Second
		}

		opportunities := opportunityDI.GetManager(sr)
		bundles := bundleDI.GetService(sr)
		relay := relayDI.GetService(sr)
		blockchain := blockchainDI.GetBlockchainService(sr)
		execution := executionDI.GetEngine(sr)

		return app.NewManager(opportunities, bundles, relay, execution, blockchain, scfg, allStrategies,
			sr.Get("logger").(logger.LoggerInterface))
	})

	return nil
}

// Startup starts the per-strategy dequeue loops and the admin API
// server on its own configured port.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	cfg := sr.Get("config").(*config.Config)
	log := mono.Logger()

	manager := strategyDI.GetManager(sr)
	manager.Start(ctx)

	port := cfg.Strategy.AdminPort
	if port == 0 {
		port = 8081
	}
	m.adminServer = adminapi.NewServer(manager, opportunityDI.GetManager(sr), executionDI.GetEngine(sr), port, log)
	if err := m.adminServer.Start(); err != nil {
		return err
	}

	log.Info(ctx, "strategy orchestrator module started", "admin_port", port, "strategies", allStrategies)
	return nil
}
