// Package opportunity implements the opportunity manager and priority
// queue bounded context (C6): arbitrates every detector's Opportunity
// through scoring, bounded per-strategy and global queues, and
// execution-outcome tracking. Must be registered before every detector
// module so their sinks can resolve a live Manager.
package opportunity

import (
	"context"
	"math/big"
	"time"

	"github.com/fd1az/mev-searcher/business/opportunity/app"
	opportunityDI "github.com/fd1az/mev-searcher/business/opportunity/di"
	"github.com/fd1az/mev-searcher/business/opportunity/infra/redisstats"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the opportunity manager bounded context.
type Module struct{}

// RegisterServices wires the Manager.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, opportunityDI.Manager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		minThreshold := cfg.Opportunity.MinProfitThresholdETH
		if minThreshold <= 0 {
			minThreshold = 0.05
		}

		return app.NewManager(app.DefaultConfig(), weiFromETH(minThreshold), log)
	})

	return nil
}

// Startup starts the Redis stats mirror when enabled in configuration.
// The opportunity queues themselves need no background loop; they are
// driven synchronously by detector sinks and strategy consumers.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	cfg := sr.Get("config").(*config.Config)
	log := sr.Get("logger").(logger.LoggerInterface)

	if !cfg.Opportunity.Redis.Enabled {
		mono.Logger().Info(ctx, "opportunity manager module started (redis mirror disabled)")
		return nil
	}

	manager := opportunityDI.GetManager(sr)
	mirror, err := redisstats.NewMirror(ctx, cfg.Opportunity.Redis.Addr, cfg.Opportunity.Redis.Password,
		cfg.Opportunity.Redis.DB, cfg.Opportunity.Redis.KeyPrefix, 5*time.Second, log)
	if err != nil {
		log.Warn(ctx, "opportunity: redis stats mirror disabled, connection failed", "error", err.Error())
		mono.Logger().Info(ctx, "opportunity manager module started (redis mirror unavailable)")
		return nil
	}

	go mirror.Run(ctx, manager)

	mono.Logger().Info(ctx, "opportunity manager module started (redis mirror enabled)")
	return nil
}

// weiFromETH converts a whole-ETH float into wei, rounding down.
func weiFromETH(eth float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18))
	wei, _ := f.Int(nil)
	return wei
}
