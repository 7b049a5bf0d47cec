// Package bundle implements the bundle builder and simulator bounded
// context (C7): assembles an ordered on-chain transaction bundle from a
// sandwich or liquidation Opportunity, simulates it, and rejects anything
// that doesn't clear a positive net profit. Must be registered after the
// blockchain and opportunity modules.
package bundle

import (
	"context"
	"math/big"
	"time"

	blockchainDI "github.com/fd1az/mev-searcher/business/blockchain/di"
	"github.com/fd1az/mev-searcher/business/bundle/app"
	bundleDI "github.com/fd1az/mev-searcher/business/bundle/di"
	"github.com/fd1az/mev-searcher/business/bundle/infra/events"
	"github.com/fd1az/mev-searcher/business/bundle/infra/mocksim"
	"github.com/fd1az/mev-searcher/business/bundle/infra/relaysim"
	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the bundle builder bounded context.
type Module struct{}

// RegisterServices wires the Builder, a mock or relay Simulator depending
// on api_mode, and the orchestrating Service.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, bundleDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		encoder, err := codecapp.NewEncoder()
		if err != nil {
			panic("bundle: failed to build codec encoder: " + err.Error())
		}

		bCfg := app.DefaultConfig()
		if cfg.Bundle.DeadlineSeconds > 0 {
			bCfg.Deadline = time.Duration(cfg.Bundle.DeadlineSeconds) * time.Second
		}
		if cfg.Bundle.MaxGasPriceGwei > 0 {
			bCfg.MaxGasPriceWei = weiFromGwei(cfg.Bundle.MaxGasPriceGwei)
		}
		bCfg.UseFlashLoanSandwich = cfg.Bundle.UseFlashLoanSandwich
		bCfg.UseFlashLoanLiquidation = cfg.Bundle.UseFlashLoanLiquidation
		bCfg.FlashLoanPool = cfg.Bundle.FlashLoanPoolAddressHex()
		bCfg.FlashLoanReceiver = cfg.Bundle.FlashLoanReceiverAddressHex()
		if cfg.Bundle.SandwichGasLimit > 0 {
			bCfg.SandwichGasLimit = cfg.Bundle.SandwichGasLimit
		}
		if cfg.Bundle.LiquidationGasLimit > 0 {
			bCfg.LiquidationGasLimit = cfg.Bundle.LiquidationGasLimit
		}
		bCfg.RouterAddress = cfg.Uniswap.RouterAddressHex()
		bCfg.AavePoolAddress = cfg.Liquidation.AavePoolAddressHex()

		builder := app.NewBuilder(encoder, bCfg, log)

		var simulator app.Simulator
		if cfg.App.IsMockMode() {
			simulator = mocksim.New(cfg.Bundle.Simulator.MockSuccessRate, cfg.Bundle.Simulator.MockGasPriceWei)
		} else {
			relay, err := relaysim.New(cfg.Bundle.Simulator.RelayURL, cfg.Bundle.Simulator.RelayAPIKey, log)
			if err != nil {
				panic("bundle: failed to build relay simulator: " + err.Error())
			}
			simulator = relay
		}

		var publisher app.EventPublisher
		if len(cfg.Bundle.KafkaBrokers) > 0 {
			publisher = events.NewKafkaPublisher(cfg.Bundle.KafkaBrokers, cfg.Bundle.KafkaTopic, log)
		} else {
			publisher = events.NoopPublisher{}
		}

		blockchain := blockchainDI.GetBlockchainService(sr)
		return app.NewService(builder, simulator, blockchain, publisher, log)
	})

	return nil
}

// Startup logs the selected simulator backend; the service itself has no
// background loop, it's invoked synchronously by the strategy manager.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	cfg := sr.Get("config").(*config.Config)

	mode := "relay"
	if cfg.App.IsMockMode() {
		mode = "mock"
	}
	mono.Logger().Info(ctx, "bundle builder module started", "simulator", mode)
	return nil
}

// weiFromGwei converts a gwei float into wei, rounding down.
func weiFromGwei(gwei float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9))
	wei, _ := f.Int(nil)
	return wei
}
