// Package relay implements the relay submission bounded context (C8):
// submits simulated bundles to a private relay, signs their transactions
// when running against a real relay, and polls inclusion status until it
// settles. Must be registered after the bundle module.
package relay

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/mev-searcher/business/relay/app"
	relayDI "github.com/fd1az/mev-searcher/business/relay/di"
	"github.com/fd1az/mev-searcher/business/relay/infra/events"
	"github.com/fd1az/mev-searcher/business/relay/infra/mockrelay"
	"github.com/fd1az/mev-searcher/business/relay/infra/relayclient"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the relay submission bounded context.
type Module struct{}

// RegisterServices wires a mock or real Submitter/Signer pair depending
// on api_mode, and the orchestrating Service.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, relayDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var submitter app.Submitter
		var signer app.Signer

		if cfg.App.IsMockMode() {
			mock := mockrelay.New(cfg.Relay.MockSubmitSuccessRate)
			submitter = mock
			signer = mockrelay.Signer{}
		} else {
			real, err := relayclient.New(cfg.Relay.SubmitURL, cfg.Relay.SubmitAPIKey, log)
			if err != nil {
				panic("relay: failed to build relay client: " + err.Error())
			}
			submitter = real

			ethClient := sr.Get("ethClient").(*ethclient.Client)
			chainID := new(big.Int).SetUint64(cfg.Ethereum.ChainID)
			realSigner, err := relayclient.NewSigner(cfg.Relay.OperatorPrivateKey, chainID, ethClient)
			if err != nil {
				panic("relay: failed to build operator signer: " + err.Error())
			}
			signer = realSigner
		}

		var publisher app.EventPublisher
		if len(cfg.Bundle.KafkaBrokers) > 0 {
			publisher = events.NewKafkaPublisher(cfg.Bundle.KafkaBrokers, cfg.Bundle.KafkaTopic, log)
		} else {
			publisher = events.NoopPublisher{}
		}

		requestsPerMinute := cfg.Relay.RequestsPerMinute
		if requestsPerMinute <= 0 {
			requestsPerMinute = 60
		}

		return app.NewService(submitter, signer, publisher, requestsPerMinute, log)
	})

	return nil
}

// Startup logs the selected submission backend and poll interval; the
// service itself has no background loop, Submit/Poll are invoked by the
// strategy manager's per-bundle lifecycle.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	cfg := sr.Get("config").(*config.Config)

	mode := "relay"
	if cfg.App.IsMockMode() {
		mode = "mock"
	}
	pollInterval := time.Duration(cfg.Relay.PollIntervalSeconds) * time.Second
	mono.Logger().Info(ctx, "relay submission module started", "submitter", mode, "poll_interval", pollInterval)
	return nil
}
