package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	blockchainapp "github.com/fd1az/mev-searcher/business/blockchain/app"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/logger"
)

// Service builds a Bundle from an Opportunity, simulates it, and rejects
// it when the simulated net profit doesn't clear zero.
type Service struct {
	builder    *Builder
	simulator  Simulator
	blockchain *blockchainapp.BlockchainService
	events     EventPublisher
	logger     logger.LoggerInterface
}

// NewService constructs a Service. events may be a no-op implementation
// when the bundle-lifecycle audit trail is disabled.
func NewService(builder *Builder, simulator Simulator, blockchain *blockchainapp.BlockchainService, events EventPublisher, log logger.LoggerInterface) *Service {
	return &Service{builder: builder, simulator: simulator, blockchain: blockchain, events: events, logger: log}
}

// BuildAndSimulate assembles a Bundle for opp against current chain state
// and simulates it, returning apperror.CodeBundleRejected when the
// simulated net profit is zero or negative.
func (s *Service) BuildAndSimulate(ctx context.Context, opp opportunitydomain.Opportunity) (*bundledomain.Bundle, *bundledomain.SimulationResult, error) {
	block, err := s.blockchain.LatestBlock(ctx)
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext("bundle: fetch latest block"))
	}
	gasPrice, err := s.blockchain.GetGasPrice(ctx)
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext("bundle: fetch gas price"))
	}

	baseFeeWei := block.BaseFee
	if baseFeeWei == nil {
		baseFeeWei = big.NewInt(0)
	}
	priorityFeeWei := gasPrice.PricePerUnit.Raw()
	if priorityFeeWei == nil {
		priorityFeeWei = big.NewInt(0)
	}

	bundle, err := s.builder.Build(ctx, opp, block.Number, baseFeeWei, priorityFeeWei)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.simulator.Simulate(ctx, bundle)
	if err != nil {
		s.publishEvent(ctx, bundle, nil)
		return bundle, nil, apperror.New(apperror.CodeSimulationFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("bundle %s", bundle.ID)))
	}

	s.publishEvent(ctx, bundle, result)

	if !result.Success || result.NetProfit == nil || result.NetProfit.Sign() <= 0 {
		s.logger.Info(ctx, "bundle: rejected, simulation did not clear a positive net profit",
			"bundle_id", bundle.ID, "success", result.Success, "error", result.ErrorMessage)
		return bundle, result, apperror.New(apperror.CodeBundleRejected,
			apperror.WithContext(fmt.Sprintf("bundle %s: net profit does not clear zero", bundle.ID)))
	}

	return bundle, result, nil
}

// publishEvent reports the bundle's outcome to the lifecycle audit
// trail. Publish failures are logged, never propagated: the audit
// channel is observability, not a gate on bundle building.
func (s *Service) publishEvent(ctx context.Context, bundle *bundledomain.Bundle, result *bundledomain.SimulationResult) {
	event := bundledomain.BundleEvent{
		BundleID:      bundle.ID,
		OpportunityID: bundle.OpportunityID,
		Strategy:      bundle.Strategy,
		TargetBlock:   bundle.TargetBlock,
		Timestamp:     time.Now(),
	}
	if result != nil {
		event.Success = result.Success
		event.NetProfitWei = result.NetProfit
		event.GasUsed = result.GasUsed
		event.ErrorMessage = result.ErrorMessage
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "bundle: event publish failed", "bundle_id", bundle.ID, "error", err)
	}
}
