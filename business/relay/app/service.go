package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/business/relay/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/ratelimit"
)

type inFlightKey struct {
	strategy    opportunitydomain.StrategyTag
	targetBlock uint64
}

// Service submits a simulated Bundle to the relay and tracks its inclusion
// status, rejecting over-submission of a second bundle for the same
// strategy and target block while one is still outstanding.
type Service struct {
	submitter Submitter
	signer    Signer
	events    EventPublisher
	limiter   *ratelimit.Limiter
	submitCB  *circuitbreaker.CircuitBreaker[common.Hash]
	logger    logger.LoggerInterface

	mu        sync.Mutex
	inFlight  map[inFlightKey]struct{}
}

// NewService constructs a Service. requestsPerMinute bounds relay
// submission calls through internal/ratelimit.
func NewService(submitter Submitter, signer Signer, events EventPublisher, requestsPerMinute int, log logger.LoggerInterface) *Service {
	return &Service{
		submitter: submitter,
		signer:    signer,
		events:    events,
		limiter:   ratelimit.New(requestsPerMinute),
		submitCB:  circuitbreaker.New[common.Hash](circuitbreaker.DefaultConfig("relay-submit")),
		logger:    log,
		inFlight:  make(map[inFlightKey]struct{}),
	}
}

// Submit signs bundle's transactions, submits them to the relay, and
// returns a Submission tracking the relay's bundle hash. Rejects with
// apperror.CodeQueueRejected when a bundle for the same strategy and
// target block is already outstanding.
func (s *Service) Submit(ctx context.Context, bundle *bundledomain.Bundle) (*domain.Submission, error) {
	key := inFlightKey{strategy: bundle.Strategy, targetBlock: bundle.TargetBlock}

	s.mu.Lock()
	if _, exists := s.inFlight[key]; exists {
		s.mu.Unlock()
		return nil, apperror.New(apperror.CodeQueueRejected,
			apperror.WithContext(fmt.Sprintf("relay: bundle already in flight for strategy %s at block %d", bundle.Strategy, bundle.TargetBlock)))
	}
	s.inFlight[key] = struct{}{}
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		release()
		return nil, apperror.New(apperror.CodeTimeout, apperror.WithCause(err),
			apperror.WithContext("relay: rate limiter wait"))
	}

	signedTxs, err := s.signer.SignBundle(ctx, bundle)
	if err != nil {
		release()
		return nil, apperror.New(apperror.CodeRelaySubmitFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("bundle %s: sign", bundle.ID)))
	}

	hash, err := s.submitCB.Execute(func() (common.Hash, error) {
		return s.submitter.SubmitBundle(ctx, bundle, signedTxs)
	})
	if err != nil {
		release()
		return nil, apperror.New(apperror.CodeRelaySubmitFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("bundle %s: submit", bundle.ID)))
	}

	sub := &domain.Submission{
		BundleID:          bundle.ID,
		OpportunityID:     bundle.OpportunityID,
		Strategy:          bundle.Strategy,
		TargetBlock:       bundle.TargetBlock,
		BundleHash:        hash,
		Status:            domain.StatusPending,
		SubmittedAt:       time.Now(),
		ExpectedProfitWei: bundle.ExpectedProfitWei,
	}
	s.publishStatus(ctx, sub)

	return sub, nil
}

// Poll queries the relay for sub's current status against currentBlock,
// updating and returning sub. Once sub reaches a terminal status the
// in-flight slot for its strategy/target-block pair is released and
// subsequent Poll calls are no-ops.
func (s *Service) Poll(ctx context.Context, sub *domain.Submission, currentBlock uint64) (*domain.Submission, error) {
	if sub.IsTerminal() {
		return sub, nil
	}

	status, err := s.submitter.GetBundleStatus(ctx, sub.BundleHash)
	if err != nil {
		return sub, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("bundle %s: poll status", sub.BundleID)))
	}

	sub.LastPolledAt = time.Now()
	prevStatus := sub.Status

	switch status {
	case domain.StatusIncluded:
		sub.Status = domain.StatusIncluded
		sub.ActualProfitWei = sub.ExpectedProfitWei
	case domain.StatusFailed:
		sub.Status = domain.StatusFailed
		sub.FailureReason = "relay reported bundle failure"
	case domain.StatusPending:
		if currentBlock > sub.TargetBlock {
			sub.Status = domain.StatusExpired
			sub.FailureReason = fmt.Sprintf("still pending at block %d, past target block %d", currentBlock, sub.TargetBlock)
		}
	}

	if sub.Status != prevStatus {
		s.publishStatus(ctx, sub)
		if sub.IsTerminal() {
			s.release(sub)
		}
	}

	if sub.Status == domain.StatusExpired {
		return sub, apperror.New(apperror.CodeOpportunityExpired,
			apperror.WithContext(fmt.Sprintf("bundle %s: expired without inclusion", sub.BundleID)))
	}

	return sub, nil
}

func (s *Service) release(sub *domain.Submission) {
	key := inFlightKey{strategy: sub.Strategy, targetBlock: sub.TargetBlock}
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

func (s *Service) publishStatus(ctx context.Context, sub *domain.Submission) {
	event := domain.StatusEvent{
		BundleID:        sub.BundleID,
		OpportunityID:   sub.OpportunityID,
		Strategy:        sub.Strategy,
		TargetBlock:     sub.TargetBlock,
		Status:          sub.Status,
		ActualProfitWei: sub.ActualProfitWei,
		FailureReason:   sub.FailureReason,
		Timestamp:       time.Now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "relay: status event publish failed", "bundle_id", sub.BundleID, "error", err)
	}
}
