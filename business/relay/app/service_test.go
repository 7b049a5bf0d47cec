package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/business/relay/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeSubmitter struct {
	hash       common.Hash
	submitErr  error
	status     domain.Status
	statusErr  error
	submitCalls int
}

func (f *fakeSubmitter) SubmitBundle(ctx context.Context, bundle *bundledomain.Bundle, signedTxs [][]byte) (common.Hash, error) {
	f.submitCalls++
	return f.hash, f.submitErr
}

func (f *fakeSubmitter) GetBundleStatus(ctx context.Context, hash common.Hash) (domain.Status, error) {
	return f.status, f.statusErr
}

type fakeSigner struct{}

func (fakeSigner) SignBundle(ctx context.Context, bundle *bundledomain.Bundle) ([][]byte, error) {
	out := make([][]byte, len(bundle.Transactions))
	for i, tx := range bundle.Transactions {
		out[i] = tx.Data
	}
	return out, nil
}

type recordingPublisher struct {
	events []domain.StatusEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.StatusEvent) error {
	p.events = append(p.events, event)
	return nil
}

func testBundle(strategy opportunitydomain.StrategyTag, targetBlock uint64) *bundledomain.Bundle {
	return &bundledomain.Bundle{
		ID:                "sandwich-0xabc",
		OpportunityID:     "opp-1",
		Strategy:          strategy,
		TargetBlock:       targetBlock,
		ExpectedProfitWei: big.NewInt(1e16),
		Transactions: []bundledomain.Transaction{
			{Kind: bundledomain.TxKindApprove, Data: []byte{0x01}},
		},
	}
}

func TestSubmit_ReturnsPendingSubmission(t *testing.T) {
	submitter := &fakeSubmitter{hash: common.HexToHash("0x1111")}
	publisher := &recordingPublisher{}
	svc := NewService(submitter, fakeSigner{}, publisher, 6000, logger.New(nopWriter{}, logger.LevelError, "relay-test", nil))

	sub, err := svc.Submit(context.Background(), testBundle(opportunitydomain.StrategySandwich, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %s", sub.Status)
	}
	if sub.BundleHash != common.HexToHash("0x1111") {
		t.Fatalf("expected bundle hash to be recorded")
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
}

func TestSubmit_RejectsSecondSubmissionForSameStrategyAndBlock(t *testing.T) {
	submitter := &fakeSubmitter{hash: common.HexToHash("0x1111")}
	publisher := &recordingPublisher{}
	svc := NewService(submitter, fakeSigner{}, publisher, 6000, logger.New(nopWriter{}, logger.LevelError, "relay-test", nil))

	if _, err := svc.Submit(context.Background(), testBundle(opportunitydomain.StrategySandwich, 100)); err != nil {
		t.Fatalf("unexpected error on first submit: %v", err)
	}

	_, err := svc.Submit(context.Background(), testBundle(opportunitydomain.StrategySandwich, 100))
	if err == nil {
		t.Fatalf("expected rejection on second submit for the same strategy/target block")
	}
	if code := apperror.GetCode(err); code != apperror.CodeQueueRejected {
		t.Fatalf("expected CodeQueueRejected, got %s", code)
	}
}

func TestSubmit_PropagatesSubmitterFailureAndReleasesSlot(t *testing.T) {
	submitter := &fakeSubmitter{submitErr: apperror.New(apperror.CodeRelaySubmitFailed)}
	publisher := &recordingPublisher{}
	svc := NewService(submitter, fakeSigner{}, publisher, 6000, logger.New(nopWriter{}, logger.LevelError, "relay-test", nil))

	_, err := svc.Submit(context.Background(), testBundle(opportunitydomain.StrategySandwich, 100))
	if err == nil {
		t.Fatalf("expected submission error")
	}

	// The in-flight slot must have been released: a retry for the same
	// strategy/target block should reach the submitter again rather than
	// being rejected as a duplicate.
	submitter.submitErr = nil
	if _, err := svc.Submit(context.Background(), testBundle(opportunitydomain.StrategySandwich, 100)); err != nil {
		t.Fatalf("expected retry to succeed after slot release, got: %v", err)
	}
	if submitter.submitCalls != 2 {
		t.Fatalf("expected 2 submit calls, got %d", submitter.submitCalls)
	}
}

func TestPoll_TransitionsToIncludedAndRecordsProfit(t *testing.T) {
	submitter := &fakeSubmitter{status: domain.StatusIncluded}
	publisher := &recordingPublisher{}
	svc := NewService(submitter, fakeSigner{}, publisher, 6000, logger.New(nopWriter{}, logger.LevelError, "relay-test", nil))

	sub, err := svc.Submit(context.Background(), testBundle(opportunitydomain.StrategySandwich, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err = svc.Poll(context.Background(), sub, 101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != domain.StatusIncluded {
		t.Fatalf("expected included status, got %s", sub.Status)
	}
	if sub.ActualProfitWei == nil || sub.ActualProfitWei.Cmp(sub.ExpectedProfitWei) != 0 {
		t.Fatalf("expected actual profit to carry the expected profit on inclusion")
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 published events (pending, included), got %d", len(publisher.events))
	}
}

func TestPoll_ExpiresWhenStillPendingPastTargetBlock(t *testing.T) {
	submitter := &fakeSubmitter{status: domain.StatusPending}
	publisher := &recordingPublisher{}
	svc := NewService(submitter, fakeSigner{}, publisher, 6000, logger.New(nopWriter{}, logger.LevelError, "relay-test", nil))

	sub, err := svc.Submit(context.Background(), testBundle(opportunitydomain.StrategySandwich, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err = svc.Poll(context.Background(), sub, 105)
	if err == nil {
		t.Fatalf("expected expiry error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeOpportunityExpired {
		t.Fatalf("expected CodeOpportunityExpired, got %s", code)
	}
	if sub.Status != domain.StatusExpired {
		t.Fatalf("expected expired status, got %s", sub.Status)
	}
}

func TestPoll_TerminalSubmissionIsANoop(t *testing.T) {
	submitter := &fakeSubmitter{status: domain.StatusFailed}
	publisher := &recordingPublisher{}
	svc := NewService(submitter, fakeSigner{}, publisher, 6000, logger.New(nopWriter{}, logger.LevelError, "relay-test", nil))

	sub := &domain.Submission{Status: domain.StatusIncluded}
	got, err := svc.Poll(context.Background(), sub, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusIncluded {
		t.Fatalf("expected status to remain included, got %s", got.Status)
	}
}
