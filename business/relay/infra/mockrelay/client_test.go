package mockrelay

import (
	"context"
	"testing"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	"github.com/fd1az/mev-searcher/business/relay/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
)

func TestSubmitBundle_AlwaysSucceedsReturnsStableHash(t *testing.T) {
	c := New(1.0)
	bundle := &bundledomain.Bundle{ID: "sandwich-0xabc"}

	hash1, err := c.SubmitBundle(context.Background(), bundle, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash2, err := c.SubmitBundle(context.Background(), bundle, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash1 != hash2 {
		t.Fatalf("expected the same bundle ID to derive a stable hash, got %s and %s", hash1, hash2)
	}
}

func TestSubmitBundle_AlwaysFailsReturnsRelaySubmitFailed(t *testing.T) {
	c := New(0.0)
	bundle := &bundledomain.Bundle{ID: "sandwich-0xdef"}

	_, err := c.SubmitBundle(context.Background(), bundle, nil)
	if err == nil {
		t.Fatalf("expected submission error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeRelaySubmitFailed {
		t.Fatalf("expected CodeRelaySubmitFailed, got %s", code)
	}
}

func TestGetBundleStatus_DistributionMatchesConfiguredSplit(t *testing.T) {
	c := New(1.0)
	counts := map[domain.Status]int{}
	const n = 5000

	for i := 0; i < n; i++ {
		status, err := c.GetBundleStatus(context.Background(), [32]byte{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counts[status]++
	}

	pendingFrac := float64(counts[domain.StatusPending]) / n
	includedFrac := float64(counts[domain.StatusIncluded]) / n
	failedFrac := float64(counts[domain.StatusFailed]) / n

	if pendingFrac < 0.35 || pendingFrac > 0.45 {
		t.Fatalf("expected ~40%% pending, got %.3f", pendingFrac)
	}
	if includedFrac < 0.25 || includedFrac > 0.35 {
		t.Fatalf("expected ~30%% included, got %.3f", includedFrac)
	}
	if failedFrac < 0.25 || failedFrac > 0.35 {
		t.Fatalf("expected ~30%% failed, got %.3f", failedFrac)
	}
}

func TestSignerMock_PassesThroughRawCalldata(t *testing.T) {
	s := Signer{}
	bundle := &bundledomain.Bundle{
		ID: "liq-0x111",
		Transactions: []bundledomain.Transaction{
			{Kind: bundledomain.TxKindApprove, Data: []byte{0x01, 0x02}},
			{Kind: bundledomain.TxKindLiquidation, Data: []byte{0x03}},
		},
	}

	signed, err := s.SignBundle(context.Background(), bundle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signed) != 2 {
		t.Fatalf("expected 2 signed legs, got %d", len(signed))
	}
	if string(signed[0]) != string([]byte{0x01, 0x02}) {
		t.Fatalf("expected first leg calldata unchanged")
	}
}
