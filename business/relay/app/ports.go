package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	"github.com/fd1az/mev-searcher/business/relay/domain"
)

// Submitter sends a Bundle's signed transactions to a relay and polls for
// inclusion status by the hash it returns.
type Submitter interface {
	SubmitBundle(ctx context.Context, bundle *bundledomain.Bundle, signedTxs [][]byte) (common.Hash, error)
	GetBundleStatus(ctx context.Context, hash common.Hash) (domain.Status, error)
}

// Signer produces signed, relay-ready raw transactions for every leg of a
// Bundle, in order. Implementations that never sign (mock mode) may return
// the unsigned calldata as a placeholder payload.
type Signer interface {
	SignBundle(ctx context.Context, bundle *bundledomain.Bundle) ([][]byte, error)
}

// EventPublisher emits a domain.StatusEvent to the bundle-lifecycle audit
// trail whenever a Submission's status changes.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.StatusEvent) error
}
