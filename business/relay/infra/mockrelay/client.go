// Package mockrelay implements the Submitter and Signer ports without a
// real relay, for API_MODE=mock: submission and status distributions are
// random draws against configured rates, matching the deterministic-shape
// behavior bundle/infra/mocksim already uses for simulation.
package mockrelay

import (
	"context"
	"crypto/sha256"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	"github.com/fd1az/mev-searcher/business/relay/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
)

// Client is a deterministic-shape, randomized-outcome stand-in for a
// relay's submission and bundle-status endpoints.
type Client struct {
	submitSuccessRate float64
	rng               *rand.Rand
}

// New constructs a mock Client. submitSuccessRate comes from configuration.
func New(submitSuccessRate float64) *Client {
	return &Client{
		submitSuccessRate: submitSuccessRate,
		rng:               rand.New(rand.NewSource(2)),
	}
}

// SubmitBundle never calls out over the network: it rolls pass/fail
// against submitSuccessRate and, on success, derives a stable hash from
// the bundle ID so repeated status polls address the same submission.
func (c *Client) SubmitBundle(ctx context.Context, bundle *bundledomain.Bundle, signedTxs [][]byte) (common.Hash, error) {
	if c.rng.Float64() >= c.submitSuccessRate {
		return common.Hash{}, apperror.New(apperror.CodeRelaySubmitFailed,
			apperror.WithContext("mock relay: submission failed"))
	}
	sum := sha256.Sum256([]byte(bundle.ID))
	return common.BytesToHash(sum[:]), nil
}

// GetBundleStatus rolls a status from the same 40%/30%/30%
// pending/included/failed distribution the mock relay has always used.
func (c *Client) GetBundleStatus(ctx context.Context, hash common.Hash) (domain.Status, error) {
	r := c.rng.Float64()
	switch {
	case r < 0.4:
		return domain.StatusPending, nil
	case r < 0.7:
		return domain.StatusIncluded, nil
	default:
		return domain.StatusFailed, nil
	}
}

// Signer is the mock-mode Signer: it never holds a private key, and
// passes each transaction's calldata through unsigned. Real submission
// paths must use relayclient.Signer instead.
type Signer struct{}

// SignBundle returns each leg's raw calldata unmodified as a placeholder
// payload; mockrelay.Client never inspects it.
func (Signer) SignBundle(ctx context.Context, bundle *bundledomain.Bundle) ([][]byte, error) {
	out := make([][]byte, len(bundle.Transactions))
	for i, tx := range bundle.Transactions {
		out[i] = tx.Data
	}
	return out, nil
}
