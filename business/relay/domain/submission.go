// Package domain holds the Submission shape C8 tracks from the moment a
// simulated Bundle is handed to the relay until its inclusion status
// settles.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// Status is the relay's answer to a bundle inclusion query.
type Status string

const (
	StatusPending  Status = "pending"
	StatusIncluded Status = "included"
	StatusFailed   Status = "failed"
	StatusExpired  Status = "expired"
)

// Submission tracks one bundle from submission through its terminal
// status. BundleHash identifies it to the relay for status polling.
type Submission struct {
	BundleID        string
	OpportunityID   string
	Strategy        opportunitydomain.StrategyTag
	TargetBlock     uint64
	BundleHash      common.Hash
	Status          Status
	SubmittedAt     time.Time
	LastPolledAt    time.Time
	ExpectedProfitWei *big.Int
	ActualProfitWei   *big.Int
	FailureReason     string
}

// IsTerminal reports whether s has reached a status the submitter no
// longer polls.
func (s *Submission) IsTerminal() bool {
	switch s.Status {
	case StatusIncluded, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// StatusEvent is published to the bundle-lifecycle audit trail every time
// a Submission's status changes, alongside C7's build/simulate events.
type StatusEvent struct {
	BundleID      string
	OpportunityID string
	Strategy      opportunitydomain.StrategyTag
	TargetBlock   uint64
	Status        Status
	ActualProfitWei *big.Int
	FailureReason   string
	Timestamp       time.Time
}
