// Package domain holds the transaction shapes C2 classifies.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction is an observed or synthesised pending transaction.
type Transaction struct {
	Hash        common.Hash
	From        common.Address
	To          *common.Address // nil for contract creation
	Value       *big.Int        // wei, 256-bit unsigned
	GasPrice    *big.Int        // wei
	GasLimit    uint64
	Nonce       uint64
	Input       []byte
	BlockNumber *uint64 // nil while pending
	Timestamp   time.Time
}

// Kind tags what a DecodedTransaction was classified as.
type Kind string

const (
	KindSandwichTarget Kind = "sandwich-target"
	KindUnknown        Kind = "unknown"
)

// DecodedTransaction is C2's output: a classification plus whatever
// semantic fields the classifier extracted (path, amountIn, victim, ...).
type DecodedTransaction struct {
	Kind       Kind
	Parameters map[string]any
}
