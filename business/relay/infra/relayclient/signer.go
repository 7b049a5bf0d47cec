package relayclient

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
)

// NonceSource resolves the next usable nonce for the operator account.
// *ethclient.Client satisfies this directly via PendingNonceAt.
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Signer signs every leg of a Bundle with the operator's key using
// EIP-1559 dynamic-fee transactions, in order, so the resulting raw
// transactions can be submitted to the relay back to back.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	nonces     NonceSource
}

// NewSigner builds a Signer from a hex-encoded private key (with or
// without the 0x prefix).
func NewSigner(privateKeyHex string, chainID *big.Int, nonces NonceSource) (*Signer, error) {
	if len(privateKeyHex) > 1 && privateKeyHex[:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("relay/relayclient: parse operator private key: %w", err)
	}
	return &Signer{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		chainID:    chainID,
		nonces:     nonces,
	}, nil
}

// Address returns the operator address signed transactions originate
// from.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignBundle signs each of bundle's legs with sequential nonces starting
// from the account's current pending nonce, returning each leg's RLP-
// encoded raw transaction bytes in bundle order.
func (s *Signer) SignBundle(ctx context.Context, bundle *bundledomain.Bundle) ([][]byte, error) {
	nonce, err := s.nonces.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext("relay: fetch pending nonce"))
	}

	signer := types.NewLondonSigner(s.chainID)
	out := make([][]byte, len(bundle.Transactions))

	for i, leg := range bundle.Transactions {
		value := leg.Value
		if value == nil {
			value = big.NewInt(0)
		}
		tx := types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce + uint64(i),
			GasTipCap: leg.MaxPriorityFeePerGas,
			GasFeeCap: leg.MaxFeePerGas,
			Gas:       leg.GasLimit,
			To:        &leg.To,
			Value:     value,
			Data:      leg.Data,
		})

		signedTx, err := types.SignTx(tx, signer, s.privateKey)
		if err != nil {
			return nil, apperror.New(apperror.CodeRelaySubmitFailed, apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("bundle %s: sign leg %d (%s)", bundle.ID, i, leg.Kind)))
		}

		raw, err := signedTx.MarshalBinary()
		if err != nil {
			return nil, apperror.New(apperror.CodeRelaySubmitFailed, apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("bundle %s: encode leg %d", bundle.ID, i)))
		}
		out[i] = raw
	}

	return out, nil
}
