package app

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/codec/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
)

// DecodedCall is the generic result of decoding a selector-prefixed
// calldata blob against a known ABI.
type DecodedCall struct {
	Method string
	Args   []any
}

// Decoder validates and unpacks calldata produced by Encoder, failing with
// a typed apperror on length/selector mismatch.
type Decoder struct {
	contracts []abi.ABI
}

// NewDecoder parses the same ABI fragments the Encoder uses.
func NewDecoder() (*Decoder, error) {
	sources := []string{
		domain.UniswapV2RouterABI,
		domain.UniswapV3RouterABI,
		domain.ERC20ABI,
		domain.AaveV3ABI,
		domain.CompoundV3ABI,
		domain.MakerDogABI,
		domain.FlashLoanReceiverABI,
	}
	d := &Decoder{}
	for _, src := range sources {
		parsed, err := abi.JSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("codec: parse abi: %w", err)
		}
		d.contracts = append(d.contracts, parsed)
	}
	return d, nil
}

// Decode validates length and selector, matches against every known
// contract ABI, and unpacks the arguments of the first match.
func (d *Decoder) Decode(data []byte) (*DecodedCall, error) {
	if len(data) < 4 {
		return nil, apperror.New(apperror.CodeCalldataTooShort,
			apperror.WithContext(fmt.Sprintf("calldata length %d < 4", len(data))))
	}

	for _, contract := range d.contracts {
		method, err := contract.MethodById(data[:4])
		if err != nil {
			continue
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, apperror.New(apperror.CodeABIDecodeFailed,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("unpack %s", method.Name)))
		}
		return &DecodedCall{Method: method.Name, Args: args}, nil
	}

	return nil, apperror.New(apperror.CodeSelectorMismatch,
		apperror.WithContext(fmt.Sprintf("selector %x not recognised", data[:4])))
}

// Selector returns the 4-byte selector of a calldata blob, or an error if
// it is too short to contain one.
func Selector(data []byte) (domain.Selector, error) {
	if len(data) < 4 {
		var zero domain.Selector
		return zero, apperror.New(apperror.CodeCalldataTooShort,
			apperror.WithContext(fmt.Sprintf("calldata length %d < 4", len(data))))
	}
	var s domain.Selector
	copy(s[:], data[:4])
	return s, nil
}

// DecodeTransferEvent parses an ERC-20 Transfer log's (from, to, value)
// from topics[1..3] + data[0..32], per spec.md §4.1.
func DecodeTransferEvent(topics []common.Hash, data []byte) (from, to common.Address, value *big.Int, err error) {
	if len(topics) < 3 {
		return common.Address{}, common.Address{}, nil, apperror.New(apperror.CodeInvalidResponse,
			apperror.WithContext(fmt.Sprintf("transfer event has %d topics, need 3", len(topics))))
	}
	if len(data) < 32 {
		return common.Address{}, common.Address{}, nil, apperror.New(apperror.CodeInvalidResponse,
			apperror.WithContext(fmt.Sprintf("transfer event data length %d < 32", len(data))))
	}
	from = common.BytesToAddress(topics[1].Bytes())
	to = common.BytesToAddress(topics[2].Bytes())
	value = new(big.Int).SetBytes(data[:32])
	return from, to, value, nil
}
