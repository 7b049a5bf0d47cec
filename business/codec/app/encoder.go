// Package app implements the ABI codec (C1): encoding function calls for
// every router/protocol signature in spec.md §6 and decoding them back,
// following the abi.JSON + Pack/Unpack pattern already used for the
// Uniswap V3 quoter in business/pricing/infra/uniswap.
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

// UniswapV3ExactInputSingleParams mirrors ISwapRouter.ExactInputSingleParams.
type UniswapV3ExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Encoder produces selector + head-tail ABI encoded calldata for every
// signature the searcher needs to build transactions against.
type Encoder struct {
	routerV2 abi.ABI
	routerV3 abi.ABI
	erc20    abi.ABI
	aaveV3   abi.ABI
	compound abi.ABI
	makerDog abi.ABI
	receiver abi.ABI
}

// NewEncoder parses every ABI fragment once at construction time.
func NewEncoder() (*Encoder, error) {
	parse := func(name, src string) (abi.ABI, error) {
		parsed, err := abi.JSON(strings.NewReader(src))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("codec: parse %s abi: %w", name, err)
		}
		return parsed, nil
	}

	var e Encoder
	var err error
	if e.routerV2, err = parse("uniswapV2Router", domain.UniswapV2RouterABI); err != nil {
		return nil, err
	}
	if e.routerV3, err = parse("uniswapV3Router", domain.UniswapV3RouterABI); err != nil {
		return nil, err
	}
	if e.erc20, err = parse("erc20", domain.ERC20ABI); err != nil {
		return nil, err
	}
	if e.aaveV3, err = parse("aaveV3", domain.AaveV3ABI); err != nil {
		return nil, err
	}
	if e.compound, err = parse("compoundV3", domain.CompoundV3ABI); err != nil {
		return nil, err
	}
	if e.makerDog, err = parse("makerDog", domain.MakerDogABI); err != nil {
		return nil, err
	}
	if e.receiver, err = parse("flashLoanReceiver", domain.FlashLoanReceiverABI); err != nil {
		return nil, err
	}
	return &e, nil
}

// SwapExactTokensForTokens encodes Uniswap V2's swapExactTokensForTokens.
func (e *Encoder) SwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return e.pack(e.routerV2, "swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
}

// SwapExactETHForTokens encodes Uniswap V2's swapExactETHForTokens.
func (e *Encoder) SwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return e.pack(e.routerV2, "swapExactETHForTokens", amountOutMin, path, to, deadline)
}

// SwapTokensForExactTokens encodes Uniswap V2's swapTokensForExactTokens.
func (e *Encoder) SwapTokensForExactTokens(amountOut, amountInMax *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return e.pack(e.routerV2, "swapTokensForExactTokens", amountOut, amountInMax, path, to, deadline)
}

// ExactInputSingle encodes Uniswap V3's exactInputSingle.
func (e *Encoder) ExactInputSingle(params UniswapV3ExactInputSingleParams) ([]byte, error) {
	return e.pack(e.routerV3, "exactInputSingle", params)
}

// Transfer encodes ERC-20 transfer(address,uint256).
func (e *Encoder) Transfer(to common.Address, amount *big.Int) ([]byte, error) {
	return e.pack(e.erc20, "transfer", to, amount)
}

// Approve encodes ERC-20 approve(address,uint256).
func (e *Encoder) Approve(spender common.Address, amount *big.Int) ([]byte, error) {
	return e.pack(e.erc20, "approve", spender, amount)
}

// LiquidationCall encodes Aave V3's liquidationCall.
func (e *Encoder) LiquidationCall(collateralAsset, debtAsset, user common.Address, debtToCover *big.Int, receiveAToken bool) ([]byte, error) {
	return e.pack(e.aaveV3, "liquidationCall", collateralAsset, debtAsset, user, debtToCover, receiveAToken)
}

// FlashLoanSimple encodes Aave V3's flashLoanSimple.
func (e *Encoder) FlashLoanSimple(receiver, asset common.Address, amount *big.Int, params []byte, referralCode uint16) ([]byte, error) {
	return e.pack(e.aaveV3, "flashLoanSimple", receiver, asset, amount, params, referralCode)
}

// CompoundLiquidate encodes Compound V3's liquidate.
func (e *Encoder) CompoundLiquidate(absorber, account common.Address, amount *big.Int) ([]byte, error) {
	return e.pack(e.compound, "liquidate", absorber, account, amount)
}

// MakerBark encodes MakerDAO Dog's bark.
func (e *Encoder) MakerBark(ilk [32]byte, urn, kpr common.Address) ([]byte, error) {
	return e.pack(e.makerDog, "bark", ilk, urn, kpr)
}

// ExecuteLiquidation encodes the flash-loan receiver's executeLiquidation
// entry point; the result is embedded as flashLoanSimple's `params` bytes.
func (e *Encoder) ExecuteLiquidation(p domain.LiquidationReceiverParams) ([]byte, error) {
	return e.pack(e.receiver, "executeLiquidation",
		p.LiqTarget, p.LiqCalldata, p.SellTarget, p.SellCalldata, p.SellSpender,
		p.DebtAsset, p.Amount, p.CollateralAsset, p.MinOut)
}

// ExecuteSandwich encodes the flash-loan receiver's executeSandwich entry point.
func (e *Encoder) ExecuteSandwich(p domain.SandwichReceiverParams) ([]byte, error) {
	return e.pack(e.receiver, "executeSandwich", p.Router, p.FrontCalldata, p.BackCalldata, p.Asset, p.Amount)
}

// ExecuteArbitrage encodes the flash-loan receiver's executeArbitrage entry point.
func (e *Encoder) ExecuteArbitrage(p domain.ArbitrageReceiverParams) ([]byte, error) {
	return e.pack(e.receiver, "executeArbitrage", p.RouterBuy, p.BuyCalldata, p.RouterSell, p.SellCalldata, p.Asset, p.Amount)
}

func (e *Encoder) pack(contract abi.ABI, method string, args ...any) ([]byte, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeCalldataGenerationFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("encode %s", method)))
	}
	return data, nil
}
