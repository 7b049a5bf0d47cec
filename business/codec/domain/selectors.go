// Package domain holds the ABI signature table and flash-loan receiver
// parameter layouts the codec encodes and decodes against. Selectors are
// listed explicitly (rather than left to be recomputed at runtime) so a
// decoder can classify a transaction by a 4-byte comparison before paying
// for a full ABI unpack.
package domain

import "github.com/ethereum/go-ethereum/common"

// Selector is a 4-byte EVM function selector.
type Selector [4]byte

// String renders the selector as a 0x-prefixed hex string.
func (s Selector) String() string {
	return "0x" + common.Bytes2Hex(s[:])
}

// Known router/protocol selectors, byte-identical to spec.md §6.
var (
	SelectorUniswapV2SwapExactTokensForTokens = mustSelector("0x38ed1739")
	SelectorUniswapV2SwapExactETHForTokens    = mustSelector("0x7ff36ab5")
	SelectorUniswapV2SwapTokensForExactTokens = mustSelector("0x8803dbee")
	SelectorUniswapV3ExactInputSingle         = mustSelector("0x414bf389")
	SelectorERC20Transfer                     = mustSelector("0xa9059cbb")
	SelectorERC20Approve                      = mustSelector("0x095ea7b3")
	SelectorAaveV3LiquidationCall             = mustSelector("0x00a718a9")
	SelectorAaveV3FlashLoanSimple             = mustSelector("0x42b0b77c")
	SelectorCompoundV3Liquidate               = mustSelector("0x5d8a8e1c")
	SelectorMakerDogBark                      = mustSelector("0x54fd4d50")
)

// KnownSwapSelectors is the set C2 classifies a pending transaction's `to`
// selector against when deciding if it is a sandwich-target candidate.
var KnownSwapSelectors = map[Selector]string{
	SelectorUniswapV2SwapExactTokensForTokens: "uniswapV2.swapExactTokensForTokens",
	SelectorUniswapV2SwapExactETHForTokens:    "uniswapV2.swapExactETHForTokens",
	SelectorUniswapV2SwapTokensForExactTokens: "uniswapV2.swapTokensForExactTokens",
	SelectorUniswapV3ExactInputSingle:         "uniswapV3.exactInputSingle",
}

func mustSelector(hex string) Selector {
	b := common.FromHex(hex)
	var s Selector
	copy(s[:], b)
	return s
}

// ABI fragments, one function each, parsed lazily by the encoder/decoder.
const (
	UniswapV2RouterABI = `[
		{"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},
		           {"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
		 "outputs":[{"name":"amounts","type":"uint256[]"}]},
		{"name":"swapExactETHForTokens","type":"function","stateMutability":"payable",
		 "inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},
		           {"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
		 "outputs":[{"name":"amounts","type":"uint256[]"}]},
		{"name":"swapTokensForExactTokens","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"amountOut","type":"uint256"},{"name":"amountInMax","type":"uint256"},
		           {"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
		 "outputs":[{"name":"amounts","type":"uint256[]"}]}
	]`

	UniswapV3RouterABI = `[
		{"name":"exactInputSingle","type":"function","stateMutability":"payable",
		 "inputs":[{"name":"params","type":"tuple","components":[
		   {"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},
		   {"name":"fee","type":"uint24"},{"name":"recipient","type":"address"},
		   {"name":"deadline","type":"uint256"},{"name":"amountIn","type":"uint256"},
		   {"name":"amountOutMinimum","type":"uint256"},{"name":"sqrtPriceLimitX96","type":"uint160"}]}],
		 "outputs":[{"name":"amountOut","type":"uint256"}]}
	]`

	ERC20ABI = `[
		{"name":"transfer","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
		 "outputs":[{"name":"","type":"bool"}]},
		{"name":"approve","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
		 "outputs":[{"name":"","type":"bool"}]},
		{"anonymous":false,"name":"Transfer","type":"event",
		 "inputs":[{"name":"from","type":"address","indexed":true},
		           {"name":"to","type":"address","indexed":true},
		           {"name":"value","type":"uint256","indexed":false}]}
	]`

	AaveV3ABI = `[
		{"name":"liquidationCall","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"collateralAsset","type":"address"},{"name":"debtAsset","type":"address"},
		           {"name":"user","type":"address"},{"name":"debtToCover","type":"uint256"},
		           {"name":"receiveAToken","type":"bool"}],"outputs":[]},
		{"name":"flashLoanSimple","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"receiverAddress","type":"address"},{"name":"asset","type":"address"},
		           {"name":"amount","type":"uint256"},{"name":"params","type":"bytes"},
		           {"name":"referralCode","type":"uint16"}],"outputs":[]}
	]`

	CompoundV3ABI = `[
		{"name":"liquidate","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"absorber","type":"address"},{"name":"account","type":"address"},
		           {"name":"amount","type":"uint256"}],"outputs":[]}
	]`

	MakerDogABI = `[
		{"name":"bark","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"ilk","type":"bytes32"},{"name":"urn","type":"address"},
		           {"name":"kpr","type":"address"}],"outputs":[{"name":"id","type":"uint256"}]}
	]`

	// FlashLoanReceiverABI is the internal receiver contract's entry points,
	// called from inside Aave's flashLoanSimple callback via its `params`
	// payload. Parameter layouts are fixed per spec.md §6.
	FlashLoanReceiverABI = `[
		{"name":"executeLiquidation","type":"function","stateMutability":"nonpayable",
		 "inputs":[
		   {"name":"liqTarget","type":"address"},{"name":"liqCalldata","type":"bytes"},
		   {"name":"sellTarget","type":"address"},{"name":"sellCalldata","type":"bytes"},{"name":"sellSpender","type":"address"},
		   {"name":"debtAsset","type":"address"},{"name":"amount","type":"uint256"},
		   {"name":"collateralAsset","type":"address"},{"name":"minOut","type":"uint256"}],"outputs":[]},
		{"name":"executeSandwich","type":"function","stateMutability":"nonpayable",
		 "inputs":[
		   {"name":"router","type":"address"},{"name":"frontCalldata","type":"bytes"},{"name":"backCalldata","type":"bytes"},
		   {"name":"asset","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
		{"name":"executeArbitrage","type":"function","stateMutability":"nonpayable",
		 "inputs":[
		   {"name":"routerBuy","type":"address"},{"name":"buyCalldata","type":"bytes"},
		   {"name":"routerSell","type":"address"},{"name":"sellCalldata","type":"bytes"},
		   {"name":"asset","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
	]`
)
