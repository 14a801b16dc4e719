package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the handful of methods the console touches.
// Full artifacts are unnecessary; the chain only checks the 4-byte selector.

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]}
]`

const wethABIJSON = `[
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]}
]`

const vaultABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"convertToAssets","stateMutability":"view","inputs":[{"name":"shares","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"debtOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"cash","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"oracle","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"unitOfAccount","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"LTVBorrow","stateMutability":"view","inputs":[{"name":"collateral","type":"address"}],"outputs":[{"type":"uint16"}]},
	{"type":"function","name":"LTVLiquidation","stateMutability":"view","inputs":[{"name":"collateral","type":"address"}],"outputs":[{"type":"uint16"}]},
	{"type":"function","name":"interestRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"borrow","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"repay","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"type":"uint256"}]}
]`

const routerABIJSON = `[
	{"type":"function","name":"getQuote","stateMutability":"view","inputs":[{"name":"inAmount","type":"uint256"},{"name":"base","type":"address"},{"name":"quote","type":"address"}],"outputs":[{"type":"uint256"}]}
]`

const psmABIJSON = `[
	{"type":"function","name":"quoteToSynthGivenIn","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"quoteToUnderlyingGivenIn","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"swapToSynthGivenIn","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"swapToUnderlyingGivenIn","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"type":"uint256"}]}
]`

const srmABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"previewDeposit","stateMutability":"view","inputs":[{"name":"assets","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"previewWithdraw","stateMutability":"view","inputs":[{"name":"assets","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"maxWithdraw","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"dripRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"totalAssets","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]}
]`

var (
	erc20ABI  = mustABI(erc20ABIJSON)
	wethABI   = mustABI(wethABIJSON)
	vaultABI  = mustABI(vaultABIJSON)
	routerABI = mustABI(routerABIJSON)
	psmABI    = mustABI(psmABIJSON)
	srmABI    = mustABI(srmABIJSON)
)

func mustABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("invalid ABI definition: " + err.Error())
	}
	return parsed
}
