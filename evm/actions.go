package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dbconsole/native/swap"
)

// Addresses holds the deployed contract addresses the console talks to. A
// zero address means the contract is not configured.
type Addresses struct {
	USDC            common.Address
	DBUSD           common.Address
	WETH            common.Address
	CollateralVault common.Address
	DebtVault       common.Address
	PSM             common.Address
	SRM             common.Address
}

// Configured reports whether an address is set.
func Configured(addr common.Address) bool {
	return addr != (common.Address{})
}

// BorrowActions implements the on-chain legs of the borrow form.
type BorrowActions struct {
	client *Client
	tx     *Transactor
	addrs  Addresses
}

// NewBorrowActions wires the borrow form's chain calls.
func NewBorrowActions(client *Client, tx *Transactor, addrs Addresses) *BorrowActions {
	return &BorrowActions{client: client, tx: tx, addrs: addrs}
}

func (a *BorrowActions) WrapNative(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.WETH, wethABI, "deposit", amount)
}

func (a *BorrowActions) ApproveCollateral(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.WETH, erc20ABI, "approve", nil, a.addrs.CollateralVault, amount)
}

func (a *BorrowActions) ApproveDebt(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.DBUSD, erc20ABI, "approve", nil, a.addrs.DebtVault, amount)
}

func (a *BorrowActions) Deposit(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.CollateralVault, vaultABI, "deposit", nil, amount, a.tx.From())
}

func (a *BorrowActions) Withdraw(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.CollateralVault, vaultABI, "withdraw", nil, amount, a.tx.From(), a.tx.From())
}

func (a *BorrowActions) Borrow(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.DebtVault, vaultABI, "borrow", nil, amount, a.tx.From())
}

func (a *BorrowActions) Repay(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.DebtVault, vaultABI, "repay", nil, amount, a.tx.From())
}

func (a *BorrowActions) CollateralAllowance(ctx context.Context) (*big.Int, error) {
	return a.client.CallUint(ctx, a.addrs.WETH, erc20ABI, "allowance", a.tx.From(), a.addrs.CollateralVault)
}

func (a *BorrowActions) DebtAllowance(ctx context.Context) (*big.Int, error) {
	return a.client.CallUint(ctx, a.addrs.DBUSD, erc20ABI, "allowance", a.tx.From(), a.addrs.DebtVault)
}

// SwapActions implements the quote reads and swap legs of the swap form.
type SwapActions struct {
	client *Client
	tx     *Transactor
	addrs  Addresses
}

// NewSwapActions wires the swap form's chain calls.
func NewSwapActions(client *Client, tx *Transactor, addrs Addresses) *SwapActions {
	return &SwapActions{client: client, tx: tx, addrs: addrs}
}

func (a *SwapActions) fromToken(direction swap.Direction) common.Address {
	if direction == swap.ToUnderlying {
		return a.addrs.DBUSD
	}
	return a.addrs.USDC
}

func (a *SwapActions) Quote(ctx context.Context, direction swap.Direction, amountIn *big.Int) (*big.Int, error) {
	method := "quoteToSynthGivenIn"
	if direction == swap.ToUnderlying {
		method = "quoteToUnderlyingGivenIn"
	}
	return a.client.CallUint(ctx, a.addrs.PSM, psmABI, method, amountIn)
}

func (a *SwapActions) Allowance(ctx context.Context, direction swap.Direction) (*big.Int, error) {
	return a.client.CallUint(ctx, a.fromToken(direction), erc20ABI, "allowance", a.tx.From(), a.addrs.PSM)
}

func (a *SwapActions) Approve(ctx context.Context, direction swap.Direction, amount *big.Int) error {
	return a.tx.Execute(ctx, a.fromToken(direction), erc20ABI, "approve", nil, a.addrs.PSM, amount)
}

func (a *SwapActions) Swap(ctx context.Context, direction swap.Direction, amount *big.Int) error {
	method := "swapToSynthGivenIn"
	if direction == swap.ToUnderlying {
		method = "swapToUnderlyingGivenIn"
	}
	return a.tx.Execute(ctx, a.addrs.PSM, psmABI, method, nil, amount, a.tx.From())
}

// EarnActions implements the preview reads and savings legs of the earn form.
type EarnActions struct {
	client *Client
	tx     *Transactor
	addrs  Addresses
}

// NewEarnActions wires the earn form's chain calls.
func NewEarnActions(client *Client, tx *Transactor, addrs Addresses) *EarnActions {
	return &EarnActions{client: client, tx: tx, addrs: addrs}
}

func (a *EarnActions) PreviewDeposit(ctx context.Context, assets *big.Int) (*big.Int, error) {
	return a.client.CallUint(ctx, a.addrs.SRM, srmABI, "previewDeposit", assets)
}

func (a *EarnActions) PreviewWithdraw(ctx context.Context, assets *big.Int) (*big.Int, error) {
	return a.client.CallUint(ctx, a.addrs.SRM, srmABI, "previewWithdraw", assets)
}

func (a *EarnActions) Approve(ctx context.Context, amount *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.DBUSD, erc20ABI, "approve", nil, a.addrs.SRM, amount)
}

func (a *EarnActions) Allowance(ctx context.Context) (*big.Int, error) {
	return a.client.CallUint(ctx, a.addrs.DBUSD, erc20ABI, "allowance", a.tx.From(), a.addrs.SRM)
}

func (a *EarnActions) Deposit(ctx context.Context, assets *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.SRM, srmABI, "deposit", nil, assets, a.tx.From())
}

func (a *EarnActions) Withdraw(ctx context.Context, assets *big.Int) error {
	return a.tx.Execute(ctx, a.addrs.SRM, srmABI, "withdraw", nil, assets, a.tx.From(), a.tx.From())
}
