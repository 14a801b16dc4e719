// Package borrow holds the form state behind the borrow surface: four
// mutually-exclusive actions against a collateral vault and a debt vault,
// projected position math, limit validation, and the multi-step submission
// sequence (optional wrap, optional approval, primary call).
package borrow

import (
	"context"
	"math/big"
)

// Mode names one of the four actions the form can submit.
type Mode string

const (
	ModeDeposit  Mode = "deposit"
	ModeWithdraw Mode = "withdraw"
	ModeBorrow   Mode = "borrow"
	ModeRepay    Mode = "repay"
)

// Valid reports whether the mode is one of the four known actions.
func (m Mode) Valid() bool {
	switch m {
	case ModeDeposit, ModeWithdraw, ModeBorrow, ModeRepay:
		return true
	}
	return false
}

// DepositAsset selects the collateral funding source: the wrapped token
// directly, or the native currency wrapped on the fly.
type DepositAsset string

const (
	AssetWrapped DepositAsset = "WETH"
	AssetNative  DepositAsset = "ETH"
)

// Wallet snapshots the connected account's balances and vault allowances.
// Nil fields are reads that have not resolved.
type Wallet struct {
	// NativeBalance is the native-currency balance, in 18 decimals.
	NativeBalance *big.Int
	// CollateralBalance is the wrapped collateral token balance.
	CollateralBalance *big.Int
	// DebtBalance is the borrower's debt-token wallet balance used to repay.
	DebtBalance *big.Int
	// CollateralAllowance is the amount the collateral vault may pull.
	CollateralAllowance *big.Int
	// DebtAllowance is the amount the debt vault may pull for repayment.
	DebtAllowance *big.Int
}

// Contracts flags which contract addresses are configured. Unset entries
// degrade the dependent actions to a configuration message instead of a
// submission attempt.
type Contracts struct {
	CollateralToken bool
	CollateralVault bool
	DebtToken       bool
	DebtVault       bool
}

// Symbols carries the display symbols for the three denominations involved.
type Symbols struct {
	Collateral string
	Debt       string
	Unit       string
}

// ActionClient performs the on-chain legs of a submission. Every call blocks
// until the transaction is mined or fails; errors carry the human-readable
// cause surfaced to the user verbatim.
type ActionClient interface {
	// WrapNative deposits native currency into the wrapped collateral token.
	WrapNative(ctx context.Context, amount *big.Int) error
	// ApproveCollateral grants the collateral vault an allowance.
	ApproveCollateral(ctx context.Context, amount *big.Int) error
	// ApproveDebt grants the debt vault an allowance for repayment.
	ApproveDebt(ctx context.Context, amount *big.Int) error
	// Deposit supplies collateral assets to the collateral vault.
	Deposit(ctx context.Context, amount *big.Int) error
	// Withdraw redeems collateral assets from the collateral vault.
	Withdraw(ctx context.Context, amount *big.Int) error
	// Borrow draws debt tokens from the debt vault.
	Borrow(ctx context.Context, amount *big.Int) error
	// Repay settles outstanding debt.
	Repay(ctx context.Context, amount *big.Int) error
	// CollateralAllowance re-reads the collateral vault allowance.
	CollateralAllowance(ctx context.Context) (*big.Int, error)
	// DebtAllowance re-reads the debt vault allowance.
	DebtAllowance(ctx context.Context) (*big.Int, error)
}

// Status and rejection messages. Limit rejections name the limit that was
// exceeded so the user knows which figure to check.
const (
	msgEnterAmount          = "Enter an amount."
	msgActionInProgress     = "Another action is in progress."
	msgExceedsWallet        = "Amount exceeds wallet balance."
	msgNothingToWithdraw    = "No collateral available to withdraw."
	msgExceedsWithdrawable  = "Amount exceeds withdrawable collateral."
	msgExceedsBorrowable    = "Amount exceeds available to borrow."
	msgExceedsBorrowed      = "Amount exceeds borrowed balance."
	msgCollateralTokenUnset = "Collateral token address is not configured."
	msgCollateralVaultUnset = "Collateral vault address is not configured."
	msgDebtTokenUnset       = "Debt token address is not configured."
	msgDebtVaultUnset       = "Debt vault address is not configured."
	msgApprovalShort        = "Approval did not cover the requested amount."

	statusWrapping    = "Wrapping ETH…"
	statusApproving   = "Submitting approval…"
	statusDepositing  = "Depositing…"
	statusWithdrawing = "Withdrawing…"
	statusBorrowing   = "Borrowing…"
	statusRepaying    = "Repaying…"

	statusDeposited = "Deposit completed successfully."
	statusWithdrawn = "Withdrawal completed successfully."
	statusBorrowed  = "Borrow completed successfully."
	statusRepaid    = "Repayment completed successfully."
)
