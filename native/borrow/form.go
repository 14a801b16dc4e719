package borrow

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"dbconsole/native/fixedpoint"
	"dbconsole/native/position"
)

// Form owns the borrow surface's mutable state: the latest position
// snapshot, per-mode pending amounts, the selected deposit asset, and the
// submission status. All derived figures are recomputed from the snapshot on
// every View call; the form holds no cached derivations.
type Form struct {
	mu        sync.Mutex
	snap      position.Snapshot
	wallet    Wallet
	contracts Contracts
	symbols   Symbols
	amounts   map[Mode]string
	asset     DepositAsset
	status    string
	warning   string
	active    Mode

	client  ActionClient
	refresh func(context.Context) error
	logger  *slog.Logger
}

// NewForm constructs a borrow form bound to an action client. The refresh
// callback, when set, re-reads every dependent value after a successful
// submission.
func NewForm(client ActionClient, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{
		client:  client,
		logger:  logger,
		amounts: make(map[Mode]string),
		asset:   AssetWrapped,
		symbols: Symbols{Collateral: "WETH", Debt: "dbUSD", Unit: "USDC"},
	}
}

// SetRefresh installs the post-success refresh hook.
func (f *Form) SetRefresh(fn func(context.Context) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = fn
}

// SetContracts records which contract addresses are configured.
func (f *Form) SetContracts(c Contracts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contracts = c
}

// SetConfigWarning installs the persistent configuration banner text. Unlike
// the status message it survives input changes and submissions; it only
// clears when the configuration itself is fixed.
func (f *Form) SetConfigWarning(warning string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warning = warning
}

// SetSymbols overrides the display symbols.
func (f *Form) SetSymbols(s Symbols) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols = s
}

// SetSnapshot replaces the position and wallet snapshots. Pending amounts
// and status survive a refresh; only the derived figures move.
func (f *Form) SetSnapshot(snap position.Snapshot, wallet Wallet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap.Clone()
	f.wallet = wallet
}

// SetAmount updates the pending amount text for one mode. Each mode keeps
// its own text; switching modes never clears another mode's input. Any
// change clears the status message.
func (f *Form) SetAmount(mode Mode, text string) {
	if !mode.Valid() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts[mode] = text
	f.status = ""
}

// Amount returns the pending text for a mode.
func (f *Form) Amount(mode Mode) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amounts[mode]
}

// SetDepositAsset switches the collateral funding source between the
// wrapped token and the native currency.
func (f *Form) SetDepositAsset(asset DepositAsset) {
	if asset != AssetWrapped && asset != AssetNative {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.asset == asset {
		return
	}
	f.asset = asset
	f.status = ""
}

// ClearStatus resets the status message, used when the UI switches modes.
func (f *Form) ClearStatus() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = ""
}

// SetMax fills a mode's amount with the relevant limit: wallet balance for
// deposits, the withdraw limit, the borrow headroom, or the outstanding
// debt. A missing or zero limit leaves the text untouched.
func (f *Form) SetMax(mode Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var limit *big.Int
	var decimals uint8
	switch mode {
	case ModeDeposit:
		limit = f.depositBalanceLocked()
		decimals = f.snap.CollateralDecimals
	case ModeWithdraw:
		limit = f.snap.WithdrawLimitAssets()
		decimals = f.snap.CollateralDecimals
	case ModeBorrow:
		limit = f.snap.BorrowHeadroom()
		decimals = f.snap.DebtDecimals
	case ModeRepay:
		limit = f.snap.DebtAmount
		decimals = f.snap.DebtDecimals
	default:
		return
	}
	if limit == nil || limit.Sign() == 0 {
		return
	}
	f.amounts[mode] = fixedpoint.FormatUnits(limit, decimals)
	f.status = ""
}

func (f *Form) depositBalanceLocked() *big.Int {
	if f.asset == AssetNative {
		return f.wallet.NativeBalance
	}
	return f.wallet.CollateralBalance
}

func (f *Form) parsedAmountLocked(mode Mode) *big.Int {
	decimals := f.snap.CollateralDecimals
	if mode == ModeBorrow || mode == ModeRepay {
		decimals = f.snap.DebtDecimals
	}
	raw, err := fixedpoint.ParseDecimal(f.amounts[mode], decimals)
	if err != nil {
		return nil
	}
	return raw
}

// rejectionLocked validates a pending action against configuration and
// limits. An empty string means the action may be submitted.
func (f *Form) rejectionLocked(mode Mode, amount *big.Int) string {
	switch mode {
	case ModeDeposit:
		if !f.contracts.CollateralVault {
			return msgCollateralVaultUnset
		}
		if !f.contracts.CollateralToken {
			return msgCollateralTokenUnset
		}
		balance := f.depositBalanceLocked()
		if balance == nil || amount.Cmp(balance) > 0 {
			return msgExceedsWallet
		}
	case ModeWithdraw:
		if !f.contracts.CollateralVault {
			return msgCollateralVaultUnset
		}
		limit := f.snap.WithdrawLimitAssets()
		if limit == nil || limit.Sign() == 0 {
			return msgNothingToWithdraw
		}
		if amount.Cmp(limit) > 0 {
			return msgExceedsWithdrawable
		}
	case ModeBorrow:
		if !f.contracts.DebtVault {
			return msgDebtVaultUnset
		}
		headroom := f.snap.BorrowHeadroom()
		if headroom == nil || headroom.Sign() == 0 || amount.Cmp(headroom) > 0 {
			return msgExceedsBorrowable
		}
	case ModeRepay:
		if !f.contracts.DebtVault {
			return msgDebtVaultUnset
		}
		if !f.contracts.DebtToken {
			return msgDebtTokenUnset
		}
		if f.snap.DebtAmount == nil || amount.Cmp(f.snap.DebtAmount) > 0 {
			return msgExceedsBorrowed
		}
		if f.wallet.DebtBalance == nil || amount.Cmp(f.wallet.DebtBalance) > 0 {
			return msgExceedsWallet
		}
	}
	return ""
}

func (f *Form) needsDepositApprovalLocked(amount *big.Int) bool {
	if amount == nil {
		return false
	}
	return f.wallet.CollateralAllowance == nil || f.wallet.CollateralAllowance.Cmp(amount) < 0
}

func (f *Form) needsRepayApprovalLocked(amount *big.Int) bool {
	if amount == nil {
		return false
	}
	return f.wallet.DebtAllowance == nil || f.wallet.DebtAllowance.Cmp(amount) < 0
}

// projectedLTVPercent folds every valid pending amount into a hypothetical
// position and returns the resulting loan-to-value. Collateral never
// projects below zero; a projection with zero collateral is unknown.
func (f *Form) projectedLTVPercentLocked() *big.Rat {
	collateral := f.snap.CollateralValue
	debt := f.snap.DebtValueInUnit()
	if collateral == nil || debt == nil {
		return nil
	}
	collateral = new(big.Int).Set(collateral)
	debt = new(big.Int).Set(debt)

	if add := f.snap.ConvertAssetsToUnit(f.parsedAmountLocked(ModeDeposit)); add != nil {
		collateral.Add(collateral, add)
	}
	if sub := f.snap.ConvertAssetsToUnit(f.parsedAmountLocked(ModeWithdraw)); sub != nil {
		if collateral.Cmp(sub) > 0 {
			collateral.Sub(collateral, sub)
		} else {
			collateral.SetInt64(0)
		}
	}
	if add := f.snap.ConvertDebtToUnit(f.parsedAmountLocked(ModeBorrow)); add != nil {
		debt.Add(debt, add)
	}
	if sub := f.snap.ConvertDebtToUnit(f.parsedAmountLocked(ModeRepay)); sub != nil {
		if debt.Cmp(sub) > 0 {
			debt.Sub(debt, sub)
		} else {
			debt.SetInt64(0)
		}
	}

	if collateral.Sign() == 0 {
		return nil
	}
	ltv := new(big.Rat).SetFrac(debt, collateral)
	return ltv.Mul(ltv, new(big.Rat).SetInt64(100))
}

// Submit validates the pending action for a mode and, when valid, runs the
// on-chain sequence: optional native wrap, optional allowance approval, then
// the primary call. Only one action may be in flight at a time. The returned
// string is the final status message.
func (f *Form) Submit(ctx context.Context, mode Mode) string {
	if !mode.Valid() {
		return ""
	}
	f.mu.Lock()
	if f.active != "" {
		f.mu.Unlock()
		return msgActionInProgress
	}
	amount := f.parsedAmountLocked(mode)
	if amount == nil {
		f.status = msgEnterAmount
		f.mu.Unlock()
		return msgEnterAmount
	}
	if reject := f.rejectionLocked(mode, amount); reject != "" {
		f.status = reject
		f.mu.Unlock()
		return reject
	}
	asset := f.asset
	needsApproval := false
	switch mode {
	case ModeDeposit:
		needsApproval = f.needsDepositApprovalLocked(amount)
	case ModeRepay:
		needsApproval = f.needsRepayApprovalLocked(amount)
	}
	f.active = mode
	f.status = ""
	f.mu.Unlock()

	status, ok := f.perform(ctx, mode, amount, asset, needsApproval)

	f.mu.Lock()
	f.status = status
	f.active = ""
	if ok {
		f.amounts[mode] = ""
	}
	refresh := f.refresh
	f.mu.Unlock()

	if ok && refresh != nil {
		if err := refresh(ctx); err != nil {
			f.logger.Warn("post-action refresh failed", "mode", mode, "error", err)
		}
	}
	return status
}

func (f *Form) perform(ctx context.Context, mode Mode, amount *big.Int, asset DepositAsset, needsApproval bool) (string, bool) {
	switch mode {
	case ModeDeposit:
		if asset == AssetNative {
			f.setStatus(statusWrapping)
			if err := f.client.WrapNative(ctx, amount); err != nil {
				return f.failure(mode, "wrap", err), false
			}
		}
		if needsApproval {
			f.setStatus(statusApproving)
			if err := f.client.ApproveCollateral(ctx, amount); err != nil {
				return f.failure(mode, "approve", err), false
			}
			// The granted allowance is not assumed to equal the request.
			granted, err := f.client.CollateralAllowance(ctx)
			if err != nil {
				return f.failure(mode, "allowance", err), false
			}
			if granted == nil || granted.Cmp(amount) < 0 {
				return msgApprovalShort, false
			}
		}
		f.setStatus(statusDepositing)
		if err := f.client.Deposit(ctx, amount); err != nil {
			return f.failure(mode, "deposit", err), false
		}
		return statusDeposited, true
	case ModeWithdraw:
		f.setStatus(statusWithdrawing)
		if err := f.client.Withdraw(ctx, amount); err != nil {
			return f.failure(mode, "withdraw", err), false
		}
		return statusWithdrawn, true
	case ModeBorrow:
		f.setStatus(statusBorrowing)
		if err := f.client.Borrow(ctx, amount); err != nil {
			return f.failure(mode, "borrow", err), false
		}
		return statusBorrowed, true
	case ModeRepay:
		if needsApproval {
			f.setStatus(statusApproving)
			if err := f.client.ApproveDebt(ctx, amount); err != nil {
				return f.failure(mode, "approve", err), false
			}
			granted, err := f.client.DebtAllowance(ctx)
			if err != nil {
				return f.failure(mode, "allowance", err), false
			}
			if granted == nil || granted.Cmp(amount) < 0 {
				return msgApprovalShort, false
			}
		}
		f.setStatus(statusRepaying)
		if err := f.client.Repay(ctx, amount); err != nil {
			return f.failure(mode, "repay", err), false
		}
		return statusRepaid, true
	}
	return "", false
}

func (f *Form) setStatus(status string) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

// failure surfaces the chain error verbatim; the sequence aborts at the
// failed step with no rollback, so a completed approval stays valid for a
// retry.
func (f *Form) failure(mode Mode, step string, err error) string {
	f.logger.Warn("borrow action failed", "mode", mode, "step", step, "error", err)
	return err.Error()
}
