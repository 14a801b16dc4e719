package borrow

import (
	"math/big"

	"dbconsole/native/fixedpoint"
)

// ActionControls is the read-only form state for one action: the pending
// text, the submit affordance, and helper copy.
type ActionControls struct {
	Amount        string   `json:"amount"`
	ButtonLabel   string   `json:"buttonLabel"`
	Disabled      bool     `json:"disabled"`
	MaxDisabled   bool     `json:"maxDisabled"`
	HelperText    string   `json:"helperText,omitempty"`
	AssetOptions  []string `json:"assetOptions,omitempty"`
	SelectedAsset string   `json:"selectedAsset,omitempty"`
}

// CollateralRow summarises the collateral side of the position plus its two
// actions.
type CollateralRow struct {
	Symbol           string         `json:"symbol"`
	DepositedAmount  string         `json:"depositedAmount"`
	DepositedValue   string         `json:"depositedValue"`
	Price            string         `json:"price"`
	MaxLTV           string         `json:"maxLtv"`
	LiquidationLTV   string         `json:"liquidationLtv"`
	LiquidationPrice string         `json:"liquidationPrice"`
	Deposit          ActionControls `json:"deposit"`
	Withdraw         ActionControls `json:"withdraw"`
}

// LoanSummary summarises the debt side plus the borrow and repay actions.
type LoanSummary struct {
	Borrowed     string         `json:"borrowed"`
	InterestRate string         `json:"interestRate"`
	CurrentLTV   string         `json:"currentLtv"`
	ProjectedLTV string         `json:"projectedLtv"`
	Borrow       ActionControls `json:"borrow"`
	Repay        ActionControls `json:"repay"`
}

// View is the full read-only state of the borrow surface. ConfigWarning is
// the persistent banner naming unset contracts; it is independent of the
// transient status message.
type View struct {
	Collateral    CollateralRow `json:"collateral"`
	Loan          LoanSummary   `json:"loan"`
	ConfigWarning string        `json:"configWarning,omitempty"`
	StatusMessage string        `json:"statusMessage,omitempty"`
	ActiveMode    string        `json:"activeMode,omitempty"`
}

// View derives the display state from the current snapshot and pending
// input. It is a pure recomputation; calling it twice without intervening
// mutation yields identical results.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.snap
	depositBalance := f.depositBalanceLocked()
	withdrawLimit := snap.WithdrawLimitAssets()
	headroom := snap.BorrowHeadroom()

	depositParsed := f.parsedAmountLocked(ModeDeposit)
	withdrawParsed := f.parsedAmountLocked(ModeWithdraw)
	borrowParsed := f.parsedAmountLocked(ModeBorrow)
	repayParsed := f.parsedAmountLocked(ModeRepay)

	busy := f.active != ""

	depositLabel := "Deposit"
	switch {
	case depositParsed == nil:
		depositLabel = "Enter amount"
	case f.active == ModeDeposit && f.needsDepositApprovalLocked(depositParsed):
		depositLabel = "Approving…"
	case f.active == ModeDeposit:
		depositLabel = "Depositing…"
	case f.needsDepositApprovalLocked(depositParsed):
		depositLabel = "Approve & deposit"
	}

	withdrawLabel := "Withdraw"
	switch {
	case withdrawParsed == nil:
		withdrawLabel = "Enter amount"
	case withdrawLimit == nil || withdrawLimit.Sign() == 0:
		withdrawLabel = "Nothing to withdraw"
	case f.active == ModeWithdraw:
		withdrawLabel = "Withdrawing…"
	}

	borrowLabel := "Borrow"
	switch {
	case borrowParsed == nil:
		borrowLabel = "Enter amount"
	case headroom == nil || headroom.Sign() == 0:
		borrowLabel = "Nothing to borrow"
	case f.active == ModeBorrow:
		borrowLabel = "Borrowing…"
	}

	repayLabel := "Repay"
	switch {
	case repayParsed == nil:
		repayLabel = "Enter amount"
	case snap.DebtAmount == nil || snap.DebtAmount.Sign() == 0:
		repayLabel = "Nothing to repay"
	case f.active == ModeRepay && f.needsRepayApprovalLocked(repayParsed):
		repayLabel = "Approving…"
	case f.active == ModeRepay:
		repayLabel = "Repaying…"
	case f.needsRepayApprovalLocked(repayParsed):
		repayLabel = "Approve & repay"
	}

	depositDisabled := busy || depositParsed == nil ||
		depositBalance == nil || depositBalance.Sign() == 0 ||
		depositParsed.Cmp(depositBalance) > 0
	withdrawDisabled := busy || withdrawParsed == nil ||
		withdrawLimit == nil || withdrawLimit.Sign() == 0 ||
		withdrawParsed.Cmp(withdrawLimit) > 0
	borrowDisabled := busy || borrowParsed == nil ||
		headroom == nil || headroom.Sign() == 0 ||
		borrowParsed.Cmp(headroom) > 0
	repayDisabled := busy || repayParsed == nil ||
		snap.DebtAmount == nil || snap.DebtAmount.Sign() == 0 ||
		repayParsed.Cmp(snap.DebtAmount) > 0 ||
		f.wallet.DebtBalance == nil || repayParsed.Cmp(f.wallet.DebtBalance) > 0

	assetSymbol := string(f.asset)
	priceUnit := f.symbols.Unit + "/" + f.symbols.Collateral

	view := View{
		Collateral: CollateralRow{
			Symbol:           f.symbols.Collateral,
			DepositedAmount:  formatWithSymbol(snap.CollateralAssets, snap.CollateralDecimals, 6, f.symbols.Collateral),
			DepositedValue:   formatWithSymbol(snap.CollateralValue, snap.UnitDecimals, 2, f.symbols.Unit),
			Price:            formatRatWithSymbol(snap.CollateralPrice(), priceUnit),
			MaxLTV:           formatBpsPercent(snap.MaxLTVBps),
			LiquidationLTV:   formatBpsPercent(snap.LiquidationLTVBps),
			LiquidationPrice: formatRatWithSymbol(snap.LiquidationPrice(), priceUnit),
			Deposit: ActionControls{
				Amount:        f.amounts[ModeDeposit],
				ButtonLabel:   depositLabel,
				Disabled:      depositDisabled,
				MaxDisabled:   depositBalance == nil || depositBalance.Sign() == 0,
				HelperText:    "Wallet: " + formatWithSymbol(depositBalance, snap.CollateralDecimals, 6, assetSymbol),
				AssetOptions:  []string{string(AssetWrapped), string(AssetNative)},
				SelectedAsset: assetSymbol,
			},
			Withdraw: ActionControls{
				Amount:      f.amounts[ModeWithdraw],
				ButtonLabel: withdrawLabel,
				Disabled:    withdrawDisabled,
				MaxDisabled: withdrawLimit == nil || withdrawLimit.Sign() == 0,
				HelperText:  "Withdrawable: " + formatWithSymbol(withdrawLimit, snap.CollateralDecimals, 6, f.symbols.Collateral),
			},
		},
		Loan: LoanSummary{
			Borrowed:     formatWithSymbol(snap.DebtAmount, snap.DebtDecimals, 6, f.symbols.Debt),
			InterestRate: formatAPR(snap.BorrowAPRPercent()),
			CurrentLTV:   fixedpoint.FormatPercent(snap.CurrentLTVPercent()),
			ProjectedLTV: fixedpoint.FormatPercent(f.projectedLTVPercentLocked()),
			Borrow: ActionControls{
				Amount:      f.amounts[ModeBorrow],
				ButtonLabel: borrowLabel,
				Disabled:    borrowDisabled,
				MaxDisabled: headroom == nil || headroom.Sign() == 0,
				HelperText:  "Available: " + formatWithSymbol(headroom, snap.DebtDecimals, 6, f.symbols.Debt),
			},
			Repay: ActionControls{
				Amount:      f.amounts[ModeRepay],
				ButtonLabel: repayLabel,
				Disabled:    repayDisabled,
				MaxDisabled: snap.DebtAmount == nil || snap.DebtAmount.Sign() == 0,
				HelperText:  "Outstanding: " + formatWithSymbol(snap.DebtAmount, snap.DebtDecimals, 6, f.symbols.Debt),
			},
		},
		ConfigWarning: f.warning,
		StatusMessage: f.status,
		ActiveMode:    string(f.active),
	}
	return view
}

func formatWithSymbol(raw *big.Int, decimals uint8, precision int, symbol string) string {
	if raw == nil {
		return fixedpoint.Unknown
	}
	return fixedpoint.FormatAmount(raw, decimals, precision) + " " + symbol
}

func formatRatWithSymbol(value *big.Rat, symbol string) string {
	if value == nil {
		return fixedpoint.Unknown
	}
	return value.FloatString(2) + " " + symbol
}

func formatBpsPercent(bps *big.Int) string {
	if bps == nil {
		return fixedpoint.Unknown
	}
	percent := new(big.Rat).SetFrac(bps, big.NewInt(100))
	return percent.FloatString(2) + "%"
}

func formatAPR(percent *big.Rat) string {
	if percent == nil {
		return fixedpoint.Unknown
	}
	return percent.FloatString(2) + "% APR"
}
