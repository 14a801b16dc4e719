package earn

import (
	"math/big"

	"dbconsole/native/fixedpoint"
)

// View is the read-only state of the earn surface. ConfigWarning is the
// persistent banner naming unset contracts.
type View struct {
	Mode          string `json:"mode"`
	Amount        string `json:"amount"`
	ButtonLabel   string `json:"buttonLabel"`
	Disabled      bool   `json:"disabled"`
	MaxDisabled   bool   `json:"maxDisabled"`
	WalletBalance string `json:"walletBalance"`
	ShareBalance  string `json:"shareBalance"`
	MaxWithdraw   string `json:"maxWithdraw"`
	PreviewShares string `json:"previewShares"`
	APY           string `json:"apy"`
	ConfigWarning string `json:"configWarning,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// View derives the display state for the active mode.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	mode := f.mode
	parsed := f.parsedAmountLocked(mode)

	var limit *big.Int
	if mode == ModeDeposit {
		limit = f.snap.AssetBalance
	} else {
		limit = f.snap.MaxWithdraw
	}

	label := "Deposit"
	if mode == ModeWithdraw {
		label = "Withdraw"
	}
	switch {
	case parsed == nil:
		label = "Enter amount"
	case f.processing && mode == ModeDeposit && f.needsApprovalLocked(parsed):
		label = "Approving…"
	case f.processing && mode == ModeDeposit:
		label = "Depositing…"
	case f.processing:
		label = "Withdrawing…"
	case mode == ModeDeposit && f.needsApprovalLocked(parsed):
		label = "Approve & deposit"
	}

	disabled := parsed == nil || f.processing || !f.vaultSet ||
		limit == nil || limit.Sign() == 0 || parsed.Cmp(limit) > 0

	return View{
		Mode:          string(mode),
		Amount:        f.amounts[mode],
		ButtonLabel:   label,
		Disabled:      disabled,
		MaxDisabled:   limit == nil || limit.Sign() == 0,
		WalletBalance: formatOrUnknown(f.snap.AssetBalance, f.assetDecimals, f.assetSymbol),
		ShareBalance:  formatOrUnknown(f.snap.ShareBalance, f.assetDecimals, "shares"),
		MaxWithdraw:   formatOrUnknown(f.snap.MaxWithdraw, f.assetDecimals, f.assetSymbol),
		PreviewShares: formatOrUnknown(f.previews[mode], f.assetDecimals, "shares"),
		APY:           FormatAPY(APYPercent(f.snap.DripRate, f.snap.TotalAssets)),
		ConfigWarning: f.warning,
		StatusMessage: f.status,
	}
}

func formatOrUnknown(raw *big.Int, decimals uint8, symbol string) string {
	if raw == nil {
		return fixedpoint.Unknown
	}
	return fixedpoint.FormatAmount(raw, decimals, 6) + " " + symbol
}
