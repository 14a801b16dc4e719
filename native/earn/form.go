// Package earn holds the form state behind the savings surface: deposits
// into and withdrawals from the Savings Rate Module, with share previews and
// the drip-rate APY metric.
package earn

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"dbconsole/native/fixedpoint"
)

// Mode selects between supplying the asset and redeeming it.
type Mode string

const (
	ModeDeposit  Mode = "deposit"
	ModeWithdraw Mode = "withdraw"
)

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	return m == ModeDeposit || m == ModeWithdraw
}

// Snapshot carries the raw reads the earn surface depends on. Nil fields
// are unresolved reads.
type Snapshot struct {
	// AssetBalance is the wallet balance of the savings asset.
	AssetBalance *big.Int
	// ShareBalance is the wallet balance of vault shares.
	ShareBalance *big.Int
	// MaxWithdraw is the asset amount the vault will currently redeem.
	MaxWithdraw *big.Int
	// Allowance is the vault's allowance over the savings asset.
	Allowance *big.Int
	// DripRate is the per-second interest paid into the vault.
	DripRate *big.Int
	// TotalAssets is the vault's total asset holding.
	TotalAssets *big.Int
}

// Client performs preview reads and the on-chain legs of a submission.
type Client interface {
	PreviewDeposit(ctx context.Context, assets *big.Int) (*big.Int, error)
	PreviewWithdraw(ctx context.Context, assets *big.Int) (*big.Int, error)
	Approve(ctx context.Context, amount *big.Int) error
	Allowance(ctx context.Context) (*big.Int, error)
	Deposit(ctx context.Context, assets *big.Int) error
	Withdraw(ctx context.Context, assets *big.Int) error
}

const (
	msgVaultUnset       = "Savings Rate Module address is not configured."
	msgTokenUnset       = "Savings asset address is not configured."
	msgEnterAmount      = "Enter an amount."
	msgActionInProgress = "Another action is in progress."
	msgExceedsWallet    = "Amount exceeds wallet balance."
	msgExceedsWithdraw  = "Amount exceeds available to withdraw."
	msgApprovalShort    = "Approval did not cover the requested amount."

	statusApproving   = "Submitting approval…"
	statusDepositing  = "Depositing…"
	statusWithdrawing = "Withdrawing…"
	statusDeposited   = "Deposit completed successfully."
	statusWithdrawn   = "Withdrawal completed successfully."
)

// Form owns the earn surface state. Deposit and withdraw keep independent
// pending amounts; switching modes only clears the status message.
type Form struct {
	mu         sync.Mutex
	snap       Snapshot
	mode       Mode
	amounts    map[Mode]string
	previews   map[Mode]*big.Int
	previewSeq map[Mode]uint64
	status     string
	warning    string
	processing bool

	assetSymbol   string
	assetDecimals uint8
	vaultSet      bool
	tokenSet      bool

	client  Client
	refresh func(context.Context) error
	logger  *slog.Logger
}

// NewForm constructs an earn form for the savings asset.
func NewForm(client Client, assetSymbol string, assetDecimals uint8, vaultConfigured, tokenConfigured bool, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{
		mode:          ModeDeposit,
		amounts:       make(map[Mode]string),
		previews:      make(map[Mode]*big.Int),
		previewSeq:    make(map[Mode]uint64),
		assetSymbol:   assetSymbol,
		assetDecimals: assetDecimals,
		vaultSet:      vaultConfigured,
		tokenSet:      tokenConfigured,
		client:        client,
		logger:        logger,
	}
}

// SetRefresh installs the post-success refresh hook.
func (f *Form) SetRefresh(fn func(context.Context) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = fn
}

// SetConfigWarning installs the persistent configuration banner text.
func (f *Form) SetConfigWarning(warning string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warning = warning
}

// SetSnapshot replaces the raw reads backing the surface.
func (f *Form) SetSnapshot(snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

// SetMode switches between deposit and withdraw, keeping each mode's typed
// amount.
func (f *Form) SetMode(mode Mode) {
	if !mode.Valid() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == mode {
		return
	}
	f.mode = mode
	f.status = ""
}

// SetAmount updates the active mode's pending amount and refreshes its
// share preview. Each input change advances the mode's preview generation so
// a slower in-flight preview for a superseded amount is discarded instead of
// overwriting the newer one.
func (f *Form) SetAmount(ctx context.Context, text string) {
	f.mu.Lock()
	mode := f.mode
	f.amounts[mode] = text
	f.status = ""
	f.previewSeq[mode]++
	seq := f.previewSeq[mode]
	vaultSet := f.vaultSet
	decimals := f.assetDecimals
	f.mu.Unlock()

	parsed, err := fixedpoint.ParseDecimal(text, decimals)
	if err != nil || !vaultSet {
		f.setPreview(mode, seq, nil)
		return
	}
	var preview *big.Int
	if mode == ModeDeposit {
		preview, err = f.client.PreviewDeposit(ctx, parsed)
	} else {
		preview, err = f.client.PreviewWithdraw(ctx, parsed)
	}
	if err != nil {
		f.logger.Warn("share preview failed", "mode", mode, "error", err)
		preview = nil
	}
	f.setPreview(mode, seq, preview)
}

// setPreview stores a preview only while its generation is still current.
func (f *Form) setPreview(mode Mode, seq uint64, preview *big.Int) {
	f.mu.Lock()
	if f.previewSeq[mode] == seq {
		f.previews[mode] = preview
	}
	f.mu.Unlock()
}

// SetMax fills the active amount with the wallet balance (deposit) or the
// vault's max withdraw (withdraw).
func (f *Form) SetMax(ctx context.Context) {
	f.mu.Lock()
	mode := f.mode
	var limit *big.Int
	if mode == ModeDeposit {
		limit = f.snap.AssetBalance
	} else {
		limit = f.snap.MaxWithdraw
	}
	decimals := f.assetDecimals
	f.mu.Unlock()
	if limit == nil || limit.Sign() == 0 {
		return
	}
	f.SetAmount(ctx, fixedpoint.FormatUnits(limit, decimals))
}

func (f *Form) parsedAmountLocked(mode Mode) *big.Int {
	raw, err := fixedpoint.ParseDecimal(f.amounts[mode], f.assetDecimals)
	if err != nil {
		return nil
	}
	return raw
}

func (f *Form) needsApprovalLocked(amount *big.Int) bool {
	if amount == nil {
		return false
	}
	return f.snap.Allowance == nil || f.snap.Allowance.Cmp(amount) < 0
}

// Submit validates and runs the active mode's sequence, returning the final
// status message.
func (f *Form) Submit(ctx context.Context) string {
	f.mu.Lock()
	if f.processing {
		f.mu.Unlock()
		return msgActionInProgress
	}
	mode := f.mode
	if !f.vaultSet {
		f.status = msgVaultUnset
		f.mu.Unlock()
		return msgVaultUnset
	}
	amount := f.parsedAmountLocked(mode)
	if amount == nil {
		f.status = msgEnterAmount
		f.mu.Unlock()
		return msgEnterAmount
	}
	if mode == ModeDeposit {
		if !f.tokenSet {
			f.status = msgTokenUnset
			f.mu.Unlock()
			return msgTokenUnset
		}
		if f.snap.AssetBalance == nil || amount.Cmp(f.snap.AssetBalance) > 0 {
			f.status = msgExceedsWallet
			f.mu.Unlock()
			return msgExceedsWallet
		}
	} else {
		if f.snap.MaxWithdraw == nil || amount.Cmp(f.snap.MaxWithdraw) > 0 {
			f.status = msgExceedsWithdraw
			f.mu.Unlock()
			return msgExceedsWithdraw
		}
	}
	needsApproval := mode == ModeDeposit && f.needsApprovalLocked(amount)
	f.processing = true
	f.status = ""
	f.mu.Unlock()

	status, ok := f.perform(ctx, mode, amount, needsApproval)

	f.mu.Lock()
	f.status = status
	f.processing = false
	if ok {
		f.amounts[mode] = ""
		f.previews[mode] = nil
		f.previewSeq[mode]++
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

func (f *Form) perform(ctx context.Context, mode Mode, amount *big.Int, needsApproval bool) (string, bool) {
	if mode == ModeDeposit {
		if needsApproval {
			f.setStatus(statusApproving)
			if err := f.client.Approve(ctx, amount); err != nil {
				f.logger.Warn("savings approval failed", "error", err)
				return err.Error(), false
			}
			granted, err := f.client.Allowance(ctx)
			if err != nil {
				f.logger.Warn("allowance re-read failed", "error", err)
				return err.Error(), false
			}
			if granted == nil || granted.Cmp(amount) < 0 {
				return msgApprovalShort, false
			}
		}
		f.setStatus(statusDepositing)
		if err := f.client.Deposit(ctx, amount); err != nil {
			f.logger.Warn("savings deposit failed", "error", err)
			return err.Error(), false
		}
		return statusDeposited, true
	}
	f.setStatus(statusWithdrawing)
	if err := f.client.Withdraw(ctx, amount); err != nil {
		f.logger.Warn("savings withdrawal failed", "error", err)
		return err.Error(), false
	}
	return statusWithdrawn, true
}

func (f *Form) setStatus(status string) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}
