// Package swap holds the form state behind the peg-stability swap surface:
// a two-direction exchange between the underlying stablecoin and the synth,
// quoted by the Peg Stability Module before submission.
package swap

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"dbconsole/native/fixedpoint"
)

// Direction names which side of the peg the user sells.
type Direction string

const (
	// ToSynth sells the underlying stablecoin for the synth.
	ToSynth Direction = "USDC_TO_DBUSD"
	// ToUnderlying sells the synth back for the underlying stablecoin.
	ToUnderlying Direction = "DBUSD_TO_USDC"
)

// Token describes one side of the swap pair.
type Token struct {
	Symbol     string
	Decimals   uint8
	Configured bool
}

// Pair binds the two tokens of the peg.
type Pair struct {
	Underlying Token
	Synth      Token
}

// Client performs quote reads and the on-chain legs of a swap. Quote reads
// happen on every amount change; the two mutating calls block until mined.
type Client interface {
	Quote(ctx context.Context, direction Direction, amountIn *big.Int) (*big.Int, error)
	Allowance(ctx context.Context, direction Direction) (*big.Int, error)
	Approve(ctx context.Context, direction Direction, amount *big.Int) error
	Swap(ctx context.Context, direction Direction, amount *big.Int) error
}

const (
	msgConfigIncomplete = "Swap configuration is incomplete."
	msgEnterAmount      = "Enter an amount to swap."
	msgActionInProgress = "Another action is in progress."
	msgExceedsWallet    = "Amount exceeds wallet balance."
	msgApprovalShort    = "Approval did not cover the requested amount."

	statusApproving = "Submitting approval…"
	statusSwapping  = "Executing swap…"
	statusSwapped   = "Swap completed successfully."
)

// Form owns the swap surface state: direction, pending amount text, the
// latest quote, and submission status.
type Form struct {
	mu         sync.Mutex
	pair       Pair
	psmSet     bool
	direction  Direction
	amount     string
	quoteOut   *big.Int
	quoteSeq   uint64
	status     string
	warning    string
	processing bool

	balances   map[Direction]*big.Int
	allowances map[Direction]*big.Int

	client  Client
	refresh func(context.Context) error
	logger  *slog.Logger
}

// NewForm constructs a swap form for a token pair.
func NewForm(client Client, pair Pair, psmConfigured bool, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{
		pair:       pair,
		psmSet:     psmConfigured,
		direction:  ToSynth,
		balances:   make(map[Direction]*big.Int),
		allowances: make(map[Direction]*big.Int),
		client:     client,
		logger:     logger,
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

// SetBalances records the wallet balances of the from-token per direction.
func (f *Form) SetBalances(underlying, synth *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[ToSynth] = underlying
	f.balances[ToUnderlying] = synth
}

// SetAllowances records the PSM allowances of the from-token per direction.
func (f *Form) SetAllowances(underlying, synth *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowances[ToSynth] = underlying
	f.allowances[ToUnderlying] = synth
}

func (f *Form) fromToken() Token {
	if f.direction == ToUnderlying {
		return f.pair.Synth
	}
	return f.pair.Underlying
}

func (f *Form) toToken() Token {
	if f.direction == ToUnderlying {
		return f.pair.Underlying
	}
	return f.pair.Synth
}

// ToggleDirection flips the swap direction and clears the pending input.
func (f *Form) ToggleDirection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.direction == ToSynth {
		f.direction = ToUnderlying
	} else {
		f.direction = ToSynth
	}
	f.amount = ""
	f.quoteOut = nil
	f.quoteSeq++
	f.status = ""
}

// SetAmount updates the pending text and refreshes the quote for it. An
// unparseable amount clears the quote without surfacing an error. Each input
// change advances the quote generation so a slower in-flight quote for a
// superseded amount is discarded instead of overwriting the newer one.
func (f *Form) SetAmount(ctx context.Context, text string) {
	f.mu.Lock()
	f.amount = text
	f.status = ""
	f.quoteSeq++
	seq := f.quoteSeq
	direction := f.direction
	decimals := f.fromToken().Decimals
	psmSet := f.psmSet
	f.mu.Unlock()

	parsed, err := fixedpoint.ParseDecimal(text, decimals)
	if err != nil || !psmSet {
		f.setQuote(seq, nil)
		return
	}
	quote, err := f.client.Quote(ctx, direction, parsed)
	if err != nil {
		f.logger.Warn("swap quote failed", "direction", direction, "error", err)
		f.setQuote(seq, nil)
		return
	}
	f.setQuote(seq, quote)
}

// setQuote stores a quote only while its generation is still current.
func (f *Form) setQuote(seq uint64, quote *big.Int) {
	f.mu.Lock()
	if f.quoteSeq == seq {
		f.quoteOut = quote
	}
	f.mu.Unlock()
}

// SetMax fills the amount with the from-token wallet balance.
func (f *Form) SetMax(ctx context.Context) {
	f.mu.Lock()
	balance := f.balances[f.direction]
	decimals := f.fromToken().Decimals
	f.mu.Unlock()
	if balance == nil || balance.Sign() == 0 {
		return
	}
	f.SetAmount(ctx, fixedpoint.FormatUnits(balance, decimals))
}

func (f *Form) parsedAmountLocked() *big.Int {
	raw, err := fixedpoint.ParseDecimal(f.amount, f.fromToken().Decimals)
	if err != nil {
		return nil
	}
	return raw
}

func (f *Form) needsApprovalLocked(amount *big.Int) bool {
	allowance := f.allowances[f.direction]
	return allowance == nil || allowance.Cmp(amount) < 0
}

// Submit runs the optional approval and the swap itself, returning the
// final status message.
func (f *Form) Submit(ctx context.Context) string {
	f.mu.Lock()
	if f.processing {
		f.mu.Unlock()
		return msgActionInProgress
	}
	if !f.psmSet || !f.fromToken().Configured || !f.toToken().Configured {
		f.status = msgConfigIncomplete
		f.mu.Unlock()
		return msgConfigIncomplete
	}
	amount := f.parsedAmountLocked()
	if amount == nil {
		f.status = msgEnterAmount
		f.mu.Unlock()
		return msgEnterAmount
	}
	if balance := f.balances[f.direction]; balance != nil && amount.Cmp(balance) > 0 {
		f.status = msgExceedsWallet
		f.mu.Unlock()
		return msgExceedsWallet
	}
	direction := f.direction
	needsApproval := f.needsApprovalLocked(amount)
	f.processing = true
	f.status = ""
	f.mu.Unlock()

	status, ok := f.perform(ctx, direction, amount, needsApproval)

	f.mu.Lock()
	f.status = status
	f.processing = false
	if ok {
		f.amount = ""
		f.quoteOut = nil
		f.quoteSeq++
	}
	refresh := f.refresh
	f.mu.Unlock()

	if ok && refresh != nil {
		if err := refresh(ctx); err != nil {
			f.logger.Warn("post-swap refresh failed", "error", err)
		}
	}
	return status
}

func (f *Form) perform(ctx context.Context, direction Direction, amount *big.Int, needsApproval bool) (string, bool) {
	if needsApproval {
		f.setStatus(statusApproving)
		if err := f.client.Approve(ctx, direction, amount); err != nil {
			f.logger.Warn("swap approval failed", "direction", direction, "error", err)
			return err.Error(), false
		}
		granted, err := f.client.Allowance(ctx, direction)
		if err != nil {
			f.logger.Warn("allowance re-read failed", "direction", direction, "error", err)
			return err.Error(), false
		}
		if granted == nil || granted.Cmp(amount) < 0 {
			return msgApprovalShort, false
		}
	}
	f.setStatus(statusSwapping)
	if err := f.client.Swap(ctx, direction, amount); err != nil {
		f.logger.Warn("swap failed", "direction", direction, "error", err)
		return err.Error(), false
	}
	return statusSwapped, true
}

func (f *Form) setStatus(status string) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

// TokenDisplay is one leg of the swap view.
type TokenDisplay struct {
	Symbol        string `json:"symbol"`
	Balance       string `json:"balance,omitempty"`
	AmountDisplay string `json:"amountDisplay,omitempty"`
}

// View is the read-only state of the swap surface. ConfigWarning is the
// persistent banner naming unset contracts.
type View struct {
	Amount         string       `json:"amount"`
	ButtonLabel    string       `json:"buttonLabel"`
	DirectionLabel string       `json:"directionLabel"`
	From           TokenDisplay `json:"from"`
	To             TokenDisplay `json:"to"`
	Disabled       bool         `json:"disabled"`
	ConfigWarning  string       `json:"configWarning,omitempty"`
	StatusMessage  string       `json:"statusMessage,omitempty"`
}

// View derives the display state from current input and snapshots.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	from := f.fromToken()
	to := f.toToken()
	parsed := f.parsedAmountLocked()

	label := "Swap"
	switch {
	case parsed == nil:
		label = "Enter amount"
	case f.processing && f.needsApprovalLocked(parsed):
		label = "Approving…"
	case f.processing:
		label = "Swapping…"
	case f.needsApprovalLocked(parsed):
		label = "Approve & swap"
	}

	toAmount := "0.0"
	if f.quoteOut != nil {
		toAmount = fixedpoint.FormatUnits(f.quoteOut, to.Decimals)
	}

	fromBalance := ""
	if balance := f.balances[f.direction]; balance != nil {
		fromBalance = fixedpoint.FormatUnits(balance, from.Decimals)
	}

	return View{
		Amount:         f.amount,
		ButtonLabel:    label,
		DirectionLabel: from.Symbol + " → " + to.Symbol,
		From:           TokenDisplay{Symbol: from.Symbol, Balance: fromBalance},
		To:             TokenDisplay{Symbol: to.Symbol, AmountDisplay: toAmount},
		Disabled:       parsed == nil || f.processing || !f.psmSet || !from.Configured || !to.Configured,
		ConfigWarning:  f.warning,
		StatusMessage:  f.status,
	}
}
