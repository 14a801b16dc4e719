package borrow

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"dbconsole/native/position"
)

type stubActionClient struct {
	calls           []string
	collateralGrant *big.Int
	debtGrant       *big.Int
	failStep        string
	failErr         error
	gate            chan struct{}
}

func (c *stubActionClient) record(step string) error {
	c.calls = append(c.calls, step)
	if c.gate != nil && step == "deposit" {
		<-c.gate
	}
	if c.failStep == step {
		return c.failErr
	}
	return nil
}

func (c *stubActionClient) WrapNative(_ context.Context, _ *big.Int) error {
	return c.record("wrap")
}

func (c *stubActionClient) ApproveCollateral(_ context.Context, _ *big.Int) error {
	return c.record("approveCollateral")
}

func (c *stubActionClient) ApproveDebt(_ context.Context, _ *big.Int) error {
	return c.record("approveDebt")
}

func (c *stubActionClient) Deposit(_ context.Context, _ *big.Int) error {
	return c.record("deposit")
}

func (c *stubActionClient) Withdraw(_ context.Context, _ *big.Int) error {
	return c.record("withdraw")
}

func (c *stubActionClient) Borrow(_ context.Context, _ *big.Int) error {
	return c.record("borrow")
}

func (c *stubActionClient) Repay(_ context.Context, _ *big.Int) error {
	return c.record("repay")
}

func (c *stubActionClient) CollateralAllowance(_ context.Context) (*big.Int, error) {
	c.calls = append(c.calls, "readCollateralAllowance")
	return c.collateralGrant, nil
}

func (c *stubActionClient) DebtAllowance(_ context.Context) (*big.Int, error) {
	c.calls = append(c.calls, "readDebtAllowance")
	return c.debtGrant, nil
}

func mustBig(t *testing.T, value string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		t.Fatalf("invalid big integer literal %q", value)
	}
	return v
}

func testForm(t *testing.T, client *stubActionClient) *Form {
	t.Helper()
	form := NewForm(client, nil)
	form.SetContracts(Contracts{
		CollateralToken: true,
		CollateralVault: true,
		DebtToken:       true,
		DebtVault:       true,
	})
	form.SetSnapshot(position.Snapshot{
		CollateralAssets:   mustBig(t, "1000000000000000000"),
		CollateralValue:    big.NewInt(2_000_000_000),
		DebtAmount:         mustBig(t, "500000000000000000000"),
		AvailableLiquidity: mustBig(t, "5000000000000000000000"),
		MaxLTVBps:          big.NewInt(8000),
		LiquidationLTVBps:  big.NewInt(9000),
		UnitDecimals:       6,
		CollateralDecimals: 18,
		DebtDecimals:       18,
	}, Wallet{
		NativeBalance:       mustBig(t, "3000000000000000000"),
		CollateralBalance:   mustBig(t, "2000000000000000000"),
		DebtBalance:         mustBig(t, "600000000000000000000"),
		CollateralAllowance: big.NewInt(0),
		DebtAllowance:       big.NewInt(0),
	})
	return form
}

func TestSubmitWithoutAmount(t *testing.T) {
	client := &stubActionClient{}
	form := testForm(t, client)

	if got := form.Submit(context.Background(), ModeBorrow); got != "Enter an amount." {
		t.Fatalf("expected amount prompt, got %q", got)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected no chain calls, got %v", client.calls)
	}
}

func TestRepayExceedingDebtRejected(t *testing.T) {
	client := &stubActionClient{}
	form := testForm(t, client)

	// Wallet balance covers the amount; the outstanding debt does not.
	form.SetAmount(ModeRepay, "501")
	if got := form.Submit(context.Background(), ModeRepay); got != "Amount exceeds borrowed balance." {
		t.Fatalf("expected borrowed-balance rejection, got %q", got)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected rejection before any chain call, got %v", client.calls)
	}
	view := form.View()
	if !view.Loan.Repay.Disabled {
		t.Fatal("expected repay submit to stay disabled")
	}
	if view.StatusMessage != "Amount exceeds borrowed balance." {
		t.Fatalf("unexpected status: %q", view.StatusMessage)
	}
}

func TestModeAmountsAreIndependent(t *testing.T) {
	client := &stubActionClient{}
	form := testForm(t, client)

	form.SetAmount(ModeDeposit, "1.5")
	form.SetAmount(ModeWithdraw, "0.25")
	form.SetAmount(ModeDeposit, "1.5")

	if got := form.Amount(ModeDeposit); got != "1.5" {
		t.Fatalf("deposit amount lost: %q", got)
	}
	if got := form.Amount(ModeWithdraw); got != "0.25" {
		t.Fatalf("withdraw amount lost: %q", got)
	}
	view := form.View()
	if view.Collateral.Deposit.Amount != "1.5" || view.Collateral.Withdraw.Amount != "0.25" {
		t.Fatalf("view lost per-mode amounts: %+v", view.Collateral)
	}
}

func TestDepositApprovesThenDeposits(t *testing.T) {
	client := &stubActionClient{collateralGrant: mustBig(t, "2000000000000000000")}
	form := testForm(t, client)

	form.SetAmount(ModeDeposit, "1")
	status := form.Submit(context.Background(), ModeDeposit)
	if status != "Deposit completed successfully." {
		t.Fatalf("unexpected status: %q", status)
	}
	want := []string{"approveCollateral", "readCollateralAllowance", "deposit"}
	if strings.Join(client.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected call sequence: %v", client.calls)
	}
	if form.Amount(ModeDeposit) != "" {
		t.Fatal("expected pending amount to reset after success")
	}
}

func TestDepositSkipsApprovalWhenAllowanceCovers(t *testing.T) {
	client := &stubActionClient{}
	form := testForm(t, client)
	form.SetSnapshot(position.Snapshot{
		CollateralDecimals: 18,
		DebtDecimals:       18,
		UnitDecimals:       6,
	}, Wallet{
		CollateralBalance:   mustBig(t, "2000000000000000000"),
		CollateralAllowance: mustBig(t, "5000000000000000000"),
	})

	form.SetAmount(ModeDeposit, "1")
	if got := form.Submit(context.Background(), ModeDeposit); got != "Deposit completed successfully." {
		t.Fatalf("unexpected status: %q", got)
	}
	if strings.Join(client.calls, ",") != "deposit" {
		t.Fatalf("expected direct deposit, got %v", client.calls)
	}
}

func TestApprovalShortfallAborts(t *testing.T) {
	client := &stubActionClient{collateralGrant: big.NewInt(1)}
	form := testForm(t, client)

	form.SetAmount(ModeDeposit, "1")
	status := form.Submit(context.Background(), ModeDeposit)
	if status != "Approval did not cover the requested amount." {
		t.Fatalf("unexpected status: %q", status)
	}
	for _, call := range client.calls {
		if call == "deposit" {
			t.Fatalf("deposit must not run after a short approval: %v", client.calls)
		}
	}
}

func TestNativeDepositWrapsFirst(t *testing.T) {
	client := &stubActionClient{collateralGrant: mustBig(t, "2000000000000000000")}
	form := testForm(t, client)

	form.SetDepositAsset(AssetNative)
	form.SetAmount(ModeDeposit, "1")
	if got := form.Submit(context.Background(), ModeDeposit); got != "Deposit completed successfully." {
		t.Fatalf("unexpected status: %q", got)
	}
	if len(client.calls) == 0 || client.calls[0] != "wrap" {
		t.Fatalf("expected wrap to run first, got %v", client.calls)
	}
}

func TestChainFailureSurfacesVerbatim(t *testing.T) {
	client := &stubActionClient{failStep: "borrow", failErr: errors.New("execution reverted: borrow cap")}
	form := testForm(t, client)

	form.SetAmount(ModeBorrow, "100")
	if got := form.Submit(context.Background(), ModeBorrow); got != "execution reverted: borrow cap" {
		t.Fatalf("expected verbatim failure, got %q", got)
	}
	// A failed sequence returns to idle and keeps the typed amount.
	if form.Amount(ModeBorrow) != "100" {
		t.Fatal("expected pending amount to survive a failure")
	}
	view := form.View()
	if view.ActiveMode != "" {
		t.Fatalf("expected idle state, got %q", view.ActiveMode)
	}
}

func TestSubmitIsSerialized(t *testing.T) {
	client := &stubActionClient{
		collateralGrant: mustBig(t, "2000000000000000000"),
		gate:            make(chan struct{}),
	}
	form := testForm(t, client)
	form.SetAmount(ModeDeposit, "1")
	form.SetAmount(ModeBorrow, "100")

	done := make(chan string, 1)
	go func() {
		done <- form.Submit(context.Background(), ModeDeposit)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if form.View().ActiveMode == string(ModeDeposit) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("submission never became active")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := form.Submit(context.Background(), ModeBorrow); got != "Another action is in progress." {
		t.Fatalf("expected serialization rejection, got %q", got)
	}

	close(client.gate)
	if got := <-done; got != "Deposit completed successfully." {
		t.Fatalf("unexpected first submission status: %q", got)
	}
}

func TestRefreshRunsAfterSuccess(t *testing.T) {
	client := &stubActionClient{collateralGrant: mustBig(t, "2000000000000000000")}
	form := testForm(t, client)
	refreshed := 0
	form.SetRefresh(func(context.Context) error {
		refreshed++
		return nil
	})

	form.SetAmount(ModeDeposit, "1")
	form.Submit(context.Background(), ModeDeposit)
	if refreshed != 1 {
		t.Fatalf("expected one refresh, got %d", refreshed)
	}

	form.SetAmount(ModeRepay, "9999")
	form.Submit(context.Background(), ModeRepay)
	if refreshed != 1 {
		t.Fatal("rejected action must not trigger a refresh")
	}
}

func TestProjectedLTVFoldsPendingAmounts(t *testing.T) {
	client := &stubActionClient{}
	form := testForm(t, client)

	// Base position: 500 debt against 2000 collateral = 25%.
	view := form.View()
	if view.Loan.CurrentLTV != "25.00%" {
		t.Fatalf("unexpected current LTV: %q", view.Loan.CurrentLTV)
	}
	if view.Loan.ProjectedLTV != "25.00%" {
		t.Fatalf("projection without input should match current: %q", view.Loan.ProjectedLTV)
	}

	// Borrowing 500 more doubles the debt: 1000 / 2000 = 50%.
	form.SetAmount(ModeBorrow, "500")
	if got := form.View().Loan.ProjectedLTV; got != "50.00%" {
		t.Fatalf("unexpected projected LTV: %q", got)
	}

	// Withdrawing half the collateral on top: 1000 / 1000 = 100%.
	form.SetAmount(ModeWithdraw, "0.5")
	if got := form.View().Loan.ProjectedLTV; got != "100.00%" {
		t.Fatalf("unexpected projected LTV: %q", got)
	}
}

func TestMissingConfigurationBlocksSubmission(t *testing.T) {
	client := &stubActionClient{}
	form := testForm(t, client)
	form.SetContracts(Contracts{CollateralToken: true, CollateralVault: true})

	form.SetAmount(ModeBorrow, "1")
	if got := form.Submit(context.Background(), ModeBorrow); got != "Debt vault address is not configured." {
		t.Fatalf("expected configuration message, got %q", got)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected no chain calls, got %v", client.calls)
	}
}

func TestSetMaxUsesLimits(t *testing.T) {
	client := &stubActionClient{}
	form := testForm(t, client)

	form.SetMax(ModeWithdraw)
	if got := form.Amount(ModeWithdraw); got != "0.687500000000000000" {
		t.Fatalf("expected full-precision withdraw max, got %q", got)
	}
	form.SetMax(ModeRepay)
	if got := form.Amount(ModeRepay); got != "500.000000000000000000" {
		t.Fatalf("expected full-precision repay max, got %q", got)
	}
}

func TestSetMaxRepayCoversDebtExactly(t *testing.T) {
	client := &stubActionClient{debtGrant: mustBig(t, "500000000000000000000001")}
	form := testForm(t, client)
	// One wei of dust below the display rounding threshold must still be
	// repayable in full.
	form.SetSnapshot(position.Snapshot{
		CollateralAssets:   mustBig(t, "1000000000000000000"),
		CollateralValue:    big.NewInt(2_000_000_000),
		DebtAmount:         mustBig(t, "500000000000000000000001"),
		MaxLTVBps:          big.NewInt(8000),
		UnitDecimals:       6,
		CollateralDecimals: 18,
		DebtDecimals:       18,
	}, Wallet{
		DebtBalance:   mustBig(t, "600000000000000000000001"),
		DebtAllowance: big.NewInt(0),
	})

	form.SetMax(ModeRepay)
	if got := form.Amount(ModeRepay); got != "500000.000000000000000001" {
		t.Fatalf("expected dust digits to survive, got %q", got)
	}
	if got := form.Submit(context.Background(), ModeRepay); got != "Repayment completed successfully." {
		t.Fatalf("expected full repayment to pass validation, got %q", got)
	}
}

func TestConfigWarningPersistsAcrossActivity(t *testing.T) {
	client := &stubActionClient{collateralGrant: mustBig(t, "2000000000000000000")}
	form := testForm(t, client)
	form.SetConfigWarning("Missing configuration: debt_vault.")

	if got := form.View().ConfigWarning; got != "Missing configuration: debt_vault." {
		t.Fatalf("expected banner in view, got %q", got)
	}

	// Typing clears the status message but never the banner.
	form.SetAmount(ModeDeposit, "1")
	view := form.View()
	if view.ConfigWarning != "Missing configuration: debt_vault." {
		t.Fatalf("banner lost on input: %q", view.ConfigWarning)
	}

	// A completed submission sets a status alongside the banner.
	form.Submit(context.Background(), ModeDeposit)
	view = form.View()
	if view.ConfigWarning != "Missing configuration: debt_vault." {
		t.Fatalf("banner lost after submission: %q", view.ConfigWarning)
	}
	if view.StatusMessage != "Deposit completed successfully." {
		t.Fatalf("unexpected status: %q", view.StatusMessage)
	}
}
