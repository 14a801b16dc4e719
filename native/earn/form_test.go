package earn

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"dbconsole/native/fixedpoint"
)

type stubClient struct {
	calls   []string
	deposit *big.Int
	redeem  *big.Int
	grant   *big.Int
}

func (c *stubClient) PreviewDeposit(_ context.Context, _ *big.Int) (*big.Int, error) {
	c.calls = append(c.calls, "previewDeposit")
	return c.deposit, nil
}

func (c *stubClient) PreviewWithdraw(_ context.Context, _ *big.Int) (*big.Int, error) {
	c.calls = append(c.calls, "previewWithdraw")
	return c.redeem, nil
}

func (c *stubClient) Approve(_ context.Context, _ *big.Int) error {
	c.calls = append(c.calls, "approve")
	return nil
}

func (c *stubClient) Allowance(_ context.Context) (*big.Int, error) {
	c.calls = append(c.calls, "allowance")
	return c.grant, nil
}

func (c *stubClient) Deposit(_ context.Context, _ *big.Int) error {
	c.calls = append(c.calls, "deposit")
	return nil
}

func (c *stubClient) Withdraw(_ context.Context, _ *big.Int) error {
	c.calls = append(c.calls, "withdraw")
	return nil
}

func mustBig(t *testing.T, value string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		t.Fatalf("invalid big integer literal %q", value)
	}
	return v
}

func testForm(t *testing.T, client *stubClient) *Form {
	t.Helper()
	form := NewForm(client, "dbUSD", 18, true, true, nil)
	form.SetSnapshot(Snapshot{
		AssetBalance: mustBig(t, "1000000000000000000000"), // 1000 dbUSD
		ShareBalance: mustBig(t, "900000000000000000000"),
		MaxWithdraw:  mustBig(t, "500000000000000000000"), // 500 dbUSD
		Allowance:    big.NewInt(0),
	})
	return form
}

func TestModeSwitchPreservesAmounts(t *testing.T) {
	client := &stubClient{}
	form := testForm(t, client)

	form.SetAmount(context.Background(), "100")
	form.SetMode(ModeWithdraw)
	form.SetAmount(context.Background(), "50")
	form.SetMode(ModeDeposit)

	if got := form.View().Amount; got != "100" {
		t.Fatalf("deposit amount lost across mode switches: %q", got)
	}
	form.SetMode(ModeWithdraw)
	if got := form.View().Amount; got != "50" {
		t.Fatalf("withdraw amount lost across mode switches: %q", got)
	}
}

func TestDepositApprovesThenDeposits(t *testing.T) {
	client := &stubClient{grant: mustBig(t, "100000000000000000000")}
	form := testForm(t, client)

	form.SetAmount(context.Background(), "100")
	client.calls = nil
	if got := form.Submit(context.Background()); got != "Deposit completed successfully." {
		t.Fatalf("unexpected status: %q", got)
	}
	if strings.Join(client.calls, ",") != "approve,allowance,deposit" {
		t.Fatalf("unexpected call sequence: %v", client.calls)
	}
}

func TestWithdrawLimitEnforced(t *testing.T) {
	client := &stubClient{}
	form := testForm(t, client)

	form.SetMode(ModeWithdraw)
	form.SetAmount(context.Background(), "501")
	client.calls = nil
	if got := form.Submit(context.Background()); got != "Amount exceeds available to withdraw." {
		t.Fatalf("unexpected status: %q", got)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected no chain calls, got %v", client.calls)
	}
}

func TestAPYPercent(t *testing.T) {
	totalAssets := new(big.Int).Mul(big.NewInt(fixedpoint.SecondsPerYear), big.NewInt(100))
	got := APYPercent(big.NewInt(2), totalAssets)
	if got.FloatString(2) != "2.00" {
		t.Fatalf("expected 2.00, got %s", got.FloatString(2))
	}
	if APYPercent(nil, totalAssets) != nil {
		t.Fatal("expected nil drip rate to yield unknown")
	}
	if APYPercent(big.NewInt(1), big.NewInt(0)) != nil {
		t.Fatal("expected empty vault to yield unknown")
	}
	if FormatAPY(nil) != fixedpoint.Unknown {
		t.Fatalf("expected placeholder, got %q", FormatAPY(nil))
	}
}

type racingPreviewClient struct {
	stubClient
	slowAssets *big.Int
	slowShares *big.Int
	fastShares *big.Int
	started    chan struct{}
	release    chan struct{}
}

func (c *racingPreviewClient) PreviewDeposit(_ context.Context, assets *big.Int) (*big.Int, error) {
	if assets.Cmp(c.slowAssets) == 0 {
		close(c.started)
		<-c.release
		return c.slowShares, nil
	}
	return c.fastShares, nil
}

func TestStalePreviewDiscarded(t *testing.T) {
	client := &racingPreviewClient{
		slowAssets: mustBig(t, "1000000000000000000"),
		slowShares: mustBig(t, "1000000000000000000"),
		fastShares: mustBig(t, "2000000000000000000"),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	form := NewForm(client, "dbUSD", 18, true, true, nil)

	done := make(chan struct{})
	go func() {
		form.SetAmount(context.Background(), "1")
		close(done)
	}()
	<-client.started

	// The newer input's preview lands while the older one is still in flight.
	form.SetAmount(context.Background(), "2")
	close(client.release)
	<-done

	view := form.View()
	if view.Amount != "2" {
		t.Fatalf("unexpected amount: %q", view.Amount)
	}
	if view.PreviewShares != "2 shares" {
		t.Fatalf("stale preview overwrote the current one: %q", view.PreviewShares)
	}
}

func TestConfigWarningSurvivesInput(t *testing.T) {
	client := &stubClient{deposit: big.NewInt(1)}
	form := testForm(t, client)
	form.SetConfigWarning("Missing configuration: srm.")

	form.SetAmount(context.Background(), "100")
	view := form.View()
	if view.ConfigWarning != "Missing configuration: srm." {
		t.Fatalf("banner lost on input: %q", view.ConfigWarning)
	}
}

func TestPreviewTracksActiveMode(t *testing.T) {
	client := &stubClient{
		deposit: mustBig(t, "95000000000000000000"),
		redeem:  mustBig(t, "105000000000000000000"),
	}
	form := testForm(t, client)

	form.SetAmount(context.Background(), "100")
	if got := form.View().PreviewShares; got != "95 shares" {
		t.Fatalf("unexpected deposit preview: %q", got)
	}
	form.SetMode(ModeWithdraw)
	form.SetAmount(context.Background(), "100")
	if got := form.View().PreviewShares; got != "105 shares" {
		t.Fatalf("unexpected withdraw preview: %q", got)
	}
}
