// Package position derives the risk figures a borrower needs to judge the
// health of a collateral/debt position. Every derivation works on immutable
// snapshots of on-chain reads and propagates missing inputs as nil results;
// a nil never means zero, it means the figure is not yet known.
package position

import (
	"math/big"

	"dbconsole/native/fixedpoint"
)

// Snapshot captures the raw on-chain state backing a single borrower
// position. Fields left nil mark reads that have not resolved yet or whose
// contract is not configured.
type Snapshot struct {
	// CollateralShares is the borrower's vault share balance.
	CollateralShares *big.Int
	// CollateralAssets is the share balance converted to the underlying
	// collateral token, in collateral decimals.
	CollateralAssets *big.Int
	// CollateralValue is the oracle quote for the share balance expressed in
	// the unit of account.
	CollateralValue *big.Int
	// DebtAmount is the outstanding borrow in the debt token's decimals.
	DebtAmount *big.Int
	// AvailableLiquidity is the debt-token amount the vault can lend now.
	AvailableLiquidity *big.Int
	// MaxLTVBps is the maximum borrow loan-to-value in basis points.
	MaxLTVBps *big.Int
	// LiquidationLTVBps is the threshold where the position becomes
	// liquidatable, in basis points.
	LiquidationLTVBps *big.Int
	// InterestRatePerSecond is the ray-scale borrow rate.
	InterestRatePerSecond *big.Int

	UnitDecimals       uint8
	CollateralDecimals uint8
	DebtDecimals       uint8
}

// Clone returns a deep copy so callers can hold a snapshot across refreshes.
func (s Snapshot) Clone() Snapshot {
	clone := s
	clone.CollateralShares = cloneBig(s.CollateralShares)
	clone.CollateralAssets = cloneBig(s.CollateralAssets)
	clone.CollateralValue = cloneBig(s.CollateralValue)
	clone.DebtAmount = cloneBig(s.DebtAmount)
	clone.AvailableLiquidity = cloneBig(s.AvailableLiquidity)
	clone.MaxLTVBps = cloneBig(s.MaxLTVBps)
	clone.LiquidationLTVBps = cloneBig(s.LiquidationLTVBps)
	clone.InterestRatePerSecond = cloneBig(s.InterestRatePerSecond)
	return clone
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// MaxBorrowValue is the unit-of-account value the position may borrow
// against: collateral value scaled by the max LTV.
func (s Snapshot) MaxBorrowValue() *big.Int {
	return fixedpoint.ApplyBasisPoints(s.CollateralValue, s.MaxLTVBps)
}

// MaxBorrowValueInDebt re-expresses MaxBorrowValue in debt-token decimals.
func (s Snapshot) MaxBorrowValueInDebt() *big.Int {
	return fixedpoint.Rebase(s.MaxBorrowValue(), s.UnitDecimals, s.DebtDecimals)
}

// BorrowHeadroom is the additional debt-token amount the borrower may take
// on. The LTV-implied entitlement is clamped at zero and capped by the
// vault's available liquidity; the binding constraint is the smaller of the
// two.
func (s Snapshot) BorrowHeadroom() *big.Int {
	limit := s.MaxBorrowValueInDebt()
	if limit == nil || s.DebtAmount == nil || s.AvailableLiquidity == nil {
		return nil
	}
	if limit.Cmp(s.DebtAmount) <= 0 {
		return big.NewInt(0)
	}
	headroom := new(big.Int).Sub(limit, s.DebtAmount)
	return fixedpoint.Min(headroom, s.AvailableLiquidity)
}

// DebtValueInUnit re-expresses the outstanding debt in the unit of account.
func (s Snapshot) DebtValueInUnit() *big.Int {
	return fixedpoint.Rebase(s.DebtAmount, s.DebtDecimals, s.UnitDecimals)
}

// MinCollateralValueRequired is the smallest collateral value keeping the
// current debt inside the max-LTV bound. The division rounds up so the
// requirement errs toward protocol safety. Undefined (nil) when the max LTV
// is zero or unknown.
func (s Snapshot) MinCollateralValueRequired() *big.Int {
	debt := s.DebtValueInUnit()
	if debt == nil {
		return nil
	}
	return fixedpoint.MulBasisPoints(debt, s.MaxLTVBps)
}

// AvailableCollateralValue is the surplus collateral value not needed to
// back existing debt, clamped at zero.
func (s Snapshot) AvailableCollateralValue() *big.Int {
	required := s.MinCollateralValueRequired()
	if s.CollateralValue == nil || required == nil {
		return nil
	}
	if s.CollateralValue.Cmp(required) <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(s.CollateralValue, required)
}

// WithdrawHeadroomAssets converts the surplus collateral value back into a
// pro-rata quantity of the collateral asset using the current valuation.
func (s Snapshot) WithdrawHeadroomAssets() *big.Int {
	available := s.AvailableCollateralValue()
	if available == nil || s.CollateralAssets == nil {
		return nil
	}
	if s.CollateralValue == nil || s.CollateralValue.Sign() == 0 {
		return nil
	}
	headroom := new(big.Int).Mul(available, s.CollateralAssets)
	return headroom.Quo(headroom, s.CollateralValue)
}

// WithdrawLimitAssets is the effective withdrawable quantity: the LTV-implied
// headroom capped at the total deposited assets. When only one side is known
// that side alone binds.
func (s Snapshot) WithdrawLimitAssets() *big.Int {
	return fixedpoint.Min(s.WithdrawHeadroomAssets(), s.CollateralAssets)
}

// ConvertAssetsToUnit values a collateral-asset quantity in the unit of
// account pro rata against the current oracle valuation.
func (s Snapshot) ConvertAssetsToUnit(assets *big.Int) *big.Int {
	if assets == nil || s.CollateralValue == nil {
		return nil
	}
	if s.CollateralAssets == nil || s.CollateralAssets.Sign() == 0 {
		return nil
	}
	value := new(big.Int).Mul(assets, s.CollateralValue)
	return value.Quo(value, s.CollateralAssets)
}

// ConvertDebtToUnit rebases a debt-token amount to the unit of account.
func (s Snapshot) ConvertDebtToUnit(amount *big.Int) *big.Int {
	return fixedpoint.Rebase(amount, s.DebtDecimals, s.UnitDecimals)
}

// CurrentLTVPercent is the present loan-to-value as a display percentage.
// The exact rational form is returned; limit decisions never consume it.
func (s Snapshot) CurrentLTVPercent() *big.Rat {
	debt := s.DebtValueInUnit()
	if debt == nil || s.CollateralValue == nil || s.CollateralValue.Sign() == 0 {
		return nil
	}
	ltv := new(big.Rat).SetFrac(debt, s.CollateralValue)
	return ltv.Mul(ltv, new(big.Rat).SetInt64(100))
}

// LiquidationPrice is the oracle price, in unit of account per collateral
// token, at which the position crosses the liquidation threshold with debt
// and collateral quantity held fixed. Unknown while the threshold or the
// collateral quantity is zero.
func (s Snapshot) LiquidationPrice() *big.Rat {
	debt := s.DebtValueInUnit()
	if debt == nil || s.CollateralAssets == nil || s.CollateralAssets.Sign() == 0 {
		return nil
	}
	if s.LiquidationLTVBps == nil || s.LiquidationLTVBps.Sign() == 0 {
		return nil
	}
	// price = debtUnits / (collateralTokens * threshold)
	debtUnits := new(big.Rat).SetFrac(debt, fixedpoint.Pow10(s.UnitDecimals))
	collateralTokens := new(big.Rat).SetFrac(s.CollateralAssets, fixedpoint.Pow10(s.CollateralDecimals))
	threshold := new(big.Rat).SetFrac(s.LiquidationLTVBps, big.NewInt(10_000))
	denominator := new(big.Rat).Mul(collateralTokens, threshold)
	if denominator.Sign() == 0 {
		return nil
	}
	return debtUnits.Quo(debtUnits, denominator)
}

// CollateralPrice is the implied oracle price of one collateral token in the
// unit of account, shown alongside the liquidation price.
func (s Snapshot) CollateralPrice() *big.Rat {
	if s.CollateralValue == nil || s.CollateralAssets == nil || s.CollateralAssets.Sign() == 0 {
		return nil
	}
	value := new(big.Rat).SetFrac(s.CollateralValue, fixedpoint.Pow10(s.UnitDecimals))
	quantity := new(big.Rat).SetFrac(s.CollateralAssets, fixedpoint.Pow10(s.CollateralDecimals))
	return value.Quo(value, quantity)
}

// BorrowAPRPercent annualises the per-second borrow rate for display. It is
// informational only and never feeds a limit decision.
func (s Snapshot) BorrowAPRPercent() *big.Rat {
	return fixedpoint.RayRateToAnnualPercent(s.InterestRatePerSecond)
}
