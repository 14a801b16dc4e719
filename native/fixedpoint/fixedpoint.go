package fixedpoint

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	ray         = mustBigInt("1000000000000000000000000000") // 1e27 precision
)

// RayDecimals is the decimal base used by per-second interest rates.
const RayDecimals = 27

// SecondsPerYear converts per-second rates to annual figures.
const SecondsPerYear = 31_536_000

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// Pow10 returns 10^exp as a big integer.
func Pow10(exp uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}

// Rebase re-expresses raw from one decimal base in another. Widening is
// exact. Narrowing truncates toward zero, which always favours the protocol
// over the user in borrow-limit contexts. A nil input propagates as nil.
func Rebase(raw *big.Int, from, to uint8) *big.Int {
	if raw == nil {
		return nil
	}
	if from == to {
		return new(big.Int).Set(raw)
	}
	if from > to {
		return new(big.Int).Quo(raw, Pow10(from-to))
	}
	return new(big.Int).Mul(raw, Pow10(to-from))
}

// ApplyBasisPoints computes value * bps / 10000, truncating toward zero.
// Either input being nil yields nil.
func ApplyBasisPoints(value, bps *big.Int) *big.Int {
	if value == nil || bps == nil {
		return nil
	}
	product := new(big.Int).Mul(value, bps)
	return product.Quo(product, basisPoints)
}

// MulBasisPoints scales value up by 10000/bps using a ceiling division. It
// answers "what is the smallest base quantity whose bps share covers value".
// A nil or zero bps yields nil because the bound is undefined.
func MulBasisPoints(value, bps *big.Int) *big.Int {
	if value == nil {
		return nil
	}
	return CeilDiv(new(big.Int).Mul(value, basisPoints), bps)
}

// CeilDiv divides numerator by denominator rounding up. Rounding up is the
// conservative direction when computing minimum collateral requirements. A
// nil or zero denominator yields nil rather than a division failure since
// empty positions are an expected state.
func CeilDiv(numerator, denominator *big.Int) *big.Int {
	if numerator == nil || denominator == nil || denominator.Sign() == 0 {
		return nil
	}
	adjusted := new(big.Int).Add(numerator, denominator)
	adjusted.Sub(adjusted, big.NewInt(1))
	return adjusted.Quo(adjusted, denominator)
}

// Min returns the smaller of a and b. When one side is nil the other alone
// binds; both nil yields nil.
func Min(a, b *big.Int) *big.Int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// RayRateToAnnualPercent converts a ray-scale per-second rate into an annual
// percentage, e.g. a rate equating to 5% APR yields 5.00. The result stays
// exact in rational form until the caller formats it.
func RayRateToAnnualPercent(rate *big.Int) *big.Rat {
	if rate == nil {
		return nil
	}
	perSecond := new(big.Rat).SetFrac(rate, ray)
	perSecond.Mul(perSecond, new(big.Rat).SetInt64(SecondsPerYear))
	return perSecond.Mul(perSecond, new(big.Rat).SetInt64(100))
}
