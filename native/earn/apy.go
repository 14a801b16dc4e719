package earn

import (
	"math/big"

	"dbconsole/native/fixedpoint"
)

// apyScale keeps two extra display digits exact through the integer APY
// computation before the final formatting step.
var apyScale = big.NewInt(1_000_000)

// APYPercent derives the savings APY from the vault's per-second drip rate
// and total assets: dripRate * secondsPerYear / totalAssets, as a
// percentage. The whole computation stays in integer arithmetic with a 1e6
// scale; nil inputs or an empty vault yield nil.
func APYPercent(dripRate, totalAssets *big.Int) *big.Rat {
	if dripRate == nil || totalAssets == nil || totalAssets.Sign() == 0 {
		return nil
	}
	annual := new(big.Int).Mul(dripRate, big.NewInt(fixedpoint.SecondsPerYear))
	scaled := new(big.Int).Mul(annual, big.NewInt(100))
	scaled.Mul(scaled, apyScale)
	scaled.Quo(scaled, totalAssets)
	return new(big.Rat).SetFrac(scaled, apyScale)
}

// FormatAPY renders the APY with two fractional digits, or the placeholder
// when unknown.
func FormatAPY(percent *big.Rat) string {
	if percent == nil {
		return fixedpoint.Unknown
	}
	return percent.FloatString(2) + "%"
}
