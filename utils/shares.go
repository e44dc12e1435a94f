package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// Fixed precision / virtual-offset parameters.
//
// ShareScalar sets the "neutral" precision: 1 asset unit -> ShareScalar shares.
// VirtualAssets and VirtualShares are added to totals in all conversions to
// harden against first-depositor inflation/rounding attacks.
//
// IMPORTANT:
// - VirtualAssets is ONE base unit of the underlying asset.
// - VirtualShares equals ShareScalar.
// - Do NOT divide by ShareScalar in redemption: the share supply is already scaled.
var (
	ShareScalar   = math.NewInt(1_000_000) // 1 asset = 1e6 shares (neutral precision target)
	VirtualAssets = math.NewInt(1)         // 1 base unit of underlying
	VirtualShares = ShareScalar
)

// ConvertToShares returns the shares that correspond to assets given the
// cellar totals, rounded in the given direction.
//
// Formula:
//
//	shares = assets * (totalShares + VirtualShares) / (totalAssets + VirtualAssets)
//
// An empty cellar mints assets * ShareScalar. Deposits round down, mints
// (which charge assets for a share amount) use ConvertToAssets rounding up.
func ConvertToShares(assets, totalAssets, totalShares math.Int, rounding Rounding) (math.Int, error) {
	if assets.IsNegative() || totalAssets.IsNegative() || totalShares.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if assets.IsZero() {
		return math.ZeroInt(), nil
	}
	return MulDiv(assets, totalShares.Add(VirtualShares), totalAssets.Add(VirtualAssets), rounding)
}

// ConvertToAssets returns the assets that correspond to shares given the
// cellar totals, rounded in the given direction.
//
// Formula:
//
//	assets = shares * (totalAssets + VirtualAssets) / (totalShares + VirtualShares)
func ConvertToAssets(shares, totalShares, totalAssets math.Int, rounding Rounding) (math.Int, error) {
	if shares.IsNegative() || totalShares.IsNegative() || totalAssets.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if shares.IsZero() {
		return math.ZeroInt(), nil
	}
	return MulDiv(shares, totalAssets.Add(VirtualAssets), totalShares.Add(VirtualShares), rounding)
}

// SharePrice returns the assets backing one whole share unit (ShareScalar
// shares), used for the performance fee high-water mark.
func SharePrice(totalAssets, totalShares math.Int) math.LegacyDec {
	ta := math.LegacyNewDecFromInt(totalAssets.Add(VirtualAssets))
	ts := math.LegacyNewDecFromInt(totalShares.Add(VirtualShares))
	return ta.Mul(math.LegacyNewDecFromInt(ShareScalar)).Quo(ts)
}
