package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// Rounding selects the direction integer division rounds to.
type Rounding int

const (
	// Floor rounds towards zero; used for amounts paid out to users.
	Floor Rounding = iota
	// Ceil rounds away from zero; used for amounts charged to users.
	Ceil
)

func (r Rounding) String() string {
	if r == Ceil {
		return "ceil"
	}
	return "floor"
}

// MulDiv returns x * y / d for non-negative operands, rounded as requested.
func MulDiv(x, y, d math.Int, rounding Rounding) (math.Int, error) {
	if x.IsNegative() || y.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if !d.IsPositive() {
		return math.Int{}, fmt.Errorf("invalid input: division by %s", d)
	}
	p := x.Mul(y)
	q := p.Quo(d)
	if rounding == Ceil && !p.Mod(d).IsZero() {
		q = q.AddRaw(1)
	}
	return q, nil
}

// MulDivDown is MulDiv rounding down. It panics on invalid input.
func MulDivDown(x, y, d math.Int) math.Int {
	q, err := MulDiv(x, y, d, Floor)
	if err != nil {
		panic(err)
	}
	return q
}

// MulDivUp is MulDiv rounding up. It panics on invalid input.
func MulDivUp(x, y, d math.Int) math.Int {
	q, err := MulDiv(x, y, d, Ceil)
	if err != nil {
		panic(err)
	}
	return q
}

// MulDec multiplies an integer amount by a decimal factor, rounded as requested.
func MulDec(x math.Int, f math.LegacyDec, rounding Rounding) math.Int {
	v := math.LegacyNewDecFromInt(x).Mul(f)
	if rounding == Ceil {
		return v.Ceil().TruncateInt()
	}
	return v.TruncateInt()
}

// ExpDec calculates e^x using the Maclaurin series expansion up to `terms` terms.
// Safe for on-chain use (fully deterministic).
//
//	e^x = 1 + x + x^2/2! + x^3/3! + ... + x^n/n!
//
// Note: x is cosmosmath.LegacyDec; higher `terms` -> greater accuracy.
func ExpDec(x math.LegacyDec, terms int) math.LegacyDec {
	result := math.LegacyOneDec()
	power := math.LegacyOneDec()
	factorial := math.LegacyOneDec()

	for i := 1; i <= terms; i++ {
		power = power.Mul(x)
		factorial = factorial.MulInt64(int64(i))
		term := power.Quo(factorial)
		result = result.Add(term)
	}

	return result
}
