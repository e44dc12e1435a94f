package interest

import (
	"fmt"

	cosmosmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/utils"
)

const (
	SecondsPerYear = 31_536_000
	EulerPrecision = 18
)

// ParseRate parses an annual rate such as "0.05".
func ParseRate(rate string) (cosmosmath.LegacyDec, error) {
	r, err := cosmosmath.LegacyNewDecFromStr(rate)
	if err != nil {
		return cosmosmath.LegacyDec{}, fmt.Errorf("invalid rate string %q: %w", rate, err)
	}
	return r, nil
}

// GrowthFactor returns e^(r*t) for an annual rate r compounded continuously
// over the given number of seconds.
func GrowthFactor(rate cosmosmath.LegacyDec, seconds int64) cosmosmath.LegacyDec {
	if seconds <= 0 || rate.IsZero() {
		return cosmosmath.LegacyOneDec()
	}
	t := cosmosmath.LegacyNewDec(seconds).QuoInt64(SecondsPerYear)
	return utils.ExpDec(rate.Mul(t), EulerPrecision)
}

// AccrueIndex grows a cumulative index by the continuous rate over seconds.
func AccrueIndex(index, rate cosmosmath.LegacyDec, seconds int64) cosmosmath.LegacyDec {
	return index.Mul(GrowthFactor(rate, seconds))
}

// CalculateInterestEarned returns the interest a principal earns at the annual
// rate over periodSeconds, truncated to an integer amount.
//
//	interest = P * e^(rt) - P
func CalculateInterestEarned(principal cosmosmath.Int, rate string, periodSeconds int64) (cosmosmath.Int, error) {
	if periodSeconds <= 0 {
		return cosmosmath.Int{}, fmt.Errorf("periodSeconds must be positive")
	}
	r, err := ParseRate(rate)
	if err != nil {
		return cosmosmath.Int{}, err
	}

	p := cosmosmath.LegacyNewDecFromInt(principal)
	finalAmount := p.Mul(GrowthFactor(r, periodSeconds))
	return finalAmount.Sub(p).TruncateInt(), nil
}
