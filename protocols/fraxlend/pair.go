// Package fraxlend is an isolated lending pair: borrowers post collateral and
// borrow the pair asset, tracked in borrow shares over a growing total.
package fraxlend

import (
	"fmt"

	"cosmossdk.io/math"
)

// LTVPrecision is the precision loan-to-value ratios are reported with.
const LTVPrecision = 100_000

// Pair is one lending pair.
type Pair struct {
	ID         string `json:"id"`
	Asset      string `json:"asset"`
	Collateral string `json:"collateral"`
	// MaxLTV is the largest borrowed/collateral value ratio a position may reach.
	MaxLTV math.LegacyDec `json:"max_ltv"`
	// BorrowRate is the annual, continuously compounded borrow rate.
	BorrowRate math.LegacyDec `json:"borrow_rate"`

	TotalBorrowAmount math.Int `json:"total_borrow_amount"`
	TotalBorrowShares math.Int `json:"total_borrow_shares"`
	LastAccrual       int64    `json:"last_accrual"`
	Paused            bool     `json:"paused"`
}

func (p Pair) Validate() error {
	if p.ID == "" || p.Asset == "" || p.Collateral == "" {
		return fmt.Errorf("pair id, asset and collateral cannot be empty")
	}
	if p.Asset == p.Collateral {
		return fmt.Errorf("pair %s asset and collateral must differ", p.ID)
	}
	if p.MaxLTV.IsNil() || !p.MaxLTV.IsPositive() || p.MaxLTV.GT(math.LegacyOneDec()) {
		return fmt.Errorf("pair %s max ltv must be in (0, 1]", p.ID)
	}
	if p.BorrowRate.IsNil() || p.BorrowRate.IsNegative() {
		return fmt.Errorf("pair %s borrow rate cannot be negative", p.ID)
	}
	return nil
}

// ToBorrowAmount converts borrow shares to an asset amount.
func (p Pair) ToBorrowAmount(shares math.Int, roundUp bool) math.Int {
	if p.TotalBorrowShares.IsZero() {
		return shares
	}
	return mulDiv(shares, p.TotalBorrowAmount, p.TotalBorrowShares, roundUp)
}

// ToBorrowShares converts an asset amount to borrow shares.
func (p Pair) ToBorrowShares(amount math.Int, roundUp bool) math.Int {
	if p.TotalBorrowAmount.IsZero() {
		return amount
	}
	return mulDiv(amount, p.TotalBorrowShares, p.TotalBorrowAmount, roundUp)
}

func mulDiv(x, y, d math.Int, roundUp bool) math.Int {
	p := x.Mul(y)
	q := p.Quo(d)
	if roundUp && !p.Mod(d).IsZero() {
		q = q.AddRaw(1)
	}
	return q
}

// Address returns the account holding the pair's collateral and liquidity.
func Address(pairID string) string { return "fraxlend/" + pairID }
