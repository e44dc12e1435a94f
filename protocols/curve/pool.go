// Package curve is a two coin stable pool: coins trade at par after
// normalising decimals, liquidity providers hold an 18 decimal LP token.
package curve

import (
	"fmt"

	"cosmossdk.io/math"
)

// LPDecimals is the precision of every pool LP token.
const LPDecimals = 18

// Pool is one two coin pool.
type Pool struct {
	ID       string    `json:"id"`
	Coins    [2]string `json:"coins"`
	Decimals [2]uint32 `json:"decimals"`
	LPDenom  string    `json:"lp_denom"`
	// Fee is charged on the output of exchanges.
	Fee math.LegacyDec `json:"fee"`
	// Locked is set while the pool is mid-operation; reads of its state are not
	// safe while it is set.
	Locked bool `json:"locked"`
}

func (p Pool) Validate() error {
	if p.ID == "" || p.LPDenom == "" {
		return fmt.Errorf("pool id and lp denom cannot be empty")
	}
	if p.Coins[0] == "" || p.Coins[1] == "" || p.Coins[0] == p.Coins[1] {
		return fmt.Errorf("pool %s needs two distinct coins", p.ID)
	}
	if p.LPDenom == p.Coins[0] || p.LPDenom == p.Coins[1] {
		return fmt.Errorf("pool %s lp denom cannot be one of its coins", p.ID)
	}
	for _, d := range p.Decimals {
		if d > LPDecimals {
			return fmt.Errorf("pool %s coin decimals above %d", p.ID, LPDecimals)
		}
	}
	if p.Fee.IsNil() || p.Fee.IsNegative() || p.Fee.GTE(math.LegacyOneDec()) {
		return fmt.Errorf("pool %s fee must be in [0, 1)", p.ID)
	}
	return nil
}

// CoinIndex returns the index of denom in the pool, or -1.
func (p Pool) CoinIndex(denom string) int {
	for i, c := range p.Coins {
		if c == denom {
			return i
		}
	}
	return -1
}

// normalize scales a coin amount to LPDecimals.
func (p Pool) normalize(i int, amount math.Int) math.Int {
	return amount.Mul(math.NewIntWithDecimal(1, int(LPDecimals-p.Decimals[i])))
}

// denormalize scales an LPDecimals amount down to coin i, rounding down.
func (p Pool) denormalize(i int, amount math.Int) math.Int {
	return amount.Quo(math.NewIntWithDecimal(1, int(LPDecimals-p.Decimals[i])))
}

// Address returns the account holding the pool reserves.
func Address(poolID string) string { return "curve/" + poolID }
