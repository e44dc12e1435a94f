// Package compound is a Compound v2 style lending market: suppliers mint
// cTokens against an exchange rate that grows with the supply rate.
package compound

import (
	"fmt"

	"cosmossdk.io/math"
)

// Code is a Compound error code. Failed calls return a non-zero code instead
// of an error, and leave state untouched.
type Code uint32

const (
	NoError          Code = 0
	Rejection        Code = 3
	InsufficientCash Code = 14
)

func (c Code) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case Rejection:
		return "COMPTROLLER_REJECTION"
	case InsufficientCash:
		return "TOKEN_INSUFFICIENT_CASH"
	default:
		return fmt.Sprintf("CODE_%d", uint32(c))
	}
}

// Market is one cToken market.
type Market struct {
	// ID is the cToken denom.
	ID         string `json:"id"`
	Underlying string `json:"underlying"`
	// ExchangeRate is underlying per cToken as of LastAccrual.
	ExchangeRate math.LegacyDec `json:"exchange_rate"`
	// SupplyRate is the annual, continuously compounded supply rate.
	SupplyRate  math.LegacyDec `json:"supply_rate"`
	LastAccrual int64          `json:"last_accrual"`
	// Paused markets reject mints with Rejection.
	Paused bool `json:"paused"`
}

func (m Market) Validate() error {
	if m.ID == "" || m.Underlying == "" {
		return fmt.Errorf("market id and underlying cannot be empty")
	}
	if m.ID == m.Underlying {
		return fmt.Errorf("market %s cannot use itself as underlying", m.ID)
	}
	if m.ExchangeRate.IsNil() || !m.ExchangeRate.IsPositive() {
		return fmt.Errorf("market %s exchange rate must be positive", m.ID)
	}
	if m.SupplyRate.IsNil() || m.SupplyRate.IsNegative() {
		return fmt.Errorf("market %s supply rate cannot be negative", m.ID)
	}
	return nil
}

// Address returns the account holding the market's cash.
func Address(marketID string) string { return "compound/" + marketID }

// BorrowersAddress returns the account standing in for the market's borrowers.
func BorrowersAddress(marketID string) string { return "compound/" + marketID + "/borrowers" }
