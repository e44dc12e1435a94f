package types

import (
	"fmt"
	"strings"
)

const (
	// DefaultTreasury receives the protocol share of fees.
	DefaultTreasury         = "cellar/treasury"
	// DefaultFeeAccrualPeriod is the interval between scheduled fee accruals, in seconds.
	DefaultFeeAccrualPeriod = int64(86_400)
)

// Params defines the module parameters.
type Params struct {
	Treasury         string `json:"treasury"`
	FeeAccrualPeriod int64  `json:"fee_accrual_period"`
}

// DefaultParams returns the default module parameters.
func DefaultParams() Params {
	return Params{
		Treasury:         DefaultTreasury,
		FeeAccrualPeriod: DefaultFeeAccrualPeriod,
	}
}

// Validate performs basic validation of the parameters.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Treasury) == "" {
		return fmt.Errorf("treasury cannot be empty")
	}
	if p.FeeAccrualPeriod <= 0 {
		return fmt.Errorf("fee accrual period must be positive, got %d", p.FeeAccrualPeriod)
	}
	return nil
}
