package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	sdkmath "cosmossdk.io/math"
)

const (
	// MaxPositions bounds each of a cellar's credit and debt arrays.
	MaxPositions           = 32
	// MaxShareLockPeriod is the longest share lock a cellar may configure, in blocks.
	MaxShareLockPeriod     = int64(7200)
	// DefaultShareLockPeriod is the share lock applied to new cellars, in blocks.
	DefaultShareLockPeriod = int64(10)
)

var (
	// DefaultRebalanceDeviation is the tolerance applied to new cellars (0.3%).
	DefaultRebalanceDeviation = sdkmath.LegacyNewDecWithPrec(3, 3)
	// MaxRebalanceDeviation is the largest tolerance a cellar may configure (10%).
	MaxRebalanceDeviation     = sdkmath.LegacyNewDecWithPrec(1, 1)
	// MaxPlatformFee is the largest annual platform fee (20%).
	MaxPlatformFee            = sdkmath.LegacyNewDecWithPrec(2, 1)
	// MaxPerformanceFee is the largest performance fee (50%).
	MaxPerformanceFee         = sdkmath.LegacyNewDecWithPrec(5, 1)
)

// FeeData holds the fee configuration and accrual state of a cellar.
type FeeData struct {
	// PlatformFee is the annual fee charged on total assets.
	PlatformFee sdkmath.LegacyDec `json:"platform_fee"`
	// PerformanceFee is charged on share price gains above the high-water mark.
	PerformanceFee sdkmath.LegacyDec `json:"performance_fee"`
	// StrategistPlatformCut is the strategist's share of platform fees.
	StrategistPlatformCut sdkmath.LegacyDec `json:"strategist_platform_cut"`
	// StrategistPerformanceCut is the strategist's share of performance fees.
	StrategistPerformanceCut sdkmath.LegacyDec `json:"strategist_performance_cut"`
	// HighWatermark is the highest share price (assets per share) fees were charged at.
	HighWatermark sdkmath.LegacyDec `json:"high_watermark"`
	// LastAccrual is the unix time of the last fee accrual.
	LastAccrual int64 `json:"last_accrual"`
	// StrategistPayoutAddress receives the strategist's fee shares.
	StrategistPayoutAddress string `json:"strategist_payout_address"`
}

// Validate checks fee rates and cuts are within bounds and the accrual state
// is set.
func (f FeeData) Validate() error {
	if err := f.ValidateSettings(); err != nil {
		return err
	}
	if f.HighWatermark.IsNil() || f.HighWatermark.IsNegative() {
		return fmt.Errorf("high watermark cannot be negative")
	}
	return nil
}

// ValidateSettings checks the owner supplied fields only. The high-water mark
// and last accrual are kept by the keeper.
func (f FeeData) ValidateSettings() error {
	if f.PlatformFee.IsNil() || f.PlatformFee.IsNegative() || f.PlatformFee.GT(MaxPlatformFee) {
		return fmt.Errorf("platform fee must be in [0, %s]", MaxPlatformFee)
	}
	if f.PerformanceFee.IsNil() || f.PerformanceFee.IsNegative() || f.PerformanceFee.GT(MaxPerformanceFee) {
		return fmt.Errorf("performance fee must be in [0, %s]", MaxPerformanceFee)
	}
	for name, cut := range map[string]sdkmath.LegacyDec{
		"strategist platform cut":    f.StrategistPlatformCut,
		"strategist performance cut": f.StrategistPerformanceCut,
	} {
		if cut.IsNil() || cut.IsNegative() || cut.GT(sdkmath.LegacyOneDec()) {
			return fmt.Errorf("%s must be in [0, 1]", name)
		}
	}
	if strings.TrimSpace(f.StrategistPayoutAddress) == "" {
		return fmt.Errorf("strategist payout address cannot be empty")
	}
	return nil
}

// Cellar is the share accounting container over a set of positions.
type Cellar struct {
	ID         uint32 `json:"id"`
	Name       string `json:"name"`
	Asset      string `json:"asset"`
	ShareDenom string `json:"share_denom"`
	Holder     string `json:"holder"`
	Owner      string `json:"owner"`
	Strategist string `json:"strategist"`

	// CreditPositions is ordered; user withdrawals drain it front to back.
	CreditPositions []uint32 `json:"credit_positions"`
	DebtPositions   []uint32 `json:"debt_positions"`
	HoldingPosition uint32   `json:"holding_position"`

	IsShutdown                bool              `json:"is_shutdown"`
	AllowedRebalanceDeviation sdkmath.LegacyDec `json:"allowed_rebalance_deviation"`
	ShareLockPeriod           int64             `json:"share_lock_period"`
	// ShareSupplyCap bounds total shares; zero disables the cap.
	ShareSupplyCap sdkmath.Int `json:"share_supply_cap"`

	FeeData FeeData `json:"fee_data"`
}

// Validate performs basic validation on the cellar fields.
func (c Cellar) Validate() error {
	if c.ID == 0 {
		return fmt.Errorf("cellar id cannot be zero")
	}
	if strings.TrimSpace(c.Asset) == "" {
		return fmt.Errorf("cellar asset cannot be empty")
	}
	if c.ShareDenom != GetShareDenom(c.ID) {
		return fmt.Errorf("invalid share denom %q, expected %q", c.ShareDenom, GetShareDenom(c.ID))
	}
	if c.Holder != GetCellarAddress(c.ID) {
		return fmt.Errorf("invalid holder %q, expected %q", c.Holder, GetCellarAddress(c.ID))
	}
	if strings.TrimSpace(c.Owner) == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if strings.TrimSpace(c.Strategist) == "" {
		return fmt.Errorf("strategist cannot be empty")
	}
	if len(c.CreditPositions) > MaxPositions || len(c.DebtPositions) > MaxPositions {
		return fmt.Errorf("position arrays are limited to %d entries", MaxPositions)
	}
	seen := make(map[uint32]bool)
	for _, id := range slices.Concat(c.CreditPositions, c.DebtPositions) {
		if seen[id] {
			return fmt.Errorf("position %d used more than once", id)
		}
		seen[id] = true
	}
	if !slices.Contains(c.CreditPositions, c.HoldingPosition) {
		return fmt.Errorf("holding position %d is not a credit position", c.HoldingPosition)
	}
	if err := ValidateRebalanceDeviation(c.AllowedRebalanceDeviation); err != nil {
		return err
	}
	if c.ShareLockPeriod < 0 || c.ShareLockPeriod > MaxShareLockPeriod {
		return fmt.Errorf("share lock period must be in [0, %d]", MaxShareLockPeriod)
	}
	if c.ShareSupplyCap.IsNil() || c.ShareSupplyCap.IsNegative() {
		return fmt.Errorf("share supply cap cannot be negative")
	}
	if err := c.FeeData.Validate(); err != nil {
		return fmt.Errorf("invalid fee data: %w", err)
	}
	return nil
}

// ValidateRebalanceDeviation checks a deviation is within [0, MaxRebalanceDeviation].
func ValidateRebalanceDeviation(dev sdkmath.LegacyDec) error {
	if dev.IsNil() || dev.IsNegative() || dev.GT(MaxRebalanceDeviation) {
		return fmt.Errorf("rebalance deviation must be in [0, %s]", MaxRebalanceDeviation)
	}
	return nil
}

// IsPositionUsed reports whether the position is in either array.
func (c Cellar) IsPositionUsed(positionID uint32) bool {
	return slices.Contains(c.CreditPositions, positionID) || slices.Contains(c.DebtPositions, positionID)
}

// Positions returns the credit or debt array.
func (c *Cellar) Positions(inDebtArray bool) *[]uint32 {
	if inDebtArray {
		return &c.DebtPositions
	}
	return &c.CreditPositions
}

// CellarPosition is the per-cellar configuration of a registry position.
type CellarPosition struct {
	PositionID uint32 `json:"position_id"`
	// ConfigData is adaptor specific, e.g. {"is_liquid": true}.
	ConfigData json.RawMessage `json:"config_data,omitempty"`
}
