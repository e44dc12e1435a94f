package simulation

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/bank"
	"github.com/provlabs/cellar/simapp"
)

// Invariant checks one property of the app state in the open block. It
// returns a description of the violation, or an empty string.
type Invariant func(app *simapp.SimApp) (string, error)

// AllInvariants returns every registered invariant keyed by name.
func AllInvariants() map[string]Invariant {
	return map[string]Invariant{
		"cellar-config":        CellarConfigInvariant,
		"share-supply":         ShareSupplyInvariant,
		"positive-balances":    PositiveBalancesInvariant,
		"high-watermark":       HighWatermarkInvariant,
		"withdrawable-bounded": WithdrawableInvariant,
	}
}

// CheckInvariants runs every invariant and returns the first violation.
func CheckInvariants(app *simapp.SimApp) error {
	for name, inv := range AllInvariants() {
		msg, err := inv(app)
		if err != nil {
			return fmt.Errorf("invariant %s: %w", name, err)
		}
		if msg != "" {
			return fmt.Errorf("invariant %s broken: %s", name, msg)
		}
	}
	return nil
}

// CellarConfigInvariant checks every cellar validates and only uses
// registered positions whose debt flag matches the array holding them.
func CellarConfigInvariant(app *simapp.SimApp) (string, error) {
	ctx := app.Context()
	cellars, err := app.CellarKeeper.GetCellars(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cellars {
		if err := c.Validate(); err != nil {
			return fmt.Sprintf("cellar %d: %v", c.ID, err), nil
		}
		for _, debt := range []bool{false, true} {
			for _, id := range *c.Positions(debt) {
				pos, err := app.CellarKeeper.GetPosition(ctx, id)
				if err != nil {
					return fmt.Sprintf("cellar %d uses unknown position %d", c.ID, id), nil
				}
				if pos.IsDebt != debt {
					return fmt.Sprintf("cellar %d holds position %d in the wrong array", c.ID, id), nil
				}
			}
		}
	}
	return "", nil
}

// ShareSupplyInvariant checks the supply of every share denom equals the sum
// of its balances.
func ShareSupplyInvariant(app *simapp.SimApp) (string, error) {
	ctx := app.Context()
	balances, err := app.BankKeeper.ExportBalances(ctx)
	if err != nil {
		return "", err
	}
	sums := sumByDenom(balances)
	cellars, err := app.CellarKeeper.GetCellars(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cellars {
		supply, err := app.BankKeeper.GetSupply(ctx, c.ShareDenom)
		if err != nil {
			return "", err
		}
		sum, ok := sums[c.ShareDenom]
		if !ok {
			sum = sdkmath.ZeroInt()
		}
		if !supply.Equal(sum) {
			return fmt.Sprintf("cellar %d supply %s, balances %s", c.ID, supply, sum), nil
		}
	}
	return "", nil
}

func sumByDenom(balances []bank.Balance) map[string]sdkmath.Int {
	sums := make(map[string]sdkmath.Int)
	for _, b := range balances {
		s, ok := sums[b.Denom]
		if !ok {
			s = sdkmath.ZeroInt()
		}
		sums[b.Denom] = s.Add(b.Amount)
	}
	return sums
}

// PositiveBalancesInvariant checks no stored balance is zero or negative.
func PositiveBalancesInvariant(app *simapp.SimApp) (string, error) {
	balances, err := app.BankKeeper.ExportBalances(app.Context())
	if err != nil {
		return "", err
	}
	for _, b := range balances {
		if !b.Amount.IsPositive() {
			return fmt.Sprintf("%s holds %s %s", b.Address, b.Amount, b.Denom), nil
		}
	}
	return "", nil
}

// HighWatermarkInvariant checks no cellar has a negative high watermark.
func HighWatermarkInvariant(app *simapp.SimApp) (string, error) {
	cellars, err := app.CellarKeeper.GetCellars(app.Context())
	if err != nil {
		return "", err
	}
	for _, c := range cellars {
		if c.FeeData.HighWatermark.IsNil() || c.FeeData.HighWatermark.IsNegative() {
			return fmt.Sprintf("cellar %d high watermark %s", c.ID, c.FeeData.HighWatermark), nil
		}
	}
	return "", nil
}

// WithdrawableInvariant checks the withdrawable assets of every cellar never
// exceed its total assets.
func WithdrawableInvariant(app *simapp.SimApp) (string, error) {
	ctx := app.Context()
	cellars, err := app.CellarKeeper.GetCellars(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cellars {
		total, err := app.CellarKeeper.TotalAssets(ctx, c.ID)
		if err != nil {
			return "", err
		}
		withdrawable, err := app.CellarKeeper.TotalAssetsWithdrawable(ctx, c.ID)
		if err != nil {
			return "", err
		}
		if withdrawable.GT(total) {
			return fmt.Sprintf("cellar %d withdrawable %s above total %s", c.ID, withdrawable, total), nil
		}
	}
	return "", nil
}
