package keeper

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/types"
)

// activePosition is a cellar position resolved against the registry.
type activePosition struct {
	types.Position
	ConfigData []byte
	adaptor    types.Adaptor
}

// loadPosition resolves positionID for the cellar. A position missing from the
// registry or the cellar configuration is an error, never skipped.
func (k *Keeper) loadPosition(ctx context.Context, cellarID, positionID uint32) (activePosition, error) {
	pos, err := k.GetPosition(ctx, positionID)
	if err != nil {
		return activePosition{}, err
	}
	cp, err := k.CellarPositions.Get(ctx, collections.Join(cellarID, positionID))
	if errors.Is(err, collections.ErrNotFound) {
		return activePosition{}, types.ErrPositionNotFound.Wrapf("position %d is not configured for cellar %d", positionID, cellarID)
	}
	if err != nil {
		return activePosition{}, err
	}
	adaptor, err := k.adaptorFor(pos.Adaptor)
	if err != nil {
		return activePosition{}, err
	}
	return activePosition{Position: pos, ConfigData: cp.ConfigData, adaptor: adaptor}, nil
}

// toBase converts amount of the position's asset into the cellar asset,
// rounding down. Pricing failures are returned, never treated as zero.
func (k *Keeper) toBase(ctx context.Context, cellar types.Cellar, ap activePosition, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsZero() {
		return amount, nil
	}
	asset, err := ap.adaptor.AssetOf(ctx, ap.AdaptorData)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if asset == cellar.Asset {
		return amount, nil
	}
	v, err := k.PriceRouter.GetValue(ctx, asset, amount, cellar.Asset)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to price position %d: %w", ap.ID, err)
	}
	return v, nil
}

func (k *Keeper) positionValue(ctx context.Context, env cellarEnv, ap activePosition) (sdkmath.Int, error) {
	bal, err := ap.adaptor.BalanceOf(ctx, env, ap.AdaptorData)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to get balance of position %d: %w", ap.ID, err)
	}
	return k.toBase(ctx, env.cellar, ap, bal)
}

func (k *Keeper) sumValues(ctx context.Context, env cellarEnv, ids []uint32) (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	for _, id := range ids {
		ap, err := k.loadPosition(ctx, env.cellar.ID, id)
		if err != nil {
			return sdkmath.Int{}, err
		}
		v, err := k.positionValue(ctx, env, ap)
		if err != nil {
			return sdkmath.Int{}, err
		}
		total = total.Add(v)
	}
	return total, nil
}

// TotalAssets returns the cellar's credit minus debt in its base asset.
func (k *Keeper) TotalAssets(ctx context.Context, cellarID uint32) (sdkmath.Int, error) {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return k.totalAssets(ctx, cellar)
}

func (k *Keeper) totalAssets(ctx context.Context, cellar types.Cellar) (sdkmath.Int, error) {
	ctx, err := enterValuation(ctx, cellar.ID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	env := k.env(cellar, false)
	credit, err := k.sumValues(ctx, env, cellar.CreditPositions)
	if err != nil {
		return sdkmath.Int{}, err
	}
	debt, err := k.sumValues(ctx, env, cellar.DebtPositions)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if debt.GT(credit) {
		return sdkmath.Int{}, types.ErrDebtExceedsCredit.Wrapf("credit %s, debt %s", credit, debt)
	}
	total := credit.Sub(debt)
	k.metrics.observeTotalAssets(cellar.ID, total)
	return total, nil
}

// TotalAssetsWithdrawable returns the part of the credit positions a user
// withdrawal can reach right now, in the base asset.
func (k *Keeper) TotalAssetsWithdrawable(ctx context.Context, cellarID uint32) (sdkmath.Int, error) {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return k.totalAssetsWithdrawable(ctx, cellar)
}

func (k *Keeper) totalAssetsWithdrawable(ctx context.Context, cellar types.Cellar) (sdkmath.Int, error) {
	env := k.env(cellar, false)
	total := sdkmath.ZeroInt()
	for _, id := range cellar.CreditPositions {
		ap, err := k.loadPosition(ctx, cellar.ID, id)
		if err != nil {
			return sdkmath.Int{}, err
		}
		w, err := ap.adaptor.WithdrawableFrom(ctx, env, ap.AdaptorData, ap.ConfigData)
		if err != nil {
			return sdkmath.Int{}, fmt.Errorf("failed to get withdrawable of position %d: %w", ap.ID, err)
		}
		v, err := k.toBase(ctx, cellar, ap, w)
		if err != nil {
			return sdkmath.Int{}, err
		}
		total = total.Add(v)
	}
	return total, nil
}

// withdrawInOrder pays assets (in base asset value) to receiver by draining the
// credit positions in array order. Each position pays out in its own asset. It
// stops once the request is covered and fails with ErrIncompleteWithdraw
// carrying the shortfall otherwise.
func (k *Keeper) withdrawInOrder(ctx context.Context, cellar types.Cellar, assets sdkmath.Int, receiver string) error {
	env := k.env(cellar, false)
	remaining := assets
	for _, id := range cellar.CreditPositions {
		if !remaining.IsPositive() {
			break
		}
		ap, err := k.loadPosition(ctx, cellar.ID, id)
		if err != nil {
			return err
		}
		withdrawable, err := ap.adaptor.WithdrawableFrom(ctx, env, ap.AdaptorData, ap.ConfigData)
		if err != nil {
			return fmt.Errorf("failed to get withdrawable of position %d: %w", ap.ID, err)
		}
		if withdrawable.IsZero() {
			continue
		}
		value, err := k.toBase(ctx, cellar, ap, withdrawable)
		if err != nil {
			return err
		}

		amount := withdrawable
		if value.GT(remaining) {
			amount, err = k.fromBase(ctx, cellar, ap, remaining)
			if err != nil {
				return err
			}
			amount = sdkmath.MinInt(amount, withdrawable)
			remaining = sdkmath.ZeroInt()
		} else {
			remaining = remaining.Sub(value)
		}
		if amount.IsZero() {
			continue
		}
		if err := ap.adaptor.Withdraw(ctx, env, types.Exact(amount), receiver, ap.AdaptorData, ap.ConfigData); err != nil {
			return fmt.Errorf("failed to withdraw %s from position %d: %w", amount, ap.ID, err)
		}
	}
	if remaining.IsPositive() {
		return types.ErrIncompleteWithdraw.Wrapf("shortfall %s of %s", remaining, assets)
	}
	return nil
}

// fromBase converts a base asset value into the position's asset, rounding down.
func (k *Keeper) fromBase(ctx context.Context, cellar types.Cellar, ap activePosition, value sdkmath.Int) (sdkmath.Int, error) {
	asset, err := ap.adaptor.AssetOf(ctx, ap.AdaptorData)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if asset == cellar.Asset {
		return value, nil
	}
	return k.PriceRouter.GetValue(ctx, cellar.Asset, value, asset)
}

type valuationKey struct{}

// valuationFrame links the cellars whose valuation is in progress, so nested
// cellar positions that loop back are rejected instead of recursing forever.
type valuationFrame struct {
	cellarID uint32
	parent   *valuationFrame
}

func enterValuation(ctx context.Context, cellarID uint32) (context.Context, error) {
	parent, _ := ctx.Value(valuationKey{}).(*valuationFrame)
	for f := parent; f != nil; f = f.parent {
		if f.cellarID == cellarID {
			return nil, types.ErrInvalidAdaptorData.Wrapf("cellar %d is nested in itself", cellarID)
		}
	}
	return context.WithValue(ctx, valuationKey{}, &valuationFrame{cellarID: cellarID, parent: parent}), nil
}
