package keeper

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"cosmossdk.io/collections"

	"github.com/provlabs/cellar/types"
	"github.com/provlabs/cellar/utils"
)

// GetCellars is a helper function for retrieving all cellars from state.
func (k *Keeper) GetCellars(ctx context.Context) ([]types.Cellar, error) {
	cellars := []types.Cellar{}

	err := k.Cellars.Walk(ctx, nil, func(_ uint32, c types.Cellar) (stop bool, err error) {
		cellars = append(cellars, c)
		return false, nil
	})

	return cellars, err
}

// GetCellar returns the cellar with the given id.
func (k *Keeper) GetCellar(ctx context.Context, cellarID uint32) (types.Cellar, error) {
	c, err := k.Cellars.Get(ctx, cellarID)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Cellar{}, types.ErrCellarNotFound.Wrapf("cellar %d", cellarID)
	}
	if err != nil {
		return types.Cellar{}, fmt.Errorf("failed to get cellar %d: %w", cellarID, err)
	}
	return c, nil
}

// SetCellar validates and persists a cellar.
func (k *Keeper) SetCellar(ctx context.Context, cellar types.Cellar) error {
	if err := cellar.Validate(); err != nil {
		return fmt.Errorf("invalid cellar %d: %w", cellar.ID, err)
	}
	return k.Cellars.Set(ctx, cellar.ID, cellar)
}

// GetCellarPositions returns the per-cellar configuration of every position
// the cellar has, in credit then debt order.
func (k *Keeper) GetCellarPositions(ctx context.Context, cellar types.Cellar) ([]types.CellarPosition, error) {
	var out []types.CellarPosition
	for _, ids := range [][]uint32{cellar.CreditPositions, cellar.DebtPositions} {
		keys := utils.Map(slices.Values(ids), func(id uint32) collections.Pair[uint32, uint32] { return collections.Join(cellar.ID, id) })
		for key := range keys {
			cp, err := k.CellarPositions.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to get position %d of cellar %d: %w", key.K2(), cellar.ID, err)
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

// GetAdaptorCatalogue returns the adaptors the cellar's strategist may call.
func (k *Keeper) GetAdaptorCatalogue(ctx context.Context, cellarID uint32) ([]types.AdaptorCatalogueEntry, error) {
	var out []types.AdaptorCatalogueEntry
	rng := collections.NewPrefixedPairRange[uint32, string](cellarID)
	err := k.AdaptorCatalogue.Walk(ctx, rng, func(_ collections.Pair[uint32, string], e types.AdaptorCatalogueEntry) (bool, error) {
		out = append(out, e)
		return false, nil
	})
	return out, err
}

// GetPositionCatalogue returns the positions the cellar may add.
func (k *Keeper) GetPositionCatalogue(ctx context.Context, cellarID uint32) ([]uint32, error) {
	var out []uint32
	rng := collections.NewPrefixedPairRange[uint32, uint32](cellarID)
	err := k.PositionCatalogue.Walk(ctx, rng, func(key collections.Pair[uint32, uint32]) (bool, error) {
		out = append(out, key.K2())
		return false, nil
	})
	return out, err
}

// shareLockStart returns the height at which owner last received shares.
func (k *Keeper) shareLockStart(ctx context.Context, cellarID uint32, owner string) (int64, bool, error) {
	h, err := k.ShareLocks.Get(ctx, shareLockKey(cellarID, owner))
	if errors.Is(err, collections.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return h, true, nil
}

func shareLockKey(cellarID uint32, owner string) collections.Pair[uint32, string] {
	return collections.Join(cellarID, owner)
}

// scheduleFeeAccrual enqueues the cellar's next fee accrual one period from now.
func (k *Keeper) scheduleFeeAccrual(ctx context.Context, cellarID uint32) error {
	params, err := k.Params.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get params: %w", err)
	}
	return k.FeeAccrualQueue.Enqueue(ctx, cellarID, k.blockTime(ctx)+params.FeeAccrualPeriod)
}
