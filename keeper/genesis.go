package keeper

import (
	"context"
	"fmt"
	"slices"

	"cosmossdk.io/collections"

	"github.com/provlabs/cellar/types"
)

// InitGenesis initializes the cellar module state from genesis.
func (k *Keeper) InitGenesis(ctx context.Context, genState *types.GenesisState) {
	if genState == nil {
		return
	}

	if err := genState.Validate(); err != nil {
		panic(fmt.Errorf("invalid cellar genesis state: %w", err))
	}

	if err := k.Params.Set(ctx, genState.Params); err != nil {
		panic(err)
	}

	for _, a := range genState.TrustedAdaptors {
		if _, ok := k.AdaptorRouter.Adaptor(a); !ok {
			panic(fmt.Errorf("trusted adaptor %q is not registered with the router", a))
		}
		if err := k.TrustedAdaptors.Set(ctx, a); err != nil {
			panic(err)
		}
	}

	for _, p := range genState.Positions {
		d, err := p.Descriptor()
		if err != nil {
			panic(err)
		}
		if err := k.Positions.Set(ctx, p.ID, p); err != nil {
			panic(fmt.Errorf("failed to store position %d: %w", p.ID, err))
		}
		if err := k.PositionDescriptors.Set(ctx, d, p.ID); err != nil {
			panic(err)
		}
	}

	var maxID uint32
	for _, cg := range genState.Cellars {
		c := cg.Cellar
		if err := k.SetCellar(ctx, c); err != nil {
			panic(fmt.Errorf("failed to store cellar %d: %w", c.ID, err))
		}
		maxID = max(maxID, c.ID)
		for _, cp := range cg.Positions {
			if err := k.CellarPositions.Set(ctx, collections.Join(c.ID, cp.PositionID), cp); err != nil {
				panic(err)
			}
		}
		for _, e := range cg.AdaptorCatalogue {
			if err := k.AdaptorCatalogue.Set(ctx, collections.Join(c.ID, e.Adaptor), e); err != nil {
				panic(err)
			}
		}
		for _, id := range cg.PositionCatalogue {
			if err := k.PositionCatalogue.Set(ctx, collections.Join(c.ID, id)); err != nil {
				panic(err)
			}
		}
		if err := k.scheduleFeeAccrual(ctx, c.ID); err != nil {
			panic(err)
		}
	}
	if err := k.CellarSeq.Set(ctx, uint64(maxID)); err != nil {
		panic(err)
	}

	for _, l := range genState.ShareLocks {
		if err := k.ShareLocks.Set(ctx, shareLockKey(l.CellarID, l.Owner), l.Height); err != nil {
			panic(err)
		}
	}
}

// ExportGenesis exports the current state of the cellar module.
func (k *Keeper) ExportGenesis(ctx context.Context) *types.GenesisState {
	params, err := k.Params.Get(ctx)
	if err != nil {
		panic(fmt.Errorf("failed to get cellar module params: %w", err))
	}

	gs := &types.GenesisState{Params: params}

	err = k.TrustedAdaptors.Walk(ctx, nil, func(a string) (bool, error) {
		gs.TrustedAdaptors = append(gs.TrustedAdaptors, a)
		return false, nil
	})
	if err != nil {
		panic(err)
	}

	err = k.Positions.Walk(ctx, nil, func(_ uint32, p types.Position) (bool, error) {
		gs.Positions = append(gs.Positions, p)
		return false, nil
	})
	if err != nil {
		panic(err)
	}

	cellars, err := k.GetCellars(ctx)
	if err != nil {
		panic(err)
	}
	for _, c := range cellars {
		positions, err := k.GetCellarPositions(ctx, c)
		if err != nil {
			panic(err)
		}
		adaptors, err := k.GetAdaptorCatalogue(ctx, c.ID)
		if err != nil {
			panic(err)
		}
		catalogue, err := k.GetPositionCatalogue(ctx, c.ID)
		if err != nil {
			panic(err)
		}
		slices.Sort(catalogue)
		gs.Cellars = append(gs.Cellars, types.CellarGenesis{
			Cellar:            c,
			Positions:         positions,
			AdaptorCatalogue:  adaptors,
			PositionCatalogue: catalogue,
		})
	}

	err = k.ShareLocks.Walk(ctx, nil, func(key collections.Pair[uint32, string], h int64) (bool, error) {
		gs.ShareLocks = append(gs.ShareLocks, types.ShareLock{CellarID: key.K1(), Owner: key.K2(), Height: h})
		return false, nil
	})
	if err != nil {
		panic(err)
	}

	return gs
}
