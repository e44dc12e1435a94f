package keeper

import (
	"context"
	"fmt"

	"github.com/provlabs/cellar/types"
)

// MigratePositionDescriptors rebuilds the descriptor index of the position
// registry from the stored positions.
//
// Positions registered before adaptor data was canonicalized may be indexed
// under a descriptor built from their raw encoding, which lets an equivalent
// encoding slip past the duplicate check and hides the position from adaptor
// tracking checks. This migration re-canonicalizes every position's adaptor
// data, re-persists the position and replaces the index.
//
// It is idempotent; running it on migrated state changes nothing.
func (k *Keeper) MigratePositionDescriptors(ctx context.Context) error {
	positions := []types.Position{}
	if err := k.Positions.Walk(ctx, nil, func(_ uint32, p types.Position) (bool, error) {
		positions = append(positions, p)
		return false, nil
	}); err != nil {
		return err
	}

	if err := k.PositionDescriptors.Clear(ctx, nil); err != nil {
		return fmt.Errorf("failed to clear descriptor index: %w", err)
	}

	for _, p := range positions {
		data, err := types.CanonicalJSON(p.AdaptorData)
		if err != nil {
			return fmt.Errorf("position %d: %w", p.ID, err)
		}
		p.AdaptorData = data
		d, err := p.Descriptor()
		if err != nil {
			return fmt.Errorf("position %d: %w", p.ID, err)
		}
		if existing, err := k.PositionDescriptors.Get(ctx, d); err == nil {
			return types.ErrIdenticalPositionsNotAllowed.Wrapf("positions %d and %d", existing, p.ID)
		}
		if err := k.Positions.Set(ctx, p.ID, p); err != nil {
			return err
		}
		if err := k.PositionDescriptors.Set(ctx, d, p.ID); err != nil {
			return err
		}
	}
	return nil
}
