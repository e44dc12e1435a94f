package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"

	"github.com/provlabs/cellar/types"
)

var _ types.Env = cellarEnv{}

// cellarEnv is the view of a cellar handed to adaptors.
type cellarEnv struct {
	k             *Keeper
	cellar        types.Cellar
	blockExternal bool
}

func (k *Keeper) env(cellar types.Cellar, blockExternal bool) cellarEnv {
	return cellarEnv{k: k, cellar: cellar, blockExternal: blockExternal}
}

func (e cellarEnv) CellarID() uint32            { return e.cellar.ID }
func (e cellarEnv) Holder() string              { return e.cellar.Holder }
func (e cellarEnv) BlockExternalReceiver() bool { return e.blockExternal }

// CheckPositionTracked resolves the descriptor through the registry index and
// requires the position to be trusted and used by the cellar.
func (e cellarEnv) CheckPositionTracked(ctx context.Context, adaptorID string, isDebt bool, adaptorData []byte) error {
	descriptor, err := types.PositionDescriptor(adaptorID, isDebt, adaptorData)
	if err != nil {
		return types.ErrInvalidAdaptorData.Wrap(err.Error())
	}
	id, err := e.k.PositionDescriptors.Get(ctx, descriptor)
	if errors.Is(err, collections.ErrNotFound) {
		return types.ErrPositionsMustBeTracked.Wrapf("no registry position for %s", descriptor)
	}
	if err != nil {
		return err
	}
	pos, err := e.k.GetPosition(ctx, id)
	if err != nil {
		return err
	}
	if !pos.Trusted {
		return types.ErrPositionsMustBeTracked.Wrapf("position %d is not trusted", id)
	}
	if !e.cellar.IsPositionUsed(id) {
		return types.ErrPositionsMustBeTracked.Wrapf("position %d is not used by cellar %d", id, e.cellar.ID)
	}
	return nil
}
