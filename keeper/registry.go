package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"cosmossdk.io/collections"

	"github.com/provlabs/cellar/types"
)

// requireAuthority fails unless addr is the module authority.
func (k *Keeper) requireAuthority(addr string) error {
	if addr != k.authority {
		return types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, addr)
	}
	return nil
}

// GetPosition returns a registry position.
func (k *Keeper) GetPosition(ctx context.Context, id uint32) (types.Position, error) {
	pos, err := k.Positions.Get(ctx, id)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Position{}, types.ErrPositionNotFound.Wrapf("position %d", id)
	}
	if err != nil {
		return types.Position{}, fmt.Errorf("failed to get position %d: %w", id, err)
	}
	return pos, nil
}

// adaptorFor resolves the implementation of an adaptor id.
func (k *Keeper) adaptorFor(id string) (types.Adaptor, error) {
	a, ok := k.AdaptorRouter.Adaptor(id)
	if !ok {
		return nil, types.ErrUnknownAdaptor.Wrap(id)
	}
	return a, nil
}

// TrustAdaptor makes an adaptor available to positions and strategist calls.
func (k *Keeper) TrustAdaptor(ctx context.Context, authority, adaptorID string) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	adaptor, err := k.adaptorFor(adaptorID)
	if err != nil {
		return err
	}
	trusted, err := k.TrustedAdaptors.Has(ctx, adaptorID)
	if err != nil {
		return err
	}
	if trusted {
		return types.ErrAdaptorAlreadyTrusted.Wrap(adaptorID)
	}
	if err := adaptor.SanityCheck(ctx); err != nil {
		return types.ErrAdaptorFailedSanityCheck.Wrapf("%s: %s", adaptorID, err)
	}
	if err := k.TrustedAdaptors.Set(ctx, adaptorID); err != nil {
		return fmt.Errorf("failed to trust adaptor %s: %w", adaptorID, err)
	}
	return k.emit(ctx, types.EventRegistryChanged{Action: "trust_adaptor", Adaptor: adaptorID})
}

// TrustPosition registers position id over a trusted adaptor. The adaptor data
// is stored in canonical form and every asset it uses must be priceable.
func (k *Keeper) TrustPosition(ctx context.Context, authority string, id uint32, adaptorID string, adaptorData json.RawMessage) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	if id == 0 {
		return types.ErrInvalidRequest.Wrap("position id cannot be zero")
	}
	used, err := k.Positions.Has(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return types.ErrPositionAlreadyUsed.Wrapf("position %d", id)
	}
	trusted, err := k.TrustedAdaptors.Has(ctx, adaptorID)
	if err != nil {
		return err
	}
	if !trusted {
		return types.ErrAdaptorNotTrusted.Wrap(adaptorID)
	}
	adaptor, err := k.adaptorFor(adaptorID)
	if err != nil {
		return err
	}

	data, err := types.CanonicalJSON(adaptorData)
	if err != nil {
		return types.ErrInvalidAdaptorData.Wrap(err.Error())
	}
	if err := adaptor.ValidateAdaptorData(ctx, data); err != nil {
		return err
	}
	pos := types.Position{ID: id, Adaptor: adaptorID, AdaptorData: data, IsDebt: adaptor.IsDebt(), Trusted: true}
	descriptor, err := pos.Descriptor()
	if err != nil {
		return types.ErrInvalidAdaptorData.Wrap(err.Error())
	}
	existing, err := k.PositionDescriptors.Get(ctx, descriptor)
	switch {
	case err == nil:
		return types.ErrIdenticalPositionsNotAllowed.Wrapf("position %d already registers %s", existing, descriptor)
	case !errors.Is(err, collections.ErrNotFound):
		return err
	}

	assets, err := adaptor.AssetsUsed(ctx, data)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		if !k.PriceRouter.IsSupported(ctx, asset) {
			return types.ErrPositionPricingNotSetUp.Wrapf("asset %s of position %d", asset, id)
		}
	}

	if err := k.Positions.Set(ctx, id, pos); err != nil {
		return fmt.Errorf("failed to store position %d: %w", id, err)
	}
	if err := k.PositionDescriptors.Set(ctx, descriptor, id); err != nil {
		return fmt.Errorf("failed to index position %d: %w", id, err)
	}
	k.getLogger(ctx).Info("position trusted", "position_id", id, "adaptor", adaptorID)
	return k.emit(ctx, types.EventRegistryChanged{Action: "trust_position", Adaptor: adaptorID, PositionID: id})
}

// DistrustPosition stops a position from being added to cellars. Cellars
// already using it keep it until it is removed or forced out.
func (k *Keeper) DistrustPosition(ctx context.Context, authority string, id uint32) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	pos, err := k.GetPosition(ctx, id)
	if err != nil {
		return err
	}
	if !pos.Trusted {
		return types.ErrPositionNotTrusted.Wrapf("position %d", id)
	}
	pos.Trusted = false
	if err := k.Positions.Set(ctx, id, pos); err != nil {
		return fmt.Errorf("failed to store position %d: %w", id, err)
	}
	return k.emit(ctx, types.EventRegistryChanged{Action: "distrust_position", Adaptor: pos.Adaptor, PositionID: id})
}

// ForcePositionOut removes a distrusted position from a cellar without
// checking its balance.
func (k *Keeper) ForcePositionOut(ctx context.Context, authority string, cellarID, index, positionID uint32, inDebtArray bool) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return err
	}
	arr := cellar.Positions(inDebtArray)
	if int(index) >= len(*arr) || (*arr)[index] != positionID {
		return types.ErrFailedToForceOutPosition.Wrapf("position %d is not at index %d", positionID, index)
	}
	pos, err := k.GetPosition(ctx, positionID)
	if err != nil {
		return err
	}
	if pos.Trusted {
		return types.ErrFailedToForceOutPosition.Wrapf("position %d is still trusted", positionID)
	}
	if positionID == cellar.HoldingPosition {
		return types.ErrRemovingHoldingPosition.Wrapf("position %d", positionID)
	}

	*arr = slices.Delete(*arr, int(index), int(index)+1)
	if err := k.CellarPositions.Remove(ctx, collections.Join(cellarID, positionID)); err != nil {
		return err
	}
	if err := k.SetCellar(ctx, cellar); err != nil {
		return err
	}
	k.getLogger(ctx).Info("position forced out", "cellar_id", cellarID, "position_id", positionID)
	return k.emit(ctx, types.EventPositionChanged{CellarID: cellarID, PositionID: positionID, Action: "force_out", Index: int(index), Debt: inDebtArray})
}
