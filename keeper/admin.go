package keeper

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
	"github.com/provlabs/cellar/utils"
)

// CreateCellar creates a cellar over a trusted holding position and seeds it
// with the owner's initial deposit, minting the initial shares to the cellar
// holder.
func (k *Keeper) CreateCellar(ctx context.Context, msg types.MsgCreateCellar) (uint32, sdkmath.Int, error) {
	var (
		cellarID uint32
		shares   sdkmath.Int
	)
	err := runtime.Atomic(ctx, func(ctx context.Context) error {
		holding, err := k.GetPosition(ctx, msg.HoldingPosition)
		if err != nil {
			return err
		}
		if !holding.Trusted {
			return types.ErrPositionNotTrusted.Wrapf("position %d", holding.ID)
		}
		if holding.IsDebt {
			return types.ErrDebtMismatch.Wrapf("holding position %d is a debt position", holding.ID)
		}
		if err := k.requireAssetOf(ctx, holding, msg.Asset); err != nil {
			return err
		}
		if !k.PriceRouter.IsSupported(ctx, msg.Asset) {
			return types.ErrPositionPricingNotSetUp.Wrapf("asset %s", msg.Asset)
		}

		seq, err := k.CellarSeq.Next(ctx)
		if err != nil {
			return err
		}
		cellarID = uint32(seq + 1)

		deviation := msg.RebalanceDeviation
		if deviation.IsNil() {
			deviation = types.DefaultRebalanceDeviation
		}
		fd := msg.FeeData
		fd.HighWatermark = utils.SharePrice(sdkmath.ZeroInt(), sdkmath.ZeroInt())
		fd.LastAccrual = k.blockTime(ctx)

		cellar := types.Cellar{
			ID:                        cellarID,
			Name:                      msg.Name,
			Asset:                     msg.Asset,
			ShareDenom:                types.GetShareDenom(cellarID),
			Holder:                    types.GetCellarAddress(cellarID),
			Owner:                     msg.Owner,
			Strategist:                msg.Strategist,
			CreditPositions:           []uint32{holding.ID},
			HoldingPosition:           holding.ID,
			AllowedRebalanceDeviation: deviation,
			ShareLockPeriod:           msg.ShareLockPeriod,
			ShareSupplyCap:            sdkmath.ZeroInt(),
			FeeData:                   fd,
		}
		if err := k.SetCellar(ctx, cellar); err != nil {
			return err
		}
		if err := k.CellarPositions.Set(ctx, collections.Join(cellarID, holding.ID), types.CellarPosition{PositionID: holding.ID, ConfigData: msg.HoldingConfig}); err != nil {
			return err
		}
		if err := k.PositionCatalogue.Set(ctx, collections.Join(cellarID, holding.ID)); err != nil {
			return err
		}
		if err := k.emit(ctx, types.NewEventCellarCreated(cellar)); err != nil {
			return err
		}

		if shares, err = k.PreviewDeposit(ctx, cellarID, msg.InitialDeposit); err != nil {
			return err
		}
		if shares.IsZero() {
			return types.ErrZeroShares.Wrapf("initial deposit of %s", msg.InitialDeposit)
		}
		if err := k.enter(ctx, cellar, msg.Owner, cellar.Holder, msg.InitialDeposit, shares); err != nil {
			return err
		}
		k.getLogger(ctx).Info("cellar created", "cellar_id", cellarID, "asset", msg.Asset, "owner", msg.Owner)
		return k.scheduleFeeAccrual(ctx, cellarID)
	})
	return cellarID, shares, err
}

func (k *Keeper) requireAssetOf(ctx context.Context, pos types.Position, asset string) error {
	adaptor, err := k.adaptorFor(pos.Adaptor)
	if err != nil {
		return err
	}
	got, err := adaptor.AssetOf(ctx, pos.AdaptorData)
	if err != nil {
		return err
	}
	if got != asset {
		return types.ErrAssetMismatch.Wrapf("position %d holds %s, cellar asset is %s", pos.ID, got, asset)
	}
	return nil
}

// ownedCellar loads a cellar and checks owner controls it.
func (k *Keeper) ownedCellar(ctx context.Context, owner string, cellarID uint32) (types.Cellar, error) {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return types.Cellar{}, err
	}
	if owner != cellar.Owner {
		return types.Cellar{}, types.ErrUnauthorized.Wrapf("%s is not the owner of cellar %d", owner, cellarID)
	}
	return cellar, nil
}

// AddPosition inserts a catalogued, trusted position at index of the credit
// or debt array.
func (k *Keeper) AddPosition(ctx context.Context, owner string, cellarID, index, positionID uint32, configData json.RawMessage, inDebtArray bool) error {
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	catalogued, err := k.PositionCatalogue.Has(ctx, collections.Join(cellarID, positionID))
	if err != nil {
		return err
	}
	if !catalogued {
		return types.ErrPositionNotInCatalogue.Wrapf("position %d", positionID)
	}
	pos, err := k.GetPosition(ctx, positionID)
	if err != nil {
		return err
	}
	if !pos.Trusted {
		return types.ErrPositionNotTrusted.Wrapf("position %d", positionID)
	}
	if cellar.IsPositionUsed(positionID) {
		return types.ErrPositionAlreadyUsed.Wrapf("position %d is already used by cellar %d", positionID, cellarID)
	}
	if pos.IsDebt != inDebtArray {
		return types.ErrDebtMismatch.Wrapf("position %d debt=%t", positionID, pos.IsDebt)
	}
	arr := cellar.Positions(inDebtArray)
	if len(*arr) >= types.MaxPositions {
		return types.ErrPositionArrayFull.Wrapf("%d positions", len(*arr))
	}
	if int(index) > len(*arr) {
		return types.ErrInvalidIndex.Wrapf("index %d, length %d", index, len(*arr))
	}

	*arr = slices.Insert(*arr, int(index), positionID)
	if err := k.CellarPositions.Set(ctx, collections.Join(cellarID, positionID), types.CellarPosition{PositionID: positionID, ConfigData: configData}); err != nil {
		return err
	}
	if err := k.SetCellar(ctx, cellar); err != nil {
		return err
	}
	return k.emit(ctx, types.EventPositionChanged{CellarID: cellarID, PositionID: positionID, Action: "add", Index: int(index), Debt: inDebtArray})
}

// RemovePosition removes an empty position that is not the holding position.
func (k *Keeper) RemovePosition(ctx context.Context, owner string, cellarID, index uint32, inDebtArray bool) error {
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	arr := cellar.Positions(inDebtArray)
	if int(index) >= len(*arr) {
		return types.ErrInvalidIndex.Wrapf("index %d, length %d", index, len(*arr))
	}
	positionID := (*arr)[index]
	if positionID == cellar.HoldingPosition {
		return types.ErrRemovingHoldingPosition.Wrapf("position %d", positionID)
	}
	ap, err := k.loadPosition(ctx, cellarID, positionID)
	if err != nil {
		return err
	}
	bal, err := ap.adaptor.BalanceOf(ctx, k.env(cellar, false), ap.AdaptorData)
	if err != nil {
		return err
	}
	if !bal.IsZero() {
		return types.ErrPositionNotEmpty.Wrapf("position %d holds %s", positionID, bal)
	}

	*arr = slices.Delete(*arr, int(index), int(index)+1)
	if err := k.CellarPositions.Remove(ctx, collections.Join(cellarID, positionID)); err != nil {
		return err
	}
	if err := k.SetCellar(ctx, cellar); err != nil {
		return err
	}
	return k.emit(ctx, types.EventPositionChanged{CellarID: cellarID, PositionID: positionID, Action: "remove", Index: int(index), Debt: inDebtArray})
}

// SwapPositions swaps two entries of a position array, changing the order user
// withdrawals drain credit positions in.
func (k *Keeper) SwapPositions(ctx context.Context, owner string, cellarID, index1, index2 uint32, inDebtArray bool) error {
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	arr := *cellar.Positions(inDebtArray)
	if int(index1) >= len(arr) || int(index2) >= len(arr) {
		return types.ErrInvalidIndex.Wrapf("indices %d and %d, length %d", index1, index2, len(arr))
	}
	arr[index1], arr[index2] = arr[index2], arr[index1]
	if err := k.SetCellar(ctx, cellar); err != nil {
		return err
	}
	return k.emit(ctx, types.EventPositionChanged{CellarID: cellarID, PositionID: arr[index1], Action: "swap", Index: int(index1), Debt: inDebtArray})
}

// SetHoldingPosition changes the credit position deposits are routed to.
func (k *Keeper) SetHoldingPosition(ctx context.Context, owner string, cellarID, positionID uint32) error {
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	if !slices.Contains(cellar.CreditPositions, positionID) {
		return types.ErrInvalidHoldingPosition.Wrapf("position %d is not a credit position of cellar %d", positionID, cellarID)
	}
	pos, err := k.GetPosition(ctx, positionID)
	if err != nil {
		return err
	}
	if err := k.requireAssetOf(ctx, pos, cellar.Asset); err != nil {
		return err
	}
	cellar.HoldingPosition = positionID
	return k.setConfig(ctx, cellar, "holding_position", strconv.FormatUint(uint64(positionID), 10))
}

// InitiateShutdown stops deposits and rebalances. Withdrawals stay open.
func (k *Keeper) InitiateShutdown(ctx context.Context, owner string, cellarID uint32) error {
	return k.setShutdown(ctx, owner, cellarID, true)
}

// LiftShutdown revives a shut down cellar.
func (k *Keeper) LiftShutdown(ctx context.Context, owner string, cellarID uint32) error {
	return k.setShutdown(ctx, owner, cellarID, false)
}

func (k *Keeper) setShutdown(ctx context.Context, owner string, cellarID uint32, shutdown bool) error {
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	switch {
	case shutdown && cellar.IsShutdown:
		return types.ErrShutdown.Wrapf("cellar %d", cellarID)
	case !shutdown && !cellar.IsShutdown:
		return types.ErrNotShutdown.Wrapf("cellar %d", cellarID)
	}
	cellar.IsShutdown = shutdown
	if err := k.SetCellar(ctx, cellar); err != nil {
		return err
	}
	k.getLogger(ctx).Info("cellar shutdown changed", "cellar_id", cellarID, "is_shutdown", shutdown)
	return k.emit(ctx, types.EventShutdownChanged{CellarID: cellarID, IsShutdown: shutdown})
}

// SetRebalanceDeviation changes the tolerance of strategist batches.
func (k *Keeper) SetRebalanceDeviation(ctx context.Context, owner string, cellarID uint32, deviation sdkmath.LegacyDec) error {
	if err := types.ValidateRebalanceDeviation(deviation); err != nil {
		return types.ErrInvalidRebalanceDeviation.Wrap(err.Error())
	}
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	cellar.AllowedRebalanceDeviation = deviation
	return k.setConfig(ctx, cellar, "rebalance_deviation", deviation.String())
}

// SetShareLockPeriod changes the share lock, in blocks.
func (k *Keeper) SetShareLockPeriod(ctx context.Context, owner string, cellarID uint32, blocks int64) error {
	if blocks < 0 || blocks > types.MaxShareLockPeriod {
		return types.ErrInvalidShareLockPeriod.Wrapf("%d not in [0, %d]", blocks, types.MaxShareLockPeriod)
	}
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	cellar.ShareLockPeriod = blocks
	return k.setConfig(ctx, cellar, "share_lock_period", strconv.FormatInt(blocks, 10))
}

// SetShareSupplyCap changes the share supply cap. Zero removes the cap.
func (k *Keeper) SetShareSupplyCap(ctx context.Context, owner string, cellarID uint32, limit sdkmath.Int) error {
	if limit.IsNil() || limit.IsNegative() {
		return types.ErrInvalidRequest.Wrap("share supply cap cannot be negative")
	}
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	cellar.ShareSupplyCap = limit
	return k.setConfig(ctx, cellar, "share_supply_cap", limit.String())
}

// SetFeeData changes fee rates and cuts. Fees owed under the old rates are
// accrued first.
func (k *Keeper) SetFeeData(ctx context.Context, msg types.MsgSetFeeData) error {
	if _, err := k.ownedCellar(ctx, msg.Owner, msg.CellarID); err != nil {
		return err
	}
	return runtime.Atomic(ctx, func(ctx context.Context) error {
		if _, err := k.SendFees(ctx, msg.CellarID); err != nil {
			return err
		}
		cellar, err := k.GetCellar(ctx, msg.CellarID)
		if err != nil {
			return err
		}
		fd := cellar.FeeData
		fd.PlatformFee = msg.PlatformFee
		fd.PerformanceFee = msg.PerformanceFee
		fd.StrategistPlatformCut = msg.StrategistPlatformCut
		fd.StrategistPerformanceCut = msg.StrategistPerformanceCut
		if err := fd.Validate(); err != nil {
			return types.ErrInvalidFee.Wrap(err.Error())
		}
		cellar.FeeData = fd
		return k.setConfig(ctx, cellar, "fee_data", fmt.Sprintf("platform=%s performance=%s", fd.PlatformFee, fd.PerformanceFee))
	})
}

// SetStrategistPayoutAddress changes where strategist fee shares are minted.
func (k *Keeper) SetStrategistPayoutAddress(ctx context.Context, owner string, cellarID uint32, payout string) error {
	cellar, err := k.ownedCellar(ctx, owner, cellarID)
	if err != nil {
		return err
	}
	cellar.FeeData.StrategistPayoutAddress = payout
	return k.setConfig(ctx, cellar, "strategist_payout_address", payout)
}

func (k *Keeper) setConfig(ctx context.Context, cellar types.Cellar, setting, value string) error {
	if err := k.SetCellar(ctx, cellar); err != nil {
		return err
	}
	return k.emit(ctx, types.EventCellarConfigChanged{CellarID: cellar.ID, Setting: setting, Value: value})
}

// AddAdaptorToCatalogue lets the strategist call a trusted adaptor, limited to
// the listed commands when any are given.
func (k *Keeper) AddAdaptorToCatalogue(ctx context.Context, owner string, cellarID uint32, entry types.AdaptorCatalogueEntry) error {
	if _, err := k.ownedCellar(ctx, owner, cellarID); err != nil {
		return err
	}
	trusted, err := k.TrustedAdaptors.Has(ctx, entry.Adaptor)
	if err != nil {
		return err
	}
	if !trusted {
		return types.ErrAdaptorNotTrusted.Wrap(entry.Adaptor)
	}
	if err := k.AdaptorCatalogue.Set(ctx, collections.Join(cellarID, entry.Adaptor), entry); err != nil {
		return err
	}
	return k.emit(ctx, types.EventCatalogueChanged{CellarID: cellarID, Adaptor: entry.Adaptor})
}

// AddPositionToCatalogue lets the owner add a trusted position to the cellar.
func (k *Keeper) AddPositionToCatalogue(ctx context.Context, owner string, cellarID, positionID uint32) error {
	if _, err := k.ownedCellar(ctx, owner, cellarID); err != nil {
		return err
	}
	pos, err := k.GetPosition(ctx, positionID)
	if err != nil {
		return err
	}
	if !pos.Trusted {
		return types.ErrPositionNotTrusted.Wrapf("position %d", positionID)
	}
	if err := k.PositionCatalogue.Set(ctx, collections.Join(cellarID, positionID)); err != nil {
		return err
	}
	return k.emit(ctx, types.EventCatalogueChanged{CellarID: cellarID, PositionID: positionID})
}

// UpdateParams replaces the module parameters.
func (k *Keeper) UpdateParams(ctx context.Context, authority string, params types.Params) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return types.ErrInvalidRequest.Wrap(err.Error())
	}
	old, err := k.Params.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get params: %w", err)
	}
	if err := k.Params.Set(ctx, params); err != nil {
		return err
	}
	if old.FeeAccrualPeriod == params.FeeAccrualPeriod {
		return nil
	}

	// Pending accruals were scheduled with the old period.
	cellars, err := k.GetCellars(ctx)
	if err != nil {
		return err
	}
	for _, c := range cellars {
		if err := k.FeeAccrualQueue.RemoveAllForCellar(ctx, c.ID); err != nil {
			return err
		}
		if err := k.scheduleFeeAccrual(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}
