package keeper

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
	"github.com/provlabs/cellar/utils"
)

// totals returns the cellar's total assets and total share supply.
func (k *Keeper) totals(ctx context.Context, cellar types.Cellar) (assets, shares sdkmath.Int, err error) {
	assets, err = k.totalAssets(ctx, cellar)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	shares, err = k.BankKeeper.GetSupply(ctx, cellar.ShareDenom)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("failed to get share supply: %w", err)
	}
	return assets, shares, nil
}

// preview converts between assets and shares at the cellar's current totals.
func (k *Keeper) preview(ctx context.Context, cellarID uint32, amount sdkmath.Int, toShares bool, rounding utils.Rounding) (sdkmath.Int, error) {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	ta, ts, err := k.totals(ctx, cellar)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if toShares {
		return utils.ConvertToShares(amount, ta, ts, rounding)
	}
	return utils.ConvertToAssets(amount, ts, ta, rounding)
}

// PreviewDeposit returns the shares a deposit of assets mints.
func (k *Keeper) PreviewDeposit(ctx context.Context, cellarID uint32, assets sdkmath.Int) (sdkmath.Int, error) {
	return k.preview(ctx, cellarID, assets, true, utils.Floor)
}

// PreviewMint returns the assets charged for minting shares.
func (k *Keeper) PreviewMint(ctx context.Context, cellarID uint32, shares sdkmath.Int) (sdkmath.Int, error) {
	return k.preview(ctx, cellarID, shares, false, utils.Ceil)
}

// PreviewWithdraw returns the shares burned to withdraw assets.
func (k *Keeper) PreviewWithdraw(ctx context.Context, cellarID uint32, assets sdkmath.Int) (sdkmath.Int, error) {
	return k.preview(ctx, cellarID, assets, true, utils.Ceil)
}

// PreviewRedeem returns the assets paid for redeeming shares.
func (k *Keeper) PreviewRedeem(ctx context.Context, cellarID uint32, shares sdkmath.Int) (sdkmath.Int, error) {
	return k.preview(ctx, cellarID, shares, false, utils.Floor)
}

// Deposit moves assets from depositor into the cellar and mints shares to
// receiver.
func (k *Keeper) Deposit(ctx context.Context, depositor string, cellarID uint32, assets sdkmath.Int, receiver string) (sdkmath.Int, error) {
	var shares sdkmath.Int
	err := runtime.Atomic(ctx, func(ctx context.Context) error {
		cellar, err := k.GetCellar(ctx, cellarID)
		if err != nil {
			return err
		}
		if err := checkDepositOnBehalf(cellar, depositor, receiver); err != nil {
			return err
		}
		if cellar.IsShutdown {
			return types.ErrShutdown.Wrapf("cellar %d", cellarID)
		}
		if shares, err = k.PreviewDeposit(ctx, cellarID, assets); err != nil {
			return err
		}
		if shares.IsZero() {
			return types.ErrZeroShares.Wrapf("deposit of %s", assets)
		}
		return k.enter(ctx, cellar, depositor, receiver, assets, shares)
	})
	return shares, err
}

// Mint mints exactly shares to receiver, charging depositor the assets they
// are worth rounded up.
func (k *Keeper) Mint(ctx context.Context, depositor string, cellarID uint32, shares sdkmath.Int, receiver string) (sdkmath.Int, error) {
	var assets sdkmath.Int
	err := runtime.Atomic(ctx, func(ctx context.Context) error {
		cellar, err := k.GetCellar(ctx, cellarID)
		if err != nil {
			return err
		}
		if err := checkDepositOnBehalf(cellar, depositor, receiver); err != nil {
			return err
		}
		if cellar.IsShutdown {
			return types.ErrShutdown.Wrapf("cellar %d", cellarID)
		}
		if assets, err = k.PreviewMint(ctx, cellarID, shares); err != nil {
			return err
		}
		if assets.IsZero() {
			return types.ErrZeroAssets.Wrapf("mint of %s shares", shares)
		}
		return k.enter(ctx, cellar, depositor, receiver, assets, shares)
	})
	return assets, err
}

// checkDepositOnBehalf rejects minting shares to someone else while the cellar
// locks shares: every deposit restarts the receiver's lock.
func checkDepositOnBehalf(cellar types.Cellar, depositor, receiver string) error {
	if cellar.ShareLockPeriod > 0 && depositor != receiver {
		return types.ErrDepositOnBehalfNotAllowed.Wrapf("%s cannot deposit for %s while cellar %d locks shares for %d blocks", depositor, receiver, cellar.ID, cellar.ShareLockPeriod)
	}
	return nil
}

// enter settles a deposit: assets go to the holder and then into the holding
// position, shares go to receiver and restart its share lock.
func (k *Keeper) enter(ctx context.Context, cellar types.Cellar, depositor, receiver string, assets, shares sdkmath.Int) error {
	if cellar.ShareSupplyCap.IsPositive() {
		supply, err := k.BankKeeper.GetSupply(ctx, cellar.ShareDenom)
		if err != nil {
			return err
		}
		if supply.Add(shares).GT(cellar.ShareSupplyCap) {
			return types.ErrShareSupplyCapExceeded.Wrapf("supply %s + %s exceeds cap %s", supply, shares, cellar.ShareSupplyCap)
		}
	}

	holding, err := k.loadPosition(ctx, cellar.ID, cellar.HoldingPosition)
	if err != nil {
		return err
	}
	if !holding.Trusted {
		return types.ErrPositionNotTrusted.Wrapf("holding position %d", holding.ID)
	}

	if err := k.BankKeeper.Send(ctx, depositor, cellar.Holder, cellar.Asset, assets); err != nil {
		return fmt.Errorf("failed to collect deposit: %w", err)
	}
	if err := k.BankKeeper.Mint(ctx, receiver, cellar.ShareDenom, shares); err != nil {
		return fmt.Errorf("failed to mint shares: %w", err)
	}
	if err := k.ShareLocks.Set(ctx, shareLockKey(cellar.ID, receiver), k.blockHeight(ctx)); err != nil {
		return err
	}
	if err := holding.adaptor.Deposit(ctx, k.env(cellar, false), assets, holding.AdaptorData, holding.ConfigData); err != nil {
		return fmt.Errorf("failed to deposit into holding position %d: %w", holding.ID, err)
	}

	k.metrics.Deposits.WithLabelValues(cellarLabel(cellar.ID)).Inc()
	k.getLogger(ctx).Debug("deposit", "cellar_id", cellar.ID, "receiver", receiver, "assets", assets.String(), "shares", shares.String())
	return k.emit(ctx, types.NewEventDeposit(cellar.ID, depositor, receiver, assets, shares))
}

// Withdraw pays exactly assets to receiver, burning owner's shares rounded up.
func (k *Keeper) Withdraw(ctx context.Context, cellarID uint32, assets sdkmath.Int, receiver, owner string) (sdkmath.Int, error) {
	var shares sdkmath.Int
	err := runtime.Atomic(ctx, func(ctx context.Context) error {
		cellar, err := k.GetCellar(ctx, cellarID)
		if err != nil {
			return err
		}
		if shares, err = k.PreviewWithdraw(ctx, cellarID, assets); err != nil {
			return err
		}
		if shares.IsZero() {
			return types.ErrZeroShares.Wrapf("withdraw of %s", assets)
		}
		return k.exit(ctx, cellar, owner, receiver, assets, shares)
	})
	return shares, err
}

// Redeem burns exactly shares of owner and pays the assets they are worth,
// rounded down, to receiver.
func (k *Keeper) Redeem(ctx context.Context, cellarID uint32, shares sdkmath.Int, receiver, owner string) (sdkmath.Int, error) {
	var assets sdkmath.Int
	err := runtime.Atomic(ctx, func(ctx context.Context) error {
		cellar, err := k.GetCellar(ctx, cellarID)
		if err != nil {
			return err
		}
		if assets, err = k.PreviewRedeem(ctx, cellarID, shares); err != nil {
			return err
		}
		if assets.IsZero() {
			return types.ErrZeroAssets.Wrapf("redeem of %s shares", shares)
		}
		return k.exit(ctx, cellar, owner, receiver, assets, shares)
	})
	return assets, err
}

func (k *Keeper) exit(ctx context.Context, cellar types.Cellar, owner, receiver string, assets, shares sdkmath.Int) error {
	if err := k.checkShareLock(ctx, cellar, owner); err != nil {
		return err
	}
	if err := k.requireShares(ctx, cellar, owner, shares); err != nil {
		return err
	}
	if err := k.BankKeeper.Burn(ctx, owner, cellar.ShareDenom, shares); err != nil {
		return fmt.Errorf("failed to burn shares: %w", err)
	}
	if err := k.withdrawInOrder(ctx, cellar, assets, receiver); err != nil {
		return err
	}

	k.metrics.Withdrawals.WithLabelValues(cellarLabel(cellar.ID)).Inc()
	k.getLogger(ctx).Debug("withdraw", "cellar_id", cellar.ID, "owner", owner, "assets", assets.String(), "shares", shares.String())
	return k.emit(ctx, types.NewEventWithdraw(cellar.ID, owner, receiver, assets, shares))
}

func (k *Keeper) requireShares(ctx context.Context, cellar types.Cellar, owner string, shares sdkmath.Int) error {
	bal, err := k.BankKeeper.GetBalance(ctx, owner, cellar.ShareDenom)
	if err != nil {
		return err
	}
	if bal.LT(shares) {
		return types.ErrInsufficientShares.Wrapf("%s holds %s, needs %s", owner, bal, shares)
	}
	return nil
}

// checkShareLock fails while owner's last received shares are still locked.
func (k *Keeper) checkShareLock(ctx context.Context, cellar types.Cellar, owner string) error {
	locked, unlock, err := k.isLocked(ctx, cellar, owner)
	if err != nil {
		return err
	}
	if locked {
		return types.ErrSharesAreLocked.Wrapf("%s shares unlock at height %d", owner, unlock)
	}
	return nil
}

func (k *Keeper) isLocked(ctx context.Context, cellar types.Cellar, owner string) (bool, int64, error) {
	start, ok, err := k.shareLockStart(ctx, cellar.ID, owner)
	if err != nil || !ok {
		return false, 0, err
	}
	unlock := start + cellar.ShareLockPeriod
	return k.blockHeight(ctx) < unlock, unlock, nil
}

// MaxWithdraw returns the assets owner can withdraw now: the value of its
// shares bounded by the cellar's withdrawable assets, zero while locked.
func (k *Keeper) MaxWithdraw(ctx context.Context, cellarID uint32, owner string) (sdkmath.Int, error) {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	locked, _, err := k.isLocked(ctx, cellar, owner)
	if err != nil || locked {
		return sdkmath.ZeroInt(), err
	}
	bal, err := k.BankKeeper.GetBalance(ctx, owner, cellar.ShareDenom)
	if err != nil || bal.IsZero() {
		return sdkmath.ZeroInt(), err
	}
	ta, ts, err := k.totals(ctx, cellar)
	if err != nil {
		return sdkmath.Int{}, err
	}
	value, err := utils.ConvertToAssets(bal, ts, ta, utils.Floor)
	if err != nil {
		return sdkmath.Int{}, err
	}
	withdrawable, err := k.totalAssetsWithdrawable(ctx, cellar)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return sdkmath.MinInt(value, withdrawable), nil
}

// MaxRedeem returns the shares owner can redeem now.
func (k *Keeper) MaxRedeem(ctx context.Context, cellarID uint32, owner string) (sdkmath.Int, error) {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	locked, _, err := k.isLocked(ctx, cellar, owner)
	if err != nil || locked {
		return sdkmath.ZeroInt(), err
	}
	bal, err := k.BankKeeper.GetBalance(ctx, owner, cellar.ShareDenom)
	if err != nil || bal.IsZero() {
		return sdkmath.ZeroInt(), err
	}
	ta, ts, err := k.totals(ctx, cellar)
	if err != nil {
		return sdkmath.Int{}, err
	}
	value, err := utils.ConvertToAssets(bal, ts, ta, utils.Floor)
	if err != nil {
		return sdkmath.Int{}, err
	}
	withdrawable, err := k.totalAssetsWithdrawable(ctx, cellar)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if value.LTE(withdrawable) {
		return bal, nil
	}
	return utils.ConvertToShares(withdrawable, ta, ts, utils.Floor)
}

// TransferShares moves unlocked shares from one owner to another.
func (k *Keeper) TransferShares(ctx context.Context, from, to string, cellarID uint32, shares sdkmath.Int) error {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return err
	}
	if err := k.checkShareLock(ctx, cellar, from); err != nil {
		return err
	}
	if err := k.requireShares(ctx, cellar, from, shares); err != nil {
		return err
	}
	return k.BankKeeper.Send(ctx, from, to, cellar.ShareDenom, shares)
}
