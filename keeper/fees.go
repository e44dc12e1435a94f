package keeper

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/interest"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
	"github.com/provlabs/cellar/utils"
)

// FeeAccrual is the outcome of one fee accrual.
type FeeAccrual struct {
	PlatformFees     sdkmath.Int
	PerformanceFees  sdkmath.Int
	StrategistShares sdkmath.Int
	TreasuryShares   sdkmath.Int
}

// SendFees accrues the platform fee for the time since the last accrual and
// the performance fee on share price gains above the high-water mark. Fees
// are paid by minting shares, so total assets do not change.
func (k *Keeper) SendFees(ctx context.Context, cellarID uint32) (FeeAccrual, error) {
	var accrual FeeAccrual
	err := runtime.Atomic(ctx, func(ctx context.Context) error {
		cellar, err := k.GetCellar(ctx, cellarID)
		if err != nil {
			return err
		}
		params, err := k.Params.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to get params: %w", err)
		}
		ta, supply, err := k.totals(ctx, cellar)
		if err != nil {
			return err
		}

		now := k.blockTime(ctx)
		fd := &cellar.FeeData
		accrual = computeFees(*fd, ta, supply, now)
		fees := accrual.PlatformFees.Add(accrual.PerformanceFees)

		if fees.IsPositive() {
			if fees.GTE(ta) {
				return types.ErrInsufficientAssetsForFee.Wrapf("fees %s, total assets %s", fees, ta)
			}
			feeShares := utils.MulDivDown(fees, supply, ta.Sub(fees))
			platformShares := utils.MulDivDown(feeShares, accrual.PlatformFees, fees)
			performanceShares := feeShares.Sub(platformShares)
			accrual.StrategistShares = utils.MulDec(platformShares, fd.StrategistPlatformCut, utils.Floor).
				Add(utils.MulDec(performanceShares, fd.StrategistPerformanceCut, utils.Floor))
			accrual.TreasuryShares = feeShares.Sub(accrual.StrategistShares)

			if err := k.mintFeeShares(ctx, cellar, fd.StrategistPayoutAddress, accrual.StrategistShares); err != nil {
				return err
			}
			if err := k.mintFeeShares(ctx, cellar, params.Treasury, accrual.TreasuryShares); err != nil {
				return err
			}
		}

		if price := utils.SharePrice(ta, supply); price.GT(fd.HighWatermark) {
			fd.HighWatermark = price
		}
		fd.LastAccrual = now
		if err := k.SetCellar(ctx, cellar); err != nil {
			return err
		}

		k.metrics.FeeAccruals.WithLabelValues(cellarLabel(cellarID)).Inc()
		return k.emit(ctx, types.EventFeesAccrued{
			CellarID:         cellarID,
			PlatformFees:     accrual.PlatformFees,
			PerformanceFees:  accrual.PerformanceFees,
			StrategistShares: accrual.StrategistShares,
			TreasuryShares:   accrual.TreasuryShares,
		})
	})
	return accrual, err
}

// computeFees returns the fees owed in base asset units. Share amounts are
// left zero.
func computeFees(fd types.FeeData, totalAssets, supply sdkmath.Int, now int64) FeeAccrual {
	out := FeeAccrual{
		PlatformFees:     sdkmath.ZeroInt(),
		PerformanceFees:  sdkmath.ZeroInt(),
		StrategistShares: sdkmath.ZeroInt(),
		TreasuryShares:   sdkmath.ZeroInt(),
	}
	if supply.IsZero() {
		return out
	}
	if elapsed := now - fd.LastAccrual; fd.LastAccrual > 0 && elapsed > 0 && fd.PlatformFee.IsPositive() {
		annual := utils.MulDec(totalAssets, fd.PlatformFee, utils.Floor)
		out.PlatformFees = utils.MulDivDown(annual, sdkmath.NewInt(elapsed), sdkmath.NewInt(interest.SecondsPerYear))
	}
	price := utils.SharePrice(totalAssets, supply)
	if fd.PerformanceFee.IsPositive() && price.GT(fd.HighWatermark) {
		gain := price.Sub(fd.HighWatermark).MulInt(supply).QuoInt(utils.ShareScalar)
		out.PerformanceFees = gain.Mul(fd.PerformanceFee).TruncateInt()
	}
	return out
}

func (k *Keeper) mintFeeShares(ctx context.Context, cellar types.Cellar, to string, shares sdkmath.Int) error {
	if !shares.IsPositive() {
		return nil
	}
	if err := k.BankKeeper.Mint(ctx, to, cellar.ShareDenom, shares); err != nil {
		return fmt.Errorf("failed to mint fee shares to %s: %w", to, err)
	}
	return nil
}

// SettleFees redeems a fee payee's shares against the holding position only.
// When the holding position cannot cover the payout nothing changes and
// ErrInsufficientAssetsForFee reports what was needed and available.
func (k *Keeper) SettleFees(ctx context.Context, payee string, cellarID uint32, shares sdkmath.Int) (sdkmath.Int, error) {
	var assets sdkmath.Int
	err := runtime.Atomic(ctx, func(ctx context.Context) error {
		cellar, err := k.GetCellar(ctx, cellarID)
		if err != nil {
			return err
		}
		params, err := k.Params.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to get params: %w", err)
		}
		if payee != cellar.FeeData.StrategistPayoutAddress && payee != params.Treasury {
			return types.ErrUnauthorized.Wrapf("%s is not a fee payee of cellar %d", payee, cellarID)
		}
		if err := k.requireShares(ctx, cellar, payee, shares); err != nil {
			return err
		}
		if assets, err = k.PreviewRedeem(ctx, cellarID, shares); err != nil {
			return err
		}
		if assets.IsZero() {
			return types.ErrZeroAssets.Wrapf("settle of %s shares", shares)
		}

		holding, err := k.loadPosition(ctx, cellarID, cellar.HoldingPosition)
		if err != nil {
			return err
		}
		env := k.env(cellar, false)
		available, err := holding.adaptor.WithdrawableFrom(ctx, env, holding.AdaptorData, holding.ConfigData)
		if err != nil {
			return err
		}
		if available.LT(assets) {
			return types.ErrInsufficientAssetsForFee.Wrapf("needed %s, available %s", assets, available)
		}

		if err := k.BankKeeper.Burn(ctx, payee, cellar.ShareDenom, shares); err != nil {
			return fmt.Errorf("failed to burn fee shares: %w", err)
		}
		if err := holding.adaptor.Withdraw(ctx, env, types.Exact(assets), payee, holding.AdaptorData, holding.ConfigData); err != nil {
			return err
		}
		return k.emit(ctx, types.EventFeesSettled{CellarID: cellarID, Payee: payee, Shares: shares, Assets: assets})
	})
	return assets, err
}
