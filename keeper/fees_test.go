package keeper_test

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/interest"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

const year = time.Duration(interest.SecondsPerYear) * time.Second

// createFeeCellar creates a usdc cellar charging the given rates. The
// strategist keeps a quarter of platform fees and half of performance fees.
func (s *TestSuite) createFeeCellar(platform, performance sdkmath.LegacyDec) uint32 {
	msg := s.createCellarMsg()
	msg.FeeData.PlatformFee = platform
	msg.FeeData.PerformanceFee = performance
	msg.FeeData.StrategistPlatformCut = sdkmath.LegacyNewDecWithPrec(25, 2)
	msg.FeeData.StrategistPerformanceCut = sdkmath.LegacyNewDecWithPrec(5, 1)
	return s.createCellarWith(msg)
}

func (s *TestSuite) TestSendFeesPlatform() {
	id := s.createFeeCellar(sdkmath.LegacyNewDecWithPrec(1, 1), sdkmath.LegacyZeroDec())
	denom := types.GetShareDenom(id)
	s.nextBlock(year)

	accrual, err := s.k.SendFees(s.ctx, id)
	s.Require().NoError(err, "SendFees")
	s.Assert().Equal("100000", accrual.PlatformFees.String(), "a year of a 10% platform fee")
	s.Assert().True(accrual.PerformanceFees.IsZero(), "no performance fee, got %s", accrual.PerformanceFees)

	// 1e5 of 1e6 assets is paid by minting 1e12 * 1e5 / 9e5 shares.
	s.Assert().Equal("27777777777", accrual.StrategistShares.String(), "strategist shares")
	s.Assert().Equal("83333333334", accrual.TreasuryShares.String(), "treasury shares")
	s.assertBalance(strategist, denom, accrual.StrategistShares)
	s.assertBalance(types.DefaultTreasury, denom, accrual.TreasuryShares)
	s.Assert().Equal(initialDeposit.String(), s.totalAssets(id).String(), "fees do not move assets")
	s.Assert().Equal(runtime.HeaderInfo(s.ctx).Time.Unix(), s.getCellar(id).FeeData.LastAccrual, "last accrual")
	ev := s.requireEvent(types.EventTypeFeesAccrued)
	got, _ := ev.Attribute("platform_fees")
	s.Assert().Equal("100000", got, "event platform fees")

	again, err := s.k.SendFees(s.ctx, id)
	s.Require().NoError(err, "SendFees again")
	s.Assert().True(again.PlatformFees.IsZero(), "nothing accrues within the same block, got %s", again.PlatformFees)
	s.assertBalance(strategist, denom, accrual.StrategistShares)
}

func (s *TestSuite) TestSendFeesPerformance() {
	id := s.createFeeCellar(sdkmath.LegacyZeroDec(), sdkmath.LegacyNewDecWithPrec(2, 1))
	denom := types.GetShareDenom(id)
	supply := s.supply(denom)

	accrual, err := s.k.SendFees(s.ctx, id)
	s.Require().NoError(err, "SendFees without gains")
	s.Assert().True(accrual.PerformanceFees.IsZero(), "no gains, got %s", accrual.PerformanceFees)

	// Doubling the assets doubles the share price.
	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, bob, s.getCellar(id).Holder, simapp.USDC, initialDeposit), "donate usdc")
	accrual, err = s.k.SendFees(s.ctx, id)
	s.Require().NoError(err, "SendFees")
	s.Assert().True(accrual.PerformanceFees.GT(sdkmath.NewInt(199_990)), "performance fee is 20%% of the gain, got %s", accrual.PerformanceFees)
	s.Assert().True(accrual.PerformanceFees.LTE(sdkmath.NewInt(200_000)), "performance fee is 20%% of the gain, got %s", accrual.PerformanceFees)

	minted := s.supply(denom).Sub(supply)
	s.Assert().Equal(minted.String(), accrual.StrategistShares.Add(accrual.TreasuryShares).String(), "fee shares")
	s.Assert().True(accrual.TreasuryShares.Sub(accrual.StrategistShares).Abs().LTE(sdkmath.OneInt()), "even split, strategist %s treasury %s", accrual.StrategistShares, accrual.TreasuryShares)

	hwm := s.getCellar(id).FeeData.HighWatermark
	s.Assert().True(hwm.GT(sdkmath.LegacyNewDec(1)), "high-water mark raised, got %s", hwm)

	again, err := s.k.SendFees(s.ctx, id)
	s.Require().NoError(err, "SendFees at the high-water mark")
	s.Assert().True(again.PerformanceFees.IsZero(), "gains are charged once, got %s", again.PerformanceFees)
}

func (s *TestSuite) TestSettleFees() {
	id := s.createFeeCellar(sdkmath.LegacyNewDecWithPrec(1, 1), sdkmath.LegacyZeroDec())
	denom := types.GetShareDenom(id)
	s.nextBlock(year)
	accrual, err := s.k.SendFees(s.ctx, id)
	s.Require().NoError(err, "SendFees")

	_, err = s.k.SettleFees(s.ctx, alice, id, sdkmath.NewInt(1))
	s.Require().ErrorIs(err, types.ErrUnauthorized, "alice is not a fee payee")
	_, err = s.k.SettleFees(s.ctx, strategist, id, accrual.StrategistShares.AddRaw(1))
	s.Require().ErrorIs(err, types.ErrInsufficientShares, "settle more than accrued")

	expected, err := s.k.PreviewRedeem(s.ctx, id, accrual.TreasuryShares)
	s.Require().NoError(err, "PreviewRedeem")
	assets, err := s.k.SettleFees(s.ctx, types.DefaultTreasury, id, accrual.TreasuryShares)
	s.Require().NoError(err, "SettleFees treasury")
	s.Assert().Equal(expected.String(), assets.String(), "settled assets")
	s.assertBalance(types.DefaultTreasury, simapp.USDC, assets)
	s.assertBalance(types.DefaultTreasury, denom, sdkmath.ZeroInt())
	s.requireEvent(types.EventTypeFeesSettled)

	// With the holding position emptied the strategist cannot be paid.
	s.addPosition(id, simapp.PositionCUSDC, nil)
	s.catalogueAdaptor(id, adaptors.CTokenID)
	s.supplyToCompound(id)
	_, err = s.k.SettleFees(s.ctx, strategist, id, accrual.StrategistShares)
	s.Require().ErrorIs(err, types.ErrInsufficientAssetsForFee, "holding position is empty")
	s.assertBalance(strategist, denom, accrual.StrategistShares)
}

func (s *TestSuite) TestSetFeeData() {
	id := s.createFeeCellar(sdkmath.LegacyNewDecWithPrec(1, 1), sdkmath.LegacyZeroDec())
	s.nextBlock(year)

	msg := types.MsgSetFeeData{
		Owner:                    owner,
		CellarID:                 id,
		PlatformFee:              sdkmath.LegacyZeroDec(),
		PerformanceFee:           sdkmath.LegacyZeroDec(),
		StrategistPlatformCut:    sdkmath.LegacyZeroDec(),
		StrategistPerformanceCut: sdkmath.LegacyZeroDec(),
	}

	bad := msg
	bad.PlatformFee = sdkmath.LegacyNewDecWithPrec(3, 1)
	s.Require().ErrorIs(s.k.SetFeeData(s.ctx, bad), types.ErrInvalidFee, "platform fee above the maximum")
	s.assertBalance(types.DefaultTreasury, types.GetShareDenom(id), sdkmath.ZeroInt())

	bad = msg
	bad.Owner = strategist
	s.Require().ErrorIs(s.k.SetFeeData(s.ctx, bad), types.ErrUnauthorized, "not the owner")

	s.Require().NoError(s.k.SetFeeData(s.ctx, msg), "SetFeeData")
	s.Assert().True(s.balance(types.DefaultTreasury, types.GetShareDenom(id)).IsPositive(), "fees owed under the old rate were accrued")
	s.Assert().True(s.getCellar(id).FeeData.PlatformFee.IsZero(), "new platform fee")

	s.nextBlock(year)
	accrual, err := s.k.SendFees(s.ctx, id)
	s.Require().NoError(err, "SendFees")
	s.Assert().True(accrual.PlatformFees.IsZero(), "no fee under the new rate, got %s", accrual.PlatformFees)
}
