package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

func (s *TestSuite) TestAddPosition() {
	id := s.createCellar()
	s.Require().NoError(s.k.AddPositionToCatalogue(s.ctx, owner, id, simapp.PositionUSDT), "catalogue usdt")
	s.Require().NoError(s.k.AddPositionToCatalogue(s.ctx, owner, id, simapp.PositionFraxDebt), "catalogue debt")

	tests := []struct {
		name        string
		owner       string
		index       uint32
		position    uint32
		inDebt      bool
		expectedErr error
	}{
		{name: "not the owner", owner: strategist, index: 1, position: simapp.PositionUSDT, expectedErr: types.ErrUnauthorized},
		{name: "not catalogued", owner: owner, index: 1, position: simapp.PositionWETH, expectedErr: types.ErrPositionNotInCatalogue},
		{name: "already used", owner: owner, index: 1, position: simapp.PositionUSDC, expectedErr: types.ErrPositionAlreadyUsed},
		{name: "credit position in debt array", owner: owner, index: 0, position: simapp.PositionUSDT, inDebt: true, expectedErr: types.ErrDebtMismatch},
		{name: "debt position in credit array", owner: owner, index: 1, position: simapp.PositionFraxDebt, expectedErr: types.ErrDebtMismatch},
		{name: "index past the end", owner: owner, index: 2, position: simapp.PositionUSDT, expectedErr: types.ErrInvalidIndex},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			err := s.k.AddPosition(s.ctx, tc.owner, id, tc.index, tc.position, nil, tc.inDebt)
			s.Require().ErrorIs(err, tc.expectedErr, "expected error for case %q", tc.name)
		})
	}

	s.Require().NoError(s.k.AddPosition(s.ctx, owner, id, 0, simapp.PositionUSDT, nil, false), "AddPosition at the front")
	s.Require().NoError(s.k.AddPosition(s.ctx, owner, id, 0, simapp.PositionFraxDebt, nil, true), "AddPosition debt")
	cellar := s.getCellar(id)
	s.Assert().Equal([]uint32{simapp.PositionUSDT, simapp.PositionUSDC}, cellar.CreditPositions, "credit positions")
	s.Assert().Equal([]uint32{simapp.PositionFraxDebt}, cellar.DebtPositions, "debt positions")

	ev := s.requireEvent(types.EventTypePositionChanged)
	action, _ := ev.Attribute("action")
	s.Assert().Equal("add", action, "event action")
}

func (s *TestSuite) TestRemovePosition() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionUSDT, nil)
	holder := s.getCellar(id).Holder

	err := s.k.RemovePosition(s.ctx, owner, id, 0, false)
	s.Require().ErrorIs(err, types.ErrRemovingHoldingPosition, "holding position")
	err = s.k.RemovePosition(s.ctx, owner, id, 5, false)
	s.Require().ErrorIs(err, types.ErrInvalidIndex, "index out of range")
	err = s.k.RemovePosition(s.ctx, alice, id, 1, false)
	s.Require().ErrorIs(err, types.ErrUnauthorized, "not the owner")

	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, bob, holder, simapp.USDT, sdkmath.NewInt(5)), "donate usdt")
	err = s.k.RemovePosition(s.ctx, owner, id, 1, false)
	s.Require().ErrorIs(err, types.ErrPositionNotEmpty, "position with a balance")

	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, holder, bob, simapp.USDT, sdkmath.NewInt(5)), "return usdt")
	s.Require().NoError(s.k.RemovePosition(s.ctx, owner, id, 1, false), "RemovePosition")
	s.Assert().Equal([]uint32{simapp.PositionUSDC}, s.getCellar(id).CreditPositions, "credit positions")

	// The position stays catalogued and can come back.
	s.Require().NoError(s.k.AddPosition(s.ctx, owner, id, 1, simapp.PositionUSDT, nil, false), "re-add")
}

func (s *TestSuite) TestSwapPositions() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionUSDT, nil)
	s.addPosition(id, simapp.PositionWETH, nil)

	err := s.k.SwapPositions(s.ctx, owner, id, 0, 3, false)
	s.Require().ErrorIs(err, types.ErrInvalidIndex, "index out of range")
	err = s.k.SwapPositions(s.ctx, owner, id, 0, 0, true)
	s.Require().ErrorIs(err, types.ErrInvalidIndex, "empty debt array")

	s.Require().NoError(s.k.SwapPositions(s.ctx, owner, id, 0, 2, false), "SwapPositions")
	cellar := s.getCellar(id)
	s.Assert().Equal([]uint32{simapp.PositionWETH, simapp.PositionUSDT, simapp.PositionUSDC}, cellar.CreditPositions, "credit positions")
	s.Assert().Equal(uint32(simapp.PositionUSDC), cellar.HoldingPosition, "holding position is unchanged")
}

func (s *TestSuite) TestSetHoldingPosition() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionUSDT, nil)
	s.addPosition(id, simapp.PositionCUSDC, nil)

	err := s.k.SetHoldingPosition(s.ctx, owner, id, simapp.PositionWETH)
	s.Require().ErrorIs(err, types.ErrInvalidHoldingPosition, "position not held by the cellar")
	err = s.k.SetHoldingPosition(s.ctx, owner, id, simapp.PositionUSDT)
	s.Require().ErrorIs(err, types.ErrAssetMismatch, "position in another asset")

	s.Require().NoError(s.k.SetHoldingPosition(s.ctx, owner, id, simapp.PositionCUSDC), "SetHoldingPosition")
	s.Assert().Equal(uint32(simapp.PositionCUSDC), s.getCellar(id).HoldingPosition, "holding position")

	// Deposits are now supplied to compound.
	s.deposit(id, alice, sdkmath.NewInt(1_000_000))
	s.assertBalance(s.getCellar(id).Holder, simapp.USDC, initialDeposit)
	s.Assert().True(s.totalAssets(id).GTE(sdkmath.NewInt(1_999_999)), "supplied deposit counts towards total assets")
}

func (s *TestSuite) TestShutdown() {
	id := s.createCellar()

	s.Require().ErrorIs(s.k.LiftShutdown(s.ctx, owner, id), types.ErrNotShutdown, "lift a running cellar")
	s.Require().ErrorIs(s.k.InitiateShutdown(s.ctx, strategist, id), types.ErrUnauthorized, "not the owner")
	s.Require().NoError(s.k.InitiateShutdown(s.ctx, owner, id), "InitiateShutdown")
	s.Assert().True(s.getCellar(id).IsShutdown, "cellar is shut down")
	s.Require().ErrorIs(s.k.InitiateShutdown(s.ctx, owner, id), types.ErrShutdown, "shut down twice")

	ev := s.requireEvent(types.EventTypeShutdownChanged)
	got, _ := ev.Attribute("is_shutdown")
	s.Assert().Equal("true", got, "event is_shutdown")

	s.Require().NoError(s.k.LiftShutdown(s.ctx, owner, id), "LiftShutdown")
	s.Assert().False(s.getCellar(id).IsShutdown, "cellar is running")
	s.deposit(id, alice, sdkmath.NewInt(1))
}

func (s *TestSuite) TestCellarSettings() {
	id := s.createCellar()

	s.Run("rebalance deviation", func() {
		err := s.k.SetRebalanceDeviation(s.ctx, owner, id, sdkmath.LegacyNewDecWithPrec(2, 1))
		s.Require().ErrorIs(err, types.ErrInvalidRebalanceDeviation, "above the maximum")
		err = s.k.SetRebalanceDeviation(s.ctx, owner, id, sdkmath.LegacyNewDec(-1))
		s.Require().ErrorIs(err, types.ErrInvalidRebalanceDeviation, "negative")
		s.Require().NoError(s.k.SetRebalanceDeviation(s.ctx, owner, id, sdkmath.LegacyNewDecWithPrec(1, 2)), "SetRebalanceDeviation")
		s.Assert().Equal("0.010000000000000000", s.getCellar(id).AllowedRebalanceDeviation.String(), "deviation")
	})

	s.Run("share lock period", func() {
		err := s.k.SetShareLockPeriod(s.ctx, owner, id, types.MaxShareLockPeriod+1)
		s.Require().ErrorIs(err, types.ErrInvalidShareLockPeriod, "above the maximum")
		err = s.k.SetShareLockPeriod(s.ctx, owner, id, -1)
		s.Require().ErrorIs(err, types.ErrInvalidShareLockPeriod, "negative")
		s.Require().NoError(s.k.SetShareLockPeriod(s.ctx, owner, id, 100), "SetShareLockPeriod")
		s.Assert().Equal(int64(100), s.getCellar(id).ShareLockPeriod, "share lock period")
	})

	s.Run("share supply cap", func() {
		err := s.k.SetShareSupplyCap(s.ctx, owner, id, sdkmath.NewInt(-1))
		s.Require().ErrorIs(err, types.ErrInvalidRequest, "negative cap")
		s.Require().NoError(s.k.SetShareSupplyCap(s.ctx, owner, id, sdkmath.NewInt(7)), "SetShareSupplyCap")
		s.Assert().Equal("7", s.getCellar(id).ShareSupplyCap.String(), "share supply cap")
	})

	s.Run("strategist payout address", func() {
		err := s.k.SetStrategistPayoutAddress(s.ctx, strategist, id, bob)
		s.Require().ErrorIs(err, types.ErrUnauthorized, "not the owner")
		s.Require().NoError(s.k.SetStrategistPayoutAddress(s.ctx, owner, id, bob), "SetStrategistPayoutAddress")
		s.Assert().Equal(bob, s.getCellar(id).FeeData.StrategistPayoutAddress, "payout address")

		ev := s.requireEvent(types.EventTypeCellarConfigChanged)
		setting, _ := ev.Attribute("setting")
		s.Assert().Equal("strategist_payout_address", setting, "event setting")
	})
}

func (s *TestSuite) TestAddAdaptorToCatalogue() {
	id := s.createCellar()

	err := s.k.AddAdaptorToCatalogue(s.ctx, owner, id, types.AdaptorCatalogueEntry{Adaptor: "uniswap-v3:v1"})
	s.Require().ErrorIs(err, types.ErrAdaptorNotTrusted, "untrusted adaptor")
	err = s.k.AddAdaptorToCatalogue(s.ctx, strategist, id, types.AdaptorCatalogueEntry{Adaptor: adaptors.CTokenID})
	s.Require().ErrorIs(err, types.ErrUnauthorized, "not the owner")

	s.catalogueAdaptor(id, adaptors.CTokenID, "DepositToCompound")
	entries, err := s.k.GetAdaptorCatalogue(s.ctx, id)
	s.Require().NoError(err, "GetAdaptorCatalogue")
	s.Require().Len(entries, 1, "catalogued adaptors")
	s.Assert().Equal(adaptors.CTokenID, entries[0].Adaptor, "catalogued adaptor")
	s.Assert().Equal([]string{"DepositToCompound"}, entries[0].Commands, "allowed commands")
}

func (s *TestSuite) TestUpdateParams() {
	id := s.createCellar()
	params := types.Params{Treasury: "dao", FeeAccrualPeriod: 3600}

	err := s.k.UpdateParams(s.ctx, alice, params)
	s.Require().ErrorIs(err, types.ErrUnauthorized, "not the authority")
	err = s.k.UpdateParams(s.ctx, s.authority, types.Params{Treasury: "dao"})
	s.Require().ErrorIs(err, types.ErrInvalidRequest, "invalid params")

	s.Require().NoError(s.k.UpdateParams(s.ctx, s.authority, params), "UpdateParams")
	got, err := s.k.Params.Get(s.ctx)
	s.Require().NoError(err, "Params.Get")
	s.Assert().Equal(params, got, "params")

	// The pending accrual moves to the new period.
	s.Assert().Equal([]int64{runtime.HeaderInfo(s.ctx).Time.Unix() + 3600}, s.scheduled(id), "rescheduled accrual")
}
