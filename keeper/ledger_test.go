package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

func (s *TestSuite) TestCreateCellar() {
	tests := []struct {
		name        string
		modify      func(msg *types.MsgCreateCellar)
		expectedErr error
	}{
		{
			name:        "unknown holding position",
			modify:      func(msg *types.MsgCreateCellar) { msg.HoldingPosition = 99 },
			expectedErr: types.ErrPositionNotFound,
		},
		{
			name:        "debt holding position",
			modify:      func(msg *types.MsgCreateCellar) { msg.HoldingPosition = simapp.PositionFraxDebt },
			expectedErr: types.ErrDebtMismatch,
		},
		{
			name:        "holding position in another asset",
			modify:      func(msg *types.MsgCreateCellar) { msg.HoldingPosition = simapp.PositionUSDT },
			expectedErr: types.ErrAssetMismatch,
		},
		{
			name:        "initial deposit too small",
			modify:      func(msg *types.MsgCreateCellar) { msg.InitialDeposit = sdkmath.ZeroInt() },
			expectedErr: types.ErrZeroShares,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			msg := s.createCellarMsg()
			tc.modify(&msg)
			_, _, err := s.k.CreateCellar(s.ctx, msg)
			s.Require().ErrorIs(err, tc.expectedErr, "expected error for case %q", tc.name)
		})
	}

	s.Run("failed creations do not consume ids", func() {
		id, shares, err := s.k.CreateCellar(s.ctx, s.createCellarMsg())
		s.Require().NoError(err, "CreateCellar")
		s.Assert().Equal(uint32(1), id, "first cellar id")
		s.Assert().Equal("1000000000000", shares.String(), "initial shares")

		cellar := s.getCellar(id)
		s.Assert().Equal(types.GetShareDenom(id), cellar.ShareDenom, "share denom")
		s.Assert().Equal([]uint32{simapp.PositionUSDC}, cellar.CreditPositions, "credit positions")
		s.Assert().Equal(types.DefaultRebalanceDeviation.String(), cellar.AllowedRebalanceDeviation.String(), "default deviation")
		s.assertBalance(cellar.Holder, cellar.ShareDenom, shares)
		s.assertBalance(cellar.Holder, simapp.USDC, initialDeposit)
		s.Assert().Equal(initialDeposit.String(), s.totalAssets(id).String(), "total assets")
		s.requireEvent(types.EventTypeCellarCreated)

		next, _, err := s.k.CreateCellar(s.ctx, s.createCellarMsg())
		s.Require().NoError(err, "CreateCellar second")
		s.Assert().Equal(uint32(2), next, "ids are sequential")
	})
}

func (s *TestSuite) TestDepositAndRedeem() {
	id := s.createCellar()
	denom := types.GetShareDenom(id)
	before := s.balance(alice, simapp.USDC)

	shares := s.deposit(id, alice, sdkmath.NewInt(500_000))
	s.Assert().Equal("500000000000", shares.String(), "deposit shares")
	s.assertBalance(alice, denom, shares)
	s.assertBalance(alice, simapp.USDC, before.SubRaw(500_000))
	s.Assert().Equal("1500000", s.totalAssets(id).String(), "total assets after deposit")

	ev := s.requireEvent(types.EventTypeDeposit)
	got, _ := ev.Attribute("shares")
	s.Assert().Equal(shares.String(), got, "deposit event shares")

	assets, err := s.k.Redeem(s.ctx, id, shares, alice, alice)
	s.Require().NoError(err, "Redeem")
	s.Assert().Equal("500000", assets.String(), "redeemed assets")
	s.assertBalance(alice, denom, sdkmath.ZeroInt())
	s.assertBalance(alice, simapp.USDC, before)
	s.Assert().Equal("1000000000000", s.supply(denom).String(), "supply returns to the initial shares")
	s.requireEvent(types.EventTypeWithdraw)
}

func (s *TestSuite) TestMintAndWithdraw() {
	id := s.createCellar()
	denom := types.GetShareDenom(id)

	cost, err := s.k.Mint(s.ctx, bob, id, sdkmath.NewInt(200_000_000_000), bob)
	s.Require().NoError(err, "Mint")
	s.Assert().Equal("200000", cost.String(), "mint cost")
	s.assertBalance(bob, denom, sdkmath.NewInt(200_000_000_000))

	burned, err := s.k.Withdraw(s.ctx, id, sdkmath.NewInt(100_000), alice, bob)
	s.Require().NoError(err, "Withdraw")
	s.Assert().Equal("100000000000", burned.String(), "burned shares")
	s.assertBalance(bob, denom, sdkmath.NewInt(100_000_000_000))
	s.Assert().Equal("1100000", s.totalAssets(id).String(), "total assets after withdraw")

	preview, err := s.k.PreviewWithdraw(s.ctx, id, sdkmath.NewInt(1))
	s.Require().NoError(err, "PreviewWithdraw")
	s.Assert().Equal("1000000", preview.String(), "withdrawing one unit burns a full unit of shares")
}

func (s *TestSuite) TestLedgerErrors() {
	id := s.createCellar()
	s.deposit(id, alice, sdkmath.NewInt(1_000_000))

	s.Run("zero shares", func() {
		_, err := s.k.Deposit(s.ctx, alice, id, sdkmath.ZeroInt(), alice)
		s.Require().ErrorIs(err, types.ErrZeroShares, "deposit of nothing")
		_, err = s.k.Withdraw(s.ctx, id, sdkmath.ZeroInt(), alice, alice)
		s.Require().ErrorIs(err, types.ErrZeroShares, "withdraw of nothing")
	})

	s.Run("zero assets", func() {
		_, err := s.k.Redeem(s.ctx, id, sdkmath.NewInt(1), alice, alice)
		s.Require().ErrorIs(err, types.ErrZeroAssets, "one share is worth nothing")
		_, err = s.k.Mint(s.ctx, alice, id, sdkmath.ZeroInt(), alice)
		s.Require().ErrorIs(err, types.ErrZeroAssets, "mint of nothing")
	})

	s.Run("insufficient shares", func() {
		_, err := s.k.Redeem(s.ctx, id, sdkmath.NewInt(1_000_000_000_001), alice, alice)
		s.Require().ErrorIs(err, types.ErrInsufficientShares, "redeem more than held")
		err = s.k.TransferShares(s.ctx, bob, alice, id, sdkmath.NewInt(1))
		s.Require().ErrorIs(err, types.ErrInsufficientShares, "transfer without shares")
	})

	s.Run("unknown cellar", func() {
		_, err := s.k.Deposit(s.ctx, alice, 42, sdkmath.NewInt(1), alice)
		s.Require().ErrorIs(err, types.ErrCellarNotFound, "deposit into unknown cellar")
	})

	s.Run("shutdown blocks entries but not exits", func() {
		s.Require().NoError(s.k.InitiateShutdown(s.ctx, owner, id), "InitiateShutdown")
		_, err := s.k.Deposit(s.ctx, alice, id, sdkmath.NewInt(1), alice)
		s.Require().ErrorIs(err, types.ErrShutdown, "deposit while shut down")
		_, err = s.k.Mint(s.ctx, alice, id, sdkmath.NewInt(1_000_000), alice)
		s.Require().ErrorIs(err, types.ErrShutdown, "mint while shut down")
		_, err = s.k.Withdraw(s.ctx, id, sdkmath.NewInt(1), alice, alice)
		s.Require().NoError(err, "withdraw while shut down")
	})
}

func (s *TestSuite) TestShareLock() {
	id := s.createCellar()
	s.Require().NoError(s.k.SetShareLockPeriod(s.ctx, owner, id, 2), "SetShareLockPeriod")
	shares := s.deposit(id, alice, sdkmath.NewInt(1_000_000))

	_, err := s.k.Redeem(s.ctx, id, shares, alice, alice)
	s.Require().ErrorIs(err, types.ErrSharesAreLocked, "redeem in the deposit block")
	err = s.k.TransferShares(s.ctx, alice, bob, id, shares)
	s.Require().ErrorIs(err, types.ErrSharesAreLocked, "transfer in the deposit block")
	max, err := s.k.MaxRedeem(s.ctx, id, alice)
	s.Require().NoError(err, "MaxRedeem")
	s.Assert().True(max.IsZero(), "locked shares cannot be redeemed, got %s", max)

	s.nextBlock(simapp.DefaultBlockTime)
	_, err = s.k.Redeem(s.ctx, id, shares, alice, alice)
	s.Require().ErrorIs(err, types.ErrSharesAreLocked, "redeem one block later")

	s.nextBlock(simapp.DefaultBlockTime)
	s.Require().NoError(s.k.TransferShares(s.ctx, alice, bob, id, shares), "TransferShares once unlocked")
	s.assertBalance(bob, types.GetShareDenom(id), shares)

	// Transfers do not start a lock for the receiver.
	_, err = s.k.Redeem(s.ctx, id, shares, bob, bob)
	s.Require().NoError(err, "Redeem transferred shares")
}

func (s *TestSuite) TestShareLockCannotBeRestartedByOthers() {
	id := s.createCellar()
	s.Require().NoError(s.k.SetShareLockPeriod(s.ctx, owner, id, 2), "SetShareLockPeriod")
	shares := s.deposit(id, alice, sdkmath.NewInt(1_000_000))
	for range 3 {
		s.nextBlock(simapp.DefaultBlockTime)
	}

	_, err := s.k.Deposit(s.ctx, bob, id, sdkmath.NewInt(1), alice)
	s.Require().ErrorIs(err, types.ErrDepositOnBehalfNotAllowed, "deposit for alice")
	_, err = s.k.Mint(s.ctx, bob, id, sdkmath.NewInt(1_000_000), alice)
	s.Require().ErrorIs(err, types.ErrDepositOnBehalfNotAllowed, "mint for alice")

	max, err := s.k.MaxRedeem(s.ctx, id, alice)
	s.Require().NoError(err, "MaxRedeem")
	s.Assert().Equal(shares.String(), max.String(), "alice's shares stay unlocked")
	_, err = s.k.Redeem(s.ctx, id, shares, alice, alice)
	s.Require().NoError(err, "Redeem")

	s.Require().NoError(s.k.SetShareLockPeriod(s.ctx, owner, id, 0), "disable the lock")
	_, err = s.k.Deposit(s.ctx, bob, id, sdkmath.NewInt(1), alice)
	s.Require().NoError(err, "deposit for alice without a lock")
}

func (s *TestSuite) TestShareSupplyCap() {
	id := s.createCellar()
	s.Require().NoError(s.k.SetShareSupplyCap(s.ctx, owner, id, sdkmath.NewInt(1_500_000_000_000)), "SetShareSupplyCap")

	_, err := s.k.Deposit(s.ctx, alice, id, sdkmath.NewInt(500_001), alice)
	s.Require().ErrorIs(err, types.ErrShareSupplyCapExceeded, "deposit above the cap")
	s.deposit(id, alice, sdkmath.NewInt(500_000))
	_, err = s.k.Mint(s.ctx, alice, id, sdkmath.NewInt(1), alice)
	s.Require().ErrorIs(err, types.ErrShareSupplyCapExceeded, "mint at the cap")
}

func (s *TestSuite) TestMaxWithdrawAndRedeem() {
	id := s.createCellar()

	max, err := s.k.MaxWithdraw(s.ctx, id, alice)
	s.Require().NoError(err, "MaxWithdraw without shares")
	s.Assert().True(max.IsZero(), "nothing to withdraw, got %s", max)

	shares := s.deposit(id, alice, sdkmath.NewInt(700_000))
	max, err = s.k.MaxWithdraw(s.ctx, id, alice)
	s.Require().NoError(err, "MaxWithdraw")
	s.Assert().Equal("700000", max.String(), "max withdraw")
	maxShares, err := s.k.MaxRedeem(s.ctx, id, alice)
	s.Require().NoError(err, "MaxRedeem")
	s.Assert().Equal(shares.String(), maxShares.String(), "max redeem is the full balance")
}

func (s *TestSuite) TestWithdrawDrainsCreditPositionsInOrder() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionUSDT, nil)
	shares := s.deposit(id, alice, sdkmath.NewInt(1_000_000))
	cellar := s.getCellar(id)
	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, bob, cellar.Holder, simapp.USDT, sdkmath.NewInt(1_000_000)), "donate usdt")
	s.Assert().Equal("3000000", s.totalAssets(id).String(), "usdt is valued one to one")

	s.Require().NoError(s.k.SwapPositions(s.ctx, owner, id, 0, 1, false), "SwapPositions")
	s.Require().Equal([]uint32{simapp.PositionUSDT, simapp.PositionUSDC}, s.getCellar(id).CreditPositions, "usdt drains first")

	expected, err := s.k.PreviewRedeem(s.ctx, id, shares)
	s.Require().NoError(err, "PreviewRedeem")
	s.Require().True(expected.GT(sdkmath.NewInt(1_000_000)), "shares must be worth more than the usdt, got %s", expected)

	usdc, usdt := s.balance(alice, simapp.USDC), s.balance(alice, simapp.USDT)
	assets, err := s.k.Redeem(s.ctx, id, shares, alice, alice)
	s.Require().NoError(err, "Redeem")
	s.Assert().Equal(expected.String(), assets.String(), "redeemed assets")
	s.assertBalance(alice, simapp.USDT, usdt.AddRaw(1_000_000))
	s.assertBalance(alice, simapp.USDC, usdc.Add(expected).SubRaw(1_000_000))
	s.assertBalance(cellar.Holder, simapp.USDT, sdkmath.ZeroInt())
}

func (s *TestSuite) TestWithdrawFromIlliquidPosition() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionCUSDC, []byte(`{"is_liquid":false}`))
	s.catalogueAdaptor(id, adaptors.CTokenID)
	shares := s.deposit(id, alice, sdkmath.NewInt(1_000_000))
	s.supplyToCompound(id)
	s.assertBalance(s.getCellar(id).Holder, simapp.USDC, sdkmath.ZeroInt())

	withdrawable, err := s.k.TotalAssetsWithdrawable(s.ctx, id)
	s.Require().NoError(err, "TotalAssetsWithdrawable")
	s.Assert().True(withdrawable.IsZero(), "illiquid supply is not withdrawable, got %s", withdrawable)
	s.Assert().True(s.totalAssets(id).GT(sdkmath.NewInt(1_990_000)), "supply still counts towards total assets")

	max, err := s.k.MaxWithdraw(s.ctx, id, alice)
	s.Require().NoError(err, "MaxWithdraw")
	s.Assert().True(max.IsZero(), "max withdraw, got %s", max)

	_, err = s.k.Redeem(s.ctx, id, shares, alice, alice)
	s.Require().ErrorIs(err, types.ErrIncompleteWithdraw, "redeem against illiquid positions")
	s.assertBalance(alice, types.GetShareDenom(id), shares)
}
