package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/pricerouter"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

func (s *TestSuite) TestTotalAssetsPricesForeignPositions() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionWETH, nil)
	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, bob, s.getCellar(id).Holder, simapp.WETH, sdkmath.NewIntWithDecimal(1, 18)), "donate weth")

	// One weth at $2000 is worth 2000 usdc.
	s.Assert().Equal("2001000000", s.totalAssets(id).String(), "total assets")
	withdrawable, err := s.k.TotalAssetsWithdrawable(s.ctx, id)
	s.Require().NoError(err, "TotalAssetsWithdrawable")
	s.Assert().Equal("2001000000", withdrawable.String(), "erc20 positions are liquid")

	s.Require().NoError(s.simApp.PriceRouter.SetPrice(s.ctx, simapp.WETH, sdkmath.ZeroInt()), "SetPrice")
	_, err = s.k.TotalAssets(s.ctx, id)
	s.Require().ErrorIs(err, pricerouter.ErrZeroPrice, "a missing price fails valuation")
	_, err = s.k.Deposit(s.ctx, alice, id, sdkmath.NewInt(1_000), alice)
	s.Require().ErrorIs(err, pricerouter.ErrZeroPrice, "deposits need a valuation")
}

func (s *TestSuite) TestTotalAssetsDebtExceedsCredit() {
	id := s.createWETHCellar()
	s.addPosition(id, simapp.PositionUSDC, nil)
	s.Require().NoError(s.k.CallOnAdaptor(s.ctx, strategist, id, borrowCalls(1_000_000_000)), "borrow")

	// Take the borrowed usdc out of the cellar and crash weth to $500: the
	// collateral is then worth half the debt.
	holder := s.getCellar(id).Holder
	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, holder, bob, simapp.USDC, sdkmath.NewInt(1_000_000_000)), "drain usdc")
	s.Require().NoError(s.simApp.PriceRouter.SetPrice(s.ctx, simapp.WETH, sdkmath.NewInt(50_000_000_000)), "SetPrice")

	_, err := s.k.TotalAssets(s.ctx, id)
	s.Require().ErrorIs(err, types.ErrDebtExceedsCredit, "insolvent cellar")
}

func (s *TestSuite) TestNestedCellars() {
	outer := s.createCellar()
	inner := s.createCellar()
	s.Require().NoError(s.k.TrustPosition(s.ctx, s.authority, 20, adaptors.CellarID, adaptors.MustData(adaptors.CellarData{CellarID: outer})), "trust outer shares")
	s.Require().NoError(s.k.TrustPosition(s.ctx, s.authority, 21, adaptors.CellarID, adaptors.MustData(adaptors.CellarData{CellarID: inner})), "trust inner shares")

	depositInto := func(from, to uint32) error {
		return s.k.CallOnAdaptor(s.ctx, strategist, from, []types.AdaptorCall{{
			Adaptor:  adaptors.CellarID,
			Commands: []types.AdaptorCommand{adaptors.DepositToCellar{CellarID: to, Assets: types.Exact(sdkmath.NewInt(500_000))}},
		}})
	}

	s.addPosition(inner, 20, nil)
	s.catalogueAdaptor(inner, adaptors.CellarID)
	s.Require().NoError(depositInto(inner, outer), "inner deposits into outer")
	s.Assert().Equal("500000000000", s.balance(s.getCellar(inner).Holder, types.GetShareDenom(outer)).String(), "outer shares held by inner")
	s.Assert().Equal(initialDeposit.String(), s.totalAssets(inner).String(), "outer shares are valued at their redemption value")
	s.Assert().Equal("1500000", s.totalAssets(outer).String(), "outer total assets")

	// Holding each other's shares would make valuation recurse forever.
	s.addPosition(outer, 21, nil)
	s.catalogueAdaptor(outer, adaptors.CellarID)
	err := depositInto(outer, inner)
	s.Require().ErrorIs(err, types.ErrInvalidAdaptorData, "cyclic cellar holdings")
	s.assertBalance(s.getCellar(outer).Holder, types.GetShareDenom(inner), sdkmath.ZeroInt())

	err = depositInto(outer, outer)
	s.Require().ErrorIs(err, types.ErrInvalidAdaptorData, "a cellar cannot hold its own shares")
}
