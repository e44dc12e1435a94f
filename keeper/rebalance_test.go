package keeper_test

import (
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

const fraxPair = "weth-usdc"

func supplyCall() []types.AdaptorCall {
	return []types.AdaptorCall{{
		Adaptor:  adaptors.CTokenID,
		Commands: []types.AdaptorCommand{adaptors.DepositToCompound{Market: simapp.CUSDC, Amount: types.All()}},
	}}
}

func (s *TestSuite) rebalances(id uint32, outcome string) float64 {
	return testutil.ToFloat64(s.k.Metrics().Rebalances.WithLabelValues(cellarLabel(id), outcome))
}

func cellarLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

// createWETHCellar creates a cellar priced in weth that can post its weth as
// fraxlend collateral and borrow usdc against it.
func (s *TestSuite) createWETHCellar() uint32 {
	msg := s.createCellarMsg()
	msg.Name = "weth cellar"
	msg.Asset = simapp.WETH
	msg.HoldingPosition = simapp.PositionWETH
	msg.InitialDeposit = sdkmath.NewIntWithDecimal(1, 18)
	id := s.createCellarWith(msg)

	s.addPosition(id, simapp.PositionFraxCollateral, nil)
	s.addPosition(id, simapp.PositionFraxDebt, nil)
	s.catalogueAdaptor(id, adaptors.FraxlendCollateralID)
	s.catalogueAdaptor(id, adaptors.FraxlendDebtID)
	s.Require().NoError(s.simApp.FraxlendKeeper.Lend(s.ctx, simapp.Lender, fraxPair, sdkmath.NewInt(5_000_000_000)), "Lend")
	return id
}

func borrowCalls(amount int64) []types.AdaptorCall {
	return []types.AdaptorCall{
		{
			Adaptor:  adaptors.FraxlendCollateralID,
			Commands: []types.AdaptorCommand{adaptors.AddCollateral{Pair: fraxPair, Amount: types.All()}},
		},
		{
			Adaptor:  adaptors.FraxlendDebtID,
			Commands: []types.AdaptorCommand{adaptors.BorrowFromFraxlend{Pair: fraxPair, Amount: sdkmath.NewInt(amount)}},
		},
	}
}

func (s *TestSuite) TestCallOnAdaptorRejections() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionCUSDC, nil)

	err := s.k.CallOnAdaptor(s.ctx, strategist, id, supplyCall())
	s.Require().ErrorIs(err, types.ErrCallToAdaptorNotAllowed, "adaptor not in the catalogue")

	s.catalogueAdaptor(id, adaptors.CTokenID, adaptors.WithdrawFromCompound{}.CommandName())
	err = s.k.CallOnAdaptor(s.ctx, strategist, id, supplyCall())
	s.Require().ErrorIs(err, types.ErrCommandNotAllowed, "command not in the catalogue entry")

	err = s.k.CallOnAdaptor(s.ctx, owner, id, supplyCall())
	s.Require().ErrorIs(err, types.ErrUnauthorized, "not the strategist")

	err = s.k.CallOnAdaptor(s.ctx, strategist, id, []types.AdaptorCall{{Adaptor: adaptors.CTokenID, Commands: []types.AdaptorCommand{nil}}})
	s.Require().ErrorIs(err, types.ErrInvalidRequest, "nil command")

	s.Require().NoError(s.k.InitiateShutdown(s.ctx, owner, id), "InitiateShutdown")
	err = s.k.CallOnAdaptor(s.ctx, strategist, id, supplyCall())
	s.Require().ErrorIs(err, types.ErrShutdown, "shut down cellar")
	s.Assert().Zero(s.rebalances(id, "failed"), "rejected batches never execute")
}

func (s *TestSuite) TestCallOnAdaptorRequiresTrackedPositions() {
	id := s.createCellar()
	s.catalogueAdaptor(id, adaptors.CTokenID)

	err := s.k.CallOnAdaptor(s.ctx, strategist, id, supplyCall())
	s.Require().ErrorIs(err, types.ErrPositionsMustBeTracked, "compound position is not tracked")
	s.assertBalance(s.getCellar(id).Holder, simapp.USDC, initialDeposit)
	s.Assert().Equal(float64(1), s.rebalances(id, "failed"), "failed batches are counted")
}

func (s *TestSuite) TestCallOnAdaptor() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionCUSDC, nil)
	s.catalogueAdaptor(id, adaptors.CTokenID)
	supply := s.supply(types.GetShareDenom(id))

	s.supplyToCompound(id)
	holder := s.getCellar(id).Holder
	s.assertBalance(holder, simapp.USDC, sdkmath.ZeroInt())
	s.Assert().True(s.balance(holder, simapp.CUSDC).IsPositive(), "holder received ctokens")
	s.Assert().True(s.totalAssets(id).GTE(initialDeposit.SubRaw(1)), "total assets preserved, got %s", s.totalAssets(id))
	s.Assert().Equal(supply.String(), s.supply(types.GetShareDenom(id)).String(), "share supply is unchanged")

	ev := s.requireEvent(types.EventTypeRebalance)
	calls, _ := ev.Attribute("calls")
	s.Assert().Equal("1", calls, "event calls")
	s.Assert().Equal(float64(1), s.rebalances(id, "ok"), "successful batches are counted")

	// Withdrawals now pay out of compound.
	shares := s.deposit(id, alice, sdkmath.NewInt(1_000))
	s.supplyToCompound(id)
	_, err := s.k.Redeem(s.ctx, id, shares, alice, alice)
	s.Require().NoError(err, "Redeem from compound")
}

func (s *TestSuite) TestCallOnAdaptorDeviation() {
	id := s.createWETHCellar()
	holder := s.getCellar(id).Holder
	weth := s.balance(holder, simapp.WETH)

	// Borrowed usdc lands in the holder but no position tracks it, so total
	// assets drop by the value of the debt.
	err := s.k.CallOnAdaptor(s.ctx, strategist, id, borrowCalls(500_000_000))
	s.Require().ErrorIs(err, types.ErrTotalAssetDeviatedOutsideRange, "untracked borrow")
	s.assertBalance(holder, simapp.WETH, weth)
	s.assertBalance(holder, simapp.USDC, sdkmath.ZeroInt())
	s.Assert().Equal(float64(1), s.rebalances(id, "failed"), "failed batches are counted")

	s.addPosition(id, simapp.PositionUSDC, nil)
	s.Require().NoError(s.k.CallOnAdaptor(s.ctx, strategist, id, borrowCalls(500_000_000)), "tracked borrow")
	s.assertBalance(holder, simapp.USDC, sdkmath.NewInt(500_000_000))
	s.assertBalance(holder, simapp.WETH, sdkmath.ZeroInt())
	s.Assert().Equal(sdkmath.NewIntWithDecimal(1, 18).String(), s.totalAssets(id).String(), "borrowed usdc offsets the debt")

	// Debt positions cannot be removed while they owe.
	err = s.k.RemovePosition(s.ctx, owner, id, 0, true)
	s.Require().ErrorIs(err, types.ErrPositionNotEmpty, "debt position with a balance")
}

func (s *TestSuite) TestCallOnAdaptorHealthFactor() {
	id := s.createWETHCellar()
	s.addPosition(id, simapp.PositionUSDC, nil)
	s.Require().NoError(s.k.SetRebalanceDeviation(s.ctx, owner, id, types.MaxRebalanceDeviation), "SetRebalanceDeviation")

	// One weth at $2000 with a 75% max LTV supports 1500 usdc, but 1450 leaves
	// a health factor under the 1.05 minimum.
	err := s.k.CallOnAdaptor(s.ctx, strategist, id, borrowCalls(1_450_000_000))
	s.Require().ErrorIs(err, types.ErrHealthFactorTooLow, "borrow close to the max LTV")
	s.Require().NoError(s.k.CallOnAdaptor(s.ctx, strategist, id, borrowCalls(1_000_000_000)), "borrow at a health factor of 1.5")
}
