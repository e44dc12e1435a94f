package keeper_test

import (
	"time"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

func (s *TestSuite) scheduled(id uint32) []int64 {
	var at []int64
	err := s.k.FeeAccrualQueue.Walk(s.ctx, nil, func(key collections.Pair[int64, uint32]) (bool, error) {
		if key.K2() == id {
			at = append(at, key.K1())
		}
		return false, nil
	})
	s.Require().NoError(err, "FeeAccrualQueue.Walk")
	return at
}

func (s *TestSuite) TestEndBlockerAccruesDueFees() {
	id := s.createFeeCellar(sdkmath.LegacyNewDecWithPrec(1, 1), sdkmath.LegacyZeroDec())
	created := runtime.HeaderInfo(s.ctx).Time.Unix()
	period := types.DefaultFeeAccrualPeriod
	s.Require().Equal([]int64{created + period}, s.scheduled(id), "accrual scheduled at creation")

	s.Require().NoError(s.k.EndBlocker(s.ctx), "EndBlocker before the accrual is due")
	s.assertBalance(types.DefaultTreasury, types.GetShareDenom(id), sdkmath.ZeroInt())

	s.nextBlock(time.Duration(period) * time.Second)
	s.Require().NoError(s.k.EndBlocker(s.ctx), "EndBlocker")
	s.Assert().True(s.balance(types.DefaultTreasury, types.GetShareDenom(id)).IsPositive(), "platform fee accrued")
	s.Assert().Equal([]int64{created + 2*period}, s.scheduled(id), "next accrual scheduled")
	s.Assert().Equal(float64(1), testutil.ToFloat64(s.k.Metrics().FeeAccruals.WithLabelValues(cellarLabel(id))), "fee accruals")
	s.Assert().Zero(testutil.ToFloat64(s.k.Metrics().EndBlockerFails), "end blocker failures")
}

func (s *TestSuite) TestEndBlockerSurvivesFailingCellars() {
	failing := s.createCellar()
	s.addPosition(failing, simapp.PositionWETH, nil)
	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, bob, s.getCellar(failing).Holder, simapp.WETH, sdkmath.NewInt(1)), "donate weth")
	healthy := s.createFeeCellar(sdkmath.LegacyNewDecWithPrec(1, 1), sdkmath.LegacyZeroDec())
	s.Require().NoError(s.simApp.PriceRouter.SetPrice(s.ctx, simapp.WETH, sdkmath.ZeroInt()), "SetPrice")

	s.nextBlock(time.Duration(types.DefaultFeeAccrualPeriod) * time.Second)
	s.Require().NoError(s.k.EndBlocker(s.ctx), "EndBlocker must not fail the block")

	s.Assert().Equal(float64(1), testutil.ToFloat64(s.k.Metrics().EndBlockerFails), "end blocker failures")
	s.Assert().True(s.balance(types.DefaultTreasury, types.GetShareDenom(healthy)).IsPositive(), "healthy cellar still accrued")
	s.Assert().Len(s.scheduled(failing), 1, "failing cellar is retried next period")
	s.Assert().Len(s.scheduled(healthy), 1, "healthy cellar is rescheduled")
}
