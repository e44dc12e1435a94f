package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

func (s *TestSuite) TestMsgServer_ValidateBasicRejections() {
	create := s.createCellarMsg()
	create.InitialDeposit = sdkmath.ZeroInt()
	badFees := s.createCellarMsg()
	badFees.FeeData.PerformanceFee = sdkmath.LegacyNewDecWithPrec(6, 1)

	tests := []struct {
		name string
		msg  types.Msg
	}{
		{name: "create without an initial deposit", msg: &create},
		{name: "create with a performance fee above the maximum", msg: &badFees},
		{name: "deposit without a receiver", msg: &types.MsgDeposit{Caller: alice, CellarID: 1, Assets: sdkmath.OneInt()}},
		{name: "mint without shares", msg: &types.MsgMint{Caller: alice, CellarID: 1, Receiver: alice}},
		{name: "redeem negative shares", msg: &types.MsgRedeem{Owner: alice, CellarID: 1, Shares: sdkmath.NewInt(-1), Receiver: alice}},
		{name: "rebalance without calls", msg: &types.MsgCallOnAdaptor{Strategist: strategist, CellarID: 1}},
		{name: "trust an empty adaptor id", msg: &types.MsgTrustAdaptor{Authority: s.authority}},
		{name: "update params without a treasury", msg: &types.MsgUpdateParams{Authority: s.authority, Params: types.Params{FeeAccrualPeriod: 1}}},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			_, err := s.simApp.DeliverMsg(tc.msg)
			s.Require().ErrorIs(err, types.ErrInvalidRequest, "expected error for case %q", tc.name)
		})
	}
}

func (s *TestSuite) TestMsgServer_CellarLifecycle() {
	create := s.createCellarMsg()
	resp, err := s.simApp.DeliverMsg(&create)
	s.Require().NoError(err, "MsgCreateCellar")
	created, ok := resp.(*types.MsgCreateCellarResponse)
	s.Require().True(ok, "response type %T", resp)
	s.Assert().Equal(uint32(1), created.CellarID, "cellar id")
	s.Assert().Equal("1000000000000", created.Shares.String(), "initial shares")
	s.requireEvent(types.EventTypeCellarCreated)
	id := created.CellarID
	fd := s.getCellar(id).FeeData
	s.Assert().False(fd.HighWatermark.IsNil(), "high watermark is set by the keeper")
	s.Assert().Equal(runtime.HeaderInfo(s.ctx).Time.Unix(), fd.LastAccrual, "last accrual")

	resp, err = s.simApp.DeliverMsg(&types.MsgDeposit{Caller: alice, CellarID: id, Assets: sdkmath.NewInt(10), Receiver: bob})
	s.Require().NoError(err, "MsgDeposit")
	s.Assert().Equal("10000000", resp.(*types.MsgDepositResponse).Shares.String(), "deposit shares")
	ev := s.requireEvent(types.EventTypeDeposit)
	receiver, _ := ev.Attribute("receiver")
	s.Assert().Equal(bob, receiver, "event receiver")

	resp, err = s.simApp.DeliverMsg(&types.MsgMint{Caller: alice, CellarID: id, Shares: sdkmath.NewInt(5_000_000), Receiver: alice})
	s.Require().NoError(err, "MsgMint")
	s.Assert().Equal("5", resp.(*types.MsgMintResponse).Assets.String(), "mint assets")

	_, err = s.simApp.DeliverMsg(&types.MsgTransferShares{From: alice, To: bob, CellarID: id, Shares: sdkmath.NewInt(5_000_000)})
	s.Require().NoError(err, "MsgTransferShares")
	s.assertBalance(bob, types.GetShareDenom(id), sdkmath.NewInt(15_000_000))

	resp, err = s.simApp.DeliverMsg(&types.MsgRedeem{Owner: bob, CellarID: id, Shares: sdkmath.NewInt(5_000_000), Receiver: bob})
	s.Require().NoError(err, "MsgRedeem")
	s.Assert().Equal("5", resp.(*types.MsgRedeemResponse).Assets.String(), "redeemed assets")

	resp, err = s.simApp.DeliverMsg(&types.MsgWithdraw{Owner: bob, CellarID: id, Assets: sdkmath.NewInt(10), Receiver: alice})
	s.Require().NoError(err, "MsgWithdraw")
	s.Assert().Equal("10000000", resp.(*types.MsgWithdrawResponse).Shares.String(), "withdrawn shares")
	s.assertBalance(bob, types.GetShareDenom(id), sdkmath.ZeroInt())
	ev = s.requireEvent(types.EventTypeWithdraw)
	assets, _ := ev.Attribute("assets")
	s.Assert().Equal("10", assets, "event assets")
}

func (s *TestSuite) TestMsgServer_FailedMessagesDoNotWrite() {
	id := s.createCellar()
	_, err := s.simApp.DeliverMsg(&types.MsgAddPositionToCatalogue{Owner: owner, CellarID: id, PositionID: simapp.PositionCUSDC})
	s.Require().NoError(err, "MsgAddPositionToCatalogue")
	_, err = s.simApp.DeliverMsg(&types.MsgAddPosition{Owner: owner, CellarID: id, Index: 1, PositionID: simapp.PositionCUSDC})
	s.Require().NoError(err, "MsgAddPosition")

	// The strategist may only call the compound adaptor once it is catalogued.
	call := &types.MsgCallOnAdaptor{Strategist: strategist, CellarID: id, Calls: supplyCall()}
	_, err = s.simApp.DeliverMsg(call)
	s.Require().ErrorIs(err, types.ErrCallToAdaptorNotAllowed, "MsgCallOnAdaptor before cataloguing")
	s.assertBalance(s.getCellar(id).Holder, simapp.USDC, initialDeposit)

	_, err = s.simApp.DeliverMsg(&types.MsgAddAdaptorToCatalogue{Owner: owner, CellarID: id, Entry: types.AdaptorCatalogueEntry{Adaptor: adaptors.CTokenID}})
	s.Require().NoError(err, "MsgAddAdaptorToCatalogue")
	_, err = s.simApp.DeliverMsg(call)
	s.Require().NoError(err, "MsgCallOnAdaptor")
	s.assertBalance(s.getCellar(id).Holder, simapp.USDC, sdkmath.ZeroInt())

	_, err = s.simApp.DeliverMsg(&types.MsgInitiateShutdown{Owner: strategist, CellarID: id})
	s.Require().ErrorIs(err, types.ErrUnauthorized, "MsgInitiateShutdown by the strategist")
	s.Assert().False(s.getCellar(id).IsShutdown, "cellar keeps running")
}

func (s *TestSuite) TestMsgServer_Fees() {
	id := s.createFeeCellar(sdkmath.LegacyNewDecWithPrec(1, 1), sdkmath.LegacyZeroDec())
	s.nextBlock(year)

	resp, err := s.simApp.DeliverMsg(&types.MsgSendFees{Caller: bob, CellarID: id})
	s.Require().NoError(err, "MsgSendFees")
	fees := resp.(*types.MsgSendFeesResponse)
	s.Assert().Equal("100000", fees.PlatformFees.String(), "platform fees")

	resp, err = s.simApp.DeliverMsg(&types.MsgSettleFees{Payee: strategist, CellarID: id, Shares: fees.StrategistShares})
	s.Require().NoError(err, "MsgSettleFees")
	s.Assert().True(resp.(*types.MsgSettleFeesResponse).Assets.IsPositive(), "strategist is paid")
	s.assertBalance(strategist, types.GetShareDenom(id), sdkmath.ZeroInt())
}
