package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/keeper"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
	querytest "github.com/provlabs/cellar/utils/query"
)

func (s *TestSuite) TestQueryServer_Params() {
	testDef := querytest.TestDef[types.QueryParamsRequest, types.QueryParamsResponse]{
		QueryName: "Params",
		Query:     keeper.NewQueryServer(s.k).Params,
	}

	tests := []querytest.TestCase[types.QueryParamsRequest, types.QueryParamsResponse]{
		{
			Name:         "default params",
			Req:          &types.QueryParamsRequest{},
			ExpectedResp: &types.QueryParamsResponse{Params: types.DefaultParams()},
		},
		{
			Name: "updated params",
			Setup: func() {
				s.Require().NoError(s.k.UpdateParams(s.ctx, s.authority, types.Params{Treasury: "dao", FeeAccrualPeriod: 60}), "UpdateParams")
			},
			Req:          &types.QueryParamsRequest{},
			ExpectedResp: &types.QueryParamsResponse{Params: types.Params{Treasury: "dao", FeeAccrualPeriod: 60}},
		},
		{
			Name:               "nil request",
			ExpectedErrSubstrs: []string{"invalid request"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.Name, func() {
			querytest.RunTestCase(s, testDef, tc)
		})
	}
}

func (s *TestSuite) TestQueryServer_Cellar() {
	testDef := querytest.TestDef[types.QueryCellarRequest, types.QueryCellarResponse]{
		QueryName: "Cellar",
		Query:     keeper.NewQueryServer(s.k).Cellar,
		ManualEquality: func(ts querytest.TestSuiter, expected, actual *types.QueryCellarResponse) {
			ts.Require().NotNil(actual, "actual response")
			ts.Assert().Equal(expected.Cellar.ID, actual.Cellar.ID, "cellar id")
			ts.Assert().Equal(expected.Cellar.CreditPositions, actual.Cellar.CreditPositions, "credit positions")
			ts.Assert().Equal(expected.Positions, actual.Positions, "cellar positions")
			ts.Assert().Equal(expected.AdaptorCatalogue, actual.AdaptorCatalogue, "adaptor catalogue")
			ts.Assert().ElementsMatch(expected.PositionCatalogue, actual.PositionCatalogue, "position catalogue")
			ts.Assert().Equal(expected.TotalShares.String(), actual.TotalShares.String(), "total shares")
		},
	}

	setup := func() {
		id := s.createCellar()
		s.addPosition(id, simapp.PositionCUSDC, nil)
		s.catalogueAdaptor(id, adaptors.CTokenID)
	}

	tests := []querytest.TestCase[types.QueryCellarRequest, types.QueryCellarResponse]{
		{
			Name:  "cellar with a catalogued adaptor",
			Setup: setup,
			Req:   &types.QueryCellarRequest{CellarID: 1},
			ExpectedResp: &types.QueryCellarResponse{
				Cellar: types.Cellar{ID: 1, CreditPositions: []uint32{simapp.PositionUSDC, simapp.PositionCUSDC}},
				Positions: []types.CellarPosition{
					{PositionID: simapp.PositionUSDC},
					{PositionID: simapp.PositionCUSDC},
				},
				AdaptorCatalogue:  []types.AdaptorCatalogueEntry{{Adaptor: adaptors.CTokenID}},
				PositionCatalogue: []uint32{simapp.PositionUSDC, simapp.PositionCUSDC},
				TotalShares:       sdkmath.NewInt(1_000_000_000_000),
			},
		},
		{
			Name:               "unknown cellar",
			Setup:              setup,
			Req:                &types.QueryCellarRequest{CellarID: 9},
			ExpectedErrSubstrs: []string{"code = NotFound", "cellar not found"},
		},
		{
			Name:               "missing id",
			Req:                &types.QueryCellarRequest{},
			ExpectedErrSubstrs: []string{"code = InvalidArgument", "cellar_id must be provided"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.Name, func() {
			querytest.RunTestCase(s, testDef, tc)
		})
	}
}

func (s *TestSuite) TestQueryServer_Cellars() {
	qs := keeper.NewQueryServer(s.k)
	for range 3 {
		s.createCellar()
	}

	resp, err := qs.Cellars(s.ctx, &types.QueryCellarsRequest{})
	s.Require().NoError(err, "Cellars")
	s.Assert().Len(resp.Cellars, 3, "cellars")
	s.Assert().Equal(uint64(3), resp.Pagination.Total, "total")

	resp, err = qs.Cellars(s.ctx, &types.QueryCellarsRequest{Pagination: &types.PageRequest{Offset: 1, Limit: 1}})
	s.Require().NoError(err, "Cellars page")
	s.Require().Len(resp.Cellars, 1, "page size")
	s.Assert().Equal(uint32(2), resp.Cellars[0].ID, "second cellar")

	resp, err = qs.Cellars(s.ctx, &types.QueryCellarsRequest{Pagination: &types.PageRequest{Offset: 5}})
	s.Require().NoError(err, "Cellars past the end")
	s.Assert().Empty(resp.Cellars, "no cellars past the end")
}

func (s *TestSuite) TestQueryServer_Positions() {
	qs := keeper.NewQueryServer(s.k)
	s.Require().NoError(s.k.DistrustPosition(s.ctx, s.authority, simapp.PositionCurve), "DistrustPosition")

	resp, err := qs.Positions(s.ctx, &types.QueryPositionsRequest{})
	s.Require().NoError(err, "Positions")
	s.Assert().Len(resp.Positions, 7, "all positions")

	resp, err = qs.Positions(s.ctx, &types.QueryPositionsRequest{TrustedOnly: true})
	s.Require().NoError(err, "Positions trusted only")
	s.Assert().Len(resp.Positions, 6, "trusted positions")
	for _, p := range resp.Positions {
		s.Assert().NotEqual(simapp.PositionCurve, p.ID, "distrusted position listed")
	}

	_, err = qs.Positions(s.ctx, nil)
	s.Require().ErrorContains(err, "invalid request", "nil request")
}

func (s *TestSuite) TestQueryServer_TotalAssets() {
	qs := keeper.NewQueryServer(s.k)
	id := s.createCellar()
	s.addPosition(id, simapp.PositionWETH, nil)
	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, bob, s.getCellar(id).Holder, simapp.WETH, sdkmath.NewIntWithDecimal(1, 18)), "donate weth")

	resp, err := qs.TotalAssets(s.ctx, &types.QueryTotalAssetsRequest{CellarID: id})
	s.Require().NoError(err, "TotalAssets")
	s.Assert().Equal("2001000000", resp.TotalAssets.String(), "total assets")
	s.Assert().Equal("2001000000", resp.TotalAssetsWithdrawable.String(), "withdrawable assets")

	_, err = qs.TotalAssets(s.ctx, &types.QueryTotalAssetsRequest{CellarID: id + 1})
	s.Require().ErrorContains(err, "NotFound", "unknown cellar")
}

func (s *TestSuite) TestQueryServer_Preview() {
	qs := keeper.NewQueryServer(s.k)
	id := s.createCellar()

	tests := []struct {
		name     string
		kind     types.PreviewKind
		amount   sdkmath.Int
		expected string
	}{
		{name: "deposit", kind: types.PreviewDeposit, amount: sdkmath.NewInt(1), expected: "1000000"},
		{name: "mint", kind: types.PreviewMint, amount: sdkmath.NewInt(1_000_000), expected: "1"},
		{name: "withdraw", kind: types.PreviewWithdraw, amount: sdkmath.NewInt(1), expected: "1000000"},
		{name: "redeem", kind: types.PreviewRedeem, amount: sdkmath.NewInt(1_999_999), expected: "1"},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			resp, err := qs.Preview(s.ctx, &types.QueryPreviewRequest{CellarID: id, Kind: tc.kind, Amount: tc.amount})
			s.Require().NoError(err, "Preview")
			s.Assert().Equal(tc.expected, resp.Amount.String(), "preview %s", tc.name)
		})
	}

	_, err := qs.Preview(s.ctx, &types.QueryPreviewRequest{CellarID: id, Kind: 9, Amount: sdkmath.OneInt()})
	s.Require().ErrorContains(err, "unknown preview kind", "unknown kind")
	_, err = qs.Preview(s.ctx, &types.QueryPreviewRequest{CellarID: id, Amount: sdkmath.NewInt(-1)})
	s.Require().ErrorContains(err, "amount must be non-negative", "negative amount")
	_, err = qs.Preview(s.ctx, &types.QueryPreviewRequest{CellarID: id})
	s.Require().ErrorContains(err, "amount must be non-negative", "missing amount")
}

func (s *TestSuite) TestQueryServer_MaxExit() {
	qs := keeper.NewQueryServer(s.k)
	msg := s.createCellarMsg()
	msg.ShareLockPeriod = 5
	id := s.createCellarWith(msg)
	shares := s.deposit(id, alice, sdkmath.NewInt(2_000))
	height := s.simApp.LastBlockHeight() + 1

	resp, err := qs.MaxExit(s.ctx, &types.QueryMaxExitRequest{CellarID: id, Owner: alice})
	s.Require().NoError(err, "MaxExit")
	s.Assert().Equal(shares.String(), resp.Shares.String(), "shares")
	s.Assert().True(resp.MaxRedeem.IsZero(), "locked shares cannot be redeemed, got %s", resp.MaxRedeem)
	s.Assert().True(resp.MaxWithdraw.IsZero(), "locked shares cannot be withdrawn, got %s", resp.MaxWithdraw)
	s.Assert().Equal(height+5, resp.UnlockHeight, "unlock height")

	_, err = qs.MaxExit(s.ctx, &types.QueryMaxExitRequest{CellarID: id})
	s.Require().ErrorContains(err, "owner must be provided", "missing owner")
}
