package keeper_test

import (
	"encoding/json"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

func (s *TestSuite) TestGenesisRoundTrip() {
	plain := s.createCellar()
	s.addPosition(plain, simapp.PositionCUSDC, nil)
	s.catalogueAdaptor(plain, adaptors.CTokenID, adaptors.DepositToCompound{}.CommandName())
	s.Require().NoError(s.k.AddPositionToCatalogue(s.ctx, owner, plain, simapp.PositionUSDT), "catalogue usdt")

	msg := s.createCellarMsg()
	msg.ShareLockPeriod = 10
	locked := s.createCellarWith(msg)
	s.deposit(locked, alice, sdkmath.NewInt(1_000))

	exported := s.k.ExportGenesis(s.ctx)
	s.Require().NoError(exported.Validate(), "exported genesis must be valid")
	s.Require().Len(exported.Cellars, 2, "exported cellars")
	s.Assert().Equal([]uint32{simapp.PositionUSDC, simapp.PositionUSDT, simapp.PositionCUSDC}, exported.Cellars[0].PositionCatalogue, "sorted position catalogue")
	s.Assert().NotEmpty(exported.ShareLocks, "share locks are exported")

	app := simapp.NewTestApp(s.T())
	s.Require().NoError(app.BeginBlock(runtime.DefaultTestTime), "BeginBlock")
	ctx := app.Context()
	app.CellarKeeper.InitGenesis(ctx, exported)

	expected, err := json.Marshal(exported)
	s.Require().NoError(err, "json.Marshal exported")
	actual, err := json.Marshal(app.CellarKeeper.ExportGenesis(ctx))
	s.Require().NoError(err, "json.Marshal imported")
	s.Assert().JSONEq(string(expected), string(actual), "imported genesis")

	seq, err := app.CellarKeeper.CellarSeq.Peek(ctx)
	s.Require().NoError(err, "CellarSeq.Peek")
	s.Assert().Equal(uint64(locked), seq, "cellar sequence continues after the highest id")
	for _, id := range []uint32{plain, locked} {
		has, err := app.CellarKeeper.FeeAccrualQueue.Has(ctx, collections.Join(runtime.DefaultTestTime.Unix()+types.DefaultFeeAccrualPeriod, id))
		s.Require().NoError(err, "FeeAccrualQueue.Has %d", id)
		s.Assert().True(has, "fee accrual scheduled for cellar %d", id)
	}
}

func (s *TestSuite) TestInitGenesisPanics() {
	tests := []struct {
		name   string
		mutate func(gs *types.GenesisState)
	}{
		{
			name: "adaptor missing from the router",
			mutate: func(gs *types.GenesisState) {
				gs.TrustedAdaptors = append(gs.TrustedAdaptors, "uniswap-v3:v1")
			},
		},
		{
			name: "position with an untrusted adaptor",
			mutate: func(gs *types.GenesisState) {
				gs.Positions = append(gs.Positions, types.Position{ID: 99, Adaptor: "uniswap-v3:v1", AdaptorData: []byte(`{}`)})
			},
		},
		{
			name: "invalid params",
			mutate: func(gs *types.GenesisState) {
				gs.Params.FeeAccrualPeriod = 0
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			gs := s.k.ExportGenesis(s.ctx)
			tc.mutate(gs)
			app := simapp.NewTestApp(s.T())
			s.Require().NoError(app.BeginBlock(runtime.DefaultTestTime), "BeginBlock")
			s.Require().Panics(func() { app.CellarKeeper.InitGenesis(app.Context(), gs) }, "expected panic for case %q", tc.name)
		})
	}
}
