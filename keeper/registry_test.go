package keeper_test

import (
	"encoding/json"

	"cosmossdk.io/collections"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

func (s *TestSuite) TestTrustAdaptor() {
	tests := []struct {
		name        string
		authority   string
		adaptor     string
		expectedErr error
	}{
		{name: "not the authority", authority: alice, adaptor: adaptors.ERC20ID, expectedErr: types.ErrUnauthorized},
		{name: "not registered with the router", authority: s.authority, adaptor: "uniswap-v3:v1", expectedErr: types.ErrUnknownAdaptor},
		{name: "already trusted", authority: s.authority, adaptor: adaptors.ERC20ID, expectedErr: types.ErrAdaptorAlreadyTrusted},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			err := s.k.TrustAdaptor(s.ctx, tc.authority, tc.adaptor)
			s.Require().ErrorIs(err, tc.expectedErr, "expected error for case %q", tc.name)
		})
	}
}

func (s *TestSuite) TestTrustPosition() {
	lpData := adaptors.MustData(adaptors.ERC20Data{Token: simapp.CRV3})

	tests := []struct {
		name        string
		authority   string
		id          uint32
		adaptor     string
		data        json.RawMessage
		expectedErr error
	}{
		{name: "not the authority", authority: alice, id: 20, adaptor: adaptors.ERC20ID, data: lpData, expectedErr: types.ErrUnauthorized},
		{name: "zero id", authority: s.authority, id: 0, adaptor: adaptors.ERC20ID, data: lpData, expectedErr: types.ErrInvalidRequest},
		{name: "id already used", authority: s.authority, id: simapp.PositionUSDC, adaptor: adaptors.ERC20ID, data: lpData, expectedErr: types.ErrPositionAlreadyUsed},
		{name: "untrusted adaptor", authority: s.authority, id: 20, adaptor: "uniswap-v3:v1", data: lpData, expectedErr: types.ErrAdaptorNotTrusted},
		{name: "malformed adaptor data", authority: s.authority, id: 20, adaptor: adaptors.ERC20ID, data: json.RawMessage(`{"token":`), expectedErr: types.ErrInvalidAdaptorData},
		{
			name:        "equivalent encoding of a registered position",
			authority:   s.authority,
			id:          20,
			adaptor:     adaptors.ERC20ID,
			data:        json.RawMessage(`{ "token" : "usdc" }`),
			expectedErr: types.ErrIdenticalPositionsNotAllowed,
		},
		{
			name:        "asset without pricing",
			authority:   s.authority,
			id:          20,
			adaptor:     adaptors.ERC20ID,
			data:        adaptors.MustData(adaptors.ERC20Data{Token: "doge"}),
			expectedErr: types.ErrPositionPricingNotSetUp,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			err := s.k.TrustPosition(s.ctx, tc.authority, tc.id, tc.adaptor, tc.data)
			s.Require().ErrorIs(err, tc.expectedErr, "expected error for case %q", tc.name)
		})
	}

	s.Run("registers in canonical form", func() {
		err := s.k.TrustPosition(s.ctx, s.authority, 20, adaptors.ERC20ID, json.RawMessage(`{ "token": "3crv" }`))
		s.Require().NoError(err, "TrustPosition")

		pos, err := s.k.GetPosition(s.ctx, 20)
		s.Require().NoError(err, "GetPosition")
		s.Assert().True(pos.Trusted, "new position is trusted")
		s.Assert().False(pos.IsDebt, "erc20 positions are credit")
		s.Assert().JSONEq(string(lpData), string(pos.AdaptorData), "adaptor data")
		s.Assert().Equal(`{"token":"3crv"}`, string(pos.AdaptorData), "adaptor data is stored compact")

		descriptor, err := pos.Descriptor()
		s.Require().NoError(err, "Descriptor")
		id, err := s.k.PositionDescriptors.Get(s.ctx, descriptor)
		s.Require().NoError(err, "descriptor index")
		s.Assert().Equal(uint32(20), id, "indexed position")

		ev := s.requireEvent(types.EventTypeRegistryChanged)
		action, _ := ev.Attribute("action")
		s.Assert().Equal("trust_position", action, "event action")
	})
}

func (s *TestSuite) TestDistrustPosition() {
	id := s.createCellar()

	s.Require().ErrorIs(s.k.DistrustPosition(s.ctx, alice, simapp.PositionUSDT), types.ErrUnauthorized, "not the authority")
	s.Require().ErrorIs(s.k.DistrustPosition(s.ctx, s.authority, 99), types.ErrPositionNotFound, "unknown position")

	s.Require().NoError(s.k.AddPositionToCatalogue(s.ctx, owner, id, simapp.PositionUSDT), "AddPositionToCatalogue")
	s.Require().NoError(s.k.DistrustPosition(s.ctx, s.authority, simapp.PositionUSDT), "DistrustPosition")
	s.Require().ErrorIs(s.k.DistrustPosition(s.ctx, s.authority, simapp.PositionUSDT), types.ErrPositionNotTrusted, "distrust twice")

	err := s.k.AddPosition(s.ctx, owner, id, 1, simapp.PositionUSDT, nil, false)
	s.Require().ErrorIs(err, types.ErrPositionNotTrusted, "distrusted positions cannot be added")
	err = s.k.AddPositionToCatalogue(s.ctx, owner, id, simapp.PositionUSDT)
	s.Require().ErrorIs(err, types.ErrPositionNotTrusted, "distrusted positions cannot be catalogued")
}

func (s *TestSuite) TestForcePositionOut() {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionUSDT, nil)
	s.addPosition(id, simapp.PositionWETH, nil)
	s.Require().Equal([]uint32{simapp.PositionUSDC, simapp.PositionUSDT, simapp.PositionWETH}, s.getCellar(id).CreditPositions, "credit positions")

	err := s.k.ForcePositionOut(s.ctx, s.authority, id, 1, simapp.PositionUSDT, false)
	s.Require().ErrorIs(err, types.ErrFailedToForceOutPosition, "trusted positions cannot be forced out")

	s.Require().NoError(s.k.DistrustPosition(s.ctx, s.authority, simapp.PositionUSDT), "DistrustPosition")
	err = s.k.ForcePositionOut(s.ctx, s.authority, id, 2, simapp.PositionUSDT, false)
	s.Require().ErrorIs(err, types.ErrFailedToForceOutPosition, "index must match the position")
	err = s.k.ForcePositionOut(s.ctx, alice, id, 1, simapp.PositionUSDT, false)
	s.Require().ErrorIs(err, types.ErrUnauthorized, "not the authority")

	s.Require().NoError(s.k.ForcePositionOut(s.ctx, s.authority, id, 1, simapp.PositionUSDT, false), "ForcePositionOut")
	cellar := s.getCellar(id)
	s.Assert().Equal([]uint32{simapp.PositionUSDC, simapp.PositionWETH}, cellar.CreditPositions, "credit positions after force out")
	s.Assert().False(cellar.IsPositionUsed(simapp.PositionUSDT), "forced out position is unused")
	has, err := s.k.CellarPositions.Has(s.ctx, collections.Join(id, simapp.PositionUSDT))
	s.Require().NoError(err, "CellarPositions.Has")
	s.Assert().False(has, "position configuration removed")

	s.Require().NoError(s.k.DistrustPosition(s.ctx, s.authority, simapp.PositionUSDC), "distrust holding position")
	err = s.k.ForcePositionOut(s.ctx, s.authority, id, 0, simapp.PositionUSDC, false)
	s.Require().ErrorIs(err, types.ErrRemovingHoldingPosition, "holding position cannot be forced out")
}
