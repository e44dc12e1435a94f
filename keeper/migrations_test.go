package keeper_test

import (
	"fmt"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/types"
)

// setLegacyPosition stores a position indexed under its raw adaptor data, the
// way positions were indexed before the data was canonicalized.
func (s *TestSuite) setLegacyPosition(id uint32, data string) string {
	raw := fmt.Sprintf("%s|%t|%s", adaptors.ERC20ID, false, data)
	s.Require().NoError(s.k.Positions.Set(s.ctx, id, types.Position{ID: id, Adaptor: adaptors.ERC20ID, AdaptorData: []byte(data)}), "Positions.Set %d", id)
	s.Require().NoError(s.k.PositionDescriptors.Set(s.ctx, raw, id), "PositionDescriptors.Set %d", id)
	return raw
}

func (s *TestSuite) TestMigratePositionDescriptors() {
	raw := s.setLegacyPosition(20, `{ "token" : "3crv" }`)

	s.Require().NoError(s.k.MigratePositionDescriptors(s.ctx), "MigratePositionDescriptors")

	pos, err := s.k.GetPosition(s.ctx, 20)
	s.Require().NoError(err, "GetPosition")
	s.Assert().Equal(`{"token":"3crv"}`, string(pos.AdaptorData), "adaptor data is canonical")
	has, err := s.k.PositionDescriptors.Has(s.ctx, raw)
	s.Require().NoError(err, "PositionDescriptors.Has raw")
	s.Assert().False(has, "raw descriptor is dropped")
	id, err := s.k.PositionDescriptors.Get(s.ctx, adaptors.ERC20ID+`|false|{"token":"3crv"}`)
	s.Require().NoError(err, "PositionDescriptors.Get canonical")
	s.Assert().Equal(uint32(20), id, "canonical descriptor")

	// An equivalent encoding no longer registers a second position.
	err = s.k.TrustPosition(s.ctx, s.authority, 21, adaptors.ERC20ID, []byte(`{"token": "3crv"}`))
	s.Require().ErrorIs(err, types.ErrIdenticalPositionsNotAllowed, "equivalent position after migration")

	before := s.k.ExportGenesis(s.ctx)
	s.Require().NoError(s.k.MigratePositionDescriptors(s.ctx), "MigratePositionDescriptors again")
	s.Assert().Equal(before, s.k.ExportGenesis(s.ctx), "migration is idempotent")
}

func (s *TestSuite) TestMigratePositionDescriptorsDuplicate() {
	s.setLegacyPosition(20, `{"token":  "usdc"}`)

	err := s.k.MigratePositionDescriptors(s.ctx)
	s.Require().ErrorIs(err, types.ErrIdenticalPositionsNotAllowed, "legacy position duplicates the usdc position")
}
