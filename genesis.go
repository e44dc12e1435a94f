package cellar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cosmossdk.io/core/appmodule"

	"github.com/provlabs/cellar/types"
)

// genesisFields maps each top level genesis field to the part of the state it
// holds.
func genesisFields(gs *types.GenesisState) map[string]any {
	return map[string]any{
		"params":           &gs.Params,
		"trusted_adaptors": &gs.TrustedAdaptors,
		"positions":        &gs.Positions,
		"cellars":          &gs.Cellars,
		"share_locks":      &gs.ShareLocks,
	}
}

// readGenesis decodes the genesis state field by field. Missing fields keep
// their default.
func readGenesis(src appmodule.GenesisSource) (*types.GenesisState, error) {
	gs := types.DefaultGenesisState()
	for field, v := range genesisFields(gs) {
		r, err := src(field)
		if err != nil {
			return nil, fmt.Errorf("failed to open genesis field %s: %w", field, err)
		}
		if r == nil {
			continue
		}
		err = json.NewDecoder(r).Decode(v)
		if cerr := r.Close(); err == nil {
			err = cerr
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode genesis field %s: %w", field, err)
		}
	}
	return gs, nil
}

func writeGenesis(target appmodule.GenesisTarget, gs *types.GenesisState) error {
	for field, v := range genesisFields(gs) {
		w, err := target(field)
		if err != nil {
			return fmt.Errorf("failed to open genesis field %s: %w", field, err)
		}
		err = json.NewEncoder(w).Encode(v)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to write genesis field %s: %w", field, err)
		}
	}
	return nil
}

// DefaultGenesis writes the default genesis state.
func (AppModule) DefaultGenesis(target appmodule.GenesisTarget) error {
	return writeGenesis(target, types.DefaultGenesisState())
}

// ValidateGenesis validates the cellar genesis state.
func (AppModule) ValidateGenesis(src appmodule.GenesisSource) error {
	gs, err := readGenesis(src)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s genesis state: %w", types.ModuleName, err)
	}
	return gs.Validate()
}

// InitGenesis initializes the module's state from genesis.
func (m AppModule) InitGenesis(ctx context.Context, src appmodule.GenesisSource) error {
	gs, err := readGenesis(src)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s genesis state: %w", types.ModuleName, err)
	}
	if err := gs.Validate(); err != nil {
		return err
	}
	m.keeper.InitGenesis(ctx, gs)
	return nil
}

// ExportGenesis exports the module's state to genesis.
func (m AppModule) ExportGenesis(ctx context.Context, target appmodule.GenesisTarget) error {
	return writeGenesis(target, m.keeper.ExportGenesis(ctx))
}
