package simulation

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

const (
	MinFeeAccrualPeriod = int64(3_600)
	MaxFeeAccrualPeriod = int64(7 * 86_400)
)

// RandomizedParams returns cellar module params with a random fee accrual period.
func RandomizedParams(r *rand.Rand) types.Params {
	params := types.DefaultParams()
	params.FeeAccrualPeriod = MinFeeAccrualPeriod + randomInt63(r, MaxFeeAccrualPeriod-MinFeeAccrualPeriod+1)
	return params
}

// RandomizedGenState generates the fixture genesis funding accs, with
// randomized cellar params.
func RandomizedGenState(r *rand.Rand, app *simapp.SimApp, accs []Account) (simapp.GenesisState, error) {
	gs, err := app.FixtureGenesis(Addresses(accs)...)
	if err != nil {
		return nil, err
	}

	var cellarGenesis types.GenesisState
	if err := json.Unmarshal(gs[types.ModuleName], &cellarGenesis); err != nil {
		return nil, fmt.Errorf("failed to decode cellar genesis: %w", err)
	}
	cellarGenesis.Params = RandomizedParams(r)
	if err := cellarGenesis.Validate(); err != nil {
		return nil, err
	}

	bz, err := json.MarshalIndent(&cellarGenesis.Params, "", " ")
	if err != nil {
		return nil, err
	}
	app.Logger().Info("selected randomly generated cellar parameters", "params", string(bz))

	if gs[types.ModuleName], err = json.Marshal(&cellarGenesis); err != nil {
		return nil, err
	}
	return gs, nil
}
