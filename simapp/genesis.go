package simapp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	coregenesis "cosmossdk.io/core/genesis"
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/bank"
	"github.com/provlabs/cellar/pricerouter"
	"github.com/provlabs/cellar/protocols/compound"
	"github.com/provlabs/cellar/protocols/curve"
	"github.com/provlabs/cellar/protocols/fraxlend"
	"github.com/provlabs/cellar/types"
)

// GenesisState is the app genesis keyed by module name.
type GenesisState map[string]json.RawMessage

// ProtocolFixtures are the external protocol venues created at genesis.
// Their user positions are not part of genesis.
type ProtocolFixtures struct {
	Markets []compound.Market `json:"markets"`
	Pairs   []fraxlend.Pair   `json:"pairs"`
	Pools   []curve.Pool      `json:"pools"`
}

const protocolsGenesisKey = "protocols"

// DefaultGenesis returns the genesis of an empty app.
func (app *SimApp) DefaultGenesis() (GenesisState, error) {
	gs := GenesisState{}
	if err := gs.set(bank.ModuleName, []bank.Balance{}); err != nil {
		return nil, err
	}
	if err := gs.set(pricerouter.ModuleName, []pricerouter.Asset{}); err != nil {
		return nil, err
	}
	if err := gs.set(protocolsGenesisKey, ProtocolFixtures{}); err != nil {
		return nil, err
	}
	target := &coregenesis.RawJSONTarget{}
	if err := app.CellarModule.DefaultGenesis(target.Target()); err != nil {
		return nil, err
	}
	bz, err := target.JSON()
	if err != nil {
		return nil, err
	}
	gs[types.ModuleName] = bz
	return gs, nil
}

func (gs GenesisState) set(module string, v any) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s genesis: %w", module, err)
	}
	gs[module] = bz
	return nil
}

func (gs GenesisState) get(module string, v any) error {
	bz, ok := gs[module]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("failed to decode %s genesis: %w", module, err)
	}
	return nil
}

// InitChain initializes state from gs in the first block, opened at
// genesisTime, and commits it.
func (app *SimApp) InitChain(gs GenesisState, genesisTime time.Time) error {
	if app.LastBlockHeight() != 0 {
		return fmt.Errorf("chain already initialized at height %d", app.LastBlockHeight())
	}
	if err := app.BeginBlock(genesisTime); err != nil {
		return err
	}
	ctx := app.Context()

	var balances []bank.Balance
	if err := gs.get(bank.ModuleName, &balances); err != nil {
		return err
	}
	if err := app.BankKeeper.InitBalances(ctx, balances); err != nil {
		return err
	}

	var assets []pricerouter.Asset
	if err := gs.get(pricerouter.ModuleName, &assets); err != nil {
		return err
	}
	if err := app.PriceRouter.InitAssets(ctx, assets); err != nil {
		return err
	}

	var fixtures ProtocolFixtures
	if err := gs.get(protocolsGenesisKey, &fixtures); err != nil {
		return err
	}
	if err := app.initProtocols(ctx, fixtures); err != nil {
		return err
	}

	if bz, ok := gs[types.ModuleName]; ok {
		src, err := coregenesis.SourceFromRawJSON(bz)
		if err != nil {
			return fmt.Errorf("failed to read %s genesis: %w", types.ModuleName, err)
		}
		if err := app.CellarModule.InitGenesis(ctx, src); err != nil {
			return err
		}
	}
	return app.Commit()
}

func (app *SimApp) initProtocols(ctx context.Context, f ProtocolFixtures) error {
	for _, m := range f.Markets {
		if err := app.CompoundKeeper.CreateMarket(ctx, m); err != nil {
			return err
		}
	}
	for _, p := range f.Pairs {
		if err := app.FraxlendKeeper.CreatePair(ctx, p); err != nil {
			return err
		}
	}
	for _, p := range f.Pools {
		if err := app.CurveKeeper.CreatePool(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis exports the state of the open block.
func (app *SimApp) ExportGenesis() (GenesisState, error) {
	ctx := app.Context()
	gs := GenesisState{}

	balances, err := app.BankKeeper.ExportBalances(ctx)
	if err != nil {
		return nil, err
	}
	if err := gs.set(bank.ModuleName, balances); err != nil {
		return nil, err
	}

	assets, err := app.PriceRouter.ExportAssets(ctx)
	if err != nil {
		return nil, err
	}
	if err := gs.set(pricerouter.ModuleName, assets); err != nil {
		return nil, err
	}

	var f ProtocolFixtures
	if f.Markets, err = app.CompoundKeeper.ExportMarkets(ctx); err != nil {
		return nil, err
	}
	if f.Pairs, err = app.FraxlendKeeper.ExportPairs(ctx); err != nil {
		return nil, err
	}
	if f.Pools, err = app.CurveKeeper.ExportPools(ctx); err != nil {
		return nil, err
	}
	if err := gs.set(protocolsGenesisKey, f); err != nil {
		return nil, err
	}

	target := &coregenesis.RawJSONTarget{}
	if err := app.CellarModule.ExportGenesis(ctx, target.Target()); err != nil {
		return nil, err
	}
	if gs[types.ModuleName], err = target.JSON(); err != nil {
		return nil, err
	}
	return gs, nil
}

// Denoms used by FixtureGenesis.
const (
	USDC  = "usdc"
	USDT  = "usdt"
	WETH  = "weth"
	CUSDC = "cusdc"
	CRV3  = "3crv"
)

// Lender funds the fixture lending venues.
const Lender = "lender"

// Position ids registered by FixtureGenesis.
const (
	PositionUSDC uint32 = iota + 1
	PositionUSDT
	PositionWETH
	PositionCUSDC
	PositionFraxCollateral
	PositionFraxDebt
	PositionCurve
)

// FixtureGenesis returns a genesis with priced assets, one venue per
// external protocol, every adaptor trusted and one position per venue.
// Each address in funded receives a large balance of every base asset.
func (app *SimApp) FixtureGenesis(funded ...string) (GenesisState, error) {
	gs, err := app.DefaultGenesis()
	if err != nil {
		return nil, err
	}

	var balances []bank.Balance
	for _, addr := range funded {
		balances = append(balances,
			bank.Balance{Address: addr, Denom: USDC, Amount: sdkmath.NewInt(1_000_000_000_000)},
			bank.Balance{Address: addr, Denom: USDT, Amount: sdkmath.NewInt(1_000_000_000_000)},
			bank.Balance{Address: addr, Denom: WETH, Amount: sdkmath.NewIntWithDecimal(1_000, 18)},
		)
	}
	balances = append(balances, bank.Balance{Address: Lender, Denom: USDC, Amount: sdkmath.NewInt(10_000_000_000)})
	if err := gs.set(bank.ModuleName, balances); err != nil {
		return nil, err
	}

	assets := []pricerouter.Asset{
		{Denom: USDC, Decimals: 6, PriceUSD: sdkmath.NewInt(100_000_000)},
		{Denom: USDT, Decimals: 6, PriceUSD: sdkmath.NewInt(100_000_000)},
		{Denom: WETH, Decimals: 18, PriceUSD: sdkmath.NewInt(200_000_000_000)},
		{Denom: CRV3, Decimals: curve.LPDecimals, PriceUSD: sdkmath.ZeroInt(), Extension: curve.LPExtensionName},
	}
	if err := gs.set(pricerouter.ModuleName, assets); err != nil {
		return nil, err
	}

	fixtures := ProtocolFixtures{
		Markets: []compound.Market{{
			ID:           CUSDC,
			Underlying:   USDC,
			ExchangeRate: sdkmath.LegacyNewDecWithPrec(2, 2),
			SupplyRate:   sdkmath.LegacyNewDecWithPrec(5, 2),
		}},
		Pairs: []fraxlend.Pair{{
			ID:         "weth-usdc",
			Asset:      USDC,
			Collateral: WETH,
			MaxLTV:     sdkmath.LegacyNewDecWithPrec(75, 2),
			BorrowRate: sdkmath.LegacyNewDecWithPrec(1, 1),
		}},
		Pools: []curve.Pool{{
			ID:       "3pool",
			Coins:    [2]string{USDC, USDT},
			Decimals: [2]uint32{6, 6},
			LPDenom:  CRV3,
			Fee:      sdkmath.LegacyNewDecWithPrec(4, 4),
		}},
	}
	if err := gs.set(protocolsGenesisKey, fixtures); err != nil {
		return nil, err
	}

	cellarGenesis := types.DefaultGenesisState()
	cellarGenesis.TrustedAdaptors = []string{
		adaptors.ERC20ID, adaptors.CTokenID, adaptors.FraxlendCollateralID,
		adaptors.FraxlendDebtID, adaptors.CurveID, adaptors.CellarID,
	}
	cellarGenesis.Positions = []types.Position{
		{ID: PositionUSDC, Adaptor: adaptors.ERC20ID, AdaptorData: adaptors.MustData(adaptors.ERC20Data{Token: USDC}), Trusted: true},
		{ID: PositionUSDT, Adaptor: adaptors.ERC20ID, AdaptorData: adaptors.MustData(adaptors.ERC20Data{Token: USDT}), Trusted: true},
		{ID: PositionWETH, Adaptor: adaptors.ERC20ID, AdaptorData: adaptors.MustData(adaptors.ERC20Data{Token: WETH}), Trusted: true},
		{ID: PositionCUSDC, Adaptor: adaptors.CTokenID, AdaptorData: adaptors.MustData(adaptors.CTokenData{Market: CUSDC}), Trusted: true},
		{ID: PositionFraxCollateral, Adaptor: adaptors.FraxlendCollateralID, AdaptorData: adaptors.MustData(adaptors.FraxlendData{Pair: "weth-usdc"}), Trusted: true},
		{ID: PositionFraxDebt, Adaptor: adaptors.FraxlendDebtID, AdaptorData: adaptors.MustData(adaptors.FraxlendData{Pair: "weth-usdc"}), IsDebt: true, Trusted: true},
		{ID: PositionCurve, Adaptor: adaptors.CurveID, AdaptorData: adaptors.MustData(adaptors.CurveData{Pool: "3pool"}), Trusted: true},
	}
	bz, err := json.Marshal(cellarGenesis)
	if err != nil {
		return nil, err
	}
	gs[types.ModuleName] = bz
	return gs, nil
}
