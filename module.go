package cellar

import (
	"context"
	"fmt"

	"cosmossdk.io/core/appmodule"
	"cosmossdk.io/core/event"
	"cosmossdk.io/core/header"
	"cosmossdk.io/core/store"
	"cosmossdk.io/depinject"

	"github.com/provlabs/cellar/keeper"
	"github.com/provlabs/cellar/types"
)

// ConsensusVersion defines the current x/cellar module consensus version.
const ConsensusVersion = 2

var (
	_ appmodule.AppModule     = AppModule{}
	_ appmodule.HasGenesis    = AppModule{}
	_ appmodule.HasEndBlocker = AppModule{}
)

// AppModule implements the core cellar module functionality.
type AppModule struct {
	keeper *keeper.Keeper
}

// NewAppModule creates a new AppModule instance.
func NewAppModule(keeper *keeper.Keeper) AppModule {
	return AppModule{keeper: keeper}
}

// Name returns the cellar module name.
func (AppModule) Name() string { return types.ModuleName }

// IsOnePerModuleType asserts one module per type.
func (AppModule) IsOnePerModuleType() {}

// IsAppModule asserts this is an app module.
func (AppModule) IsAppModule() {}

// ConsensusVersion returns the module consensus version.
func (AppModule) ConsensusVersion() uint64 { return ConsensusVersion }

// Keeper returns the module keeper.
func (m AppModule) Keeper() *keeper.Keeper { return m.keeper }

// MsgServer returns the module's message service.
func (m AppModule) MsgServer() types.MsgServer { return keeper.NewMsgServer(m.keeper) }

// QueryServer returns the module's query service.
func (m AppModule) QueryServer() types.QueryServer { return keeper.NewQueryServer(m.keeper) }

// EndBlock runs the scheduled fee accruals.
func (m AppModule) EndBlock(ctx context.Context) error {
	return m.keeper.EndBlocker(ctx)
}

// Migrations returns the in-place store migrations keyed by the version they
// migrate from.
func (m AppModule) Migrations() map[uint64]func(context.Context) error {
	return map[uint64]func(context.Context) error{
		1: m.keeper.MigratePositionDescriptors,
	}
}

// RunMigrations migrates module state from version from to ConsensusVersion.
func (m AppModule) RunMigrations(ctx context.Context, from uint64) error {
	migrations := m.Migrations()
	for v := from; v < ConsensusVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			return fmt.Errorf("no %s migration from version %d", types.ModuleName, v)
		}
		if err := migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate %s from version %d: %w", types.ModuleName, v, err)
		}
	}
	return nil
}

// Authority is the address allowed to govern the cellar module.
type Authority string

// ModuleInputs defines the inputs required to initialize the cellar module.
type ModuleInputs struct {
	depinject.In

	StoreService  store.KVStoreService
	HeaderService header.Service
	EventService  event.Service
	Authority     Authority `optional:"true"`
	BankKeeper    types.BankKeeper
	PriceRouter   types.PriceRouter
	AdaptorRouter types.AdaptorRouter
}

// ModuleOutputs defines the outputs of the cellar module provider.
type ModuleOutputs struct {
	depinject.Out

	Keeper *keeper.Keeper
	Module AppModule
}

// ProvideModule wires up the cellar module and its keeper.
func ProvideModule(in ModuleInputs) ModuleOutputs {
	authority := string(in.Authority)
	if authority == "" {
		authority = types.GovModuleName
	}

	k := keeper.NewKeeper(
		in.StoreService,
		in.HeaderService,
		in.EventService,
		authority,
		in.BankKeeper,
		in.PriceRouter,
		in.AdaptorRouter,
	)
	return ModuleOutputs{Keeper: k, Module: NewAppModule(k)}
}
