package simapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/core/header"
	"cosmossdk.io/depinject"
	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/provlabs/cellar"
	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/bank"
	"github.com/provlabs/cellar/config"
	"github.com/provlabs/cellar/keeper"
	"github.com/provlabs/cellar/pricerouter"
	"github.com/provlabs/cellar/protocols/compound"
	"github.com/provlabs/cellar/protocols/curve"
	"github.com/provlabs/cellar/protocols/fraxlend"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
)

// DefaultNodeHome is the default home of the cellard binary.
var DefaultNodeHome = config.DefaultHome()

// lastHeaderKey stores the header of the last committed block.
var lastHeaderKey = []byte("app/last_header")

// SimApp wires the cellar module and the collaborators it settles against
// over one database. They are exported for convenience in creating helper
// functions, as object capabilities aren't needed for testing.
type SimApp struct {
	logger log.Logger
	db     dbm.DB

	// lastHeader is the header of the last committed block.
	lastHeader header.Info
	// blockCtx is the context of the open block, nil between blocks.
	blockCtx context.Context
	commit   func() error

	Registry *prometheus.Registry

	BankKeeper     *bank.Keeper
	PriceRouter    *pricerouter.Keeper
	CompoundKeeper *compound.Keeper
	FraxlendKeeper *fraxlend.Keeper
	CurveKeeper    *curve.Keeper
	AdaptorRouter  *adaptors.Router
	CellarKeeper   *keeper.Keeper
	CellarModule   cellar.AppModule

	msgServer   types.MsgServer
	queryServer types.QueryServer
}

// NewSimApp returns a reference to an initialized SimApp. If db holds a
// committed block, the app resumes after it.
func NewSimApp(logger log.Logger, db dbm.DB, cfg config.Config) (*SimApp, error) {
	hf, err := cfg.HealthFactor()
	if err != nil {
		return nil, err
	}

	app := &SimApp{logger: logger, db: db, Registry: prometheus.NewRegistry()}

	app.BankKeeper = bank.NewKeeper(runtime.NewKVStoreService(bank.ModuleName), runtime.EventService{})
	app.PriceRouter = pricerouter.NewKeeper(runtime.NewKVStoreService(pricerouter.ModuleName), runtime.EventService{})
	app.CompoundKeeper = compound.NewKeeper(runtime.NewKVStoreService(compound.ModuleName), runtime.HeaderService{}, runtime.EventService{}, app.BankKeeper)
	app.FraxlendKeeper = fraxlend.NewKeeper(runtime.NewKVStoreService(fraxlend.ModuleName), runtime.HeaderService{}, runtime.EventService{}, app.BankKeeper, app.PriceRouter)
	app.CurveKeeper = curve.NewKeeper(runtime.NewKVStoreService(curve.ModuleName), runtime.EventService{}, app.BankKeeper)
	app.PriceRouter.RegisterExtension(curve.NewLPPricer(app.CurveKeeper))

	router, nested := adaptors.NewDefaultRouter(adaptors.Protocols{
		Bank:                app.BankKeeper,
		Compound:            app.CompoundKeeper,
		Fraxlend:            app.FraxlendKeeper,
		Curve:               app.CurveKeeper,
		MinimumHealthFactor: hf,
	})
	app.AdaptorRouter = router

	if err := depinject.Inject(app.moduleConfig(cfg), &app.CellarKeeper); err != nil {
		return nil, fmt.Errorf("failed to wire the cellar module: %w", err)
	}
	app.CellarModule = cellar.NewAppModule(app.CellarKeeper)
	nested.SetCellarKeeper(app.CellarKeeper)

	app.msgServer = app.CellarModule.MsgServer()
	app.queryServer = app.CellarModule.QueryServer()

	if err := app.CellarKeeper.Metrics().Register(app.Registry); err != nil {
		return nil, err
	}

	bz, err := db.Get(lastHeaderKey)
	if err != nil {
		return nil, err
	}
	if bz != nil {
		if err := json.Unmarshal(bz, &app.lastHeader); err != nil {
			return nil, fmt.Errorf("failed to decode last header: %w", err)
		}
	}
	return app, nil
}

// moduleConfig supplies the cellar module with the app's collaborators. The
// interface inputs of ProvideModule resolve to the single supplied
// implementation of each. AppModule is one per module type, so the provider
// must be registered under the module name.
func (app *SimApp) moduleConfig(cfg config.Config) depinject.Config {
	return depinject.Configs(
		depinject.Supply(
			runtime.NewKVStoreService(types.StoreKey),
			runtime.HeaderService{},
			runtime.EventService{},
			cellar.Authority(cfg.Authority),
			app.BankKeeper,
			app.PriceRouter,
			app.AdaptorRouter,
		),
		depinject.ProvideInModule(types.ModuleName, cellar.ProvideModule),
	)
}

// Logger returns the app logger.
func (app *SimApp) Logger() log.Logger { return app.logger }

// LastBlockHeight returns the height of the last committed block.
func (app *SimApp) LastBlockHeight() int64 { return app.lastHeader.Height }

// LastBlockTime returns the time of the last committed block.
func (app *SimApp) LastBlockTime() time.Time { return app.lastHeader.Time }

// MsgServer returns the cellar message service.
func (app *SimApp) MsgServer() types.MsgServer { return app.msgServer }

// QueryServer returns the cellar query service.
func (app *SimApp) QueryServer() types.QueryServer { return app.queryServer }

// Context returns the context of the open block. It panics between blocks.
func (app *SimApp) Context() context.Context {
	if app.blockCtx == nil {
		panic("no block is open")
	}
	return app.blockCtx
}

// BeginBlock opens the block following the last committed one at time t.
func (app *SimApp) BeginBlock(t time.Time) error {
	if app.blockCtx != nil {
		return errors.New("a block is already open")
	}
	info := header.Info{Height: app.lastHeader.Height + 1, Time: t.UTC()}
	root := runtime.NewContext(context.Background(), app.db, info, app.logger)
	app.blockCtx, app.commit = runtime.CacheContext(root)
	return nil
}

// EndBlock runs the module end blockers.
func (app *SimApp) EndBlock() error {
	return app.CellarModule.EndBlock(app.Context())
}

// Commit writes the open block to the database.
func (app *SimApp) Commit() error {
	info := runtime.HeaderInfo(app.Context())
	if err := app.commit(); err != nil {
		return err
	}
	bz, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if err := app.db.SetSync(lastHeaderKey, bz); err != nil {
		return err
	}
	app.lastHeader = info
	app.blockCtx, app.commit = nil, nil
	return nil
}

// NextBlock ends and commits the open block and opens the next one d later.
func (app *SimApp) NextBlock(d time.Duration) error {
	t := runtime.HeaderInfo(app.Context()).Time
	if err := app.EndBlock(); err != nil {
		return err
	}
	if err := app.Commit(); err != nil {
		return err
	}
	return app.BeginBlock(t.Add(d))
}

// DeliverMsg validates msg and executes it in the open block. State changes
// of a failing message are discarded.
func (app *SimApp) DeliverMsg(msg types.Msg) (any, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, types.ErrInvalidRequest.Wrap(err.Error())
	}
	ctx, write := runtime.CacheContext(app.Context())
	resp, err := app.route(ctx, msg)
	if err != nil {
		app.logger.Debug("message failed", "type", fmt.Sprintf("%T", msg), "err", err)
		return nil, err
	}
	if err := write(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (app *SimApp) route(ctx context.Context, msg types.Msg) (any, error) {
	s := app.msgServer
	switch m := msg.(type) {
	case *types.MsgCreateCellar:
		return s.CreateCellar(ctx, m)
	case *types.MsgDeposit:
		return s.Deposit(ctx, m)
	case *types.MsgMint:
		return s.Mint(ctx, m)
	case *types.MsgWithdraw:
		return s.Withdraw(ctx, m)
	case *types.MsgRedeem:
		return s.Redeem(ctx, m)
	case *types.MsgTransferShares:
		return s.TransferShares(ctx, m)
	case *types.MsgCallOnAdaptor:
		return s.CallOnAdaptor(ctx, m)
	case *types.MsgSendFees:
		return s.SendFees(ctx, m)
	case *types.MsgSettleFees:
		return s.SettleFees(ctx, m)
	case *types.MsgTrustAdaptor:
		return s.TrustAdaptor(ctx, m)
	case *types.MsgTrustPosition:
		return s.TrustPosition(ctx, m)
	case *types.MsgDistrustPosition:
		return s.DistrustPosition(ctx, m)
	case *types.MsgForcePositionOut:
		return s.ForcePositionOut(ctx, m)
	case *types.MsgAddPosition:
		return s.AddPosition(ctx, m)
	case *types.MsgRemovePosition:
		return s.RemovePosition(ctx, m)
	case *types.MsgSwapPositions:
		return s.SwapPositions(ctx, m)
	case *types.MsgSetHoldingPosition:
		return s.SetHoldingPosition(ctx, m)
	case *types.MsgInitiateShutdown:
		return s.InitiateShutdown(ctx, m)
	case *types.MsgLiftShutdown:
		return s.LiftShutdown(ctx, m)
	case *types.MsgSetRebalanceDeviation:
		return s.SetRebalanceDeviation(ctx, m)
	case *types.MsgSetShareLockPeriod:
		return s.SetShareLockPeriod(ctx, m)
	case *types.MsgSetShareSupplyCap:
		return s.SetShareSupplyCap(ctx, m)
	case *types.MsgSetFeeData:
		return s.SetFeeData(ctx, m)
	case *types.MsgSetStrategistPayoutAddress:
		return s.SetStrategistPayoutAddress(ctx, m)
	case *types.MsgAddAdaptorToCatalogue:
		return s.AddAdaptorToCatalogue(ctx, m)
	case *types.MsgAddPositionToCatalogue:
		return s.AddPositionToCatalogue(ctx, m)
	case *types.MsgUpdateParams:
		return s.UpdateParams(ctx, m)
	default:
		return nil, types.ErrInvalidRequest.Wrapf("unrecognized message type %T", msg)
	}
}
