package keeper

import (
	"context"
	"fmt"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/event"
	"cosmossdk.io/core/header"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"

	"github.com/provlabs/cellar/container"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
)

type Keeper struct {
	schema        collections.Schema
	eventService  event.Service
	headerService header.Service
	authority     string

	BankKeeper    types.BankKeeper
	PriceRouter   types.PriceRouter
	AdaptorRouter types.AdaptorRouter
	metrics       *Metrics

	Params              collections.Item[types.Params]
	TrustedAdaptors     collections.KeySet[string]
	Positions           collections.Map[uint32, types.Position]
	PositionDescriptors collections.Map[string, uint32]
	Cellars             collections.Map[uint32, types.Cellar]
	CellarSeq           collections.Sequence
	CellarPositions     collections.Map[collections.Pair[uint32, uint32], types.CellarPosition]
	AdaptorCatalogue    collections.Map[collections.Pair[uint32, string], types.AdaptorCatalogueEntry]
	PositionCatalogue   collections.KeySet[collections.Pair[uint32, uint32]]
	ShareLocks          collections.Map[collections.Pair[uint32, string], int64]
	FeeAccrualQueue     container.PriorityQueue
}

func NewKeeper(
	storeService store.KVStoreService,
	headerService header.Service,
	eventService event.Service,
	authority string,
	bankKeeper types.BankKeeper,
	priceRouter types.PriceRouter,
	adaptorRouter types.AdaptorRouter,
) *Keeper {
	if strings.TrimSpace(authority) == "" {
		panic(fmt.Sprintf("invalid authority address %q", authority))
	}

	builder := collections.NewSchemaBuilder(storeService)

	keeper := &Keeper{
		eventService:  eventService,
		headerService: headerService,
		authority:     authority,
		BankKeeper:    bankKeeper,
		PriceRouter:   priceRouter,
		AdaptorRouter: adaptorRouter,
		metrics:       NewMetrics(),

		Params:              collections.NewItem(builder, types.ParamsKeyPrefix, types.ParamsName, types.JSONValue[types.Params]()),
		TrustedAdaptors:     collections.NewKeySet(builder, types.AdaptorsKeyPrefix, types.AdaptorsName, collections.StringKey),
		Positions:           collections.NewMap(builder, types.PositionsKeyPrefix, types.PositionsName, collections.Uint32Key, types.JSONValue[types.Position]()),
		PositionDescriptors: collections.NewMap(builder, types.PositionDescriptorsKeyPrefix, types.PositionDescriptorsName, collections.StringKey, collections.Uint32Value),
		Cellars:             collections.NewMap(builder, types.CellarsKeyPrefix, types.CellarsName, collections.Uint32Key, types.JSONValue[types.Cellar]()),
		CellarSeq:           collections.NewSequence(builder, types.CellarSeqKeyPrefix, types.CellarSeqName),
		CellarPositions:     collections.NewMap(builder, types.CellarPositionsKeyPrefix, types.CellarPositionsName, collections.PairKeyCodec(collections.Uint32Key, collections.Uint32Key), types.JSONValue[types.CellarPosition]()),
		AdaptorCatalogue:    collections.NewMap(builder, types.AdaptorCatalogueKeyPrefix, types.AdaptorCatalogueName, collections.PairKeyCodec(collections.Uint32Key, collections.StringKey), types.JSONValue[types.AdaptorCatalogueEntry]()),
		PositionCatalogue:   collections.NewKeySet(builder, types.PositionCatalogueKeyPrefix, types.PositionCatalogueName, collections.PairKeyCodec(collections.Uint32Key, collections.Uint32Key)),
		ShareLocks:          collections.NewMap(builder, types.ShareLocksKeyPrefix, types.ShareLocksName, collections.PairKeyCodec(collections.Uint32Key, collections.StringKey), collections.Int64Value),
		FeeAccrualQueue:     container.NewPriorityQueue(builder, types.FeeAccrualQueueKeyPrefix, types.FeeAccrualQueueName),
	}

	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}

	keeper.schema = schema
	return keeper
}

// GetAuthority returns the module's authority.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// Metrics returns the keeper's prometheus collectors.
func (k Keeper) Metrics() *Metrics {
	return k.metrics
}

// getLogger returns a logger with cellar module context.
func (k Keeper) getLogger(ctx context.Context) log.Logger {
	return runtime.Logger(ctx).With("module", "x/"+types.ModuleName)
}

// emit records a module event.
func (k Keeper) emit(ctx context.Context, ev types.Event) error {
	return k.eventService.EventManager(ctx).EmitKV(ctx, ev.EventType(), ev.Attributes()...)
}

func (k Keeper) blockHeight(ctx context.Context) int64 {
	return k.headerService.GetHeaderInfo(ctx).Height
}

func (k Keeper) blockTime(ctx context.Context) int64 {
	return k.headerService.GetHeaderInfo(ctx).Time.Unix()
}
