package mocks

import (
	"context"
	"testing"

	"cosmossdk.io/log"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/bank"
	"github.com/provlabs/cellar/keeper"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
)

// Authority governs keepers built by NewCellarKeeper.
const Authority = "gov"

// NewCellarKeeper returns a Keeper over an in-memory store that prices through
// router and knows the erc20 adaptor plus extra. Only the erc20 adaptor is
// trusted; the default params are set.
func NewCellarKeeper(t testing.TB, router types.PriceRouter, extra ...types.Adaptor) (context.Context, *keeper.Keeper, *bank.Keeper) {
	t.Helper()
	ctx, _ := runtime.DefaultContextWithDB(log.NewTestLogger(t))

	bk := bank.NewKeeper(runtime.NewKVStoreService(bank.ModuleName), runtime.EventService{})
	k := keeper.NewKeeper(
		runtime.NewKVStoreService(types.StoreKey),
		runtime.HeaderService{},
		runtime.EventService{},
		Authority,
		bk,
		router,
		adaptors.NewRouter(append([]types.Adaptor{adaptors.NewERC20Adaptor(bk)}, extra...)...),
	)

	if err := k.Params.Set(ctx, types.DefaultParams()); err != nil {
		t.Fatalf("failed to set params: %v", err)
	}
	if err := k.TrustAdaptor(ctx, Authority, adaptors.ERC20ID); err != nil {
		t.Fatalf("failed to trust %s: %v", adaptors.ERC20ID, err)
	}
	return ctx, k, bk
}
