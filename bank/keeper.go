// Package bank is the token ledger the cellars and external protocols settle
// against: per-address balances and per-denom supply.
package bank

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/event"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/provlabs/cellar/types"
)

// ModuleName is the bank store key and error codespace.
const ModuleName = "bank"

var (
	BalancesPrefix = collections.NewPrefix(0)
	SupplyPrefix   = collections.NewPrefix(1)
)

var (
	ErrInsufficientFunds = errorsmod.Register(ModuleName, 2, "insufficient funds")
	ErrInvalidAmount     = errorsmod.Register(ModuleName, 3, "invalid amount")
	ErrInvalidAddress    = errorsmod.Register(ModuleName, 4, "invalid address")
)

const (
	EventTypeTransfer = "transfer"
	EventTypeMint     = "mint"
	EventTypeBurn     = "burn"
)

// Keeper stores balances keyed by (address, denom) and the supply per denom.
type Keeper struct {
	schema       collections.Schema
	eventService event.Service

	Balances collections.Map[collections.Pair[string, string], math.Int]
	Supply   collections.Map[string, math.Int]
}

var _ types.BankKeeper = (*Keeper)(nil)

func NewKeeper(storeService store.KVStoreService, eventService event.Service) *Keeper {
	builder := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		eventService: eventService,
		Balances: collections.NewMap(builder, BalancesPrefix, "balances",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey), types.IntValue),
		Supply: collections.NewMap(builder, SupplyPrefix, "supply", collections.StringKey, types.IntValue),
	}

	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}
	k.schema = schema
	return k
}

// GetBalance returns the balance of addr in denom, zero when unset.
func (k *Keeper) GetBalance(ctx context.Context, addr, denom string) (math.Int, error) {
	bal, err := k.Balances.Get(ctx, collections.Join(addr, denom))
	if errors.Is(err, collections.ErrNotFound) {
		return math.ZeroInt(), nil
	}
	return bal, err
}

// GetAllBalances returns every non-zero balance of addr keyed by denom.
func (k *Keeper) GetAllBalances(ctx context.Context, addr string) (map[string]math.Int, error) {
	out := make(map[string]math.Int)
	rng := collections.NewPrefixedPairRange[string, string](addr)
	err := k.Balances.Walk(ctx, rng, func(key collections.Pair[string, string], bal math.Int) (bool, error) {
		out[key.K2()] = bal
		return false, nil
	})
	return out, err
}

// GetSupply returns the total supply of denom, zero when unset.
func (k *Keeper) GetSupply(ctx context.Context, denom string) (math.Int, error) {
	supply, err := k.Supply.Get(ctx, denom)
	if errors.Is(err, collections.ErrNotFound) {
		return math.ZeroInt(), nil
	}
	return supply, err
}

// Send moves amount of denom from one address to another.
func (k *Keeper) Send(ctx context.Context, from, to, denom string, amount math.Int) error {
	if err := validateTransfer(denom, amount, from, to); err != nil {
		return err
	}
	if amount.IsZero() || from == to {
		return nil
	}
	if err := k.subBalance(ctx, from, denom, amount); err != nil {
		return err
	}
	if err := k.addBalance(ctx, to, denom, amount); err != nil {
		return err
	}
	return k.eventService.EventManager(ctx).EmitKV(ctx, EventTypeTransfer,
		event.Attribute{Key: "sender", Value: from},
		event.Attribute{Key: "recipient", Value: to},
		event.Attribute{Key: "amount", Value: amount.String() + denom},
	)
}

// Mint creates amount of denom in addr, increasing supply.
func (k *Keeper) Mint(ctx context.Context, addr, denom string, amount math.Int) error {
	if err := validateTransfer(denom, amount, addr); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	if err := k.addBalance(ctx, addr, denom, amount); err != nil {
		return err
	}
	if err := k.addSupply(ctx, denom, amount); err != nil {
		return err
	}
	return k.eventService.EventManager(ctx).EmitKV(ctx, EventTypeMint,
		event.Attribute{Key: "recipient", Value: addr},
		event.Attribute{Key: "amount", Value: amount.String() + denom},
	)
}

// Burn destroys amount of denom held by addr, decreasing supply.
func (k *Keeper) Burn(ctx context.Context, addr, denom string, amount math.Int) error {
	if err := validateTransfer(denom, amount, addr); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	if err := k.subBalance(ctx, addr, denom, amount); err != nil {
		return err
	}
	if err := k.addSupply(ctx, denom, amount.Neg()); err != nil {
		return err
	}
	return k.eventService.EventManager(ctx).EmitKV(ctx, EventTypeBurn,
		event.Attribute{Key: "burner", Value: addr},
		event.Attribute{Key: "amount", Value: amount.String() + denom},
	)
}

func validateTransfer(denom string, amount math.Int, addrs ...string) error {
	if denom == "" {
		return ErrInvalidAmount.Wrap("denom cannot be empty")
	}
	if amount.IsNil() || amount.IsNegative() {
		return ErrInvalidAmount.Wrapf("amount %s must be non-negative", amount)
	}
	for _, a := range addrs {
		if a == "" {
			return ErrInvalidAddress.Wrap("address cannot be empty")
		}
	}
	return nil
}

func (k *Keeper) addBalance(ctx context.Context, addr, denom string, amount math.Int) error {
	bal, err := k.GetBalance(ctx, addr, denom)
	if err != nil {
		return err
	}
	return k.Balances.Set(ctx, collections.Join(addr, denom), bal.Add(amount))
}

func (k *Keeper) subBalance(ctx context.Context, addr, denom string, amount math.Int) error {
	bal, err := k.GetBalance(ctx, addr, denom)
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return ErrInsufficientFunds.Wrapf("%s has %s%s, needs %s%s", addr, bal, denom, amount, denom)
	}
	rest := bal.Sub(amount)
	if rest.IsZero() {
		return k.Balances.Remove(ctx, collections.Join(addr, denom))
	}
	return k.Balances.Set(ctx, collections.Join(addr, denom), rest)
}

func (k *Keeper) addSupply(ctx context.Context, denom string, delta math.Int) error {
	supply, err := k.GetSupply(ctx, denom)
	if err != nil {
		return err
	}
	next := supply.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("supply of %s cannot go negative", denom)
	}
	if next.IsZero() {
		return k.Supply.Remove(ctx, denom)
	}
	return k.Supply.Set(ctx, denom, next)
}

// Balance is one exported balance entry.
type Balance struct {
	Address string   `json:"address"`
	Denom   string   `json:"denom"`
	Amount  math.Int `json:"amount"`
}

// ExportBalances returns every stored balance in key order.
func (k *Keeper) ExportBalances(ctx context.Context) ([]Balance, error) {
	var out []Balance
	err := k.Balances.Walk(ctx, nil, func(key collections.Pair[string, string], bal math.Int) (bool, error) {
		out = append(out, Balance{Address: key.K1(), Denom: key.K2(), Amount: bal})
		return false, nil
	})
	return out, err
}

// InitBalances mints the given balances, used at genesis.
func (k *Keeper) InitBalances(ctx context.Context, balances []Balance) error {
	for _, b := range balances {
		if err := k.Mint(ctx, b.Address, b.Denom, b.Amount); err != nil {
			return fmt.Errorf("failed to init balance of %s: %w", b.Address, err)
		}
	}
	return nil
}
