package curve

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/event"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
)

const ModuleName = "curve"

var (
	PoolsPrefix   = collections.NewPrefix(0)
	LPIndexPrefix = collections.NewPrefix(1)
)

var (
	ErrPoolLocked   = errorsmod.Register(ModuleName, 2, "pool locked")
	ErrSlippage     = errorsmod.Register(ModuleName, 3, "slippage limit exceeded")
	ErrPoolNotFound = errorsmod.Register(ModuleName, 4, "pool not found")
	ErrEmptyPool    = errorsmod.Register(ModuleName, 5, "pool has no liquidity")
)

// Keeper holds the pools. Reserves are the bank balances of the pool address.
type Keeper struct {
	schema       collections.Schema
	eventService event.Service
	bank         types.BankKeeper

	Pools   collections.Map[string, Pool]
	LPIndex collections.Map[string, string]
}

func NewKeeper(storeService store.KVStoreService, eventService event.Service, bank types.BankKeeper) *Keeper {
	builder := collections.NewSchemaBuilder(storeService)
	k := &Keeper{
		eventService: eventService,
		bank:         bank,
		Pools:        collections.NewMap(builder, PoolsPrefix, "pools", collections.StringKey, types.JSONValue[Pool]()),
		LPIndex:      collections.NewMap(builder, LPIndexPrefix, "lp_index", collections.StringKey, collections.StringValue),
	}
	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}
	k.schema = schema
	return k
}

// CreatePool stores a new, empty pool.
func (k *Keeper) CreatePool(ctx context.Context, p Pool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	has, err := k.Pools.Has(ctx, p.ID)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("pool %s already exists", p.ID)
	}
	if has, err = k.LPIndex.Has(ctx, p.LPDenom); err != nil {
		return err
	} else if has {
		return fmt.Errorf("lp denom %s already used", p.LPDenom)
	}
	if err := k.Pools.Set(ctx, p.ID, p); err != nil {
		return err
	}
	return k.LPIndex.Set(ctx, p.LPDenom, p.ID)
}

// GetPool returns a pool by id.
func (k *Keeper) GetPool(ctx context.Context, id string) (Pool, error) {
	p, err := k.Pools.Get(ctx, id)
	if errors.Is(err, collections.ErrNotFound) {
		return Pool{}, ErrPoolNotFound.Wrap(id)
	}
	return p, err
}

// PoolByLP returns the pool issuing lpDenom.
func (k *Keeper) PoolByLP(ctx context.Context, lpDenom string) (Pool, error) {
	id, err := k.LPIndex.Get(ctx, lpDenom)
	if errors.Is(err, collections.ErrNotFound) {
		return Pool{}, ErrPoolNotFound.Wrapf("no pool issues %s", lpDenom)
	}
	if err != nil {
		return Pool{}, err
	}
	return k.GetPool(ctx, id)
}

// Reserves returns the pool balances of both coins.
func (k *Keeper) Reserves(ctx context.Context, p Pool) ([2]math.Int, error) {
	var out [2]math.Int
	for i, c := range p.Coins {
		bal, err := k.bank.GetBalance(ctx, Address(p.ID), c)
		if err != nil {
			return out, err
		}
		out[i] = bal
	}
	return out, nil
}

// normalizedValue is the pool value in LPDecimals units.
func (k *Keeper) normalizedValue(p Pool, reserves [2]math.Int) math.Int {
	return p.normalize(0, reserves[0]).Add(p.normalize(1, reserves[1]))
}

// withLock runs fn on a branch of ctx with the pool marked locked. The branch
// is written, and the lock released, only when fn succeeds.
func (k *Keeper) withLock(ctx context.Context, id string, fn func(ctx context.Context, p Pool) error) error {
	return runtime.Atomic(ctx, func(ctx context.Context) error {
		p, err := k.GetPool(ctx, id)
		if err != nil {
			return err
		}
		if p.Locked {
			return ErrPoolLocked.Wrap(id)
		}
		p.Locked = true
		if err := k.Pools.Set(ctx, id, p); err != nil {
			return err
		}
		if err := fn(ctx, p); err != nil {
			return err
		}
		p.Locked = false
		return k.Pools.Set(ctx, id, p)
	})
}

// AddLiquidity deposits amounts from provider and mints LP tokens, failing
// with ErrSlippage below minLP.
func (k *Keeper) AddLiquidity(ctx context.Context, provider, poolID string, amounts [2]math.Int, minLP math.Int) (math.Int, error) {
	var minted math.Int
	err := k.withLock(ctx, poolID, func(ctx context.Context, p Pool) error {
		reserves, err := k.Reserves(ctx, p)
		if err != nil {
			return err
		}
		supply, err := k.bank.GetSupply(ctx, p.LPDenom)
		if err != nil {
			return err
		}

		deposit := p.normalize(0, amounts[0]).Add(p.normalize(1, amounts[1]))
		minted = deposit
		if poolValue := k.normalizedValue(p, reserves); supply.IsPositive() && poolValue.IsPositive() {
			minted = deposit.Mul(supply).Quo(poolValue)
		}
		if !minted.IsPositive() || minted.LT(minLP) {
			return ErrSlippage.Wrapf("minted %s, minimum %s", minted, minLP)
		}

		for i, c := range p.Coins {
			if err := k.bank.Send(ctx, provider, Address(poolID), c, amounts[i]); err != nil {
				return err
			}
		}
		if err := k.bank.Mint(ctx, provider, p.LPDenom, minted); err != nil {
			return err
		}
		return k.emit(ctx, "curve_add_liquidity", provider, poolID, minted)
	})
	if err != nil {
		return math.Int{}, err
	}
	return minted, nil
}

// RemoveLiquidity burns lp of provider and pays out both coins pro rata,
// rounded down, failing with ErrSlippage below minAmounts.
func (k *Keeper) RemoveLiquidity(ctx context.Context, provider, poolID string, lp math.Int, minAmounts [2]math.Int) ([2]math.Int, error) {
	var out [2]math.Int
	err := k.withLock(ctx, poolID, func(ctx context.Context, p Pool) error {
		reserves, err := k.Reserves(ctx, p)
		if err != nil {
			return err
		}
		supply, err := k.bank.GetSupply(ctx, p.LPDenom)
		if err != nil {
			return err
		}
		if !supply.IsPositive() {
			return ErrEmptyPool.Wrap(poolID)
		}
		for i := range p.Coins {
			out[i] = reserves[i].Mul(lp).Quo(supply)
			if out[i].LT(minAmounts[i]) {
				return ErrSlippage.Wrapf("coin %d out %s, minimum %s", i, out[i], minAmounts[i])
			}
		}

		if err := k.bank.Burn(ctx, provider, p.LPDenom, lp); err != nil {
			return err
		}
		for i, c := range p.Coins {
			if err := k.bank.Send(ctx, Address(poolID), provider, c, out[i]); err != nil {
				return err
			}
		}
		return k.emit(ctx, "curve_remove_liquidity", provider, poolID, lp)
	})
	if err != nil {
		return [2]math.Int{}, err
	}
	return out, nil
}

// Exchange swaps dx of coin i for coin j at par minus the fee. hook, if not
// nil, runs after the input is taken and before the output is paid, while
// the pool is locked.
func (k *Keeper) Exchange(ctx context.Context, trader, poolID string, i int, dx, minDy math.Int, hook func(ctx context.Context) error) (math.Int, error) {
	if i != 0 && i != 1 {
		return math.Int{}, fmt.Errorf("coin index %d out of range", i)
	}
	j := 1 - i
	var dy math.Int
	err := k.withLock(ctx, poolID, func(ctx context.Context, p Pool) error {
		gross := p.denormalize(j, p.normalize(i, dx))
		dy = gross.Sub(math.LegacyNewDecFromInt(gross).Mul(p.Fee).Ceil().TruncateInt())
		if !dy.IsPositive() || dy.LT(minDy) {
			return ErrSlippage.Wrapf("out %s, minimum %s", dy, minDy)
		}

		if err := k.bank.Send(ctx, trader, Address(poolID), p.Coins[i], dx); err != nil {
			return err
		}
		if hook != nil {
			if err := hook(ctx); err != nil {
				return err
			}
		}
		if err := k.bank.Send(ctx, Address(poolID), trader, p.Coins[j], dy); err != nil {
			return err
		}
		return k.emit(ctx, "curve_exchange", trader, poolID, dy)
	})
	if err != nil {
		return math.Int{}, err
	}
	return dy, nil
}

// SetLocked forces the lock flag, for recovering a pool.
func (k *Keeper) SetLocked(ctx context.Context, poolID string, locked bool) error {
	p, err := k.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	p.Locked = locked
	return k.Pools.Set(ctx, poolID, p)
}

func (k *Keeper) emit(ctx context.Context, typ, account, poolID string, amount math.Int) error {
	return k.eventService.EventManager(ctx).EmitKV(ctx, typ,
		event.Attribute{Key: "account", Value: account},
		event.Attribute{Key: "pool", Value: poolID},
		event.Attribute{Key: "amount", Value: amount.String()},
	)
}

// ExportPools returns every pool.
func (k *Keeper) ExportPools(ctx context.Context) ([]Pool, error) {
	var out []Pool
	err := k.Pools.Walk(ctx, nil, func(_ string, p Pool) (bool, error) {
		out = append(out, p)
		return false, nil
	})
	return out, err
}
