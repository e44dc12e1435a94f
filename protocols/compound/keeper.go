package compound

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/event"
	"cosmossdk.io/core/header"
	"cosmossdk.io/core/store"
	"cosmossdk.io/math"

	"github.com/provlabs/cellar/interest"
	"github.com/provlabs/cellar/types"
)

const ModuleName = "compound"

var MarketsPrefix = collections.NewPrefix(0)

// Keeper holds the markets. Balances of cTokens and underlying live in the bank.
type Keeper struct {
	schema        collections.Schema
	headerService header.Service
	eventService  event.Service
	bank          types.BankKeeper

	Markets collections.Map[string, Market]
}

func NewKeeper(storeService store.KVStoreService, headerService header.Service, eventService event.Service, bank types.BankKeeper) *Keeper {
	builder := collections.NewSchemaBuilder(storeService)
	k := &Keeper{
		headerService: headerService,
		eventService:  eventService,
		bank:          bank,
		Markets:       collections.NewMap(builder, MarketsPrefix, "markets", collections.StringKey, types.JSONValue[Market]()),
	}
	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}
	k.schema = schema
	return k
}

func (k *Keeper) now(ctx context.Context) int64 {
	return k.headerService.GetHeaderInfo(ctx).Time.Unix()
}

// CreateMarket stores a new market accruing from the current block time.
func (k *Keeper) CreateMarket(ctx context.Context, m Market) error {
	if err := m.Validate(); err != nil {
		return err
	}
	has, err := k.Markets.Has(ctx, m.ID)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("market %s already exists", m.ID)
	}
	m.LastAccrual = k.now(ctx)
	return k.Markets.Set(ctx, m.ID, m)
}

// GetMarket returns the stored market without accruing.
func (k *Keeper) GetMarket(ctx context.Context, id string) (Market, error) {
	m, err := k.Markets.Get(ctx, id)
	if errors.Is(err, collections.ErrNotFound) {
		return Market{}, fmt.Errorf("market %s not found", id)
	}
	return m, err
}

// accrued returns the market with its exchange rate grown to the block time.
func (k *Keeper) accrued(ctx context.Context, id string) (Market, error) {
	m, err := k.GetMarket(ctx, id)
	if err != nil {
		return Market{}, err
	}
	now := k.now(ctx)
	if now > m.LastAccrual {
		m.ExchangeRate = interest.AccrueIndex(m.ExchangeRate, m.SupplyRate, now-m.LastAccrual)
		m.LastAccrual = now
	}
	return m, nil
}

// AccrueInterest persists the accrued exchange rate. The interest owed to
// suppliers is paid in by the borrowers account.
func (k *Keeper) AccrueInterest(ctx context.Context, id string) (Market, error) {
	before, err := k.GetMarket(ctx, id)
	if err != nil {
		return Market{}, err
	}
	m, err := k.accrued(ctx, id)
	if err != nil {
		return Market{}, err
	}
	if m.LastAccrual == before.LastAccrual {
		return m, nil
	}

	supply, err := k.bank.GetSupply(ctx, m.ID)
	if err != nil {
		return Market{}, err
	}
	owedBefore := math.LegacyNewDecFromInt(supply).Mul(before.ExchangeRate).TruncateInt()
	owedAfter := math.LegacyNewDecFromInt(supply).Mul(m.ExchangeRate).TruncateInt()
	if earned := owedAfter.Sub(owedBefore); earned.IsPositive() {
		if err := k.bank.Mint(ctx, Address(m.ID), m.Underlying, earned); err != nil {
			return Market{}, fmt.Errorf("failed to pay interest: %w", err)
		}
	}
	return m, k.Markets.Set(ctx, m.ID, m)
}

// ExchangeRateCurrent returns the exchange rate accrued to the block time
// without writing state.
func (k *Keeper) ExchangeRateCurrent(ctx context.Context, id string) (math.LegacyDec, error) {
	m, err := k.accrued(ctx, id)
	if err != nil {
		return math.LegacyDec{}, err
	}
	return m.ExchangeRate, nil
}

// BalanceOfUnderlying returns the underlying value of holder's cTokens,
// rounded down, without writing state.
func (k *Keeper) BalanceOfUnderlying(ctx context.Context, id, holder string) (math.Int, error) {
	rate, err := k.ExchangeRateCurrent(ctx, id)
	if err != nil {
		return math.Int{}, err
	}
	ctokens, err := k.bank.GetBalance(ctx, holder, id)
	if err != nil {
		return math.Int{}, err
	}
	return math.LegacyNewDecFromInt(ctokens).Mul(rate).TruncateInt(), nil
}

// GetCash returns the underlying the market can pay out right now.
func (k *Keeper) GetCash(ctx context.Context, id string) (math.Int, error) {
	m, err := k.GetMarket(ctx, id)
	if err != nil {
		return math.Int{}, err
	}
	return k.bank.GetBalance(ctx, Address(id), m.Underlying)
}

// Mint supplies underlying from minter and mints cTokens to minter.
func (k *Keeper) Mint(ctx context.Context, minter, id string, amount math.Int) (Code, error) {
	m, err := k.AccrueInterest(ctx, id)
	if err != nil {
		return NoError, err
	}
	if m.Paused {
		return Rejection, nil
	}
	ctokens := math.LegacyNewDecFromInt(amount).Quo(m.ExchangeRate).TruncateInt()
	if !ctokens.IsPositive() {
		return Rejection, nil
	}
	if err := k.bank.Send(ctx, minter, Address(id), m.Underlying, amount); err != nil {
		return NoError, err
	}
	if err := k.bank.Mint(ctx, minter, id, ctokens); err != nil {
		return NoError, err
	}
	return NoError, k.emit(ctx, "compound_mint", minter, id, amount)
}

// Redeem burns cTokens of redeemer and pays out the underlying, rounded down.
func (k *Keeper) Redeem(ctx context.Context, redeemer, id string, ctokens math.Int) (Code, error) {
	m, err := k.AccrueInterest(ctx, id)
	if err != nil {
		return NoError, err
	}
	amount := math.LegacyNewDecFromInt(ctokens).Mul(m.ExchangeRate).TruncateInt()
	return k.redeem(ctx, m, redeemer, ctokens, amount)
}

// RedeemUnderlying pays out exactly amount of underlying, burning the cTokens
// it costs rounded up.
func (k *Keeper) RedeemUnderlying(ctx context.Context, redeemer, id string, amount math.Int) (Code, error) {
	m, err := k.AccrueInterest(ctx, id)
	if err != nil {
		return NoError, err
	}
	ctokens := math.LegacyNewDecFromInt(amount).Quo(m.ExchangeRate).Ceil().TruncateInt()
	return k.redeem(ctx, m, redeemer, ctokens, amount)
}

func (k *Keeper) redeem(ctx context.Context, m Market, redeemer string, ctokens, amount math.Int) (Code, error) {
	held, err := k.bank.GetBalance(ctx, redeemer, m.ID)
	if err != nil {
		return NoError, err
	}
	if ctokens.GT(held) {
		return Rejection, nil
	}
	cash, err := k.bank.GetBalance(ctx, Address(m.ID), m.Underlying)
	if err != nil {
		return NoError, err
	}
	if amount.GT(cash) {
		return InsufficientCash, nil
	}
	if err := k.bank.Burn(ctx, redeemer, m.ID, ctokens); err != nil {
		return NoError, err
	}
	if err := k.bank.Send(ctx, Address(m.ID), redeemer, m.Underlying, amount); err != nil {
		return NoError, err
	}
	return NoError, k.emit(ctx, "compound_redeem", redeemer, m.ID, amount)
}

// SetPaused pauses or resumes minting.
func (k *Keeper) SetPaused(ctx context.Context, id string, paused bool) error {
	m, err := k.AccrueInterest(ctx, id)
	if err != nil {
		return err
	}
	m.Paused = paused
	return k.Markets.Set(ctx, id, m)
}

// SetSupplyRate changes the supply rate going forward.
func (k *Keeper) SetSupplyRate(ctx context.Context, id string, rate math.LegacyDec) error {
	if rate.IsNil() || rate.IsNegative() {
		return fmt.Errorf("supply rate cannot be negative")
	}
	m, err := k.AccrueInterest(ctx, id)
	if err != nil {
		return err
	}
	m.SupplyRate = rate
	return k.Markets.Set(ctx, id, m)
}

// LendOut moves market cash to the borrowers account, reducing liquidity.
func (k *Keeper) LendOut(ctx context.Context, id string, amount math.Int) error {
	m, err := k.GetMarket(ctx, id)
	if err != nil {
		return err
	}
	return k.bank.Send(ctx, Address(id), BorrowersAddress(id), m.Underlying, amount)
}

// RepayIn returns cash from the borrowers account to the market.
func (k *Keeper) RepayIn(ctx context.Context, id string, amount math.Int) error {
	m, err := k.GetMarket(ctx, id)
	if err != nil {
		return err
	}
	return k.bank.Send(ctx, BorrowersAddress(id), Address(id), m.Underlying, amount)
}

func (k *Keeper) emit(ctx context.Context, typ, account, market string, amount math.Int) error {
	return k.eventService.EventManager(ctx).EmitKV(ctx, typ,
		event.Attribute{Key: "account", Value: account},
		event.Attribute{Key: "market", Value: market},
		event.Attribute{Key: "amount", Value: amount.String()},
	)
}

// ExportMarkets returns every market.
func (k *Keeper) ExportMarkets(ctx context.Context) ([]Market, error) {
	var out []Market
	err := k.Markets.Walk(ctx, nil, func(_ string, m Market) (bool, error) {
		out = append(out, m)
		return false, nil
	})
	return out, err
}
