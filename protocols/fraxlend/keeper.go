package fraxlend

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/event"
	"cosmossdk.io/core/header"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/provlabs/cellar/interest"
	"github.com/provlabs/cellar/types"
)

const ModuleName = "fraxlend"

var (
	PairsPrefix        = collections.NewPrefix(0)
	CollateralPrefix   = collections.NewPrefix(1)
	BorrowSharesPrefix = collections.NewPrefix(2)
)

var (
	ErrInsolvent             = errorsmod.Register(ModuleName, 2, "borrower insolvent")
	ErrInsufficientLiquidity = errorsmod.Register(ModuleName, 3, "insufficient liquidity")
	ErrPairPaused            = errorsmod.Register(ModuleName, 4, "pair paused")
	ErrPairNotFound          = errorsmod.Register(ModuleName, 5, "pair not found")
	ErrExceedsPosition       = errorsmod.Register(ModuleName, 6, "amount exceeds position")
)

// Keeper holds the pairs and per-borrower positions. Collateral and borrowed
// assets are settled through the bank; collateral is valued by the price router.
type Keeper struct {
	schema        collections.Schema
	headerService header.Service
	eventService  event.Service
	bank          types.BankKeeper
	prices        types.PriceRouter

	Pairs        collections.Map[string, Pair]
	Collateral   collections.Map[collections.Pair[string, string], math.Int]
	BorrowShares collections.Map[collections.Pair[string, string], math.Int]
}

func NewKeeper(
	storeService store.KVStoreService,
	headerService header.Service,
	eventService event.Service,
	bank types.BankKeeper,
	prices types.PriceRouter,
) *Keeper {
	builder := collections.NewSchemaBuilder(storeService)
	positionKey := collections.PairKeyCodec(collections.StringKey, collections.StringKey)
	k := &Keeper{
		headerService: headerService,
		eventService:  eventService,
		bank:          bank,
		prices:        prices,
		Pairs:         collections.NewMap(builder, PairsPrefix, "pairs", collections.StringKey, types.JSONValue[Pair]()),
		Collateral:    collections.NewMap(builder, CollateralPrefix, "collateral", positionKey, types.IntValue),
		BorrowShares:  collections.NewMap(builder, BorrowSharesPrefix, "borrow_shares", positionKey, types.IntValue),
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

// CreatePair stores a new pair accruing from the current block time.
func (k *Keeper) CreatePair(ctx context.Context, p Pair) error {
	if err := p.Validate(); err != nil {
		return err
	}
	has, err := k.Pairs.Has(ctx, p.ID)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("pair %s already exists", p.ID)
	}
	p.TotalBorrowAmount = math.ZeroInt()
	p.TotalBorrowShares = math.ZeroInt()
	p.LastAccrual = k.now(ctx)
	return k.Pairs.Set(ctx, p.ID, p)
}

// GetPair returns the stored pair without accruing.
func (k *Keeper) GetPair(ctx context.Context, id string) (Pair, error) {
	p, err := k.Pairs.Get(ctx, id)
	if errors.Is(err, collections.ErrNotFound) {
		return Pair{}, ErrPairNotFound.Wrap(id)
	}
	return p, err
}

// accrued returns the pair with its total borrow grown to the block time.
func (k *Keeper) accrued(ctx context.Context, id string) (Pair, error) {
	p, err := k.GetPair(ctx, id)
	if err != nil {
		return Pair{}, err
	}
	now := k.now(ctx)
	if now > p.LastAccrual {
		if p.TotalBorrowAmount.IsPositive() {
			grown := math.LegacyNewDecFromInt(p.TotalBorrowAmount).Mul(interest.GrowthFactor(p.BorrowRate, now-p.LastAccrual))
			p.TotalBorrowAmount = grown.Ceil().TruncateInt()
		}
		p.LastAccrual = now
	}
	return p, nil
}

// AddInterest persists the accrued total borrow.
func (k *Keeper) AddInterest(ctx context.Context, id string) (Pair, error) {
	p, err := k.accrued(ctx, id)
	if err != nil {
		return Pair{}, err
	}
	return p, k.Pairs.Set(ctx, id, p)
}

func (k *Keeper) position(ctx context.Context, m collections.Map[collections.Pair[string, string], math.Int], pairID, borrower string) (math.Int, error) {
	v, err := m.Get(ctx, collections.Join(pairID, borrower))
	if errors.Is(err, collections.ErrNotFound) {
		return math.ZeroInt(), nil
	}
	return v, err
}

func (k *Keeper) setPosition(ctx context.Context, m collections.Map[collections.Pair[string, string], math.Int], pairID, borrower string, v math.Int) error {
	if v.IsZero() {
		return m.Remove(ctx, collections.Join(pairID, borrower))
	}
	return m.Set(ctx, collections.Join(pairID, borrower), v)
}

// UserCollateralBalance returns the collateral posted by borrower.
func (k *Keeper) UserCollateralBalance(ctx context.Context, pairID, borrower string) (math.Int, error) {
	return k.position(ctx, k.Collateral, pairID, borrower)
}

// UserBorrowShares returns the borrow shares of borrower.
func (k *Keeper) UserBorrowShares(ctx context.Context, pairID, borrower string) (math.Int, error) {
	return k.position(ctx, k.BorrowShares, pairID, borrower)
}

// BorrowedAmount returns what borrower owes as of the block time, rounded up,
// without writing state.
func (k *Keeper) BorrowedAmount(ctx context.Context, pairID, borrower string) (math.Int, error) {
	p, err := k.accrued(ctx, pairID)
	if err != nil {
		return math.Int{}, err
	}
	shares, err := k.UserBorrowShares(ctx, pairID, borrower)
	if err != nil {
		return math.Int{}, err
	}
	return p.ToBorrowAmount(shares, true), nil
}

// CollateralValue returns borrower's collateral valued in the pair asset.
func (k *Keeper) CollateralValue(ctx context.Context, pairID, borrower string) (math.Int, error) {
	p, err := k.GetPair(ctx, pairID)
	if err != nil {
		return math.Int{}, err
	}
	collateral, err := k.UserCollateralBalance(ctx, pairID, borrower)
	if err != nil {
		return math.Int{}, err
	}
	return k.prices.GetValue(ctx, p.Collateral, collateral, p.Asset)
}

// LTV returns borrowed/collateral value scaled by LTVPrecision. A borrower with
// debt and no collateral value reports the maximum int64.
func (k *Keeper) LTV(ctx context.Context, pairID, borrower string) (math.Int, error) {
	borrowed, err := k.BorrowedAmount(ctx, pairID, borrower)
	if err != nil {
		return math.Int{}, err
	}
	if borrowed.IsZero() {
		return math.ZeroInt(), nil
	}
	value, err := k.CollateralValue(ctx, pairID, borrower)
	if err != nil {
		return math.Int{}, err
	}
	if value.IsZero() {
		return math.NewInt(1<<63 - 1), nil
	}
	return borrowed.MulRaw(LTVPrecision).Quo(value), nil
}

// checkSolvent fails with ErrInsolvent when the debt of shares exceeds the
// value of collateral times MaxLTV.
func (k *Keeper) checkSolvent(ctx context.Context, p Pair, borrower string, collateral, shares math.Int) error {
	if shares.IsZero() {
		return nil
	}
	borrowed := p.ToBorrowAmount(shares, true)
	value, err := k.prices.GetValue(ctx, p.Collateral, collateral, p.Asset)
	if err != nil {
		return err
	}
	limit := math.LegacyNewDecFromInt(value).Mul(p.MaxLTV).TruncateInt()
	if borrowed.GT(limit) {
		return ErrInsolvent.Wrapf("%s would owe %s, limit %s", borrower, borrowed, limit)
	}
	return nil
}

// AddCollateral moves amount of collateral from sender into borrower's position.
func (k *Keeper) AddCollateral(ctx context.Context, sender, pairID string, amount math.Int, borrower string) error {
	p, err := k.AddInterest(ctx, pairID)
	if err != nil {
		return err
	}
	if err := k.bank.Send(ctx, sender, Address(pairID), p.Collateral, amount); err != nil {
		return err
	}
	held, err := k.UserCollateralBalance(ctx, pairID, borrower)
	if err != nil {
		return err
	}
	if err := k.setPosition(ctx, k.Collateral, pairID, borrower, held.Add(amount)); err != nil {
		return err
	}
	return k.emit(ctx, "fraxlend_add_collateral", borrower, pairID, amount)
}

// RemoveCollateral returns borrower's collateral to receiver if the position
// stays solvent.
func (k *Keeper) RemoveCollateral(ctx context.Context, borrower, pairID string, amount math.Int, receiver string) error {
	p, err := k.AddInterest(ctx, pairID)
	if err != nil {
		return err
	}
	held, err := k.UserCollateralBalance(ctx, pairID, borrower)
	if err != nil {
		return err
	}
	if amount.GT(held) {
		return ErrExceedsPosition.Wrapf("collateral %s, requested %s", held, amount)
	}
	shares, err := k.UserBorrowShares(ctx, pairID, borrower)
	if err != nil {
		return err
	}
	if err := k.checkSolvent(ctx, p, borrower, held.Sub(amount), shares); err != nil {
		return err
	}
	if err := k.setPosition(ctx, k.Collateral, pairID, borrower, held.Sub(amount)); err != nil {
		return err
	}
	if err := k.bank.Send(ctx, Address(pairID), receiver, p.Collateral, amount); err != nil {
		return err
	}
	return k.emit(ctx, "fraxlend_remove_collateral", borrower, pairID, amount)
}

// BorrowAsset lends amount of the pair asset to receiver against borrower's
// collateral and returns the borrow shares minted.
func (k *Keeper) BorrowAsset(ctx context.Context, borrower, pairID string, amount math.Int, receiver string) (math.Int, error) {
	p, err := k.AddInterest(ctx, pairID)
	if err != nil {
		return math.Int{}, err
	}
	if p.Paused {
		return math.Int{}, ErrPairPaused.Wrap(pairID)
	}
	cash, err := k.bank.GetBalance(ctx, Address(pairID), p.Asset)
	if err != nil {
		return math.Int{}, err
	}
	if amount.GT(cash) {
		return math.Int{}, ErrInsufficientLiquidity.Wrapf("available %s, requested %s", cash, amount)
	}

	shares := p.ToBorrowShares(amount, true)
	p.TotalBorrowAmount = p.TotalBorrowAmount.Add(amount)
	p.TotalBorrowShares = p.TotalBorrowShares.Add(shares)
	held, err := k.UserBorrowShares(ctx, pairID, borrower)
	if err != nil {
		return math.Int{}, err
	}
	collateral, err := k.UserCollateralBalance(ctx, pairID, borrower)
	if err != nil {
		return math.Int{}, err
	}
	if err := k.checkSolvent(ctx, p, borrower, collateral, held.Add(shares)); err != nil {
		return math.Int{}, err
	}
	if err := k.Pairs.Set(ctx, pairID, p); err != nil {
		return math.Int{}, err
	}
	if err := k.setPosition(ctx, k.BorrowShares, pairID, borrower, held.Add(shares)); err != nil {
		return math.Int{}, err
	}
	if err := k.bank.Send(ctx, Address(pairID), receiver, p.Asset, amount); err != nil {
		return math.Int{}, err
	}
	return shares, k.emit(ctx, "fraxlend_borrow", borrower, pairID, amount)
}

// RepayAsset burns shares of borrower's debt, paid by payer, and returns the
// asset amount charged, rounded up.
func (k *Keeper) RepayAsset(ctx context.Context, payer, pairID string, shares math.Int, borrower string) (math.Int, error) {
	p, err := k.AddInterest(ctx, pairID)
	if err != nil {
		return math.Int{}, err
	}
	held, err := k.UserBorrowShares(ctx, pairID, borrower)
	if err != nil {
		return math.Int{}, err
	}
	if shares.GT(held) {
		return math.Int{}, ErrExceedsPosition.Wrapf("borrow shares %s, requested %s", held, shares)
	}

	amount := p.ToBorrowAmount(shares, true)
	if amount.GT(p.TotalBorrowAmount) {
		amount = p.TotalBorrowAmount
	}
	if err := k.bank.Send(ctx, payer, Address(pairID), p.Asset, amount); err != nil {
		return math.Int{}, err
	}
	p.TotalBorrowAmount = p.TotalBorrowAmount.Sub(amount)
	p.TotalBorrowShares = p.TotalBorrowShares.Sub(shares)
	if err := k.Pairs.Set(ctx, pairID, p); err != nil {
		return math.Int{}, err
	}
	if err := k.setPosition(ctx, k.BorrowShares, pairID, borrower, held.Sub(shares)); err != nil {
		return math.Int{}, err
	}
	return amount, k.emit(ctx, "fraxlend_repay", borrower, pairID, amount)
}

// Lend supplies pair asset liquidity from lender.
func (k *Keeper) Lend(ctx context.Context, lender, pairID string, amount math.Int) error {
	p, err := k.GetPair(ctx, pairID)
	if err != nil {
		return err
	}
	return k.bank.Send(ctx, lender, Address(pairID), p.Asset, amount)
}

// SetPaused pauses or resumes borrowing.
func (k *Keeper) SetPaused(ctx context.Context, pairID string, paused bool) error {
	p, err := k.AddInterest(ctx, pairID)
	if err != nil {
		return err
	}
	p.Paused = paused
	return k.Pairs.Set(ctx, pairID, p)
}

func (k *Keeper) emit(ctx context.Context, typ, borrower, pairID string, amount math.Int) error {
	return k.eventService.EventManager(ctx).EmitKV(ctx, typ,
		event.Attribute{Key: "borrower", Value: borrower},
		event.Attribute{Key: "pair", Value: pairID},
		event.Attribute{Key: "amount", Value: amount.String()},
	)
}

// ExportPairs returns every pair.
func (k *Keeper) ExportPairs(ctx context.Context) ([]Pair, error) {
	var out []Pair
	err := k.Pairs.Walk(ctx, nil, func(_ string, p Pair) (bool, error) {
		out = append(out, p)
		return false, nil
	})
	return out, err
}
