// Package pricerouter prices assets in USD and converts amounts between them.
// Prices carry PriceDecimals decimals. Derivative assets (pool LP tokens and
// similar) are priced through registered extensions.
package pricerouter

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/event"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/provlabs/cellar/types"
	"github.com/provlabs/cellar/utils"
)

const (
	// ModuleName is the price router store key and error codespace.
	ModuleName    = "pricerouter"
	// PriceDecimals is the fixed precision of every USD price.
	PriceDecimals = 8
	// MaxDecimals bounds the decimals an asset may declare.
	MaxDecimals   = 36

	EventTypePriceUpdated = "price_updated"
)

var (
	ErrAssetNotSupported = errorsmod.Register(ModuleName, 2, "asset not supported")
	ErrZeroPrice         = errorsmod.Register(ModuleName, 3, "price is zero")
	ErrUnknownExtension  = errorsmod.Register(ModuleName, 4, "unknown pricing extension")
	ErrInvalidAsset      = errorsmod.Register(ModuleName, 5, "invalid asset settings")
)

var AssetsPrefix = collections.NewPrefix(0)

// Asset is the pricing configuration of one denom.
type Asset struct {
	Denom    string `json:"denom"`
	Decimals uint32 `json:"decimals"`
	// PriceUSD is the spot price with PriceDecimals decimals. Unused when
	// Extension is set.
	PriceUSD math.Int `json:"price_usd"`
	// Extension names the derivative pricer for this asset, if any.
	Extension string `json:"extension,omitempty"`
}

func (a Asset) Validate() error {
	if a.Denom == "" {
		return ErrInvalidAsset.Wrap("denom cannot be empty")
	}
	if a.Decimals > MaxDecimals {
		return ErrInvalidAsset.Wrapf("%s decimals %d above %d", a.Denom, a.Decimals, MaxDecimals)
	}
	if a.Extension == "" && (a.PriceUSD.IsNil() || a.PriceUSD.IsNegative()) {
		return ErrInvalidAsset.Wrapf("%s price cannot be negative", a.Denom)
	}
	return nil
}

// Extension prices a derivative asset, typically from the assets it redeems to.
type Extension interface {
	Name() string
	PriceInUSD(ctx context.Context, router *Keeper, denom string) (math.Int, error)
}

// Keeper stores asset settings and resolves prices.
type Keeper struct {
	schema       collections.Schema
	eventService event.Service
	extensions   map[string]Extension

	Assets collections.Map[string, Asset]
}

var _ types.PriceRouter = (*Keeper)(nil)

func NewKeeper(storeService store.KVStoreService, eventService event.Service) *Keeper {
	builder := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		eventService: eventService,
		extensions:   make(map[string]Extension),
		Assets:       collections.NewMap(builder, AssetsPrefix, "assets", collections.StringKey, types.JSONValue[Asset]()),
	}

	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}
	k.schema = schema
	return k
}

// RegisterExtension makes a derivative pricer available to AddDerivative.
// It panics on a duplicate name.
func (k *Keeper) RegisterExtension(ext Extension) {
	if _, ok := k.extensions[ext.Name()]; ok {
		panic(fmt.Sprintf("pricing extension %s already registered", ext.Name()))
	}
	k.extensions[ext.Name()] = ext
}

// AddAsset registers or updates a spot priced asset.
func (k *Keeper) AddAsset(ctx context.Context, denom string, decimals uint32, priceUSD math.Int) error {
	return k.setAsset(ctx, Asset{Denom: denom, Decimals: decimals, PriceUSD: priceUSD})
}

// AddDerivative registers an asset priced by the named extension.
func (k *Keeper) AddDerivative(ctx context.Context, denom string, decimals uint32, extension string) error {
	if _, ok := k.extensions[extension]; !ok {
		return ErrUnknownExtension.Wrapf("%q for %s", extension, denom)
	}
	return k.setAsset(ctx, Asset{Denom: denom, Decimals: decimals, PriceUSD: math.ZeroInt(), Extension: extension})
}

// SetPrice updates the spot price of a supported asset.
func (k *Keeper) SetPrice(ctx context.Context, denom string, priceUSD math.Int) error {
	a, err := k.getAsset(ctx, denom)
	if err != nil {
		return err
	}
	if a.Extension != "" {
		return ErrInvalidAsset.Wrapf("%s is priced by extension %s", denom, a.Extension)
	}
	a.PriceUSD = priceUSD
	return k.setAsset(ctx, a)
}

func (k *Keeper) setAsset(ctx context.Context, a Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := k.Assets.Set(ctx, a.Denom, a); err != nil {
		return fmt.Errorf("failed to store asset %s: %w", a.Denom, err)
	}
	return k.eventService.EventManager(ctx).EmitKV(ctx, EventTypePriceUpdated,
		event.Attribute{Key: "denom", Value: a.Denom},
		event.Attribute{Key: "price_usd", Value: a.PriceUSD.String()},
		event.Attribute{Key: "extension", Value: a.Extension},
	)
}

func (k *Keeper) getAsset(ctx context.Context, denom string) (Asset, error) {
	a, err := k.Assets.Get(ctx, denom)
	if errors.Is(err, collections.ErrNotFound) {
		return Asset{}, ErrAssetNotSupported.Wrap(denom)
	}
	return a, err
}

// IsSupported reports whether denom has pricing configured.
func (k *Keeper) IsSupported(ctx context.Context, denom string) bool {
	has, err := k.Assets.Has(ctx, denom)
	return err == nil && has
}

// Decimals returns the decimals of a supported asset.
func (k *Keeper) Decimals(ctx context.Context, denom string) (uint32, error) {
	a, err := k.getAsset(ctx, denom)
	if err != nil {
		return 0, err
	}
	return a.Decimals, nil
}

// GetPriceInUSD returns the USD price of one whole unit of denom. An
// unsupported asset fails with ErrAssetNotSupported, a zero price with
// ErrZeroPrice.
func (k *Keeper) GetPriceInUSD(ctx context.Context, denom string) (math.Int, error) {
	a, err := k.getAsset(ctx, denom)
	if err != nil {
		return math.Int{}, err
	}
	price := a.PriceUSD
	if a.Extension != "" {
		ext, ok := k.extensions[a.Extension]
		if !ok {
			return math.Int{}, ErrUnknownExtension.Wrapf("%q for %s", a.Extension, denom)
		}
		if price, err = ext.PriceInUSD(ctx, k, denom); err != nil {
			return math.Int{}, fmt.Errorf("failed to price %s: %w", denom, err)
		}
	}
	if !price.IsPositive() {
		return math.Int{}, ErrZeroPrice.Wrap(denom)
	}
	return price, nil
}

// GetValue converts amountIn of assetIn into assetOut, rounding down.
//
//	value = amountIn * priceIn * 10^decOut / (priceOut * 10^decIn)
func (k *Keeper) GetValue(ctx context.Context, assetIn string, amountIn math.Int, assetOut string) (math.Int, error) {
	if assetIn == assetOut {
		if !k.IsSupported(ctx, assetIn) {
			return math.Int{}, ErrAssetNotSupported.Wrap(assetIn)
		}
		return amountIn, nil
	}
	if amountIn.IsZero() {
		if !k.IsSupported(ctx, assetIn) {
			return math.Int{}, ErrAssetNotSupported.Wrap(assetIn)
		}
		if !k.IsSupported(ctx, assetOut) {
			return math.Int{}, ErrAssetNotSupported.Wrap(assetOut)
		}
		return math.ZeroInt(), nil
	}

	in, err := k.getAsset(ctx, assetIn)
	if err != nil {
		return math.Int{}, err
	}
	out, err := k.getAsset(ctx, assetOut)
	if err != nil {
		return math.Int{}, err
	}
	priceIn, err := k.GetPriceInUSD(ctx, assetIn)
	if err != nil {
		return math.Int{}, err
	}
	priceOut, err := k.GetPriceInUSD(ctx, assetOut)
	if err != nil {
		return math.Int{}, err
	}

	num := priceIn.Mul(Pow10(out.Decimals))
	den := priceOut.Mul(Pow10(in.Decimals))
	return utils.MulDiv(amountIn, num, den, utils.Floor)
}

// GetValues sums the value of several assets in assetOut.
func (k *Keeper) GetValues(ctx context.Context, amounts map[string]math.Int, assetOut string) (math.Int, error) {
	total := math.ZeroInt()
	for denom, amt := range amounts {
		v, err := k.GetValue(ctx, denom, amt, assetOut)
		if err != nil {
			return math.Int{}, err
		}
		total = total.Add(v)
	}
	return total, nil
}

// ExportAssets returns every configured asset.
func (k *Keeper) ExportAssets(ctx context.Context) ([]Asset, error) {
	var out []Asset
	err := k.Assets.Walk(ctx, nil, func(_ string, a Asset) (bool, error) {
		out = append(out, a)
		return false, nil
	})
	return out, err
}

// InitAssets stores the given assets, used at genesis.
func (k *Keeper) InitAssets(ctx context.Context, assets []Asset) error {
	for _, a := range assets {
		if a.Extension != "" {
			if _, ok := k.extensions[a.Extension]; !ok {
				return ErrUnknownExtension.Wrapf("%q for %s", a.Extension, a.Denom)
			}
		}
		if err := k.setAsset(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Pow10 returns 10^n.
func Pow10(n uint32) math.Int {
	return math.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
}
