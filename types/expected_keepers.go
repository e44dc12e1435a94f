package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// BankKeeper defines the token ledger the cellars settle against.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr, denom string) (sdkmath.Int, error)
	GetSupply(ctx context.Context, denom string) (sdkmath.Int, error)
	Send(ctx context.Context, from, to, denom string, amount sdkmath.Int) error
	Mint(ctx context.Context, to, denom string, amount sdkmath.Int) error
	Burn(ctx context.Context, from, denom string, amount sdkmath.Int) error
}

// PriceRouter converts between assets. Unsupported assets must fail with an
// error distinct from a zero price.
type PriceRouter interface {
	IsSupported(ctx context.Context, denom string) bool
	GetValue(ctx context.Context, assetIn string, amountIn sdkmath.Int, assetOut string) (sdkmath.Int, error)
	GetPriceInUSD(ctx context.Context, denom string) (sdkmath.Int, error)
}

// AdaptorRouter resolves adaptor ids to implementations.
type AdaptorRouter interface {
	Adaptor(id string) (Adaptor, bool)
}

//go:generate go run go.uber.org/mock/mockgen -destination ../utils/mocks/expected_keepers.go -package mocks github.com/provlabs/cellar/types CellarKeeper,PriceRouter

// CellarKeeper is the subset of the cellar keeper a nested cellar adaptor uses.
type CellarKeeper interface {
	GetCellar(ctx context.Context, cellarID uint32) (Cellar, error)
	Deposit(ctx context.Context, depositor string, cellarID uint32, assets sdkmath.Int, receiver string) (sdkmath.Int, error)
	Withdraw(ctx context.Context, cellarID uint32, assets sdkmath.Int, receiver, owner string) (sdkmath.Int, error)
	PreviewRedeem(ctx context.Context, cellarID uint32, shares sdkmath.Int) (sdkmath.Int, error)
	MaxWithdraw(ctx context.Context, cellarID uint32, owner string) (sdkmath.Int, error)
}
