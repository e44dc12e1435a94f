package types

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Adaptor translates the generic cellar operations into calls against one
// external protocol. Implementations hold no per-cellar state.
type Adaptor interface {
	// Identifier is the unique id the adaptor is trusted under.
	Identifier() string
	// IsDebt reports whether positions of this adaptor are liabilities.
	IsDebt() bool
	// SanityCheck verifies the adaptor is safe to trust.
	SanityCheck(ctx context.Context) error
	// ValidateAdaptorData checks a position's adaptor data.
	ValidateAdaptorData(ctx context.Context, adaptorData []byte) error
	// AssetOf returns the denom the position balance is expressed in.
	AssetOf(ctx context.Context, adaptorData []byte) (string, error)
	// AssetsUsed returns every denom the position needs priced.
	AssetsUsed(ctx context.Context, adaptorData []byte) ([]string, error)

	// BalanceOf returns the cellar's stake in the wrapped protocol. It must not
	// change state.
	BalanceOf(ctx context.Context, env Env, adaptorData []byte) (sdkmath.Int, error)
	// WithdrawableFrom returns the part of BalanceOf that a user withdrawal can
	// take right now.
	WithdrawableFrom(ctx context.Context, env Env, adaptorData, configData []byte) (sdkmath.Int, error)
	// Deposit moves assets held by the cellar into the position.
	Deposit(ctx context.Context, env Env, amount sdkmath.Int, adaptorData, configData []byte) error
	// Withdraw moves assets out of the position to receiver.
	Withdraw(ctx context.Context, env Env, amount WithdrawAmount, receiver string, adaptorData, configData []byte) error
	// Execute runs a strategist command.
	Execute(ctx context.Context, env Env, cmd AdaptorCommand) error
}

// Env is the view of the calling cellar that adaptors act on behalf of.
type Env interface {
	// CellarID is the calling cellar.
	CellarID() uint32
	// Holder is the address holding the cellar's assets.
	Holder() string
	// BlockExternalReceiver is true while a strategist batch is executing.
	BlockExternalReceiver() bool
	// CheckPositionTracked fails with ErrPositionsMustBeTracked unless the
	// descriptor is a trusted registry position used by the cellar.
	CheckPositionTracked(ctx context.Context, adaptorID string, isDebt bool, adaptorData []byte) error
}

// CheckReceiver enforces that funds only leave to the holder during a batch.
func CheckReceiver(env Env, receiver string) error {
	if env.BlockExternalReceiver() && receiver != env.Holder() {
		return ErrExternalReceiverBlocked.Wrapf("receiver %s is not cellar %d", receiver, env.CellarID())
	}
	return nil
}

// AdaptorCommand is a strategist instruction understood by one adaptor.
type AdaptorCommand interface {
	CommandName() string
}

// AdaptorCall is the list of commands sent to one adaptor within a batch.
type AdaptorCall struct {
	Adaptor  string
	Commands []AdaptorCommand
}

// WithdrawAmount is either an exact amount or the whole available balance.
type WithdrawAmount struct {
	value sdkmath.Int
	all   bool
}

// Exact returns a WithdrawAmount of exactly v.
func Exact(v sdkmath.Int) WithdrawAmount { return WithdrawAmount{value: v} }

// All returns a WithdrawAmount resolving to the full available balance.
func All() WithdrawAmount { return WithdrawAmount{all: true} }

// IsAll reports whether the amount is the All variant.
func (w WithdrawAmount) IsAll() bool { return w.all }

// Resolve returns the concrete amount given the available balance. Exact
// amounts larger than available fail with ErrInsufficientBalance.
func (w WithdrawAmount) Resolve(available sdkmath.Int) (sdkmath.Int, error) {
	if w.all {
		return available, nil
	}
	if w.value.IsNil() || w.value.IsNegative() {
		return sdkmath.Int{}, ErrInvalidRequest.Wrap("amount must be non-negative")
	}
	if w.value.GT(available) {
		return sdkmath.Int{}, ErrInsufficientBalance.Wrapf("requested %s, available %s", w.value, available)
	}
	return w.value, nil
}

func (w WithdrawAmount) String() string {
	if w.all {
		return "all"
	}
	return w.value.String()
}

// MarshalJSON encodes All as the string "all" and Exact as its amount.
func (w WithdrawAmount) MarshalJSON() ([]byte, error) {
	if w.all {
		return json.Marshal("all")
	}
	return json.Marshal(w.value.String())
}

func (w *WithdrawAmount) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	if s == "all" {
		*w = All()
		return nil
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return fmt.Errorf("invalid withdraw amount %q", s)
	}
	*w = Exact(v)
	return nil
}

// LiquidityConfig is the configuration blob understood by adaptors whose
// positions may be marked illiquid per cellar.
type LiquidityConfig struct {
	IsLiquid bool `json:"is_liquid"`
}

// DecodeLiquidityConfig decodes configData, treating empty data as liquid.
func DecodeLiquidityConfig(configData []byte) (LiquidityConfig, error) {
	cfg := LiquidityConfig{IsLiquid: true}
	if len(configData) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return LiquidityConfig{}, ErrInvalidAdaptorData.Wrapf("config data: %s", err)
	}
	return cfg, nil
}
