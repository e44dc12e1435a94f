package adaptors

import (
	"context"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/protocols/fraxlend"
	"github.com/provlabs/cellar/types"
)

// DefaultMinimumHealthFactor is the health factor a cellar's fraxlend
// positions must keep after a strategist command.
var DefaultMinimumHealthFactor = math.LegacyNewDecWithPrec(105, 2)

var (
	_ types.Adaptor = FraxlendCollateralAdaptor{}
	_ types.Adaptor = FraxlendDebtAdaptor{}
)

// fraxlendBase holds what the collateral and debt adaptors share.
type fraxlendBase struct {
	bank            types.BankKeeper
	pairs           *fraxlend.Keeper
	minHealthFactor math.LegacyDec
}

func (a fraxlendBase) SanityCheck(context.Context) error {
	if a.pairs == nil {
		return types.ErrAdaptorFailedSanityCheck.Wrap("fraxlend keeper not wired")
	}
	if a.minHealthFactor.IsNil() || a.minHealthFactor.LT(math.LegacyOneDec()) {
		return types.ErrAdaptorFailedSanityCheck.Wrap("minimum health factor must be at least 1")
	}
	return nil
}

func (a fraxlendBase) pair(ctx context.Context, adaptorData []byte) (fraxlend.Pair, error) {
	d, err := decode[FraxlendData](adaptorData)
	if err != nil {
		return fraxlend.Pair{}, err
	}
	p, err := a.pairs.GetPair(ctx, d.Pair)
	if err != nil {
		return fraxlend.Pair{}, types.ErrInvalidAdaptorData.Wrapf("pair %q: %s", d.Pair, err)
	}
	return p, nil
}

func (a fraxlendBase) ValidateAdaptorData(ctx context.Context, adaptorData []byte) error {
	_, err := a.pair(ctx, adaptorData)
	return err
}

// HealthFactor returns collateral value times max LTV over the borrowed
// amount. A holder without debt reports ok with a nil factor.
func (a fraxlendBase) HealthFactor(ctx context.Context, pairID, holder string) (math.LegacyDec, bool, error) {
	p, err := a.pairs.GetPair(ctx, pairID)
	if err != nil {
		return math.LegacyDec{}, false, err
	}
	borrowed, err := a.pairs.BorrowedAmount(ctx, pairID, holder)
	if err != nil {
		return math.LegacyDec{}, false, err
	}
	if borrowed.IsZero() {
		return math.LegacyDec{}, false, nil
	}
	value, err := a.pairs.CollateralValue(ctx, pairID, holder)
	if err != nil {
		return math.LegacyDec{}, false, err
	}
	return math.LegacyNewDecFromInt(value).Mul(p.MaxLTV).QuoInt(borrowed), true, nil
}

func (a fraxlendBase) checkHealthFactor(ctx context.Context, env types.Env, pairID string) error {
	hf, hasDebt, err := a.HealthFactor(ctx, pairID, env.Holder())
	if err != nil {
		return err
	}
	if hasDebt && hf.LT(a.minHealthFactor) {
		return types.ErrHealthFactorTooLow.Wrapf("pair %s health factor %s below %s", pairID, hf, a.minHealthFactor)
	}
	return nil
}

// FraxlendCollateralAdaptor tracks collateral posted to a fraxlend pair.
// Users cannot withdraw from it.
type FraxlendCollateralAdaptor struct {
	fraxlendBase
}

func NewFraxlendCollateralAdaptor(bank types.BankKeeper, k *fraxlend.Keeper, minHealthFactor math.LegacyDec) FraxlendCollateralAdaptor {
	return FraxlendCollateralAdaptor{fraxlendBase{bank: bank, pairs: k, minHealthFactor: minHealthFactor}}
}

func (FraxlendCollateralAdaptor) Identifier() string { return FraxlendCollateralID }
func (FraxlendCollateralAdaptor) IsDebt() bool       { return false }

func (a FraxlendCollateralAdaptor) AssetOf(ctx context.Context, adaptorData []byte) (string, error) {
	p, err := a.pair(ctx, adaptorData)
	if err != nil {
		return "", err
	}
	return p.Collateral, nil
}

func (a FraxlendCollateralAdaptor) AssetsUsed(ctx context.Context, adaptorData []byte) ([]string, error) {
	p, err := a.pair(ctx, adaptorData)
	if err != nil {
		return nil, err
	}
	return []string{p.Collateral}, nil
}

func (a FraxlendCollateralAdaptor) BalanceOf(ctx context.Context, env types.Env, adaptorData []byte) (math.Int, error) {
	p, err := a.pair(ctx, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	return a.pairs.UserCollateralBalance(ctx, p.ID, env.Holder())
}

func (FraxlendCollateralAdaptor) WithdrawableFrom(context.Context, types.Env, []byte, []byte) (math.Int, error) {
	return math.ZeroInt(), nil
}

func (a FraxlendCollateralAdaptor) Deposit(ctx context.Context, env types.Env, amount math.Int, adaptorData, _ []byte) error {
	p, err := a.pair(ctx, adaptorData)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	if err := a.pairs.AddCollateral(ctx, env.Holder(), p.ID, amount, env.Holder()); err != nil {
		return protocolError("fraxlend", err)
	}
	return nil
}

func (FraxlendCollateralAdaptor) Withdraw(context.Context, types.Env, types.WithdrawAmount, string, []byte, []byte) error {
	return types.ErrUserWithdrawsNotAllowed.Wrap("fraxlend collateral")
}

func (a FraxlendCollateralAdaptor) Execute(ctx context.Context, env types.Env, cmd types.AdaptorCommand) error {
	switch c := cmd.(type) {
	case AddCollateral:
		if err := requireTracked(ctx, env, FraxlendCollateralID, false, FraxlendData{Pair: c.Pair}); err != nil {
			return err
		}
		p, err := a.pairs.GetPair(ctx, c.Pair)
		if err != nil {
			return err
		}
		amt, err := resolveFromHolder(ctx, a.bank, env, p.Collateral, c.Amount)
		if err != nil {
			return err
		}
		if amt.IsZero() {
			return nil
		}
		if err := a.pairs.AddCollateral(ctx, env.Holder(), p.ID, amt, env.Holder()); err != nil {
			return protocolError("fraxlend", err)
		}
		return nil
	case RemoveCollateral:
		if err := requireTracked(ctx, env, FraxlendCollateralID, false, FraxlendData{Pair: c.Pair}); err != nil {
			return err
		}
		posted, err := a.pairs.UserCollateralBalance(ctx, c.Pair, env.Holder())
		if err != nil {
			return err
		}
		amt, err := c.Amount.Resolve(posted)
		if err != nil {
			return err
		}
		if amt.IsZero() {
			return nil
		}
		if err := a.pairs.RemoveCollateral(ctx, env.Holder(), c.Pair, amt, env.Holder()); err != nil {
			return protocolError("fraxlend", err)
		}
		return a.checkHealthFactor(ctx, env, c.Pair)
	default:
		return unsupported(FraxlendCollateralID, cmd)
	}
}

// FraxlendDebtAdaptor tracks what the cellar owes a fraxlend pair.
type FraxlendDebtAdaptor struct {
	fraxlendBase
}

func NewFraxlendDebtAdaptor(bank types.BankKeeper, k *fraxlend.Keeper, minHealthFactor math.LegacyDec) FraxlendDebtAdaptor {
	return FraxlendDebtAdaptor{fraxlendBase{bank: bank, pairs: k, minHealthFactor: minHealthFactor}}
}

func (FraxlendDebtAdaptor) Identifier() string { return FraxlendDebtID }
func (FraxlendDebtAdaptor) IsDebt() bool       { return true }

func (a FraxlendDebtAdaptor) AssetOf(ctx context.Context, adaptorData []byte) (string, error) {
	p, err := a.pair(ctx, adaptorData)
	if err != nil {
		return "", err
	}
	return p.Asset, nil
}

func (a FraxlendDebtAdaptor) AssetsUsed(ctx context.Context, adaptorData []byte) ([]string, error) {
	p, err := a.pair(ctx, adaptorData)
	if err != nil {
		return nil, err
	}
	return []string{p.Asset}, nil
}

func (a FraxlendDebtAdaptor) BalanceOf(ctx context.Context, env types.Env, adaptorData []byte) (math.Int, error) {
	p, err := a.pair(ctx, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	return a.pairs.BorrowedAmount(ctx, p.ID, env.Holder())
}

func (FraxlendDebtAdaptor) WithdrawableFrom(context.Context, types.Env, []byte, []byte) (math.Int, error) {
	return math.ZeroInt(), nil
}

func (FraxlendDebtAdaptor) Deposit(context.Context, types.Env, math.Int, []byte, []byte) error {
	return types.ErrUserDepositsNotAllowed.Wrap("fraxlend debt")
}

func (FraxlendDebtAdaptor) Withdraw(context.Context, types.Env, types.WithdrawAmount, string, []byte, []byte) error {
	return types.ErrUserWithdrawsNotAllowed.Wrap("fraxlend debt")
}

func (a FraxlendDebtAdaptor) Execute(ctx context.Context, env types.Env, cmd types.AdaptorCommand) error {
	switch c := cmd.(type) {
	case BorrowFromFraxlend:
		if err := requireTracked(ctx, env, FraxlendDebtID, true, FraxlendData{Pair: c.Pair}); err != nil {
			return err
		}
		if c.Amount.IsNil() || !c.Amount.IsPositive() {
			return types.ErrInvalidRequest.Wrap("borrow amount must be positive")
		}
		if _, err := a.pairs.BorrowAsset(ctx, env.Holder(), c.Pair, c.Amount, env.Holder()); err != nil {
			return protocolError("fraxlend", err)
		}
		return a.checkHealthFactor(ctx, env, c.Pair)
	case RepayFraxlendDebt:
		if err := requireTracked(ctx, env, FraxlendDebtID, true, FraxlendData{Pair: c.Pair}); err != nil {
			return err
		}
		p, err := a.pairs.AddInterest(ctx, c.Pair)
		if err != nil {
			return err
		}
		held, err := a.pairs.UserBorrowShares(ctx, p.ID, env.Holder())
		if err != nil {
			return err
		}
		shares := held
		if !c.Amount.IsAll() {
			owed := p.ToBorrowAmount(held, true)
			amt, err := c.Amount.Resolve(owed)
			if err != nil {
				return err
			}
			shares = math.MinInt(held, p.ToBorrowShares(amt, false))
		}
		if shares.IsZero() {
			return nil
		}
		if _, err := a.pairs.RepayAsset(ctx, env.Holder(), p.ID, shares, env.Holder()); err != nil {
			return protocolError("fraxlend", err)
		}
		return nil
	default:
		return unsupported(FraxlendDebtID, cmd)
	}
}
