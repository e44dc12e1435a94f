package adaptors

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/protocols/curve"
	"github.com/provlabs/cellar/types"
)

var _ types.Adaptor = CurveAdaptor{}

// CurveAdaptor tracks LP tokens of a two-coin pool. Balances are refused while
// the pool is locked mid-operation.
type CurveAdaptor struct {
	bank  types.BankKeeper
	pools *curve.Keeper
}

func NewCurveAdaptor(bank types.BankKeeper, k *curve.Keeper) CurveAdaptor {
	return CurveAdaptor{bank: bank, pools: k}
}

func (CurveAdaptor) Identifier() string { return CurveID }
func (CurveAdaptor) IsDebt() bool       { return false }

func (a CurveAdaptor) SanityCheck(context.Context) error {
	if a.pools == nil {
		return types.ErrAdaptorFailedSanityCheck.Wrap("curve keeper not wired")
	}
	return nil
}

func (a CurveAdaptor) pool(ctx context.Context, adaptorData []byte) (curve.Pool, error) {
	d, err := decode[CurveData](adaptorData)
	if err != nil {
		return curve.Pool{}, err
	}
	p, err := a.pools.GetPool(ctx, d.Pool)
	if err != nil {
		return curve.Pool{}, types.ErrInvalidAdaptorData.Wrapf("pool %q: %s", d.Pool, err)
	}
	return p, nil
}

func (a CurveAdaptor) ValidateAdaptorData(ctx context.Context, adaptorData []byte) error {
	_, err := a.pool(ctx, adaptorData)
	return err
}

func (a CurveAdaptor) AssetOf(ctx context.Context, adaptorData []byte) (string, error) {
	p, err := a.pool(ctx, adaptorData)
	if err != nil {
		return "", err
	}
	return p.LPDenom, nil
}

// AssetsUsed includes both pool coins since the LP price is derived from them.
func (a CurveAdaptor) AssetsUsed(ctx context.Context, adaptorData []byte) ([]string, error) {
	p, err := a.pool(ctx, adaptorData)
	if err != nil {
		return nil, err
	}
	return []string{p.LPDenom, p.Coins[0], p.Coins[1]}, nil
}

func (a CurveAdaptor) BalanceOf(ctx context.Context, env types.Env, adaptorData []byte) (math.Int, error) {
	p, err := a.pool(ctx, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	if p.Locked {
		return math.Int{}, types.ErrPoolInReenteredState.Wrap(p.ID)
	}
	return a.bank.GetBalance(ctx, env.Holder(), p.LPDenom)
}

func (CurveAdaptor) WithdrawableFrom(context.Context, types.Env, []byte, []byte) (math.Int, error) {
	return math.ZeroInt(), nil
}

func (CurveAdaptor) Deposit(context.Context, types.Env, math.Int, []byte, []byte) error {
	return types.ErrUserDepositsNotAllowed.Wrap("curve lp")
}

func (CurveAdaptor) Withdraw(context.Context, types.Env, types.WithdrawAmount, string, []byte, []byte) error {
	return types.ErrUserWithdrawsNotAllowed.Wrap("curve lp")
}

func (a CurveAdaptor) Execute(ctx context.Context, env types.Env, cmd types.AdaptorCommand) error {
	switch c := cmd.(type) {
	case AddLiquidity:
		if err := requireTracked(ctx, env, CurveID, false, CurveData{Pool: c.Pool}); err != nil {
			return err
		}
		p, err := a.unlockedPool(ctx, c.Pool)
		if err != nil {
			return err
		}
		var amounts [2]math.Int
		for i := range amounts {
			amounts[i], err = resolveFromHolder(ctx, a.bank, env, p.Coins[i], c.Amounts[i])
			if err != nil {
				return err
			}
		}
		minLP := c.MinLP
		if minLP.IsNil() {
			minLP = math.ZeroInt()
		}
		if _, err := a.pools.AddLiquidity(ctx, env.Holder(), p.ID, amounts, minLP); err != nil {
			return curveError(err)
		}
		_, err = a.unlockedPool(ctx, p.ID)
		return err
	case RemoveLiquidity:
		p, err := a.unlockedPool(ctx, c.Pool)
		if err != nil {
			return err
		}
		for _, coin := range p.Coins {
			if err := requireTracked(ctx, env, ERC20ID, false, ERC20Data{Token: coin}); err != nil {
				return err
			}
		}
		lp, err := resolveFromHolder(ctx, a.bank, env, p.LPDenom, c.LP)
		if err != nil {
			return err
		}
		if lp.IsZero() {
			return nil
		}
		minAmounts := c.MinAmounts
		for i := range minAmounts {
			if minAmounts[i].IsNil() {
				minAmounts[i] = math.ZeroInt()
			}
		}
		if _, err := a.pools.RemoveLiquidity(ctx, env.Holder(), p.ID, lp, minAmounts); err != nil {
			return curveError(err)
		}
		_, err = a.unlockedPool(ctx, p.ID)
		return err
	default:
		return unsupported(CurveID, cmd)
	}
}

// unlockedPool loads a pool, failing with ErrPoolInReenteredState while it is
// mid-operation.
func (a CurveAdaptor) unlockedPool(ctx context.Context, poolID string) (curve.Pool, error) {
	p, err := a.pools.GetPool(ctx, poolID)
	if err != nil {
		return curve.Pool{}, err
	}
	if p.Locked {
		return curve.Pool{}, types.ErrPoolInReenteredState.Wrap(p.ID)
	}
	return p, nil
}

func curveError(err error) error {
	if errors.Is(err, curve.ErrPoolLocked) {
		return fmt.Errorf("%w: %w", types.ErrPoolInReenteredState, err)
	}
	return protocolError("curve", err)
}
