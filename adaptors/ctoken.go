package adaptors

import (
	"context"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/protocols/compound"
	"github.com/provlabs/cellar/types"
)

var _ types.Adaptor = CTokenAdaptor{}

// CTokenAdaptor holds underlying supplied to a compound market. User
// withdrawals are capped by the cash the market holds.
type CTokenAdaptor struct {
	bank     types.BankKeeper
	compound *compound.Keeper
}

func NewCTokenAdaptor(bank types.BankKeeper, k *compound.Keeper) CTokenAdaptor {
	return CTokenAdaptor{bank: bank, compound: k}
}

func (CTokenAdaptor) Identifier() string { return CTokenID }
func (CTokenAdaptor) IsDebt() bool       { return false }

func (a CTokenAdaptor) SanityCheck(context.Context) error {
	if a.compound == nil {
		return types.ErrAdaptorFailedSanityCheck.Wrap("compound keeper not wired")
	}
	return nil
}

func (a CTokenAdaptor) market(ctx context.Context, adaptorData []byte) (compound.Market, error) {
	d, err := decode[CTokenData](adaptorData)
	if err != nil {
		return compound.Market{}, err
	}
	m, err := a.compound.GetMarket(ctx, d.Market)
	if err != nil {
		return compound.Market{}, types.ErrInvalidAdaptorData.Wrapf("market %q: %s", d.Market, err)
	}
	return m, nil
}

func (a CTokenAdaptor) ValidateAdaptorData(ctx context.Context, adaptorData []byte) error {
	_, err := a.market(ctx, adaptorData)
	return err
}

func (a CTokenAdaptor) AssetOf(ctx context.Context, adaptorData []byte) (string, error) {
	m, err := a.market(ctx, adaptorData)
	if err != nil {
		return "", err
	}
	return m.Underlying, nil
}

func (a CTokenAdaptor) AssetsUsed(ctx context.Context, adaptorData []byte) ([]string, error) {
	m, err := a.market(ctx, adaptorData)
	if err != nil {
		return nil, err
	}
	return []string{m.Underlying}, nil
}

func (a CTokenAdaptor) BalanceOf(ctx context.Context, env types.Env, adaptorData []byte) (math.Int, error) {
	m, err := a.market(ctx, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	return a.compound.BalanceOfUnderlying(ctx, m.ID, env.Holder())
}

func (a CTokenAdaptor) WithdrawableFrom(ctx context.Context, env types.Env, adaptorData, configData []byte) (math.Int, error) {
	cfg, err := types.DecodeLiquidityConfig(configData)
	if err != nil {
		return math.Int{}, err
	}
	if !cfg.IsLiquid {
		return math.ZeroInt(), nil
	}
	bal, err := a.BalanceOf(ctx, env, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	m, err := a.market(ctx, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	cash, err := a.compound.GetCash(ctx, m.ID)
	if err != nil {
		return math.Int{}, err
	}
	return math.MinInt(bal, cash), nil
}

func (a CTokenAdaptor) Deposit(ctx context.Context, env types.Env, amount math.Int, adaptorData, _ []byte) error {
	m, err := a.market(ctx, adaptorData)
	if err != nil {
		return err
	}
	return a.mint(ctx, env, m.ID, amount)
}

func (a CTokenAdaptor) Withdraw(ctx context.Context, env types.Env, amount types.WithdrawAmount, receiver string, adaptorData, configData []byte) error {
	if err := types.CheckReceiver(env, receiver); err != nil {
		return err
	}
	cfg, err := types.DecodeLiquidityConfig(configData)
	if err != nil {
		return err
	}
	if !cfg.IsLiquid {
		return types.ErrUserWithdrawsNotAllowed.Wrap("market is configured illiquid")
	}
	m, err := a.market(ctx, adaptorData)
	if err != nil {
		return err
	}
	before, err := a.bank.GetBalance(ctx, env.Holder(), m.Underlying)
	if err != nil {
		return err
	}
	if err := a.redeem(ctx, env, m.ID, amount); err != nil {
		return err
	}
	after, err := a.bank.GetBalance(ctx, env.Holder(), m.Underlying)
	if err != nil {
		return err
	}
	out := after.Sub(before)
	if receiver == env.Holder() || out.IsZero() {
		return nil
	}
	return a.bank.Send(ctx, env.Holder(), receiver, m.Underlying, out)
}

func (a CTokenAdaptor) Execute(ctx context.Context, env types.Env, cmd types.AdaptorCommand) error {
	switch c := cmd.(type) {
	case DepositToCompound:
		if err := requireTracked(ctx, env, CTokenID, false, CTokenData{Market: c.Market}); err != nil {
			return err
		}
		m, err := a.compound.GetMarket(ctx, c.Market)
		if err != nil {
			return err
		}
		amt, err := resolveFromHolder(ctx, a.bank, env, m.Underlying, c.Amount)
		if err != nil {
			return err
		}
		return a.mint(ctx, env, m.ID, amt)
	case WithdrawFromCompound:
		if err := requireTracked(ctx, env, CTokenID, false, CTokenData{Market: c.Market}); err != nil {
			return err
		}
		return a.redeem(ctx, env, c.Market, c.Amount)
	default:
		return unsupported(CTokenID, cmd)
	}
}

func (a CTokenAdaptor) mint(ctx context.Context, env types.Env, marketID string, amount math.Int) error {
	if amount.IsZero() {
		return nil
	}
	code, err := a.compound.Mint(ctx, env.Holder(), marketID, amount)
	if err != nil {
		return err
	}
	if code != compound.NoError {
		return types.ErrExternalProtocolRejected.Wrapf("compound mint on %s returned %s", marketID, code)
	}
	return nil
}

// redeem returns underlying to the holder. All redeems every cToken held.
func (a CTokenAdaptor) redeem(ctx context.Context, env types.Env, marketID string, amount types.WithdrawAmount) error {
	var (
		code compound.Code
		err  error
	)
	if amount.IsAll() {
		ctokens, berr := a.bank.GetBalance(ctx, env.Holder(), marketID)
		if berr != nil {
			return berr
		}
		if ctokens.IsZero() {
			return nil
		}
		code, err = a.compound.Redeem(ctx, env.Holder(), marketID, ctokens)
	} else {
		bal, berr := a.compound.BalanceOfUnderlying(ctx, marketID, env.Holder())
		if berr != nil {
			return berr
		}
		amt, rerr := amount.Resolve(bal)
		if rerr != nil {
			return rerr
		}
		if amt.IsZero() {
			return nil
		}
		code, err = a.compound.RedeemUnderlying(ctx, env.Holder(), marketID, amt)
	}
	if err != nil {
		return err
	}
	if code != compound.NoError {
		return types.ErrExternalProtocolRejected.Wrapf("compound redeem on %s returned %s", marketID, code)
	}
	return nil
}
