package adaptors

import (
	"context"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/types"
)

var _ types.Adaptor = (*CellarAdaptor)(nil)

// CellarAdaptor holds shares of another cellar. The cellar keeper is set after
// construction since the keeper itself depends on the adaptor router.
type CellarAdaptor struct {
	bank    types.BankKeeper
	cellars types.CellarKeeper
}

func NewCellarAdaptor(bank types.BankKeeper) *CellarAdaptor {
	return &CellarAdaptor{bank: bank}
}

// SetCellarKeeper wires the keeper nested cellars are operated through.
func (a *CellarAdaptor) SetCellarKeeper(k types.CellarKeeper) { a.cellars = k }

func (*CellarAdaptor) Identifier() string { return CellarID }
func (*CellarAdaptor) IsDebt() bool       { return false }

func (a *CellarAdaptor) SanityCheck(context.Context) error {
	if a.cellars == nil {
		return types.ErrAdaptorFailedSanityCheck.Wrap("cellar keeper not wired")
	}
	return nil
}

func (a *CellarAdaptor) cellar(ctx context.Context, adaptorData []byte) (types.Cellar, error) {
	d, err := decode[CellarData](adaptorData)
	if err != nil {
		return types.Cellar{}, err
	}
	c, err := a.cellars.GetCellar(ctx, d.CellarID)
	if err != nil {
		return types.Cellar{}, types.ErrInvalidAdaptorData.Wrapf("cellar %d: %s", d.CellarID, err)
	}
	return c, nil
}

// nested resolves the target cellar and rejects a cellar holding itself.
func (a *CellarAdaptor) nested(ctx context.Context, env types.Env, adaptorData []byte) (types.Cellar, error) {
	c, err := a.cellar(ctx, adaptorData)
	if err != nil {
		return types.Cellar{}, err
	}
	if c.ID == env.CellarID() {
		return types.Cellar{}, types.ErrInvalidAdaptorData.Wrapf("cellar %d cannot hold its own shares", c.ID)
	}
	return c, nil
}

func (a *CellarAdaptor) ValidateAdaptorData(ctx context.Context, adaptorData []byte) error {
	_, err := a.cellar(ctx, adaptorData)
	return err
}

func (a *CellarAdaptor) AssetOf(ctx context.Context, adaptorData []byte) (string, error) {
	c, err := a.cellar(ctx, adaptorData)
	if err != nil {
		return "", err
	}
	return c.Asset, nil
}

func (a *CellarAdaptor) AssetsUsed(ctx context.Context, adaptorData []byte) ([]string, error) {
	c, err := a.cellar(ctx, adaptorData)
	if err != nil {
		return nil, err
	}
	return []string{c.Asset}, nil
}

func (a *CellarAdaptor) BalanceOf(ctx context.Context, env types.Env, adaptorData []byte) (math.Int, error) {
	c, err := a.nested(ctx, env, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	shares, err := a.bank.GetBalance(ctx, env.Holder(), c.ShareDenom)
	if err != nil {
		return math.Int{}, err
	}
	if shares.IsZero() {
		return shares, nil
	}
	return a.cellars.PreviewRedeem(ctx, c.ID, shares)
}

func (a *CellarAdaptor) WithdrawableFrom(ctx context.Context, env types.Env, adaptorData, configData []byte) (math.Int, error) {
	cfg, err := types.DecodeLiquidityConfig(configData)
	if err != nil {
		return math.Int{}, err
	}
	if !cfg.IsLiquid {
		return math.ZeroInt(), nil
	}
	c, err := a.nested(ctx, env, adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	return a.cellars.MaxWithdraw(ctx, c.ID, env.Holder())
}

func (a *CellarAdaptor) Deposit(ctx context.Context, env types.Env, amount math.Int, adaptorData, _ []byte) error {
	c, err := a.nested(ctx, env, adaptorData)
	if err != nil {
		return err
	}
	return a.deposit(ctx, env, c.ID, amount)
}

func (a *CellarAdaptor) Withdraw(ctx context.Context, env types.Env, amount types.WithdrawAmount, receiver string, adaptorData, configData []byte) error {
	if err := types.CheckReceiver(env, receiver); err != nil {
		return err
	}
	cfg, err := types.DecodeLiquidityConfig(configData)
	if err != nil {
		return err
	}
	if !cfg.IsLiquid {
		return types.ErrUserWithdrawsNotAllowed.Wrap("nested cellar is configured illiquid")
	}
	c, err := a.nested(ctx, env, adaptorData)
	if err != nil {
		return err
	}
	return a.withdraw(ctx, env, c.ID, amount, receiver)
}

func (a *CellarAdaptor) Execute(ctx context.Context, env types.Env, cmd types.AdaptorCommand) error {
	switch c := cmd.(type) {
	case DepositToCellar:
		if c.CellarID == env.CellarID() {
			return types.ErrInvalidAdaptorData.Wrapf("cellar %d cannot hold its own shares", c.CellarID)
		}
		if err := requireTracked(ctx, env, CellarID, false, CellarData{CellarID: c.CellarID}); err != nil {
			return err
		}
		target, err := a.cellars.GetCellar(ctx, c.CellarID)
		if err != nil {
			return err
		}
		amt, err := resolveFromHolder(ctx, a.bank, env, target.Asset, c.Assets)
		if err != nil {
			return err
		}
		return a.deposit(ctx, env, target.ID, amt)
	case WithdrawFromCellar:
		if c.CellarID == env.CellarID() {
			return types.ErrInvalidAdaptorData.Wrapf("cellar %d cannot hold its own shares", c.CellarID)
		}
		if err := requireTracked(ctx, env, CellarID, false, CellarData{CellarID: c.CellarID}); err != nil {
			return err
		}
		return a.withdraw(ctx, env, c.CellarID, c.Assets, env.Holder())
	default:
		return unsupported(CellarID, cmd)
	}
}

func (a *CellarAdaptor) deposit(ctx context.Context, env types.Env, cellarID uint32, amount math.Int) error {
	if amount.IsZero() {
		return nil
	}
	_, err := a.cellars.Deposit(ctx, env.Holder(), cellarID, amount, env.Holder())
	return err
}

func (a *CellarAdaptor) withdraw(ctx context.Context, env types.Env, cellarID uint32, amount types.WithdrawAmount, receiver string) error {
	available, err := a.cellars.MaxWithdraw(ctx, cellarID, env.Holder())
	if err != nil {
		return err
	}
	amt, err := amount.Resolve(available)
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return nil
	}
	_, err = a.cellars.Withdraw(ctx, cellarID, amt, receiver, env.Holder())
	return err
}
