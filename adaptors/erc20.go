package adaptors

import (
	"context"
	"strings"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/types"
)

var _ types.Adaptor = ERC20Adaptor{}

// ERC20Adaptor tracks a plain token balance held by the cellar. Positions are
// always liquid.
type ERC20Adaptor struct {
	bank types.BankKeeper
}

func NewERC20Adaptor(bank types.BankKeeper) ERC20Adaptor {
	return ERC20Adaptor{bank: bank}
}

func (ERC20Adaptor) Identifier() string                    { return ERC20ID }
func (ERC20Adaptor) IsDebt() bool                          { return false }
func (ERC20Adaptor) SanityCheck(ctx context.Context) error { return nil }

func (ERC20Adaptor) token(adaptorData []byte) (string, error) {
	d, err := decode[ERC20Data](adaptorData)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(d.Token) == "" {
		return "", types.ErrInvalidAdaptorData.Wrap("token cannot be empty")
	}
	return d.Token, nil
}

func (a ERC20Adaptor) ValidateAdaptorData(_ context.Context, adaptorData []byte) error {
	_, err := a.token(adaptorData)
	return err
}

func (a ERC20Adaptor) AssetOf(_ context.Context, adaptorData []byte) (string, error) {
	return a.token(adaptorData)
}

func (a ERC20Adaptor) AssetsUsed(_ context.Context, adaptorData []byte) ([]string, error) {
	token, err := a.token(adaptorData)
	if err != nil {
		return nil, err
	}
	return []string{token}, nil
}

func (a ERC20Adaptor) BalanceOf(ctx context.Context, env types.Env, adaptorData []byte) (math.Int, error) {
	token, err := a.token(adaptorData)
	if err != nil {
		return math.Int{}, err
	}
	return a.bank.GetBalance(ctx, env.Holder(), token)
}

func (a ERC20Adaptor) WithdrawableFrom(ctx context.Context, env types.Env, adaptorData, _ []byte) (math.Int, error) {
	return a.BalanceOf(ctx, env, adaptorData)
}

// Deposit is a no-op: the assets already sit with the holder.
func (a ERC20Adaptor) Deposit(_ context.Context, _ types.Env, _ math.Int, adaptorData, _ []byte) error {
	_, err := a.token(adaptorData)
	return err
}

func (a ERC20Adaptor) Withdraw(ctx context.Context, env types.Env, amount types.WithdrawAmount, receiver string, adaptorData, _ []byte) error {
	if err := types.CheckReceiver(env, receiver); err != nil {
		return err
	}
	token, err := a.token(adaptorData)
	if err != nil {
		return err
	}
	amt, err := resolveFromHolder(ctx, a.bank, env, token, amount)
	if err != nil {
		return err
	}
	if amt.IsZero() || receiver == env.Holder() {
		return nil
	}
	return a.bank.Send(ctx, env.Holder(), receiver, token, amt)
}

func (ERC20Adaptor) Execute(_ context.Context, _ types.Env, cmd types.AdaptorCommand) error {
	return unsupported(ERC20ID, cmd)
}
