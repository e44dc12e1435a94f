// Package adaptors implements the cellar adaptors: each one translates the
// generic position operations into calls against one external protocol.
package adaptors

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/types"
)

// Adaptor identifiers.
const (
	ERC20ID              = "erc20:v1"
	CTokenID             = "ctoken:v1"
	FraxlendCollateralID = "fraxlend-collateral:v1"
	FraxlendDebtID       = "fraxlend-debt:v1"
	CurveID              = "curve:v1"
	CellarID             = "cellar:v1"
)

// ERC20Data is the adaptor data of an erc20:v1 position.
type ERC20Data struct {
	Token string `json:"token"`
}

// CTokenData is the adaptor data of a ctoken:v1 position.
type CTokenData struct {
	Market string `json:"market"`
}

// FraxlendData is the adaptor data of fraxlend collateral and debt positions.
type FraxlendData struct {
	Pair string `json:"pair"`
}

// CurveData is the adaptor data of a curve:v1 position.
type CurveData struct {
	Pool string `json:"pool"`
}

// CellarData is the adaptor data of a cellar:v1 position.
type CellarData struct {
	CellarID uint32 `json:"cellar_id"`
}

// MustData encodes adaptor data for a position. It panics on failure.
func MustData(v any) json.RawMessage {
	bz, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bz
}

func decode[T any](adaptorData []byte) (T, error) {
	var v T
	if err := json.Unmarshal(adaptorData, &v); err != nil {
		return v, types.ErrInvalidAdaptorData.Wrapf("%T: %s", v, err)
	}
	return v, nil
}

// requireTracked fails with ErrPositionsMustBeTracked unless data describes a
// position the calling cellar uses.
func requireTracked(ctx context.Context, env types.Env, adaptorID string, isDebt bool, data any) error {
	return env.CheckPositionTracked(ctx, adaptorID, isDebt, MustData(data))
}

// protocolError marks err as a rejection by the external protocol while keeping
// the protocol's own error in the chain.
func protocolError(protocol string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrExternalProtocolRejected, protocol, err)
}

func unsupported(adaptorID string, cmd types.AdaptorCommand) error {
	return types.ErrUnsupportedCommand.Wrapf("%s does not support %s", adaptorID, cmd.CommandName())
}

// resolveFromHolder resolves amount against the holder balance of denom.
func resolveFromHolder(ctx context.Context, bank types.BankKeeper, env types.Env, denom string, amount types.WithdrawAmount) (math.Int, error) {
	bal, err := bank.GetBalance(ctx, env.Holder(), denom)
	if err != nil {
		return math.Int{}, err
	}
	return amount.Resolve(bal)
}
