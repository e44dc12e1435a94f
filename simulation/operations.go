package simulation

import (
	"fmt"
	"math/rand"

	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/pricerouter"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

const (
	OpWeightMsgCreateCellar          = "op_weight_msg_create_cellar"
	OpWeightMsgDeposit               = "op_weight_msg_deposit"
	OpWeightMsgMint                  = "op_weight_msg_mint"
	OpWeightMsgWithdraw              = "op_weight_msg_withdraw"
	OpWeightMsgRedeem                = "op_weight_msg_redeem"
	OpWeightMsgTransferShares        = "op_weight_msg_transfer_shares"
	OpWeightMsgAddCompoundPosition   = "op_weight_msg_add_compound_position"
	OpWeightMsgCallOnAdaptor         = "op_weight_msg_call_on_adaptor"
	OpWeightMsgSendFees              = "op_weight_msg_send_fees"
	OpWeightMsgSettleFees            = "op_weight_msg_settle_fees"
	OpWeightMsgSetFeeData            = "op_weight_msg_set_fee_data"
	OpWeightMsgSetShareLockPeriod    = "op_weight_msg_set_share_lock_period"
	OpWeightMsgSetShareSupplyCap     = "op_weight_msg_set_share_supply_cap"
	OpWeightMsgSetRebalanceDeviation = "op_weight_msg_set_rebalance_deviation"
	OpWeightMsgInitiateShutdown      = "op_weight_msg_initiate_shutdown"
	OpWeightMsgLiftShutdown          = "op_weight_msg_lift_shutdown"
	OpWeightPriceChange              = "op_weight_price_change"
)

const (
	DefaultWeightMsgCreateCellar          = 5
	DefaultWeightMsgDeposit               = 35
	DefaultWeightMsgMint                  = 10
	DefaultWeightMsgWithdraw              = 15
	DefaultWeightMsgRedeem                = 15
	DefaultWeightMsgTransferShares        = 5
	DefaultWeightMsgAddCompoundPosition   = 3
	DefaultWeightMsgCallOnAdaptor         = 10
	DefaultWeightMsgSendFees              = 5
	DefaultWeightMsgSettleFees            = 3
	DefaultWeightMsgSetFeeData            = 2
	DefaultWeightMsgSetShareLockPeriod    = 2
	DefaultWeightMsgSetShareSupplyCap     = 2
	DefaultWeightMsgSetRebalanceDeviation = 2
	DefaultWeightMsgInitiateShutdown      = 1
	DefaultWeightMsgLiftShutdown          = 1
	DefaultWeightPriceChange              = 3
)

const (
	// MaxPriceMove bounds a single simulated price change, in basis points.
	MaxPriceMove   = 1_000
	// DepositDivisor caps a random deposit at 1/DepositDivisor of the depositor balance.
	DepositDivisor = 100
	// MaxMintShares bounds the shares asked for by a simulated mint.
	MaxMintShares  = 1_000_000_000
)

// OperationMsg reports the outcome of a simulated operation.
type OperationMsg struct {
	Route   string
	Name    string
	Comment string
	OK      bool
}

// NoOpMsg reports an operation that could not be generated.
func NoOpMsg(route, name, comment string) OperationMsg {
	return OperationMsg{Route: route, Name: name, Comment: comment}
}

// Operation generates and delivers one random action. Rejected actions are
// reported through OperationMsg.OK; an error means the app state could not be
// read.
type Operation func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error)

// WeightedOperation pairs an operation with its selection weight.
type WeightedOperation struct {
	Weight int
	Op     Operation
}

// AppParams overrides operation weights by key.
type AppParams map[string]int

func (p AppParams) weight(key string, def int) int {
	if w, ok := p[key]; ok {
		return w
	}
	return def
}

// WeightedOperations returns every cellar operation weighted by params.
func WeightedOperations(params AppParams) []WeightedOperation {
	return []WeightedOperation{
		{params.weight(OpWeightMsgCreateCellar, DefaultWeightMsgCreateCellar), SimulateMsgCreateCellar()},
		{params.weight(OpWeightMsgDeposit, DefaultWeightMsgDeposit), SimulateMsgDeposit()},
		{params.weight(OpWeightMsgMint, DefaultWeightMsgMint), SimulateMsgMint()},
		{params.weight(OpWeightMsgWithdraw, DefaultWeightMsgWithdraw), SimulateMsgWithdraw()},
		{params.weight(OpWeightMsgRedeem, DefaultWeightMsgRedeem), SimulateMsgRedeem()},
		{params.weight(OpWeightMsgTransferShares, DefaultWeightMsgTransferShares), SimulateMsgTransferShares()},
		{params.weight(OpWeightMsgAddCompoundPosition, DefaultWeightMsgAddCompoundPosition), SimulateAddCompoundPosition()},
		{params.weight(OpWeightMsgCallOnAdaptor, DefaultWeightMsgCallOnAdaptor), SimulateMsgCallOnAdaptor()},
		{params.weight(OpWeightMsgSendFees, DefaultWeightMsgSendFees), SimulateMsgSendFees()},
		{params.weight(OpWeightMsgSettleFees, DefaultWeightMsgSettleFees), SimulateMsgSettleFees()},
		{params.weight(OpWeightMsgSetFeeData, DefaultWeightMsgSetFeeData), SimulateMsgSetFeeData()},
		{params.weight(OpWeightMsgSetShareLockPeriod, DefaultWeightMsgSetShareLockPeriod), SimulateMsgSetShareLockPeriod()},
		{params.weight(OpWeightMsgSetShareSupplyCap, DefaultWeightMsgSetShareSupplyCap), SimulateMsgSetShareSupplyCap()},
		{params.weight(OpWeightMsgSetRebalanceDeviation, DefaultWeightMsgSetRebalanceDeviation), SimulateMsgSetRebalanceDeviation()},
		{params.weight(OpWeightMsgInitiateShutdown, DefaultWeightMsgInitiateShutdown), SimulateMsgInitiateShutdown()},
		{params.weight(OpWeightMsgLiftShutdown, DefaultWeightMsgLiftShutdown), SimulateMsgLiftShutdown()},
		{params.weight(OpWeightPriceChange, DefaultWeightPriceChange), SimulatePriceChange()},
	}
}

// deliver runs msg and reports its outcome.
func deliver(app *simapp.SimApp, msg types.Msg) OperationMsg {
	name := fmt.Sprintf("%T", msg)
	if _, err := app.DeliverMsg(msg); err != nil {
		return OperationMsg{Route: types.ModuleName, Name: name, Comment: err.Error()}
	}
	return OperationMsg{Route: types.ModuleName, Name: name, OK: true}
}

// holdingAssets maps each base asset to its holding position in the fixture genesis.
var holdingAssets = []struct {
	denom    string
	position uint32
}{
	{simapp.USDC, simapp.PositionUSDC},
	{simapp.USDT, simapp.PositionUSDT},
	{simapp.WETH, simapp.PositionWETH},
}

func randomFeeData(r *rand.Rand, payout string) types.FeeData {
	return types.FeeData{
		PlatformFee:              randomDec(r, types.MaxPlatformFee),
		PerformanceFee:           randomDec(r, types.MaxPerformanceFee),
		StrategistPlatformCut:    randomDec(r, sdkmath.LegacyOneDec()),
		StrategistPerformanceCut: randomDec(r, sdkmath.LegacyOneDec()),
		StrategistPayoutAddress:  payout,
	}
}

func SimulateMsgCreateCellar() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		owner := randomAcc(r, accs)
		strategist := randomAcc(r, accs)
		asset := holdingAssets[r.Intn(len(holdingAssets))]

		bal, err := app.BankKeeper.GetBalance(ctx, owner.Address, asset.denom)
		if err != nil {
			return OperationMsg{}, err
		}
		deposit := randomAmount(r, bal.QuoRaw(DepositDivisor))
		if deposit.IsZero() {
			return NoOpMsg(types.ModuleName, "CreateCellar", "owner has no funds"), nil
		}

		msg := &types.MsgCreateCellar{
			Owner:              owner.Address,
			Strategist:         strategist.Address,
			Name:               fmt.Sprintf("%s cellar %d", asset.denom, r.Intn(1_000)),
			Asset:              asset.denom,
			HoldingPosition:    asset.position,
			InitialDeposit:     deposit,
			FeeData:            randomFeeData(r, strategist.Address),
			ShareLockPeriod:    randomInt63(r, 20),
			RebalanceDeviation: randomDec(r, types.MaxRebalanceDeviation),
		}
		return deliver(app, msg), nil
	}
}

func SimulateMsgDeposit() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "Deposit", err.Error()), nil
		}
		depositor := randomAcc(r, accs)
		receiver := randomAcc(r, accs)
		if cellar.ShareLockPeriod > 0 {
			receiver = depositor
		}
		bal, err := app.BankKeeper.GetBalance(ctx, depositor.Address, cellar.Asset)
		if err != nil {
			return OperationMsg{}, err
		}
		assets := randomAmount(r, bal.QuoRaw(DepositDivisor))
		if assets.IsZero() {
			return NoOpMsg(types.ModuleName, "Deposit", "depositor has no funds"), nil
		}
		return deliver(app, &types.MsgDeposit{Caller: depositor.Address, CellarID: cellar.ID, Assets: assets, Receiver: receiver.Address}), nil
	}
}

func SimulateMsgMint() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		cellar, err := getRandomCellar(app.Context(), r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "Mint", err.Error()), nil
		}
		depositor := randomAcc(r, accs)
		shares := sdkmath.NewInt(randomInt63(r, MaxMintShares) + 1)
		return deliver(app, &types.MsgMint{Caller: depositor.Address, CellarID: cellar.ID, Shares: shares, Receiver: depositor.Address}), nil
	}
}

func SimulateMsgWithdraw() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "Withdraw", err.Error()), nil
		}
		owner, _, err := getRandomHolder(ctx, r, app.BankKeeper, cellar.ShareDenom, accs)
		if err != nil {
			return NoOpMsg(types.ModuleName, "Withdraw", err.Error()), nil
		}
		maxAssets, err := app.CellarKeeper.MaxWithdraw(ctx, cellar.ID, owner.Address)
		if err != nil {
			return NoOpMsg(types.ModuleName, "Withdraw", err.Error()), nil
		}
		assets := randomAmount(r, maxAssets)
		if assets.IsZero() {
			return NoOpMsg(types.ModuleName, "Withdraw", "nothing withdrawable"), nil
		}
		return deliver(app, &types.MsgWithdraw{Owner: owner.Address, CellarID: cellar.ID, Assets: assets, Receiver: randomAcc(r, accs).Address}), nil
	}
}

func SimulateMsgRedeem() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "Redeem", err.Error()), nil
		}
		owner, bal, err := getRandomHolder(ctx, r, app.BankKeeper, cellar.ShareDenom, accs)
		if err != nil {
			return NoOpMsg(types.ModuleName, "Redeem", err.Error()), nil
		}
		return deliver(app, &types.MsgRedeem{Owner: owner.Address, CellarID: cellar.ID, Shares: randomAmount(r, bal), Receiver: owner.Address}), nil
	}
}

func SimulateMsgTransferShares() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "TransferShares", err.Error()), nil
		}
		from, bal, err := getRandomHolder(ctx, r, app.BankKeeper, cellar.ShareDenom, accs)
		if err != nil {
			return NoOpMsg(types.ModuleName, "TransferShares", err.Error()), nil
		}
		to := randomAcc(r, accs)
		return deliver(app, &types.MsgTransferShares{From: from.Address, To: to.Address, CellarID: cellar.ID, Shares: randomAmount(r, bal)}), nil
	}
}

// SimulateAddCompoundPosition has the owner of a usdc cellar catalogue and
// add the cusdc position together with the ctoken adaptor.
func SimulateAddCompoundPosition() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "AddPosition", err.Error()), nil
		}
		if cellar.Asset != simapp.USDC || cellar.IsPositionUsed(simapp.PositionCUSDC) {
			return NoOpMsg(types.ModuleName, "AddPosition", "cellar cannot take the compound position"), nil
		}
		steps := []types.Msg{
			&types.MsgAddPositionToCatalogue{Owner: cellar.Owner, CellarID: cellar.ID, PositionID: simapp.PositionCUSDC},
			&types.MsgAddAdaptorToCatalogue{Owner: cellar.Owner, CellarID: cellar.ID, Entry: types.AdaptorCatalogueEntry{Adaptor: adaptors.CTokenID}},
			&types.MsgAddPosition{Owner: cellar.Owner, CellarID: cellar.ID, Index: uint32(len(cellar.CreditPositions)), PositionID: simapp.PositionCUSDC},
		}
		var last OperationMsg
		for _, msg := range steps {
			if last = deliver(app, msg); !last.OK {
				return last, nil
			}
		}
		return last, nil
	}
}

// SimulateMsgCallOnAdaptor moves part of a cellar's usdc in or out of compound.
func SimulateMsgCallOnAdaptor() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "CallOnAdaptor", err.Error()), nil
		}
		if !cellar.IsPositionUsed(simapp.PositionCUSDC) {
			return NoOpMsg(types.ModuleName, "CallOnAdaptor", "cellar has no compound position"), nil
		}

		var cmd types.AdaptorCommand
		if r.Intn(2) == 0 {
			idle, err := app.BankKeeper.GetBalance(ctx, cellar.Holder, simapp.USDC)
			if err != nil {
				return OperationMsg{}, err
			}
			amt := randomAmount(r, idle)
			if amt.IsZero() {
				return NoOpMsg(types.ModuleName, "CallOnAdaptor", "no idle usdc"), nil
			}
			cmd = adaptors.DepositToCompound{Market: simapp.CUSDC, Amount: types.Exact(amt)}
		} else {
			cmd = adaptors.WithdrawFromCompound{Market: simapp.CUSDC, Amount: types.All()}
		}
		msg := &types.MsgCallOnAdaptor{
			Strategist: cellar.Strategist,
			CellarID:   cellar.ID,
			Calls:      []types.AdaptorCall{{Adaptor: adaptors.CTokenID, Commands: []types.AdaptorCommand{cmd}}},
		}
		return deliver(app, msg), nil
	}
}

func SimulateMsgSendFees() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		cellar, err := getRandomCellar(app.Context(), r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "SendFees", err.Error()), nil
		}
		return deliver(app, &types.MsgSendFees{Caller: randomAcc(r, accs).Address, CellarID: cellar.ID}), nil
	}
}

func SimulateMsgSettleFees() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "SettleFees", err.Error()), nil
		}
		payee := cellar.FeeData.StrategistPayoutAddress
		bal, err := app.BankKeeper.GetBalance(ctx, payee, cellar.ShareDenom)
		if err != nil {
			return OperationMsg{}, err
		}
		shares := randomAmount(r, bal)
		if shares.IsZero() {
			return NoOpMsg(types.ModuleName, "SettleFees", "payee holds no fee shares"), nil
		}
		return deliver(app, &types.MsgSettleFees{Payee: payee, CellarID: cellar.ID, Shares: shares}), nil
	}
}

func SimulateMsgSetFeeData() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		cellar, err := getRandomCellar(app.Context(), r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "SetFeeData", err.Error()), nil
		}
		fd := randomFeeData(r, cellar.FeeData.StrategistPayoutAddress)
		return deliver(app, &types.MsgSetFeeData{
			Owner:                    cellar.Owner,
			CellarID:                 cellar.ID,
			PlatformFee:              fd.PlatformFee,
			PerformanceFee:           fd.PerformanceFee,
			StrategistPlatformCut:    fd.StrategistPlatformCut,
			StrategistPerformanceCut: fd.StrategistPerformanceCut,
		}), nil
	}
}

func SimulateMsgSetShareLockPeriod() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		cellar, err := getRandomCellar(app.Context(), r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "SetShareLockPeriod", err.Error()), nil
		}
		return deliver(app, &types.MsgSetShareLockPeriod{Owner: cellar.Owner, CellarID: cellar.ID, Blocks: randomInt63(r, 20)}), nil
	}
}

func SimulateMsgSetShareSupplyCap() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		cellar, err := getRandomCellar(ctx, r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "SetShareSupplyCap", err.Error()), nil
		}
		limit := sdkmath.ZeroInt()
		if r.Intn(2) == 0 {
			supply, err := app.BankKeeper.GetSupply(ctx, cellar.ShareDenom)
			if err != nil {
				return OperationMsg{}, err
			}
			limit = supply.MulRaw(2)
		}
		return deliver(app, &types.MsgSetShareSupplyCap{Owner: cellar.Owner, CellarID: cellar.ID, Cap: limit}), nil
	}
}

func SimulateMsgSetRebalanceDeviation() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		cellar, err := getRandomCellar(app.Context(), r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "SetRebalanceDeviation", err.Error()), nil
		}
		return deliver(app, &types.MsgSetRebalanceDeviation{Owner: cellar.Owner, CellarID: cellar.ID, Deviation: randomDec(r, types.MaxRebalanceDeviation)}), nil
	}
}

func SimulateMsgInitiateShutdown() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		cellar, err := getRandomCellar(app.Context(), r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "InitiateShutdown", err.Error()), nil
		}
		if cellar.IsShutdown {
			return NoOpMsg(types.ModuleName, "InitiateShutdown", "cellar already shut down"), nil
		}
		return deliver(app, &types.MsgInitiateShutdown{Owner: cellar.Owner, CellarID: cellar.ID}), nil
	}
}

func SimulateMsgLiftShutdown() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		cellar, err := getRandomCellar(app.Context(), r, app.CellarKeeper)
		if err != nil {
			return NoOpMsg(types.ModuleName, "LiftShutdown", err.Error()), nil
		}
		if !cellar.IsShutdown {
			return NoOpMsg(types.ModuleName, "LiftShutdown", "cellar is not shut down"), nil
		}
		return deliver(app, &types.MsgLiftShutdown{Owner: cellar.Owner, CellarID: cellar.ID}), nil
	}
}

// SimulatePriceChange moves the weth price by up to MaxPriceMove basis points.
func SimulatePriceChange() Operation {
	return func(r *rand.Rand, app *simapp.SimApp, accs []Account) (OperationMsg, error) {
		ctx := app.Context()
		price, err := app.PriceRouter.GetPriceInUSD(ctx, simapp.WETH)
		if err != nil {
			return OperationMsg{}, err
		}
		move := randomInt63(r, 2*MaxPriceMove+1) - MaxPriceMove
		next := price.MulRaw(10_000 + move).QuoRaw(10_000)
		if !next.IsPositive() {
			return NoOpMsg(pricerouter.ModuleName, "SetPrice", "price would reach zero"), nil
		}
		if err := app.PriceRouter.SetPrice(ctx, simapp.WETH, next); err != nil {
			return OperationMsg{Route: pricerouter.ModuleName, Name: "SetPrice", Comment: err.Error()}, nil
		}
		return OperationMsg{Route: pricerouter.ModuleName, Name: "SetPrice", OK: true}, nil
	}
}
