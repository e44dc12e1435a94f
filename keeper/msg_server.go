package keeper

import (
	"context"

	"github.com/provlabs/cellar/types"
)

var _ types.MsgServer = &msgServer{}

type msgServer struct {
	*Keeper
}

func NewMsgServer(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

func done(err error) (*types.MsgEmptyResponse, error) {
	if err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

// CreateCellar creates a new cellar seeded with the owner's initial deposit.
func (k msgServer) CreateCellar(ctx context.Context, msg *types.MsgCreateCellar) (*types.MsgCreateCellarResponse, error) {
	id, shares, err := k.Keeper.CreateCellar(ctx, *msg)
	if err != nil {
		return nil, err
	}
	return &types.MsgCreateCellarResponse{CellarID: id, Shares: shares}, nil
}

// Deposit deposits assets into a cellar.
func (k msgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	shares, err := k.Keeper.Deposit(ctx, msg.Caller, msg.CellarID, msg.Assets, msg.Receiver)
	if err != nil {
		return nil, err
	}
	return &types.MsgDepositResponse{Shares: shares}, nil
}

// Mint mints an exact amount of cellar shares.
func (k msgServer) Mint(ctx context.Context, msg *types.MsgMint) (*types.MsgMintResponse, error) {
	assets, err := k.Keeper.Mint(ctx, msg.Caller, msg.CellarID, msg.Shares, msg.Receiver)
	if err != nil {
		return nil, err
	}
	return &types.MsgMintResponse{Assets: assets}, nil
}

// Withdraw withdraws an exact amount of assets from a cellar.
func (k msgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	shares, err := k.Keeper.Withdraw(ctx, msg.CellarID, msg.Assets, msg.Receiver, msg.Owner)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{Shares: shares}, nil
}

// Redeem redeems shares for assets.
func (k msgServer) Redeem(ctx context.Context, msg *types.MsgRedeem) (*types.MsgRedeemResponse, error) {
	assets, err := k.Keeper.Redeem(ctx, msg.CellarID, msg.Shares, msg.Receiver, msg.Owner)
	if err != nil {
		return nil, err
	}
	return &types.MsgRedeemResponse{Assets: assets}, nil
}

func (k msgServer) TransferShares(ctx context.Context, msg *types.MsgTransferShares) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.TransferShares(ctx, msg.From, msg.To, msg.CellarID, msg.Shares))
}

// CallOnAdaptor runs a strategist rebalance batch.
func (k msgServer) CallOnAdaptor(ctx context.Context, msg *types.MsgCallOnAdaptor) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.CallOnAdaptor(ctx, msg.Strategist, msg.CellarID, msg.Calls))
}

// SendFees accrues platform and performance fees. Anyone may call it.
func (k msgServer) SendFees(ctx context.Context, msg *types.MsgSendFees) (*types.MsgSendFeesResponse, error) {
	a, err := k.Keeper.SendFees(ctx, msg.CellarID)
	if err != nil {
		return nil, err
	}
	return &types.MsgSendFeesResponse{
		PlatformFees:     a.PlatformFees,
		PerformanceFees:  a.PerformanceFees,
		StrategistShares: a.StrategistShares,
		TreasuryShares:   a.TreasuryShares,
	}, nil
}

func (k msgServer) SettleFees(ctx context.Context, msg *types.MsgSettleFees) (*types.MsgSettleFeesResponse, error) {
	assets, err := k.Keeper.SettleFees(ctx, msg.Payee, msg.CellarID, msg.Shares)
	if err != nil {
		return nil, err
	}
	return &types.MsgSettleFeesResponse{Assets: assets}, nil
}

func (k msgServer) TrustAdaptor(ctx context.Context, msg *types.MsgTrustAdaptor) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.TrustAdaptor(ctx, msg.Authority, msg.Adaptor))
}

func (k msgServer) TrustPosition(ctx context.Context, msg *types.MsgTrustPosition) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.TrustPosition(ctx, msg.Authority, msg.PositionID, msg.Adaptor, msg.AdaptorData))
}

func (k msgServer) DistrustPosition(ctx context.Context, msg *types.MsgDistrustPosition) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.DistrustPosition(ctx, msg.Authority, msg.PositionID))
}

func (k msgServer) ForcePositionOut(ctx context.Context, msg *types.MsgForcePositionOut) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.ForcePositionOut(ctx, msg.Authority, msg.CellarID, msg.Index, msg.PositionID, msg.InDebtArray))
}

func (k msgServer) AddPosition(ctx context.Context, msg *types.MsgAddPosition) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.AddPosition(ctx, msg.Owner, msg.CellarID, msg.Index, msg.PositionID, msg.ConfigData, msg.InDebtArray))
}

func (k msgServer) RemovePosition(ctx context.Context, msg *types.MsgRemovePosition) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.RemovePosition(ctx, msg.Owner, msg.CellarID, msg.Index, msg.InDebtArray))
}

func (k msgServer) SwapPositions(ctx context.Context, msg *types.MsgSwapPositions) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.SwapPositions(ctx, msg.Owner, msg.CellarID, msg.Index1, msg.Index2, msg.InDebtArray))
}

func (k msgServer) SetHoldingPosition(ctx context.Context, msg *types.MsgSetHoldingPosition) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.SetHoldingPosition(ctx, msg.Owner, msg.CellarID, msg.PositionID))
}

func (k msgServer) InitiateShutdown(ctx context.Context, msg *types.MsgInitiateShutdown) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.InitiateShutdown(ctx, msg.Owner, msg.CellarID))
}

func (k msgServer) LiftShutdown(ctx context.Context, msg *types.MsgLiftShutdown) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.LiftShutdown(ctx, msg.Owner, msg.CellarID))
}

func (k msgServer) SetRebalanceDeviation(ctx context.Context, msg *types.MsgSetRebalanceDeviation) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.SetRebalanceDeviation(ctx, msg.Owner, msg.CellarID, msg.Deviation))
}

func (k msgServer) SetShareLockPeriod(ctx context.Context, msg *types.MsgSetShareLockPeriod) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.SetShareLockPeriod(ctx, msg.Owner, msg.CellarID, msg.Blocks))
}

func (k msgServer) SetShareSupplyCap(ctx context.Context, msg *types.MsgSetShareSupplyCap) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.SetShareSupplyCap(ctx, msg.Owner, msg.CellarID, msg.Cap))
}

func (k msgServer) SetFeeData(ctx context.Context, msg *types.MsgSetFeeData) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.SetFeeData(ctx, *msg))
}

func (k msgServer) SetStrategistPayoutAddress(ctx context.Context, msg *types.MsgSetStrategistPayoutAddress) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.SetStrategistPayoutAddress(ctx, msg.Owner, msg.CellarID, msg.Payout))
}

func (k msgServer) AddAdaptorToCatalogue(ctx context.Context, msg *types.MsgAddAdaptorToCatalogue) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.AddAdaptorToCatalogue(ctx, msg.Owner, msg.CellarID, msg.Entry))
}

func (k msgServer) AddPositionToCatalogue(ctx context.Context, msg *types.MsgAddPositionToCatalogue) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.AddPositionToCatalogue(ctx, msg.Owner, msg.CellarID, msg.PositionID))
}

// UpdateParams updates the params for the module.
func (k msgServer) UpdateParams(ctx context.Context, msg *types.MsgUpdateParams) (*types.MsgEmptyResponse, error) {
	return done(k.Keeper.UpdateParams(ctx, msg.Authority, msg.Params))
}
