package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// MsgServer is the cellar module's transaction service.
type MsgServer interface {
	CreateCellar(context.Context, *MsgCreateCellar) (*MsgCreateCellarResponse, error)
	Deposit(context.Context, *MsgDeposit) (*MsgDepositResponse, error)
	Mint(context.Context, *MsgMint) (*MsgMintResponse, error)
	Withdraw(context.Context, *MsgWithdraw) (*MsgWithdrawResponse, error)
	Redeem(context.Context, *MsgRedeem) (*MsgRedeemResponse, error)
	TransferShares(context.Context, *MsgTransferShares) (*MsgEmptyResponse, error)
	CallOnAdaptor(context.Context, *MsgCallOnAdaptor) (*MsgEmptyResponse, error)
	SendFees(context.Context, *MsgSendFees) (*MsgSendFeesResponse, error)
	SettleFees(context.Context, *MsgSettleFees) (*MsgSettleFeesResponse, error)

	TrustAdaptor(context.Context, *MsgTrustAdaptor) (*MsgEmptyResponse, error)
	TrustPosition(context.Context, *MsgTrustPosition) (*MsgEmptyResponse, error)
	DistrustPosition(context.Context, *MsgDistrustPosition) (*MsgEmptyResponse, error)
	ForcePositionOut(context.Context, *MsgForcePositionOut) (*MsgEmptyResponse, error)

	AddPosition(context.Context, *MsgAddPosition) (*MsgEmptyResponse, error)
	RemovePosition(context.Context, *MsgRemovePosition) (*MsgEmptyResponse, error)
	SwapPositions(context.Context, *MsgSwapPositions) (*MsgEmptyResponse, error)
	SetHoldingPosition(context.Context, *MsgSetHoldingPosition) (*MsgEmptyResponse, error)
	InitiateShutdown(context.Context, *MsgInitiateShutdown) (*MsgEmptyResponse, error)
	LiftShutdown(context.Context, *MsgLiftShutdown) (*MsgEmptyResponse, error)
	SetRebalanceDeviation(context.Context, *MsgSetRebalanceDeviation) (*MsgEmptyResponse, error)
	SetShareLockPeriod(context.Context, *MsgSetShareLockPeriod) (*MsgEmptyResponse, error)
	SetShareSupplyCap(context.Context, *MsgSetShareSupplyCap) (*MsgEmptyResponse, error)
	SetFeeData(context.Context, *MsgSetFeeData) (*MsgEmptyResponse, error)
	SetStrategistPayoutAddress(context.Context, *MsgSetStrategistPayoutAddress) (*MsgEmptyResponse, error)
	AddAdaptorToCatalogue(context.Context, *MsgAddAdaptorToCatalogue) (*MsgEmptyResponse, error)
	AddPositionToCatalogue(context.Context, *MsgAddPositionToCatalogue) (*MsgEmptyResponse, error)
	UpdateParams(context.Context, *MsgUpdateParams) (*MsgEmptyResponse, error)
}

// QueryServer is the cellar module's read service.
type QueryServer interface {
	Params(context.Context, *QueryParamsRequest) (*QueryParamsResponse, error)
	Cellars(context.Context, *QueryCellarsRequest) (*QueryCellarsResponse, error)
	Cellar(context.Context, *QueryCellarRequest) (*QueryCellarResponse, error)
	Positions(context.Context, *QueryPositionsRequest) (*QueryPositionsResponse, error)
	TotalAssets(context.Context, *QueryTotalAssetsRequest) (*QueryTotalAssetsResponse, error)
	Preview(context.Context, *QueryPreviewRequest) (*QueryPreviewResponse, error)
	MaxExit(context.Context, *QueryMaxExitRequest) (*QueryMaxExitResponse, error)
}

// PageRequest selects a window of a listing.
type PageRequest struct {
	Offset uint64
	Limit  uint64
}

// PageResponse reports the size of a listing.
type PageResponse struct {
	Total uint64
}

type QueryParamsRequest struct{}

type QueryParamsResponse struct {
	Params Params
}

type QueryCellarsRequest struct {
	Pagination *PageRequest
}

type QueryCellarsResponse struct {
	Cellars    []Cellar
	Pagination *PageResponse
}

type QueryCellarRequest struct {
	CellarID uint32
}

// QueryCellarResponse is the cellar with its per-position configuration,
// catalogues and share supply.
type QueryCellarResponse struct {
	Cellar            Cellar
	Positions         []CellarPosition
	AdaptorCatalogue  []AdaptorCatalogueEntry
	PositionCatalogue []uint32
	TotalShares       sdkmath.Int
}

type QueryPositionsRequest struct {
	// TrustedOnly omits distrusted positions.
	TrustedOnly bool
	Pagination  *PageRequest
}

type QueryPositionsResponse struct {
	Positions  []Position
	Pagination *PageResponse
}

type QueryTotalAssetsRequest struct {
	CellarID uint32
}

type QueryTotalAssetsResponse struct {
	TotalAssets             sdkmath.Int
	TotalAssetsWithdrawable sdkmath.Int
}

// PreviewKind selects which ledger operation QueryPreviewRequest previews.
type PreviewKind int

const (
	PreviewDeposit PreviewKind = iota
	PreviewMint
	PreviewWithdraw
	PreviewRedeem
)

type QueryPreviewRequest struct {
	CellarID uint32
	Kind     PreviewKind
	Amount   sdkmath.Int
}

type QueryPreviewResponse struct {
	Amount sdkmath.Int
}

type QueryMaxExitRequest struct {
	CellarID uint32
	Owner    string
}

type QueryMaxExitResponse struct {
	MaxWithdraw sdkmath.Int
	MaxRedeem   sdkmath.Int
	Shares      sdkmath.Int
	// UnlockHeight is the first height at which Owner's shares can move.
	UnlockHeight int64
}
