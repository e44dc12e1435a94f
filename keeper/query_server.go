package keeper

import (
	"context"
	"errors"
	"slices"

	sdkmath "cosmossdk.io/math"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/provlabs/cellar/types"
	"github.com/provlabs/cellar/utils"
)

var _ types.QueryServer = &queryServer{}

type queryServer struct {
	*Keeper
}

// NewQueryServer creates a new QueryServer for the module.
func NewQueryServer(keeper *Keeper) types.QueryServer {
	return &queryServer{Keeper: keeper}
}

// queryError maps keeper errors onto grpc status codes.
func queryError(err error) error {
	switch {
	case errors.Is(err, types.ErrCellarNotFound), errors.Is(err, types.ErrPositionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func page[T any](items []T, req *types.PageRequest) ([]T, *types.PageResponse) {
	res := &types.PageResponse{Total: uint64(len(items))}
	if req == nil {
		return items, res
	}
	return utils.Page(items, req.Offset, req.Limit), res
}

// Params returns the module parameters.
func (k queryServer) Params(ctx context.Context, req *types.QueryParamsRequest) (*types.QueryParamsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	params, err := k.Keeper.Params.Get(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryParamsResponse{Params: params}, nil
}

// Cellars returns a paginated list of all cellars.
func (k queryServer) Cellars(ctx context.Context, req *types.QueryCellarsRequest) (*types.QueryCellarsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	cellars, err := k.GetCellars(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	items, pageRes := page(cellars, req.Pagination)
	return &types.QueryCellarsResponse{Cellars: items, Pagination: pageRes}, nil
}

// Cellar returns the configuration and state of a specific cellar.
func (k queryServer) Cellar(ctx context.Context, req *types.QueryCellarRequest) (*types.QueryCellarResponse, error) {
	if req == nil || req.CellarID == 0 {
		return nil, status.Error(codes.InvalidArgument, "cellar_id must be provided")
	}
	cellar, err := k.GetCellar(ctx, req.CellarID)
	if err != nil {
		return nil, queryError(err)
	}
	positions, err := k.GetCellarPositions(ctx, cellar)
	if err != nil {
		return nil, queryError(err)
	}
	adaptors, err := k.GetAdaptorCatalogue(ctx, cellar.ID)
	if err != nil {
		return nil, queryError(err)
	}
	catalogue, err := k.GetPositionCatalogue(ctx, cellar.ID)
	if err != nil {
		return nil, queryError(err)
	}
	supply, err := k.BankKeeper.GetSupply(ctx, cellar.ShareDenom)
	if err != nil {
		return nil, queryError(err)
	}
	return &types.QueryCellarResponse{
		Cellar:            cellar,
		Positions:         positions,
		AdaptorCatalogue:  adaptors,
		PositionCatalogue: catalogue,
		TotalShares:       supply,
	}, nil
}

// Positions returns the position registry.
func (k queryServer) Positions(ctx context.Context, req *types.QueryPositionsRequest) (*types.QueryPositionsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	var all []types.Position
	err := k.Keeper.Positions.Walk(ctx, nil, func(_ uint32, p types.Position) (bool, error) {
		all = append(all, p)
		return false, nil
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if req.TrustedOnly {
		all = slices.Collect(utils.Filter(slices.Values(all), func(p types.Position) bool { return p.Trusted }))
	}
	items, pageRes := page(all, req.Pagination)
	return &types.QueryPositionsResponse{Positions: items, Pagination: pageRes}, nil
}

// TotalAssets returns a cellar's total and withdrawable assets.
func (k queryServer) TotalAssets(ctx context.Context, req *types.QueryTotalAssetsRequest) (*types.QueryTotalAssetsResponse, error) {
	if req == nil || req.CellarID == 0 {
		return nil, status.Error(codes.InvalidArgument, "cellar_id must be provided")
	}
	total, err := k.Keeper.TotalAssets(ctx, req.CellarID)
	if err != nil {
		return nil, queryError(err)
	}
	withdrawable, err := k.Keeper.TotalAssetsWithdrawable(ctx, req.CellarID)
	if err != nil {
		return nil, queryError(err)
	}
	return &types.QueryTotalAssetsResponse{TotalAssets: total, TotalAssetsWithdrawable: withdrawable}, nil
}

// Preview returns the result the requested ledger operation would have now.
func (k queryServer) Preview(ctx context.Context, req *types.QueryPreviewRequest) (*types.QueryPreviewResponse, error) {
	if req == nil || req.CellarID == 0 {
		return nil, status.Error(codes.InvalidArgument, "cellar_id must be provided")
	}
	if req.Amount.IsNil() || req.Amount.IsNegative() {
		return nil, status.Error(codes.InvalidArgument, "amount must be non-negative")
	}

	var preview func(context.Context, uint32, sdkmath.Int) (sdkmath.Int, error)
	switch req.Kind {
	case types.PreviewDeposit:
		preview = k.PreviewDeposit
	case types.PreviewMint:
		preview = k.PreviewMint
	case types.PreviewWithdraw:
		preview = k.PreviewWithdraw
	case types.PreviewRedeem:
		preview = k.PreviewRedeem
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown preview kind %d", req.Kind)
	}
	amount, err := preview(ctx, req.CellarID, req.Amount)
	if err != nil {
		return nil, queryError(err)
	}
	return &types.QueryPreviewResponse{Amount: amount}, nil
}

// MaxExit returns how much of owner's position can leave the cellar now.
func (k queryServer) MaxExit(ctx context.Context, req *types.QueryMaxExitRequest) (*types.QueryMaxExitResponse, error) {
	if req == nil || req.CellarID == 0 || req.Owner == "" {
		return nil, status.Error(codes.InvalidArgument, "cellar_id and owner must be provided")
	}
	cellar, err := k.GetCellar(ctx, req.CellarID)
	if err != nil {
		return nil, queryError(err)
	}
	maxWithdraw, err := k.MaxWithdraw(ctx, req.CellarID, req.Owner)
	if err != nil {
		return nil, queryError(err)
	}
	maxRedeem, err := k.MaxRedeem(ctx, req.CellarID, req.Owner)
	if err != nil {
		return nil, queryError(err)
	}
	shares, err := k.BankKeeper.GetBalance(ctx, req.Owner, cellar.ShareDenom)
	if err != nil {
		return nil, queryError(err)
	}
	resp := &types.QueryMaxExitResponse{MaxWithdraw: maxWithdraw, MaxRedeem: maxRedeem, Shares: shares}
	if start, ok, err := k.shareLockStart(ctx, cellar.ID, req.Owner); err != nil {
		return nil, queryError(err)
	} else if ok {
		resp.UnlockHeight = start + cellar.ShareLockPeriod
	}
	return resp, nil
}
