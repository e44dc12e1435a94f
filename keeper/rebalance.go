package keeper

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/types"
	"github.com/provlabs/cellar/utils"
)

// CallOnAdaptor runs a strategist batch. Every call is checked against the
// cellar's adaptor catalogue before anything is dispatched; the batch then
// executes on a branch of the store with external receivers blocked and is
// committed only when total assets stay inside the deviation band and the
// share supply is unchanged.
func (k *Keeper) CallOnAdaptor(ctx context.Context, strategist string, cellarID uint32, calls []types.AdaptorCall) error {
	cellar, err := k.GetCellar(ctx, cellarID)
	if err != nil {
		return err
	}
	if cellar.IsShutdown {
		return types.ErrShutdown.Wrapf("cellar %d", cellarID)
	}
	if strategist != cellar.Strategist {
		return types.ErrUnauthorized.Wrapf("%s is not the strategist of cellar %d", strategist, cellarID)
	}

	resolved, err := k.resolveCalls(ctx, cellarID, calls)
	if err != nil {
		return err
	}

	before, supplyBefore, err := k.totals(ctx, cellar)
	if err != nil {
		return err
	}
	lower := utils.MulDec(before, sdkmath.LegacyOneDec().Sub(cellar.AllowedRebalanceDeviation), utils.Ceil)
	upper := utils.MulDec(before, sdkmath.LegacyOneDec().Add(cellar.AllowedRebalanceDeviation), utils.Ceil)

	err = runtime.Atomic(ctx, func(ctx context.Context) error {
		env := k.env(cellar, true)
		for i, call := range calls {
			for j, cmd := range call.Commands {
				if err := resolved[i].Execute(ctx, env, cmd); err != nil {
					return fmt.Errorf("call %d (%s) command %d (%s): %w", i, call.Adaptor, j, cmd.CommandName(), err)
				}
			}
		}

		after, supplyAfter, err := k.totals(ctx, cellar)
		if err != nil {
			return err
		}
		if after.LT(lower) || after.GT(upper) {
			return types.ErrTotalAssetDeviatedOutsideRange.Wrapf("lower %s, actual %s, upper %s", lower, after, upper)
		}
		if !supplyAfter.Equal(supplyBefore) {
			return types.ErrTotalSharesMustRemainConstant.Wrapf("before %s, after %s", supplyBefore, supplyAfter)
		}
		return k.emit(ctx, types.NewEventRebalance(cellarID, len(calls), before, after))
	})

	outcome := "ok"
	if err != nil {
		outcome = "failed"
		k.getLogger(ctx).Info("rebalance rejected", "cellar_id", cellarID, "err", err)
	}
	k.metrics.Rebalances.WithLabelValues(cellarLabel(cellarID), outcome).Inc()
	return err
}

// resolveCalls checks every call against the catalogue and the trusted
// adaptor set and returns the adaptor of each call.
func (k *Keeper) resolveCalls(ctx context.Context, cellarID uint32, calls []types.AdaptorCall) ([]types.Adaptor, error) {
	resolved := make([]types.Adaptor, len(calls))
	for i, call := range calls {
		entry, err := k.AdaptorCatalogue.Get(ctx, collections.Join(cellarID, call.Adaptor))
		if errors.Is(err, collections.ErrNotFound) {
			return nil, types.ErrCallToAdaptorNotAllowed.Wrapf("adaptor %s is not in the catalogue of cellar %d", call.Adaptor, cellarID)
		}
		if err != nil {
			return nil, err
		}
		trusted, err := k.TrustedAdaptors.Has(ctx, call.Adaptor)
		if err != nil {
			return nil, err
		}
		if !trusted {
			return nil, types.ErrAdaptorNotTrusted.Wrap(call.Adaptor)
		}
		for _, cmd := range call.Commands {
			if cmd == nil {
				return nil, types.ErrInvalidRequest.Wrapf("call %d has a nil command", i)
			}
			if len(entry.Commands) > 0 && !slices.Contains(entry.Commands, cmd.CommandName()) {
				return nil, types.ErrCommandNotAllowed.Wrapf("%s on %s", cmd.CommandName(), call.Adaptor)
			}
		}
		if resolved[i], err = k.adaptorFor(call.Adaptor); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}
