package keeper

import (
	"context"
)

// EndBlocker is a hook that is called at the end of every block.
func (k *Keeper) EndBlocker(ctx context.Context) error {
	return k.handleDueFeeAccruals(ctx)
}

// handleDueFeeAccruals accrues fees for every cellar whose scheduled accrual
// is due and schedules the next one. A failing cellar is logged and retried
// next period; it never halts the block.
func (k *Keeper) handleDueFeeAccruals(ctx context.Context) error {
	now := k.blockTime(ctx)
	due, err := k.FeeAccrualQueue.CollectDue(ctx, now)
	if err != nil {
		return err
	}

	for _, entry := range due {
		cellarID := entry.K2()
		if err := k.FeeAccrualQueue.Dequeue(ctx, cellarID, entry.K1()); err != nil {
			return err
		}
		has, err := k.Cellars.Has(ctx, cellarID)
		if err != nil {
			return err
		}
		if !has {
			continue
		}
		if _, err := k.SendFees(ctx, cellarID); err != nil {
			k.metrics.EndBlockerFails.Inc()
			k.getLogger(ctx).Error("failed to accrue fees", "cellar_id", cellarID, "err", err)
		}
		if err := k.scheduleFeeAccrual(ctx, cellarID); err != nil {
			return err
		}
	}
	return nil
}
