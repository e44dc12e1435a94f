package keeper_test

import (
	"context"
	"errors"

	sdkmath "cosmossdk.io/math"
	"pgregory.net/rapid"

	"github.com/provlabs/cellar/adaptors"
	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/types"
)

// yieldingCellar creates a usdc cellar with part of its assets supplied to
// compound and a donation that moves the share price off its initial value.
func (s *TestSuite) yieldingCellar() uint32 {
	id := s.createCellar()
	s.addPosition(id, simapp.PositionCUSDC, nil)
	s.catalogueAdaptor(id, adaptors.CTokenID)
	s.deposit(id, alice, sdkmath.NewInt(1_000_000_000))
	s.supplyToCompound(id)
	s.deposit(id, alice, sdkmath.NewInt(250_000_000))
	s.Require().NoError(s.simApp.BankKeeper.Send(s.ctx, bob, s.getCellar(id).Holder, simapp.USDC, sdkmath.NewInt(123_457)), "donate to holder")
	return id
}

func (s *TestSuite) balanceAt(ctx context.Context, t *rapid.T, addr, denom string) sdkmath.Int {
	bal, err := s.simApp.BankKeeper.GetBalance(ctx, addr, denom)
	if err != nil {
		t.Fatalf("GetBalance %s %s: %v", addr, denom, err)
	}
	return bal
}

func (s *TestSuite) totalAssetsAt(ctx context.Context, t *rapid.T, id uint32) sdkmath.Int {
	ta, err := s.k.TotalAssets(ctx, id)
	if err != nil {
		t.Fatalf("TotalAssets %d: %v", id, err)
	}
	return ta
}

func (s *TestSuite) TestLedgerPreviewMatchesExecution() {
	id := s.yieldingCellar()
	shareDenom := types.GetShareDenom(id)
	base := s.ctx

	rapid.Check(s.T(), func(t *rapid.T) {
		ctx, _ := runtime.CacheContext(base)

		switch op := rapid.SampledFrom([]string{"deposit", "mint", "withdraw", "redeem"}).Draw(t, "op"); op {
		case "deposit":
			assets := sdkmath.NewInt(rapid.Int64Range(1, 1_000_000_000).Draw(t, "assets"))
			preview, err := s.k.PreviewDeposit(ctx, id, assets)
			if err != nil {
				t.Fatalf("PreviewDeposit: %v", err)
			}
			before := s.balanceAt(ctx, t, bob, shareDenom)
			shares, err := s.k.Deposit(ctx, bob, id, assets, bob)
			if err != nil {
				t.Fatalf("Deposit %s: %v", assets, err)
			}
			if !shares.Equal(preview) {
				t.Fatalf("deposit of %s minted %s shares, preview said %s", assets, shares, preview)
			}
			if got := s.balanceAt(ctx, t, bob, shareDenom).Sub(before); !got.Equal(shares) {
				t.Fatalf("bob received %s shares, want %s", got, shares)
			}
		case "mint":
			shares := sdkmath.NewInt(rapid.Int64Range(1, 1_000_000_000_000_000).Draw(t, "shares"))
			preview, err := s.k.PreviewMint(ctx, id, shares)
			if err != nil {
				t.Fatalf("PreviewMint: %v", err)
			}
			before := s.balanceAt(ctx, t, bob, simapp.USDC)
			assets, err := s.k.Mint(ctx, bob, id, shares, bob)
			if err != nil {
				t.Fatalf("Mint %s: %v", shares, err)
			}
			if !assets.Equal(preview) {
				t.Fatalf("mint of %s shares charged %s, preview said %s", shares, assets, preview)
			}
			if paid := before.Sub(s.balanceAt(ctx, t, bob, simapp.USDC)); !paid.Equal(assets) {
				t.Fatalf("bob paid %s, want %s", paid, assets)
			}
		case "withdraw":
			maxWithdraw, err := s.k.MaxWithdraw(ctx, id, alice)
			if err != nil {
				t.Fatalf("MaxWithdraw: %v", err)
			}
			assets := sdkmath.NewInt(rapid.Int64Range(1, maxWithdraw.Int64()).Draw(t, "assets"))
			preview, err := s.k.PreviewWithdraw(ctx, id, assets)
			if err != nil {
				t.Fatalf("PreviewWithdraw: %v", err)
			}
			before := s.balanceAt(ctx, t, alice, shareDenom)
			shares, err := s.k.Withdraw(ctx, id, assets, alice, alice)
			if err != nil {
				t.Fatalf("Withdraw %s: %v", assets, err)
			}
			if !shares.Equal(preview) {
				t.Fatalf("withdraw of %s burned %s shares, preview said %s", assets, shares, preview)
			}
			if burned := before.Sub(s.balanceAt(ctx, t, alice, shareDenom)); !burned.Equal(shares) {
				t.Fatalf("alice lost %s shares, want %s", burned, shares)
			}
		case "redeem":
			held := s.balanceAt(ctx, t, alice, shareDenom)
			shares := sdkmath.NewInt(rapid.Int64Range(1, held.Int64()).Draw(t, "shares"))
			preview, err := s.k.PreviewRedeem(ctx, id, shares)
			if err != nil {
				t.Fatalf("PreviewRedeem: %v", err)
			}
			before := s.balanceAt(ctx, t, alice, simapp.USDC)
			assets, err := s.k.Redeem(ctx, id, shares, alice, alice)
			if preview.IsZero() {
				if !errors.Is(err, types.ErrZeroAssets) {
					t.Fatalf("redeem of %s shares worth nothing: expected ErrZeroAssets, got %v", shares, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Redeem %s: %v", shares, err)
			}
			if !assets.Equal(preview) {
				t.Fatalf("redeem of %s shares paid %s, preview said %s", shares, assets, preview)
			}
			if got := s.balanceAt(ctx, t, alice, simapp.USDC).Sub(before); !got.Equal(assets) {
				t.Fatalf("alice received %s, want %s", got, assets)
			}
		}
	})
}

func (s *TestSuite) TestLedgerConservesValue() {
	id := s.yieldingCellar()
	shareDenom := types.GetShareDenom(id)
	holder := s.getCellar(id).Holder
	base := s.ctx

	rapid.Check(s.T(), func(t *rapid.T) {
		ctx, _ := runtime.CacheContext(base)
		start := s.totalAssetsAt(ctx, t, id)
		flow := sdkmath.ZeroInt()
		rebalances := int64(0)

		steps := rapid.IntRange(1, 12).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			user := rapid.SampledFrom([]string{alice, bob}).Draw(t, "user")
			switch op := rapid.SampledFrom([]string{"deposit", "redeem", "rebalance"}).Draw(t, "op"); op {
			case "deposit":
				assets := sdkmath.NewInt(rapid.Int64Range(1, 500_000_000).Draw(t, "assets"))
				if _, err := s.k.Deposit(ctx, user, id, assets, user); err != nil {
					t.Fatalf("Deposit %s by %s: %v", assets, user, err)
				}
				flow = flow.Add(assets)
			case "redeem":
				held := s.balanceAt(ctx, t, user, shareDenom)
				if held.IsZero() {
					continue
				}
				shares := sdkmath.NewInt(rapid.Int64Range(1, held.Int64()).Draw(t, "shares"))
				before := s.balanceAt(ctx, t, user, simapp.USDC)
				_, err := s.k.Redeem(ctx, id, shares, user, user)
				if err != nil && !errors.Is(err, types.ErrZeroAssets) {
					t.Fatalf("Redeem %s by %s: %v", shares, user, err)
				}
				flow = flow.Sub(s.balanceAt(ctx, t, user, simapp.USDC).Sub(before))
			case "rebalance":
				idle := s.balanceAt(ctx, t, holder, simapp.USDC)
				if idle.IsZero() {
					continue
				}
				amount := sdkmath.NewInt(rapid.Int64Range(1, idle.Int64()).Draw(t, "supply"))
				err := s.k.CallOnAdaptor(ctx, strategist, id, []types.AdaptorCall{{
					Adaptor:  adaptors.CTokenID,
					Commands: []types.AdaptorCommand{adaptors.DepositToCompound{Market: simapp.CUSDC, Amount: types.Exact(amount)}},
				}})
				if err != nil {
					t.Fatalf("DepositToCompound %s: %v", amount, err)
				}
				rebalances++
			}
		}

		want := start.Add(flow)
		got := s.totalAssetsAt(ctx, t, id)
		if got.GT(want) || want.Sub(got).GT(sdkmath.NewInt(rebalances)) {
			t.Fatalf("total assets %s after net flow %s from %s, want %s (rounding allowance %d)", got, flow, start, want, rebalances)
		}
	})
}

func (s *TestSuite) TestCallOnAdaptorBatchIsAtomic() {
	id := s.yieldingCellar()
	shareDenom := types.GetShareDenom(id)
	holder := s.getCellar(id).Holder
	base := s.ctx

	rapid.Check(s.T(), func(t *rapid.T) {
		ctx, _ := runtime.CacheContext(base)
		idle := s.balanceAt(ctx, t, holder, simapp.USDC)
		supplied := s.balanceAt(ctx, t, holder, simapp.CUSDC)
		supply, err := s.simApp.BankKeeper.GetSupply(ctx, shareDenom)
		if err != nil {
			t.Fatalf("GetSupply: %v", err)
		}
		ta := s.totalAssetsAt(ctx, t, id)

		var commands []types.AdaptorCommand
		remaining := idle.Int64()
		for n := rapid.IntRange(1, 5).Draw(t, "commands"); n > 0 && remaining > 0; n-- {
			amount := rapid.Int64Range(1, remaining).Draw(t, "supply")
			remaining -= amount
			commands = append(commands, adaptors.DepositToCompound{Market: simapp.CUSDC, Amount: types.Exact(sdkmath.NewInt(amount))})
		}
		calls := []types.AdaptorCall{
			{Adaptor: adaptors.CTokenID, Commands: commands},
			{Adaptor: "unknown:v1"},
		}
		if err := s.k.CallOnAdaptor(ctx, strategist, id, calls); err == nil {
			t.Fatalf("batch ending in a call to an unknown adaptor succeeded")
		}

		if got := s.balanceAt(ctx, t, holder, simapp.USDC); !got.Equal(idle) {
			t.Fatalf("idle usdc %s after failed batch, want %s", got, idle)
		}
		if got := s.balanceAt(ctx, t, holder, simapp.CUSDC); !got.Equal(supplied) {
			t.Fatalf("cusdc %s after failed batch, want %s", got, supplied)
		}
		after, err := s.simApp.BankKeeper.GetSupply(ctx, shareDenom)
		if err != nil {
			t.Fatalf("GetSupply: %v", err)
		}
		if !after.Equal(supply) {
			t.Fatalf("share supply %s after failed batch, want %s", after, supply)
		}
		if got := s.totalAssetsAt(ctx, t, id); !got.Equal(ta) {
			t.Fatalf("total assets %s after failed batch, want %s", got, ta)
		}
	})
}
