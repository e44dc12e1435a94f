package simulation

import (
	"context"
	"fmt"
	"math/rand"

	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/cellar/keeper"
	"github.com/provlabs/cellar/types"
)

// Account is a simulated account.
type Account struct {
	Address string
}

// RandomAccounts generates n accounts with distinct addresses.
func RandomAccounts(r *rand.Rand, n int) []Account {
	accs := make([]Account, 0, n)
	seen := make(map[string]bool, n)
	for len(accs) < n {
		addr := fmt.Sprintf("sim%08x", r.Uint32())
		if seen[addr] {
			continue
		}
		seen[addr] = true
		accs = append(accs, Account{Address: addr})
	}
	return accs
}

// Addresses returns the addresses of accs.
func Addresses(accs []Account) []string {
	out := make([]string, len(accs))
	for i, a := range accs {
		out[i] = a.Address
	}
	return out
}

// randomAcc picks one of accs.
func randomAcc(r *rand.Rand, accs []Account) Account {
	return accs[r.Intn(len(accs))]
}

// randomInt63 generates a random int64 between 0 and maxVal.
func randomInt63(r *rand.Rand, maxVal int64) int64 {
	if maxVal <= 0 {
		return 0
	}
	return r.Int63n(maxVal)
}

// randomAmount returns an amount in [1, max], or zero when max is not positive.
func randomAmount(r *rand.Rand, max sdkmath.Int) sdkmath.Int {
	if max.IsNil() || !max.IsPositive() {
		return sdkmath.ZeroInt()
	}
	if max.IsInt64() {
		return sdkmath.NewInt(randomInt63(r, max.Int64()) + 1)
	}
	// scale a random fraction of max when it overflows int64
	frac := sdkmath.LegacyNewDec(randomInt63(r, 1_000_000) + 1).QuoInt64(1_000_000)
	amt := frac.MulInt(max).TruncateInt()
	if amt.IsZero() {
		return sdkmath.OneInt()
	}
	return amt
}

// randomDec returns a decimal in [0, max] with four decimal places.
func randomDec(r *rand.Rand, max sdkmath.LegacyDec) sdkmath.LegacyDec {
	return max.MulInt64(randomInt63(r, 10_001)).QuoInt64(10_000)
}

// getRandomCellar selects a random cellar from all existing cellars.
func getRandomCellar(ctx context.Context, r *rand.Rand, k *keeper.Keeper) (types.Cellar, error) {
	cellars, err := k.GetCellars(ctx)
	if err != nil {
		return types.Cellar{}, err
	}
	if len(cellars) == 0 {
		return types.Cellar{}, fmt.Errorf("no cellars found")
	}
	return cellars[r.Intn(len(cellars))], nil
}

// getRandomHolder selects a random account holding denom.
func getRandomHolder(ctx context.Context, r *rand.Rand, bank types.BankKeeper, denom string, accs []Account) (Account, sdkmath.Int, error) {
	var holders []Account
	var balances []sdkmath.Int
	for _, acc := range accs {
		bal, err := bank.GetBalance(ctx, acc.Address, denom)
		if err != nil {
			return Account{}, sdkmath.Int{}, err
		}
		if bal.IsPositive() {
			holders = append(holders, acc)
			balances = append(balances, bal)
		}
	}
	if len(holders) == 0 {
		return Account{}, sdkmath.Int{}, fmt.Errorf("no account holds %s", denom)
	}
	i := r.Intn(len(holders))
	return holders[i], balances[i], nil
}
