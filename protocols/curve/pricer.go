package curve

import (
	"context"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/pricerouter"
	"github.com/provlabs/cellar/types"
)

// LPExtensionName is the price router extension pricing pool LP tokens.
const LPExtensionName = "curve-lp"

// LPPricer prices an LP token as the USD value of the pool reserves per whole
// LP token. A locked pool cannot be priced.
type LPPricer struct {
	k *Keeper
}

var _ pricerouter.Extension = LPPricer{}

func NewLPPricer(k *Keeper) LPPricer { return LPPricer{k: k} }

func (LPPricer) Name() string { return LPExtensionName }

func (e LPPricer) PriceInUSD(ctx context.Context, router *pricerouter.Keeper, lpDenom string) (math.Int, error) {
	p, err := e.k.PoolByLP(ctx, lpDenom)
	if err != nil {
		return math.Int{}, err
	}
	if p.Locked {
		return math.Int{}, types.ErrPoolInReenteredState.Wrapf("pool %s", p.ID)
	}
	supply, err := e.k.bank.GetSupply(ctx, p.LPDenom)
	if err != nil {
		return math.Int{}, err
	}
	if !supply.IsPositive() {
		return math.Int{}, ErrEmptyPool.Wrap(p.ID)
	}
	reserves, err := e.k.Reserves(ctx, p)
	if err != nil {
		return math.Int{}, err
	}

	// sum(reserve_i * price_i / 10^dec_i) * 10^LPDecimals / supply
	total := math.ZeroInt()
	for i, c := range p.Coins {
		price, err := router.GetPriceInUSD(ctx, c)
		if err != nil {
			return math.Int{}, err
		}
		total = total.Add(p.normalize(i, reserves[i]).Mul(price))
	}
	return total.Quo(supply), nil
}
