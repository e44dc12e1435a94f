package adaptors

import (
	"fmt"
	"sort"

	"cosmossdk.io/math"

	"github.com/provlabs/cellar/protocols/compound"
	"github.com/provlabs/cellar/protocols/curve"
	"github.com/provlabs/cellar/protocols/fraxlend"
	"github.com/provlabs/cellar/types"
)

var _ types.AdaptorRouter = (*Router)(nil)

// Router maps adaptor identifiers to implementations. It is immutable after
// construction.
type Router struct {
	adaptors map[string]types.Adaptor
}

// NewRouter builds a router. It panics on a duplicate identifier.
func NewRouter(adaptors ...types.Adaptor) *Router {
	r := &Router{adaptors: make(map[string]types.Adaptor, len(adaptors))}
	for _, a := range adaptors {
		id := a.Identifier()
		if _, ok := r.adaptors[id]; ok {
			panic(fmt.Sprintf("adaptor %s registered twice", id))
		}
		r.adaptors[id] = a
	}
	return r
}

func (r *Router) Adaptor(id string) (types.Adaptor, bool) {
	a, ok := r.adaptors[id]
	return a, ok
}

// Identifiers returns the registered ids in sorted order.
func (r *Router) Identifiers() []string {
	ids := make([]string, 0, len(r.adaptors))
	for id := range r.adaptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Protocols are the external protocol keepers the reference adaptors wrap.
type Protocols struct {
	Bank     types.BankKeeper
	Compound *compound.Keeper
	Fraxlend *fraxlend.Keeper
	Curve    *curve.Keeper

	MinimumHealthFactor math.LegacyDec
}

// NewDefaultRouter registers every reference adaptor. The returned cellar
// adaptor still needs SetCellarKeeper.
func NewDefaultRouter(p Protocols) (*Router, *CellarAdaptor) {
	minHF := p.MinimumHealthFactor
	if minHF.IsNil() {
		minHF = DefaultMinimumHealthFactor
	}
	nested := NewCellarAdaptor(p.Bank)
	return NewRouter(
		NewERC20Adaptor(p.Bank),
		NewCTokenAdaptor(p.Bank, p.Compound),
		NewFraxlendCollateralAdaptor(p.Bank, p.Fraxlend, minHF),
		NewFraxlendDebtAdaptor(p.Bank, p.Fraxlend, minHF),
		NewCurveAdaptor(p.Bank, p.Curve),
		nested,
	), nested
}
