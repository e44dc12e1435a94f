package simulation

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/provlabs/cellar/runtime"
	"github.com/provlabs/cellar/simapp"
)

// Config controls a simulation run.
type Config struct {
	Seed        int64
	NumAccounts int
	NumBlocks   int
	BlockSize   int
	BlockTime   time.Duration
	// InvariantPeriod checks invariants every n blocks; zero disables them.
	InvariantPeriod int
	Params          AppParams
}

// DefaultConfig returns a short simulation.
func DefaultConfig() Config {
	return Config{
		Seed:            1,
		NumAccounts:     10,
		NumBlocks:       50,
		BlockSize:       20,
		BlockTime:       6 * time.Second,
		InvariantPeriod: 1,
	}
}

// OpStats counts the outcomes of one operation kind.
type OpStats struct {
	OK     int
	Failed int
}

// Stats summarizes a simulation run.
type Stats struct {
	Blocks int
	Ops    map[string]*OpStats
}

func (s Stats) record(msg OperationMsg) {
	st, ok := s.Ops[msg.Name]
	if !ok {
		st = &OpStats{}
		s.Ops[msg.Name] = st
	}
	if msg.OK {
		st.OK++
	} else {
		st.Failed++
	}
}

// Names returns the recorded operation names in order.
func (s Stats) Names() []string {
	names := make([]string, 0, len(s.Ops))
	for n := range s.Ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// InitApp initializes app with a randomized genesis funding cfg.NumAccounts
// accounts and opens the first block after it.
func InitApp(app *simapp.SimApp, r *rand.Rand, cfg Config) ([]Account, error) {
	accs := RandomAccounts(r, cfg.NumAccounts)
	gs, err := RandomizedGenState(r, app, accs)
	if err != nil {
		return nil, err
	}
	genesisTime := runtime.DefaultTestTime
	if err := app.InitChain(gs, genesisTime); err != nil {
		return nil, err
	}
	if err := app.BeginBlock(genesisTime.Add(cfg.BlockTime)); err != nil {
		return nil, err
	}
	return accs, nil
}

// Simulate runs cfg.NumBlocks blocks of random operations against the open
// block of app. The block open on return is not committed.
func Simulate(app *simapp.SimApp, r *rand.Rand, accs []Account, cfg Config) (Stats, error) {
	stats := Stats{Ops: make(map[string]*OpStats)}
	ops := WeightedOperations(cfg.Params)
	total := 0
	for _, op := range ops {
		total += op.Weight
	}
	if total <= 0 {
		return stats, fmt.Errorf("operation weights sum to %d", total)
	}

	for block := 1; block <= cfg.NumBlocks; block++ {
		for i := 0; i < cfg.BlockSize; i++ {
			op := selectOp(r, ops, total)
			msg, err := op(r, app, accs)
			if err != nil {
				return stats, fmt.Errorf("block %d op %d: %w", app.LastBlockHeight()+1, i, err)
			}
			stats.record(msg)
		}
		if cfg.InvariantPeriod > 0 && block%cfg.InvariantPeriod == 0 {
			if err := CheckInvariants(app); err != nil {
				return stats, fmt.Errorf("block %d: %w", app.LastBlockHeight()+1, err)
			}
		}
		if err := app.NextBlock(cfg.BlockTime); err != nil {
			return stats, err
		}
		stats.Blocks++
	}
	return stats, nil
}

func selectOp(r *rand.Rand, ops []WeightedOperation, total int) Operation {
	x := r.Intn(total)
	for _, op := range ops {
		if x < op.Weight {
			return op.Op
		}
		x -= op.Weight
	}
	return ops[len(ops)-1].Op
}
