package types

import (
	"fmt"
	"strings"
)

// AdaptorCatalogueEntry lists the commands a cellar's strategist may send to an adaptor.
// An empty command list allows every command the adaptor supports.
type AdaptorCatalogueEntry struct {
	Adaptor  string   `json:"adaptor"`
	Commands []string `json:"commands,omitempty"`
}

// ShareLock records the height at which an owner's shares were last minted.
type ShareLock struct {
	CellarID uint32 `json:"cellar_id"`
	Owner    string `json:"owner"`
	Height   int64  `json:"height"`
}

// CellarGenesis is the exported state of one cellar.
type CellarGenesis struct {
	Cellar            Cellar                  `json:"cellar"`
	Positions         []CellarPosition        `json:"positions"`
	AdaptorCatalogue  []AdaptorCatalogueEntry `json:"adaptor_catalogue"`
	PositionCatalogue []uint32                `json:"position_catalogue"`
}

// GenesisState is the module genesis state.
type GenesisState struct {
	Params          Params          `json:"params"`
	TrustedAdaptors []string        `json:"trusted_adaptors"`
	Positions       []Position      `json:"positions"`
	Cellars         []CellarGenesis `json:"cellars"`
	ShareLocks      []ShareLock     `json:"share_locks"`
}

// DefaultGenesisState returns the default genesis state
func DefaultGenesisState() *GenesisState {
	return &GenesisState{Params: DefaultParams()}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}

	trusted := make(map[string]bool, len(gs.TrustedAdaptors))
	for _, a := range gs.TrustedAdaptors {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("trusted adaptor id cannot be empty")
		}
		if trusted[a] {
			return fmt.Errorf("duplicate trusted adaptor %q", a)
		}
		trusted[a] = true
	}

	positions := make(map[uint32]Position, len(gs.Positions))
	descriptors := make(map[string]bool, len(gs.Positions))
	for _, p := range gs.Positions {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid position: %w", err)
		}
		if _, ok := positions[p.ID]; ok {
			return fmt.Errorf("duplicate position id %d", p.ID)
		}
		if !trusted[p.Adaptor] {
			return fmt.Errorf("position %d uses untrusted adaptor %q", p.ID, p.Adaptor)
		}
		d, err := p.Descriptor()
		if err != nil {
			return fmt.Errorf("position %d: %w", p.ID, err)
		}
		if descriptors[d] {
			return fmt.Errorf("position %d duplicates another position", p.ID)
		}
		descriptors[d] = true
		positions[p.ID] = p
	}

	cellars := make(map[uint32]bool, len(gs.Cellars))
	for _, cg := range gs.Cellars {
		c := cg.Cellar
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid cellar %d: %w", c.ID, err)
		}
		if cellars[c.ID] {
			return fmt.Errorf("duplicate cellar id %d", c.ID)
		}
		cellars[c.ID] = true

		configured := make(map[uint32]bool, len(cg.Positions))
		for _, cp := range cg.Positions {
			configured[cp.PositionID] = true
		}
		for _, id := range c.CreditPositions {
			p, ok := positions[id]
			if !ok || p.IsDebt || !configured[id] {
				return fmt.Errorf("cellar %d credit position %d is missing or misconfigured", c.ID, id)
			}
		}
		for _, id := range c.DebtPositions {
			p, ok := positions[id]
			if !ok || !p.IsDebt || !configured[id] {
				return fmt.Errorf("cellar %d debt position %d is missing or misconfigured", c.ID, id)
			}
		}
		for _, e := range cg.AdaptorCatalogue {
			if !trusted[e.Adaptor] {
				return fmt.Errorf("cellar %d catalogue references untrusted adaptor %q", c.ID, e.Adaptor)
			}
		}
		for _, id := range cg.PositionCatalogue {
			if _, ok := positions[id]; !ok {
				return fmt.Errorf("cellar %d catalogue references unknown position %d", c.ID, id)
			}
		}
	}

	for _, l := range gs.ShareLocks {
		if !cellars[l.CellarID] {
			return fmt.Errorf("share lock references unknown cellar %d", l.CellarID)
		}
		if l.Height < 0 {
			return fmt.Errorf("share lock height cannot be negative")
		}
	}
	return nil
}
