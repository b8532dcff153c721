package combat

import "github.com/cory-johannsen/monksim/internal/game/ability"

// BuffState is the observable state of one buff.
type BuffState struct {
	ID        string
	Stacks    int
	Remaining float64
}

// Snapshot is a read-only view of the observable state for decision policies.
type Snapshot struct {
	Energy    float64
	MaxEnergy float64
	Chi       int
	MaxChi    int
	GCD       float64
	// Cooldowns maps each catalog action to its remaining recharge over base cooldown.
	Cooldowns map[ability.ID]float64
	Usable    map[ability.ID]bool
	// Channeling is the id of the running channel, or empty.
	Channeling   ability.ID
	Buffs        []BuffState
	LastAction   ability.ID
	TargetHealth float64
	Targets      int
	Elapsed      float64
}

// Snapshot captures the current observable state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Energy:       s.Energy,
		MaxEnergy:    s.Attrs.MaxEnergy,
		Chi:          s.Chi,
		MaxChi:       s.Attrs.MaxChi,
		GCD:          s.GCD,
		Cooldowns:    make(map[ability.ID]float64),
		Usable:       make(map[ability.ID]bool),
		LastAction:   s.LastAction,
		TargetHealth: s.TargetHealth,
		Targets:      s.targets(),
		Elapsed:      s.Elapsed,
	}
	for _, d := range s.Catalog.Actions() {
		snap.Cooldowns[d.ID] = d.CooldownFraction()
		snap.Usable[d.ID] = s.IsUsable(d.ID)
	}
	if s.Channel != nil {
		snap.Channeling = s.Channel.Action.ID
	}
	for _, b := range s.Buffs.All() {
		snap.Buffs = append(snap.Buffs, BuffState{ID: b.Def.ID, Stacks: b.Stacks, Remaining: b.Remaining})
	}
	return snap
}

// Stacks returns the stacks of buff id in the snapshot, or 0.
func (snap Snapshot) Stacks(id string) int {
	for _, b := range snap.Buffs {
		if b.ID == id {
			return b.Stacks
		}
	}
	return 0
}
