package ai

import (
	"github.com/cory-johannsen/monksim/internal/game/episode"
	"github.com/cory-johannsen/monksim/internal/game/scenario"
)

const waitAction = episode.Wait

// BuildWorldState constructs a WorldState snapshot from the current state of env.
//
// Precondition: env must be non-nil and Reset.
// Postcondition: every catalog action appears in Cooldowns and Usable; only
// active buffs appear in Stacks and BuffRemaining.
func BuildWorldState(env *episode.Env) *WorldState {
	snap := env.State().Snapshot()
	now := env.Now()
	status := env.Status()
	ws := &WorldState{
		Time:          now,
		Remaining:     max(0, scenario.Duration-now),
		Phase:         string(status.Phase()),
		Multiplier:    status.Multiplier,
		Energy:        snap.Energy,
		MaxEnergy:     snap.MaxEnergy,
		Chi:           snap.Chi,
		MaxChi:        snap.MaxChi,
		Targets:       snap.Targets,
		TargetHealth:  snap.TargetHealth,
		LastAction:    string(snap.LastAction),
		Channeling:    string(snap.Channeling),
		Cooldowns:     make(map[string]float64, len(snap.Cooldowns)),
		Usable:        make(map[string]bool, len(snap.Usable)),
		Stacks:        make(map[string]int, len(snap.Buffs)),
		BuffRemaining: make(map[string]float64, len(snap.Buffs)),
	}
	for id, frac := range snap.Cooldowns {
		ws.Cooldowns[string(id)] = frac
	}
	for id, ok := range snap.Usable {
		ws.Usable[string(id)] = ok
	}
	for _, b := range snap.Buffs {
		ws.Stacks[b.ID] = b.Stacks
		ws.BuffRemaining[b.ID] = b.Remaining
	}
	return ws
}
