package episode

import (
	"fmt"

	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/scenario"
)

var phases = []scenario.Phase{scenario.PhaseUptime, scenario.PhaseDowntime, scenario.PhaseExecute}

// Features returns the name of every Snapshot element, in order.
//
// Postcondition: len(Features()) == len(Snapshot()).
func (e *Env) Features() []string {
	out := []string{"energy", "chi"}
	ids := e.state.Catalog.IDs()
	for _, id := range ids {
		out = append(out, fmt.Sprintf("cooldown.%s", id))
	}
	out = append(out, "channeling")
	for _, def := range e.state.Buffs.Registry().All() {
		out = append(out, "buff."+def.ID)
	}
	for _, p := range phases {
		out = append(out, "phase."+string(p))
	}
	for _, id := range ids {
		out = append(out, fmt.Sprintf("last.%s", id))
	}
	return out
}

// Snapshot returns the flat observation vector: resource fractions, per-action
// cooldown fractions, the channel flag, buff flags, a scenario phase one-hot,
// and a last-action one-hot.
//
// Postcondition: every element is in [0, 1].
func (e *Env) Snapshot() []float64 {
	snap := e.state.Snapshot()
	out := []float64{
		ratio(snap.Energy, snap.MaxEnergy),
		ratio(float64(snap.Chi), float64(snap.MaxChi)),
	}
	ids := e.state.Catalog.IDs()
	for _, id := range ids {
		out = append(out, snap.Cooldowns[id])
	}
	out = append(out, flag(snap.Channeling != ""))
	for _, def := range e.state.Buffs.Registry().All() {
		out = append(out, flag(e.state.Buffs.Has(def.ID)))
	}
	phase := e.Status().Phase()
	for _, p := range phases {
		out = append(out, flag(phase == p))
	}
	for _, id := range ids {
		out = append(out, flag(snap.LastAction == id))
	}
	return out
}

// BuffActive reports whether buff id is active, for policies that read named state.
func (e *Env) BuffActive(id string) bool {
	return e.state.Buffs.Has(id)
}

// Cooldown returns the remaining recharge fraction of id, or 0 for unknown ids.
func (e *Env) Cooldown(id ability.ID) float64 {
	d, ok := e.state.Catalog.Get(id)
	if !ok {
		return 0
	}
	return d.CooldownFraction()
}

// Stacks returns the stacks of buff id.
func (e *Env) Stacks(id string) int {
	return e.state.Buffs.Stacks(id)
}

func ratio(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return v / limit
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
