// Package combat implements the fixed-step combat integrator: resource pools,
// cooldowns, channels, buff and proc chains, and the damage formula that
// resolves every action, swing, and tick.
package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/character"
	"github.com/cory-johannsen/monksim/internal/game/condition"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/talent"
)

// Integration and rule constants.
const (
	// Step is the fixed sub-step of the time integrator in seconds.
	Step = 0.01
	// BaseEnergyRegen is energy per second before haste and multipliers.
	BaseEnergyRegen = 10.0
	// ThunderICD is the internal cooldown between thunderfist discharges.
	ThunderICD = 1.5
	// SpeedBuffFactor divides the swing period while a speed buff is active.
	SpeedBuffFactor = 1.6
	// ExecuteThreshold is the target health fraction below which touch_of_death is usable.
	ExecuteThreshold = 0.15
	// CombatWisdomPeriod is the recurring combat_wisdom timer.
	CombatWisdomPeriod = 15.0

	epsilon = 1e-9
)

// Mode selects stochastic sampling or analytic expected-value resolution.
type Mode int

const (
	Stochastic Mode = iota
	ExpectedValue
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ExpectedValue {
		return "expected_value"
	}
	return "stochastic"
}

// Channel is the in-progress channeled action.
//
// Invariant: TicksRemaining >= 0; Interval > 0.
type Channel struct {
	Action         *ability.Descriptor
	TicksRemaining int
	NextTick       float64
	Interval       float64
	// Combo and Empowered are frozen at cast start.
	Combo     bool
	Empowered bool
}

// tickIndex returns the zero-based index of the next tick.
func (c *Channel) tickIndex() int {
	return c.Action.Ticks - c.TicksRemaining
}

// State is one simulation instance's mutable character state.
// It is not safe for concurrent use; every instance must own its roller.
//
// Invariant: 0 <= Energy <= MaxEnergy; 0 <= Chi <= MaxChi; at most one Channel;
// every timer >= 0; every buff stack <= its declared maximum.
type State struct {
	Attrs   *character.Attributes
	Catalog *ability.Catalog
	Buffs   *condition.ActiveSet

	Energy     float64
	Chi        int
	GCD        float64
	Swing      float64
	ThunderICD float64
	// Timers holds recurring proc timers armed by build options.
	Timers  map[string]float64
	Flags   map[string]bool
	Channel *Channel

	// LastAction is the last action cast; empty until the first cast.
	LastAction ability.ID

	Mode    Mode
	Targets int
	// TargetHealth is the target's remaining health fraction, set by the driver.
	TargetHealth float64
	// AutoAttack gates melee swings; the driver clears it during downtime.
	AutoAttack bool
	// Procs forces or suppresses named probabilistic branches.
	Procs map[string]dice.Override
	// Meter, when non-nil, accumulates damage by source label.
	Meter Meter

	// Elapsed is the total simulated time integrated so far.
	Elapsed float64

	// carry is requested time not yet integrated; always < Step.
	carry float64
	// credit accumulates expected-value proc probability per branch.
	credit map[string]float64

	roller *dice.Roller
	logger *zap.Logger
}

// NewState creates a State at full energy and zero chi with the swing timer ready.
//
// Precondition: attrs, cat, and roller must be non-nil.
// Postcondition: the auto-attack descriptor uses attrs.AutoCoefficient; stats are derived.
func NewState(attrs *character.Attributes, cat *ability.Catalog, roller *dice.Roller, logger *zap.Logger) *State {
	if attrs == nil || cat == nil || roller == nil {
		panic("combat.NewState: attrs, cat, and roller must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	auto := cat.MustGet(ability.AutoAttack)
	auto.Coefficient = attrs.AutoCoefficient
	auto.Recompute()

	s := &State{
		Attrs:        attrs,
		Catalog:      cat,
		Buffs:        condition.NewActiveSet(condition.Builtin()),
		Timers:       make(map[string]float64),
		Flags:        make(map[string]bool),
		Targets:      1,
		TargetHealth: 1,
		AutoAttack:   true,
		Procs:        make(map[string]dice.Override),
		credit:       make(map[string]float64),
		roller:       roller,
		logger:       logger,
	}
	s.updateStats()
	s.Energy = attrs.MaxEnergy
	return s
}

// ApplyBuild applies the build options ids once, then refills energy to the
// possibly raised maximum.
//
// Precondition: called once, before the first Advance or Cast.
// Postcondition: unknown ids are reported, never fatal.
func (s *State) ApplyBuild(reg *talent.Registry, ids []string) (talent.Report, error) {
	rep, err := talent.Apply(reg, ids, &talent.Target{
		Attributes: s.Attrs,
		Catalog:    s.Catalog,
		Flags:      s.Flags,
		Timers:     s.Timers,
	})
	if err != nil {
		return rep, err
	}
	s.updateStats()
	s.Energy = s.Attrs.MaxEnergy
	return rep, nil
}

// Roller returns the state's random source.
func (s *State) Roller() *dice.Roller {
	return s.roller
}

// override returns the configured override for proc name.
func (s *State) override(name string) dice.Override {
	return s.Procs[name]
}

// proc evaluates a state-changing probabilistic branch.
//
// In expected-value mode the branch never samples. Unless overridden, each
// evaluation adds p to the branch's credit and the branch fires whenever the
// credit reaches one, so it fires at its expected rate with zero draws.
func (s *State) proc(name string, p float64) bool {
	o := s.override(name)
	if s.Mode != ExpectedValue {
		return s.roller.Chance(name, p, o)
	}
	switch o {
	case dice.Force:
		return true
	case dice.Suppress:
		return false
	}
	s.credit[name] += min(max(p, 0), 1)
	if s.credit[name] >= 1-epsilon {
		s.credit[name] = max(s.credit[name]-1, 0)
		return true
	}
	return false
}

// Credit returns the accumulated expected-value credit of proc name.
func (s *State) Credit(name string) float64 {
	return s.credit[name]
}

// updateStats recomputes derived percentages from ratings and active buffs.
func (s *State) updateStats() {
	s.Attrs.UpdateStats(s.Buffs.Has(condition.Zenith))
	s.Attrs.Haste += condition.HasteBonus(s.Buffs)
}

func (s *State) addEnergy(v float64) {
	s.Energy += v
	if s.Energy > s.Attrs.MaxEnergy {
		s.Energy = s.Attrs.MaxEnergy
	}
	if s.Energy < 0 {
		s.Energy = 0
	}
}

func (s *State) addChi(n int) {
	s.Chi += n
	if s.Chi > s.Attrs.MaxChi {
		s.Chi = s.Attrs.MaxChi
	}
	if s.Chi < 0 {
		s.Chi = 0
	}
}

func decay(v *float64, dt float64) {
	*v -= dt
	if *v < 0 {
		*v = 0
	}
}

// Validate checks every state invariant.
//
// Postcondition: Returns nil if all resource, stack, timer, and charge bounds hold.
func (s *State) Validate() error {
	if s.Energy < 0 || s.Energy > s.Attrs.MaxEnergy {
		return fmt.Errorf("energy %v outside [0, %v]", s.Energy, s.Attrs.MaxEnergy)
	}
	if s.Chi < 0 || s.Chi > s.Attrs.MaxChi {
		return fmt.Errorf("chi %d outside [0, %d]", s.Chi, s.Attrs.MaxChi)
	}
	if s.GCD < 0 || s.Swing < 0 || s.ThunderICD < 0 {
		return fmt.Errorf("negative timer: gcd=%v swing=%v thunder=%v", s.GCD, s.Swing, s.ThunderICD)
	}
	for k, v := range s.Timers {
		if v < 0 {
			return fmt.Errorf("timer %s negative: %v", k, v)
		}
	}
	for _, b := range s.Buffs.All() {
		if b.Stacks < 1 || b.Stacks > b.Def.Cap() {
			return fmt.Errorf("buff %s has %d stacks, cap %d", b.Def.ID, b.Stacks, b.Def.Cap())
		}
	}
	for _, d := range s.Catalog.Actions() {
		if d.CurrentCooldown < 0 {
			return fmt.Errorf("%s cooldown negative: %v", d.ID, d.CurrentCooldown)
		}
		if d.Charges < 0 || d.Charges > d.MaxCharges {
			return fmt.Errorf("%s charges %d outside [0, %d]", d.ID, d.Charges, d.MaxCharges)
		}
	}
	return nil
}
