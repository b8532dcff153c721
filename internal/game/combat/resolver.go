package combat

import (
	"math"

	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/condition"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/talent"
)

// Damage formula constants.
const (
	PhysicalMitigation = 0.70
	KickAura           = 1.10
	CraneAura          = 1.12
	CoreAura           = 1.04
	DanceMultiplier    = 2.0
	BaseCritMultiplier = 2.0
	HitComboPerStack   = 0.01
	AcclamationFactor  = 1.2
	ChiExplosionPerTgt = 0.05
	TargetCritBonus    = 0.015
	CleaveFactor       = 0.8
)

// ExplosionTargetCap bounds the chi_explosion and crit-per-target bonuses.
const ExplosionTargetCap = 5

// CleaveTargets is the number of secondary targets a cleave reaches.
const CleaveTargets = 2

var coreAuraActions = map[ability.ID]bool{
	ability.TigerPalm:         true,
	ability.BlackoutKick:      true,
	ability.RisingSunKick:     true,
	ability.FistsOfFury:       true,
	ability.SpinningCraneKick: true,
}

var targetCritActions = map[ability.ID]bool{
	ability.SpinningCraneKick:   true,
	ability.StrikeOfTheWindlord: true,
}

// ResolveOptions carries the per-resolution context frozen by the caller.
type ResolveOptions struct {
	// Combo marks the resolution as combo-strike eligible for mastery.
	Combo bool
	// Empowered applies the consumed dance_of_chiji snapshot.
	Empowered bool
	// ExpectedValue folds crit in analytically instead of sampling.
	ExpectedValue bool
	// ForceCrit makes the crit certain.
	ForceCrit bool
}

// Resolve computes the damage of one application of a: a whole instant action
// or one tick of a channel.
//
// Precondition: s and a must be non-nil.
// Postcondition: Returns total >= 0; in ExpectedValue mode no random value is drawn.
func Resolve(s *State, a *ability.Descriptor, tick int, opts ResolveOptions) (float64, Breakdown) {
	agi := s.Attrs.Agility
	bd := Breakdown{
		Action: a.ID,
		Tick:   tick,
		Raw:    a.PerTick * agi * agi,
	}

	add := func(name string, v float64) {
		bd.Modifiers = append(bd.Modifiers, Factor{Name: name, Value: v})
	}

	if a.School == ability.Physical {
		add("Armor", PhysicalMitigation)
	}
	for _, m := range a.Modifiers {
		add(m.Name, m.Value)
	}
	if a.ID == ability.FistsOfFury && s.Flags[talent.FlagFistsHasteTicks] {
		add("Momentum Boost", 1+s.Attrs.Haste)
	}
	targets := s.targets()
	if a.ID == ability.ChiExplosion {
		add("Jade Ignition Targets", 1+ChiExplosionPerTgt*float64(min(targets, ExplosionTargetCap)))
	}
	if opts.Empowered {
		add("Dance of Chi-Ji", DanceMultiplier)
	}
	switch a.Family {
	case ability.FamilyKick:
		add("Kick Aura", KickAura)
	case ability.FamilyCrane:
		add("Crane Aura", CraneAura)
	}
	if coreAuraActions[a.ID] {
		add("Windwalker Aura", CoreAura)
	}
	if s.Flags[talent.FlagHitCombo] {
		add("Hit Combo", 1+HitComboPerStack*float64(s.Buffs.Stacks(condition.HitCombo)))
	}
	if opts.Combo {
		m := s.Attrs.Mastery
		if a.ID == ability.RisingSunKick && s.Flags[talent.FlagAcclamation] {
			m *= AcclamationFactor
		}
		add("Mastery: Combo Strikes", 1+m)
	}
	add("Versatility", 1+s.Attrs.Versatility)

	chance := s.Attrs.Crit + a.BonusCrit + condition.CritBonus(s.Buffs)
	if targetCritActions[a.ID] {
		chance += TargetCritBonus * float64(min(targets, ExplosionTargetCap))
	}
	bd.CritChance = math.Min(math.Max(chance, 0), 1)
	if opts.ForceCrit {
		bd.CritChance = 1
	}
	bd.CritMultiplier = BaseCritMultiplier
	for _, m := range a.CritModifiers {
		bd.CritMultiplier += m.Value
	}

	var critFactor float64
	if opts.ExpectedValue {
		bd.ExpectedValue = true
		critFactor = 1 + dice.Weight(bd.CritChance, s.override(ProcCrit))*(bd.CritMultiplier-1)
	} else {
		bd.Crit = s.roller.Chance(string(a.ID)+".crit", bd.CritChance, s.override(ProcCrit))
		critFactor = 1
		if bd.Crit {
			critFactor = bd.CritMultiplier
		}
	}

	bd.PerTarget = bd.Raw * bd.Multiplier() * critFactor
	bd.Targets = targets
	bd.Total, bd.AoEScale = AoETotal(a, bd.PerTarget, targets)
	return bd.Total, bd
}

// AoETotal applies the area policy of a to per-target damage over n targets
// and returns the total and the per-target scale.
//
// Precondition: n >= 1.
// Postcondition: soft-cap totals equal perTarget*n up to the cap and grow as
// perTarget*sqrt(cap*n) beyond it.
func AoETotal(a *ability.Descriptor, perTarget float64, n int) (float64, float64) {
	if n < 1 {
		n = 1
	}
	switch a.AoE {
	case ability.Cleave:
		extra := float64(min(n-1, CleaveTargets))
		return perTarget * (1 + CleaveFactor*extra), 1
	case ability.SoftCap:
		scale := 1.0
		if c := a.EffectiveCap(); n > c {
			scale = math.Sqrt(float64(c) / float64(n))
		}
		return perTarget * float64(n) * scale, scale
	case ability.Uncapped:
		return perTarget * float64(n), 1
	default:
		return perTarget, 1
	}
}

func (s *State) targets() int {
	if s.Targets < 1 {
		return 1
	}
	return s.Targets
}
