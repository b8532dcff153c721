package combat

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/condition"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/talent"
)

// Advance integrates d seconds in fixed sub-steps and returns the damage dealt
// together with the events that produced it.
//
// Each sub-step runs energy regeneration, timer and buff expiry, the swing
// timer, then channel ticks. An event that lands exactly on the last sub-step
// belongs to this call. Time short of a whole sub-step is carried into the
// next call, so consecutive calls integrate the sum of their durations.
//
// Postcondition: d <= 0 is a no-op; every state invariant holds on return.
func (s *State) Advance(d float64) (float64, []Event) {
	if d <= 0 {
		return 0, nil
	}
	pending := s.carry + d
	steps := int(math.Floor(pending/Step + 1e-6))
	s.carry = max(pending-float64(steps)*Step, 0)
	var (
		total  float64
		events []Event
	)
	for i := 0; i < steps; i++ {
		offset := float64(i+1) * Step
		emit := func(label string, dmg float64, bd Breakdown) {
			total += dmg
			s.Meter.Add(label, dmg)
			events = append(events, Event{Offset: offset, Source: label, Damage: dmg, Breakdown: bd})
		}
		s.regen(Step)
		s.tickTimers(Step)
		s.swing(Step, emit)
		s.channel(Step, emit)
		s.Elapsed += Step
	}
	return total, events
}

func (s *State) regen(dt float64) {
	s.addEnergy(BaseEnergyRegen * (1 + s.Attrs.Haste) * s.Attrs.EnergyRegenMultiplier * dt)
}

func (s *State) tickTimers(dt float64) {
	decay(&s.GCD, dt)
	decay(&s.ThunderICD, dt)
	for k, v := range s.Timers {
		v -= dt
		if v < 0 {
			v = 0
		}
		s.Timers[k] = v
	}
	s.Catalog.Tick(dt, s.Attrs.Haste)

	recompute := false
	for _, id := range s.Buffs.Tick(dt) {
		if def, ok := s.Buffs.Registry().Get(id); ok && def.RecomputeStats {
			recompute = true
		}
		if ce := s.logger.Check(zap.DebugLevel, "buff expired"); ce != nil {
			ce.Write(zap.String("buff", id), zap.Float64("elapsed", s.Elapsed))
		}
	}
	if recompute {
		s.updateStats()
	}
}

type emitFunc func(label string, dmg float64, bd Breakdown)

// swingPeriod returns the haste- and speed-scaled auto-attack period.
func (s *State) swingPeriod() float64 {
	period := ability.Scaled(s.Attrs.BaseSwingTime, s.Attrs.Haste)
	if condition.SpeedActive(s.Buffs) {
		period /= SpeedBuffFactor
	}
	return period
}

func (s *State) swing(dt float64, emit emitFunc) {
	if !s.AutoAttack {
		return
	}
	s.Swing -= dt
	if s.Swing > epsilon {
		return
	}
	s.Swing += s.swingPeriod()
	if s.Swing < 0 {
		s.Swing = 0
	}
	s.meleeSwing(emit)

	if s.Buffs.Stacks(condition.Thunderfist) > 0 && s.ThunderICD <= epsilon {
		s.Buffs.Consume(condition.Thunderfist, 1)
		s.ThunderICD = ThunderICD
		d := s.Catalog.MustGet(ability.ThunderfistHit)
		dmg, bd := Resolve(s, d, 0, s.opts(false, false))
		emit(d.Name, dmg, bd)
	}
}

// meleeSwing resolves one auto attack. The dual_threat alternate style replaces
// the swing when it fires; in expected-value mode both styles are resolved and
// weighted by their probability.
func (s *State) meleeSwing(emit emitFunc) {
	auto := s.Catalog.MustGet(ability.AutoAttack)
	alt := s.Catalog.MustGet(ability.DualThreat)
	if s.Mode == ExpectedValue {
		w := dice.Weight(DualThreatChance, s.override(ProcDualThreat))
		if w < 1 {
			dmg, bd := Resolve(s, auto, 0, s.opts(false, false))
			emit(auto.Name, dmg*(1-w), bd)
		}
		if w > 0 {
			dmg, bd := Resolve(s, alt, 0, s.opts(false, false))
			emit(alt.Name, dmg*w, bd)
		}
		return
	}
	d := auto
	if s.roller.Chance(ProcDualThreat, DualThreatChance, s.override(ProcDualThreat)) {
		d = alt
	}
	dmg, bd := Resolve(s, d, 0, s.opts(false, false))
	emit(d.Name, dmg, bd)
}

func (s *State) channel(dt float64, emit emitFunc) {
	ch := s.Channel
	if ch == nil {
		return
	}
	ch.NextTick -= dt
	for ch.TicksRemaining > 0 && ch.NextTick <= epsilon {
		dmg, bd := Resolve(s, ch.Action, ch.tickIndex(), s.opts(ch.Combo, ch.Empowered))
		emit(ch.Action.Name, dmg, bd)
		ch.TicksRemaining--
		ch.NextTick += ch.Interval
	}
	if ch.TicksRemaining > 0 {
		return
	}
	s.Channel = nil
	s.endChannel(ch, emit)
}

// endChannel applies the effects that trigger when a channel completes.
func (s *State) endChannel(ch *Channel, emit emitFunc) {
	switch ch.Action.ID {
	case ability.FistsOfFury:
		if s.Flags[talent.FlagMomentumBoost] {
			s.grant(condition.MomentumBoost, 1, -1)
		}
	case ability.SpinningCraneKick:
		if s.Flags[talent.FlagJadeIgnition] {
			d := s.Catalog.MustGet(ability.ChiExplosion)
			dmg, bd := Resolve(s, d, 0, s.opts(false, false))
			emit(d.Name, dmg, bd)
		}
	}
}

func (s *State) opts(combo, empowered bool) ResolveOptions {
	return ResolveOptions{
		Combo:         combo,
		Empowered:     empowered,
		ExpectedValue: s.Mode == ExpectedValue,
		ForceCrit:     s.override(ProcCrit) == dice.Force,
	}
}
