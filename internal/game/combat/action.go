package combat

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/condition"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/talent"
)

// Named probabilistic branches. These are the keys of State.Procs.
const (
	ProcCrit          = "crit"
	ProcDualThreat    = "dual_threat"
	ProcComboBreaker  = "combo_breaker"
	ProcDanceOfChiji  = "dance_of_chiji"
	ProcBrokenTemple  = "knowledge_of_the_broken_temple"
	ProcFinisherReset = "finisher_reset"
)

// Proc chances.
const (
	DualThreatChance     = 0.20
	ComboBreakerChance   = 0.08
	DanceChancePerChi    = 0.02
	BrokenTempleChance   = 0.25
	FinisherResetBase    = 0.12
	FinisherResetPerStep = 0.04
	MemoryHastePerStack  = 0.01
	TigereyeCritPerStack = 0.01
	ZenithChiRefund      = 2
	FinisherChiRefund    = 1
)

// ThunderfistStacks caps the stacks one strike_of_the_windlord grants.
const ThunderfistStacks = 4

// Procs lists every overridable branch name in a stable order.
func Procs() []string {
	return []string{ProcComboBreaker, ProcCrit, ProcDanceOfChiji, ProcDualThreat, ProcFinisherReset, ProcBrokenTemple}
}

// ChiCost returns the chi d costs right now after free-cast and empowerment discounts.
//
// Postcondition: 0 <= result <= d.ChiCost.
func (s *State) ChiCost(d *ability.Descriptor) int {
	if d.ChiCost <= 0 {
		return 0
	}
	switch {
	case d.ID == ability.BlackoutKick && s.Buffs.Has(condition.ComboBreaker):
		return 0
	case d.ID == ability.SpinningCraneKick && s.Buffs.Has(condition.DanceOfChiji):
		return 0
	case s.Buffs.Has(condition.Zenith):
		return d.ChiCost - 1
	}
	return d.ChiCost
}

// IsUsable reports whether id can be cast now.
//
// Postcondition: false for unknown or unlearned ids, while channeling, while the
// global cooldown runs for on-GCD actions, without a charge, without resources,
// and when an action-specific gate fails.
func (s *State) IsUsable(id ability.ID) bool {
	d, ok := s.Catalog.Get(id)
	if !ok || !d.Known {
		return false
	}
	if s.Channel != nil {
		return false
	}
	if d.GCDSeconds() > 0 && s.GCD > epsilon {
		return false
	}
	if d.OnCooldown() {
		return false
	}
	if s.Energy < d.EnergyCost || s.Chi < s.ChiCost(d) {
		return false
	}
	switch id {
	case ability.TouchOfDeath:
		return s.TargetHealth < ExecuteThreshold
	case ability.WhirlingDragonPunch:
		rsk := s.Catalog.MustGet(ability.RisingSunKick)
		fof := s.Catalog.MustGet(ability.FistsOfFury)
		return rsk.OnCooldown() && fof.OnCooldown()
	}
	return true
}

// Usable returns the usable action ids in catalog order.
func (s *State) Usable() []ability.ID {
	var out []ability.ID
	for _, id := range s.Catalog.IDs() {
		if s.IsUsable(id) {
			out = append(out, id)
		}
	}
	return out
}

// Cast performs id: pays its costs, starts its cooldown and the global cooldown,
// updates the combo-strike counter, resolves the hit or starts the channel, and
// runs the secondary proc cascade. Every damage instance is recorded in meter.
//
// Precondition: meter may be nil.
// Postcondition: an unusable id changes nothing and returns 0 with Rejected set.
func (s *State) Cast(id ability.ID, meter Meter) (float64, Breakdown) {
	if !s.IsUsable(id) {
		if ce := s.logger.Check(zap.DebugLevel, "cast rejected"); ce != nil {
			ce.Write(zap.String("action", string(id)), zap.Float64("energy", s.Energy), zap.Int("chi", s.Chi))
		}
		return 0, Breakdown{Action: id, Rejected: true}
	}
	d := s.Catalog.MustGet(id)

	s.addEnergy(-d.EnergyCost)
	chiSpent := s.ChiCost(d)
	empowered := false
	switch {
	case d.ID == ability.BlackoutKick && chiSpent == 0 && d.ChiCost > 0:
		s.Buffs.Consume(condition.ComboBreaker, 1)
	case d.ID == ability.SpinningCraneKick && chiSpent == 0 && d.ChiCost > 0:
		s.Buffs.Consume(condition.DanceOfChiji, 1)
		empowered = true
	}
	s.addChi(-chiSpent)
	s.addChi(d.ChiGain)

	s.Catalog.Spend(d, s.Attrs.Haste)
	// Off-GCD actions never shorten a running global cooldown.
	s.GCD = math.Max(s.GCD, d.GCDSeconds())

	combo := false
	if d.ComboStrike {
		switch {
		case s.LastAction == "":
		case s.LastAction != d.ID:
			combo = true
			s.grant(condition.HitCombo, 1, -1)
		default:
			s.Buffs.Remove(condition.HitCombo)
		}
	}
	s.LastAction = d.ID

	var (
		total float64
		bd    = Breakdown{Action: d.ID}
	)
	record := func(label string, dmg float64, b Breakdown) {
		total += dmg
		meter.Add(label, dmg)
		bd.Secondary = append(bd.Secondary, Event{Source: label, Damage: dmg, Breakdown: b})
	}

	switch {
	case d.Channeled():
		dur := d.ChannelFor(s.Attrs.Haste)
		ticks := max(d.Ticks, 1)
		s.Channel = &Channel{
			Action:         d,
			TicksRemaining: ticks,
			Interval:       dur / float64(ticks),
			NextTick:       dur / float64(ticks),
			Combo:          combo,
			Empowered:      empowered,
		}
	case d.Coefficient > 0:
		var dmg float64
		dmg, bd = Resolve(s, d, 0, s.opts(combo, empowered))
		total += dmg
		meter.Add(d.Name, dmg)
	}

	s.cascade(d, chiSpent, combo, record)

	if ce := s.logger.Check(zap.DebugLevel, "cast"); ce != nil {
		ce.Write(
			zap.String("action", string(d.ID)),
			zap.Bool("combo", combo),
			zap.Int("chi_spent", chiSpent),
			zap.Float64("damage", total),
			zap.Float64("elapsed", s.Elapsed),
		)
	}
	return total, bd
}

// cascade runs the secondary effects of casting d.
func (s *State) cascade(d *ability.Descriptor, chiSpent int, combo bool, emit emitFunc) {
	if chiSpent > 0 {
		p := 1 - math.Pow(1-DanceChancePerChi, float64(chiSpent))
		if s.proc(ProcDanceOfChiji, p) {
			s.grant(condition.DanceOfChiji, 1, -1)
		}
		if tb, ok := s.Catalog.Get(ability.TigereyeBrew); ok && tb.Known {
			s.grant(condition.TigereyeStacks, chiSpent, -1)
		}
	}

	switch d.ID {
	case ability.TigerPalm:
		if s.proc(ProcComboBreaker, ComboBreakerChance) {
			s.grant(condition.ComboBreaker, 1, -1)
		}
		if s.Flags[talent.FlagTeachings] {
			s.grant(condition.Teachings, 1, -1)
		}
		if v, ok := s.Timers[talent.TimerCombatWisdom]; ok && v <= epsilon {
			s.Timers[talent.TimerCombatWisdom] = CombatWisdomPeriod
			cw := s.Catalog.MustGet(ability.CombatWisdom)
			dmg, b := Resolve(s, cw, 0, s.opts(false, false))
			emit(cw.Name, dmg, b)
		}

	case ability.RisingSunKick:
		if s.Flags[talent.FlagBlackoutReinforcement] {
			s.grant(condition.ComboBreaker, 1, -1)
		}

	case ability.SpinningCraneKick:
		if s.Flags[talent.FlagRisingSurge] {
			s.grant(condition.RisingSurge, 1, -1)
			if s.Buffs.Stacks(condition.RisingSurge) >= s.Buffs.Registry().MustGet(condition.RisingSurge).Cap() {
				s.Buffs.Remove(condition.RisingSurge)
				s.Catalog.Reset(ability.RisingSunKick)
			}
		}

	case ability.BlackoutKick:
		s.teachings(combo, emit)
		p := FinisherResetBase + FinisherResetPerStep*float64(s.Buffs.Stacks(condition.FinisherReset))
		if s.proc(ProcFinisherReset, p) {
			s.Catalog.Reset(ability.RisingSunKick)
			s.addChi(FinisherChiRefund)
			s.Buffs.Remove(condition.FinisherReset)
		} else {
			s.grant(condition.FinisherReset, 1, -1)
		}

	case ability.StrikeOfTheWindlord:
		s.grant(condition.Thunderfist, min(s.targets(), ThunderfistStacks), -1)

	case ability.TigereyeBrew:
		stacks := s.Buffs.Stacks(condition.TigereyeStacks)
		s.grant(condition.TigereyeBrew, 1, d.BuffDuration)
		s.Buffs.SetValue(condition.TigereyeBrew, TigereyeCritPerStack*float64(stacks))
		s.Buffs.Remove(condition.TigereyeStacks)
		s.Catalog.Reset(ability.RisingSunKick)
		s.Catalog.Reset(ability.FistsOfFury)

	case ability.Zenith:
		s.grant(condition.Zenith, 1, d.BuffDuration)
		s.addChi(ZenithChiRefund)
		s.updateStats()
	}
}

// teachings consumes teachings_of_the_monastery stacks into extra hits.
func (s *State) teachings(combo bool, emit emitFunc) {
	n := s.Buffs.Stacks(condition.Teachings)
	if n == 0 {
		return
	}
	hit := s.Catalog.MustGet(ability.TeachingsHit)
	for i := 0; i < n; i++ {
		dmg, b := Resolve(s, hit, 0, s.opts(combo, false))
		emit(hit.Name, dmg, b)
	}
	s.Buffs.Remove(condition.Teachings)
	if s.Flags[talent.FlagMemory] {
		s.grant(condition.Memory, 1, -1)
		s.Buffs.SetValue(condition.Memory, MemoryHastePerStack*float64(n))
		s.updateStats()
	}
	if !s.Flags[talent.FlagBrokenTemple] {
		return
	}
	if s.Mode == ExpectedValue && s.override(ProcBrokenTemple) == dice.Roll {
		// The refunded stack is worth one more hit, weighted by its chance.
		dmg, b := Resolve(s, hit, 0, s.opts(combo, false))
		b.Total *= BrokenTempleChance
		emit(hit.Name, BrokenTempleChance*dmg, b)
		return
	}
	if s.proc(ProcBrokenTemple, BrokenTempleChance) {
		s.grant(condition.Teachings, 1, -1)
	}
}

// grant applies a builtin buff. Buff ids are compile-time constants, so a
// failure is a programming error and is logged rather than returned.
func (s *State) grant(id string, stacks int, duration float64) {
	if err := s.Buffs.Apply(id, stacks, duration); err != nil {
		s.logger.Error("applying buff", zap.String("buff", id), zap.Error(err))
	}
}
