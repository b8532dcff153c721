package combat_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monksim/internal/config"
	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/character"
	"github.com/cory-johannsen/monksim/internal/game/combat"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/talent"
)

// panicSrc fails the test if any value is drawn.
type panicSrc struct{}

func (panicSrc) Float64() float64 { panic("unexpected random draw") }

func baseCharacter() config.CharacterConfig {
	return config.CharacterConfig{
		Agility:           100,
		CritRating:        600,
		HasteRating:       500,
		MasteryRating:     900,
		VersatilityRating: 400,
		Weapon:            character.DualWield,
	}
}

func newState(t require.TestingT, mode combat.Mode, src dice.Source, logger *zap.Logger, talents ...string) *combat.State {
	attrs, err := character.Build(baseCharacter())
	require.NoError(t, err)
	s := combat.NewState(attrs, ability.NewCatalog(), dice.NewLoggedRoller(src, nil), logger)
	s.Mode = mode
	rep, err := s.ApplyBuild(talent.Builtin(), talents)
	require.NoError(t, err)
	require.Empty(t, rep.Unknown)
	return s
}

func evState(t require.TestingT, talents ...string) *combat.State {
	return newState(t, combat.ExpectedValue, panicSrc{}, nil, talents...)
}

func allTalents() []string {
	var ids []string
	for _, opt := range talent.Builtin().All() {
		ids = append(ids, opt.ID)
	}
	return ids
}

func hasFactor(bd combat.Breakdown, name string) bool {
	for _, f := range bd.Modifiers {
		if f.Name == name {
			return true
		}
	}
	return false
}

func countSource(events []combat.Event, source string) int {
	n := 0
	for _, e := range events {
		if e.Source == source {
			n++
		}
	}
	return n
}

func TestNewState_Initial(t *testing.T) {
	s := evState(t)
	assert.Equal(t, s.Attrs.MaxEnergy, s.Energy)
	assert.Equal(t, 0, s.Chi)
	assert.Nil(t, s.Channel)
	assert.Empty(t, s.LastAction)
	assert.NoError(t, s.Validate())
}

func TestApplyBuild_RefillsRaisedEnergy(t *testing.T) {
	s := evState(t, "inner_peace")
	assert.Equal(t, 130.0, s.Attrs.MaxEnergy)
	assert.Equal(t, 130.0, s.Energy)
}

func TestAdvance_NonPositiveIsNoop(t *testing.T) {
	s := evState(t)
	for _, d := range []float64{0, -1} {
		total, events := s.Advance(d)
		assert.Zero(t, total)
		assert.Empty(t, events)
	}
	assert.Zero(t, s.Elapsed)
}

func TestAdvance_CarriesPartialSteps(t *testing.T) {
	s := evState(t)
	for i := 0; i < 1000; i++ {
		s.Advance(0.004)
	}
	assert.InDelta(t, 4.0, s.Elapsed, 1e-6)

	halves, whole := evState(t), evState(t)
	halves.Advance(0.005)
	assert.Zero(t, halves.Elapsed, "half a step is carried, not rounded up")
	halves.Advance(0.005)
	whole.Advance(0.01)
	assert.InDelta(t, whole.Elapsed, halves.Elapsed, 1e-12)
	assert.InDelta(t, whole.Energy, halves.Energy, 1e-9)
}

func TestAdvance_RegeneratesEnergyWithHaste(t *testing.T) {
	s := evState(t)
	s.AutoAttack = false
	s.Energy = 0
	s.Advance(1.0)
	want := combat.BaseEnergyRegen * (1 + s.Attrs.Haste)
	assert.InDelta(t, want, s.Energy, 1e-9)
}

func TestAdvance_SwingsOnFirstSubStep(t *testing.T) {
	s := evState(t)
	_, events := s.Advance(combat.Step)
	require.NotEmpty(t, events)
	assert.InDelta(t, combat.Step, events[0].Offset, 1e-12)
	assert.Equal(t, "Melee", events[0].Source)
}

func TestAdvance_NoSwingWhileAutoAttackDisabled(t *testing.T) {
	s := evState(t)
	s.AutoAttack = false
	total, events := s.Advance(5)
	assert.Zero(t, total)
	assert.Empty(t, events)
}

func TestAdvance_EVWeightsDualThreat(t *testing.T) {
	s := evState(t)
	_, events := s.Advance(combat.Step)
	require.Len(t, events, 2)
	assert.Equal(t, "Melee", events[0].Source)
	assert.Equal(t, "Dual Threat", events[1].Source)
	assert.InDelta(t, (1-combat.DualThreatChance)*events[0].Breakdown.Total, events[0].Damage, 1e-9)
	assert.InDelta(t, combat.DualThreatChance*events[1].Breakdown.Total, events[1].Damage, 1e-9)
}

func TestAdvance_ForcedDualThreatReplacesSwing(t *testing.T) {
	s := newState(t, combat.Stochastic, dice.NewSeededSource(1), nil)
	s.Procs[combat.ProcDualThreat] = dice.Force
	_, events := s.Advance(combat.Step)
	require.Len(t, events, 1)
	assert.Equal(t, "Dual Threat", events[0].Source)
}

func TestAdvance_MeterRecordsEvents(t *testing.T) {
	s := evState(t)
	s.Meter = combat.Meter{}
	total, _ := s.Advance(6)
	assert.InDelta(t, total, s.Meter.Total(), 1e-6)
	assert.Contains(t, s.Meter, "Melee")
}

func TestResolve_TigerPalmFormula(t *testing.T) {
	s := evState(t)
	tp := s.Catalog.MustGet(ability.TigerPalm)
	total, bd := combat.Resolve(s, tp, 0, combat.ResolveOptions{ExpectedValue: true})

	raw := 0.27 * 100 * 100
	mult := combat.PhysicalMitigation * combat.CoreAura * (1 + s.Attrs.Versatility)
	crit := 1 + s.Attrs.Crit*(combat.BaseCritMultiplier-1)
	assert.InDelta(t, raw, bd.Raw, 1e-9)
	assert.InDelta(t, raw*mult*crit, total, 1e-6)
	assert.InDelta(t, mult, bd.Multiplier(), 1e-12)
	assert.Equal(t, []string{"Armor", "Windwalker Aura", "Versatility"}, factorNames(bd))
}

func TestResolve_ModifierOrder(t *testing.T) {
	s := evState(t, "hit_combo", "fast_feet", "acclamation")
	rsk := s.Catalog.MustGet(ability.RisingSunKick)
	_, bd := combat.Resolve(s, rsk, 0, combat.ResolveOptions{Combo: true, Empowered: true, ExpectedValue: true})
	assert.Equal(t, []string{
		"Armor", "Fast Feet", "Dance of Chi-Ji", "Kick Aura", "Windwalker Aura",
		"Hit Combo", "Mastery: Combo Strikes", "Versatility",
	}, factorNames(bd))
	assert.InDelta(t, 1+1.2*s.Attrs.Mastery, factor(bd, "Mastery: Combo Strikes"), 1e-12)
}

func TestResolve_NatureSkipsArmor(t *testing.T) {
	s := evState(t)
	s.Targets = 8
	ce := s.Catalog.MustGet(ability.ChiExplosion)
	_, bd := combat.Resolve(s, ce, 0, combat.ResolveOptions{ExpectedValue: true})
	assert.False(t, hasFactor(bd, "Armor"))
	assert.InDelta(t, 1.25, factor(bd, "Jade Ignition Targets"), 1e-12)
	assert.Equal(t, 8, bd.Targets)
}

func TestResolve_CritClampedAndForced(t *testing.T) {
	s := newState(t, combat.Stochastic, panicSrc{}, nil, "glory_of_the_dawn")
	s.Attrs.Crit = 0.95
	rsk := s.Catalog.MustGet(ability.RisingSunKick)
	_, bd := combat.Resolve(s, rsk, 0, combat.ResolveOptions{})
	assert.Equal(t, 1.0, bd.CritChance)
	assert.True(t, bd.Crit)

	s.Attrs.Crit = 0
	_, bd = combat.Resolve(s, s.Catalog.MustGet(ability.TigerPalm), 0, combat.ResolveOptions{ForceCrit: true})
	assert.True(t, bd.Crit)
	assert.Equal(t, combat.BaseCritMultiplier, bd.CritMultiplier)
}

func TestResolve_CritModifiersAdd(t *testing.T) {
	s := evState(t, "rising_star")
	_, bd := combat.Resolve(s, s.Catalog.MustGet(ability.RisingSunKick), 0, combat.ResolveOptions{ExpectedValue: true})
	assert.InDelta(t, 2.12, bd.CritMultiplier, 1e-12)
}

func TestResolve_TargetCritBonus(t *testing.T) {
	s := evState(t)
	s.Targets = 10
	_, bd := combat.Resolve(s, s.Catalog.MustGet(ability.SpinningCraneKick), 0, combat.ResolveOptions{ExpectedValue: true})
	assert.InDelta(t, s.Attrs.Crit+5*combat.TargetCritBonus, bd.CritChance, 1e-12)
}

func TestResolve_SuppressedCritInExpectedValue(t *testing.T) {
	s := evState(t)
	s.Procs[combat.ProcCrit] = dice.Suppress
	tp := s.Catalog.MustGet(ability.TigerPalm)
	total, bd := combat.Resolve(s, tp, 0, combat.ResolveOptions{ExpectedValue: true})
	assert.InDelta(t, bd.Raw*bd.Multiplier(), total, 1e-9)
}

func factorNames(bd combat.Breakdown) []string {
	var out []string
	for _, f := range bd.Modifiers {
		out = append(out, f.Name)
	}
	return out
}

func factor(bd combat.Breakdown, name string) float64 {
	for _, f := range bd.Modifiers {
		if f.Name == name {
			return f.Value
		}
	}
	return math.NaN()
}

func TestAoETotal_Policies(t *testing.T) {
	single := &ability.Descriptor{AoE: ability.Single}
	cleave := &ability.Descriptor{AoE: ability.Cleave}
	uncapped := &ability.Descriptor{AoE: ability.Uncapped}

	total, _ := combat.AoETotal(single, 10, 5)
	assert.Equal(t, 10.0, total)
	total, _ = combat.AoETotal(cleave, 10, 1)
	assert.Equal(t, 10.0, total)
	total, _ = combat.AoETotal(cleave, 10, 5)
	assert.InDelta(t, 26.0, total, 1e-12)
	total, _ = combat.AoETotal(uncapped, 10, 7)
	assert.Equal(t, 70.0, total)
}

func TestAoETotal_SoftCapProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 10).Draw(t, "cap")
		n := rapid.IntRange(2, 40).Draw(t, "n")
		per := rapid.Float64Range(1, 1e6).Draw(t, "per")
		d := &ability.Descriptor{AoE: ability.SoftCap, Cap: limit}

		total, scale := combat.AoETotal(d, per, n)
		prev, _ := combat.AoETotal(d, per, n-1)
		if n <= limit {
			assert.InDelta(t, per*float64(n), total, 1e-6*per*float64(n))
			assert.Equal(t, 1.0, scale)
			return
		}
		assert.InDelta(t, math.Sqrt(float64(limit)/float64(n)), scale, 1e-12)
		if total <= prev {
			t.Fatalf("soft-cap total not increasing: %v <= %v at n=%d", total, prev, n)
		}
		if total-prev > per+1e-6*per {
			t.Fatalf("marginal target added %v > per-target %v at n=%d", total-prev, per, n)
		}
	})
}

func TestMeter_NilSafeAndSorted(t *testing.T) {
	var nilMeter combat.Meter
	assert.NotPanics(t, func() { nilMeter.Add("x", 1) })

	m := combat.Meter{}
	m.Add("b", 5)
	m.Add("a", 5)
	m.Add("c", 9)
	m.Add("a", 1)
	assert.Equal(t, []combat.Entry{{"c", 9}, {"a", 6}, {"b", 5}}, m.Sorted())
	assert.Equal(t, 20.0, m.Total())

	other := combat.Meter{"c": 1}
	m.Merge(other)
	assert.Equal(t, 10.0, m["c"])
}

func TestMeter_WriteTable(t *testing.T) {
	m := combat.Meter{"Tiger Palm": 300, "Rising Sun Kick": 700}
	var b strings.Builder
	require.NoError(t, m.WriteTable(&b, 20))
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "Rising Sun Kick")
	assert.Contains(t, lines[1], "70.0%")
	assert.Contains(t, lines[3], "TOTAL")
	assert.Contains(t, lines[3], "50.0")
}

func TestBreakdown_String(t *testing.T) {
	bd := combat.Breakdown{Action: ability.TigerPalm, Raw: 100, Modifiers: []combat.Factor{{Name: "Armor", Value: 0.7}}, Targets: 1, AoEScale: 1, Total: 70}
	assert.Contains(t, bd.String(), "Armor x0.700")
	assert.Equal(t, "tiger_palm rejected", combat.Breakdown{Action: ability.TigerPalm, Rejected: true}.String())
}
