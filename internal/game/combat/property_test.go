package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/combat"
	"github.com/cory-johannsen/monksim/internal/game/dice"
)

// rotation is a fixed action script exercising channels, procs, and resets.
var rotation = []ability.ID{
	ability.TigerPalm, ability.RisingSunKick, ability.TigerPalm, ability.FistsOfFury,
	ability.TigerPalm, ability.BlackoutKick, ability.StrikeOfTheWindlord, ability.TigerPalm,
	ability.SpinningCraneKick, ability.Zenith, ability.TigereyeBrew, ability.BlackoutKick,
	ability.WhirlingDragonPunch, ability.TouchOfDeath,
}

// play runs the rotation, waiting for each action until it becomes usable.
func play(s *combat.State) float64 {
	total := 0.0
	for _, id := range rotation {
		for i := 0; i < 300 && !s.IsUsable(id); i++ {
			dmg, _ := s.Advance(0.1)
			total += dmg
			s.TargetHealth = 1 - s.Elapsed/20
		}
		dmg, _ := s.Cast(id, nil)
		total += dmg
	}
	dmg, _ := s.Advance(3)
	return total + dmg
}

func TestExpectedValue_NeverDraws(t *testing.T) {
	s := evState(t, allTalents()...)
	var total float64
	require.NotPanics(t, func() { total = play(s) })
	assert.Greater(t, total, 0.0)
	assert.Zero(t, s.Roller().Draws())
}

func TestExpectedValue_Deterministic(t *testing.T) {
	a := evState(t, allTalents()...)
	b := evState(t, allTalents()...)
	assert.Equal(t, play(a), play(b))
}

func TestStochastic_SameSeedReproducible(t *testing.T) {
	a := newState(t, combat.Stochastic, dice.NewSeededSource(99), nil, allTalents()...)
	b := newState(t, combat.Stochastic, dice.NewSeededSource(99), nil, allTalents()...)
	assert.Equal(t, play(a), play(b))
	assert.Equal(t, a.Roller().Draws(), b.Roller().Draws())
}

func TestAdvance_AdditivityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		opener := rapid.SampledFrom([]ability.ID{
			ability.TigerPalm, ability.FistsOfFury, ability.SpinningCraneKick, ability.RisingSunKick,
		}).Draw(t, "opener")
		ka := rapid.IntRange(0, 400).Draw(t, "a")
		kb := rapid.IntRange(0, 400).Draw(t, "b")
		ev := rapid.Bool().Draw(t, "ev")

		mode := combat.Stochastic
		if ev {
			mode = combat.ExpectedValue
		}
		split := newState(t, mode, dice.NewSeededSource(seed), nil, allTalents()...)
		whole := newState(t, mode, dice.NewSeededSource(seed), nil, allTalents()...)
		for _, s := range []*combat.State{split, whole} {
			s.Chi = 5
			s.Cast(opener, nil)
		}

		first, _ := split.Advance(float64(ka) * combat.Step)
		second, _ := split.Advance(float64(kb) * combat.Step)
		joined, _ := whole.Advance(float64(ka+kb) * combat.Step)

		tol := 1e-9 * max(1, joined)
		if d := first + second - joined; d > tol || d < -tol {
			t.Fatalf("advance(%d)+advance(%d)=%v, advance(%d)=%v", ka, kb, first+second, ka+kb, joined)
		}
		if split.Energy != whole.Energy || split.Chi != whole.Chi || split.Swing != whole.Swing {
			t.Fatalf("split and joined states diverged")
		}
	})
}

func TestAdvance_UnalignedDurationsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.Float64Range(0.0001, 0.5), 1, 40).Draw(t, "parts")
		split := evState(t)
		var sum float64
		for _, d := range parts {
			split.Advance(d)
			sum += d
		}
		// Only the carried remainder, always under one step, is outstanding.
		if gap := sum - split.Elapsed; gap < -1e-6 || gap >= combat.Step {
			t.Fatalf("integrated %v of %v requested", split.Elapsed, sum)
		}
	})
}

func TestState_BoundsProperty(t *testing.T) {
	actions := ability.NewCatalog().IDs()
	rapid.Check(t, func(t *rapid.T) {
		s := newState(t, combat.Stochastic, dice.NewSeededSource(rapid.Int64().Draw(t, "seed")), nil, allTalents()...)
		s.Targets = rapid.IntRange(1, 12).Draw(t, "targets")
		ops := rapid.IntRange(1, 120).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Bool().Draw(t, "cast") {
				id := rapid.SampledFrom(actions).Draw(t, "action")
				dmg, bd := s.Cast(id, nil)
				if bd.Rejected && dmg != 0 {
					t.Fatalf("rejected cast of %s dealt %v", id, dmg)
				}
				if dmg < 0 {
					t.Fatalf("negative damage %v from %s", dmg, id)
				}
			} else {
				steps := rapid.IntRange(1, 300).Draw(t, "steps")
				dmg, _ := s.Advance(float64(steps) * combat.Step)
				if dmg < 0 {
					t.Fatalf("negative damage %v from advance", dmg)
				}
			}
			s.TargetHealth = max(0, 1-s.Elapsed/20)
			if err := s.Validate(); err != nil {
				t.Fatalf("after op %d: %v", i, err)
			}
		}
	})
}

func TestCast_ComboStrikeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := newState(t, combat.ExpectedValue, panicSrc{}, nil, "hit_combo")
		prev := ability.ID("")
		n := rapid.IntRange(1, 30).Draw(t, "n")
		for i := 0; i < n; i++ {
			id := rapid.SampledFrom([]ability.ID{ability.TigerPalm, ability.BlackoutKick}).Draw(t, "action")
			s.Energy = s.Attrs.MaxEnergy
			s.Chi = 5
			s.Advance(s.GCD)
			before := s.Buffs.Stacks("hit_combo")
			_, bd := s.Cast(id, nil)
			after := s.Buffs.Stacks("hit_combo")
			switch {
			case prev == "":
				assert.Equal(t, before, after)
				assert.False(t, hasFactor(bd, "Mastery: Combo Strikes"))
			case prev == id:
				assert.Zero(t, after)
				assert.False(t, hasFactor(bd, "Mastery: Combo Strikes"))
			default:
				assert.Equal(t, min(before+1, 5), after)
				assert.True(t, hasFactor(bd, "Mastery: Combo Strikes"))
			}
			prev = id
		}
	})
}
