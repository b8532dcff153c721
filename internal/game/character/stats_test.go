package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monksim/internal/config"
	"github.com/cory-johannsen/monksim/internal/game/character"
)

func baseConfig() config.CharacterConfig {
	return config.CharacterConfig{
		Agility:           100,
		CritRating:        900,
		HasteRating:       850,
		MasteryRating:     1000,
		VersatilityRating: 410,
		Weapon:            character.DualWield,
	}
}

func TestMasteryFromRating_Points(t *testing.T) {
	const eps = 1e-12
	assert.InDelta(t, character.BaseMastery, character.MasteryFromRating(0), eps)
	assert.InDelta(t, 1380.0/2000+character.BaseMastery, character.MasteryFromRating(1380), eps)

	above := 1380 + 1e-3
	want := (1380+(above-1380)*0.9)/2000 + character.BaseMastery
	assert.InDelta(t, want, character.MasteryFromRating(above), eps)

	want5000 := (1380+(5000-1380)*0.9)/2000 + character.BaseMastery
	assert.InDelta(t, want5000, character.MasteryFromRating(5000), eps)
}

func TestMasteryFromRating_ContinuousAtThreshold(t *testing.T) {
	below := character.MasteryFromRating(1380)
	above := character.MasteryFromRating(1380 + 1e-9)
	assert.InDelta(t, below, above, 1e-9)
}

func TestUpdateStats_EmpoweredDoublesRatingCrit(t *testing.T) {
	a, err := character.Build(baseConfig())
	require.NoError(t, err)
	normal := a.Crit
	a.UpdateStats(true)
	assert.InDelta(t, character.BaseCrit+2*(normal-character.BaseCrit), a.Crit, 1e-12)
	a.UpdateStats(false)
	assert.InDelta(t, normal, a.Crit, 1e-12)
}

func TestBuild_WeaponProfiles(t *testing.T) {
	cfg := baseConfig()
	a, err := character.Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2.6, a.BaseSwingTime)
	assert.Equal(t, 0.55, a.AutoCoefficient)
	assert.Equal(t, 100.0, a.MaxEnergy)
	assert.Equal(t, 5, a.MaxChi)

	cfg.Weapon = character.TwoHand
	a, err = character.Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.6, a.BaseSwingTime)
	assert.Equal(t, 0.90, a.AutoCoefficient)
}

func TestBuild_Errors(t *testing.T) {
	cfg := baseConfig()
	cfg.Weapon = "polearm"
	_, err := character.Build(cfg)
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.Agility = 0
	_, err = character.Build(cfg)
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.MasteryRating = -5
	_, err = character.Build(cfg)
	assert.Error(t, err)
}

func TestAddAndScale(t *testing.T) {
	a, err := character.Build(baseConfig())
	require.NoError(t, err)

	require.NoError(t, a.Add("max_chi", 1))
	assert.Equal(t, 6, a.MaxChi)
	require.NoError(t, a.Add("max_energy", 30))
	assert.Equal(t, 130.0, a.MaxEnergy)
	require.NoError(t, a.Scale("haste_rating", 0.10))
	assert.InDelta(t, 935.0, a.HasteRating, 1e-9)
	require.NoError(t, a.Add("versatility", 0.02))
	a.UpdateStats(false)
	assert.InDelta(t, 410.0/2050+0.02, a.Versatility, 1e-12)

	assert.Error(t, a.Add("strength", 1))
	assert.Error(t, a.Scale("max_chi", 0.5))
}

// TestMasteryFromRating_MonotoneProperty verifies derived mastery never
// decreases as rating grows and grows more slowly above the threshold.
func TestMasteryFromRating_MonotoneProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float64Range(0, 10000).Draw(rt, "a")
		b := rapid.Float64Range(0, 10000).Draw(rt, "b")
		if a > b {
			a, b = b, a
		}
		ma, mb := character.MasteryFromRating(a), character.MasteryFromRating(b)
		assert.LessOrEqual(rt, ma, mb+1e-15)
		if a >= character.MasteryDRThreshold {
			assert.InDelta(rt, (b-a)*0.9/2000, mb-ma, 1e-9)
		}
	})
}
