package ability_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monksim/internal/game/ability"
)

func TestNewCatalog_FullChargesAndOrder(t *testing.T) {
	c := ability.NewCatalog()
	ids := c.IDs()
	require.Len(t, ids, 10)
	assert.Equal(t, ability.TigerPalm, ids[0])
	assert.Equal(t, ability.Zenith, ids[len(ids)-1])
	for _, d := range c.Actions() {
		assert.Equal(t, d.MaxCharges, d.Charges, d.ID)
		assert.Zero(t, d.CurrentCooldown, d.ID)
	}
}

func TestNewCatalog_InstancesIndependent(t *testing.T) {
	a := ability.NewCatalog()
	b := ability.NewCatalog()
	rsk := a.MustGet(ability.RisingSunKick)
	rsk.Coefficient = 99
	rsk.Modifiers = append(rsk.Modifiers, ability.Modifier{Name: "x", Value: 2})
	a.Spend(rsk, 0)

	other := b.MustGet(ability.RisingSunKick)
	assert.Equal(t, 1.44, other.Coefficient)
	assert.Empty(t, other.Modifiers)
	assert.Equal(t, 1, other.Charges)
}

func TestDescriptor_PerTick(t *testing.T) {
	c := ability.NewCatalog()
	fof := c.MustGet(ability.FistsOfFury)
	assert.InDelta(t, 4.2/5, fof.PerTick, 1e-12)
	fof.Ticks = 6
	fof.Recompute()
	assert.InDelta(t, 4.2/6, fof.PerTick, 1e-12)
	assert.True(t, fof.Channeled())
	assert.False(t, c.MustGet(ability.TigerPalm).Channeled())
}

func TestLookup_Auxiliary(t *testing.T) {
	c := ability.NewCatalog()
	_, ok := c.Get(ability.ChiExplosion)
	assert.False(t, ok, "auxiliary sources are not castable")
	d, ok := c.Lookup(ability.ChiExplosion)
	require.True(t, ok)
	assert.Equal(t, ability.Nature, d.School)
	assert.Equal(t, ability.Uncapped, d.AoE)
	assert.Panics(t, func() { c.MustGet("nope") })
}

func TestGCDSeconds(t *testing.T) {
	c := ability.NewCatalog()
	assert.Equal(t, ability.DefaultGCD, c.MustGet(ability.TigerPalm).GCDSeconds())
	assert.Equal(t, 0.0, c.MustGet(ability.Zenith).GCDSeconds())
}

func TestSpendAndTick_SingleCharge(t *testing.T) {
	c := ability.NewCatalog()
	rsk := c.MustGet(ability.RisingSunKick)
	c.Spend(rsk, 0.25)
	assert.Equal(t, 0, rsk.Charges)
	assert.InDelta(t, 8.0, rsk.CurrentCooldown, 1e-12)
	assert.InDelta(t, 0.8, rsk.CooldownFraction(), 1e-12)

	for i := 0; i < 799; i++ {
		c.Tick(0.01, 0.25)
	}
	assert.Equal(t, 0, rsk.Charges)
	c.Tick(0.01, 0.25)
	assert.Equal(t, 1, rsk.Charges)
	assert.Zero(t, rsk.CurrentCooldown)
}

func TestSpend_MultiChargeKeepsRunningRecharge(t *testing.T) {
	c := ability.NewCatalog()
	rsk := c.MustGet(ability.RisingSunKick)
	rsk.MaxCharges = 2
	rsk.Charges = 2

	c.Spend(rsk, 0)
	assert.Equal(t, 1, rsk.Charges)
	assert.Equal(t, 10.0, rsk.CurrentCooldown)

	c.Tick(4, 0)
	c.Spend(rsk, 0)
	assert.Equal(t, 0, rsk.Charges)
	assert.InDelta(t, 6.0, rsk.CurrentCooldown, 1e-9, "recharge continues, not restarted")

	c.Tick(6, 0)
	assert.Equal(t, 1, rsk.Charges)
	assert.Equal(t, 10.0, rsk.CurrentCooldown, "next recharge starts")
	c.Tick(10, 0)
	assert.Equal(t, 2, rsk.Charges)
	assert.Zero(t, rsk.CurrentCooldown)
}

func TestReset(t *testing.T) {
	c := ability.NewCatalog()
	fof := c.MustGet(ability.FistsOfFury)
	c.Spend(fof, 0)
	c.Reset(ability.FistsOfFury)
	assert.Equal(t, 1, fof.Charges)
	assert.Zero(t, fof.CurrentCooldown)
	c.Reset("unknown")
}

func TestScaled_FlooredAboveZero(t *testing.T) {
	assert.Equal(t, 5.0, ability.Scaled(10, 1))
	assert.Equal(t, 10.0/0.01, ability.Scaled(10, -5))
	assert.Equal(t, ability.MinDuration, ability.Scaled(0, 0))
	assert.False(t, math.IsInf(ability.Scaled(10, -1), 0))
}

func TestAoEString(t *testing.T) {
	assert.Equal(t, "soft_cap", ability.SoftCap.String())
	assert.Equal(t, "aoe(9)", ability.AoE(9).String())
}

// TestTick_ChargesBoundedProperty verifies charges and cooldowns stay in bounds
// under arbitrary spend/tick sequences.
func TestTick_ChargesBoundedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := ability.NewCatalog()
		ids := c.IDs()
		haste := rapid.Float64Range(-0.5, 1).Draw(rt, "haste")
		for i := 0; i < 50; i++ {
			d := c.MustGet(rapid.SampledFrom(ids).Draw(rt, "id"))
			if rapid.Bool().Draw(rt, "spend") && d.Charges > 0 {
				c.Spend(d, haste)
			}
			c.Tick(rapid.Float64Range(0, 3).Draw(rt, "dt"), haste)
			for _, a := range c.Actions() {
				if a.Charges < 0 || a.Charges > a.MaxCharges || a.CurrentCooldown < 0 {
					rt.Fatalf("%s out of bounds: charges=%d cd=%v", a.ID, a.Charges, a.CurrentCooldown)
				}
			}
		}
	})
}
