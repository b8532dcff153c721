// Package ability defines the action catalog: immutable action descriptions
// with per-instance runtime state for cooldowns and charges.
package ability

import "fmt"

// ID is a stable action identifier.
type ID string

// Catalog action ids.
const (
	TigerPalm           ID = "tiger_palm"
	BlackoutKick        ID = "blackout_kick"
	RisingSunKick       ID = "rising_sun_kick"
	FistsOfFury         ID = "fists_of_fury"
	SpinningCraneKick   ID = "spinning_crane_kick"
	WhirlingDragonPunch ID = "whirling_dragon_punch"
	StrikeOfTheWindlord ID = "strike_of_the_windlord"
	TouchOfDeath        ID = "touch_of_death"
	TigereyeBrew        ID = "tigereye_brew"
	Zenith              ID = "zenith"
)

// Auxiliary damage source ids. These are resolved like actions but are never cast.
const (
	AutoAttack     ID = "auto_attack"
	DualThreat     ID = "dual_threat"
	ThunderfistHit ID = "thunderfist"
	ChiExplosion   ID = "chi_explosion"
	CombatWisdom   ID = "combat_wisdom"
	TeachingsHit   ID = "teachings_hit"
)

// Family groups actions for aura and proc rules.
type Family string

const (
	FamilyPalm     Family = "palm"
	FamilyKick     Family = "kick"
	FamilyFists    Family = "fists"
	FamilyCrane    Family = "crane"
	FamilyDragon   Family = "dragon"
	FamilyWindlord Family = "windlord"
	FamilyTouch    Family = "touch"
	FamilyUtility  Family = "utility"
	FamilyMelee    Family = "melee"
	FamilyProc     Family = "proc"
)

// School is the damage school.
type School string

const (
	Physical School = "physical"
	Nature   School = "nature"
)

// AoE is an area-of-effect policy.
type AoE int

const (
	Single AoE = iota
	Cleave
	SoftCap
	Uncapped
)

// String returns the policy name.
func (a AoE) String() string {
	switch a {
	case Single:
		return "single"
	case Cleave:
		return "cleave"
	case SoftCap:
		return "soft_cap"
	case Uncapped:
		return "uncapped"
	default:
		return fmt.Sprintf("aoe(%d)", int(a))
	}
}

// DefaultCap is the soft-cap target threshold when a descriptor sets none.
const DefaultCap = 5

// DefaultGCD is the global cooldown triggered by an action with no override.
const DefaultGCD = 1.0

// Modifier is a named multiplicative or additive adjustment installed by a build option.
type Modifier struct {
	Name  string
	Value float64
}

// Descriptor describes one action.
//
// Invariant: PerTick == Coefficient / max(Ticks, 1) after Recompute.
// Invariant: 0 <= Charges <= MaxCharges; CurrentCooldown >= 0.
type Descriptor struct {
	ID     ID
	Name   string
	Family Family
	School School

	Coefficient float64
	PerTick     float64

	EnergyCost float64
	ChiCost    int
	ChiGain    int

	Cooldown      float64
	HasteCooldown bool
	// ChannelTime > 0 marks a channeled action.
	ChannelTime  float64
	HasteChannel bool
	Ticks        int
	MaxCharges   int

	Known bool
	AoE   AoE
	Cap   int

	BonusCrit float64
	// GCD overrides DefaultGCD when non-nil.
	GCD *float64
	// ComboStrike marks actions subject to the combo-strike rule.
	ComboStrike bool
	// BuffDuration is the self-buff length applied on cast, if any.
	BuffDuration float64

	// Modifiers multiply damage in order; CritModifiers add to the crit multiplier.
	Modifiers     []Modifier
	CritModifiers []Modifier

	// Runtime
	Charges         int
	CurrentCooldown float64
}

// Channeled reports whether the action occupies the channel slot.
func (d *Descriptor) Channeled() bool {
	return d.ChannelTime > 0
}

// EffectiveCap returns Cap, or DefaultCap when unset.
func (d *Descriptor) EffectiveCap() int {
	if d.Cap <= 0 {
		return DefaultCap
	}
	return d.Cap
}

// GCDSeconds returns the global cooldown this action triggers.
func (d *Descriptor) GCDSeconds() float64 {
	if d.GCD != nil {
		return *d.GCD
	}
	return DefaultGCD
}

// Recompute refreshes derived coefficients after a build option changes
// Coefficient or Ticks.
//
// Postcondition: PerTick == Coefficient / max(Ticks, 1).
func (d *Descriptor) Recompute() {
	ticks := d.Ticks
	if ticks < 1 {
		ticks = 1
	}
	d.PerTick = d.Coefficient / float64(ticks)
}

// OnCooldown reports whether no charge is available.
func (d *Descriptor) OnCooldown() bool {
	return d.Charges <= 0
}

// clone returns a deep copy with runtime state reset to full charges.
func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.Modifiers = append([]Modifier(nil), d.Modifiers...)
	c.CritModifiers = append([]Modifier(nil), d.CritModifiers...)
	if d.GCD != nil {
		g := *d.GCD
		c.GCD = &g
	}
	c.Recompute()
	c.Charges = c.MaxCharges
	c.CurrentCooldown = 0
	return &c
}
