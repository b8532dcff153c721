// Package character defines the character attribute model and the pure
// rating-to-percentage conversion that derives combat statistics from it.
package character

// Weapon configurations.
const (
	DualWield = "dual_wield"
	TwoHand   = "two_hand"
)

// Rating conversion constants.
const (
	BaseCrit    = 0.05
	BaseMastery = 0.10

	CritPerPoint        = 1.0 / 1800
	HastePerPoint       = 1.0 / 1700
	MasteryPerPoint     = 1.0 / 2000
	VersatilityPerPoint = 1.0 / 2050

	// MasteryDRThreshold is the rating above which mastery conversion
	// is scaled by MasteryDRFactor.
	MasteryDRThreshold = 1380.0
	MasteryDRFactor    = 0.9
)

// Attributes holds the baseline values a build starts from and the derived
// percentages recomputed by UpdateStats.
//
// Invariant: derived fields are only valid after UpdateStats.
type Attributes struct {
	// Agility is the single scaling stat.
	Agility float64

	CritRating        float64
	HasteRating       float64
	MasteryRating     float64
	VersatilityRating float64
	// BonusVersatility is a flat addition to derived versatility.
	BonusVersatility float64

	MaxEnergy             float64
	MaxChi                int
	EnergyRegenMultiplier float64

	Weapon        string
	BaseSwingTime float64
	// AutoCoefficient is the melee swing coefficient for Weapon.
	AutoCoefficient float64

	// Derived
	Crit        float64
	Haste       float64
	Mastery     float64
	Versatility float64
}

// Derived returns the four derived percentages in the order crit, haste,
// mastery, versatility.
func (a *Attributes) Derived() [4]float64 {
	return [4]float64{a.Crit, a.Haste, a.Mastery, a.Versatility}
}
