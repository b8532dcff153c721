package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/monksim/internal/config"
)

// weaponProfile is the swing time and auto coefficient of a weapon configuration.
type weaponProfile struct {
	swing float64
	coef  float64
}

var weapons = map[string]weaponProfile{
	DualWield: {swing: 2.6, coef: 0.55},
	TwoHand:   {swing: 3.6, coef: 0.90},
}

// Build constructs baseline Attributes from configuration and derives stats.
//
// Precondition: cfg.Agility > 0; ratings >= 0; cfg.Weapon is DualWield or TwoHand.
// Postcondition: Returns Attributes with derived stats computed, or a non-nil error.
func Build(cfg config.CharacterConfig) (*Attributes, error) {
	if cfg.Agility <= 0 {
		return nil, errors.New("agility must be positive")
	}
	if cfg.CritRating < 0 || cfg.HasteRating < 0 || cfg.MasteryRating < 0 || cfg.VersatilityRating < 0 {
		return nil, errors.New("ratings must not be negative")
	}
	w, ok := weapons[cfg.Weapon]
	if !ok {
		return nil, fmt.Errorf("unknown weapon configuration %q", cfg.Weapon)
	}
	a := &Attributes{
		Agility:               cfg.Agility,
		CritRating:            cfg.CritRating,
		HasteRating:           cfg.HasteRating,
		MasteryRating:         cfg.MasteryRating,
		VersatilityRating:     cfg.VersatilityRating,
		MaxEnergy:             100,
		MaxChi:                5,
		EnergyRegenMultiplier: 1.0,
		Weapon:                cfg.Weapon,
		BaseSwingTime:         w.swing,
		AutoCoefficient:       w.coef,
	}
	a.UpdateStats(false)
	return a, nil
}

// Add adds delta to the named attribute.
//
// Postcondition: returns an error for an unknown attribute name; a is unchanged in that case.
func (a *Attributes) Add(name string, delta float64) error {
	p, err := a.field(name)
	if err != nil {
		return err
	}
	if name == "max_chi" {
		a.MaxChi += int(delta)
		return nil
	}
	*p += delta
	return nil
}

// Scale multiplies the named attribute by (1 + pct).
//
// Postcondition: returns an error for an unknown attribute name; a is unchanged in that case.
func (a *Attributes) Scale(name string, pct float64) error {
	p, err := a.field(name)
	if err != nil {
		return err
	}
	if name == "max_chi" {
		return errors.New("max_chi cannot be scaled")
	}
	*p *= 1 + pct
	return nil
}

// field resolves a float attribute by name. max_chi resolves to a nil pointer
// and is handled by the caller.
func (a *Attributes) field(name string) (*float64, error) {
	switch name {
	case "agility":
		return &a.Agility, nil
	case "crit_rating":
		return &a.CritRating, nil
	case "haste_rating":
		return &a.HasteRating, nil
	case "mastery_rating":
		return &a.MasteryRating, nil
	case "versatility_rating":
		return &a.VersatilityRating, nil
	case "versatility":
		return &a.BonusVersatility, nil
	case "max_energy":
		return &a.MaxEnergy, nil
	case "energy_regen":
		return &a.EnergyRegenMultiplier, nil
	case "swing_time":
		return &a.BaseSwingTime, nil
	case "max_chi":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown attribute %q", name)
	}
}
