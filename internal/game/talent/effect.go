// Package talent implements build options: a registry of named effects that
// mutate character attributes and the action catalog once, at setup.
package talent

import (
	"fmt"

	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/character"
)

// Kind discriminates the Effect variant.
type Kind int

const (
	// Unlock marks Action as known.
	Unlock Kind = iota
	// StatMod adds to or scales a character attribute.
	StatMod
	// SpellMod adds to or scales an action attribute.
	SpellMod
	// Bespoke sets flags and arms timers read later by combat logic.
	Bespoke
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case Unlock:
		return "unlock"
	case StatMod:
		return "stat_mod"
	case SpellMod:
		return "spell_mod"
	case Bespoke:
		return "bespoke"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Op selects additive or percentage scaling for mod effects.
type Op int

const (
	Add Op = iota
	Scale
)

// Effect is one build-option effect. Only the fields of its Kind are read.
type Effect struct {
	Kind Kind

	// Unlock, SpellMod
	Action ability.ID

	// StatMod, SpellMod
	Attribute string
	Op        Op
	Value     float64

	// Bespoke
	Flags  []string
	Timers map[string]float64
}

// Target is the state a build configuration mutates.
type Target struct {
	Attributes *character.Attributes
	Catalog    *ability.Catalog
	Flags      map[string]bool
	Timers     map[string]float64
}

// Apply evaluates e against t. name labels any modifier e installs.
//
// Precondition: t.Attributes and t.Catalog must not be nil; Flags and Timers
// must be non-nil when e.Kind == Bespoke.
// Postcondition: returns an error if e references an unknown action or attribute.
func (e Effect) Apply(t *Target, name string) error {
	switch e.Kind {
	case Unlock:
		d, ok := t.Catalog.Get(e.Action)
		if !ok {
			return fmt.Errorf("unlock: unknown action %q", e.Action)
		}
		d.Known = true
		return nil
	case StatMod:
		if e.Op == Scale {
			return t.Attributes.Scale(e.Attribute, e.Value)
		}
		return t.Attributes.Add(e.Attribute, e.Value)
	case SpellMod:
		d, ok := t.Catalog.Get(e.Action)
		if !ok {
			return fmt.Errorf("spell mod: unknown action %q", e.Action)
		}
		return applySpellMod(d, e, name)
	case Bespoke:
		for _, f := range e.Flags {
			t.Flags[f] = true
		}
		for k, v := range e.Timers {
			t.Timers[k] = v
		}
		return nil
	default:
		return fmt.Errorf("unknown effect kind %v", e.Kind)
	}
}

func applySpellMod(d *ability.Descriptor, e Effect, name string) error {
	num := func(p *float64) {
		if e.Op == Scale {
			*p *= 1 + e.Value
		} else {
			*p += e.Value
		}
	}
	integer := func(p *int) {
		if e.Op == Scale {
			*p = int(float64(*p) * (1 + e.Value))
		} else {
			*p += int(e.Value)
		}
	}
	switch e.Attribute {
	case "coefficient":
		num(&d.Coefficient)
		d.Recompute()
	case "ticks":
		integer(&d.Ticks)
		d.Recompute()
	case "cooldown":
		num(&d.Cooldown)
	case "channel_time":
		num(&d.ChannelTime)
	case "bonus_crit":
		num(&d.BonusCrit)
	case "energy_cost":
		num(&d.EnergyCost)
	case "buff_duration":
		num(&d.BuffDuration)
	case "chi_cost":
		integer(&d.ChiCost)
	case "cap":
		integer(&d.Cap)
	case "max_charges":
		integer(&d.MaxCharges)
		d.Charges = d.MaxCharges
	case "damage":
		if e.Op != Scale {
			return fmt.Errorf("spell mod %s: damage supports scale only", d.ID)
		}
		d.Modifiers = append(d.Modifiers, ability.Modifier{Name: name, Value: 1 + e.Value})
	case "crit_damage":
		if e.Op != Add {
			return fmt.Errorf("spell mod %s: crit_damage supports add only", d.ID)
		}
		d.CritModifiers = append(d.CritModifiers, ability.Modifier{Name: name, Value: e.Value})
	case "cleave":
		d.AoE = ability.Cleave
	default:
		return fmt.Errorf("spell mod %s: unknown attribute %q", d.ID, e.Attribute)
	}
	return nil
}
