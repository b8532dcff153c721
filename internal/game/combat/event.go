package combat

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monksim/internal/game/ability"
)

// Factor is one named multiplicative step of a damage calculation.
type Factor struct {
	Name  string
	Value float64
}

// String renders the factor as "name x1.234".
func (f Factor) String() string {
	return fmt.Sprintf("%s x%.3f", f.Name, f.Value)
}

// Breakdown records how one resolution produced its damage.
type Breakdown struct {
	// Action is the resolved action or auxiliary source.
	Action ability.ID
	// Tick is the channel tick index, or 0 for instant actions.
	Tick int
	// Raw is the coefficient times agility squared.
	Raw float64
	// Modifiers lists the multiplicative factors in application order.
	Modifiers []Factor
	// CritChance is the clamped crit probability; CritMultiplier the crit damage factor.
	CritChance     float64
	CritMultiplier float64
	// Crit is true when a sampled crit fired or crit was forced.
	Crit bool
	// ExpectedValue is true when crit was folded in as (1 + p*(mult-1)).
	ExpectedValue bool
	PerTarget     float64
	Targets       int
	// AoEScale is the per-target scale applied by the area policy.
	AoEScale float64
	Total    float64
	// Rejected marks a cast on an unusable action.
	Rejected bool
	// Secondary holds the damage events a cast's proc cascade produced.
	Secondary []Event
}

// Multiplier returns the product of all Modifiers.
func (b Breakdown) Multiplier() float64 {
	m := 1.0
	for _, f := range b.Modifiers {
		m *= f.Value
	}
	return m
}

// String renders the breakdown on one line for event logs.
func (b Breakdown) String() string {
	if b.Rejected {
		return fmt.Sprintf("%s rejected", b.Action)
	}
	parts := make([]string, 0, len(b.Modifiers))
	for _, f := range b.Modifiers {
		parts = append(parts, f.String())
	}
	crit := ""
	if b.Crit {
		crit = " CRIT"
	}
	return fmt.Sprintf("%s raw=%.1f [%s] crit=%.1f%%x%.2f%s targets=%d scale=%.3f total=%.1f",
		b.Action, b.Raw, strings.Join(parts, ", "), b.CritChance*100, b.CritMultiplier, crit,
		b.Targets, b.AoEScale, b.Total)
}

// Event is one damage instance produced during Advance or Cast.
type Event struct {
	// Offset is the seconds since the start of the producing call.
	Offset float64
	// Source is the human-readable label the meter records under.
	Source    string
	Damage    float64
	Breakdown Breakdown
}

// String renders the event in the replay log format.
func (e Event) String() string {
	return fmt.Sprintf("[%6.2fs] %-28s dmg=%.1f", e.Offset, e.Source, e.Damage)
}
