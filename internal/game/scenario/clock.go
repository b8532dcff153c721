// Package scenario implements the fight-phase programs that gate uptime and
// scale damage over a fixed-length encounter.
package scenario

import (
	"fmt"

	"github.com/cory-johannsen/monksim/internal/game/dice"
)

// Fight program constants.
const (
	// Duration is the fixed encounter length in simulated seconds.
	Duration = 20.0
	// WindowStart and WindowEnd bound the downtime window [start, end).
	WindowStart = 8.0
	WindowEnd   = 12.0
	// ExecuteAt is the time from which the execute program scales damage.
	ExecuteAt = 16.0
	// ExecuteMultiplier is the execute-phase damage scale.
	ExecuteMultiplier = 3.0
	// DowntimeChance is the per-reset probability that the random program
	// disables the window.
	DowntimeChance = 0.2
	// Count is the number of fight programs.
	Count = 4
)

// ID selects one of the fight programs.
type ID int

const (
	// Patchwerk keeps the target in range for the whole fight.
	Patchwerk ID = iota
	// Intermission always disables the downtime window.
	Intermission
	// RandomIntermission disables the window only when the reset draw fired.
	RandomIntermission
	// Execute scales damage by ExecuteMultiplier from ExecuteAt onward.
	Execute
)

// String returns the program name.
func (id ID) String() string {
	switch id {
	case Patchwerk:
		return "patchwerk"
	case Intermission:
		return "intermission"
	case RandomIntermission:
		return "random_intermission"
	case Execute:
		return "execute"
	default:
		return fmt.Sprintf("scenario(%d)", int(id))
	}
}

// Phase is a named fight phase derived from a Status.
type Phase string

const (
	PhaseUptime   Phase = "uptime"
	PhaseDowntime Phase = "downtime"
	PhaseExecute  Phase = "execute"
	PhaseFinished Phase = "finished"
)

// Status is the fight state at one instant.
type Status struct {
	Uptime     bool
	Multiplier float64
	Finished   bool
}

// Phase classifies s.
//
// Postcondition: Returns one of the four Phase constants.
func (s Status) Phase() Phase {
	switch {
	case s.Finished:
		return PhaseFinished
	case !s.Uptime:
		return PhaseDowntime
	case s.Multiplier > 1:
		return PhaseExecute
	default:
		return PhaseUptime
	}
}

// Clock evaluates one fight program.
//
// Invariant: Status is a pure function of t and the value drawn at the last Reset.
type Clock struct {
	id       ID
	downtime bool
	// windowScale multiplies damage inside the window when the downtime
	// draw is replaced by its expectation.
	windowScale float64
}

// New returns a Clock for id with no downtime drawn.
//
// Precondition: 0 <= id < Count.
func New(id ID) (*Clock, error) {
	if id < 0 || id >= Count {
		return nil, fmt.Errorf("scenario: unknown program %d", int(id))
	}
	return &Clock{id: id, windowScale: 1}, nil
}

// ID returns the selected program.
func (c *Clock) ID() ID { return c.id }

// Downtime reports whether the downtime window is active for this episode.
func (c *Clock) Downtime() bool { return c.downtime }

// Reset prepares the clock for a new episode. Only RandomIntermission draws,
// exactly once, from r; the other programs never touch r.
//
// Precondition: r must be non-nil when c.ID() == RandomIntermission and o == dice.Roll.
func (c *Clock) Reset(r *dice.Roller, o dice.Override) {
	c.windowScale = 1
	switch c.id {
	case Intermission:
		c.downtime = true
	case RandomIntermission:
		if r == nil {
			c.downtime = dice.Chance(nil, "intermission", DowntimeChance, o).Fired
			return
		}
		c.downtime = r.Chance("intermission", DowntimeChance, o)
	default:
		c.downtime = false
	}
}

// ResetExpected prepares the clock for an expected-value episode. It never
// draws: a forced or suppressed downtime behaves as in Reset, otherwise
// RandomIntermission keeps the target in range and weights the window's damage
// by the chance that it stays up.
//
// Postcondition: for RandomIntermission with o == dice.Roll, the window
// multiplier is 1-DowntimeChance.
func (c *Clock) ResetExpected(o dice.Override) {
	if c.id != RandomIntermission || o != dice.Roll {
		c.Reset(nil, o)
		return
	}
	c.downtime = false
	c.windowScale = 1 - DowntimeChance
}

// Status returns the fight state at elapsed time t. Safe to call repeatedly
// with non-monotonic t.
//
// Postcondition: Finished == (t >= Duration); Multiplier == 0 whenever Uptime is false.
func (c *Clock) Status(t float64) Status {
	st := Status{Uptime: true, Multiplier: 1.0, Finished: t >= Duration}
	inWindow := t >= WindowStart && t < WindowEnd
	if c.downtime && inWindow {
		st.Uptime = false
		st.Multiplier = 0
		return st
	}
	if inWindow {
		st.Multiplier *= c.windowScale
	}
	if c.id == Execute && t >= ExecuteAt {
		st.Multiplier = ExecuteMultiplier
	}
	return st
}
