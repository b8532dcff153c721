package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/monksim/internal/game/combat"
	"github.com/cory-johannsen/monksim/internal/game/episode"
)

// ReplayEntry records one performed sequence step.
type ReplayEntry struct {
	Index  int
	At     float64
	Action string
	Wait   float64
	// Cast is false when the action was not usable and the step idled instead.
	Cast   bool
	Reward float64
	Events []combat.Event
}

// String renders the entry header in the "[  1.23s] ACTION" log style.
func (e ReplayEntry) String() string {
	label := e.Action
	switch {
	case e.Action == "":
		label = fmt.Sprintf("wait %.2fs", e.Wait)
	case !e.Cast:
		label += " (not usable)"
	}
	return fmt.Sprintf("[%6.2fs] %s dmg=%.1f", e.At, label, e.Reward)
}

// Replay is the outcome of playing a sequence.
type Replay struct {
	Name    string
	Entries []ReplayEntry
	Total   float64
	// Truncated is true when the fight ended before every step ran.
	Truncated bool
}

// Log renders every entry followed by its events.
func (r *Replay) Log() string {
	var b strings.Builder
	for _, e := range r.Entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
		for _, ev := range e.Events {
			b.WriteString("    ")
			b.WriteString(ev.String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// PlayReplay plays seq against env, one decision per step repetition, until the
// sequence is exhausted or the fight ends.
//
// Precondition: env has been Reset.
// Postcondition: Total equals the sum of entry rewards.
func PlayReplay(ctx context.Context, env *episode.Env, seq *Sequence) (*Replay, error) {
	out := &Replay{Name: seq.Name}
	idx := 0
	for _, st := range seq.Steps {
		for n := 0; n < st.Times(); n++ {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			if env.Done() {
				out.Truncated = true
				return out, nil
			}
			entry := ReplayEntry{Index: idx, At: env.Now(), Action: st.Action, Wait: st.Wait}
			var res episode.StepResult
			if st.Action != "" {
				res = env.Step(st.Action)
			} else {
				res = env.Idle(st.Wait)
			}
			entry.Cast = res.Cast
			entry.Reward = res.Reward
			entry.Events = res.Events
			out.Entries = append(out.Entries, entry)
			out.Total += res.Reward
			idx++
		}
	}
	return out, nil
}
