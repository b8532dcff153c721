// Package dice provides the randomness abstraction and proc-roll audit types
// for the combat simulator. Every probabilistic branch in the simulator draws
// through a Source so that expected-value evaluation can be proven draw-free.
package dice

import "fmt"

// Source is the randomness provider for proc and crit rolls.
//
// Implementations are owned by a single simulation instance and need not be
// safe for concurrent use.
type Source interface {
	// Float64 returns a uniformly distributed value in [0, 1).
	Float64() float64
}

// Override forces or suppresses a probabilistic branch.
type Override int

const (
	// Roll samples the branch normally.
	Roll Override = iota
	// Force makes the branch fire without sampling.
	Force
	// Suppress makes the branch fail without sampling.
	Suppress
)

// String returns the override keyword used in override expressions.
func (o Override) String() string {
	switch o {
	case Force:
		return "force"
	case Suppress:
		return "suppress"
	default:
		return "roll"
	}
}

// ProcResult holds the audit trail for a single probabilistic branch.
//
// Postcondition: Sampled is false whenever Override != Roll or Chance is 0 or 1.
type ProcResult struct {
	Proc     string   // branch name, e.g. "combo_breaker"
	Chance   float64  // probability in [0, 1]
	Override Override // override applied
	Sampled  bool     // whether a value was drawn from the Source
	Draw     float64  // drawn value; meaningful only when Sampled
	Fired    bool
}

// String returns a human-readable audit string in the format:
//
//	"combo_breaker 8.0% → 0.0312 fired"
//
// Precondition: r.Proc is non-empty.
func (r ProcResult) String() string {
	if r.Proc == "" {
		panic("dice: ProcResult.String() precondition violated: Proc must be non-empty")
	}
	outcome := "missed"
	if r.Fired {
		outcome = "fired"
	}
	if !r.Sampled {
		return fmt.Sprintf("%s %.1f%% → %s %s", r.Proc, r.Chance*100, r.Override, outcome)
	}
	return fmt.Sprintf("%s %.1f%% → %.4f %s", r.Proc, r.Chance*100, r.Draw, outcome)
}
