package dice

// Chance evaluates one probabilistic branch named proc with probability p.
//
// Overrides are honored without sampling. Probabilities at or below 0 never
// fire and at or above 1 always fire, also without sampling.
//
// Precondition: src must be non-nil when o == Roll and 0 < p < 1.
// Postcondition: at most one value is drawn from src.
func Chance(src Source, proc string, p float64, o Override) ProcResult {
	r := ProcResult{Proc: proc, Chance: clamp01(p), Override: o}
	switch {
	case o == Force:
		r.Fired = true
	case o == Suppress:
	case r.Chance <= 0:
	case r.Chance >= 1:
		r.Fired = true
	default:
		r.Sampled = true
		r.Draw = src.Float64()
		r.Fired = r.Draw < r.Chance
	}
	return r
}

// Weight returns the probability-weighted contribution factor for a branch
// under expected-value evaluation: 1 or 0 when overridden, p otherwise.
//
// Postcondition: result is in [0, 1]; no randomness is consumed.
func Weight(p float64, o Override) float64 {
	switch o {
	case Force:
		return 1
	case Suppress:
		return 0
	default:
		return clamp01(p)
	}
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
