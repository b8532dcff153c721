package talent

import "fmt"

// Report summarizes one Apply call.
type Report struct {
	// Applied holds the canonical ids applied, in order.
	Applied []string
	// Unknown holds identifiers the registry could not resolve.
	Unknown []string
	// Duplicate holds identifiers that resolved to an option already applied.
	Duplicate []string
}

// Apply resolves each identifier in ids against reg and applies its effect
// once, in list order. Unknown and repeated identifiers are skipped and
// reported; they never fail the call. Derived stats are recomputed afterwards.
//
// Precondition: reg and t must be non-nil with all Target fields set.
// Postcondition: each resolved option's effect has been applied exactly once.
func Apply(reg *Registry, ids []string, t *Target) (Report, error) {
	var rep Report
	seen := make(map[string]bool, len(ids))
	for _, raw := range ids {
		opt, ok := reg.Lookup(raw)
		if !ok {
			rep.Unknown = append(rep.Unknown, raw)
			continue
		}
		if seen[opt.ID] {
			rep.Duplicate = append(rep.Duplicate, raw)
			continue
		}
		seen[opt.ID] = true
		if err := opt.Effect.Apply(t, opt.Name); err != nil {
			return rep, fmt.Errorf("applying %s (%s): %w", opt.ID, opt.Name, err)
		}
		rep.Applied = append(rep.Applied, opt.ID)
	}
	t.Attributes.UpdateStats(false)
	return rep, nil
}

