package condition

import (
	"fmt"
	"sort"
)

// ActiveBuff tracks one applied buff on a character.
type ActiveBuff struct {
	Def       *BuffDef
	Stacks    int
	Remaining float64 // seconds; -1 = permanent
	Value     float64 // buff-specific magnitude, e.g. flat crit
}

// ActiveSet tracks all buffs currently applied to one character.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	reg   *Registry
	buffs map[string]*ActiveBuff
}

// NewActiveSet creates an empty ActiveSet resolving ids against reg.
//
// Precondition: reg must not be nil.
func NewActiveSet(reg *Registry) *ActiveSet {
	return &ActiveSet{reg: reg, buffs: make(map[string]*ActiveBuff)}
}

// Apply adds stacks of buff id, capped at its maximum, and refreshes its
// remaining duration to duration. A negative duration uses the definition's
// duration, or permanent for permanent buffs.
//
// Postcondition: Has(id) is true and 1 <= Stacks(id) <= Def.Cap() when stacks > 0.
func (s *ActiveSet) Apply(id string, stacks int, duration float64) error {
	def, ok := s.reg.Get(id)
	if !ok {
		return fmt.Errorf("Apply: unknown buff %q", id)
	}
	if stacks <= 0 {
		return nil
	}
	if duration < 0 {
		duration = def.Duration
	}
	if def.DurationType == "permanent" {
		duration = -1
	}
	b, ok := s.buffs[id]
	if !ok {
		b = &ActiveBuff{Def: def}
		s.buffs[id] = b
	}
	b.Stacks += stacks
	if b.Stacks > def.Cap() {
		b.Stacks = def.Cap()
	}
	b.Remaining = duration
	return nil
}

// Consume removes up to n stacks of id and returns how many were removed.
// The buff is removed when no stacks remain.
//
// Postcondition: 0 <= result <= n.
func (s *ActiveSet) Consume(id string, n int) int {
	b, ok := s.buffs[id]
	if !ok || n <= 0 {
		return 0
	}
	if n > b.Stacks {
		n = b.Stacks
	}
	b.Stacks -= n
	if b.Stacks == 0 {
		delete(s.buffs, id)
	}
	return n
}

// Remove deletes the buff with the given ID from the set.
// If the buff is not present, Remove is a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id string) {
	delete(s.buffs, id)
}

// Tick advances all timed buffs by dt seconds. Buffs whose remaining time
// reaches zero are removed.
//
// Postcondition: For every id in the returned slice, Has(id) is false.
// The returned ids are sorted so expiry side-effects apply in a stable order.
func (s *ActiveSet) Tick(dt float64) []string {
	var expired []string
	for id, b := range s.buffs {
		if b.Remaining < 0 {
			continue
		}
		b.Remaining -= dt
		if b.Remaining <= 1e-9 {
			expired = append(expired, id)
			delete(s.buffs, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// Has reports whether the buff with id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.buffs[id]
	return ok
}

// Stacks returns the current stack count for buff id, or 0 if not present.
func (s *ActiveSet) Stacks(id string) int {
	if b, ok := s.buffs[id]; ok {
		return b.Stacks
	}
	return 0
}

// Remaining returns the seconds left on buff id, 0 if absent, -1 if permanent.
func (s *ActiveSet) Remaining(id string) float64 {
	if b, ok := s.buffs[id]; ok {
		return b.Remaining
	}
	return 0
}

// SetValue sets the magnitude of an active buff; a no-op if id is absent.
func (s *ActiveSet) SetValue(id string, v float64) {
	if b, ok := s.buffs[id]; ok {
		b.Value = v
	}
}

// Value returns the magnitude of buff id, or 0 if not present.
func (s *ActiveSet) Value(id string) float64 {
	if b, ok := s.buffs[id]; ok {
		return b.Value
	}
	return 0
}

// Registry returns the definitions this set resolves against.
func (s *ActiveSet) Registry() *Registry {
	return s.reg
}

// All returns a slice of pointers to the active buffs sorted by ID.
// The slice itself is a new allocation, but the pointed-to ActiveBuff values
// are shared; callers must not modify them.
func (s *ActiveSet) All() []*ActiveBuff {
	out := make([]*ActiveBuff, 0, len(s.buffs))
	for _, b := range s.buffs {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}
