package condition

import "sort"

// CritBonus returns the flat crit chance granted by all active crit buffs.
//
// Postcondition: Returns >= 0 when all Values are non-negative.
func CritBonus(s *ActiveSet) float64 {
	return sumGrants(s, "crit")
}

// HasteBonus returns the additive haste granted by all active haste buffs.
func HasteBonus(s *ActiveSet) float64 {
	return sumGrants(s, "haste")
}

// SpeedActive reports whether any swing-speed buff is active.
func SpeedActive(s *ActiveSet) bool {
	for _, b := range s.buffs {
		if b.Def.Grants == "speed" {
			return true
		}
	}
	return false
}

func sumGrants(s *ActiveSet, grants string) float64 {
	ids := make([]string, 0, 4)
	for id, b := range s.buffs {
		if b.Def.Grants == grants {
			ids = append(ids, id)
		}
	}
	// Sum in id order so the result is bit-identical across runs.
	sort.Strings(ids)
	total := 0.0
	for _, id := range ids {
		total += s.buffs[id].Value
	}
	return total
}
