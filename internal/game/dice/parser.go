package dice

import (
	"fmt"
	"sort"
	"strings"
)

// ParseOverride parses a single override keyword.
// Supported forms: "roll", "force", "suppress" (case-insensitive).
func ParseOverride(s string) (Override, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "roll", "":
		return Roll, nil
	case "force", "on":
		return Force, nil
	case "suppress", "off":
		return Suppress, nil
	default:
		return Roll, fmt.Errorf("dice: unknown override %q", s)
	}
}

// ParseOverrides parses a comma-separated override expression into a map
// keyed by proc name.
// Supported forms: "", "combo_breaker=force", "combo_breaker=force, finisher=suppress"
//
// Postcondition: Returns a non-nil map or a descriptive error; proc names are lower-cased.
func ParseOverrides(expr string) (map[string]Override, error) {
	out := make(map[string]Override)
	if strings.TrimSpace(expr) == "" {
		return out, nil
	}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("dice: override %q must have the form proc=mode", part)
		}
		name := strings.ToLower(strings.TrimSpace(part[:eq]))
		o, err := ParseOverride(part[eq+1:])
		if err != nil {
			return nil, fmt.Errorf("dice: override for %q: %w", name, err)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("dice: duplicate override for %q", name)
		}
		out[name] = o
	}
	return out, nil
}

// FormatOverrides renders overrides in the form accepted by ParseOverrides,
// sorted by proc name.
func FormatOverrides(m map[string]Override) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+"="+m[n].String())
	}
	return strings.Join(parts, ",")
}
