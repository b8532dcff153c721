package condition

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Buff ids.
const (
	Zenith         = "zenith"
	Memory         = "memory_of_the_monastery"
	MomentumBoost  = "momentum_boost"
	TigereyeBrew   = "tigereye_brew"
	ComboBreaker   = "combo_breaker"
	Thunderfist    = "thunderfist"
	Teachings      = "teachings_of_the_monastery"
	DanceOfChiji   = "dance_of_chiji"
	RisingSurge    = "rising_surge"
	HitCombo       = "hit_combo"
	TigereyeStacks = "tigereye_stacks"
	FinisherReset  = "finisher_reset"
)

// BuffDef is the static definition of a buff or counter.
type BuffDef struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	DurationType string  `yaml:"duration_type"` // "timed" | "permanent"
	Duration     float64 `yaml:"duration"`      // seconds; timed only
	MaxStacks    int     `yaml:"max_stacks"`    // 0 = unstackable
	// Grants names the derived stat the buff's Value contributes to:
	// "crit", "haste", "speed", or empty.
	Grants string `yaml:"grants"`
	// RecomputeStats marks buffs whose application or expiry changes derived stats.
	RecomputeStats bool `yaml:"recompute_stats"`
}

// Cap returns the effective stack bound: MaxStacks, or 1 when unstackable.
func (d *BuffDef) Cap() int {
	if d.MaxStacks <= 0 {
		return 1
	}
	return d.MaxStacks
}

// Registry holds all known BuffDefs keyed by ID.
//
// A Registry is read-only after construction and safe for concurrent reads.
type Registry struct {
	defs map[string]*BuffDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*BuffDef)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *BuffDef) {
	r.defs[def.ID] = def
}

// Get returns the BuffDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*BuffDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// MustGet returns the BuffDef for id and panics if it is missing.
func (r *Registry) MustGet(id string) *BuffDef {
	d, ok := r.defs[id]
	if !ok {
		panic("condition: unknown buff " + id)
	}
	return d
}

// All returns a snapshot slice of all registered BuffDefs sorted by ID.
func (r *Registry) All() []*BuffDef {
	out := make([]*BuffDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Parse decodes a YAML list of BuffDefs into a Registry. Unknown fields are rejected.
//
// Postcondition: Returns a non-nil Registry, or an error naming the first invalid entry.
func Parse(data []byte) (*Registry, error) {
	var defs []*BuffDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("parsing buff definitions: %w", err)
	}
	reg := NewRegistry()
	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("buff definition %d: id must not be empty", i)
		}
		switch d.DurationType {
		case "timed":
			if d.Duration <= 0 {
				return nil, fmt.Errorf("buff %q: timed duration must be positive", d.ID)
			}
		case "permanent":
		default:
			return nil, fmt.Errorf("buff %q: unknown duration_type %q", d.ID, d.DurationType)
		}
		if _, dup := reg.defs[d.ID]; dup {
			return nil, fmt.Errorf("buff %q: duplicate id", d.ID)
		}
		reg.Register(d)
	}
	return reg, nil
}

//go:embed buffs.yaml
var builtinYAML []byte

var builtin = func() *Registry {
	reg, err := Parse(builtinYAML)
	if err != nil {
		panic(err)
	}
	return reg
}()

// Builtin returns the process-wide read-only buff table.
func Builtin() *Registry {
	return builtin
}
