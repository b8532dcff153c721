package talent

import (
	"sort"
	"strings"

	"github.com/cory-johannsen/monksim/internal/game/ability"
)

// Bespoke flag and timer names read by combat logic.
const (
	FlagHitCombo              = "hit_combo"
	FlagTeachings             = "teachings_of_the_monastery"
	FlagMomentumBoost         = "momentum_boost"
	FlagFistsHasteTicks       = "fists_of_fury_haste_ticks"
	FlagJadeIgnition          = "jade_ignition"
	FlagBlackoutReinforcement = "blackout_reinforcement"
	FlagRisingSurge           = "rising_surge"
	FlagMemory                = "memory_of_the_monastery"
	FlagBrokenTemple          = "knowledge_of_the_broken_temple"
	FlagAcclamation           = "acclamation"

	TimerCombatWisdom = "combat_wisdom"
)

// Option is one selectable build option.
type Option struct {
	// ID is the short hierarchical identifier, e.g. "ww.3.1".
	ID string
	// Name is the display name; its snake-case form is the legacy alias.
	Name    string
	Aliases []string
	Effect  Effect
}

// Registry resolves option identifiers and aliases to Options.
//
// A Registry is read-only after construction and safe for concurrent reads.
type Registry struct {
	byID    map[string]*Option
	aliases map[string]string
}

// NewRegistry builds a Registry from opts.
//
// Precondition: option ids and aliases are unique across opts.
func NewRegistry(opts []Option) *Registry {
	r := &Registry{
		byID:    make(map[string]*Option, len(opts)),
		aliases: make(map[string]string),
	}
	for i := range opts {
		o := &opts[i]
		r.byID[normalize(o.ID)] = o
		for _, a := range o.Aliases {
			r.aliases[normalize(a)] = o.ID
		}
	}
	return r
}

// Lookup resolves an id or alias, case-insensitively.
func (r *Registry) Lookup(id string) (*Option, bool) {
	key := normalize(id)
	if o, ok := r.byID[key]; ok {
		return o, true
	}
	if canonical, ok := r.aliases[key]; ok {
		return r.byID[normalize(canonical)], true
	}
	return nil, false
}

// All returns every option sorted by ID.
func (r *Registry) All() []*Option {
	out := make([]*Option, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func flag(names ...string) Effect { return Effect{Kind: Bespoke, Flags: names} }

func stat(attr string, op Op, v float64) Effect {
	return Effect{Kind: StatMod, Attribute: attr, Op: op, Value: v}
}

func spell(id ability.ID, attr string, op Op, v float64) Effect {
	return Effect{Kind: SpellMod, Action: id, Attribute: attr, Op: op, Value: v}
}

func unlock(id ability.ID) Effect { return Effect{Kind: Unlock, Action: id} }

var builtin = NewRegistry([]Option{
	{ID: "ww.1.1", Name: "Hit Combo", Aliases: []string{"hit_combo"}, Effect: flag(FlagHitCombo)},
	{ID: "ww.1.2", Name: "Teachings of the Monastery", Aliases: []string{"teachings_of_the_monastery", "totm"}, Effect: flag(FlagTeachings)},
	{ID: "ww.1.3", Name: "Ascension", Aliases: []string{"ascension"}, Effect: stat("max_chi", Add, 1)},
	{ID: "ww.1.4", Name: "Inner Peace", Aliases: []string{"inner_peace"}, Effect: stat("max_energy", Add, 30)},
	{ID: "ww.1.5", Name: "Ascended Breath", Aliases: []string{"ascended_breath"}, Effect: stat("energy_regen", Scale, 0.10)},

	{ID: "ww.2.1", Name: "Strike of the Windlord", Aliases: []string{"strike_of_the_windlord", "sotwl"}, Effect: unlock(ability.StrikeOfTheWindlord)},
	{ID: "ww.2.2", Name: "Whirling Dragon Punch", Aliases: []string{"whirling_dragon_punch", "wdp"}, Effect: unlock(ability.WhirlingDragonPunch)},
	{ID: "ww.2.3", Name: "Tigereye Brew", Aliases: []string{"tigereye_brew"}, Effect: unlock(ability.TigereyeBrew)},
	{ID: "ww.2.4", Name: "Zenith", Aliases: []string{"zenith"}, Effect: unlock(ability.Zenith)},

	{ID: "ww.3.1", Name: "Momentum Boost", Aliases: []string{"momentum_boost"}, Effect: flag(FlagMomentumBoost, FlagFistsHasteTicks)},
	{ID: "ww.3.2", Name: "Jade Ignition", Aliases: []string{"jade_ignition"}, Effect: flag(FlagJadeIgnition)},
	{ID: "ww.3.3", Name: "Shadowboxing Treads", Aliases: []string{"shadowboxing_treads"}, Effect: spell(ability.BlackoutKick, "cleave", Add, 1)},
	{ID: "ww.3.4", Name: "Fast Feet", Aliases: []string{"fast_feet"}, Effect: spell(ability.RisingSunKick, "damage", Scale, 0.20)},
	{ID: "ww.3.5", Name: "Rising Star", Aliases: []string{"rising_star"}, Effect: spell(ability.RisingSunKick, "crit_damage", Add, 0.12)},
	{ID: "ww.3.6", Name: "Crane Vortex", Aliases: []string{"crane_vortex"}, Effect: spell(ability.SpinningCraneKick, "coefficient", Scale, 0.15)},

	{ID: "ww.4.1", Name: "Blackout Reinforcement", Aliases: []string{"blackout_reinforcement"}, Effect: flag(FlagBlackoutReinforcement)},
	{ID: "ww.4.2", Name: "Rising Surge", Aliases: []string{"rising_surge"}, Effect: flag(FlagRisingSurge)},
	{ID: "ww.4.3", Name: "Memory of the Monastery", Aliases: []string{"memory_of_the_monastery"}, Effect: flag(FlagMemory)},
	{ID: "ww.4.4", Name: "Knowledge of the Broken Temple", Aliases: []string{"knowledge_of_the_broken_temple"}, Effect: flag(FlagBrokenTemple)},
	{ID: "ww.4.5", Name: "Combat Wisdom", Aliases: []string{"combat_wisdom"}, Effect: Effect{Kind: Bespoke, Timers: map[string]float64{TimerCombatWisdom: 0}}},
	{ID: "ww.4.6", Name: "Acclamation", Aliases: []string{"acclamation"}, Effect: flag(FlagAcclamation)},

	{ID: "ww.5.1", Name: "Ferocity of Xuen", Aliases: []string{"ferocity_of_xuen"}, Effect: stat("versatility", Add, 0.02)},
	{ID: "ww.5.2", Name: "Swift Art", Aliases: []string{"swift_art"}, Effect: stat("haste_rating", Scale, 0.10)},
	{ID: "ww.5.3", Name: "Drinking Horn Cover", Aliases: []string{"drinking_horn_cover"}, Effect: spell(ability.Zenith, "buff_duration", Add, 5)},
	{ID: "ww.5.4", Name: "Twin Sun", Aliases: []string{"twin_sun"}, Effect: spell(ability.RisingSunKick, "max_charges", Add, 1)},
	{ID: "ww.5.5", Name: "Glory of the Dawn", Aliases: []string{"glory_of_the_dawn"}, Effect: spell(ability.RisingSunKick, "bonus_crit", Add, 0.10)},
	{ID: "ww.5.6", Name: "Spiritual Focus", Aliases: []string{"spiritual_focus"}, Effect: spell(ability.FistsOfFury, "ticks", Add, 1)},
})

// Builtin returns the process-wide read-only option registry.
func Builtin() *Registry {
	return builtin
}
