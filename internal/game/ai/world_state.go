package ai

// WorldState is the snapshot passed to the HTN planner for one decision.
// Maps are keyed by action or buff id.
type WorldState struct {
	Time      float64
	Remaining float64
	// Phase is "uptime", "downtime", "execute", or "finished".
	Phase      string
	Multiplier float64

	Energy    float64
	MaxEnergy float64
	Chi       int
	MaxChi    int

	Targets      int
	TargetHealth float64
	LastAction   string
	Channeling   string

	Cooldowns     map[string]float64
	Usable        map[string]bool
	Stacks        map[string]int
	BuffRemaining map[string]float64
}

// IsUsable reports whether action can be performed now. Wait is always usable.
func (ws *WorldState) IsUsable(action string) bool {
	if action == waitAction {
		return true
	}
	return ws.Usable[action]
}

// BuffActive reports whether buff id has at least one stack.
func (ws *WorldState) BuffActive(id string) bool {
	return ws.Stacks[id] > 0
}

// EnergyDeficit returns the energy missing from the pool.
//
// Postcondition: result >= 0.
func (ws *WorldState) EnergyDeficit() float64 {
	if d := ws.MaxEnergy - ws.Energy; d > 0 {
		return d
	}
	return 0
}

// ChiDeficit returns the chi missing from the pool.
func (ws *WorldState) ChiDeficit() int {
	if d := ws.MaxChi - ws.Chi; d > 0 {
		return d
	}
	return 0
}

// Table flattens ws into the value passed to Lua preconditions.
//
// Postcondition: every value is convertible by scripting.ToLua.
func (ws *WorldState) Table() map[string]any {
	return map[string]any{
		"time":           ws.Time,
		"remaining":      ws.Remaining,
		"phase":          ws.Phase,
		"multiplier":     ws.Multiplier,
		"energy":         ws.Energy,
		"max_energy":     ws.MaxEnergy,
		"energy_deficit": ws.EnergyDeficit(),
		"chi":            ws.Chi,
		"max_chi":        ws.MaxChi,
		"chi_deficit":    ws.ChiDeficit(),
		"targets":        ws.Targets,
		"target_health":  ws.TargetHealth,
		"last_action":    ws.LastAction,
		"channeling":     ws.Channeling,
		"cooldowns":      ws.Cooldowns,
		"usable":         ws.Usable,
		"stacks":         ws.Stacks,
		"buff_remaining": ws.BuffRemaining,
	}
}
