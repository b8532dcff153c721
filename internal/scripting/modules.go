package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/game/dice"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with engine.log, and engine.dice
// when the Manager has a roller.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	if m.roller != nil {
		L.SetField(engine, "dice", m.diceModule(L))
	}
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		logFn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logFn("lua: " + L.CheckString(1))
			return 0
		}))
	}
	return mod
}

// diceModule exposes engine.dice.chance(p) -> bool, drawn from the Manager's roller.
func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "chance", L.NewFunction(func(L *lua.LState) int {
		p := float64(L.CheckNumber(1))
		L.Push(lua.LBool(m.roller.Chance("lua", p, dice.Roll)))
		return 1
	}))
	return mod
}
