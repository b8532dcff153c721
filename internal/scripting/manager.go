package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/game/dice"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const globalScope = "__global__"

// vm is one sandboxed LState with its per-call instruction budget.
// mu serializes calls; an LState is single-threaded.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per policy scope and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook after all loads complete; calls into
// the same scope are serialized. Batch runs give every worker its own Manager.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager. A nil roller omits the engine.dice module.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty scope map.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: the scope VM is registered, replacing any previous one; returns
// error on Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for shared predicate scripts accessible
// as a CallHook fallback from any scope.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit)
}

// LoadString registers a VM for scope from a single source string.
func (m *Manager) LoadString(scope, src string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	if err := L.DoString(src); err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading source for %q: %w", scope, err)
	}
	m.install(scope, L, instLimit)
	return nil
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		// Each file gets its own budget.
		cancel := ArmLimit(L, instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}
	m.install(key, L, instLimit)
	return nil
}

func (m *Manager) install(key string, L *lua.LState, instLimit int) {
	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.states[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
}

// CallHook calls the named Lua global function in scope's VM with args
// converted by ToLua. If the scope has no VM, the __global__ VM is tried as a
// fallback. Returns (LNil, nil) if the hook is not defined or no VM exists.
// Lua runtime errors, including an exhausted instruction budget, are logged
// at Warn level and never propagated.
//
// Every call runs under a fresh instruction budget.
//
// Postcondition: Returns the first return value of the hook, or LNil; returns
// an error only when an argument cannot be converted.
func (m *Manager) CallHook(scope, hook string, args ...any) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.states[scope]
	if !ok {
		v = m.states[globalScope]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	largs := make([]lua.LValue, 0, len(args))
	for i, a := range args {
		lv, err := ToLua(L, a)
		if err != nil {
			return lua.LNil, fmt.Errorf("scripting: hook %q argument %d: %w", hook, i, err)
		}
		largs = append(largs, lv)
	}

	cancel := ArmLimit(L, v.limit)
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, largs...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM.
//
// Postcondition: subsequent CallHook calls return (LNil, nil).
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.states, key)
	}
}
