package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monksim/internal/scripting"
)

const spinScript = `
function spin(n)
	local acc = 0
	for i = 1, n do acc = acc + i end
	return acc
end
`

// callSpin calls the global spin(n) and returns its result.
func callSpin(L *lua.LState, n int) (lua.LValue, error) {
	err := L.CallByParam(lua.P{Fn: L.GetGlobal("spin"), NRet: 1, Protect: true}, lua.LNumber(n))
	if err != nil {
		return lua.LNil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

func TestSandbox_HostAccessRemoved(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "%s must not be reachable from a predicate", name)
	}
}

func TestSandbox_PredicateOverWorldTable(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	require.NoError(t, L.DoString(`
function spend_ready(s)
	return s.chi >= 2 and math.floor(s.energy) >= 40 and string.len(s.last_action) > 0
end
`))
	state, err := scripting.ToLua(L, map[string]any{"chi": 3, "energy": 42.7, "last_action": "tiger_palm"})
	require.NoError(t, err)

	require.NoError(t, L.CallByParam(lua.P{Fn: L.GetGlobal("spend_ready"), NRet: 1, Protect: true}, state))
	assert.Equal(t, lua.LTrue, L.Get(-1))
	L.Pop(1)
}

func TestSandbox_RunawayLoadAborts(t *testing.T) {
	L := scripting.NewSandboxedState(50)
	defer L.Close()
	assert.Error(t, L.DoString(`while true do end`))
}

func TestArmLimit_RearmsExhaustedState(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	require.NoError(t, L.DoString(spinScript))

	cancel := scripting.ArmLimit(L, 200)
	_, err := callSpin(L, 100_000)
	cancel()
	require.Error(t, err, "budget of 200 opcodes must be exhausted")

	cancel = scripting.ArmLimit(L, 200)
	defer cancel()
	ret, err := callSpin(L, 5)
	require.NoError(t, err, "a fresh budget revives the state")
	assert.Equal(t, lua.LNumber(15), ret)
}

func TestArmLimit_NonPositiveUsesDefault(t *testing.T) {
	L := scripting.NewSandboxedState(10)
	defer L.Close()
	cancel := scripting.ArmLimit(L, 0)
	defer cancel()
	assert.NoError(t, L.DoString(spinScript+`assert(spin(1000) == 500500)`))
}

func TestArmLimit_BudgetSharedUntilRearmed(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	require.NoError(t, L.DoString(spinScript))

	cancel := scripting.ArmLimit(L, 500)
	defer cancel()
	var err error
	for i := 0; i < 100 && err == nil; i++ {
		_, err = callSpin(L, 10)
	}
	assert.Error(t, err, "repeated calls drain one budget")
}

func TestArmLimit_BudgetProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		L := scripting.NewSandboxedState(0)
		defer L.Close()
		if err := L.DoString(spinScript); err != nil {
			t.Fatalf("loading script: %v", err)
		}
		cancel := scripting.ArmLimit(L, limit)
		defer cancel()
		if _, err := callSpin(L, 1_000_000); err == nil {
			t.Fatalf("limit %d did not stop a long loop", limit)
		}
	})
}
