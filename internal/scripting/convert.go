package scripting

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// ToLua converts a Go value to a Lua value owned by L.
//
// Supported: nil, bool, string, all integer and float kinds, []string,
// []float64, map[string]bool, map[string]int, map[string]float64,
// map[string]any, and lua.LValue. Map keys are inserted in sorted order.
//
// Postcondition: returns an error for any other type.
func ToLua(L *lua.LState, v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case int:
		return lua.LNumber(x), nil
	case int64:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	case []string:
		t := L.NewTable()
		for _, s := range x {
			t.Append(lua.LString(s))
		}
		return t, nil
	case []float64:
		t := L.NewTable()
		for _, f := range x {
			t.Append(lua.LNumber(f))
		}
		return t, nil
	case map[string]bool:
		return mapTable(L, x)
	case map[string]int:
		return mapTable(L, x)
	case map[string]float64:
		return mapTable(L, x)
	case map[string]any:
		return mapTable(L, x)
	default:
		return lua.LNil, fmt.Errorf("scripting: cannot convert %T to a Lua value", v)
	}
}

func mapTable[V any](L *lua.LState, m map[string]V) (lua.LValue, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := L.NewTable()
	for _, k := range keys {
		lv, err := ToLua(L, any(m[k]))
		if err != nil {
			return lua.LNil, fmt.Errorf("key %q: %w", k, err)
		}
		t.RawSetString(k, lv)
	}
	return t, nil
}
