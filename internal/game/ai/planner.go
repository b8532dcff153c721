package ai

import (
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/monksim/internal/game/episode"
)

// RootTask is the task every decision starts decomposing from.
const RootTask = "rotate"

// maxExpansions bounds the tasks and operators one Plan call may visit.
const maxExpansions = 4096

// ErrPlanTooLarge is returned when decomposition visits more than maxExpansions
// tasks, which happens when methods recurse without terminating.
var ErrPlanTooLarge = errors.New("ai.Planner: plan exceeds expansion limit")

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...any) (lua.LValue, error)
}

// Planner evaluates an HTN domain against the episode state and produces an
// ordered list of candidate actions. It implements episode.Policy.
//
// Invariant: domain and caller must not be nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	scope  string
}

// NewPlanner constructs a Planner.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, scope string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, scope: scope}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes RootTask against state and returns the applicable operator
// actions in priority order.
//
// Precondition: state must not be nil.
// Postcondition: returns non-nil slice (may be empty); Lua runtime failures are
// treated as precondition-false; a non-terminating decomposition returns
// ErrPlanTooLarge.
func (p *Planner) Plan(state *WorldState) ([]string, error) {
	if state == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: state must not be nil")
	}
	table := state.Table()

	taskQueue := []string{RootTask}
	result := []string{}

	steps := 0

	for len(taskQueue) > 0 {
		if steps == maxExpansions {
			return nil, fmt.Errorf("%w: domain %q after %d expansions", ErrPlanTooLarge, p.domain.ID, steps)
		}
		steps++
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			if op.AvoidRepeat && op.Action == state.LastAction {
				continue
			}
			pass, err := p.check(op.Precondition, table)
			if err != nil {
				return nil, err
			}
			if pass {
				result = append(result, op.Action)
			}
			continue
		}

		method, err := p.findApplicableMethod(current, table)
		if err != nil {
			return nil, err
		}
		if method == nil {
			continue
		}

		// Prepend subtasks (preserves ordered decomposition).
		next := make([]string, 0, len(method.Subtasks)+len(taskQueue))
		next = append(next, method.Subtasks...)
		taskQueue = append(next, taskQueue...)
	}
	return result, nil
}

// Decide plans against env and returns the first usable planned action, or
// episode.Wait when none is usable.
func (p *Planner) Decide(ctx context.Context, env *episode.Env) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ws := BuildWorldState(env)
	plan, err := p.Plan(ws)
	if err != nil {
		return "", err
	}
	for _, action := range plan {
		if ws.IsUsable(action) {
			return action, nil
		}
	}
	return episode.Wait, nil
}

// findApplicableMethod returns the first Method for taskID whose precondition passes,
// or nil if none applies.
//
// Methods are tried in declaration order. An empty Precondition always passes.
func (p *Planner) findApplicableMethod(taskID string, table map[string]any) (*Method, error) {
	for _, m := range p.domain.MethodsForTask(taskID) {
		pass, err := p.check(m.Precondition, table)
		if err != nil {
			return nil, err
		}
		if pass {
			return m, nil
		}
	}
	return nil, nil
}

func (p *Planner) check(hook string, table map[string]any) (bool, error) {
	if hook == "" {
		return true, nil
	}
	val, err := p.caller.CallHook(p.scope, hook, table)
	if err != nil {
		return false, fmt.Errorf("ai.Planner: precondition %q: %w", hook, err)
	}
	return val == lua.LTrue, nil
}
