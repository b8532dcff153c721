// Package episode drives the combat core through fixed-length fight episodes
// for decision policies: an environment with reset, step, observation, and
// legal-action queries, and a parallel batch runner.
package episode

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/config"
	"github.com/cory-johannsen/monksim/internal/game/ability"
	"github.com/cory-johannsen/monksim/internal/game/character"
	"github.com/cory-johannsen/monksim/internal/game/combat"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/scenario"
	"github.com/cory-johannsen/monksim/internal/game/talent"
)

// Wait is the pseudo-action that idles for one idle step.
const Wait = "wait"

// RandomScenario asks Reset to draw the fight program uniformly.
const RandomScenario = -1

// ProcIntermission is the override key for the random intermission draw.
const ProcIntermission = "intermission"

// DefaultIdleStep is the idle duration used when Options.IdleStep is unset.
const DefaultIdleStep = 0.1

// boundaries are the instants at which the scenario status can change.
var boundaries = []float64{scenario.WindowStart, scenario.WindowEnd, scenario.ExecuteAt, scenario.Duration}

// Options configures every episode an Env runs.
type Options struct {
	Character config.CharacterConfig
	Talents   []string
	Mode      combat.Mode
	Targets   int
	// IdleStep is the simulated time one idle decision consumes.
	IdleStep float64
	Procs    map[string]dice.Override
	// Registry resolves talent ids; nil uses talent.Builtin().
	Registry *talent.Registry
	Logger   *zap.Logger
}

// OptionsFromConfig builds episode Options from the simulation, character, and
// talent sections of cfg.
//
// Postcondition: Returns Options or an error when the proc override expression is malformed.
func OptionsFromConfig(cfg config.Config, logger *zap.Logger) (Options, error) {
	procs, err := dice.ParseOverrides(cfg.Simulation.Procs)
	if err != nil {
		return Options{}, fmt.Errorf("parsing simulation.procs: %w", err)
	}
	mode := combat.Stochastic
	if cfg.Simulation.ExpectedValue {
		mode = combat.ExpectedValue
	}
	return Options{
		Character: cfg.Character,
		Talents:   cfg.Talents,
		Mode:      mode,
		Targets:   cfg.Simulation.Targets,
		IdleStep:  cfg.Simulation.IdleStep,
		Procs:     procs,
		Logger:    logger,
	}, nil
}

// StepResult is the outcome of one decision.
type StepResult struct {
	// Reward is the scenario-scaled damage dealt during the step.
	Reward float64
	Done   bool
	// Events carry episode-relative offsets and scaled damage.
	Events []combat.Event
	// Cast is true when the requested action was performed.
	Cast bool
}

// Env is one episode environment. It is not safe for concurrent use.
type Env struct {
	opts   Options
	roller *dice.Roller
	logger *zap.Logger

	id     uuid.UUID
	state  *combat.State
	clock  *scenario.Clock
	meter  combat.Meter
	report talent.Report
	steps  int
}

// NewEnv creates an Env drawing from src and validates the options by
// building one character.
//
// Precondition: src must be non-nil.
// Postcondition: Returns an Env that must be Reset before Step, or a non-nil error.
func NewEnv(opts Options, src dice.Source) (*Env, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = talent.Builtin()
	}
	if opts.IdleStep <= 0 {
		opts.IdleStep = DefaultIdleStep
	}
	if opts.Targets < 1 {
		opts.Targets = 1
	}
	if _, err := character.Build(opts.Character); err != nil {
		return nil, fmt.Errorf("building character: %w", err)
	}
	e := &Env{
		opts:   opts,
		roller: dice.NewLoggedRoller(src, opts.Logger),
		logger: opts.Logger,
	}
	return e, nil
}

// Reset starts a new episode under fight program id, or a uniformly drawn
// program when id is RandomScenario.
//
// Postcondition: the episode clock is 0 and a fresh character state is built.
func (e *Env) Reset(id int) error {
	if id == RandomScenario {
		id = int(e.roller.Float64() * scenario.Count)
	}
	clock, err := scenario.New(scenario.ID(id))
	if err != nil {
		return err
	}
	o := e.opts.Procs[ProcIntermission]
	if e.opts.Mode == combat.ExpectedValue {
		clock.ResetExpected(o)
	} else {
		clock.Reset(e.roller, o)
	}

	attrs, err := character.Build(e.opts.Character)
	if err != nil {
		return fmt.Errorf("building character: %w", err)
	}
	st := combat.NewState(attrs, ability.NewCatalog(), e.roller, e.logger)
	st.Mode = e.opts.Mode
	st.Targets = e.opts.Targets
	for k, v := range e.opts.Procs {
		st.Procs[k] = v
	}
	rep, err := st.ApplyBuild(e.opts.Registry, e.opts.Talents)
	if err != nil {
		return fmt.Errorf("applying build: %w", err)
	}
	if len(rep.Unknown) > 0 {
		e.logger.Warn("unknown talents ignored", zap.Strings("talents", rep.Unknown))
	}

	e.id = uuid.New()
	e.state = st
	e.clock = clock
	e.meter = combat.Meter{}
	e.report = rep
	e.steps = 0
	e.logger.Debug("episode reset",
		zap.Stringer("episode", e.id),
		zap.Stringer("scenario", clock.ID()),
		zap.Bool("downtime", clock.Downtime()),
		zap.Stringer("mode", st.Mode),
	)
	return nil
}

// ID returns the current episode id.
func (e *Env) ID() uuid.UUID { return e.id }

// Scenario returns the current fight program.
func (e *Env) Scenario() scenario.ID { return e.clock.ID() }

// State exposes the character state for inspection.
func (e *Env) State() *combat.State { return e.state }

// Meter returns the scenario-scaled damage by source for the episode so far.
func (e *Env) Meter() combat.Meter { return e.meter }

// Report returns the build report of the last Reset.
func (e *Env) Report() talent.Report { return e.report }

// Steps returns the number of decisions taken this episode.
func (e *Env) Steps() int { return e.steps }

// Now returns the episode clock snapped to the integration step.
func (e *Env) Now() float64 {
	return math.Round(e.state.Elapsed/combat.Step) * combat.Step
}

// Status returns the scenario status at the current time.
func (e *Env) Status() scenario.Status {
	return e.clock.Status(e.Now())
}

// Done reports whether the episode has reached its fixed length.
func (e *Env) Done() bool {
	return e.Status().Finished
}

// Step performs one decision: it waits out any pending global cooldown or
// channel, casts action if usable or idles one idle step otherwise, then waits
// out the cooldown the action started.
//
// Precondition: Reset has been called.
// Postcondition: Done is true once the episode clock reaches scenario.Duration.
func (e *Env) Step(action string) StepResult {
	var res StepResult
	if e.Done() {
		res.Done = true
		return res
	}
	e.steps++
	e.settle(&res)

	if !e.Done() {
		id := ability.ID(action)
		if action != Wait && e.state.IsUsable(id) {
			e.cast(id, &res)
		} else {
			e.advance(e.opts.IdleStep, &res)
		}
		e.settle(&res)
	}
	res.Done = e.Done()
	return res
}

// Idle waits out any pending global cooldown or channel, then advances d
// seconds without acting. It counts as one decision.
//
// Precondition: Reset has been called; d > 0.
func (e *Env) Idle(d float64) StepResult {
	var res StepResult
	if e.Done() {
		res.Done = true
		return res
	}
	e.steps++
	e.settle(&res)
	e.advance(d, &res)
	res.Done = e.Done()
	return res
}

// settle advances past the global cooldown and any running channel.
func (e *Env) settle(res *StepResult) {
	wait := e.state.GCD
	if ch := e.state.Channel; ch != nil {
		remaining := ch.NextTick + float64(ch.TicksRemaining-1)*ch.Interval
		wait = math.Max(wait, remaining)
	}
	if wait > 0 {
		// Round up so the pending timer is fully consumed.
		e.advance(math.Ceil(wait/combat.Step-1e-6)*combat.Step, res)
	}
}

func (e *Env) cast(id ability.ID, res *StepResult) {
	now := e.Now()
	st := e.clock.Status(now)
	_, bd := e.state.Cast(id, nil)
	if bd.Rejected {
		return
	}
	res.Cast = true
	if bd.Raw > 0 {
		e.record(res, combat.Event{Offset: now, Source: e.state.Catalog.MustGet(id).Name, Damage: bd.Total, Breakdown: bd}, st.Multiplier)
	}
	for _, ev := range bd.Secondary {
		ev.Offset = now
		e.record(res, ev, st.Multiplier)
	}
}

// advance integrates d seconds in chunks that never cross a scenario boundary,
// gating auto attacks on uptime and scaling damage by the chunk's multiplier.
// A fraction of a sub-step is carried by the combat state into the next call.
func (e *Env) advance(d float64, res *StepResult) {
	for d > 1e-9 {
		now := e.Now()
		if now >= scenario.Duration {
			return
		}
		chunk := d
		for _, b := range boundaries {
			if b > now+combat.Step/2 {
				chunk = math.Min(chunk, b-now)
				break
			}
		}
		st := e.clock.Status(now)
		e.state.AutoAttack = st.Uptime
		e.state.TargetHealth = targetHealth(now)
		_, events := e.state.Advance(chunk)
		for _, ev := range events {
			ev.Offset += now
			e.record(res, ev, st.Multiplier)
		}
		d -= chunk
	}
	e.state.TargetHealth = targetHealth(e.Now())
}

func (e *Env) record(res *StepResult, ev combat.Event, mult float64) {
	ev.Damage *= mult
	res.Reward += ev.Damage
	res.Events = append(res.Events, ev)
	e.meter.Add(ev.Source, ev.Damage)
}

// targetHealth models the target's remaining health as a linear decline over the fight.
func targetHealth(t float64) float64 {
	return math.Max(0, 1-t/scenario.Duration)
}

// Legal returns the actions usable now followed by Wait, in catalog order.
func (e *Env) Legal() []string {
	var out []string
	for _, id := range e.state.Usable() {
		out = append(out, string(id))
	}
	return append(out, Wait)
}
