package episode

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/monksim/internal/game/combat"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/scenario"
)

// maxSteps bounds the decisions in one episode.
const maxSteps = 10_000

// Policy chooses the next action for an environment.
type Policy interface {
	// Decide returns an action id or Wait.
	Decide(ctx context.Context, env *Env) (string, error)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, env *Env) (string, error)

// Decide calls f.
func (f PolicyFunc) Decide(ctx context.Context, env *Env) (string, error) {
	return f(ctx, env)
}

// PolicyFactory creates the policy a worker uses for all of its episodes.
type PolicyFactory func(worker int) (Policy, error)

// Result summarizes one finished episode.
type Result struct {
	ID       uuid.UUID
	Index    int
	Seed     int64
	Scenario scenario.ID
	Total    float64
	DPS      float64
	Steps    int
	Casts    map[string]int
	Meter    combat.Meter
	Unknown  []string
}

// Run plays one episode under policy until the fight ends.
//
// Precondition: Reset has been called.
// Postcondition: Returns the episode result or the first policy error.
func (e *Env) Run(ctx context.Context, policy Policy) (Result, error) {
	res := Result{ID: e.id, Scenario: e.clock.ID(), Casts: make(map[string]int), Unknown: e.report.Unknown}
	for !e.Done() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if e.steps >= maxSteps {
			return res, fmt.Errorf("episode %s exceeded %d steps", e.id, maxSteps)
		}
		action, err := policy.Decide(ctx, e)
		if err != nil {
			return res, fmt.Errorf("policy decision at %.2fs: %w", e.Now(), err)
		}
		step := e.Step(action)
		res.Total += step.Reward
		if step.Cast {
			res.Casts[action]++
		}
	}
	res.Steps = e.steps
	res.DPS = res.Total / scenario.Duration
	res.Meter = e.meter
	return res, nil
}

// BatchConfig configures RunBatch.
type BatchConfig struct {
	Episodes int
	Workers  int
	// Seed is the base seed; episode i draws from Seed+i.
	Seed     int64
	Scenario int
	Options  Options
}

// BatchResult aggregates a batch of episodes.
type BatchResult struct {
	ID       uuid.UUID
	Seed     int64
	Results  []Result
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	Meter    combat.Meter
	Duration time.Duration
}

// RunBatch simulates cfg.Episodes independent episodes on cfg.Workers
// goroutines. Each worker owns its policy; each episode owns its random source,
// so results depend only on cfg and never on scheduling.
//
// Precondition: cfg.Episodes >= 1; cfg.Workers >= 1; newPolicy must be non-nil.
// Postcondition: Results are ordered by episode index; the first error cancels the batch.
func RunBatch(ctx context.Context, cfg BatchConfig, newPolicy PolicyFactory) (*BatchResult, error) {
	if cfg.Episodes < 1 || cfg.Workers < 1 {
		return nil, fmt.Errorf("batch needs episodes >= 1 and workers >= 1, got %d and %d", cfg.Episodes, cfg.Workers)
	}
	logger := cfg.Options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	results := make([]Result, cfg.Episodes)
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers + 1)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < cfg.Episodes; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			policy, err := newPolicy(w)
			if err != nil {
				return fmt.Errorf("worker %d: creating policy: %w", w, err)
			}
			for i := range jobs {
				r, err := runOne(gctx, cfg, i, policy)
				if err != nil {
					return fmt.Errorf("episode %d: %w", i, err)
				}
				results[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	br := aggregate(results)
	br.ID = uuid.New()
	br.Seed = cfg.Seed
	br.Duration = time.Since(start)
	logger.Info("batch complete",
		zap.Stringer("batch", br.ID),
		zap.Int("episodes", cfg.Episodes),
		zap.Int("workers", cfg.Workers),
		zap.Float64("mean_dps", br.Mean),
		zap.Float64("stddev", br.StdDev),
		zap.Duration("elapsed", br.Duration),
	)
	return br, nil
}

func runOne(ctx context.Context, cfg BatchConfig, i int, policy Policy) (Result, error) {
	seed := cfg.Seed + int64(i)
	env, err := NewEnv(cfg.Options, dice.NewSeededSource(seed))
	if err != nil {
		return Result{}, err
	}
	if err := env.Reset(cfg.Scenario); err != nil {
		return Result{}, err
	}
	r, err := env.Run(ctx, policy)
	if err != nil {
		return Result{}, err
	}
	r.Index = i
	r.Seed = seed
	return r, nil
}

// aggregate computes summary statistics over DPS and averages the meters.
func aggregate(results []Result) *BatchResult {
	br := &BatchResult{Results: results, Meter: combat.Meter{}}
	if len(results) == 0 {
		return br
	}
	dps := make([]float64, len(results))
	sum := 0.0
	for i, r := range results {
		dps[i] = r.DPS
		sum += r.DPS
		br.Meter.Merge(r.Meter)
	}
	n := float64(len(results))
	br.Mean = sum / n
	sq := 0.0
	for _, v := range dps {
		sq += (v - br.Mean) * (v - br.Mean)
	}
	br.StdDev = math.Sqrt(sq / n)
	sort.Float64s(dps)
	br.Min, br.Max = dps[0], dps[len(dps)-1]
	for k, v := range br.Meter {
		br.Meter[k] = v / n
	}
	return br
}
