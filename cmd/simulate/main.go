// Package main provides the batch simulator binary: it runs many episodes of
// the configured build under the HTN priority policy and prints the averaged
// damage meter, optionally persisting every episode to PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/config"
	"github.com/cory-johannsen/monksim/internal/game/ai"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/episode"
	"github.com/cory-johannsen/monksim/internal/game/scenario"
	"github.com/cory-johannsen/monksim/internal/game/talent"
	"github.com/cory-johannsen/monksim/internal/observability"
	"github.com/cory-johannsen/monksim/internal/scripting"
	"github.com/cory-johannsen/monksim/internal/server"
	"github.com/cory-johannsen/monksim/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	presetPath := flag.String("preset", "", "talent preset YAML; overrides the configured talents")
	episodes := flag.Int("episodes", 0, "episode count; 0 uses simulation.episodes")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *episodes > 0 {
		cfg.Simulation.Episodes = *episodes
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if *presetPath != "" {
		preset, err := talent.LoadPreset(*presetPath)
		if err != nil {
			logger.Fatal("loading preset", zap.Error(err))
		}
		cfg.Talents = preset.Talents
		logger.Info("preset loaded", zap.String("preset", preset.Name), zap.Strings("talents", preset.Talents))
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		if seed, err = dice.NewSeed(); err != nil {
			logger.Fatal("drawing seed", zap.Error(err))
		}
	}

	opts, err := episode.OptionsFromConfig(cfg, logger)
	if err != nil {
		logger.Fatal("building episode options", zap.Error(err))
	}

	domain, err := ai.LoadDomain(cfg.Policy.Domain)
	if err != nil {
		logger.Fatal("loading policy domain", zap.Error(err))
	}
	registry := ai.NewRegistry()
	if err := registry.Register(domain); err != nil {
		logger.Fatal("registering policy domain", zap.Error(err))
	}

	// One Lua VM set per worker; closed after the batch.
	var (
		managersMu sync.Mutex
		managers   []*scripting.Manager
	)
	newPolicy, err := registry.Factory(domain.ID, func(worker int) (ai.ScriptCaller, error) {
		mgr := scripting.NewManager(nil, logger.With(zap.Int("worker", worker)))
		if err := mgr.LoadScope(domain.ID, cfg.Policy.Scripts, cfg.Policy.InstructionLimit); err != nil {
			mgr.Close()
			return nil, err
		}
		managersMu.Lock()
		managers = append(managers, mgr)
		managersMu.Unlock()
		return mgr, nil
	})
	if err != nil {
		logger.Fatal("creating policy factory", zap.Error(err))
	}

	var repo *postgres.EpisodeRepository
	var pool *postgres.Pool
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		repo = postgres.NewEpisodeRepository(pool.DB())
	}

	batchCfg := episode.BatchConfig{
		Episodes: cfg.Simulation.Episodes,
		Workers:  cfg.Simulation.Workers,
		Seed:     seed,
		Scenario: cfg.Simulation.Scenario,
		Options:  opts,
	}

	lc := server.NewLifecycle(logger)
	lc.Add("simulation", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			res, err := episode.RunBatch(ctx, batchCfg, newPolicy)
			if err != nil {
				return err
			}
			report(res)
			if repo != nil {
				if err := repo.SaveBatch(ctx, res, opts.Mode); err != nil {
					return fmt.Errorf("saving batch: %w", err)
				}
				logger.Info("batch saved", zap.Stringer("batch", res.ID))
			}
			return nil
		},
		StopFn: func() {
			managersMu.Lock()
			defer managersMu.Unlock()
			for _, m := range managers {
				m.Close()
			}
			if pool != nil {
				pool.Close()
			}
		},
	})

	logger.Info("simulator initialized",
		zap.Int64("seed", seed),
		zap.Int("episodes", batchCfg.Episodes),
		zap.Int("workers", batchCfg.Workers),
		zap.Stringer("mode", opts.Mode),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lc.Run(ctx); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func report(res *episode.BatchResult) {
	fmt.Fprintf(os.Stdout, "batch %s seed=%d episodes=%d elapsed=%s\n",
		res.ID, res.Seed, len(res.Results), res.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stdout, "dps mean=%.1f stddev=%.1f min=%.1f max=%.1f\n\n",
		res.Mean, res.StdDev, res.Min, res.Max)
	if err := res.Meter.WriteTable(os.Stdout, scenario.Duration); err != nil {
		fmt.Fprintf(os.Stderr, "writing meter: %v\n", err)
	}
}
