// Package main provides the sequence replay binary: it plays a hand-built
// action sequence through one episode and prints the event log and meter.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/config"
	"github.com/cory-johannsen/monksim/internal/game/ai"
	"github.com/cory-johannsen/monksim/internal/game/dice"
	"github.com/cory-johannsen/monksim/internal/game/episode"
	"github.com/cory-johannsen/monksim/internal/game/scenario"
	"github.com/cory-johannsen/monksim/internal/observability"
	"github.com/cory-johannsen/monksim/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sequencePath := flag.String("sequence", "content/sequences/opener.yaml", "sequence YAML to replay")
	scenarioID := flag.Int("scenario", -2, "fight program 0-3, -1 random; -2 uses simulation.scenario")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *scenarioID != -2 {
		cfg.Simulation.Scenario = *scenarioID
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	seq, err := ai.LoadSequence(*sequencePath)
	if err != nil {
		logger.Fatal("loading sequence", zap.Error(err))
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
	env, err := episode.NewEnv(opts, dice.NewSeededSource(seed))
	if err != nil {
		logger.Fatal("creating environment", zap.Error(err))
	}
	if err := env.Reset(cfg.Simulation.Scenario); err != nil {
		logger.Fatal("resetting environment", zap.Error(err))
	}

	lc := server.NewLifecycle(logger)
	lc.Add("replay", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			start := time.Now()
			rep, err := ai.PlayReplay(ctx, env, seq)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "sequence %q scenario=%s seed=%d mode=%s\n\n",
				rep.Name, env.Scenario(), seed, opts.Mode)
			fmt.Fprint(os.Stdout, rep.Log())
			if rep.Truncated {
				fmt.Fprintln(os.Stdout, "(fight ended before the sequence finished)")
			}
			fmt.Fprintf(os.Stdout, "\ntotal=%.1f dps=%.1f at %.2fs\n\n", rep.Total, rep.Total/scenario.Duration, env.Now())
			if err := env.Meter().WriteTable(os.Stdout, scenario.Duration); err != nil {
				return fmt.Errorf("writing meter: %w", err)
			}
			logger.Info("replay complete",
				zap.String("sequence", rep.Name),
				zap.Int("steps", len(rep.Entries)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		},
	})
	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("replay failed", zap.Error(err))
	}
}
