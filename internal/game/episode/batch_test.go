package episode_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/monksim/internal/game/combat"
	"github.com/cory-johannsen/monksim/internal/game/episode"
)

func priorityFactory(int) (episode.Policy, error) { return priority, nil }

func TestRunBatch_ReproducibleAcrossWorkerCounts(t *testing.T) {
	cfg := episode.BatchConfig{Episodes: 6, Workers: 1, Seed: 42, Scenario: episode.RandomScenario, Options: options(combat.Stochastic, "hit_combo")}
	a, err := episode.RunBatch(context.Background(), cfg, priorityFactory)
	require.NoError(t, err)
	cfg.Workers = 3
	b, err := episode.RunBatch(context.Background(), cfg, priorityFactory)
	require.NoError(t, err)

	require.Len(t, a.Results, 6)
	for i := range a.Results {
		assert.Equal(t, i, a.Results[i].Index)
		assert.Equal(t, int64(42+i), a.Results[i].Seed)
		assert.Equal(t, a.Results[i].Total, b.Results[i].Total)
		assert.Equal(t, a.Results[i].Scenario, b.Results[i].Scenario)
	}
	assert.Equal(t, a.Mean, b.Mean)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRunBatch_Aggregates(t *testing.T) {
	cfg := episode.BatchConfig{Episodes: 4, Workers: 2, Seed: 1, Scenario: 0, Options: options(combat.ExpectedValue)}
	br, err := episode.RunBatch(context.Background(), cfg, priorityFactory)
	require.NoError(t, err)
	assert.Zero(t, br.StdDev, "expected-value episodes are identical")
	assert.Equal(t, br.Min, br.Max)
	assert.InDelta(t, br.Mean*20, br.Meter.Total(), 1e-6*br.Mean*20)
}

func TestRunBatch_Errors(t *testing.T) {
	_, err := episode.RunBatch(context.Background(), episode.BatchConfig{Episodes: 0, Workers: 1}, priorityFactory)
	assert.Error(t, err)

	boom := errors.New("no policy")
	cfg := episode.BatchConfig{Episodes: 3, Workers: 2, Options: options(combat.ExpectedValue)}
	_, err = episode.RunBatch(context.Background(), cfg, func(int) (episode.Policy, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
