package ai_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cory-johannsen/monksim/internal/game/ai"
)

func writeSeq(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSequence_ResolvesImportsRelative(t *testing.T) {
	dir := t.TempDir()
	writeSeq(t, dir, "lib/opener.yaml", `
name: opener
steps:
  - action: tiger_palm
  - action: rising_sun_kick
`)
	path := writeSeq(t, dir, "main.yaml", `
name: main
imports: [lib/opener.yaml]
steps:
  - wait: 1.5
  - action: tiger_palm
    repeat: 2
`)
	seq, err := ai.LoadSequence(path)
	if err != nil {
		t.Fatalf("LoadSequence: %v", err)
	}
	if seq.Name != "main" || len(seq.Steps) != 4 {
		t.Fatalf("unexpected sequence: %+v", seq)
	}
	if seq.Steps[0].Action != "tiger_palm" || seq.Steps[1].Action != "rising_sun_kick" {
		t.Fatalf("imported steps must come first: %+v", seq.Steps)
	}
	if seq.Steps[2].Wait != 1.5 || seq.Steps[3].Times() != 2 {
		t.Fatalf("unexpected own steps: %+v", seq.Steps[2:])
	}
}

func TestLoadSequence_DefaultsNameToFile(t *testing.T) {
	path := writeSeq(t, t.TempDir(), "burst.yaml", "steps:\n  - action: zenith\n")
	seq, err := ai.LoadSequence(path)
	if err != nil {
		t.Fatalf("LoadSequence: %v", err)
	}
	if seq.Name != "burst" {
		t.Fatalf("expected name burst, got %q", seq.Name)
	}
}

func TestLoadSequence_RejectsImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeSeq(t, dir, "a.yaml", "imports: [b.yaml]\nsteps: [{action: tiger_palm}]\n")
	writeSeq(t, dir, "b.yaml", "imports: [sub/c.yaml]\n")
	writeSeq(t, dir, "sub/c.yaml", "imports: [../a.yaml]\n")

	_, err := ai.LoadSequence(filepath.Join(dir, "a.yaml"))
	if !errors.Is(err, ai.ErrImportCycle) {
		t.Fatalf("expected ErrImportCycle, got %v", err)
	}
}

func TestLoadSequence_SelfImport(t *testing.T) {
	dir := t.TempDir()
	path := writeSeq(t, dir, "self.yaml", "imports: [./self.yaml]\n")
	if _, err := ai.LoadSequence(path); !errors.Is(err, ai.ErrImportCycle) {
		t.Fatalf("expected ErrImportCycle, got %v", err)
	}
}

func TestLoadSequence_DiamondImportIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeSeq(t, dir, "base.yaml", "steps: [{action: tiger_palm}]\n")
	writeSeq(t, dir, "left.yaml", "imports: [base.yaml]\n")
	writeSeq(t, dir, "right.yaml", "imports: [base.yaml]\n")
	path := writeSeq(t, dir, "top.yaml", "imports: [left.yaml, right.yaml]\n")

	seq, err := ai.LoadSequence(path)
	if err != nil {
		t.Fatalf("LoadSequence: %v", err)
	}
	if len(seq.Steps) != 2 {
		t.Fatalf("expected base steps twice, got %d", len(seq.Steps))
	}
}

func TestLoadSequence_InvalidSteps(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty_step.yaml": "steps: [{repeat: 2}]\n",
		"both.yaml":       "steps: [{action: tiger_palm, wait: 1}]\n",
		"negative.yaml":   "steps: [{action: tiger_palm, repeat: -1}]\n",
		"unknown.yaml":    "steps: [{action: tiger_palm, target: boss}]\n",
		"missing.yaml":    "imports: [nowhere.yaml]\n",
	}
	for name, src := range cases {
		if _, err := ai.LoadSequence(writeSeq(t, dir, name, src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestPlayReplay_LogsEachRepetition(t *testing.T) {
	env := newPlannerEnv(t)
	seq := &ai.Sequence{Name: "opener", Steps: []ai.SequenceStep{
		{Action: "tiger_palm"},
		{Action: "rising_sun_kick"},
		{Wait: 2},
		{Action: "rising_sun_kick"},
		{Action: "tiger_palm", Repeat: 2},
	}}
	rep, err := ai.PlayReplay(context.Background(), env, seq)
	if err != nil {
		t.Fatalf("PlayReplay: %v", err)
	}
	if len(rep.Entries) != 6 || rep.Truncated {
		t.Fatalf("expected 6 entries, got %d (truncated=%v)", len(rep.Entries), rep.Truncated)
	}
	if !rep.Entries[0].Cast || !rep.Entries[1].Cast {
		t.Fatal("opener casts should succeed")
	}
	if rep.Entries[3].Cast {
		t.Fatal("rising_sun_kick is still recharging and has no chi")
	}
	if math.Abs(rep.Entries[2].At-2) > 1e-9 {
		t.Fatalf("wait should start after two global cooldowns, got %g", rep.Entries[2].At)
	}

	var sum float64
	for _, e := range rep.Entries {
		sum += e.Reward
	}
	if sum != rep.Total {
		t.Fatalf("total %g != sum of entries %g", rep.Total, sum)
	}

	log := rep.Log()
	if !strings.Contains(log, "wait 2.00s") || !strings.Contains(log, "rising_sun_kick (not usable)") {
		t.Fatalf("unexpected log:\n%s", log)
	}
	if !strings.Contains(log, "Rising Sun Kick") {
		t.Fatalf("log should list damage events:\n%s", log)
	}
}

func TestPlayReplay_TruncatesAtFightEnd(t *testing.T) {
	env := newPlannerEnv(t)
	seq := &ai.Sequence{Steps: []ai.SequenceStep{{Wait: 15}, {Wait: 10}, {Action: "tiger_palm"}}}
	rep, err := ai.PlayReplay(context.Background(), env, seq)
	if err != nil {
		t.Fatalf("PlayReplay: %v", err)
	}
	if !rep.Truncated || len(rep.Entries) != 2 {
		t.Fatalf("expected truncation after 2 entries, got %d", len(rep.Entries))
	}
}

func TestPlayReplay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	seq := &ai.Sequence{Steps: []ai.SequenceStep{{Action: "tiger_palm"}}}
	if _, err := ai.PlayReplay(ctx, newPlannerEnv(t), seq); err == nil {
		t.Fatal("expected context error")
	}
}
