package ai

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrImportCycle is returned when sequence imports form a cycle.
var ErrImportCycle = errors.New("sequence import cycle")

// SequenceStep is one entry of a hand-built sequence: either an action to
// attempt or a wait of Wait seconds, performed Repeat times.
type SequenceStep struct {
	Action string  `yaml:"action"`
	Wait   float64 `yaml:"wait"`
	// Repeat defaults to 1.
	Repeat int `yaml:"repeat"`
}

// Validate checks that exactly one of Action and Wait is set and Repeat is not negative.
func (s SequenceStep) Validate() error {
	switch {
	case s.Action == "" && s.Wait <= 0:
		return errors.New("step needs an action or a positive wait")
	case s.Action != "" && s.Wait != 0:
		return fmt.Errorf("step %q sets both action and wait", s.Action)
	case s.Wait < 0:
		return fmt.Errorf("wait must be positive, got %g", s.Wait)
	case s.Repeat < 0:
		return fmt.Errorf("repeat must not be negative, got %d", s.Repeat)
	}
	return nil
}

// Times returns the number of times the step runs.
func (s SequenceStep) Times() int {
	if s.Repeat == 0 {
		return 1
	}
	return s.Repeat
}

// Sequence is a named action sequence. Steps holds the fully resolved steps:
// every import's steps, in import order, followed by the file's own steps.
type Sequence struct {
	Name    string         `yaml:"name"`
	Imports []string       `yaml:"imports"`
	Steps   []SequenceStep `yaml:"steps"`
}

// LoadSequence reads the sequence at path and resolves its imports relative to
// the importing file.
//
// Precondition: path must name a readable YAML file.
// Postcondition: returns a Sequence whose Steps include all imported steps, or
// an error wrapping ErrImportCycle when an import chain revisits a file.
func LoadSequence(path string) (*Sequence, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadSequence: resolving %q: %w", path, err)
	}
	return loadSequence(abs, nil)
}

func loadSequence(path string, chain []string) (*Sequence, error) {
	for _, p := range chain {
		if p == path {
			return nil, fmt.Errorf("ai.LoadSequence: %w: %s -> %s", ErrImportCycle, strings.Join(chain, " -> "), path)
		}
	}
	chain = append(chain, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadSequence: reading %q: %w", path, err)
	}
	var seq Sequence
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seq); err != nil {
		return nil, fmt.Errorf("ai.LoadSequence: parsing %q: %w", path, err)
	}
	if seq.Name == "" {
		seq.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i, st := range seq.Steps {
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("ai.LoadSequence: %q step %d: %w", path, i, err)
		}
	}

	var steps []SequenceStep
	for _, imp := range seq.Imports {
		target := imp
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), imp)
		}
		sub, err := loadSequence(filepath.Clean(target), chain)
		if err != nil {
			return nil, err
		}
		steps = append(steps, sub.Steps...)
	}
	seq.Steps = append(steps, seq.Steps...)
	return &seq, nil
}
