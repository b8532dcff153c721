package talent

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a named talent selection stored as YAML.
type Preset struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Talents     []string `yaml:"talents"`
}

// LoadPreset reads a Preset from path. Unknown fields are rejected; unknown
// talent identifiers are kept and reported later by Apply.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns a Preset with a non-empty Name, or a non-nil error.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %q: %w", path, err)
	}
	var p Preset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing preset %q: %w", path, err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("preset %q: name must not be empty", path)
	}
	return &p, nil
}
