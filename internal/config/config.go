// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SimulationConfig holds batch and episode settings.
type SimulationConfig struct {
	// Scenario is the fight program 0-3; -1 draws one uniformly per episode.
	Scenario int `mapstructure:"scenario"`
	// Episodes is the number of episodes in a batch.
	Episodes int `mapstructure:"episodes"`
	// Workers bounds the number of episodes simulated in parallel.
	Workers int `mapstructure:"workers"`
	// Seed is the base random seed; 0 draws one from crypto/rand.
	Seed int64 `mapstructure:"seed"`
	// ExpectedValue selects the analytic expected-value resolution mode.
	ExpectedValue bool `mapstructure:"expected_value"`
	// Targets is the number of enemies in range.
	Targets int `mapstructure:"targets"`
	// IdleStep is the simulated seconds consumed by one idle decision.
	IdleStep float64 `mapstructure:"idle_step"`
	// Procs forces or suppresses named procs, e.g. "combo_breaker=force, intermission=suppress".
	Procs string `mapstructure:"procs"`
}

// CharacterConfig holds baseline attribute values.
type CharacterConfig struct {
	Agility           float64 `mapstructure:"agility"`
	CritRating        float64 `mapstructure:"crit_rating"`
	HasteRating       float64 `mapstructure:"haste_rating"`
	MasteryRating     float64 `mapstructure:"mastery_rating"`
	VersatilityRating float64 `mapstructure:"versatility_rating"`
	// Weapon is "dual_wield" or "two_hand".
	Weapon string `mapstructure:"weapon"`
}

// PolicyConfig locates the decision policy content.
type PolicyConfig struct {
	// Domain is the path to the HTN domain YAML file.
	Domain string `mapstructure:"domain"`
	// Scripts is the directory of Lua predicate scripts.
	Scripts string `mapstructure:"scripts"`
	// InstructionLimit caps Lua opcodes per predicate call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on result persistence.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, additionally writes logs to a rotating file.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config is the top-level application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Character  CharacterConfig  `mapstructure:"character"`
	Talents    []string         `mapstructure:"talents"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCharacter(c.Character); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Scenario < -1 || s.Scenario > 3 {
		errs = append(errs, fmt.Sprintf("simulation.scenario must be -1..3, got %d", s.Scenario))
	}
	if s.Episodes < 1 {
		errs = append(errs, fmt.Sprintf("simulation.episodes must be >= 1, got %d", s.Episodes))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("simulation.workers must be >= 1, got %d", s.Workers))
	}
	if s.Targets < 1 {
		errs = append(errs, fmt.Sprintf("simulation.targets must be >= 1, got %d", s.Targets))
	}
	if s.IdleStep <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.idle_step must be > 0, got %g", s.IdleStep))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCharacter(c CharacterConfig) error {
	var errs []string
	if c.Agility <= 0 {
		errs = append(errs, fmt.Sprintf("character.agility must be > 0, got %g", c.Agility))
	}
	for name, v := range map[string]float64{
		"crit_rating":        c.CritRating,
		"haste_rating":       c.HasteRating,
		"mastery_rating":     c.MasteryRating,
		"versatility_rating": c.VersatilityRating,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("character.%s must not be negative", name))
		}
	}
	if c.Weapon != "dual_wield" && c.Weapon != "two_hand" {
		errs = append(errs, fmt.Sprintf("character.weapon must be one of [dual_wield, two_hand], got %q", c.Weapon))
	}
	if len(errs) > 0 {
		// Map iteration order is random; keep messages stable.
		sort.Strings(errs)
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File != "" && l.MaxSizeMB < 1 {
		return errors.New("logging.max_size_mb must be >= 1 when logging.file is set")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MONKSIM_ prefix
	v.SetEnvPrefix("MONKSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
// Defaults are applied for keys v does not set.
//
// Precondition: v must be non-nil.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.scenario", -1)
	v.SetDefault("simulation.episodes", 100)
	v.SetDefault("simulation.workers", 4)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.expected_value", false)
	v.SetDefault("simulation.targets", 1)
	v.SetDefault("simulation.idle_step", 0.1)
	v.SetDefault("simulation.procs", "")

	v.SetDefault("character.agility", 100.0)
	v.SetDefault("character.crit_rating", 600.0)
	v.SetDefault("character.haste_rating", 500.0)
	v.SetDefault("character.mastery_rating", 900.0)
	v.SetDefault("character.versatility_rating", 400.0)
	v.SetDefault("character.weapon", "dual_wield")

	v.SetDefault("policy.domain", "content/policy/windwalker.yaml")
	v.SetDefault("policy.scripts", "content/scripts")
	v.SetDefault("policy.instruction_limit", 10_000)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "monksim")
	v.SetDefault("database.password", "monksim")
	v.SetDefault("database.name", "monksim")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 7)
}
