// Package config provides unified configuration loading for ecalab.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/constants"
)

// EcalabConfig contains all ecalab configuration settings.
type EcalabConfig struct {
	// Simulation contains defaults for evolving automata.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Classifier contains settings for behavioral classification.
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`

	// Store contains settings for the result store.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig holds the defaults for `run`, `export` and the evolve tool.
type SimulationConfig struct {
	Size         int    `json:"size" yaml:"size"`
	Generations  int    `json:"generations" yaml:"generations"`
	Boundary     string `json:"boundary" yaml:"boundary"` // "circular" or "fixed"
	PeriodWindow int    `json:"period_window" yaml:"period_window"`
}

// ClassifierConfig configures rule classification.
type ClassifierConfig struct {
	// UseLiterature answers well-known rules from the literature table.
	UseLiterature bool `json:"use_literature" yaml:"use_literature"`

	// Workers bounds concurrent rules in batch classification.
	Workers int `json:"workers" yaml:"workers"`

	// AnalysisSize and AnalysisGenerations define the analysis run.
	AnalysisSize        int `json:"analysis_size" yaml:"analysis_size"`
	AnalysisGenerations int `json:"analysis_generations" yaml:"analysis_generations"`
}

// StoreConfig configures the SQLite result store.
type StoreConfig struct {
	// Enabled turns on memoization of classifications and run history.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the database file. Empty means ~/.ecalab/ecalab.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures ecalab's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to ~/.ecalab/decisions.jsonl.
	// "trace" additionally logs every metric value.
	Level string `json:"level" yaml:"level"`
}

// Default returns an EcalabConfig with sensible defaults.
func Default() *EcalabConfig {
	return &EcalabConfig{
		Simulation: SimulationConfig{
			Size:         constants.DefaultSize,
			Generations:  constants.DefaultGenerations,
			Boundary:     string(automaton.BoundaryCircular),
			PeriodWindow: constants.DefaultPeriodWindow,
		},
		Classifier: ClassifierConfig{
			UseLiterature:       true,
			Workers:             1,
			AnalysisSize:        constants.DefaultSize,
			AnalysisGenerations: constants.DefaultGenerations,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.ecalab/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ecalab", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.ecalab/config.yaml -> environment variables
func Load() (*EcalabConfig, error) {
	config := Default()

	configPath, err := DefaultPath()
	if err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadPath loads configuration from path instead of ~/.ecalab/config.yaml,
// still applying environment overrides. An empty path behaves like Load.
func LoadPath(path string) (*EcalabConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*EcalabConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)

	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *EcalabConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *EcalabConfig) Validate() error {
	if c.Simulation.Size < 1 {
		return fmt.Errorf("simulation.size must be at least 1, got %d", c.Simulation.Size)
	}
	if c.Simulation.Generations < 0 {
		return fmt.Errorf("simulation.generations must be non-negative, got %d", c.Simulation.Generations)
	}
	if _, err := automaton.ParseBoundary(c.Simulation.Boundary); err != nil {
		return fmt.Errorf("simulation.boundary: %w", err)
	}
	if c.Simulation.PeriodWindow < 1 {
		return fmt.Errorf("simulation.period_window must be at least 1, got %d", c.Simulation.PeriodWindow)
	}

	if c.Classifier.Workers < 1 {
		return fmt.Errorf("classifier.workers must be at least 1, got %d", c.Classifier.Workers)
	}
	if c.Classifier.AnalysisSize < 1 {
		return fmt.Errorf("classifier.analysis_size must be at least 1, got %d", c.Classifier.AnalysisSize)
	}
	if c.Classifier.AnalysisGenerations < 0 {
		return fmt.Errorf("classifier.analysis_generations must be non-negative, got %d", c.Classifier.AnalysisGenerations)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Keys lists every dot-notation key accepted by Get and Set.
var Keys = []string{
	"simulation.size",
	"simulation.generations",
	"simulation.boundary",
	"simulation.period_window",
	"classifier.use_literature",
	"classifier.workers",
	"classifier.analysis_size",
	"classifier.analysis_generations",
	"store.enabled",
	"store.path",
	"logging.level",
}

// Get retrieves a configuration value by dot-notation key.
func (c *EcalabConfig) Get(key string) (any, bool) {
	switch key {
	case "simulation.size":
		return c.Simulation.Size, true
	case "simulation.generations":
		return c.Simulation.Generations, true
	case "simulation.boundary":
		return c.Simulation.Boundary, true
	case "simulation.period_window":
		return c.Simulation.PeriodWindow, true
	case "classifier.use_literature":
		return c.Classifier.UseLiterature, true
	case "classifier.workers":
		return c.Classifier.Workers, true
	case "classifier.analysis_size":
		return c.Classifier.AnalysisSize, true
	case "classifier.analysis_generations":
		return c.Classifier.AnalysisGenerations, true
	case "store.enabled":
		return c.Store.Enabled, true
	case "store.path":
		return c.Store.Path, true
	case "logging.level":
		return c.Logging.Level, true
	default:
		return nil, false
	}
}

// Set sets a configuration value by dot-notation key and validates the result.
// On error the configuration is left unchanged.
func (c *EcalabConfig) Set(key, value string) error {
	next := *c

	switch key {
	case "simulation.size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid size: %s", value)
		}
		next.Simulation.Size = n
	case "simulation.generations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid generations: %s", value)
		}
		next.Simulation.Generations = n
	case "simulation.boundary":
		next.Simulation.Boundary = value
	case "simulation.period_window":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid period window: %s", value)
		}
		next.Simulation.PeriodWindow = n
	case "classifier.use_literature":
		next.Classifier.UseLiterature = parseBool(value)
	case "classifier.workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid workers: %s", value)
		}
		next.Classifier.Workers = n
	case "classifier.analysis_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid analysis size: %s", value)
		}
		next.Classifier.AnalysisSize = n
	case "classifier.analysis_generations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid analysis generations: %s", value)
		}
		next.Classifier.AnalysisGenerations = n
	case "store.enabled":
		next.Store.Enabled = parseBool(value)
	case "store.path":
		next.Store.Path = value
	case "logging.level":
		next.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *EcalabConfig) {
	if v := os.Getenv("ECALAB_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Size = n
		}
	}
	if v := os.Getenv("ECALAB_GENERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Generations = n
		}
	}
	if v := os.Getenv("ECALAB_BOUNDARY"); v != "" {
		config.Simulation.Boundary = v
	}
	if v := os.Getenv("ECALAB_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Classifier.Workers = n
		}
	}
	if v := os.Getenv("ECALAB_USE_LITERATURE"); v != "" {
		config.Classifier.UseLiterature = parseBool(v)
	}
	if v := os.Getenv("ECALAB_STORE_PATH"); v != "" {
		config.Store.Path = v
	}
	if v := os.Getenv("ECALAB_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
