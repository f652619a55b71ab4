// Package classifier assigns elementary cellular automaton rules to one of
// Wolfram's four behavior classes.
//
// Well-known rules are answered from a static literature table. Every other
// rule is evolved from the default single-cell state and classified by an
// ordered decision table over four metrics: homogeneity, periodicity,
// complexity and stability.
package classifier

import (
	"context"
	"log/slog"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/constants"
	"github.com/nvandessel/ecalab/internal/logging"
)

// Result is the outcome of classifying one rule.
type Result struct {
	Rule        int      `json:"rule"`
	Class       Class    `json:"class"`
	ClassName   string   `json:"class_name"`
	Description string   `json:"description"`
	Source      Source   `json:"source,omitempty"`
	Confidence  float64  `json:"confidence"`
	Metrics     *Metrics `json:"metrics,omitempty"`

	// Error is set only on batch entries whose rule could not be classified.
	Error string `json:"error,omitempty"`
}

// Config holds classifier defaults and collaborators.
type Config struct {
	// Size is the row length used for analysis runs.
	Size int

	// Generations is the number of steps evolved before analysis.
	Generations int

	// Boundary is the boundary policy of analysis runs.
	Boundary automaton.Boundary

	// UseLiterature enables the literature short-circuit.
	UseLiterature bool

	// Workers bounds concurrent rules in batch classification; <= 1 is sequential.
	Workers int

	// Logger receives operational output. Nil discards it.
	Logger *slog.Logger

	// Decisions receives one trace entry per analyzed rule. Nil disables tracing.
	Decisions *logging.DecisionLogger
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Size:          constants.DefaultSize,
		Generations:   constants.DefaultGenerations,
		Boundary:      automaton.BoundaryCircular,
		UseLiterature: true,
		Workers:       1,
	}
}

// Classifier classifies rules. It holds no mutable state and is safe for
// concurrent use.
type Classifier struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a classifier. Zero-valued size, generations or boundary fall
// back to the defaults.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.Size == 0 {
		cfg.Size = def.Size
	}
	if cfg.Generations == 0 {
		cfg.Generations = def.Generations
	}
	if cfg.Boundary == "" {
		cfg.Boundary = def.Boundary
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Classifier{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify classifies rule with the configured size, generations and
// literature setting.
func (c *Classifier) Classify(rule int) (Result, error) {
	return c.ClassifyRule(rule, c.cfg.Size, c.cfg.Generations, c.cfg.UseLiterature)
}

// ClassifyRule classifies rule. When useLookup is set and the rule is in the
// literature table, the published class is returned with confidence 1.
// Otherwise an automaton of the given size is evolved for generations steps
// from the default state and its history is analyzed.
func (c *Classifier) ClassifyRule(rule, size, generations int, useLookup bool) (Result, error) {
	if useLookup {
		if class, ok := LiteratureClass(rule); ok {
			return Result{
				Rule:        rule,
				Class:       class,
				ClassName:   class.Name(),
				Description: class.Description(),
				Source:      SourceLiterature,
				Confidence:  constants.ConfidenceLiterature,
			}, nil
		}
	}

	a, err := automaton.New(rule, size, c.cfg.Boundary)
	if err != nil {
		return Result{}, err
	}
	if _, err := a.Evolve(generations); err != nil {
		return Result{}, err
	}

	c.logger.Debug("evolved rule for analysis", "rule", rule, "size", size, "generations", generations)
	return c.Analyze(a), nil
}

// Analyze classifies an already evolved automaton from its recorded history.
func (c *Classifier) Analyze(a *automaton.Automaton) Result {
	metrics := ComputeMetrics(a.History())
	d := Decide(metrics)

	c.logger.Log(context.Background(), logging.LevelTrace, "metrics",
		"rule", a.Rule(),
		"homogeneity", metrics.Homogeneity,
		"periodicity", metrics.Periodicity.Kind,
		"complexity", metrics.Complexity,
		"stability", metrics.Stability,
	)
	c.cfg.Decisions.Log(map[string]any{
		"event":       "classify",
		"rule":        a.Rule(),
		"size":        a.Size(),
		"generations": a.Generation(),
		"homogeneity": metrics.Homogeneity,
		"periodicity": string(metrics.Periodicity.Kind),
		"complexity":  metrics.Complexity,
		"stability":   metrics.Stability,
		"branch":      d.Branch,
		"class":       int(d.Class),
		"confidence":  d.Confidence,
	})

	return Result{
		Rule:        a.Rule(),
		Class:       d.Class,
		ClassName:   d.Class.Name(),
		Description: d.Class.Description(),
		Source:      SourceAnalysis,
		Confidence:  d.Confidence,
		Metrics:     &metrics,
	}
}
