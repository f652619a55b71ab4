package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
	"github.com/nvandessel/ecalab/internal/logging"
	"github.com/nvandessel/ecalab/internal/store"
)

// Options configures a Runner.
type Options struct {
	// Classifier serves the classification scenario. Nil uses the defaults.
	Classifier *classifier.Memoized

	// Store, when set, records every run the scenarios evolve.
	Store store.ResultStore

	// Boundary applies to every evolved automaton. Empty means circular.
	Boundary automaton.Boundary

	Logger *slog.Logger
}

// Runner executes scenarios against the real engine.
type Runner struct {
	classifier *classifier.Memoized
	store      store.ResultStore
	boundary   automaton.Boundary
	logger     *slog.Logger
}

// NewRunner creates a runner from opts.
func NewRunner(opts Options) *Runner {
	c := opts.Classifier
	if c == nil {
		c = classifier.NewMemoized(classifier.New(classifier.DefaultConfig()), nil)
	}
	boundary := opts.Boundary
	if boundary == "" {
		boundary = automaton.BoundaryCircular
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{classifier: c, store: opts.Store, boundary: boundary, logger: logger}
}

// Run executes the scenario called name.
func (r *Runner) Run(ctx context.Context, name string) (*Report, error) {
	sc, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownExperiment, name, strings.Join(Names(), ", "))
	}

	r.logger.Info("running experiment", "experiment", sc.Name)
	start := time.Now()
	result, err := sc.run(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", sc.Name, err)
	}

	report := &Report{
		Scenario: sc.Name,
		Title:    sc.Title,
		Elapsed:  time.Since(start),
		Result:   result,
	}
	r.logger.Debug("experiment finished", "experiment", sc.Name, "elapsed", report.Elapsed)
	return report, nil
}

// RunAll executes every scenario in order, stopping at the first failure.
func (r *Runner) RunAll(ctx context.Context) ([]*Report, error) {
	reports := make([]*Report, 0, len(scenarios))
	for _, name := range Names() {
		report, err := r.Run(ctx, name)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// evolve runs rule for generations steps from initial (nil for the default
// single cell) and records the run when a store is configured.
func (r *Runner) evolve(ctx context.Context, rule, size, generations int, initial automaton.Row) (*automaton.Automaton, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a, err := automaton.New(rule, size, r.boundary)
	if err != nil {
		return nil, err
	}
	if initial != nil {
		if err := a.Reset(initial); err != nil {
			return nil, err
		}
	}
	if _, err := a.Evolve(generations); err != nil {
		return nil, err
	}

	if r.store != nil {
		if _, err := r.store.SaveRun(ctx, store.NewRun(a)); err != nil {
			r.logger.Warn("failed to record experiment run", "rule", rule, "error", err)
		}
	}
	return a, nil
}
