package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
	"github.com/nvandessel/ecalab/internal/config"
	"github.com/nvandessel/ecalab/internal/initstate"
	"github.com/nvandessel/ecalab/internal/logging"
	"github.com/nvandessel/ecalab/internal/store"
)

// env holds what most commands need: settings, logging, the result store and
// a memoizing classifier built from them.
type env struct {
	cfg        *config.EcalabConfig
	boundary   automaton.Boundary
	logger     *slog.Logger
	decisions  *logging.DecisionLogger
	store      store.ResultStore
	classifier *classifier.Memoized
	dataDir    string
}

// loadSettings reads the file named by --config (or the default config) and
// validates it.
func loadSettings(cmd *cobra.Command) (*config.EcalabConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openEnv loads settings and opens the store. Callers must Close the result.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	boundary, err := automaton.ParseBoundary(cfg.Simulation.Boundary)
	if err != nil {
		return nil, err
	}

	dataDir, err := store.DataDir()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	decisions := logging.NewDecisionLogger(dataDir, cfg.Logging.Level)

	var results store.ResultStore
	if cfg.Store.Enabled {
		sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			decisions.Close()
			return nil, fmt.Errorf("failed to open result store: %w", err)
		}
		logger.Debug("result store opened", "path", sqlStore.Path())
		results = sqlStore
	} else {
		results = store.NewInMemoryStore()
	}

	c := classifier.New(classifier.Config{
		Size:          cfg.Classifier.AnalysisSize,
		Generations:   cfg.Classifier.AnalysisGenerations,
		Boundary:      boundary,
		UseLiterature: cfg.Classifier.UseLiterature,
		Workers:       cfg.Classifier.Workers,
		Logger:        logger,
		Decisions:     decisions,
	})

	return &env{
		cfg:        cfg,
		boundary:   boundary,
		logger:     logger,
		decisions:  decisions,
		store:      results,
		classifier: classifier.NewMemoized(c, results),
		dataDir:    dataDir,
	}, nil
}

// Close releases the store and the decision log.
func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close result store", "error", err)
	}
	e.decisions.Close()
}

// recordRun saves a summary of a in the store. Failures are logged only.
func (e *env) recordRun(ctx context.Context, a *automaton.Automaton) string {
	id, err := e.store.SaveRun(ctx, store.NewRun(a))
	if err != nil {
		e.logger.Warn("failed to record run", "rule", a.Rule(), "error", err)
		return ""
	}
	return id
}

// commandContext returns a context cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// parseRule parses and validates a rule number argument.
func parseRule(s string) (int, error) {
	rule, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid rule %q: %w", s, automaton.ErrInvalidArgument)
	}
	if err := automaton.ValidateRule(rule); err != nil {
		return 0, err
	}
	return rule, nil
}

// parseRules parses rule arguments, each a number or an inclusive range
// like 0-15. No arguments means every rule.
func parseRules(args []string) ([]int, error) {
	if len(args) == 0 {
		return classifier.AllRules(), nil
	}

	var rules []int
	for _, arg := range args {
		lo, hi, isRange := strings.Cut(arg, "-")
		if !isRange {
			rule, err := parseRule(arg)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
			continue
		}

		start, err := parseRule(lo)
		if err != nil {
			return nil, err
		}
		end, err := parseRule(hi)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("invalid range %q: %w", arg, automaton.ErrInvalidArgument)
		}
		for r := start; r <= end; r++ {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

// addSimulationFlags registers the flags that describe a run.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Int("size", 0, "Number of cells (default from config)")
	cmd.Flags().Int("generations", 0, "Generations to evolve (default from config)")
	cmd.Flags().String("boundary", "", "Boundary policy: circular or fixed (default from config)")

	cmd.Flags().String("initial", string(initstate.KindImpulse), "Initial state: impulse, block, periodic or random")
	cmd.Flags().String("state", "", "Explicit first row of 0s and 1s (overrides --initial and --size)")
	cmd.Flags().Int("position", initstate.Center, "Impulse cell or block start (default: centered)")
	cmd.Flags().Int("width", 5, "Block width")
	cmd.Flags().String("pattern", "10", "Repeating pattern of 0s and 1s for periodic states")
	cmd.Flags().Float64("density", 0.5, "Probability a cell starts active for random states")
	cmd.Flags().Uint64("seed", 0, "Random seed for random states")
}

// evolveFromFlags builds rule's automaton from the simulation flags and the
// configured defaults, and evolves it.
func evolveFromFlags(cmd *cobra.Command, e *env, rule int) (*automaton.Automaton, error) {
	size, _ := cmd.Flags().GetInt("size")
	generations, _ := cmd.Flags().GetInt("generations")
	boundaryFlag, _ := cmd.Flags().GetString("boundary")

	if size == 0 {
		size = e.cfg.Simulation.Size
	}
	if !cmd.Flags().Changed("generations") {
		generations = e.cfg.Simulation.Generations
	}
	boundary := e.boundary
	if boundaryFlag != "" {
		b, err := automaton.ParseBoundary(boundaryFlag)
		if err != nil {
			return nil, err
		}
		boundary = b
	}

	row, err := initialRowFromFlags(cmd, size)
	if err != nil {
		return nil, err
	}

	a, err := automaton.New(rule, len(row), boundary)
	if err != nil {
		return nil, err
	}
	if err := a.Reset(row); err != nil {
		return nil, err
	}
	if _, err := a.Evolve(generations); err != nil {
		return nil, err
	}
	e.logger.Debug("evolved", "rule", rule, "size", len(row), "generations", generations, "boundary", boundary)
	return a, nil
}

func initialRowFromFlags(cmd *cobra.Command, size int) (automaton.Row, error) {
	state, _ := cmd.Flags().GetString("state")
	if state != "" {
		return automaton.ParseRow(state)
	}

	kind, _ := cmd.Flags().GetString("initial")
	position, _ := cmd.Flags().GetInt("position")
	width, _ := cmd.Flags().GetInt("width")
	patternFlag, _ := cmd.Flags().GetString("pattern")
	density, _ := cmd.Flags().GetFloat64("density")
	seed, _ := cmd.Flags().GetUint64("seed")

	params := initstate.Params{
		Kind:     initstate.Kind(kind),
		Position: position,
		Width:    width,
		Density:  density,
		Seed:     seed,
	}
	if params.Kind == initstate.KindPeriodic {
		pattern, err := automaton.ParseRow(patternFlag)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		params.Pattern = pattern.Ints()
	}
	return initstate.Generate(size, params)
}
