package experiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/nvandessel/ecalab/internal/analysis"
	"github.com/nvandessel/ecalab/internal/classifier"
	"github.com/nvandessel/ecalab/internal/constants"
	"github.com/nvandessel/ecalab/internal/initstate"
)

const (
	experimentSize = 101
	topPatterns    = 5
	examplesShown  = 5
)

// StateRun is one initial state of the initial-states scenario.
type StateRun struct {
	Name           string  `json:"name"`
	InitialDensity float64 `json:"initial_density"`
	FinalDensity   float64 `json:"final_density"`
	MeanDensity    float64 `json:"mean_density"`
	Period         *int    `json:"period"`
}

// InitialStatesResult compares one rule evolved from several initial states.
type InitialStatesResult struct {
	Rule        int        `json:"rule"`
	Size        int        `json:"size"`
	Generations int        `json:"generations"`
	Runs        []StateRun `json:"runs"`
}

// Lines implements Result.
func (r InitialStatesResult) Lines() []string {
	lines := []string{fmt.Sprintf("Rule %d, %d cells, %d generations", r.Rule, r.Size, r.Generations)}
	for _, run := range r.Runs {
		lines = append(lines, fmt.Sprintf("  %-18s initial %.3f  final %.3f  mean %.3f  period %s",
			run.Name, run.InitialDensity, run.FinalDensity, run.MeanDensity, formatPeriod(run.Period)))
	}
	return lines
}

func runInitialStates(ctx context.Context, r *Runner) (Result, error) {
	const rule, generations = 30, 80
	states := []struct {
		name   string
		params initstate.Params
	}{
		{"central impulse", initstate.Params{Kind: initstate.KindImpulse, Position: initstate.Center}},
		{"lateral impulse", initstate.Params{Kind: initstate.KindImpulse, Position: 20}},
		{"central block", initstate.Params{Kind: initstate.KindBlock, Width: 10, Position: initstate.Center}},
		{"random 30%", initstate.Params{Kind: initstate.KindRandom, Density: 0.3, Seed: 42}},
		{"periodic 1010", initstate.Params{Kind: initstate.KindPeriodic, Pattern: []int{1, 0, 1, 0}}},
	}

	res := InitialStatesResult{Rule: rule, Size: experimentSize, Generations: generations}
	for _, st := range states {
		row, err := initstate.Generate(experimentSize, st.params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		a, err := r.evolve(ctx, rule, experimentSize, generations, row)
		if err != nil {
			return nil, err
		}
		stats := a.Statistics()
		res.Runs = append(res.Runs, StateRun{
			Name:           st.name,
			InitialDensity: stats.InitialDensity,
			FinalDensity:   stats.FinalDensity,
			MeanDensity:    stats.MeanDensity,
			Period:         stats.Period,
		})
	}
	return res, nil
}

// ConvergenceRun is the convergence analysis of one rule.
type ConvergenceRun struct {
	Rule       int       `json:"rule"`
	Converged  bool      `json:"converged"`
	Generation *int      `json:"generation,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Densities  []float64 `json:"densities"`
}

// ConvergenceResult lists convergence per rule with the density trace.
type ConvergenceResult struct {
	Generations int              `json:"generations"`
	Runs        []ConvergenceRun `json:"runs"`
}

// Lines implements Result.
func (r ConvergenceResult) Lines() []string {
	var lines []string
	for _, run := range r.Runs {
		if run.Converged {
			lines = append(lines, fmt.Sprintf("Rule %d: converged (%s) at generation %d", run.Rule, run.Kind, *run.Generation))
		} else {
			lines = append(lines, fmt.Sprintf("Rule %d: did not converge in %d generations", run.Rule, r.Generations))
		}
	}
	return lines
}

func runConvergence(ctx context.Context, r *Runner) (Result, error) {
	const generations = 150
	res := ConvergenceResult{Generations: generations}
	for _, rule := range []int{8, 32, 150, 184} {
		a, err := r.evolve(ctx, rule, experimentSize, generations, nil)
		if err != nil {
			return nil, err
		}
		history := a.History()
		conv := analysis.Convergence(history)

		densities := make([]float64, len(history))
		for i, row := range history {
			densities[i] = row.Density()
		}
		res.Runs = append(res.Runs, ConvergenceRun{
			Rule:       rule,
			Converged:  conv.Converged,
			Generation: conv.Generation,
			Kind:       conv.Kind,
			Densities:  densities,
		})
	}
	return res, nil
}

// PatternRun is the local pattern census of one rule.
type PatternRun struct {
	Rule       int                     `json:"rule"`
	Distinct   int                     `json:"distinct"`
	MostCommon *analysis.PatternCount  `json:"most_common,omitempty"`
	Top        []analysis.PatternCount `json:"top"`
}

// PatternsResult lists pattern censuses for a fixed window.
type PatternsResult struct {
	Window int          `json:"window"`
	Runs   []PatternRun `json:"runs"`
}

// Lines implements Result.
func (r PatternsResult) Lines() []string {
	var lines []string
	for _, run := range r.Runs {
		lines = append(lines, fmt.Sprintf("Rule %d: %d distinct patterns of width %d", run.Rule, run.Distinct, r.Window))
		for i, pc := range run.Top {
			lines = append(lines, fmt.Sprintf("  %d. %s: %d", i+1, pc.Pattern, pc.Count))
		}
	}
	return lines
}

func runPatterns(ctx context.Context, r *Runner) (Result, error) {
	res := PatternsResult{Window: constants.DefaultPatternWindow}
	for _, rule := range []int{30, 90, 110, 150} {
		a, err := r.evolve(ctx, rule, experimentSize, 100, nil)
		if err != nil {
			return nil, err
		}
		p, err := analysis.LocalPatterns(a.History(), res.Window)
		if err != nil {
			return nil, err
		}
		res.Runs = append(res.Runs, PatternRun{
			Rule:       rule,
			Distinct:   p.Total,
			MostCommon: p.MostCommon,
			Top:        p.Counts[:min(topPatterns, len(p.Counts))],
		})
	}
	return res, nil
}

// FractalRun is the box-counting dimension of one rule's space-time diagram.
type FractalRun struct {
	Rule      int     `json:"rule"`
	Dimension float64 `json:"dimension"`
}

// FractalResult lists fractal dimension estimates.
type FractalResult struct {
	Runs []FractalRun `json:"runs"`
}

// Lines implements Result.
func (r FractalResult) Lines() []string {
	lines := make([]string, 0, len(r.Runs)+1)
	for _, run := range r.Runs {
		lines = append(lines, fmt.Sprintf("Rule %d: %.3f", run.Rule, run.Dimension))
	}
	return append(lines, "Values near 2.0 fill the plane; lower values suggest fractal structure.")
}

func runFractal(ctx context.Context, r *Runner) (Result, error) {
	var res FractalResult
	for _, rule := range []int{30, 90, 150, 110} {
		a, err := r.evolve(ctx, rule, experimentSize, 100, nil)
		if err != nil {
			return nil, err
		}
		res.Runs = append(res.Runs, FractalRun{Rule: rule, Dimension: analysis.FractalDimension(a.History())})
	}
	return res, nil
}

// BenchmarkResult wraps the timing of a representative rule set.
type BenchmarkResult struct {
	Size        int                      `json:"size"`
	Generations int                      `json:"generations"`
	Timing      analysis.BenchmarkResult `json:"timing"`
}

// Lines implements Result.
func (r BenchmarkResult) Lines() []string {
	lines := []string{fmt.Sprintf("Total: %s for %d rules (%d cells, %d generations)",
		r.Timing.Total, len(r.Timing.Rules), r.Size, r.Generations)}
	if f, s := r.Timing.Fastest, r.Timing.Slowest; f != nil && s != nil {
		lines = append(lines,
			fmt.Sprintf("Fastest: rule %d (%s)", f.Rule, f.Elapsed),
			fmt.Sprintf("Slowest: rule %d (%s)", s.Rule, s.Elapsed))
	}
	for _, t := range r.Timing.Rules {
		lines = append(lines, fmt.Sprintf("  Rule %d: %s, final density %.3f", t.Rule, t.Elapsed, t.FinalDensity))
	}
	return lines
}

func runBenchmark(ctx context.Context, r *Runner) (Result, error) {
	const size, generations = 201, 200
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timing, err := analysis.Benchmark([]int{8, 30, 90, 110, 150, 184}, size, generations)
	if err != nil {
		return nil, err
	}
	return BenchmarkResult{Size: size, Generations: generations, Timing: timing}, nil
}

// ClassificationResult summarizes a sample of rules.
type ClassificationResult struct {
	Sample   []int                      `json:"sample"`
	Summary  classifier.Summary         `json:"summary"`
	Examples map[classifier.Class][]int `json:"examples"`
}

// Lines implements Result.
func (r ClassificationResult) Lines() []string {
	lines := []string{fmt.Sprintf("Sample of %d rules", r.Summary.Total)}
	for _, class := range classifier.Classes {
		lines = append(lines, fmt.Sprintf("  %-22s %3d (%.1f%%)  e.g. %s",
			class.Name(), r.Summary.Counts[class], r.Summary.Percentages[class], formatRules(r.Examples[class])))
	}
	if r.Summary.Errors > 0 {
		lines = append(lines, fmt.Sprintf("  %d rules failed", r.Summary.Errors))
	}
	return lines
}

func runClassification(ctx context.Context, r *Runner) (Result, error) {
	var sample []int
	for rule := 0; rule <= constants.MaxRule; rule += 10 {
		sample = append(sample, rule)
	}

	summary := r.classifier.Statistics(ctx, sample)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	examples := make(map[classifier.Class][]int, len(classifier.Classes))
	for _, class := range classifier.Classes {
		rules := summary.RulesByClass[class]
		examples[class] = rules[:min(examplesShown, len(rules))]
	}
	return ClassificationResult{Sample: sample, Summary: summary, Examples: examples}, nil
}

// SymmetryRun reports the symmetries of one rule's final row.
type SymmetryRun struct {
	Rule       int                 `json:"rule"`
	Symmetries analysis.Symmetries `json:"symmetries"`
	Entropy    float64             `json:"entropy"`
}

// SymmetryResult lists symmetry checks per rule.
type SymmetryResult struct {
	Generations int           `json:"generations"`
	Runs        []SymmetryRun `json:"runs"`
}

// Lines implements Result.
func (r SymmetryResult) Lines() []string {
	var lines []string
	for _, run := range r.Runs {
		lines = append(lines, fmt.Sprintf("Rule %d: reflective %s, rotational 180 %s, translational %s, entropy %.3f",
			run.Rule, yesNo(run.Symmetries.Reflective), yesNo(run.Symmetries.Rotational180),
			yesNo(run.Symmetries.Translational), run.Entropy))
	}
	return lines
}

func runSymmetry(ctx context.Context, r *Runner) (Result, error) {
	res := SymmetryResult{Generations: 50}
	for _, rule := range []int{90, 150, 102, 170} {
		a, err := r.evolve(ctx, rule, experimentSize, res.Generations, nil)
		if err != nil {
			return nil, err
		}
		final := a.Current()
		res.Runs = append(res.Runs, SymmetryRun{
			Rule:       rule,
			Symmetries: analysis.Symmetry(final),
			Entropy:    analysis.Entropy(final),
		})
	}
	return res, nil
}

func formatPeriod(p *int) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *p)
}

func formatRules(rules []int) string {
	if len(rules) == 0 {
		return "-"
	}
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = fmt.Sprintf("%d", r)
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
