package experiment

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
	"github.com/nvandessel/ecalab/internal/store"
)

func newTestRunner(t *testing.T, s store.ResultStore) *Runner {
	t.Helper()
	c := classifier.New(classifier.Config{
		Size:          31,
		Generations:   60,
		Boundary:      automaton.BoundaryCircular,
		UseLiterature: true,
		Workers:       4,
	})
	var cache classifier.Cache
	if s != nil {
		cache = s
	}
	return NewRunner(Options{
		Classifier: classifier.NewMemoized(c, cache),
		Store:      s,
	})
}

func runScenario[T Result](t *testing.T, r *Runner, name string) T {
	t.Helper()
	report, err := r.Run(context.Background(), name)
	if err != nil {
		t.Fatalf("Run(%q) error = %v", name, err)
	}
	if report.Scenario != name || report.Title == "" {
		t.Errorf("report header = %q/%q", report.Scenario, report.Title)
	}
	if len(report.Result.Lines()) == 0 {
		t.Errorf("Run(%q) rendered no lines", name)
	}
	res, ok := report.Result.(T)
	if !ok {
		t.Fatalf("Run(%q) result type = %T", name, report.Result)
	}
	return res
}

func TestNames(t *testing.T) {
	want := []string{"initial-states", "convergence", "patterns", "fractal", "benchmark", "classification", "symmetry"}
	if got := Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	for _, name := range want {
		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) not found", name)
		}
	}
}

func TestRun_Unknown(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Run(context.Background(), "telepathy")
	if !errors.Is(err, ErrUnknownExperiment) {
		t.Errorf("Run(telepathy) error = %v, want ErrUnknownExperiment", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(t, nil)
	for _, name := range []string{"convergence", "benchmark"} {
		if _, err := r.Run(ctx, name); !errors.Is(err, context.Canceled) {
			t.Errorf("Run(%q) error = %v, want context.Canceled", name, err)
		}
	}
}

func TestInitialStates(t *testing.T) {
	res := runScenario[InitialStatesResult](t, newTestRunner(t, nil), "initial-states")

	if res.Rule != 30 || len(res.Runs) != 5 {
		t.Fatalf("got rule %d with %d runs", res.Rule, len(res.Runs))
	}
	byName := make(map[string]StateRun)
	for _, run := range res.Runs {
		byName[run.Name] = run
	}

	impulse := 1.0 / float64(res.Size)
	if got := byName["central impulse"].InitialDensity; got != impulse {
		t.Errorf("central impulse initial density = %v, want %v", got, impulse)
	}
	if got := byName["central block"].InitialDensity; got != 10.0/float64(res.Size) {
		t.Errorf("central block initial density = %v", got)
	}
	if got := byName["random 30%"].InitialDensity; got < 0.15 || got > 0.45 {
		t.Errorf("random 30%% initial density = %v, want near 0.3", got)
	}
}

func TestConvergence(t *testing.T) {
	res := runScenario[ConvergenceResult](t, newTestRunner(t, nil), "convergence")

	if len(res.Runs) != 4 {
		t.Fatalf("got %d runs, want 4", len(res.Runs))
	}
	for _, run := range res.Runs {
		if len(run.Densities) != res.Generations+1 {
			t.Errorf("rule %d: %d densities, want %d", run.Rule, len(run.Densities), res.Generations+1)
		}
		switch run.Rule {
		case 8, 32:
			if !run.Converged || run.Generation == nil {
				t.Errorf("rule %d should converge from a single cell", run.Rule)
			}
			if last := run.Densities[len(run.Densities)-1]; last != 0 {
				t.Errorf("rule %d final density = %v, want 0", run.Rule, last)
			}
		}
	}
}

func TestPatterns(t *testing.T) {
	res := runScenario[PatternsResult](t, newTestRunner(t, nil), "patterns")

	if res.Window != 3 {
		t.Errorf("Window = %d, want 3", res.Window)
	}
	for _, run := range res.Runs {
		if len(run.Top) == 0 || len(run.Top) > 5 {
			t.Errorf("rule %d: %d top patterns", run.Rule, len(run.Top))
		}
		if run.MostCommon == nil || *run.MostCommon != run.Top[0] {
			t.Errorf("rule %d: most common %v, top %v", run.Rule, run.MostCommon, run.Top)
		}
		if run.Distinct > 8 {
			t.Errorf("rule %d: %d distinct 3-cell patterns", run.Rule, run.Distinct)
		}
	}
}

func TestFractal(t *testing.T) {
	res := runScenario[FractalResult](t, newTestRunner(t, nil), "fractal")

	if len(res.Runs) != 4 {
		t.Fatalf("got %d runs, want 4", len(res.Runs))
	}
	for _, run := range res.Runs {
		if run.Dimension <= 0 {
			t.Errorf("rule %d dimension = %v, want > 0", run.Rule, run.Dimension)
		}
	}
}

func TestBenchmark(t *testing.T) {
	res := runScenario[BenchmarkResult](t, newTestRunner(t, nil), "benchmark")

	if len(res.Timing.Rules) != 6 {
		t.Fatalf("got %d timings, want 6", len(res.Timing.Rules))
	}
	for _, timing := range res.Timing.Rules {
		if timing.Generations != res.Generations+1 {
			t.Errorf("rule %d recorded %d rows", timing.Rule, timing.Generations)
		}
	}
}

func TestClassification(t *testing.T) {
	res := runScenario[ClassificationResult](t, newTestRunner(t, nil), "classification")

	if len(res.Sample) != 26 || res.Summary.Total != 26 {
		t.Fatalf("sample %d, total %d, want 26", len(res.Sample), res.Summary.Total)
	}
	if res.Sample[0] != 0 || res.Sample[25] != 250 {
		t.Errorf("sample = %v", res.Sample)
	}
	for _, class := range classifier.Classes {
		if n := len(res.Examples[class]); n > 5 {
			t.Errorf("%s: %d examples, want at most 5", class.Name(), n)
		}
	}
	// 0 is homogeneous in the literature table.
	if !slices.Contains(res.Examples[classifier.ClassHomogeneous], 0) {
		t.Errorf("class I examples = %v, want rule 0", res.Examples[classifier.ClassHomogeneous])
	}
}

func TestClassification_CachesAnalyzedRules(t *testing.T) {
	s := store.NewInMemoryStore()
	res := runScenario[ClassificationResult](t, newTestRunner(t, s), "classification")

	stored, err := s.ListClassifications(context.Background(), classifier.ClassUnknown)
	if err != nil {
		t.Fatalf("ListClassifications() error = %v", err)
	}
	analyzed := 0
	for _, rule := range res.Sample {
		if _, ok := classifier.LiteratureClass(rule); !ok {
			analyzed++
		}
	}
	if analyzed == 0 {
		t.Fatal("sample has no rules outside the literature table")
	}
	if len(stored) != analyzed {
		t.Errorf("stored %d classifications, want %d", len(stored), analyzed)
	}
}

func TestSymmetry(t *testing.T) {
	res := runScenario[SymmetryResult](t, newTestRunner(t, nil), "symmetry")

	got := make(map[int]SymmetryRun)
	for _, run := range res.Runs {
		got[run.Rule] = run
	}
	if !got[90].Symmetries.Reflective {
		t.Error("rule 90 from a centered cell should stay mirror symmetric")
	}
	if got[170].Symmetries.Reflective {
		t.Error("rule 170 shifts the cell off center; row should not be mirror symmetric")
	}
	for rule, run := range got {
		if run.Entropy < 0 || run.Entropy > 1 {
			t.Errorf("rule %d entropy = %v, want within [0, 1]", rule, run.Entropy)
		}
	}
}

func TestRunner_RecordsRuns(t *testing.T) {
	results := store.NewInMemoryStore()
	r := newTestRunner(t, results)

	if _, err := r.Run(context.Background(), "symmetry"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	runs, err := results.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 4 {
		t.Errorf("recorded %d runs, want 4", len(runs))
	}
}
