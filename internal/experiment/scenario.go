package experiment

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownExperiment is returned by Run for a name with no scenario.
var ErrUnknownExperiment = errors.New("unknown experiment")

// Result is the scenario-specific outcome of an experiment.
type Result interface {
	// Lines renders the result as human-readable text, one line per entry.
	Lines() []string
}

// Scenario defines one named experiment.
type Scenario struct {
	Name  string
	Title string
	run   func(ctx context.Context, r *Runner) (Result, error)
}

// Report is the outcome of running a scenario.
type Report struct {
	Scenario string        `json:"scenario"`
	Title    string        `json:"title"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Result   Result        `json:"result"`
}

// scenarios is the registry, in presentation order.
var scenarios = []Scenario{
	{Name: "initial-states", Title: "Effect of different initial states", run: runInitialStates},
	{Name: "convergence", Title: "Convergence analysis", run: runConvergence},
	{Name: "patterns", Title: "Local pattern detection", run: runPatterns},
	{Name: "fractal", Title: "Fractal dimension", run: runFractal},
	{Name: "benchmark", Title: "Performance benchmark", run: runBenchmark},
	{Name: "classification", Title: "Sampled classification", run: runClassification},
	{Name: "symmetry", Title: "Symmetry analysis", run: runSymmetry},
}

// Names returns every scenario name in presentation order.
func Names() []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the scenario called name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
