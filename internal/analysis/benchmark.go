package analysis

import (
	"fmt"
	"time"

	"github.com/nvandessel/ecalab/internal/automaton"
)

// RuleTiming is the benchmark outcome for one rule.
type RuleTiming struct {
	Rule         int           `json:"rule"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	FinalDensity float64       `json:"final_density"`
	Period       *int          `json:"period"`
	Generations  int           `json:"generations"`
}

// BenchmarkResult collects per-rule timings.
type BenchmarkResult struct {
	Rules   []RuleTiming  `json:"rules"`
	Total   time.Duration `json:"total_ns"`
	Fastest *RuleTiming   `json:"fastest,omitempty"`
	Slowest *RuleTiming   `json:"slowest,omitempty"`
}

// now is replaced in tests.
var now = time.Now

// Benchmark evolves each rule from the default state and times it.
// The first invalid rule aborts the run.
func Benchmark(rules []int, size, generations int) (BenchmarkResult, error) {
	var res BenchmarkResult
	for _, rule := range rules {
		start := now()

		a, err := automaton.New(rule, size, automaton.BoundaryCircular)
		if err != nil {
			return BenchmarkResult{}, fmt.Errorf("benchmark rule %d: %w", rule, err)
		}
		if _, err := a.Evolve(generations); err != nil {
			return BenchmarkResult{}, fmt.Errorf("benchmark rule %d: %w", rule, err)
		}

		elapsed := now().Sub(start)
		stats := a.Statistics()

		res.Rules = append(res.Rules, RuleTiming{
			Rule:         rule,
			Elapsed:      elapsed,
			FinalDensity: stats.FinalDensity,
			Period:       stats.Period,
			Generations:  stats.Generations,
		})
		res.Total += elapsed
	}

	for i := range res.Rules {
		r := &res.Rules[i]
		if res.Fastest == nil || r.Elapsed < res.Fastest.Elapsed {
			res.Fastest = r
		}
		if res.Slowest == nil || r.Elapsed > res.Slowest.Elapsed {
			res.Slowest = r
		}
	}
	return res, nil
}
