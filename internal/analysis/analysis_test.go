package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nvandessel/ecalab/internal/automaton"
)

func mustRow(t *testing.T, s string) automaton.Row {
	t.Helper()
	row, err := automaton.ParseRow(s)
	if err != nil {
		t.Fatalf("ParseRow(%q) error = %v", s, err)
	}
	return row
}

func TestSymmetry(t *testing.T) {
	tests := []struct {
		row  string
		want Symmetries
	}{
		{"10101", Symmetries{Reflective: true}},
		{"1100", Symmetries{Rotational180: true}},
		{"1111", Symmetries{Reflective: true, Translational: true}},
		{"1101", Symmetries{}},
	}

	for _, tt := range tests {
		t.Run(tt.row, func(t *testing.T) {
			if got := Symmetry(mustRow(t, tt.row)); got != tt.want {
				t.Errorf("Symmetry(%s) = %+v, want %+v", tt.row, got, tt.want)
			}
		})
	}
}

func TestHamming(t *testing.T) {
	d, err := Hamming(mustRow(t, "10101"), mustRow(t, "00111"))
	if err != nil {
		t.Fatalf("Hamming() error = %v", err)
	}
	if d != 2 {
		t.Errorf("Hamming() = %d, want 2", d)
	}

	if _, err := Hamming(mustRow(t, "101"), mustRow(t, "10")); !errors.Is(err, automaton.ErrInvalidArgument) {
		t.Errorf("Hamming(mismatched) error = %v, want ErrInvalidArgument", err)
	}
}

func TestLocalPatterns(t *testing.T) {
	history := []automaton.Row{mustRow(t, "0101"), mustRow(t, "1111")}

	p, err := LocalPatterns(history, 2)
	if err != nil {
		t.Fatalf("LocalPatterns() error = %v", err)
	}
	// 01, 10, 01 from the first row; 11 three times from the second.
	if p.Total != 3 {
		t.Errorf("Total = %d, want 3", p.Total)
	}
	if p.MostCommon == nil || p.MostCommon.Pattern != "11" || p.MostCommon.Count != 3 {
		t.Errorf("MostCommon = %+v, want 11 x3", p.MostCommon)
	}
	if p.Counts[1].Pattern != "01" || p.Counts[1].Count != 2 {
		t.Errorf("Counts[1] = %+v, want 01 x2", p.Counts[1])
	}

	wide, err := LocalPatterns(history, 5)
	if err != nil {
		t.Fatalf("LocalPatterns() error = %v", err)
	}
	if wide.Total != 0 || wide.MostCommon != nil {
		t.Errorf("LocalPatterns(window > width) = %+v, want empty", wide)
	}

	if _, err := LocalPatterns(history, 0); !errors.Is(err, automaton.ErrInvalidArgument) {
		t.Errorf("LocalPatterns(window 0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestEntropy(t *testing.T) {
	tests := []struct {
		row  string
		want float64
	}{
		{"0000", 0},
		{"1111", 0},
		{"1010", 1},
		{"1000", 0.8112781244591328},
	}

	for _, tt := range tests {
		if got := Entropy(mustRow(t, tt.row)); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Entropy(%s) = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestFractalDimension(t *testing.T) {
	full := make([]automaton.Row, 32)
	for i := range full {
		row := make(automaton.Row, 32)
		for j := range row {
			row[j] = 1
		}
		full[i] = row
	}
	if got := FractalDimension(full); math.Abs(got-2) > 1e-9 {
		t.Errorf("FractalDimension(filled plane) = %v, want 2", got)
	}

	point := make([]automaton.Row, 16)
	for i := range point {
		point[i] = make(automaton.Row, 16)
	}
	point[3][5] = 1
	if got := FractalDimension(point); math.Abs(got) > 1e-9 {
		t.Errorf("FractalDimension(single point) = %v, want 0", got)
	}

	if got := FractalDimension(point[:3]); got != 0 {
		t.Errorf("FractalDimension(3 rows) = %v, want 0 (one box size)", got)
	}
	empty := []automaton.Row{make(automaton.Row, 8), make(automaton.Row, 8)}
	if got := FractalDimension(empty); got != 0 {
		t.Errorf("FractalDimension(no active cells) = %v, want 0", got)
	}
}

func TestFractalDimension_Rule90(t *testing.T) {
	a, err := automaton.New(90, 129, automaton.BoundaryFixed)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Evolve(63); err != nil {
		t.Fatalf("Evolve() error = %v", err)
	}

	// The Sierpinski triangle sits between a line and a filled plane.
	got := FractalDimension(a.History())
	if got <= 1 || got >= 2 {
		t.Errorf("FractalDimension(rule 90) = %v, want between 1 and 2", got)
	}
}

func TestConvergence(t *testing.T) {
	a, err := automaton.New(0, 11, automaton.BoundaryCircular)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Evolve(30); err != nil {
		t.Fatalf("Evolve() error = %v", err)
	}

	got := Convergence(a.History())
	if !got.Converged {
		t.Fatal("rule 0 should converge")
	}
	if got.Generation == nil || *got.Generation != 21 {
		t.Errorf("Generation = %v, want 21", got.Generation)
	}
	if got.Kind != ConvergenceKindFixedPoint {
		t.Errorf("Kind = %q, want %q", got.Kind, ConvergenceKindFixedPoint)
	}
	if got.FinalState.Active() != 0 {
		t.Errorf("FinalState = %s, want all zero", got.FinalState)
	}

	b, _ := automaton.New(30, 41, automaton.BoundaryCircular)
	_, _ = b.Evolve(30)
	if Convergence(b.History()).Converged {
		t.Error("rule 30 should not converge")
	}

	if Convergence(a.History()[:1]).Converged {
		t.Error("a single row should not count as converged")
	}
}

func TestBenchmark(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Duration{0, 5, 5, 7, 7, 17}
	call := 0
	now = func() time.Time {
		d := ticks[call] * time.Millisecond
		call++
		return base.Add(d)
	}
	t.Cleanup(func() { now = time.Now })

	res, err := Benchmark([]int{30, 90, 110}, 21, 10)
	if err != nil {
		t.Fatalf("Benchmark() error = %v", err)
	}
	if len(res.Rules) != 3 {
		t.Fatalf("got %d timings, want 3", len(res.Rules))
	}
	if res.Total != 17*time.Millisecond {
		t.Errorf("Total = %v, want 17ms", res.Total)
	}
	if res.Fastest.Rule != 90 {
		t.Errorf("Fastest = %d, want 90", res.Fastest.Rule)
	}
	if res.Slowest.Rule != 110 {
		t.Errorf("Slowest = %d, want 110", res.Slowest.Rule)
	}
	if res.Rules[0].Generations != 11 {
		t.Errorf("Generations = %d, want 11", res.Rules[0].Generations)
	}
}

func TestBenchmark_InvalidRule(t *testing.T) {
	if _, err := Benchmark([]int{30, 999}, 11, 5); !errors.Is(err, automaton.ErrInvalidArgument) {
		t.Errorf("Benchmark() error = %v, want ErrInvalidArgument", err)
	}
}
