// Package analysis measures patterns in automaton rows and histories:
// symmetry, distance, local pattern frequencies, entropy, fractal dimension
// and convergence.
package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/constants"
)

// Symmetries reports the symmetries a single row has.
type Symmetries struct {
	Reflective    bool `json:"reflective"`
	Rotational180 bool `json:"rotational_180"`
	Translational bool `json:"translational"`
}

// Symmetry checks a row for mirror symmetry, 180-degree rotational symmetry
// (the row equals the complement of its reverse) and uniformity.
func Symmetry(row automaton.Row) Symmetries {
	n := len(row)
	s := Symmetries{Reflective: true, Rotational180: true, Translational: true}
	for i := 0; i < n; i++ {
		mirror := row[n-1-i]
		if row[i] != mirror {
			s.Reflective = false
		}
		if row[i] != 1-mirror {
			s.Rotational180 = false
		}
		if row[i] != row[0] {
			s.Translational = false
		}
	}
	return s
}

// Hamming counts the cells that differ between a and b.
func Hamming(a, b automaton.Row) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("rows have lengths %d and %d: %w", len(a), len(b), automaton.ErrInvalidArgument)
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

// PatternCount is one local pattern and how often it occurred.
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// Patterns summarizes the local patterns of a history.
type Patterns struct {
	// Counts is ordered by descending count, ties in first-seen order.
	Counts     []PatternCount `json:"counts"`
	Total      int            `json:"total"`
	MostCommon *PatternCount  `json:"most_common,omitempty"`
}

// LocalPatterns counts every window-wide run of cells across all rows.
// Windows wider than a row contribute nothing for that row.
func LocalPatterns(history []automaton.Row, window int) (Patterns, error) {
	if window < 1 {
		return Patterns{}, fmt.Errorf("pattern window %d: %w", window, automaton.ErrInvalidArgument)
	}

	index := map[string]int{}
	var counts []PatternCount
	var sb strings.Builder
	for _, row := range history {
		for i := 0; i+window <= len(row); i++ {
			sb.Reset()
			for _, c := range row[i : i+window] {
				sb.WriteByte('0' + c)
			}
			key := sb.String()
			if j, ok := index[key]; ok {
				counts[j].Count++
				continue
			}
			index[key] = len(counts)
			counts = append(counts, PatternCount{Pattern: key, Count: 1})
		}
	}

	// Stable insertion sort keeps first-seen order among equal counts.
	for i := 1; i < len(counts); i++ {
		for j := i; j > 0 && counts[j].Count > counts[j-1].Count; j-- {
			counts[j], counts[j-1] = counts[j-1], counts[j]
		}
	}

	p := Patterns{Counts: counts, Total: len(counts)}
	if len(counts) > 0 {
		top := counts[0]
		p.MostCommon = &top
	}
	return p, nil
}

// Entropy is the Shannon entropy, in bits, of the cell values of a row.
func Entropy(row automaton.Row) float64 {
	if len(row) == 0 {
		return 0
	}
	h := 0.0
	for _, p := range []float64{1 - row.Density(), row.Density()} {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

// FractalDimension estimates the box-counting dimension of the active cells
// of a history. It returns 0 when there are no active cells or fewer than two
// usable box sizes.
func FractalDimension(history []automaton.Row) float64 {
	height := len(history)
	if height == 0 {
		return 0
	}
	width := len(history[0])

	type point struct{ y, x int }
	var active []point
	for y, row := range history {
		for x, c := range row {
			if c == 1 {
				active = append(active, point{y, x})
			}
		}
	}
	if len(active) == 0 {
		return 0
	}

	var logSizes, logCounts []float64
	for _, size := range constants.BoxSizes {
		if size > min(height, width) {
			break
		}
		boxes := map[point]struct{}{}
		for _, p := range active {
			boxes[point{p.y / size, p.x / size}] = struct{}{}
		}
		logSizes = append(logSizes, math.Log(float64(size)))
		logCounts = append(logCounts, math.Log(float64(len(boxes))))
	}
	if len(logSizes) < 2 {
		return 0
	}

	return -slope(logSizes, logCounts)
}

// slope is the least-squares slope of y against x.
func slope(x, y []float64) float64 {
	n := float64(len(x))
	var sx, sy, sxx, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

// ConvergenceKindFixedPoint marks a history that settled on one row.
const ConvergenceKindFixedPoint = "fixed-point"

// ConvergenceResult reports whether a history settled on a fixed row.
type ConvergenceResult struct {
	Converged  bool          `json:"converged"`
	Generation *int          `json:"generation,omitempty"`
	FinalState automaton.Row `json:"-"`
	Final      []int         `json:"final_state,omitempty"`
	Kind       string        `json:"kind,omitempty"`
}

// Convergence checks whether the trailing rows of history are identical.
// The window is the smaller of 10 and half the history length.
func Convergence(history []automaton.Row) ConvergenceResult {
	if len(history) < 2 {
		return ConvergenceResult{}
	}

	window := min(constants.ConvergenceWindow, len(history)/2)
	tail := history[len(history)-window:]
	for _, row := range tail[1:] {
		if !row.Equal(tail[0]) {
			return ConvergenceResult{}
		}
	}

	gen := len(history) - window
	final := tail[0].Clone()
	return ConvergenceResult{
		Converged:  true,
		Generation: &gen,
		FinalState: final,
		Final:      final.Ints(),
		Kind:       ConvergenceKindFixedPoint,
	}
}
