// Package automaton implements elementary (one-dimensional, binary,
// radius-one) cellular automata over Wolfram's 256 rules.
//
// An Automaton owns its rule table, boundary policy and an append-only
// history of rows. Evolution is deterministic: the same rule, size, boundary
// and initial row always produce the same history.
package automaton

import (
	"errors"
	"fmt"

	"github.com/nvandessel/ecalab/internal/constants"
)

// ErrInvalidArgument is wrapped by every error caused by a bad caller argument:
// rule out of range, wrong row length, unknown boundary and similar.
var ErrInvalidArgument = errors.New("invalid argument")

// Automaton is a single elementary cellular automaton and its history.
// It is not safe for concurrent use.
type Automaton struct {
	rule       int
	table      RuleTable
	size       int
	boundary   Boundary
	current    Row
	history    []Row
	generation int
}

// New creates an automaton for rule on a row of size cells.
// The initial row has a single active cell at index size/2.
func New(rule, size int, boundary Boundary) (*Automaton, error) {
	table, err := NewRuleTable(rule)
	if err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, fmt.Errorf("size must be at least 1, got %d: %w", size, ErrInvalidArgument)
	}
	if !boundary.Valid() {
		return nil, fmt.Errorf("unknown boundary %q: %w", boundary, ErrInvalidArgument)
	}

	a := &Automaton{
		rule:     rule,
		table:    table,
		size:     size,
		boundary: boundary,
	}
	if err := a.Reset(nil); err != nil {
		return nil, err
	}
	return a, nil
}

// DefaultRow returns a row of size cells with only the center cell active.
func DefaultRow(size int) Row {
	row := make(Row, size)
	if size > 0 {
		row[size/2] = 1
	}
	return row
}

// Reset replaces the current row and discards all history.
// A nil state restores the default single center cell. A non-nil state must
// have exactly Size() cells, each 0 or 1; it is copied.
func (a *Automaton) Reset(state Row) error {
	var row Row
	if state == nil {
		row = DefaultRow(a.size)
	} else {
		if len(state) != a.size {
			return fmt.Errorf("initial state must have %d cells, got %d: %w", a.size, len(state), ErrInvalidArgument)
		}
		if err := state.validate(); err != nil {
			return err
		}
		row = state.Clone()
	}

	a.current = row
	a.history = []Row{row}
	a.generation = 0
	return nil
}

// Neighborhood returns the triple for position in the current row.
func (a *Automaton) Neighborhood(position int) (Neighborhood, error) {
	return NeighborhoodAt(position, a.current, a.boundary)
}

// Step computes the next row from the current one without committing it.
func (a *Automaton) Step() Row {
	return a.next(a.current)
}

func (a *Automaton) next(row Row) Row {
	n := len(row)
	out := make(Row, n)
	for i := 0; i < n; i++ {
		var left, right uint8
		if a.boundary == BoundaryCircular {
			left = row[(i-1+n)%n]
			right = row[(i+1)%n]
		} else {
			if i > 0 {
				left = row[i-1]
			}
			if i < n-1 {
				right = row[i+1]
			}
		}
		out[i] = a.table[int(left)<<2|int(row[i])<<1|int(right)]
	}
	return out
}

// Evolve applies Step generations times, committing every new row to the
// history. It returns the full history, which callers must not modify.
func (a *Automaton) Evolve(generations int) ([]Row, error) {
	if generations < 0 {
		return nil, fmt.Errorf("generations must be non-negative, got %d: %w", generations, ErrInvalidArgument)
	}
	for i := 0; i < generations; i++ {
		row := a.next(a.current)
		a.history = append(a.history, row)
		a.current = row
		a.generation++
	}
	return a.history, nil
}

// DetectPeriod returns the smallest p in [1, maxWindow] such that the last p
// rows equal the p rows immediately before them. It reports false when the
// history holds fewer than 2*maxWindow rows or no such p exists.
func (a *Automaton) DetectPeriod(maxWindow int) (int, bool) {
	return DetectPeriod(a.history, maxWindow)
}

// DetectPeriod is the history-level form of Automaton.DetectPeriod.
func DetectPeriod(history []Row, maxWindow int) (int, bool) {
	n := len(history)
	if maxWindow < 1 || n < 2*maxWindow {
		return 0, false
	}

	for p := 1; p <= maxWindow; p++ {
		repeats := true
		for i := 1; i <= p; i++ {
			if !history[n-i].Equal(history[n-i-p]) {
				repeats = false
				break
			}
		}
		if repeats {
			return p, true
		}
	}
	return 0, false
}

// Density returns the fraction of active cells in the current row.
func (a *Automaton) Density() float64 {
	return a.current.Density()
}

// Statistics is a snapshot of a run for reporting and export.
type Statistics struct {
	Rule           int      `json:"rule"`
	Generations    int      `json:"generations"` // rows recorded, initial row included
	Size           int      `json:"size"`
	Boundary       Boundary `json:"boundary"`
	InitialDensity float64  `json:"initial_density"`
	FinalDensity   float64  `json:"final_density"`
	MeanDensity    float64  `json:"mean_density"`
	MaxDensity     float64  `json:"max_density"`
	MinDensity     float64  `json:"min_density"`
	Period         *int     `json:"period"` // nil when no period was detected
}

// Statistics computes density figures over the whole history and the period
// found with the default window.
func (a *Automaton) Statistics() Statistics {
	stats := Statistics{
		Rule:        a.rule,
		Generations: len(a.history),
		Size:        a.size,
		Boundary:    a.boundary,
	}

	sum := 0.0
	for i, row := range a.history {
		d := row.Density()
		sum += d
		if i == 0 || d > stats.MaxDensity {
			stats.MaxDensity = d
		}
		if i == 0 || d < stats.MinDensity {
			stats.MinDensity = d
		}
	}
	stats.InitialDensity = a.history[0].Density()
	stats.FinalDensity = a.history[len(a.history)-1].Density()
	stats.MeanDensity = sum / float64(len(a.history))

	if p, ok := a.DetectPeriod(constants.DefaultPeriodWindow); ok {
		stats.Period = &p
	}
	return stats
}

// Rule returns the rule number.
func (a *Automaton) Rule() int { return a.rule }

// Size returns the number of cells per row.
func (a *Automaton) Size() int { return a.size }

// Boundary returns the boundary policy.
func (a *Automaton) Boundary() Boundary { return a.boundary }

// Table returns the derived rule table.
func (a *Automaton) Table() RuleTable { return a.table }

// Generation returns the number of steps taken since the last reset.
func (a *Automaton) Generation() int { return a.generation }

// Current returns a copy of the current row.
func (a *Automaton) Current() Row { return a.current.Clone() }

// History returns the recorded rows. The slice is shared with the automaton
// and must not be modified.
func (a *Automaton) History() []Row { return a.history }

// Matrix returns a deep copy of the history as integers, one slice per row.
func (a *Automaton) Matrix() [][]int {
	m := make([][]int, len(a.history))
	for i, row := range a.history {
		m[i] = row.Ints()
	}
	return m
}

// String renders the current row.
func (a *Automaton) String() string {
	return a.current.String()
}

// GoString describes the automaton for debugging output.
func (a *Automaton) GoString() string {
	return fmt.Sprintf("automaton.Automaton{rule: %d, size: %d, generation: %d}", a.rule, a.size, a.generation)
}
