// Package initstate generates initial rows for Automaton.Reset.
package initstate

import (
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/ecalab/internal/automaton"
)

// Center places the active cell or block in the middle of the row.
const Center = -1

// Impulse returns a row of n cells with a single active cell at pos.
// Pass Center for the middle cell (n/2).
func Impulse(n, pos int) (automaton.Row, error) {
	if n < 1 {
		return nil, fmt.Errorf("impulse size %d: %w", n, automaton.ErrInvalidArgument)
	}
	if pos == Center {
		pos = n / 2
	}
	if pos < 0 || pos >= n {
		return nil, fmt.Errorf("impulse position %d outside [0,%d): %w", pos, n, automaton.ErrInvalidArgument)
	}

	row := make(automaton.Row, n)
	row[pos] = 1
	return row, nil
}

// Block returns a row with width consecutive active cells starting at pos.
// Pass Center to center the block. The block is clipped at the row end.
func Block(n, width, pos int) (automaton.Row, error) {
	if n < 1 {
		return nil, fmt.Errorf("block size %d: %w", n, automaton.ErrInvalidArgument)
	}
	if width < 0 || width > n {
		return nil, fmt.Errorf("block width %d outside [0,%d]: %w", width, n, automaton.ErrInvalidArgument)
	}
	if pos == Center {
		pos = (n - width) / 2
	}
	if pos < 0 || pos >= n {
		return nil, fmt.Errorf("block position %d outside [0,%d): %w", pos, n, automaton.ErrInvalidArgument)
	}

	row := make(automaton.Row, n)
	end := min(pos+width, n)
	for i := pos; i < end; i++ {
		row[i] = 1
	}
	return row, nil
}

// Periodic returns a row of n cells repeating pattern from the left edge.
func Periodic(n int, pattern []int) (automaton.Row, error) {
	if n < 1 {
		return nil, fmt.Errorf("periodic size %d: %w", n, automaton.ErrInvalidArgument)
	}
	if len(pattern) == 0 {
		return nil, fmt.Errorf("empty periodic pattern: %w", automaton.ErrInvalidArgument)
	}
	unit, err := automaton.RowFromInts(pattern)
	if err != nil {
		return nil, fmt.Errorf("periodic pattern: %w", err)
	}

	row := make(automaton.Row, n)
	for i := range row {
		row[i] = unit[i%len(unit)]
	}
	return row, nil
}

// Random returns a row where each cell is active with probability density.
// The same seed always produces the same row.
func Random(n int, density float64, seed uint64) (automaton.Row, error) {
	if n < 1 {
		return nil, fmt.Errorf("random size %d: %w", n, automaton.ErrInvalidArgument)
	}
	if density < 0 || density > 1 {
		return nil, fmt.Errorf("density %v outside [0,1]: %w", density, automaton.ErrInvalidArgument)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	row := make(automaton.Row, n)
	for i := range row {
		if rng.Float64() < density {
			row[i] = 1
		}
	}
	return row, nil
}

// Kind names a generator for command-line and tool callers.
type Kind string

const (
	KindImpulse  Kind = "impulse"
	KindBlock    Kind = "block"
	KindPeriodic Kind = "periodic"
	KindRandom   Kind = "random"
)

// Params selects and parameterizes a generator.
type Params struct {
	Kind     Kind
	Position int
	Width    int
	Pattern  []int
	Density  float64
	Seed     uint64
}

// Generate dispatches to the generator named by p.Kind.
func Generate(n int, p Params) (automaton.Row, error) {
	switch p.Kind {
	case KindImpulse, "":
		return Impulse(n, p.Position)
	case KindBlock:
		return Block(n, p.Width, p.Position)
	case KindPeriodic:
		return Periodic(n, p.Pattern)
	case KindRandom:
		return Random(n, p.Density, p.Seed)
	default:
		return nil, fmt.Errorf("unknown initial state %q: %w", p.Kind, automaton.ErrInvalidArgument)
	}
}
