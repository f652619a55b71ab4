package automaton

import (
	"fmt"
	"strings"
)

// Row is one generation: a fixed-length sequence of 0/1 cells.
type Row []uint8

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Equal reports whether two rows hold the same cells.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Ints converts the row to plain integers for serialization.
func (r Row) Ints() []int {
	out := make([]int, len(r))
	for i, c := range r {
		out[i] = int(c)
	}
	return out
}

// Active counts the cells set to 1.
func (r Row) Active() int {
	n := 0
	for _, c := range r {
		n += int(c)
	}
	return n
}

// Density returns the fraction of active cells. An empty row has density 0.
func (r Row) Density() float64 {
	if len(r) == 0 {
		return 0
	}
	return float64(r.Active()) / float64(len(r))
}

// String renders active cells as █ and inactive cells as ░.
func (r Row) String() string {
	var sb strings.Builder
	for _, c := range r {
		if c != 0 {
			sb.WriteString("█")
		} else {
			sb.WriteString("░")
		}
	}
	return sb.String()
}

// Bits renders the row as 0s and 1s, the inverse of ParseRow.
func (r Row) Bits() string {
	b := make([]byte, len(r))
	for i, c := range r {
		b[i] = '0' + c
	}
	return string(b)
}

// validate checks that every cell is 0 or 1.
func (r Row) validate() error {
	for i, c := range r {
		if c > 1 {
			return fmt.Errorf("cell %d has value %d, want 0 or 1: %w", i, c, ErrInvalidArgument)
		}
	}
	return nil
}

// RowFromInts builds a row from integer cells, rejecting anything but 0 and 1.
func RowFromInts(cells []int) (Row, error) {
	row := make(Row, len(cells))
	for i, c := range cells {
		if c != 0 && c != 1 {
			return nil, fmt.Errorf("cell %d has value %d, want 0 or 1: %w", i, c, ErrInvalidArgument)
		}
		row[i] = uint8(c)
	}
	return row, nil
}

// ParseRow parses a row written as digits ("10101") or comma separated ("1,0,1").
// Whitespace is ignored.
func ParseRow(s string) (Row, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil, fmt.Errorf("row is empty: %w", ErrInvalidArgument)
	}
	row := make(Row, len(s))
	for i, ch := range s {
		switch ch {
		case '0':
			row[i] = 0
		case '1':
			row[i] = 1
		default:
			return nil, fmt.Errorf("invalid cell %q at position %d: %w", ch, i, ErrInvalidArgument)
		}
	}
	return row, nil
}
