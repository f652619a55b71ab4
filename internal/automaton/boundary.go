package automaton

import (
	"fmt"
	"strings"
)

// Boundary selects how edge cells resolve their missing neighbors.
type Boundary string

const (
	BoundaryCircular Boundary = "circular" // neighbors wrap modulo the row length
	BoundaryFixed    Boundary = "fixed"    // missing neighbors read as 0
)

// Valid reports whether b is a recognized boundary policy.
func (b Boundary) Valid() bool {
	return b == BoundaryCircular || b == BoundaryFixed
}

// ParseBoundary maps a name to a Boundary (case-insensitive).
// An empty string selects circular.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BoundaryCircular):
		return BoundaryCircular, nil
	case string(BoundaryFixed):
		return BoundaryFixed, nil
	default:
		return "", fmt.Errorf("boundary must be %q or %q, got %q: %w", BoundaryCircular, BoundaryFixed, s, ErrInvalidArgument)
	}
}

// NeighborhoodAt returns the (left, center, right) triple for position in row.
func NeighborhoodAt(position int, row Row, boundary Boundary) (Neighborhood, error) {
	n := len(row)
	if position < 0 || position >= n {
		return Neighborhood{}, fmt.Errorf("position %d outside row of length %d: %w", position, n, ErrInvalidArgument)
	}

	var left, right uint8
	switch boundary {
	case BoundaryCircular:
		left = row[(position-1+n)%n]
		right = row[(position+1)%n]
	case BoundaryFixed:
		if position > 0 {
			left = row[position-1]
		}
		if position < n-1 {
			right = row[position+1]
		}
	default:
		return Neighborhood{}, fmt.Errorf("unknown boundary %q: %w", boundary, ErrInvalidArgument)
	}

	return Neighborhood{Left: left, Center: row[position], Right: right}, nil
}
