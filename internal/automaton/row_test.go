package automaton

import (
	"errors"
	"testing"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		input   string
		want    Row
		wantErr bool
	}{
		{"10101", Row{1, 0, 1, 0, 1}, false},
		{"1,0,1", Row{1, 0, 1}, false},
		{" 1 1 0 ", Row{1, 1, 0}, false},
		{"", nil, true},
		{"10201", nil, true},
		{"abc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRow(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("ParseRow(%q) error = %v, want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRow(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseRow(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRowFromInts(t *testing.T) {
	row, err := RowFromInts([]int{0, 1, 1})
	if err != nil {
		t.Fatalf("RowFromInts() error = %v", err)
	}
	if !row.Equal(Row{0, 1, 1}) {
		t.Errorf("RowFromInts() = %v", row)
	}
	if _, err := RowFromInts([]int{0, -1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("RowFromInts(-1) error = %v, want ErrInvalidArgument", err)
	}
}

func TestRow_String(t *testing.T) {
	if got := (Row{1, 0, 1}).String(); got != "█░█" {
		t.Errorf("String() = %q, want %q", got, "█░█")
	}
}

func TestRow_BitsRoundTrip(t *testing.T) {
	row := Row{0, 1, 1, 0, 1}
	if got := row.Bits(); got != "01101" {
		t.Errorf("Bits() = %q, want %q", got, "01101")
	}
	parsed, err := ParseRow(row.Bits())
	if err != nil {
		t.Fatalf("ParseRow() error = %v", err)
	}
	if !parsed.Equal(row) {
		t.Errorf("ParseRow(Bits()) = %v, want %v", parsed, row)
	}
}

func TestParseBoundary(t *testing.T) {
	tests := []struct {
		input string
		want  Boundary
		err   bool
	}{
		{"", BoundaryCircular, false},
		{"circular", BoundaryCircular, false},
		{"FIXED", BoundaryFixed, false},
		{"wrap", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBoundary(tt.input)
		if tt.err {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseBoundary(%q) error = %v, want ErrInvalidArgument", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseBoundary(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
		}
	}
}
