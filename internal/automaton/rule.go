package automaton

import (
	"fmt"
	"strings"

	"github.com/nvandessel/ecalab/internal/constants"
)

// Neighborhood is the (left, center, right) triple a cell's next state depends on.
type Neighborhood struct {
	Left   uint8 `json:"left"`
	Center uint8 `json:"center"`
	Right  uint8 `json:"right"`
}

// Index packs the triple into 0-7 as left<<2 | center<<1 | right.
func (n Neighborhood) Index() int {
	return int(n.Left)<<2 | int(n.Center)<<1 | int(n.Right)
}

// String renders the triple as three digits, e.g. "110".
func (n Neighborhood) String() string {
	return fmt.Sprintf("%d%d%d", n.Left, n.Center, n.Right)
}

// Triples lists the eight neighborhoods in Wolfram's display order.
// The i-th triple is governed by bit i of the rule number counted from the MSB.
var Triples = [8]Neighborhood{
	{1, 1, 1}, {1, 1, 0}, {1, 0, 1}, {1, 0, 0},
	{0, 1, 1}, {0, 1, 0}, {0, 0, 1}, {0, 0, 0},
}

// RuleTable maps each packed neighborhood index to the output bit.
type RuleTable [8]uint8

// TableEntry is one row of a rule table in display order.
type TableEntry struct {
	Neighborhood Neighborhood `json:"neighborhood"`
	Output       uint8        `json:"output"`
}

// ValidateRule checks that rule is an elementary rule number.
func ValidateRule(rule int) error {
	if rule < 0 || rule > constants.MaxRule {
		return fmt.Errorf("rule must be between 0 and %d, got %d: %w", constants.MaxRule, rule, ErrInvalidArgument)
	}
	return nil
}

// NewRuleTable derives the lookup table for rule.
// Packed index k of the neighborhood selects bit k of the rule, which puts
// (1,1,1) on the most significant bit.
func NewRuleTable(rule int) (RuleTable, error) {
	var t RuleTable
	if err := ValidateRule(rule); err != nil {
		return t, err
	}
	for k := range t {
		t[k] = uint8((rule >> k) & 1)
	}
	return t, nil
}

// Lookup returns the next state for a neighborhood.
func (t RuleTable) Lookup(n Neighborhood) uint8 {
	return t[n.Index()]
}

// Entries returns the table in display order, (1,1,1) first.
func (t RuleTable) Entries() []TableEntry {
	entries := make([]TableEntry, len(Triples))
	for i, n := range Triples {
		entries[i] = TableEntry{Neighborhood: n, Output: t.Lookup(n)}
	}
	return entries
}

// Binary returns the outputs in display order as an 8-character string.
// For rule 30 this is "00011110".
func (t RuleTable) Binary() string {
	var sb strings.Builder
	for _, n := range Triples {
		sb.WriteByte('0' + t.Lookup(n))
	}
	return sb.String()
}

// Rule reconstructs the rule number the table was derived from.
func (t RuleTable) Rule() int {
	rule := 0
	for k, bit := range t {
		rule |= int(bit) << k
	}
	return rule
}
