// Package mcp provides an MCP (Model Context Protocol) server for ecalab.
package mcp

import (
	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
)

// InitialState selects the first row of a run. The zero value is a single
// active cell in the center.
type InitialState struct {
	Initial  string  `json:"initial,omitempty" jsonschema:"Initial state generator: impulse, block, periodic or random (default: impulse)"`
	State    string  `json:"state,omitempty" jsonschema:"Explicit first row as a string of 0s and 1s; overrides initial and size"`
	Position *int    `json:"position,omitempty" jsonschema:"Cell index for impulse or block start (default: centered)"`
	Width    int     `json:"width,omitempty" jsonschema:"Block width (block only)"`
	Pattern  string  `json:"pattern,omitempty" jsonschema:"Repeating pattern of 0s and 1s (periodic only)"`
	Density  float64 `json:"density,omitempty" jsonschema:"Probability a cell starts active, 0.0-1.0 (random only)"`
	Seed     uint64  `json:"seed,omitempty" jsonschema:"Random seed; equal seeds give equal rows (random only)"`
}

// EcaEvolveInput defines the input for the eca_evolve tool.
type EcaEvolveInput struct {
	Rule        int    `json:"rule" jsonschema:"Rule number, 0-255"`
	Size        int    `json:"size,omitempty" jsonschema:"Number of cells (default from config)"`
	Generations int    `json:"generations,omitempty" jsonschema:"Generations to evolve (default from config)"`
	Boundary    string `json:"boundary,omitempty" jsonschema:"Boundary policy: circular or fixed (default from config)"`
	IncludeRows bool   `json:"include_rows,omitempty" jsonschema:"Return every generation as a row string"`

	Init *InitialState `json:"init,omitempty" jsonschema:"First row of the run (default: single centered active cell)"`
}

// EcaEvolveOutput defines the output for the eca_evolve tool.
type EcaEvolveOutput struct {
	RunID      string               `json:"run_id,omitempty" jsonschema:"ID of the recorded run"`
	Statistics automaton.Statistics `json:"statistics" jsonschema:"Density and period statistics over the whole history"`
	Final      string               `json:"final" jsonschema:"Final row, 1 for active and 0 for inactive"`
	Rows       []string             `json:"rows,omitempty" jsonschema:"Every generation, initial row first (with include_rows)"`
	Message    string               `json:"message" jsonschema:"Human-readable result message"`
}

// EcaClassifyInput defines the input for the eca_classify tool.
type EcaClassifyInput struct {
	Rule          int   `json:"rule" jsonschema:"Rule number, 0-255"`
	Size          int   `json:"size,omitempty" jsonschema:"Row length of the analysis run (default from config)"`
	Generations   int   `json:"generations,omitempty" jsonschema:"Generations of the analysis run (default from config)"`
	UseLiterature *bool `json:"use_literature,omitempty" jsonschema:"Answer well-known rules from the literature table (default from config)"`
}

// EcaClassifyOutput defines the output for the eca_classify tool.
type EcaClassifyOutput struct {
	Result  classifier.Result `json:"result" jsonschema:"Classification of the rule"`
	Message string            `json:"message" jsonschema:"Human-readable result message"`
}

// EcaClassifyBatchInput defines the input for the eca_classify_batch tool.
type EcaClassifyBatchInput struct {
	Rules []int `json:"rules,omitempty" jsonschema:"Rules to classify (default: all 256)"`
}

// EcaClassifyBatchOutput defines the output for the eca_classify_batch tool.
type EcaClassifyBatchOutput struct {
	Results []classifier.Result `json:"results" jsonschema:"One entry per requested rule, in request order"`
	Summary EcaSummaryOutput    `json:"summary" jsonschema:"Per-class totals for the batch"`
}

// EcaSummaryInput defines the input for the eca_summary tool.
type EcaSummaryInput struct {
	Rules []int `json:"rules,omitempty" jsonschema:"Rules to summarize (default: all 256)"`
}

// EcaSummaryOutput defines the output for the eca_summary tool.
type EcaSummaryOutput struct {
	Total   int            `json:"total" jsonschema:"Number of rules summarized"`
	Errors  int            `json:"errors" jsonschema:"Rules that could not be classified"`
	Classes []ClassSummary `json:"classes" jsonschema:"Totals per class, class 1 first, unknown last"`
	Message string         `json:"message" jsonschema:"Human-readable summary"`
}

// ClassSummary is one class line of a summary.
type ClassSummary struct {
	Class      int     `json:"class"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Rules      []int   `json:"rules,omitempty"`
}

// EcaRuleTableInput defines the input for the eca_rule_table tool.
type EcaRuleTableInput struct {
	Rule int `json:"rule" jsonschema:"Rule number, 0-255"`
}

// EcaRuleTableOutput defines the output for the eca_rule_table tool.
type EcaRuleTableOutput struct {
	Rule            int                    `json:"rule"`
	Binary          string                 `json:"binary" jsonschema:"Outputs for 111 down to 000"`
	Entries         []automaton.TableEntry `json:"entries" jsonschema:"Neighborhood to output mapping, 111 first"`
	LiteratureClass int                    `json:"literature_class,omitempty" jsonschema:"Published Wolfram class, if the rule is well known"`
}

// EcaExportInput defines the input for the eca_export tool.
type EcaExportInput struct {
	Rule        int    `json:"rule" jsonschema:"Rule number, 0-255"`
	Size        int    `json:"size,omitempty" jsonschema:"Number of cells (default from config)"`
	Generations int    `json:"generations,omitempty" jsonschema:"Generations to evolve (default from config)"`
	Boundary    string `json:"boundary,omitempty" jsonschema:"Boundary policy: circular or fixed (default from config)"`
	Format      string `json:"format,omitempty" jsonschema:"Output format: json, csv, v2 or arrow (default: json)"`
	Path        string `json:"path,omitempty" jsonschema:"Output file; must be inside an allowed export directory (default: generated under ~/.ecalab/exports)"`

	Init *InitialState `json:"init,omitempty" jsonschema:"First row of the run (default: single centered active cell)"`
}

// EcaExportOutput defines the output for the eca_export tool.
type EcaExportOutput struct {
	Path        string `json:"path" jsonschema:"File written"`
	Format      string `json:"format"`
	RunID       string `json:"run_id"`
	Generations int    `json:"generations" jsonschema:"Rows written, initial row included"`
	SizeBytes   int64  `json:"size_bytes"`
	Message     string `json:"message" jsonschema:"Human-readable result message"`
}
