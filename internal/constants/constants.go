// Package constants provides named constants used throughout the ecalab codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Grid and run defaults
const (
	// DefaultSize is the default number of cells in a row.
	DefaultSize = 101

	// DefaultGenerations is the default number of evolution steps for a run.
	DefaultGenerations = 200

	// DefaultPeriodWindow is the largest period Statistics looks for.
	DefaultPeriodWindow = 20

	// MaxRule is the highest elementary rule number.
	MaxRule = 255

	// RuleCount is the number of elementary rules.
	RuleCount = MaxRule + 1
)

// Metric window constants
const (
	// HomogeneityWindow is the number of trailing rows averaged for homogeneity.
	// Homogeneity and stability both need at least this many rows.
	HomogeneityWindow = 10

	// MaxBinaryVariance is the largest variance a 0/1 row can have.
	MaxBinaryVariance = 0.25

	// AnalysisPeriodWindow is the exact-period window used by the classifier.
	AnalysisPeriodWindow = 50

	// StrictPeriodMax is the largest exact period tagged "strict".
	StrictPeriodMax = 5

	// QuasiMinRows is the row count the history must exceed before
	// quasi-periodicity is attempted.
	QuasiMinRows = 20

	// QuasiRequiredRows is the minimum row count for the correlation scan itself.
	QuasiRequiredRows = 40

	// QuasiWindow is the number of trailing rows scanned for quasi-periodicity.
	QuasiWindow = 30

	// QuasiMinPeriod and QuasiMaxPeriod bound the candidate periods (inclusive).
	QuasiMinPeriod = 2
	QuasiMaxPeriod = 14

	// QuasiCorrelationThreshold is the mean correlation a candidate must exceed.
	QuasiCorrelationThreshold = 0.8
)

// Decision thresholds. Branches are evaluated in order; the first match wins.
const (
	// HomogeneousThreshold and HomogeneousStability gate class 1.
	HomogeneousThreshold = 0.9
	HomogeneousStability = 0.8

	// ComplexityThreshold separates classes 3/4 from the fallback branch.
	ComplexityThreshold = 0.3

	// ChaoticStabilityMax is the stability below which high complexity is chaotic.
	ChaoticStabilityMax = 0.4

	// FallbackStabilityMin is the stability above which ambiguous rules are periodic.
	FallbackStabilityMin = 0.6
)

// Confidence values per decision branch
const (
	ConfidenceLiterature  = 1.0
	ConfidenceHomogeneous = 0.9
	ConfidencePeriodic    = 0.85
	ConfidenceChaotic     = 0.7
	ConfidenceComplex     = 0.6
	ConfidenceFallback    = 0.5
)

// Convergence analysis
const (
	// ConvergenceWindow is the upper bound on trailing rows that must be identical.
	ConvergenceWindow = 10
)

// Fractal analysis

// BoxSizes are the box edge lengths used for box-counting dimension.
var BoxSizes = []int{2, 4, 8, 16, 32}

// Pattern analysis
const (
	// DefaultPatternWindow is the local pattern width when none is given.
	DefaultPatternWindow = 3
)

// MCP tool limits
const (
	// MaxToolSize is the largest row length an MCP client may request.
	MaxToolSize = 4096

	// MaxToolGenerations is the most generations an MCP client may request.
	MaxToolGenerations = 4096

	// MaxToolCells bounds size * (generations + 1) for a single tool call.
	MaxToolCells = 1 << 20
)
