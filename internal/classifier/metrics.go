package classifier

import (
	"math"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/constants"
)

// PeriodKind tags how a period was found.
type PeriodKind string

const (
	PeriodStrict    PeriodKind = "strict"    // exact period <= 5
	PeriodLong      PeriodKind = "long"      // exact period > 5
	PeriodQuasi     PeriodKind = "quasi"     // found by row correlation
	PeriodAperiodic PeriodKind = "aperiodic" // nothing found
)

// Periodicity describes the periodic behavior found in a history.
type Periodicity struct {
	Period     *int       `json:"period"`
	IsPeriodic bool       `json:"is_periodic"`
	Kind       PeriodKind `json:"kind"`
}

// Metrics bundles the four signals the decision table reads.
type Metrics struct {
	Homogeneity float64     `json:"homogeneity"`
	Periodicity Periodicity `json:"periodicity"`
	Complexity  float64     `json:"complexity"`
	Stability   float64     `json:"stability"`
}

// ComputeMetrics extracts all metrics from a recorded history.
func ComputeMetrics(history []automaton.Row) Metrics {
	return Metrics{
		Homogeneity: Homogeneity(history),
		Periodicity: AnalyzePeriodicity(history),
		Complexity:  Complexity(history),
		Stability:   Stability(history),
	}
}

// Homogeneity is 1 minus the mean row variance over the last rows, normalized
// by the largest variance a binary row can have. Fewer than 10 rows yield 0.
func Homogeneity(history []automaton.Row) float64 {
	if len(history) < constants.HomogeneityWindow {
		return 0
	}

	tail := history[len(history)-constants.HomogeneityWindow:]
	sum := 0.0
	for _, row := range tail {
		sum += variance(row)
	}
	mean := sum / float64(len(tail))

	return 1 - math.Min(mean/constants.MaxBinaryVariance, 1)
}

// AnalyzePeriodicity tries exact detection first and falls back to
// correlation-based quasi-periodicity on longer histories.
func AnalyzePeriodicity(history []automaton.Row) Periodicity {
	if p, ok := automaton.DetectPeriod(history, constants.AnalysisPeriodWindow); ok {
		kind := PeriodStrict
		if p > constants.StrictPeriodMax {
			kind = PeriodLong
		}
		return Periodicity{Period: &p, IsPeriodic: true, Kind: kind}
	}

	if len(history) > constants.QuasiMinRows {
		if p, ok := QuasiPeriod(history); ok {
			return Periodicity{Period: &p, IsPeriodic: true, Kind: PeriodQuasi}
		}
	}

	return Periodicity{Kind: PeriodAperiodic}
}

// QuasiPeriod looks for the smallest candidate period whose rows correlate
// strongly with the rows one period later, over the trailing window.
// Correlations that are undefined (a constant row) are skipped.
func QuasiPeriod(history []automaton.Row) (int, bool) {
	if len(history) < constants.QuasiRequiredRows {
		return 0, false
	}

	tail := history[len(history)-constants.QuasiWindow:]
	for period := constants.QuasiMinPeriod; period <= constants.QuasiMaxPeriod; period++ {
		sum := 0.0
		count := 0
		for i := 0; i+period < len(tail); i++ {
			corr := correlation(tail[i], tail[i+period])
			if math.IsNaN(corr) {
				continue
			}
			sum += corr
			count++
		}
		if count > 0 && sum/float64(count) > constants.QuasiCorrelationThreshold {
			return period, true
		}
	}
	return 0, false
}

// Complexity is the standard deviation of the fraction of cells that change
// between consecutive rows. With a single transition it is that transition's
// fraction. The result is capped at 1; fewer than 2 rows yield 0.
func Complexity(history []automaton.Row) float64 {
	if len(history) < 2 {
		return 0
	}

	changes := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		n := len(history[i])
		if n == 0 {
			continue
		}
		diff := 0
		for j := 0; j < n && j < len(history[i-1]); j++ {
			if history[i][j] != history[i-1][j] {
				diff++
			}
		}
		changes = append(changes, float64(diff)/float64(n))
	}

	if len(changes) == 0 {
		return 0
	}
	var c float64
	if len(changes) == 1 {
		c = changes[0]
	} else {
		c = stddev(changes)
	}
	return math.Min(c, 1)
}

// Stability compares the mean density of the first and second halves of the
// history: 1 means no drift. Fewer than 10 rows yield 0.
func Stability(history []automaton.Row) float64 {
	if len(history) < constants.HomogeneityWindow {
		return 0
	}

	mid := len(history) / 2
	first := meanDensity(history[:mid])
	second := meanDensity(history[mid:])

	return 1 - math.Min(math.Abs(first-second), 1)
}

func meanDensity(rows []automaton.Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += r.Density()
	}
	return sum / float64(len(rows))
}

// variance is the population variance of a row's cells.
func variance(row automaton.Row) float64 {
	if len(row) == 0 {
		return 0
	}
	mean := row.Density()
	sum := 0.0
	for _, c := range row {
		d := float64(c) - mean
		sum += d * d
	}
	return sum / float64(len(row))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// correlation is the Pearson correlation coefficient of two rows.
// It is NaN when either row is constant or the lengths differ.
func correlation(a, b automaton.Row) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}
	ma, mb := a.Density(), b.Density()

	var cov, va, vb float64
	for i := range a {
		da := float64(a[i]) - ma
		db := float64(b[i]) - mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(va*vb)
}
