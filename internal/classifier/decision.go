package classifier

import "github.com/nvandessel/ecalab/internal/constants"

// Decision is the outcome of the decision table, with the branch that fired.
type Decision struct {
	Class      Class   `json:"class"`
	Confidence float64 `json:"confidence"`
	Branch     string  `json:"branch"`
}

// Decide maps metrics to a class and confidence. The branches are evaluated
// in order and the first match wins; every input reaches exactly one branch.
//
// Only strict and quasi periods count as periodic here. A long exact period
// falls through to the complexity and stability branches.
func Decide(m Metrics) Decision {
	switch {
	case m.Homogeneity > constants.HomogeneousThreshold && m.Stability > constants.HomogeneousStability:
		return Decision{ClassHomogeneous, constants.ConfidenceHomogeneous, "homogeneous"}

	case m.Periodicity.IsPeriodic && (m.Periodicity.Kind == PeriodStrict || m.Periodicity.Kind == PeriodQuasi):
		return Decision{ClassPeriodic, constants.ConfidencePeriodic, "periodic"}

	case m.Complexity > constants.ComplexityThreshold:
		if m.Stability < constants.ChaoticStabilityMax {
			return Decision{ClassChaotic, constants.ConfidenceChaotic, "complex_unstable"}
		}
		return Decision{ClassComplex, constants.ConfidenceComplex, "complex_stable"}

	case m.Stability > constants.FallbackStabilityMin:
		return Decision{ClassPeriodic, constants.ConfidenceFallback, "fallback_stable"}

	default:
		return Decision{ClassChaotic, constants.ConfidenceFallback, "fallback_unstable"}
	}
}
