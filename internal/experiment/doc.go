// Package experiment runs the named studies ecalab ships with: the effect of
// initial states, convergence, local patterns, fractal dimension, timing,
// sampled classification and symmetry.
//
// Each scenario evolves real automata through the engine and the analysis
// package and returns a structured Report. A Runner can record every run it
// evolves in a store.ResultStore.
//
// Usage:
//
//	r := experiment.NewRunner(experiment.Options{Store: results})
//	report, err := r.Run(ctx, "convergence")
//	if err != nil {
//	    return err
//	}
//	for _, line := range report.Result.Lines() {
//	    fmt.Println(line)
//	}
package experiment
