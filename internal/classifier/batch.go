package classifier

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/ecalab/internal/constants"
)

// AllRules returns the rules 0 through 255.
func AllRules() []int {
	rules := make([]int, constants.RuleCount)
	for i := range rules {
		rules[i] = i
	}
	return rules
}

// ClassifyRules classifies each rule independently and returns one result per
// rule in input order. A rule that fails is recorded as an entry with class
// unknown and the error message; it never aborts the batch.
//
// With Workers > 1, rules run concurrently on a bounded pool. Each rule owns
// its automaton, so the output equals the sequential output. When ctx is
// cancelled no new rules are started and the remaining entries carry the
// context error.
func (c *Classifier) ClassifyRules(ctx context.Context, rules []int) []Result {
	return c.classifyBatch(ctx, rules, func(_ context.Context, rule int) (Result, error) {
		return c.Classify(rule)
	})
}

// classifyFunc classifies a single rule for a batch.
type classifyFunc func(ctx context.Context, rule int) (Result, error)

func (c *Classifier) classifyBatch(ctx context.Context, rules []int, classify classifyFunc) []Result {
	results := make([]Result, len(rules))
	started := make([]bool, len(rules))

	entry := func(rule int) Result {
		r, err := classify(ctx, rule)
		if err != nil {
			return errorEntry(rule, err)
		}
		return r
	}

	if c.cfg.Workers <= 1 {
		for i, rule := range rules {
			if ctx.Err() != nil {
				break
			}
			started[i] = true
			results[i] = entry(rule)
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(c.cfg.Workers)
		for i, rule := range rules {
			if ctx.Err() != nil {
				break
			}
			started[i] = true
			g.Go(func() error {
				results[i] = entry(rule)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, ok := range started {
		if !ok {
			results[i] = errorEntry(rules[i], ctx.Err())
		}
	}

	c.logger.Debug("batch classified", "rules", len(rules), "workers", c.cfg.Workers)
	return results
}

func errorEntry(rule int, err error) Result {
	return Result{
		Rule:        rule,
		Class:       ClassUnknown,
		ClassName:   ClassUnknown.Name(),
		Description: ClassUnknown.Description(),
		Error:       err.Error(),
	}
}

// Summary aggregates a batch by class.
type Summary struct {
	Total        int               `json:"total"`
	Counts       map[Class]int     `json:"counts"`
	Percentages  map[Class]float64 `json:"percentages"`
	RulesByClass map[Class][]int   `json:"rules_by_class"`
	Errors       int               `json:"errors"`
}

// Summarize counts results per class. Counts and percentages cover the four
// classes plus unknown; RulesByClass covers the four classes only.
func Summarize(results []Result) Summary {
	s := Summary{
		Total:        len(results),
		Counts:       make(map[Class]int, len(Classes)+1),
		Percentages:  make(map[Class]float64, len(Classes)+1),
		RulesByClass: make(map[Class][]int, len(Classes)),
	}

	s.Counts[ClassUnknown] = 0
	for _, class := range Classes {
		s.Counts[class] = 0
		s.RulesByClass[class] = []int{}
	}

	for _, r := range results {
		s.Counts[r.Class]++
		if r.Class != ClassUnknown {
			s.RulesByClass[r.Class] = append(s.RulesByClass[r.Class], r.Rule)
		}
		if r.Error != "" {
			s.Errors++
		}
	}

	for class, n := range s.Counts {
		if s.Total > 0 {
			s.Percentages[class] = float64(n) / float64(s.Total) * 100
		} else {
			s.Percentages[class] = 0
		}
	}
	return s
}

// Statistics classifies rules and summarizes the outcome. A nil rule set
// means all 256 rules.
func (c *Classifier) Statistics(ctx context.Context, rules []int) Summary {
	if rules == nil {
		rules = AllRules()
	}
	return Summarize(c.ClassifyRules(ctx, rules))
}
