package classifier

import (
	"context"

	"github.com/nvandessel/ecalab/internal/automaton"
)

// Key identifies a classification by every parameter that can change it.
type Key struct {
	Rule          int
	Size          int
	Generations   int
	Boundary      automaton.Boundary
	UseLiterature bool
}

// Cache persists classification results between calls.
// GetClassification returns (nil, nil) on a miss.
type Cache interface {
	GetClassification(ctx context.Context, key Key) (*Result, error)
	SaveClassification(ctx context.Context, key Key, result Result) error
}

// Memoized serves classifications from a cache and fills it on a miss.
// Cache failures are logged and never fail the classification.
type Memoized struct {
	*Classifier
	cache Cache
}

// NewMemoized wraps c with cache. A nil cache disables memoization.
func NewMemoized(c *Classifier, cache Cache) *Memoized {
	return &Memoized{Classifier: c, cache: cache}
}

// ClassifyRule behaves like Classifier.ClassifyRule, consulting the cache first.
// Literature answers are not cached.
func (m *Memoized) ClassifyRule(ctx context.Context, rule, size, generations int, useLookup bool) (Result, error) {
	if useLookup {
		if _, ok := LiteratureClass(rule); ok {
			return m.Classifier.ClassifyRule(rule, size, generations, useLookup)
		}
	}
	if m.cache == nil {
		return m.Classifier.ClassifyRule(rule, size, generations, useLookup)
	}

	key := Key{
		Rule:          rule,
		Size:          size,
		Generations:   generations,
		Boundary:      m.cfg.Boundary,
		UseLiterature: useLookup,
	}

	cached, err := m.cache.GetClassification(ctx, key)
	if err != nil {
		m.logger.Warn("classification cache read failed", "rule", rule, "error", err)
	} else if cached != nil {
		m.logger.Debug("classification cache hit", "rule", rule)
		return *cached, nil
	}

	result, err := m.Classifier.ClassifyRule(rule, size, generations, useLookup)
	if err != nil {
		return Result{}, err
	}

	if err := m.cache.SaveClassification(ctx, key, result); err != nil {
		m.logger.Warn("classification cache write failed", "rule", rule, "error", err)
	}
	return result, nil
}

// Classify classifies rule with the configured parameters through the cache.
func (m *Memoized) Classify(ctx context.Context, rule int) (Result, error) {
	return m.ClassifyRule(ctx, rule, m.cfg.Size, m.cfg.Generations, m.cfg.UseLiterature)
}

// ClassifyRules behaves like Classifier.ClassifyRules with every rule served
// through the cache.
func (m *Memoized) ClassifyRules(ctx context.Context, rules []int) []Result {
	return m.classifyBatch(ctx, rules, m.Classify)
}

// Statistics behaves like Classifier.Statistics with every rule served
// through the cache.
func (m *Memoized) Statistics(ctx context.Context, rules []int) Summary {
	if rules == nil {
		rules = AllRules()
	}
	return Summarize(m.ClassifyRules(ctx, rules))
}
