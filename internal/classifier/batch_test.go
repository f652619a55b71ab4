package classifier

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestClassifyRules_ParallelMatchesSequential(t *testing.T) {
	rules := make([]int, 48)
	for i := range rules {
		rules[i] = i * 5
	}

	cfg := Config{Size: 31, Generations: 60, UseLiterature: false}
	sequential := New(cfg).ClassifyRules(context.Background(), rules)

	cfg.Workers = 4
	parallel := New(cfg).ClassifyRules(context.Background(), rules)

	if !reflect.DeepEqual(sequential, parallel) {
		t.Error("parallel batch differs from sequential batch")
	}
	for i, r := range parallel {
		if r.Rule != rules[i] {
			t.Fatalf("result %d has rule %d, want %d", i, r.Rule, rules[i])
		}
	}
}

func TestClassifyRules_IsolatesFailures(t *testing.T) {
	c := New(DefaultConfig())

	results := c.ClassifyRules(context.Background(), []int{30, 300, 110})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if results[1].Error == "" {
		t.Error("rule 300 should produce an error entry")
	}
	if results[1].Class != ClassUnknown {
		t.Errorf("error entry class = %v, want unknown", results[1].Class)
	}
	if results[1].Rule != 300 {
		t.Errorf("error entry rule = %d, want 300", results[1].Rule)
	}
	if results[0].Class != ClassChaotic || results[2].Class != ClassComplex {
		t.Errorf("neighbors of the failure = %v, %v, want class 3 and class 4", results[0].Class, results[2].Class)
	}
}

func TestClassifyRules_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		c := New(Config{Workers: workers})
		results := c.ClassifyRules(ctx, []int{0, 1, 2})
		for _, r := range results {
			if r.Error != context.Canceled.Error() {
				t.Errorf("workers=%d rule %d error = %q, want %q", workers, r.Rule, r.Error, context.Canceled.Error())
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Rule: 0, Class: ClassHomogeneous},
		{Rule: 8, Class: ClassHomogeneous},
		{Rule: 4, Class: ClassPeriodic},
		{Rule: 30, Class: ClassChaotic},
		{Rule: 300, Class: ClassUnknown, Error: "invalid"},
	}

	s := Summarize(results)
	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
	if s.Counts[ClassHomogeneous] != 2 {
		t.Errorf("Counts[1] = %d, want 2", s.Counts[ClassHomogeneous])
	}
	if s.Counts[ClassComplex] != 0 {
		t.Errorf("Counts[4] = %d, want 0", s.Counts[ClassComplex])
	}
	if s.Percentages[ClassHomogeneous] != 40 {
		t.Errorf("Percentages[1] = %v, want 40", s.Percentages[ClassHomogeneous])
	}
	if s.Percentages[ClassUnknown] != 20 {
		t.Errorf("Percentages[0] = %v, want 20", s.Percentages[ClassUnknown])
	}
	if !reflect.DeepEqual(s.RulesByClass[ClassHomogeneous], []int{0, 8}) {
		t.Errorf("RulesByClass[1] = %v, want [0 8]", s.RulesByClass[ClassHomogeneous])
	}
	if len(s.RulesByClass[ClassComplex]) != 0 {
		t.Errorf("RulesByClass[4] = %v, want empty", s.RulesByClass[ClassComplex])
	}
	if s.Errors != 1 {
		t.Errorf("Errors = %d, want 1", s.Errors)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Percentages[ClassChaotic] != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}

func TestStatistics_AllRules(t *testing.T) {
	c := New(Config{Size: 21, Generations: 40, UseLiterature: true, Workers: 8})

	s := c.Statistics(context.Background(), nil)
	if s.Total != 256 {
		t.Fatalf("Total = %d, want 256", s.Total)
	}
	sum := 0
	for _, n := range s.Counts {
		sum += n
	}
	if sum != 256 {
		t.Errorf("sum of counts = %d, want 256", sum)
	}
	if s.Counts[ClassUnknown] != 0 {
		t.Errorf("Counts[unknown] = %d, want 0", s.Counts[ClassUnknown])
	}
}

type mapCache struct {
	mu    sync.Mutex
	data  map[Key]Result
	gets  int
	saves int
	fail  bool
}

func (m *mapCache) GetClassification(_ context.Context, key Key) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.fail {
		return nil, errors.New("cache offline")
	}
	r, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *mapCache) SaveClassification(_ context.Context, key Key, result Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.fail {
		return errors.New("cache offline")
	}
	m.data[key] = result
	return nil
}

func TestMemoized(t *testing.T) {
	cache := &mapCache{data: map[Key]Result{}}
	m := NewMemoized(New(Config{Size: 41, Generations: 80}), cache)
	ctx := context.Background()

	first, err := m.ClassifyRule(ctx, 0, 41, 80, false)
	if err != nil {
		t.Fatalf("ClassifyRule() error = %v", err)
	}
	second, err := m.ClassifyRule(ctx, 0, 41, 80, false)
	if err != nil {
		t.Fatalf("ClassifyRule() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result = %+v, want %+v", second, first)
	}
	if cache.saves != 1 {
		t.Errorf("saves = %d, want 1", cache.saves)
	}

	if _, err := m.ClassifyRule(ctx, 30, 41, 80, true); err != nil {
		t.Fatalf("ClassifyRule() error = %v", err)
	}
	if cache.gets != 2 {
		t.Errorf("gets = %d, want 2 (literature answers bypass the cache)", cache.gets)
	}
}

func TestMemoized_CacheFailure(t *testing.T) {
	cache := &mapCache{data: map[Key]Result{}, fail: true}
	m := NewMemoized(New(DefaultConfig()), cache)

	got, err := m.ClassifyRule(context.Background(), 0, 31, 40, false)
	if err != nil {
		t.Fatalf("ClassifyRule() error = %v, want cache failure ignored", err)
	}
	if got.Class != ClassHomogeneous {
		t.Errorf("Class = %v, want %v", got.Class, ClassHomogeneous)
	}
}

func TestMemoized_NilCache(t *testing.T) {
	m := NewMemoized(New(DefaultConfig()), nil)
	if _, err := m.Classify(context.Background(), 110); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
}

func TestMemoized_ClassifyRules(t *testing.T) {
	cache := &mapCache{data: map[Key]Result{}}
	m := NewMemoized(New(Config{Size: 41, Generations: 80}), cache)
	ctx := context.Background()

	results := m.ClassifyRules(ctx, []int{42, 42, 0})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if !reflect.DeepEqual(results[0], results[1]) {
		t.Errorf("repeated rule = %+v, want %+v", results[1], results[0])
	}
	if cache.gets != 3 {
		t.Errorf("gets = %d, want 3", cache.gets)
	}
	if cache.saves != 2 {
		t.Errorf("saves = %d, want 2 (second 42 is a hit)", cache.saves)
	}

	s := m.Statistics(ctx, []int{42, 0})
	if s.Total != 2 {
		t.Errorf("Total = %d, want 2", s.Total)
	}
	if cache.gets != 5 {
		t.Errorf("gets = %d, want 5", cache.gets)
	}
	if cache.saves != 2 {
		t.Errorf("saves = %d, want 2 (statistics served from cache)", cache.saves)
	}
}

func TestMemoized_ClassifyRulesParallel(t *testing.T) {
	cache := &mapCache{data: map[Key]Result{}}
	m := NewMemoized(New(Config{Size: 31, Generations: 40, Workers: 4}), cache)

	rules := []int{42, 43, 44, 46, 47, 48}
	results := m.ClassifyRules(context.Background(), rules)
	for i, r := range results {
		if r.Rule != rules[i] {
			t.Errorf("results[%d].Rule = %d, want %d", i, r.Rule, rules[i])
		}
	}
	if cache.saves != len(rules) {
		t.Errorf("saves = %d, want %d", cache.saves, len(rules))
	}
}
