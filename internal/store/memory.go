package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/ecalab/internal/classifier"
)

// InMemoryStore implements ResultStore for testing and one-off runs.
type InMemoryStore struct {
	mu              sync.RWMutex
	classifications map[classifier.Key]Classification
	runs            []Run
	now             func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		classifications: make(map[classifier.Key]Classification),
		now:             time.Now,
	}
}

// SaveClassification stores result under key.
func (s *InMemoryStore) SaveClassification(ctx context.Context, key classifier.Key, result classifier.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classifications[key] = Classification{Key: key, Result: storedResult(key, result), CreatedAt: s.now().UTC()}
	return nil
}

// GetClassification returns the stored result for key, or nil if absent.
func (s *InMemoryStore) GetClassification(ctx context.Context, key classifier.Key) (*classifier.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.classifications[key]
	if !ok {
		return nil, nil
	}
	r := cloneResult(c.Result)
	return &r, nil
}

// ListClassifications returns stored classifications ordered by rule.
func (s *InMemoryStore) ListClassifications(ctx context.Context, class classifier.Class) ([]Classification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Classification
	for _, c := range s.classifications {
		if class == classifier.ClassUnknown || c.Result.Class == class {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		return a.Generations < b.Generations
	})
	return out, nil
}

// SaveRun records a run and returns its ID.
func (s *InMemoryStore) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	s.runs = append(s.runs, run)
	return run.ID, nil
}

// ListRuns returns runs newest first.
func (s *InMemoryStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Run, len(s.runs))
	copy(out, s.runs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// storedResult reduces result to what the SQLite schema keeps: the rule comes
// from key, names are derived from the class and batch errors are not stored.
func storedResult(key classifier.Key, result classifier.Result) classifier.Result {
	r := cloneResult(result)
	r.Rule = key.Rule
	r.ClassName = r.Class.Name()
	r.Description = r.Class.Description()
	r.Error = ""
	return r
}

func cloneResult(r classifier.Result) classifier.Result {
	if r.Metrics != nil {
		m := *r.Metrics
		if m.Periodicity.Period != nil {
			p := *m.Periodicity.Period
			m.Periodicity.Period = &p
		}
		r.Metrics = &m
	}
	return r
}

var (
	_ ResultStore = (*InMemoryStore)(nil)
	_ ResultStore = (*SQLiteStore)(nil)
)
