// Package store persists classification results and run summaries so callers
// can memoize classifications across processes.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
)

// Classification is a stored classifier result with the parameters that produced it.
type Classification struct {
	Key       classifier.Key    `json:"key"`
	Result    classifier.Result `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// Run summarizes one recorded evolution.
type Run struct {
	ID           string             `json:"id"`
	Rule         int                `json:"rule"`
	Size         int                `json:"size"`
	Boundary     automaton.Boundary `json:"boundary"`
	Generations  int                `json:"generations"` // rows recorded, initial row included
	FinalDensity float64            `json:"final_density"`
	Period       *int               `json:"period"`
	CreatedAt    time.Time          `json:"created_at"`
}

// NewRun summarizes the current state of a with a fresh ID.
func NewRun(a *automaton.Automaton) Run {
	stats := a.Statistics()
	return Run{
		ID:           uuid.NewString(),
		Rule:         stats.Rule,
		Size:         stats.Size,
		Boundary:     stats.Boundary,
		Generations:  stats.Generations,
		FinalDensity: stats.FinalDensity,
		Period:       stats.Period,
		CreatedAt:    time.Now().UTC(),
	}
}

// ResultStore defines the persistence operations for classifications and runs.
type ResultStore interface {
	classifier.Cache

	// ListClassifications returns stored classifications ordered by rule.
	// ClassUnknown lists every class.
	ListClassifications(ctx context.Context, class classifier.Class) ([]Classification, error)

	// SaveRun records a run and returns its ID, generating one if empty.
	SaveRun(ctx context.Context, run Run) (string, error)

	// ListRuns returns runs newest first. A limit <= 0 returns all runs.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Close() error
}
