package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
)

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements ResultStore on a SQLite database file.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteStore opens or creates the database at dbPath, creating its
// directory if needed. An empty dbPath uses DefaultDBPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// SaveClassification stores result under key, replacing any previous entry.
func (s *SQLiteStore) SaveClassification(ctx context.Context, key classifier.Key, result classifier.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metrics sql.NullString
	if result.Metrics != nil {
		data, err := json.Marshal(result.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal metrics: %w", err)
		}
		metrics = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO classifications
			(rule, size, generations, boundary, use_literature, class, confidence, source, metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Rule, key.Size, key.Generations, string(key.Boundary), boolToInt(key.UseLiterature),
		int(result.Class), result.Confidence, string(result.Source), metrics,
		s.now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save classification for rule %d: %w", key.Rule, err)
	}
	return nil
}

// GetClassification returns the stored result for key, or nil if absent.
func (s *SQLiteStore) GetClassification(ctx context.Context, key classifier.Key) (*classifier.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT rule, size, generations, boundary, use_literature, class, confidence, source, metrics, created_at
		FROM classifications
		WHERE rule = ? AND size = ? AND generations = ? AND boundary = ? AND use_literature = ?`,
		key.Rule, key.Size, key.Generations, string(key.Boundary), boolToInt(key.UseLiterature),
	)

	c, err := scanClassification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification for rule %d: %w", key.Rule, err)
	}
	return &c.Result, nil
}

// ListClassifications returns stored classifications ordered by rule.
func (s *SQLiteStore) ListClassifications(ctx context.Context, class classifier.Class) ([]Classification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT rule, size, generations, boundary, use_literature, class, confidence, source, metrics, created_at
		FROM classifications`
	var args []any
	if class != classifier.ClassUnknown {
		query += ` WHERE class = ?`
		args = append(args, int(class))
	}
	query += ` ORDER BY rule, size, generations`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	defer rows.Close()

	var out []Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveRun records a run and returns its ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}

	var period sql.NullInt64
	if run.Period != nil {
		period = sql.NullInt64{Int64: int64(*run.Period), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, rule, size, boundary, generations, final_density, period, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Rule, run.Size, string(run.Boundary), run.Generations, run.FinalDensity, period,
		run.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, rule, size, boundary, generations, final_density, period, created_at
		FROM runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run       Run
			boundary  string
			period    sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(&run.ID, &run.Rule, &run.Size, &boundary, &run.Generations,
			&run.FinalDensity, &period, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Boundary = automaton.Boundary(boundary)
		if period.Valid {
			p := int(period.Int64)
			run.Period = &p
		}
		run.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClassification(row scanner) (Classification, error) {
	var (
		c         Classification
		boundary  string
		useLit    int
		class     int
		source    string
		metrics   sql.NullString
		createdAt string
	)
	if err := row.Scan(&c.Key.Rule, &c.Key.Size, &c.Key.Generations, &boundary, &useLit,
		&class, &c.Result.Confidence, &source, &metrics, &createdAt); err != nil {
		return Classification{}, err
	}

	c.Key.Boundary = automaton.Boundary(boundary)
	c.Key.UseLiterature = useLit != 0

	cl := classifier.Class(class)
	c.Result.Rule = c.Key.Rule
	c.Result.Class = cl
	c.Result.ClassName = cl.Name()
	c.Result.Description = cl.Description()
	c.Result.Source = classifier.Source(source)
	if metrics.Valid {
		var m classifier.Metrics
		if err := json.Unmarshal([]byte(metrics.String), &m); err != nil {
			return Classification{}, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
		c.Result.Metrics = &m
	}
	c.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
