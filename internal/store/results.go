package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dbsmedya/depextract/internal/extract"
	"github.com/dbsmedya/depextract/internal/logger"
)

// ErrNotFound is returned by Latest when no run matches.
var ErrNotFound = errors.New("no stored result")

const createResultsTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	run_id CHAR(36) NOT NULL,
	dep_id INT NOT NULL,
	cycle_index INT NOT NULL,
	status VARCHAR(16) NOT NULL,
	error_count INT NOT NULL DEFAULT 0,
	cache_hits INT NOT NULL DEFAULT 0,
	circular_references INT NOT NULL DEFAULT 0,
	depth_exceeded INT NOT NULL DEFAULT 0,
	fingerprint CHAR(16) NOT NULL,
	payload LONGBLOB NOT NULL,
	created_at TIMESTAMP(6) NOT NULL,
	UNIQUE KEY uk_run (run_id),
	INDEX idx_selector (dep_id, cycle_index, created_at)
) ENGINE=InnoDB;
`

// Run is one stored extraction.
type Run struct {
	RunID              string
	DepID              int
	CycleIndex         int
	Status             extract.Status
	ErrorCount         int
	CacheHits          int
	CircularReferences int
	DepthExceeded      int
	Fingerprint        string
	Payload            []byte
	CreatedAt          time.Time
}

// ResultStore reads and writes extraction runs.
type ResultStore struct {
	db     *sql.DB
	name   string
	table  string // quoted
	logger *logger.Logger
	now    func() time.Time
}

// NewResultStore creates a store over db using the named table.
func NewResultStore(db *sql.DB, table string, log *logger.Logger) (*ResultStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &ResultStore{
		db:     db,
		name:   table,
		table:  quoted,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// InitializeTables creates the results table if it doesn't exist.
// It is idempotent and safe to call on every run.
func (s *ResultStore) InitializeTables(ctx context.Context) error {
	s.logger.Debug("Initializing result table")
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createResultsTableSQL, s.table)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}
	return nil
}

// Save inserts one run. payload is the encoded result document.
func (s *ResultStore) Save(ctx context.Context, res *extract.Result, fingerprint string, payload []byte) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (run_id, dep_id, cycle_index, status, error_count, cache_hits, circular_references, depth_exceeded, fingerprint, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.table)

	_, err := s.db.ExecContext(ctx, query,
		res.RunID,
		res.DepID,
		res.CycleIndex,
		string(res.Metadata.Status),
		len(res.Errors),
		res.CacheStatistics.CacheHits,
		res.CacheStatistics.CircularReferences,
		res.CacheStatistics.DepthExceeded,
		fingerprint,
		payload,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", res.RunID, err)
	}

	s.logger.Infow("Stored extraction result", "run_id", res.RunID, "fingerprint", fingerprint)
	return nil
}

// Latest returns the most recent run for a selector, or ErrNotFound.
func (s *ResultStore) Latest(ctx context.Context, depID, cycleIndex int) (*Run, error) {
	query := fmt.Sprintf(
		"SELECT run_id, dep_id, cycle_index, status, error_count, cache_hits, circular_references, depth_exceeded, fingerprint, payload, created_at FROM %s WHERE dep_id = ? AND cycle_index = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		s.table)

	var run Run
	var status string
	err := s.db.QueryRowContext(ctx, query, depID, cycleIndex).Scan(
		&run.RunID, &run.DepID, &run.CycleIndex, &status,
		&run.ErrorCount, &run.CacheHits, &run.CircularReferences, &run.DepthExceeded,
		&run.Fingerprint, &run.Payload, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w for dep %d cycle %d", ErrNotFound, depID, cycleIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest run: %w", err)
	}
	run.Status = extract.Status(status)
	return &run, nil
}

var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// InvalidIdentifierError is returned when a table name contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}

// quoteIdentifier validates a table name and quotes it with backticks.
func quoteIdentifier(name string) (string, error) {
	if !validIdentifierRegex.MatchString(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`", nil
}
