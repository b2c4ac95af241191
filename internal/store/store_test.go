package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/depextract/internal/config"
	"github.com/dbsmedya/depextract/internal/convert"
	"github.com/dbsmedya/depextract/internal/extract"
	"github.com/dbsmedya/depextract/internal/logger"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.StoreConfig
		expected string
	}{
		{
			name: "basic DSN",
			cfg: &config.StoreConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "results",
				TLS:      "preferred",
			},
			expected: "root:secret@tcp(localhost:3306)/results?parseTime=true&tls=preferred",
		},
		{
			name: "DSN with TLS disabled",
			cfg: &config.StoreConfig{
				Host:     "db",
				Port:     3307,
				User:     "extract",
				Password: "p@ss",
				Database: "runs",
				TLS:      "disable",
			},
			expected: "extract:p@ss@tcp(db:3307)/runs?parseTime=true&tls=false",
		},
		{
			name: "DSN with TLS required",
			cfg: &config.StoreConfig{
				Host:     "db",
				Port:     3306,
				User:     "u",
				Database: "runs",
				TLS:      "required",
			},
			expected: "u:@tcp(db:3306)/runs?parseTime=true&tls=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildDSN(tt.cfg)
			if result != tt.expected {
				t.Errorf("BuildDSN() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestManager_NotConnected(t *testing.T) {
	m := NewManager(&config.StoreConfig{Host: "localhost", Port: 3306})
	assert.NoError(t, m.Close())
	assert.Error(t, m.Ping(context.Background()))
}

func TestManager_ConnectCanceled(t *testing.T) {
	m := NewManager(&config.StoreConfig{Host: "127.0.0.1", Port: 1, User: "u", Database: "d", TLS: "disable"})
	m.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Connect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to result store")
	assert.Nil(t, m.DB)
}

func TestNewResultStore_Validation(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	tests := []struct {
		name      string
		db        *sql.DB
		table     string
		expectErr bool
	}{
		{"valid", db, "extraction_results", false},
		{"nil db", nil, "extraction_results", true},
		{"injection attempt", db, "results; DROP TABLE x", true},
		{"backtick", db, "res`ults", true},
		{"empty", db, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewResultStore(tt.db, tt.table, logger.NewNop())
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "`extraction_results`", s.table)
		})
	}

	_, err := NewResultStore(db, "bad-name", nil)
	var invalid *InvalidIdentifierError
	assert.True(t, errors.As(err, &invalid))
}

func TestResultStore_InitializeTables(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	s, err := NewResultStore(db, "extraction_results", logger.NewNop())
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `extraction_results`").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, s.InitializeTables(context.Background()))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `extraction_results`").WillReturnError(assert.AnError)
	err = s.InitializeTables(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func sampleResult() *extract.Result {
	res := extract.FailedResult("6f1c9a52-0000-4000-8000-000000000001", 3, 7,
		config.DefaultExtraction(), convert.FieldNotFound, "m_x", errors.New("missing"))
	res.Metadata.Status = extract.StatusPartial
	res.CacheStatistics.CacheHits = 4
	res.CacheStatistics.CircularReferences = 1
	return res
}

func TestResultStore_Save(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	s, err := NewResultStore(db, "extraction_results", logger.NewNop())
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	res := sampleResult()
	payload := []byte(`{"run_id":"x"}`)

	mock.ExpectExec("INSERT INTO `extraction_results`").
		WithArgs(res.RunID, 3, 7, "partial", 1, 4, 1, 0, "00000000deadbeef", payload, fixed).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Save(context.Background(), res, "00000000deadbeef", payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_SaveError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	s, _ := NewResultStore(db, "extraction_results", logger.NewNop())
	mock.ExpectExec("INSERT INTO").WillReturnError(assert.AnError)

	err := s.Save(context.Background(), sampleResult(), "f", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResultStore_Latest(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	s, _ := NewResultStore(db, "extraction_results", logger.NewNop())
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	columns := []string{"run_id", "dep_id", "cycle_index", "status", "error_count", "cache_hits",
		"circular_references", "depth_exceeded", "fingerprint", "payload", "created_at"}
	mock.ExpectQuery("SELECT run_id, dep_id, cycle_index .* FROM `extraction_results` WHERE dep_id = \\? AND cycle_index = \\?").
		WithArgs(3, 7).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("run-1", 3, 7, "completed", 0, 2, 0, 1, "abcd", []byte("{}"), created))

	run, err := s.Latest(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, extract.StatusCompleted, run.Status)
	assert.Equal(t, 2, run.CacheHits)
	assert.Equal(t, 1, run.DepthExceeded)
	assert.Equal(t, []byte("{}"), run.Payload)
	assert.Equal(t, created, run.CreatedAt)

	mock.ExpectQuery("SELECT").WithArgs(9, 9).WillReturnError(sql.ErrNoRows)
	_, err = s.Latest(context.Background(), 9, 9)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
