package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/depextract/internal/logger"
)

func lockRows(v any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"result"}).AddRow(v)
}

func TestLockName(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		dep      int
		cycle    int
		expected string
	}{
		{"plain", "extraction_results", 3, 7, "depextract:extraction_results:3:7"},
		{"strips punctuation", "res`ults;x", 0, 1, "depextract:resultsx:0:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LockName(tt.table, tt.dep, tt.cycle))
		})
	}

	long := LockName(strings.Repeat("t", 100), 1, 2)
	assert.Len(t, long, 64)
}

func TestSelectorLock_AcquireRelease(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	l := NewSelectorLock(db, "depextract:t:1:2")
	mock.ExpectQuery("SELECT GET_LOCK").WithArgs("depextract:t:1:2", 5).WillReturnRows(lockRows(1))
	mock.ExpectQuery("SELECT RELEASE_LOCK").WithArgs("depextract:t:1:2").WillReturnRows(lockRows(1))

	ok, err := l.Acquire(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.IsHeld())

	// Re-acquiring a held lock does not query again.
	ok, err = l.Acquire(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Release(context.Background()))
	assert.False(t, l.IsHeld())
	assert.NoError(t, l.Release(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectorLock_AcquireResults(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		acquired  bool
		expectErr bool
	}{
		{"timeout", 0, false, false},
		{"null", nil, false, true},
		{"unexpected", 7, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, _ := sqlmock.New()
			defer func() { _ = db.Close() }()

			mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(tt.value))

			l := NewSelectorLock(db, "n")
			ok, err := l.Acquire(context.Background(), 1)
			assert.Equal(t, tt.acquired, ok)
			assert.False(t, l.IsHeld())
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelectorLock_WithLock(t *testing.T) {
	t.Run("runs fn and releases", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))
		mock.ExpectQuery("SELECT RELEASE_LOCK").WillReturnRows(lockRows(1))

		called := false
		err := NewSelectorLock(db, "n").WithLock(context.Background(), 1, func() error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("held elsewhere", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(0))

		err := NewSelectorLock(db, "n").WithLock(context.Background(), 1, func() error {
			t.Fatal("fn must not run without the lock")
			return nil
		})
		assert.ErrorIs(t, err, ErrLockTimeout)
	})

	t.Run("fn error wins over release", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))
		mock.ExpectQuery("SELECT RELEASE_LOCK").WillReturnRows(lockRows(0))

		boom := errors.New("boom")
		err := NewSelectorLock(db, "n").WithLock(context.Background(), 1, func() error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("release failure surfaces", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))
		mock.ExpectQuery("SELECT RELEASE_LOCK").WillReturnRows(lockRows(nil))

		err := NewSelectorLock(db, "n").WithLock(context.Background(), 1, func() error { return nil })
		assert.Error(t, err)
	})
}

func TestResultStore_SaveLocked(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	s, err := NewResultStore(db, "extraction_results", logger.NewNop())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT GET_LOCK").WithArgs("depextract:extraction_results:3:7", DefaultLockTimeout).
		WillReturnRows(lockRows(1))
	mock.ExpectExec("INSERT INTO `extraction_results`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT RELEASE_LOCK").WillReturnRows(lockRows(1))

	require.NoError(t, s.SaveLocked(context.Background(), sampleResult(), "abcd", []byte("{}")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
