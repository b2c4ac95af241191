package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/depextract/internal/extract"
)

// ErrLockTimeout is returned when another writer holds the selector lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// DefaultLockTimeout is the GET_LOCK wait in seconds used by SaveLocked.
const DefaultLockTimeout = 5

// SelectorLock is a MySQL named lock scoped to one dep/cycle selector.
// GET_LOCK is connection-bound, so the lock pins a single pooled connection
// from Acquire until Release.
type SelectorLock struct {
	db   *sql.DB
	conn *sql.Conn
	name string
}

// LockName builds the lock name for a selector in table.
// MySQL limits lock names to 64 characters.
func LockName(table string, depID, cycleIndex int) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, table)
	name := fmt.Sprintf("depextract:%s:%d:%d", sanitized, depID, cycleIndex)
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

// NewSelectorLock creates an unacquired lock.
func NewSelectorLock(db *sql.DB, name string) *SelectorLock {
	return &SelectorLock{db: db, name: name}
}

// Name returns the lock name.
func (l *SelectorLock) Name() string {
	return l.name
}

// IsHeld reports whether Acquire succeeded and Release has not run.
func (l *SelectorLock) IsHeld() bool {
	return l.conn != nil
}

// Acquire waits up to timeoutSeconds for the lock. It returns false without
// error when the wait expires.
//
// GET_LOCK returns 1 on success, 0 on timeout and NULL on error.
func (l *SelectorLock) Acquire(ctx context.Context, timeoutSeconds int) (bool, error) {
	if l.conn != nil {
		return true, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reserve connection for lock %q: %w", l.name, err)
	}

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", l.name, timeoutSeconds).Scan(&result); err != nil {
		_ = conn.Close()
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		_ = conn.Close()
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", l.name)
	}

	switch result.Int64 {
	case 1:
		l.conn = conn
		return true, nil
	case 0:
		_ = conn.Close()
		return false, nil
	default:
		_ = conn.Close()
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release frees the lock and returns its connection to the pool.
// Releasing an unheld lock is a no-op.
func (l *SelectorLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil
	defer func() { _ = conn.Close() }()

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", l.name).Scan(&result); err != nil {
		return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid || result.Int64 != 1 {
		return fmt.Errorf("lock %q was not held by this connection", l.name)
	}
	return nil
}

// WithLock runs fn while holding the lock. The lock is released even if fn
// panics; release uses a fresh context so a canceled ctx still unlocks.
func (l *SelectorLock) WithLock(ctx context.Context, timeoutSeconds int, fn func() error) (err error) {
	acquired, err := l.Acquire(ctx, timeoutSeconds)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another writer", ErrLockTimeout, l.name)
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if releaseErr := l.Release(releaseCtx); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	return fn()
}

// SaveLocked stores res while holding the lock for its selector, so two
// writers for the same dep and cycle cannot interleave.
func (s *ResultStore) SaveLocked(ctx context.Context, res *extract.Result, fingerprint string, payload []byte) error {
	lock := NewSelectorLock(s.db, LockName(s.name, res.DepID, res.CycleIndex))
	return lock.WithLock(ctx, DefaultLockTimeout, func() error {
		return s.Save(ctx, res, fingerprint, payload)
	})
}
