package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sharederrors "github.com/EckhartOSB/feedmbox/internal/shared/errors"
	"github.com/samber/oops"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	defaultRetryAttempts = 60
	defaultRetryInterval = 5 * time.Second
)

// SQLite implements Repository on a single-file SQLite database. The
// expected contention is another short-lived feedmbox run holding the
// write lock, so busy errors are retried on a fixed poll interval
// until a bounded budget runs out.
type SQLite struct {
	db            *sql.DB
	retryAttempts int
	retryInterval time.Duration
}

type Option func(*SQLite)

// WithRetryPolicy overrides the lock contention budget.
func WithRetryPolicy(attempts int, interval time.Duration) Option {
	return func(s *SQLite) {
		s.retryAttempts = attempts
		s.retryInterval = interval
	}
}

// Open opens the ledger at path, creating the file and its schema on
// first use. Safe to call on every run.
func Open(path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.With("database", path, "context", "opening ledger").Wrap(err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{
		db:            db,
		retryAttempts: defaultRetryAttempts,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	// The driver must surface SQLITE_BUSY immediately so the poll
	// loop owns the waiting.
	if _, err := db.Exec("PRAGMA busy_timeout=0"); err != nil {
		db.Close()
		return nil, oops.With("database", path, "context", "disabling driver busy wait").Wrap(err)
	}

	err = s.withRetry(context.Background(), func() error {
		_, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
			guid TEXT NOT NULL PRIMARY KEY
		)`)
		return err
	})
	if err != nil {
		db.Close()
		return nil, oops.With("database", path, "context", "creating ledger schema").Wrap(err)
	}

	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Contains reports whether guid was previously inserted.
func (s *SQLite) Contains(ctx context.Context, guid string) (bool, error) {
	var found bool
	err := s.withRetry(ctx, func() error {
		var g string
		err := s.db.QueryRowContext(ctx, `SELECT guid FROM history WHERE guid = ?`, guid).Scan(&g)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, oops.With("guid", guid, "context", "reading ledger").Wrap(err)
	}
	return found, nil
}

// Insert records guid as seen. Returns ErrDuplicateGUID if it is
// already present; the table's primary key is the real uniqueness
// guarantee, not any prior Contains check.
func (s *SQLite) Insert(ctx context.Context, guid string) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO history (guid) VALUES (?)`, guid)
		return err
	})
	if isConstraint(err) {
		return oops.With("guid", guid).Wrap(sharederrors.ErrDuplicateGUID)
	}
	if err != nil {
		return oops.With("guid", guid, "context", "writing ledger").Wrap(err)
	}
	return nil
}

// withRetry runs op, polling while the database is locked by another
// writer. Exhausting the budget yields ErrLockTimeout.
func (s *SQLite) withRetry(ctx context.Context, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !isBusy(err) {
			return err
		}
		if attempt >= s.retryAttempts {
			return oops.With("attempts", s.retryAttempts, "interval", s.retryInterval).
				Wrap(sharederrors.ErrLockTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryInterval):
		}
	}
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
