// Package store wraps db.Querier with transaction support and groups the
// multi-step operations that must execute atomically: login with first-login
// registration, result submission with schedule updates, Telegram
// registration and the consistent snapshot the HR rollup is computed from.
//
// Single-query reads (GetUserByEmployeeID, ListChatMessages, etc.) should be
// called directly on db.Querier via Q(); there is no value in proxying them
// through this package.
//
// Dependency rule: store imports db, auth, scoring and stats only. It never
// imports api, reminder, telegram, advisor or email.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
)

// ─── ERRORS ───────────────────────────────────────────────────────────────────

var (
	// ErrUserNotFound is returned when an operation names an unknown employee.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrInvalidCredentials is returned by LoginOrRegister for a wrong password.
	ErrInvalidCredentials = errors.New("store: invalid credentials")

	// ErrNoTestResults is returned when an employee has never taken the test.
	ErrNoTestResults = errors.New("store: no test results")
)

// ─── STORE ────────────────────────────────────────────────────────────────────

// Config holds the scheduling intervals applied by the write operations.
type Config struct {
	// RetestInterval is added to the submission time to get next_test_date.
	RetestInterval time.Duration
	// TipInterval schedules the first wellness tip after Telegram registration.
	TipInterval time.Duration
}

// DefaultConfig returns a 30-day retest and 3-day tip cadence.
func DefaultConfig() Config {
	return Config{
		RetestInterval: 30 * 24 * time.Hour,
		TipInterval:    3 * 24 * time.Hour,
	}
}

// Store holds a *sql.DB for starting transactions and a db.Querier for
// executing queries outside of transactions.
type Store struct {
	// pool is the raw connection pool, used only to begin transactions.
	pool *sql.DB

	// q is the Querier used for non-transactional calls.
	q db.Querier

	cfg Config
	now func() time.Time
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (e.g. via PingContext) before calling New.
func New(pool *sql.DB, q db.Querier, cfg Config) *Store {
	def := DefaultConfig()
	if cfg.RetestInterval <= 0 {
		cfg.RetestInterval = def.RetestInterval
	}
	if cfg.TipInterval <= 0 {
		cfg.TipInterval = def.TipInterval
	}
	return &Store{pool: pool, q: q, cfg: cfg, now: time.Now}
}

// Q exposes the underlying Querier so callers (handlers, bot, reminder
// runner) can run single-query reads without going through a store method.
//
//	user, err := st.Q().GetUserByEmployeeID(ctx, id)
func (s *Store) Q() db.Querier {
	return s.q
}

// Config returns the scheduling intervals in use.
func (s *Store) Config() Config {
	return s.cfg
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.PingContext(ctx)
}

// txQuerier is a function that receives a transactional Querier and returns an
// error. Returning a non-nil error causes withTx to roll back automatically.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx runs fn in a serializable transaction. Every write operation here is
// read-then-write (does the user exist, is a password already set).
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	return s.inTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// withReadTx runs fn in a read-only repeatable-read transaction so that
// several reads observe one snapshot.
func (s *Store) withReadTx(ctx context.Context, fn txQuerier) error {
	return s.inTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

// inTx begins a transaction, passes a Querier scoped to that transaction to
// fn, and commits on success or rolls back on any error (including panics).
func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txQ := s.q.(*db.Queries).WithTx(tx)

	if err := fn(ctx, txQ); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to sentinel and wraps everything else.
func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
