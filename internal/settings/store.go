// Package settings persists site-wide flags in the site_settings key/value
// table. The only flags in use are the site lock and its timestamp.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mind-engage/feedbackbank/internal/db"
)

const (
	KeySiteLocked    = "site_locked"
	KeyLockTimestamp = "lock_timestamp"
)

// Lock is the site-lock state. LockTimestamp holds epoch millis as a string
// and is empty when the site has never been locked.
type Lock struct {
	Locked        bool   `json:"locked"`
	LockTimestamp string `json:"lockTimestamp,omitempty"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(dbh *sql.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: dbh, now: now}
}

// GetLock reads the lock flag. A missing row means unlocked.
func (s *Store) GetLock(ctx context.Context) (Lock, error) {
	v, _, err := get(ctx, s.db, KeySiteLocked)
	if err != nil {
		return Lock{}, fmt.Errorf("read %s: %w", KeySiteLocked, err)
	}
	ts, _, err := get(ctx, s.db, KeyLockTimestamp)
	if err != nil {
		return Lock{}, fmt.Errorf("read %s: %w", KeyLockTimestamp, err)
	}
	return Lock{Locked: v == "true", LockTimestamp: ts}, nil
}

// SetLock stores the flag. The timestamp is only rewritten when locking,
// so unlocking keeps the time of the last lock.
func (s *Store) SetLock(ctx context.Context, locked bool) (Lock, error) {
	now := s.now()
	var out Lock
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := set(ctx, tx, KeySiteLocked, strconv.FormatBool(locked), now); err != nil {
			return fmt.Errorf("write %s: %w", KeySiteLocked, err)
		}
		if locked {
			ms := strconv.FormatInt(now.UnixMilli(), 10)
			if err := set(ctx, tx, KeyLockTimestamp, ms, now); err != nil {
				return fmt.Errorf("write %s: %w", KeyLockTimestamp, err)
			}
			out = Lock{Locked: true, LockTimestamp: ms}
			return nil
		}
		ts, _, err := get(ctx, tx, KeyLockTimestamp)
		if err != nil {
			return fmt.Errorf("read %s: %w", KeyLockTimestamp, err)
		}
		out = Lock{Locked: false, LockTimestamp: ts}
		return nil
	})
	return out, err
}

type execQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, q execQueryer, key string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func set(ctx context.Context, q execQueryer, key, value string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, at.UTC().UnixNano())
	return err
}
