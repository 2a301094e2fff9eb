package redlock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const defaultPostgresTable = "redlock_locks"

// PostgresStore implements Store on a PostgreSQL table with one row per
// locked resource. Expired rows are overwritten in place by the next
// acquirer, so no sweeper is needed.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTable sets the lock table name. Default "redlock_locks".
func WithTable(name string) PostgresOption {
	return func(s *PostgresStore) {
		s.table = name
	}
}

func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:    db,
		table: defaultPostgresTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the lock table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	resource   TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`, pq.QuoteIdentifier(s.table))

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create lock table: %w", err)
	}

	return nil
}

// SetIfAbsent implements Store.SetIfAbsent. An expired row counts as absent.
func (s *PostgresStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	table := pq.QuoteIdentifier(s.table)
	query := fmt.Sprintf(`INSERT INTO %s (resource, token, expires_at)
VALUES ($1, $2, now() + $3 * interval '1 millisecond')
ON CONFLICT (resource) DO UPDATE
SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
WHERE %s.expires_at <= now()`, table, table)

	res, err := s.db.ExecContext(ctx, query, key, value, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	return affectedOne(res)
}

// CompareAndDelete implements Store.CompareAndDelete. An expired row is
// never deleted on behalf of its former owner.
func (s *PostgresStore) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE resource = $1 AND token = $2 AND expires_at > now()`,
		pq.QuoteIdentifier(s.table))

	res, err := s.db.ExecContext(ctx, query, key, value)
	if err != nil {
		return false, fmt.Errorf("failed to release lock: %w", err)
	}

	return affectedOne(res)
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d rows affected", ErrUnexpectedReply, n)
	}
}
