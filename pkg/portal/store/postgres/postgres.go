package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/portal-content/pkg/portal"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements portal.Store on a PostgreSQL key/value table
type Store struct {
	db    DBTX
	pool  *pgxpool.Pool
	table string
}

var _ portal.Store = (*Store)(nil)

// DefaultTable is the table used when none is configured
const DefaultTable = "portal_kv"

// New creates a new PostgreSQL store over an existing connection or transaction
func New(db DBTX, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, table: table}
}

// NewWithPool creates a new PostgreSQL store that owns the pool
func NewWithPool(pool *pgxpool.Pool, table string) *Store {
	s := New(pool, table)
	s.pool = pool
	return s
}

// Connect opens a pool for databaseURL, optionally pinning search_path to
// schema, and makes sure the table exists.
func Connect(ctx context.Context, databaseURL, schema, table string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	store := NewWithPool(pool, table)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// EnsureSchema creates the key/value table if it is missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.ident())
	if _, err := s.db.Exec(ctx, query); err != nil {
		return s.handlePostgresError("ensure schema", err)
	}
	return nil
}

// Error handling helper
func (s *Store) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("table %s does not exist - run EnsureSchema", s.table)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.ident())

	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, s.handlePostgresError("get", err)
	}
	return value, nil
}

// Put upserts the value for key
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, s.ident())

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return s.handlePostgresError("put", err)
	}
	return nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.ident())
	if _, err := s.db.Exec(ctx, query, key); err != nil {
		return s.handlePostgresError("delete", err)
	}
	return nil
}

// Close releases the pool when the store owns one
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
