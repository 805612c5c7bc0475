package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect holds the statements that differ between SQL engines
type Dialect struct {
	Name   string
	Schema string
	Select string
	Upsert string
}

var (
	SQLite = Dialect{
		Name: "sqlite",
		Schema: `CREATE TABLE IF NOT EXISTS store_blobs (
	name TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`,
		Select: `SELECT payload FROM store_blobs WHERE name = ?`,
		Upsert: `INSERT INTO store_blobs (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
	}

	Postgres = Dialect{
		Name: "postgres",
		Schema: `CREATE TABLE IF NOT EXISTS store_blobs (
	name TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);`,
		Select: `SELECT payload FROM store_blobs WHERE name = $1`,
		Upsert: `INSERT INTO store_blobs (name, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
	}
)

// OpenSQLite opens a SQLite database file
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenPostgres opens a PostgreSQL pool
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// SQLPersister keeps blobs in a single key/value table
type SQLPersister struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLPersister creates the blob table if needed
func NewSQLPersister(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLPersister, error) {
	p := &SQLPersister{db: db, dialect: dialect, now: time.Now}
	if err := p.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *SQLPersister) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, p.dialect.Schema); err != nil {
		return fmt.Errorf("%s migrate: %w", p.dialect.Name, err)
	}
	return nil
}

func (p *SQLPersister) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := p.db.QueryRowContext(ctx, p.dialect.Select, key).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s load %s: %w", p.dialect.Name, key, err)
	}
	return []byte(payload), nil
}

func (p *SQLPersister) Save(ctx context.Context, key string, value []byte) error {
	if _, err := p.db.ExecContext(ctx, p.dialect.Upsert, key, string(value), p.now().UTC()); err != nil {
		return fmt.Errorf("%s save %s: %w", p.dialect.Name, key, err)
	}
	return nil
}

// SaveAll upserts every blob in one transaction
func (p *SQLPersister) SaveAll(ctx context.Context, blobs []Blob) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s begin: %w", p.dialect.Name, err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := p.now().UTC()
	for _, b := range blobs {
		if _, err := tx.ExecContext(ctx, p.dialect.Upsert, b.Key, string(b.Value), now); err != nil {
			return fmt.Errorf("%s save %s: %w", p.dialect.Name, b.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s commit: %w", p.dialect.Name, err)
	}
	committed = true
	return nil
}

func (p *SQLPersister) Close() error {
	return p.db.Close()
}
