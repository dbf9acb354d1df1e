package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"hotelstay/internal/adapters/observability"
)

type Dialect string

const (
	SQLite Dialect = "sqlite3"
	MySQL  Dialect = "mysql"
)

// Repo is a durable KV backed by a single database table.
type Repo struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, d Dialect) *Repo { return &Repo{db: db, dialect: d} }

// OpenSQLite opens (creating if needed) the on-device database file.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open(string(SQLite), path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer keeps sqlite happy
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}

func (r *Repo) Migrate(ctx context.Context) error {
	schema := sqliteSchemaSQL
	if r.dialect == MySQL {
		schema = mysqlSchemaSQL
	}
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *Repo) backend() string { return string(r.dialect) }

func (r *Repo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, getSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveStorage(r.backend(), "miss")
		return "", false, nil
	}
	if err != nil {
		observability.ObserveStorage(r.backend(), "error")
		return "", false, err
	}
	observability.ObserveStorage(r.backend(), "hit")
	return v, true, nil
}

func (r *Repo) Set(ctx context.Context, key, value string) error {
	stmt := sqliteUpsertSQL
	if r.dialect == MySQL {
		stmt = mysqlUpsertSQL
	}
	observability.ObserveStorage(r.backend(), "set")
	_, err := r.db.ExecContext(ctx, stmt, key, value)
	return err
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	observability.ObserveStorage(r.backend(), "del")
	_, err := r.db.ExecContext(ctx, deleteSQL, key)
	return err
}
