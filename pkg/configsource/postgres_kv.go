package configsource

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS dkn_kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const postgresSchemaTimeout = 10 * time.Second

// PostgresKV stores values in the dkn_kv table.
type PostgresKV struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewPostgresKV(ctx context.Context, dsn string) (*PostgresKV, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newPostgresKV(db), nil
}

func newPostgresKV(db *sql.DB) *PostgresKV {
	return &PostgresKV{db: db}
}

// ensureSchema creates the table on first use. A failed attempt is retried
// by the next call; the DDL does not inherit the caller's cancellation.
func (p *PostgresKV) ensureSchema(ctx context.Context) error {
	p.schemaMu.Lock()
	defer p.schemaMu.Unlock()
	if p.schemaReady {
		return nil
	}
	ddlCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postgresSchemaTimeout)
	defer cancel()
	if _, err := p.db.ExecContext(ddlCtx, postgresSchema); err != nil {
		return err
	}
	p.schemaReady = true
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return "", err
	}
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM dkn_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string) error {
	if err := p.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO dkn_kv (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key)
DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`, key, value)
	return err
}

func (p *PostgresKV) Close() error {
	return p.db.Close()
}
