package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	pgGet = `SELECT value FROM kv_entries WHERE key = $1`
	pgSet = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	pgSetNX = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO NOTHING`
	pgDelete = `DELETE FROM kv_entries WHERE key = $1`
)

// postgresStore keeps records in the kv_entries table. Values must be valid JSON.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgres wraps an open pool; the kv_entries table comes from migrations.
func NewPostgres(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (p *postgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.GetContext(ctx, &value, pgGet, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return value, nil
}

func (p *postgresStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := p.db.ExecContext(ctx, pgSet, key, string(value)); err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}

func (p *postgresStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	res, err := p.db.ExecContext(ctx, pgSetNX, key, string(value))
	if err != nil {
		return false, fmt.Errorf("postgres setnx: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres setnx rows: %w", err)
	}
	return n == 1, nil
}

func (p *postgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, pgDelete, key); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

func (p *postgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *postgresStore) Close() error {
	return p.db.Close()
}
