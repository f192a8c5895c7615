package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p := &Postgres{pool: pool}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS dataset_blobs (
            bucket     TEXT        NOT NULL,
            name       TEXT        NOT NULL,
            data       BYTEA       NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (bucket, name)
        )
    `)
	return err
}

func (p *Postgres) Get(ctx context.Context, key Key) ([]byte, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `
        SELECT data
        FROM dataset_blobs
        WHERE bucket = $1 AND name = $2
    `, key.Bucket, key.Name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Postgres) Put(ctx context.Context, key Key, data []byte) error {
	_, err := p.pool.Exec(ctx, `
        INSERT INTO dataset_blobs (bucket, name, data, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (bucket, name)
        DO UPDATE SET data = EXCLUDED.data,
                      updated_at = NOW()
    `, key.Bucket, key.Name, data)
	return err
}

// WrittenAt reports the updated_at column for key.
func (p *Postgres) WrittenAt(ctx context.Context, key Key) (time.Time, error) {
	var ts time.Time
	err := p.pool.QueryRow(ctx, `
        SELECT updated_at FROM dataset_blobs WHERE bucket = $1 AND name = $2
    `, key.Bucket, key.Name).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return ts.UTC(), err
}
