package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TimurManjosov/segmentd/internal/rules"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the segments table if it does not exist. Called once
// at startup.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS segments (
			id          uuid        NOT NULL,
			key         text        NOT NULL,
			description text        NOT NULL DEFAULT '',
			condition   text        NOT NULL,
			env         text        NOT NULL,
			updated_at  timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (key, env)
		)`)
	return err
}

func (p *PostgresStore) ListSegments(ctx context.Context, env string) ([]rules.Segment, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, key, description, condition, env, updated_at
		 FROM segments WHERE env = $1 ORDER BY key`, env)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := make([]rules.Segment, 0)
	for rows.Next() {
		var s rules.Segment
		if err := rows.Scan(&s.ID, &s.Key, &s.Description, &s.Condition, &s.Env, &s.UpdatedAt); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (p *PostgresStore) GetSegment(ctx context.Context, key, env string) (*rules.Segment, error) {
	var s rules.Segment
	err := p.pool.QueryRow(ctx,
		`SELECT id, key, description, condition, env, updated_at
		 FROM segments WHERE key = $1 AND env = $2`, key, env).
		Scan(&s.ID, &s.Key, &s.Description, &s.Condition, &s.Env, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (p *PostgresStore) UpsertSegment(ctx context.Context, params UpsertParams) (*rules.Segment, error) {
	var s rules.Segment
	err := p.pool.QueryRow(ctx,
		`INSERT INTO segments (id, key, description, condition, env, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (key, env) DO UPDATE
		 SET description = EXCLUDED.description,
		     condition   = EXCLUDED.condition,
		     updated_at  = now()
		 RETURNING id, key, description, condition, env, updated_at`,
		uuid.NewString(), params.Key, params.Description, params.Condition, params.Env).
		Scan(&s.ID, &s.Key, &s.Description, &s.Condition, &s.Env, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *PostgresStore) DeleteSegment(ctx context.Context, key, env string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM segments WHERE key = $1 AND env = $2`, key, env)
	return err
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
