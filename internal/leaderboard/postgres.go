package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    score INTEGER NOT NULL CHECK (score >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores(score DESC, created_at ASC);
`

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Submit inserts a new score row.
func (s *PostgresStore) Submit(ctx context.Context, entry ScoreEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scores (id, name, score, created_at) VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.Name, entry.Score, entry.CreatedAt)
	return err
}

// Top returns the highest scores, earliest first on ties.
func (s *PostgresStore) Top(ctx context.Context, limit int) ([]ScoreEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, score, created_at
		 FROM scores ORDER BY score DESC, created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanEntry)
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanEntry(row pgx.CollectableRow) (ScoreEntry, error) {
	var e ScoreEntry
	err := row.Scan(&e.ID, &e.Name, &e.Score, &e.CreatedAt)
	return e, err
}
