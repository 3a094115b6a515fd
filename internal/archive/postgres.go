package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/ganitha/internal/question"
)

// PostgresStore keeps papers in the generated_papers table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on a migrated database.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, paper question.Paper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper %s: %w", paper.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO generated_papers (paper_id, generated_at, total, paper)
		 VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (paper_id) DO UPDATE
		 SET generated_at = EXCLUDED.generated_at, total = EXCLUDED.total, paper = EXCLUDED.paper`,
		paper.ID, paper.GeneratedAt, paper.Total(), string(data),
	)
	if err != nil {
		return fmt.Errorf("save paper %s: %w", paper.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (question.Paper, error) {
	return s.one(ctx, `SELECT paper FROM generated_papers WHERE paper_id = $1`, id)
}

func (s *PostgresStore) Latest(ctx context.Context) (question.Paper, error) {
	return s.one(ctx, `SELECT paper FROM generated_papers ORDER BY generated_at DESC, paper_id DESC LIMIT 1`)
}

func (s *PostgresStore) one(ctx context.Context, query string, args ...any) (question.Paper, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return question.Paper{}, ErrNotFound
		}
		return question.Paper{}, fmt.Errorf("load paper: %w", err)
	}
	var paper question.Paper
	if err := json.Unmarshal(data, &paper); err != nil {
		return question.Paper{}, fmt.Errorf("decode paper: %w", err)
	}
	return paper, nil
}
