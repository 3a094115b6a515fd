package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS generated_papers (
	paper_id     TEXT PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	total        INTEGER NOT NULL,
	paper        JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS generated_papers_generated_at_idx
	ON generated_papers (generated_at DESC);

CREATE TABLE IF NOT EXISTS generation_events (
	id            BIGSERIAL PRIMARY KEY,
	job_id        TEXT NOT NULL DEFAULT '',
	question_type TEXT NOT NULL DEFAULT '',
	event_type    TEXT NOT NULL,
	data          JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS generation_events_job_id_idx
	ON generation_events (job_id);
`

// Migrate creates the tables the service writes to. It is safe to run on
// every start.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
