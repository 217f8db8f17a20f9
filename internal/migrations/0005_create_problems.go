package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0005, Down0005)
}

func Up0005(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE problems (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    contest_id UUID NOT NULL REFERENCES contests (id) ON DELETE RESTRICT,
    creator_id UUID NOT NULL REFERENCES members (id) ON DELETE RESTRICT,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    flag TEXT NOT NULL,
    category TEXT NOT NULL,
    type TEXT NOT NULL,
    score BIGINT NOT NULL,
    min_score BIGINT DEFAULT NULL,
    decay BIGINT DEFAULT NULL,
    is_solvable BOOLEAN NOT NULL DEFAULT false,
    file_key TEXT DEFAULT NULL,
    file_name TEXT DEFAULT NULL,
    file_size BIGINT DEFAULT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT problems_score_check CHECK (score > 0),
    CONSTRAINT problems_min_score_check CHECK (min_score IS NULL OR (min_score >= 0 AND min_score <= score)),
    CONSTRAINT problems_decay_check CHECK (decay IS NULL OR decay >= 0),
    CONSTRAINT problems_category_check CHECK (
        category IN ('MISC', 'SYSTEM', 'REVERSING', 'FORENSIC', 'WEB', 'CRYPTO')
    ),
    CONSTRAINT problems_type_check CHECK (type IN ('STANDARD', 'DYNAMIC'))
);`},
		statement{query: `CREATE INDEX problems_contest_id_idx ON problems (contest_id);`},
	)
}

func Down0005(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE problems;`)
	if err != nil {
		return err
	}

	return nil
}
