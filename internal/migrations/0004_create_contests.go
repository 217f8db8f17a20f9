package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE contests (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator_id UUID NOT NULL REFERENCES members (id) ON DELETE RESTRICT,
    is_open BOOLEAN NOT NULL DEFAULT false,
    is_joinable BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);
`)
	if err != nil {
		return err
	}

	return nil
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE contests;`)
	if err != nil {
		return err
	}

	return nil
}
