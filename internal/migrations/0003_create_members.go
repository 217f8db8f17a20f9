package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0003, Down0003)
}

func Up0003(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE members (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    login_id TEXT NOT NULL,
    email TEXT NOT NULL,
    real_name TEXT NOT NULL,
    nick_name TEXT NOT NULL,
    password TEXT NOT NULL,
    roles JSONB NOT NULL DEFAULT '{}'::jsonb,
    rank TEXT NOT NULL DEFAULT 'regular',
    type TEXT NOT NULL DEFAULT 'regular',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT members_login_id_key UNIQUE (login_id),
    CONSTRAINT members_email_key UNIQUE (email),
    CONSTRAINT members_rank_check CHECK (rank IN ('regular', 'excellent')),
    CONSTRAINT members_type_check CHECK (
        type IN ('non_member', 'regular', 'dormant', 'graduate', 'withdrawn')
    )
);
`)
	if err != nil {
		return err
	}

	return nil
}

func Down0003(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE members;`)
	if err != nil {
		return err
	}

	return nil
}
