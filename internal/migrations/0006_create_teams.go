package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0006, Down0006)
}

func Up0006(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE teams (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    contest_id UUID NOT NULL REFERENCES contests (id) ON DELETE RESTRICT,
    creator_id UUID NOT NULL REFERENCES members (id) ON DELETE RESTRICT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    score BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT teams_contest_id_name_key UNIQUE (contest_id, name)
);`},
		// a member is in at most one team per contest
		statement{query: `
CREATE TABLE ctf_team_members (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    team_id UUID NOT NULL REFERENCES teams (id) ON DELETE CASCADE,
    contest_id UUID NOT NULL REFERENCES contests (id) ON DELETE RESTRICT,
    member_id UUID NOT NULL REFERENCES members (id) ON DELETE RESTRICT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT ctf_team_members_contest_id_member_id_key UNIQUE (contest_id, member_id)
);`},
		statement{query: `CREATE INDEX ctf_team_members_team_id_idx ON ctf_team_members (team_id);`},
	)
}

func Down0006(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE ctf_team_members;`},
		statement{query: `DROP TABLE teams;`},
	)
}
