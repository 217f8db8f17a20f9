package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0007, Down0007)
}

func Up0007(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		// team_id is nullable so deleting an emptied team keeps its log rows
		statement{query: `
CREATE TABLE submit_logs (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    contest_id UUID NOT NULL REFERENCES contests (id) ON DELETE RESTRICT,
    team_id UUID REFERENCES teams (id) ON DELETE SET NULL,
    team_name TEXT NOT NULL,
    submitter_id UUID NOT NULL REFERENCES members (id) ON DELETE RESTRICT,
    problem_id UUID NOT NULL REFERENCES problems (id) ON DELETE RESTRICT,
    flag TEXT NOT NULL,
    is_correct BOOLEAN NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `CREATE INDEX submit_logs_contest_id_created_at_idx ON submit_logs (contest_id, created_at DESC);`},
		statement{query: `
CREATE TABLE solves (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    contest_id UUID NOT NULL REFERENCES contests (id) ON DELETE RESTRICT,
    team_id UUID NOT NULL REFERENCES teams (id) ON DELETE CASCADE,
    problem_id UUID NOT NULL REFERENCES problems (id) ON DELETE RESTRICT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT solves_team_id_problem_id_key UNIQUE (team_id, problem_id)
);`},
		statement{query: `CREATE INDEX solves_contest_id_idx ON solves (contest_id);`},
		// rows are append-only
		statement{query: `
CREATE FUNCTION reject_submit_log_update()
RETURNS TRIGGER AS $$
BEGIN
IF NEW.team_id IS NULL AND OLD.team_id IS NOT NULL
   AND NEW.flag = OLD.flag AND NEW.is_correct = OLD.is_correct
   AND NEW.problem_id = OLD.problem_id AND NEW.submitter_id = OLD.submitter_id THEN
    RETURN NEW;
END IF;
RAISE EXCEPTION 'submit_logs rows are append-only';
END;
$$ language 'plpgsql';`},
		statement{query: `
CREATE TRIGGER submit_logs_append_only
BEFORE UPDATE ON submit_logs
FOR EACH ROW EXECUTE PROCEDURE reject_submit_log_update();`},
	)
}

func Down0007(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TRIGGER submit_logs_append_only ON submit_logs;`},
		statement{query: `DROP FUNCTION reject_submit_log_update();`},
		statement{query: `DROP TABLE solves;`},
		statement{query: `DROP TABLE submit_logs;`},
	)
}
