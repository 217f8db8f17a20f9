package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0009, Down0009)
}

var tables = []string{
	"members",
	"contests",
	"problems",
	"teams",
	"ctf_team_members",
	"solves",
	"books",
	"book_borrows",
}

func Up0009(ctx context.Context, tx *sql.Tx) error {
	for _, table := range tables {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TRIGGER touch_updated_at_trigger
BEFORE UPDATE ON %s
FOR EACH ROW EXECUTE PROCEDURE touch_updated_at();`,
			table))
		if err != nil {
			return err
		}
	}

	return nil
}

func Down0009(ctx context.Context, tx *sql.Tx) error {
	for _, table := range reverse(tables) {
		_, err := tx.ExecContext(
			ctx,
			fmt.Sprintf(`DROP TRIGGER touch_updated_at_trigger ON %s;`, table),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func reverse[T any](list []T) []T {
	out := make([]T, len(list))
	for i, v := range list {
		out[len(list)-1-i] = v
	}
	return out
}
