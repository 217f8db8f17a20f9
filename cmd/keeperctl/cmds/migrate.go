package cmds

import (
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"

	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/migrations"
	workererrors "github.com/keeper-project/homepage-api/internal/worker_errors"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateUpCmd")
		defer span.End()

		_, db, err := connect(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to connect")
			return err
		}
		defer closeDB(ctx, db)

		err = migrations.Up(ctx, db)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to migrate up")
			return workererrors.ExitErrorWrap(workererrors.ExitCodeDatabase, err)
		}

		logger.Logger.InfoContext(ctx, "migrated up")
		span.SetStatus(codes.Ok, "migrated up")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration, dropping all keeper tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateDownCmd")
		defer span.End()

		_, db, err := connect(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to connect")
			return err
		}
		defer closeDB(ctx, db)

		err = migrations.Down(ctx, db)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to migrate down")
			return workererrors.ExitErrorWrap(workererrors.ExitCodeDatabase, err)
		}

		logger.Logger.InfoContext(ctx, "migrated down")
		span.SetStatus(codes.Ok, "migrated down")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
