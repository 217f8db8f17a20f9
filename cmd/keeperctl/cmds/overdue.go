package cmds

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keeper-project/homepage-api/internal/library"
)

const overduePageSize = 100

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Print every overdue loan as a JSON line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "overdueCmd")
		defer span.End()

		cfg, db, err := connect(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to connect")
			return err
		}
		defer closeDB(ctx, db)

		svc := library.New(db, cfg.Library)
		enc := json.NewEncoder(cmd.OutOrStdout())

		total := 0
		for page := 0; ; page++ {
			borrows, err := svc.OverdueBooks(ctx, page, overduePageSize)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to list overdue loans")
				return err
			}

			for _, b := range borrows {
				err = enc.Encode(b.Response())
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, "failed to write loan")
					return err
				}
			}
			total += len(borrows)

			if len(borrows) < overduePageSize {
				break
			}
		}

		span.SetAttributes(attribute.Int("count", total))
		span.SetStatus(codes.Ok, "listed overdue loans")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overdueCmd)
}
