package cmds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keeper-project/homepage-api/internal/ctf"
	"github.com/keeper-project/homepage-api/internal/logger"
	workererrors "github.com/keeper-project/homepage-api/internal/worker_errors"
)

var (
	rescoreContest     string
	rescoreAll         bool
	rescoreParallelism int
)

type rescoreLine struct {
	Totals    map[uuid.UUID]int64 `json:"totals"`
	ContestID uuid.UUID           `json:"contest_id"`
	Solves    int                 `json:"solves"`
}

func writeSummaries(w io.Writer, summaries ...*ctf.RecomputeSummary) error {
	enc := json.NewEncoder(w)
	for _, s := range summaries {
		err := enc.Encode(rescoreLine{Totals: s.Totals, ContestID: s.ContestID, Solves: s.Solves})
		if err != nil {
			return err
		}
	}

	return nil
}

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute team scores from recorded solves",
	Long: `
Rebuilds every team total of one contest (--contest) or of every contest (--all)
from the solves table. Prints one JSON line per contest with the new totals.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "rescoreCmd")
		defer span.End()

		if rescoreAll == (rescoreContest != "") {
			err := errors.New("exactly one of --contest or --all is required")
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid flags")
			return workererrors.ExitErrorWrap(workererrors.ExitCodeUsage, err)
		}

		var contestID uuid.UUID
		if !rescoreAll {
			var err error
			contestID, err = uuid.Parse(rescoreContest)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "invalid contest id")
				return workererrors.ExitErrorWrap(
					workererrors.ExitCodeUsage,
					fmt.Errorf("invalid contest id %q: %w", rescoreContest, err),
				)
			}
			span.SetAttributes(attribute.String("contest.id", contestID.String()))
		}

		cfg, db, err := connect(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to connect")
			return err
		}
		defer closeDB(ctx, db)

		svc := ctf.New(db, nil, cfg.CTF.Scoring, cfg.Storage.PresignTTL)

		var summaries []*ctf.RecomputeSummary
		if rescoreAll {
			summaries, err = svc.RecomputeAll(ctx, rescoreParallelism)
		} else {
			var summary *ctf.RecomputeSummary
			summary, err = svc.RecomputeContest(ctx, contestID)
			summaries = []*ctf.RecomputeSummary{summary}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to rescore")
			return fmt.Errorf("failed to rescore: %w", err)
		}

		logger.Logger.InfoContext(ctx, "rescored contests", "count", len(summaries))

		err = writeSummaries(cmd.OutOrStdout(), summaries...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write summaries")
			return err
		}

		span.SetStatus(codes.Ok, "rescored")
		return nil
	},
}

func init() {
	rescoreCmd.Flags().StringVar(&rescoreContest, "contest", "", "id of the contest to rescore")
	rescoreCmd.Flags().BoolVar(&rescoreAll, "all", false, "rescore every contest")
	rescoreCmd.Flags().IntVar(&rescoreParallelism, "parallelism", 4, "contests rescored at once with --all")

	rootCmd.AddCommand(rescoreCmd)
}
