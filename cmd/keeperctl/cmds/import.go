package cmds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/ctf"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/member"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
	"github.com/keeper-project/homepage-api/internal/upload"
	workererrors "github.com/keeper-project/homepage-api/internal/worker_errors"
)

var (
	importFile    string
	importCreator string
)

func attachProblemFile(
	ctx context.Context,
	svc *ctf.Service,
	creator *models.Member,
	problem *models.Problem,
	filePath string,
) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = svc.AttachFile(ctx, creator, problem.ID, filepath.Base(filePath), f, info.Size())
	return err
}

// Creates the contest described by `def` and all of its problems.
// Attachment paths are resolved against `baseDir`.
func importContest(
	ctx context.Context,
	svc *ctf.Service,
	creator *models.Member,
	def *types.ContestYAML,
	baseDir string,
) (*models.Contest, error) {
	ctx, span := tracer.Start(ctx, "importContest", trace.WithAttributes(
		attribute.String("contest.name", def.Name),
		attribute.Int("problems", len(def.Problems)),
	))
	defer span.End()

	contest, err := svc.CreateContest(ctx, creator, types.ContestCreate{
		Name:        def.Name,
		Description: def.Description,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create contest")
		return nil, err
	}

	for i, p := range def.Problems {
		problem, err := svc.CreateProblem(ctx, creator, types.ProblemCreate{
			MinScore:  p.MinScore,
			Decay:     p.Decay,
			Title:     p.Title,
			Content:   p.Content,
			Flag:      p.Flag,
			Category:  p.Category,
			Type:      p.Type,
			ContestID: contest.ID,
			Score:     p.Score,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create problem")
			return nil, fmt.Errorf("problem %d (%s): %w", i, p.Title, err)
		}

		if p.File != "" {
			filePath := p.File
			if !filepath.IsAbs(filePath) {
				filePath = filepath.Join(baseDir, filePath)
			}

			err = attachProblemFile(ctx, svc, creator, problem, filePath)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to attach file")
				return nil, fmt.Errorf("problem %d (%s) file: %w", i, p.Title, err)
			}
		}

		if p.Open {
			_, err = svc.SetProblemSolvable(ctx, creator, problem.ID, true)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to open problem")
				return nil, fmt.Errorf("problem %d (%s): %w", i, p.Title, err)
			}
		}
	}

	if def.Open {
		contest, err = svc.SetContestOpen(ctx, creator, contest.ID, true)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open contest")
			return nil, err
		}
	}

	if def.Joinable {
		contest, err = svc.SetContestJoinable(ctx, creator, contest.ID, true)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to make contest joinable")
			return nil, err
		}
	}

	span.SetAttributes(attribute.String("contest.id", contest.ID.String()))
	span.SetStatus(codes.Ok, "imported contest")
	return contest, nil
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create a contest and its problems from a YAML file",
	Long: `
Reads a contest definition (see internal/types/contest.schema.json), creates the
contest and its problems on behalf of --creator and uploads any problem files.
Nothing is written to the database unless the whole file imports.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "importCmd", trace.WithAttributes(
			attribute.String("file", importFile),
			attribute.String("creator", importCreator),
		))
		defer span.End()

		content, err := os.ReadFile(importFile)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read contest file")
			return workererrors.ExitErrorWrap(workererrors.ExitCodeUsage, err)
		}

		def, err := types.ParseContestYAML(ctx, content)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid contest file")
			return workererrors.ExitErrorWrap(
				workererrors.ExitCodeUsage,
				fmt.Errorf("invalid contest file: %w", err),
			)
		}

		cfg, db, err := connect(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to connect")
			return err
		}
		defer closeDB(ctx, db)

		creator, err := member.New(db, nil, nil).ByLoginID(ctx, importCreator)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to look up creator")
			return workererrors.ExitErrorWrap(workererrors.ExitCodeDatabase, err)
		}
		if creator == nil {
			err = fmt.Errorf("no member with login id %q", importCreator)
			span.SetStatus(codes.Error, "unknown creator")
			return workererrors.ExitErrorWrap(workererrors.ExitCodeUsage, err)
		}

		storage, err := newUploader(ctx, cfg.Storage)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create uploader")
			return workererrors.ExitErrorWrap(workererrors.ExitCodeConfig, err)
		}
		uploader := upload.NewRetryUploader(storage)

		var contest *models.Contest
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			svc := ctf.New(tx, uploader, cfg.CTF.Scoring, cfg.Storage.PresignTTL)
			contest, err = importContest(ctx, svc, creator, def, filepath.Dir(importFile))
			return err
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to import contest")
			if errors.Is(err, os.ErrNotExist) {
				return workererrors.ExitErrorWrap(workererrors.ExitCodeUsage, err)
			}
			return fmt.Errorf("failed to import contest: %w", err)
		}

		logger.Logger.InfoContext(ctx, "imported contest",
			"contest_id", contest.ID, "name", contest.Name, "problems", len(def.Problems))
		fmt.Fprintln(cmd.OutOrStdout(), contest.ID)

		span.SetStatus(codes.Ok, "imported contest")
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "contest YAML file")
	importCmd.Flags().StringVar(&importCreator, "creator", "", "login id of the member the contest is created for")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("creator")

	rootCmd.AddCommand(importCmd)
}
