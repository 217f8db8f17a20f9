package ctf

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/common"
	"github.com/keeper-project/homepage-api/internal/models"
)

type RecomputeSummary struct {
	Totals    map[uuid.UUID]int64
	ContestID uuid.UUID
	Solves    int
}

// Rebuilds every team total of a contest from its solves inside `tx`.
// Takes the contest row lock first so recomputes of one contest serialize.
func (s *Service) recompute(ctx context.Context, tx *gorm.DB, contestID uuid.UUID) (*RecomputeSummary, error) {
	ctx, span := tracer.Start(ctx, "recompute", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	tx = tx.WithContext(ctx)

	_, err := lockContest(tx, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to lock contest")
		return nil, err
	}

	var problems []models.Problem
	err = tx.Where("contest_id = ?", contestID).Find(&problems).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load problems")
		return nil, err
	}

	counts, err := solveCounts(tx, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count solves")
		return nil, err
	}

	awards := make(map[uuid.UUID]int64, len(problems))
	for _, p := range problems {
		awards[p.ID] = s.scoringProblem(&p, counts[p.ID]).Award()
	}

	var teamIDs []uuid.UUID
	err = tx.Model(&models.Team{}).Where("contest_id = ?", contestID).Order("id").Pluck("id", &teamIDs).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load teams")
		return nil, err
	}

	var solves []models.Solve
	err = tx.Select("team_id", "problem_id").Where("contest_id = ?", contestID).Find(&solves).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load solves")
		return nil, err
	}

	totals := make(map[uuid.UUID]int64, len(teamIDs))
	for _, id := range teamIDs {
		totals[id] = 0
	}
	for _, solve := range solves {
		totals[solve.TeamID] += awards[solve.ProblemID]
	}

	span.AddEvent("writing totals", trace.WithAttributes(
		common.IDsAttribute("team.ids", teamIDs),
	))
	for _, id := range teamIDs {
		err = tx.Model(&models.Team{}).
			Where("id = ? AND score <> ?", id, totals[id]).
			Update("score", totals[id]).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write team score")
			return nil, err
		}
	}

	audit.LogScoreRecomputed(audit.Context{ContestID: audit.ID(contestID)}, len(teamIDs), len(solves))

	span.SetAttributes(
		attribute.Int("teams", len(teamIDs)),
		attribute.Int("solves", len(solves)),
	)
	span.SetStatus(codes.Ok, "recomputed contest")
	return &RecomputeSummary{Totals: totals, ContestID: contestID, Solves: len(solves)}, nil
}

// Recomputes one contest in its own transaction
func (s *Service) RecomputeContest(ctx context.Context, contestID uuid.UUID) (*RecomputeSummary, error) {
	ctx, span := tracer.Start(ctx, "RecomputeContest", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	var summary *RecomputeSummary
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		summary, err = s.recompute(ctx, tx, contestID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to recompute contest")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "recomputed contest")
	return summary, nil
}

// Recomputes every contest, at most `parallelism` at a time
func (s *Service) RecomputeAll(ctx context.Context, parallelism int) ([]*RecomputeSummary, error) {
	ctx, span := tracer.Start(ctx, "RecomputeAll")
	defer span.End()

	var contestIDs []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&models.Contest{}).Order("id").Pluck("id", &contestIDs).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list contests")
		return nil, err
	}

	span.SetAttributes(common.IDsAttribute("contest.ids", contestIDs))

	if parallelism < 1 {
		parallelism = 1
	}

	summaries := make([]*RecomputeSummary, len(contestIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, id := range contestIDs {
		g.Go(func() error {
			summary, err := s.RecomputeContest(gctx, id)
			if err != nil {
				return err
			}

			summaries[i] = summary
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to recompute contests")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "recomputed all contests")
	return summaries, nil
}
