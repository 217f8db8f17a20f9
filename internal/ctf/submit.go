package ctf

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Checks `flag` against the problem for the actor's team. Every attempt that
// reaches the comparison is logged; only the first correct one per team
// scores and triggers a recompute.
func (s *Service) SubmitFlag(
	ctx context.Context,
	actor *models.Member,
	problemID uuid.UUID,
	flag string,
) (*types.SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "SubmitFlag", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("problem.id", problemID.String()),
	))
	defer span.End()

	var log models.SubmitLog
	var team models.Team
	var scored bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		problem, err := problemByID(tx, problemID)
		if err != nil {
			return err
		}

		contest, err := lockContest(tx, problem.ContestID)
		if err != nil {
			return err
		}

		if !contest.IsOpen {
			return apperr.ContestClosed
		}

		// closing a problem only locks its own row
		err = tx.Clauses(clause.Locking{Strength: "SHARE"}).First(problem, "id = ?", problem.ID).Error
		if err != nil {
			return notFound(err, apperr.ProblemNotFound)
		}
		if !problem.IsSolvable {
			return apperr.ProblemClosed
		}

		membership, err := membershipOf(tx, contest.ID, actor.ID)
		if err != nil {
			return err
		}

		err = tx.First(&team, "id = ?", membership.TeamID).Error
		if err != nil {
			return notFound(err, apperr.TeamNotFound)
		}

		correct := subtle.ConstantTimeCompare([]byte(problem.Flag), []byte(flag)) == 1

		log = models.SubmitLog{
			TeamID:      &team.ID,
			TeamName:    team.Name,
			Flag:        flag,
			ContestID:   contest.ID,
			SubmitterID: actor.ID,
			ProblemID:   problem.ID,
			IsCorrect:   correct,
		}
		err = tx.Omit("Problem").Create(&log).Error
		if err != nil {
			return err
		}

		if !correct {
			return nil
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Solve{
			ContestID: contest.ID,
			TeamID:    team.ID,
			ProblemID: problem.ID,
		})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			span.AddEvent("already solved")
			return nil
		}

		scored = true
		_, err = s.recompute(ctx, tx, contest.ID)
		if err != nil {
			return err
		}

		return tx.Select("score").First(&team, "id = ?", team.ID).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit flag")
		return nil, err
	}

	log.AuditLogSubmission(auditContext(log.ContestID, &team.ID, actor.ID), scored, team.Score)

	span.SetAttributes(
		attribute.Bool("correct", log.IsCorrect),
		attribute.Bool("scored", scored),
	)
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "submitted flag")
	return &types.SubmissionResult{
		TeamID:        team.ID,
		Score:         team.Score,
		IsCorrect:     log.IsCorrect,
		AlreadySolved: log.IsCorrect && !scored,
	}, nil
}

// Newest first submit log of a contest
func (s *Service) ListSubmitLogs(
	ctx context.Context,
	contestID uuid.UUID,
	page, size int,
) (*types.Page[types.SubmitLogResponse], error) {
	ctx, span := tracer.Start(ctx, "ListSubmitLogs", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.Int("page", page),
		attribute.Int("size", size),
	))
	defer span.End()

	const defaultSize = 10
	if size <= 0 {
		size = defaultSize
	}

	db := s.DB.WithContext(ctx)

	_, err := contestByID(db, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get contest")
		return nil, err
	}

	var total int64
	err = db.Model(&models.SubmitLog{}).Where("contest_id = ?", contestID).Count(&total).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count submit logs")
		return nil, err
	}

	var logs []models.SubmitLog
	err = db.Preload("Problem").
		Where("contest_id = ?", contestID).
		Order("created_at DESC, id DESC").
		Scopes(models.Paginate(page, size, defaultSize)).
		Find(&logs).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submit logs")
		return nil, err
	}

	content := make([]types.SubmitLogResponse, 0, len(logs))
	for _, l := range logs {
		content = append(content, l.Response())
	}

	span.SetAttributes(attribute.Int64("total", total))
	span.SetStatus(codes.Ok, "listed submit logs")
	return &types.Page[types.SubmitLogResponse]{
		Content: content,
		Page:    page,
		Size:    size,
		Total:   total,
	}, nil
}
