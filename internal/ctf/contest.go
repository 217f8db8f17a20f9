package ctf

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Creates a closed, non joinable contest owned by `actor`
func (s *Service) CreateContest(
	ctx context.Context,
	actor *models.Member,
	req types.ContestCreate,
) (*models.Contest, error) {
	ctx, span := tracer.Start(ctx, "CreateContest", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("contest.name", req.Name),
	))
	defer span.End()

	contest := models.Contest{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   actor.ID,
	}

	err := s.DB.WithContext(ctx).Create(&contest).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create contest")
		return nil, err
	}

	audit.LogContestCreated(auditContext(contest.ID, nil, actor.ID), contest.Name)

	span.SetAttributes(attribute.String("contest.id", contest.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created contest")
	return &contest, nil
}

// Toggles `is_open`. Only admin transitions change contest state.
func (s *Service) SetContestOpen(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	open bool,
) (*models.Contest, error) {
	return s.setContestFlag(ctx, actor, id, "is_open", open)
}

// Toggles `is_joinable` independently of `is_open`
func (s *Service) SetContestJoinable(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	joinable bool,
) (*models.Contest, error) {
	return s.setContestFlag(ctx, actor, id, "is_joinable", joinable)
}

func (s *Service) setContestFlag(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	column string,
	value bool,
) (*models.Contest, error) {
	ctx, span := tracer.Start(ctx, "setContestFlag", trace.WithAttributes(
		attribute.String("contest.id", id.String()),
		attribute.String("column", column),
		attribute.Bool("value", value),
	))
	defer span.End()

	var contest *models.Contest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		contest, err = lockContest(tx, id)
		if err != nil {
			return err
		}

		return tx.Model(contest).Update(column, value).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update contest")
		return nil, err
	}

	audit.LogContestStateChanged(auditContext(id, nil, actor.ID), column, value)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated contest")
	return contest, nil
}

// All contests newest first, or only the open ones
func (s *Service) ListContests(ctx context.Context, onlyOpen bool) ([]models.Contest, error) {
	ctx, span := tracer.Start(ctx, "ListContests", trace.WithAttributes(
		attribute.Bool("only_open", onlyOpen),
	))
	defer span.End()

	query := s.DB.WithContext(ctx).Order("created_at DESC")
	if onlyOpen {
		query = query.Where("is_open")
	}

	var contests []models.Contest
	err := query.Find(&contests).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list contests")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(contests)))
	span.SetStatus(codes.Ok, "listed contests")
	return contests, nil
}

func (s *Service) GetContest(ctx context.Context, id uuid.UUID) (*models.Contest, error) {
	ctx, span := tracer.Start(ctx, "GetContest", trace.WithAttributes(
		attribute.String("contest.id", id.String()),
	))
	defer span.End()

	contest, err := contestByID(s.DB.WithContext(ctx), id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get contest")
		return nil, err
	}

	span.SetStatus(codes.Ok, "got contest")
	return contest, nil
}

// Grants the problem setter role to a member
func (s *Service) DesignateProbMaker(
	ctx context.Context,
	actor *models.Member,
	memberID uuid.UUID,
) (*models.Member, error) {
	ctx, span := tracer.Start(ctx, "DesignateProbMaker", trace.WithAttributes(
		attribute.String("member.id", memberID.String()),
	))
	defer span.End()

	var member models.Member
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&member, "id = ?", memberID).Error
		if err != nil {
			return notFound(err, apperr.MemberNotFound)
		}

		member.Roles.ProblemSetter = true
		return tx.Model(&member).Select("Roles").Updates(&member).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to designate problem setter")
		return nil, err
	}

	audit.LogProbMakerDesignated(audit.Context{MemberID: audit.ID(actor.ID)}, memberID.String())

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "designated problem setter")
	return &member, nil
}
