package ctf

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

func preloadMembers(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Members", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at, id")
	}).Preload("Members.Member")
}

// Gates team creation and joining. The unique (contest_id, member_id) index
// catches the races this check misses.
func checkJoin(ctx context.Context, tx *gorm.DB, contest *models.Contest, memberID uuid.UUID) error {
	if !contest.IsJoinable {
		return apperr.ContestNotJoinable
	}

	inTeam, err := models.Exists[models.TeamMember](ctx, tx,
		"contest_id = ? AND member_id = ?", contest.ID, memberID)
	if err != nil {
		return err
	}
	if inTeam {
		return apperr.AlreadyInTeam
	}

	return nil
}

// Creates a team with `actor` as creator and sole member
func (s *Service) CreateTeam(
	ctx context.Context,
	actor *models.Member,
	req types.TeamCreate,
) (*models.Team, error) {
	ctx, span := tracer.Start(ctx, "CreateTeam", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("contest.id", req.ContestID.String()),
	))
	defer span.End()

	var team models.Team
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contest, err := contestByID(tx, req.ContestID)
		if err != nil {
			return err
		}

		err = checkJoin(ctx, tx, contest, actor.ID)
		if err != nil {
			return err
		}

		team = models.Team{
			Name:        req.Name,
			Description: req.Description,
			ContestID:   contest.ID,
			CreatorID:   actor.ID,
		}
		err = tx.Omit("Members").Create(&team).Error
		if err != nil {
			return err
		}

		err = tx.Create(&models.TeamMember{
			TeamID:    team.ID,
			ContestID: contest.ID,
			MemberID:  actor.ID,
		}).Error
		if err != nil {
			return err
		}

		return preloadMembers(tx).First(&team, "id = ?", team.ID).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create team")
		return nil, err
	}

	audit.LogTeamCreated(auditContext(team.ContestID, &team.ID, actor.ID), team.Name)

	span.SetAttributes(attribute.String("team.id", team.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created team")
	return &team, nil
}

func (s *Service) JoinTeam(ctx context.Context, actor *models.Member, teamID uuid.UUID) (*models.Team, error) {
	ctx, span := tracer.Start(ctx, "JoinTeam", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("team.id", teamID.String()),
	))
	defer span.End()

	var team *models.Team
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = teamByID(tx, teamID)
		if err != nil {
			return err
		}

		contest, err := contestByID(tx, team.ContestID)
		if err != nil {
			return err
		}

		err = checkJoin(ctx, tx, contest, actor.ID)
		if err != nil {
			return err
		}

		err = tx.Create(&models.TeamMember{
			TeamID:    team.ID,
			ContestID: team.ContestID,
			MemberID:  actor.ID,
		}).Error
		if err != nil {
			return err
		}

		return preloadMembers(tx).First(team, "id = ?", team.ID).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to join team")
		return nil, err
	}

	audit.LogTeamJoined(auditContext(team.ContestID, &team.ID, actor.ID), team.Name)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "joined team")
	return team, nil
}

// Removes `actor` from their team in the contest. The team is deleted when it
// empties and the scores of the contest are recomputed. A departing creator
// hands the team to the longest standing member.
func (s *Service) LeaveTeam(
	ctx context.Context,
	actor *models.Member,
	contestID uuid.UUID,
) (*types.TeamSnapshot, error) {
	ctx, span := tracer.Start(ctx, "LeaveTeam", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	var team models.Team
	var deleted bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := membershipOf(tx, contestID, actor.ID)
		if err != nil {
			return err
		}

		// recompute takes this lock too, take it first so the order is always contest then team
		_, err = lockContest(tx, contestID)
		if err != nil {
			return err
		}

		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, "id = ?", membership.TeamID).Error
		if err != nil {
			return notFound(err, apperr.TeamNotFound)
		}

		err = tx.Delete(membership).Error
		if err != nil {
			return err
		}

		var next models.TeamMember
		err = tx.Where("team_id = ?", team.ID).Order("created_at, id").Limit(1).Find(&next).Error
		if err != nil {
			return err
		}

		if next.ID == uuid.Nil {
			span.AddEvent("team emptied")
			deleted = true

			err = tx.Delete(&team).Error
			if err != nil {
				return err
			}

			_, err = s.recompute(ctx, tx, contestID)
			return err
		}

		if team.CreatorID == actor.ID {
			span.AddEvent("promoting member", trace.WithAttributes(
				attribute.String("member.id", next.MemberID.String()),
			))
			err = tx.Model(&team).Update("creator_id", next.MemberID).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to leave team")
		return nil, err
	}

	audit.LogTeamLeft(auditContext(contestID, &team.ID, actor.ID), team.Name, deleted)

	snapshot := team.Snapshot(deleted)

	span.SetAttributes(attribute.Bool("team.deleted", deleted))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "left team")
	return &snapshot, nil
}

// Renames or redescribes a team, creator only
func (s *Service) ModifyTeam(
	ctx context.Context,
	actor *models.Member,
	teamID uuid.UUID,
	req types.TeamModify,
) (*models.Team, error) {
	ctx, span := tracer.Start(ctx, "ModifyTeam", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("team.id", teamID.String()),
	))
	defer span.End()

	var team *models.Team
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = teamByID(tx, teamID)
		if err != nil {
			return err
		}

		if team.CreatorID != actor.ID {
			return apperr.NotTeamOwner
		}

		err = tx.Model(team).Updates(map[string]any{
			"name":        req.Name.Or(team.Name),
			"description": req.Description.Or(team.Description),
		}).Error
		if err != nil {
			return err
		}

		return preloadMembers(tx).First(team, "id = ?", team.ID).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to modify team")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "modified team")
	return team, nil
}

func (s *Service) GetTeamDetail(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	ctx, span := tracer.Start(ctx, "GetTeamDetail", trace.WithAttributes(
		attribute.String("team.id", teamID.String()),
	))
	defer span.End()

	var team models.Team
	err := preloadMembers(s.DB.WithContext(ctx)).First(&team, "id = ?", teamID).Error
	if err != nil {
		err = notFound(err, apperr.TeamNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get team")
		return nil, err
	}

	span.SetStatus(codes.Ok, "got team")
	return &team, nil
}

// Teams of a contest ranked by score, ties broken by registration
func (s *Service) GetTeamList(ctx context.Context, contestID uuid.UUID) ([]models.Team, error) {
	ctx, span := tracer.Start(ctx, "GetTeamList", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	db := s.DB.WithContext(ctx)

	_, err := contestByID(db, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get contest")
		return nil, err
	}

	var teams []models.Team
	err = preloadMembers(db).
		Where("contest_id = ?", contestID).
		Order("score DESC, created_at, id").
		Find(&teams).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list teams")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(teams)))
	span.SetStatus(codes.Ok, "listed teams")
	return teams, nil
}
