package ctf

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/archive"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/scoring"
	"github.com/keeper-project/homepage-api/internal/types"
	"github.com/keeper-project/homepage-api/internal/validator"
)

// Creates a closed problem in the request's contest
func (s *Service) CreateProblem(
	ctx context.Context,
	actor *models.Member,
	req types.ProblemCreate,
) (*models.Problem, error) {
	ctx, span := tracer.Start(ctx, "CreateProblem", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("contest.id", req.ContestID.String()),
		attribute.String("problem.type", string(req.Type)),
	))
	defer span.End()

	var problem models.Problem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contest, err := contestByID(tx, req.ContestID)
		if err != nil {
			return err
		}

		if !canAuthor(actor, contest) {
			return apperr.AccessDenied
		}

		problem = models.Problem{
			MinScore:  models.NewNull(req.MinScore),
			Decay:     models.NewNull(req.Decay),
			Title:     req.Title,
			Content:   req.Content,
			Flag:      req.Flag,
			Category:  req.Category,
			Type:      req.Type,
			ContestID: contest.ID,
			CreatorID: actor.ID,
			Score:     req.Score,
		}

		return tx.Create(&problem).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create problem")
		return nil, err
	}

	audit.LogProblemCreated(
		auditContext(problem.ContestID, nil, actor.ID),
		problem.ID.String(),
		problem.Title,
		string(problem.Type),
	)

	span.SetAttributes(attribute.String("problem.id", problem.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created problem")
	return &problem, nil
}

// Opens or closes a problem. A closed problem rejects every submission.
func (s *Service) SetProblemSolvable(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	solvable bool,
) (*models.Problem, error) {
	ctx, span := tracer.Start(ctx, "SetProblemSolvable", trace.WithAttributes(
		attribute.String("problem.id", id.String()),
		attribute.Bool("solvable", solvable),
	))
	defer span.End()

	var problem *models.Problem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		problem, err = problemByID(tx, id)
		if err != nil {
			return err
		}

		contest, err := contestByID(tx, problem.ContestID)
		if err != nil {
			return err
		}

		if !canAuthor(actor, contest) {
			return apperr.AccessDenied
		}

		return tx.Model(problem).Update("is_solvable", solvable).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update problem")
		return nil, err
	}

	audit.LogProblemStateChanged(auditContext(problem.ContestID, nil, actor.ID), id.String(), solvable)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated problem")
	return problem, nil
}

// Deletes a problem nobody submitted to, then its attachment
func (s *Service) DeleteProblem(ctx context.Context, actor *models.Member, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "DeleteProblem", trace.WithAttributes(
		attribute.String("problem.id", id.String()),
	))
	defer span.End()

	var problem *models.Problem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		problem, err = problemByID(tx, id)
		if err != nil {
			return err
		}

		contest, err := contestByID(tx, problem.ContestID)
		if err != nil {
			return err
		}

		if !canDelete(actor, contest) {
			return apperr.AccessDenied
		}

		submitted, err := models.Exists[models.SubmitLog](ctx, tx, "problem_id = ?", id)
		if err != nil {
			return err
		}
		if submitted {
			return apperr.ProblemHasSubmissions
		}

		return tx.Delete(problem).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete problem")
		return err
	}

	c := auditContext(problem.ContestID, nil, actor.ID)
	audit.LogProblemDeleted(c, id.String(), problem.Title, string(problem.Type))

	if problem.FileKey.Valid {
		span.AddEvent("deleting attachment")
		// the row is gone, a dangling object only costs storage
		err = archive.DeleteFile(ctx, c, s.Uploader, problem.FileKey.V, audit.EntityProblemFile, id.String())
		if err != nil {
			logger.Logger.WarnContext(ctx, "failed to delete problem attachment",
				"problem_id", id, "object", problem.FileKey.V, "error", err)
			span.RecordError(err)
		}
	}

	span.SetStatus(codes.Ok, "deleted problem")
	return nil
}

// Stores `reader` as the problem attachment, replacing and deleting any previous one
func (s *Service) AttachFile(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	fileName string,
	reader io.ReadSeeker,
	size int64,
) (*models.Problem, error) {
	ctx, span := tracer.Start(ctx, "AttachFile", trace.WithAttributes(
		attribute.String("problem.id", id.String()),
		attribute.String("file.name", fileName),
		attribute.Int64("file.size", size),
	))
	defer span.End()

	if !validator.ValidateAttachmentSize(size) {
		span.SetStatus(codes.Error, "invalid file size")
		if size > 0 {
			return nil, apperr.FileTooLarge
		}
		return nil, apperr.InvalidRequest.WithOverride("empty file")
	}

	problem, err := problemByID(s.DB.WithContext(ctx), id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get problem")
		return nil, err
	}

	contest, err := contestByID(s.DB.WithContext(ctx), problem.ContestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get contest")
		return nil, err
	}

	if !canAuthor(actor, contest) {
		span.SetStatus(codes.Error, "actor may not attach files")
		return nil, apperr.AccessDenied
	}

	c := auditContext(problem.ContestID, nil, actor.ID)
	key, err := archive.StoreFile(ctx, c, s.Uploader, &archive.FileMetadata{
		Reader:   reader,
		Prefix:   path.Join("problems", id.String()),
		Entity:   audit.EntityProblemFile,
		EntityID: id.String(),
		Size:     size,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store file")
		return nil, fmt.Errorf("failed to store problem file: %w", err)
	}

	previous := problem.FileKey
	err = s.DB.WithContext(ctx).Model(problem).Updates(map[string]any{
		"file_key":  key,
		"file_name": fileName,
		"file_size": size,
	}).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to link file")
		return nil, err
	}
	problem.FileKey = models.NewNullFromData(key)
	problem.FileName = models.NewNullFromData(fileName)
	problem.FileSize = models.NewNullFromData(size)

	// same content hashes to the same key
	if previous.Valid && previous.V != key {
		span.AddEvent("deleting replaced attachment")
		err = archive.DeleteFile(ctx, c, s.Uploader, previous.V, audit.EntityProblemFile, id.String())
		if err != nil {
			logger.Logger.WarnContext(ctx, "failed to delete replaced attachment",
				"problem_id", id, "object", previous.V, "error", err)
			span.RecordError(err)
		}
	}

	span.SetStatus(codes.Ok, "attached file")
	return problem, nil
}

// Distinct solving teams per problem in a contest
func solveCounts(tx *gorm.DB, contestID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ProblemID uuid.UUID
		Count     int64
	}

	err := tx.Model(&models.Solve{}).
		Select("problem_id, count(*) AS count").
		Where("contest_id = ?", contestID).
		Group("problem_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ProblemID] = r.Count
	}

	return counts, nil
}

func (s *Service) scoringProblem(p *models.Problem, solvers int64) scoring.Problem {
	return scoring.Problem{
		Type:    p.Type,
		Params:  scoring.ParamsFor(s.Scoring, p.Score, models.PtrFromNull(p.MinScore), models.PtrFromNull(p.Decay)),
		Solvers: solvers,
	}
}

// Every problem of a contest with its flag, for problem setters
func (s *Service) ListProblems(ctx context.Context, contestID uuid.UUID) ([]types.ProblemAdminResponse, error) {
	ctx, span := tracer.Start(ctx, "ListProblems", trace.WithAttributes(
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

	var problems []models.Problem
	err = db.Where("contest_id = ?", contestID).Order("created_at").Find(&problems).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list problems")
		return nil, err
	}

	counts, err := solveCounts(db, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count solves")
		return nil, err
	}

	out := make([]types.ProblemAdminResponse, 0, len(problems))
	for _, p := range problems {
		out = append(out, p.AdminResponse(counts[p.ID]))
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	span.SetStatus(codes.Ok, "listed problems")
	return out, nil
}

// Open problems of an open contest as members see them: no flag, current value,
// and whether the actor's team solved it
func (s *Service) ListOpenProblems(
	ctx context.Context,
	actor *models.Member,
	contestID uuid.UUID,
) ([]types.ProblemResponse, error) {
	ctx, span := tracer.Start(ctx, "ListOpenProblems", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("member.id", actor.ID.String()),
	))
	defer span.End()

	db := s.DB.WithContext(ctx)

	contest, err := contestByID(db, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get contest")
		return nil, err
	}
	if !contest.IsOpen {
		span.SetStatus(codes.Error, "contest closed")
		return nil, apperr.ContestClosed
	}

	var problems []models.Problem
	err = db.Where("contest_id = ? AND is_solvable", contestID).Order("created_at").Find(&problems).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list problems")
		return nil, err
	}

	counts, err := solveCounts(db, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count solves")
		return nil, err
	}

	solved := map[uuid.UUID]bool{}
	var solvedIDs []uuid.UUID
	err = db.Model(&models.Solve{}).
		Joins("JOIN ctf_team_members m ON m.team_id = solves.team_id").
		Where("solves.contest_id = ? AND m.member_id = ?", contestID, actor.ID).
		Pluck("solves.problem_id", &solvedIDs).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get team solves")
		return nil, err
	}
	for _, id := range solvedIDs {
		solved[id] = true
	}

	out := make([]types.ProblemResponse, 0, len(problems))
	for _, p := range problems {
		out = append(out, types.ProblemResponse{
			File:        p.File(),
			Title:       p.Title,
			Content:     p.Content,
			Category:    p.Category,
			Type:        p.Type,
			ID:          p.ID,
			ContestID:   p.ContestID,
			BaseScore:   p.Score,
			Score:       s.scoringProblem(&p, counts[p.ID]).Award(),
			SolvedCount: counts[p.ID],
			Solved:      solved[p.ID],
		})
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	span.SetStatus(codes.Ok, "listed open problems")
	return out, nil
}

// Presigned download url of an open problem's attachment
func (s *Service) FileURL(ctx context.Context, id uuid.UUID) (*types.FileURLResponse, error) {
	ctx, span := tracer.Start(ctx, "FileURL", trace.WithAttributes(
		attribute.String("problem.id", id.String()),
	))
	defer span.End()

	problem, err := problemByID(s.DB.WithContext(ctx), id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get problem")
		return nil, err
	}

	if !problem.IsSolvable {
		span.SetStatus(codes.Error, "problem closed")
		return nil, apperr.ProblemClosed
	}

	contest, err := contestByID(s.DB.WithContext(ctx), problem.ContestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get contest")
		return nil, err
	}

	if !contest.IsOpen {
		span.SetStatus(codes.Error, "contest closed")
		return nil, apperr.ContestClosed
	}

	if !problem.FileKey.Valid {
		span.SetStatus(codes.Error, "no file attached")
		return nil, apperr.FileNotFound.Wrap(models.ErrNoFile)
	}

	expires := s.now().Add(s.PresignTTL)
	url, err := problem.FileURL(ctx, s.Uploader, s.PresignTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to presign url")
		return nil, err
	}

	span.SetStatus(codes.Ok, "generated file url")
	return &types.FileURLResponse{
		ExpiresAt: expires,
		Name:      problem.FileName.V,
		URL:       url,
	}, nil
}
