package posting

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

// Comments on a post the actor may read. A reply's parent must be a live
// comment of the same post.
func (s *Service) CreateComment(
	ctx context.Context,
	actor *models.Member,
	postID uuid.UUID,
	password string,
	req types.CommentCreate,
	ip string,
) (*models.Comment, error) {
	ctx, span := tracer.Start(ctx, "CreateComment", trace.WithAttributes(
		attribute.String("post.id", postID.String()),
		attribute.String("member.id", actor.ID.String()),
	))
	defer span.End()

	var comment models.Comment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}

		err = readable(actor, post, password)
		if err != nil {
			return err
		}

		if !post.AllowComment {
			return apperr.CommentNotAllowed
		}

		if req.ParentID != nil {
			var parent models.Comment
			err = tx.First(&parent, "id = ? AND post_id = ? AND NOT deleted", *req.ParentID, postID).Error
			if err != nil {
				return notFound(err, apperr.CommentNotFound)
			}
		}

		comment = models.Comment{
			WriterID:  &actor.ID,
			ParentID:  req.ParentID,
			Content:   req.Content,
			IPAddress: ip,
			PostID:    postID,
		}
		err = tx.Omit("Writer").Create(&comment).Error
		if err != nil {
			return err
		}

		return tx.Model(post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create comment")
		return nil, err
	}
	comment.Writer = actor

	span.SetAttributes(attribute.String("comment.id", comment.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created comment")
	return &comment, nil
}

// Oldest first, deleted comments included so replies keep their place
func (s *Service) ListComments(
	ctx context.Context,
	actor *models.Member,
	postID uuid.UUID,
	password string,
	query types.CommentListQuery,
) (*types.Page[types.CommentResponse], error) {
	ctx, span := tracer.Start(ctx, "ListComments", trace.WithAttributes(
		attribute.String("post.id", postID.String()),
	))
	defer span.End()

	db := s.DB.WithContext(ctx)

	post, err := postByID(db, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get post")
		return nil, err
	}

	err = readable(actor, post, password)
	if err != nil {
		span.SetStatus(codes.Error, "post not readable")
		return nil, err
	}

	var total int64
	err = db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&total).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count comments")
		return nil, err
	}

	var comments []models.Comment
	err = db.Preload("Writer").
		Where("post_id = ?", postID).
		Order("created_at, id").
		Scopes(models.Paginate(query.Page, query.Size, defaultPageSize)).
		Find(&comments).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list comments")
		return nil, err
	}

	_, size := models.PageBounds(query.Page, query.Size, defaultPageSize)

	content := make([]types.CommentResponse, 0, len(comments))
	for _, c := range comments {
		content = append(content, c.Response())
	}

	span.SetAttributes(attribute.Int64("total", total))
	span.SetStatus(codes.Ok, "listed comments")
	return &types.Page[types.CommentResponse]{
		Content: content,
		Page:    query.Page,
		Size:    size,
		Total:   total,
	}, nil
}

func (s *Service) ModifyComment(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	req types.CommentModify,
) (*models.Comment, error) {
	ctx, span := tracer.Start(ctx, "ModifyComment", trace.WithAttributes(
		attribute.String("comment.id", id.String()),
		attribute.String("member.id", actor.ID.String()),
	))
	defer span.End()

	var comment *models.Comment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		comment, err = lockComment(tx, id)
		if err != nil {
			return err
		}

		if !comment.WrittenBy(actor.ID) {
			return apperr.AccessDenied
		}

		comment.Content = req.Content
		return tx.Model(comment).Update("content", req.Content).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to modify comment")
		return nil, err
	}
	comment.Writer = actor

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "modified comment")
	return comment, nil
}

// Writer or president. The row stays for its replies with writer, content,
// counters and reactions cleared.
func (s *Service) DeleteComment(ctx context.Context, actor *models.Member, id uuid.UUID) (*models.Comment, error) {
	ctx, span := tracer.Start(ctx, "DeleteComment", trace.WithAttributes(
		attribute.String("comment.id", id.String()),
		attribute.String("member.id", actor.ID.String()),
	))
	defer span.End()

	var comment *models.Comment
	var moderated bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		comment, err = lockComment(tx, id)
		if err != nil {
			return err
		}

		writtenBy := comment.WrittenBy(actor.ID)
		if !canManage(actor, writtenBy) {
			return apperr.AccessDenied
		}
		moderated = !writtenBy

		err = tx.Where("comment_id = ?", id).Delete(&models.CommentReaction{}).Error
		if err != nil {
			return err
		}

		err = tx.Model(comment).Updates(map[string]any{
			"content":       "",
			"writer_id":     nil,
			"like_count":    0,
			"dislike_count": 0,
			"deleted":       true,
		}).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete comment")
		return nil, err
	}

	audit.LogCommentDeleted(memberAudit(actor.ID), id.String(), comment.PostID.String(), moderated)

	comment.Content = ""
	comment.WriterID = nil
	comment.Writer = nil
	comment.LikeCount = 0
	comment.DislikeCount = 0
	comment.Deleted = true

	span.SetAttributes(attribute.Bool("moderated", moderated))
	span.SetStatus(codes.Ok, "deleted comment")
	return comment, nil
}
