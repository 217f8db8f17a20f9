package posting

import (
	"context"

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

// Adds the reaction row, or removes it when the actor already reacted. Counter
// and rows move in the same transaction under the post lock.
func (s *Service) TogglePostReaction(
	ctx context.Context,
	actor *models.Member,
	postID uuid.UUID,
	kind types.ReactionKind,
) (*types.ReactionResponse, error) {
	ctx, span := tracer.Start(ctx, "TogglePostReaction", trace.WithAttributes(
		attribute.String("post.id", postID.String()),
		attribute.String("member.id", actor.ID.String()),
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	var resp types.ReactionResponse
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}

		if post.IsTemp && !post.WrittenBy(actor.ID) {
			return apperr.PostNotFound
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PostReaction{
			Kind:     kind,
			PostID:   postID,
			MemberID: actor.ID,
		})
		if result.Error != nil {
			return result.Error
		}

		resp.Active = result.RowsAffected == 1
		if !resp.Active {
			err = tx.Where("post_id = ? AND member_id = ? AND kind = ?", postID, actor.ID, kind).
				Delete(&models.PostReaction{}).Error
			if err != nil {
				return err
			}
		}

		delta := counterDelta(resp.Active)
		counter := models.ReactionCounter(kind)
		err = tx.Model(post).UpdateColumn(counter, gorm.Expr(counter+" + ?", delta)).Error
		if err != nil {
			return err
		}

		resp.LikeCount, resp.DislikeCount = post.LikeCount, post.DislikeCount
		moveCounter(&resp, kind, delta)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to toggle reaction")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("active", resp.Active))
	span.SetStatus(codes.Ok, "toggled reaction")
	return &resp, nil
}

// As [Service.TogglePostReaction] for a live comment
func (s *Service) ToggleCommentReaction(
	ctx context.Context,
	actor *models.Member,
	commentID uuid.UUID,
	kind types.ReactionKind,
) (*types.ReactionResponse, error) {
	ctx, span := tracer.Start(ctx, "ToggleCommentReaction", trace.WithAttributes(
		attribute.String("comment.id", commentID.String()),
		attribute.String("member.id", actor.ID.String()),
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	var resp types.ReactionResponse
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, err := lockComment(tx, commentID)
		if err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.CommentReaction{
			Kind:      kind,
			CommentID: commentID,
			MemberID:  actor.ID,
		})
		if result.Error != nil {
			return result.Error
		}

		resp.Active = result.RowsAffected == 1
		if !resp.Active {
			err = tx.Where("comment_id = ? AND member_id = ? AND kind = ?", commentID, actor.ID, kind).
				Delete(&models.CommentReaction{}).Error
			if err != nil {
				return err
			}
		}

		delta := counterDelta(resp.Active)
		counter := models.ReactionCounter(kind)
		err = tx.Model(comment).UpdateColumn(counter, gorm.Expr(counter+" + ?", delta)).Error
		if err != nil {
			return err
		}

		resp.LikeCount, resp.DislikeCount = comment.LikeCount, comment.DislikeCount
		moveCounter(&resp, kind, delta)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to toggle reaction")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("active", resp.Active))
	span.SetStatus(codes.Ok, "toggled reaction")
	return &resp, nil
}

func counterDelta(active bool) int64 {
	if active {
		return 1
	}

	return -1
}

func moveCounter(resp *types.ReactionResponse, kind types.ReactionKind, delta int64) {
	if kind == types.ReactionDislike {
		resp.DislikeCount += delta
		return
	}

	resp.LikeCount += delta
}
