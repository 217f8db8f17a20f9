package admin

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

func (h *Handler) CreateCategory(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateCategory")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.CategoryCreate](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	category, err := h.posting.CreateCategory(ctx, member.ID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create category")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("category.id", category.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created category")
	return response.Created(c, category.Response())
}

// Removes any member's comment, audited as moderated
func (h *Handler) ModerateComment(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ModerateComment")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	commentID, err := servermiddleware.IDParam(c, "comment_id", apperr.CommentNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed comment id")
		return err
	}

	comment, err := h.posting.DeleteComment(ctx, member, commentID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to delete comment")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted comment")
	return response.OK(c, comment.Response())
}
