package v1

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

func (h *Handler) CreateComment(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateComment")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	postID, err := servermiddleware.IDParam(c, "post_id", apperr.PostNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed post id")
		return err
	}

	var rdata types.CommentCreate

	span.AddEvent("parsing request body")
	if err = c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err = c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return err
	}

	comment, err := h.posting.CreateComment(
		ctx, member, postID, c.Request().Header.Get(HeaderPostPassword), rdata, c.RealIP(),
	)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create comment")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created comment")
	return response.Created(c, comment.Response())
}

func (h *Handler) ListComments(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListComments")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	postID, err := servermiddleware.IDParam(c, "post_id", apperr.PostNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed post id")
		return err
	}

	var query types.CommentListQuery
	if err = c.Bind(&query); err != nil {
		span.SetStatus(codes.Ok, "failed to parse query")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err = c.Validate(query); err != nil {
		span.SetStatus(codes.Ok, "failed to validate query")
		span.RecordError(err)
		return err
	}

	page, err := h.posting.ListComments(ctx, member, postID, c.Request().Header.Get(HeaderPostPassword), query)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list comments")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed comments")
	return response.OK(c, page)
}

func (h *Handler) ModifyComment(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ModifyComment")
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

	var rdata types.CommentModify

	span.AddEvent("parsing request body")
	if err = c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err = c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return err
	}

	comment, err := h.posting.ModifyComment(ctx, member, commentID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to modify comment")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "modified comment")
	return response.OK(c, comment.Response())
}

// Writers delete their own comments, presidents may delete any
func (h *Handler) DeleteComment(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteComment")
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

func (h *Handler) toggleCommentReaction(kind types.ReactionKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "ToggleCommentReaction", trace.WithAttributes(
			attribute.String("kind", string(kind)),
		))
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

		result, err := h.posting.ToggleCommentReaction(ctx, member, commentID, kind)
		if err != nil {
			span.SetStatus(codes.Error, "failed to toggle reaction")
			span.RecordError(err)
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "toggled reaction")
		return response.OK(c, result)
	}
}
