package v1

import (
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/posting"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Carries the password of a secret post
const HeaderPostPassword = "X-Post-Password"

// Opens every `file` part of a multipart request. The returned func closes
// them and must be called once the attachments are consumed.
func postAttachments(c echo.Context) ([]posting.Attachment, func(), error) {
	noop := func() {}

	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, apperr.InvalidRequest.Wrap(err)
	}

	headers := form.File["file"]
	if len(headers) > posting.MaxFiles {
		return nil, noop, apperr.TooManyFiles
	}

	closers := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}

	files := make([]posting.Attachment, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, noop, response.InternalServerError.Wrap(err)
		}
		closers = append(closers, file)

		files = append(files, posting.Attachment{
			Reader: file,
			Name:   header.Filename,
			Size:   header.Size,
		})
	}

	return files, closeAll, nil
}

func (h *Handler) ListCategories(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListCategories")
	defer span.End()

	categories, err := h.posting.ListCategories(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list categories")
		span.RecordError(err)
		return err
	}

	list := make([]types.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		list = append(list, category.Response())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed categories")
	return response.List(c, list)
}

// Newest posts of every category
func (h *Handler) LatestPosts(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "LatestPosts")
	defer span.End()

	var query types.PostListQuery
	if err := c.Bind(&query); err != nil {
		span.SetStatus(codes.Ok, "failed to parse query")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}
	query.CategoryID = ""

	if err := c.Validate(query); err != nil {
		span.SetStatus(codes.Ok, "failed to validate query")
		span.RecordError(err)
		return err
	}

	page, err := h.posting.ListPosts(ctx, query)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list latest posts")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed latest posts")
	return response.OK(c, page)
}

func (h *Handler) ListPosts(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListPosts")
	defer span.End()

	var query types.PostListQuery
	if err := c.Bind(&query); err != nil {
		span.SetStatus(codes.Ok, "failed to parse query")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err := c.Validate(query); err != nil {
		span.SetStatus(codes.Ok, "failed to validate query")
		span.RecordError(err)
		return err
	}

	page, err := h.posting.ListPosts(ctx, query)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list posts")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed posts")
	return response.OK(c, page)
}

func (h *Handler) SearchPosts(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SearchPosts")
	defer span.End()

	var query types.PostSearchQuery
	if err := c.Bind(&query); err != nil {
		span.SetStatus(codes.Ok, "failed to parse query")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err := c.Validate(query); err != nil {
		span.SetStatus(codes.Ok, "failed to validate query")
		span.RecordError(err)
		return err
	}

	page, err := h.posting.SearchPosts(ctx, query)
	if err != nil {
		span.SetStatus(codes.Error, "failed to search posts")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "searched posts")
	return response.OK(c, page)
}

func (h *Handler) CreatePost(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreatePost")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	var rdata types.PostWrite

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

	files, closeFiles, err := postAttachments(c)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to read attachments")
		span.RecordError(err)
		return err
	}
	defer closeFiles()

	post, err := h.posting.CreatePost(ctx, member, rdata, c.RealIP(), files)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create post")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("post.id", post.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created post")
	return response.Created(c, post.Response())
}

func (h *Handler) GetPost(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetPost")
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

	post, err := h.posting.GetPost(ctx, member, postID, c.Request().Header.Get(HeaderPostPassword))
	if err != nil {
		span.SetStatus(codes.Error, "failed to get post")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "got post")
	return response.OK(c, post.Response())
}

func (h *Handler) ModifyPost(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ModifyPost")
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

	var rdata types.PostWrite

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

	files, closeFiles, err := postAttachments(c)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to read attachments")
		span.RecordError(err)
		return err
	}
	defer closeFiles()

	post, err := h.posting.ModifyPost(ctx, member, postID, rdata, c.RealIP(), files)
	if err != nil {
		span.SetStatus(codes.Error, "failed to modify post")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "modified post")
	return response.OK(c, post.Response())
}

func (h *Handler) DeletePost(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeletePost")
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

	if err = h.posting.DeletePost(ctx, member, postID); err != nil {
		span.SetStatus(codes.Error, "failed to delete post")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted post")
	return response.OK(c, nil)
}

func (h *Handler) ListAttachments(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListAttachments")
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

	files, err := h.posting.Attachments(ctx, member, postID, c.Request().Header.Get(HeaderPostPassword))
	if err != nil {
		span.SetStatus(codes.Error, "failed to list attachments")
		span.RecordError(err)
		return err
	}

	list := make([]types.PostFileResponse, 0, len(files))
	for _, f := range files {
		list = append(list, f.Response())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed attachments")
	return response.List(c, list)
}

func (h *Handler) AttachmentURL(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "AttachmentURL")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	fileID, err := servermiddleware.IDParam(c, "file_id", apperr.AttachmentNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed file id")
		return err
	}

	url, err := h.posting.AttachmentURL(ctx, member, fileID, c.Request().Header.Get(HeaderPostPassword))
	if err != nil {
		span.SetStatus(codes.Error, "failed to presign attachment")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "presigned attachment")
	return response.OK(c, url)
}

func (h *Handler) togglePostReaction(kind types.ReactionKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "TogglePostReaction", trace.WithAttributes(
			attribute.String("kind", string(kind)),
		))
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

		result, err := h.posting.TogglePostReaction(ctx, member, postID, kind)
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
