package admin

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/about"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Opens the optional `file` part of a subtitle request, nil when absent
func subtitleImage(c echo.Context) (*about.Image, multipart.File, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apperr.InvalidRequest.Wrap(err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, response.InternalServerError.Wrap(err)
	}

	return &about.Image{Reader: file, Name: header.Filename, Size: header.Size}, file, nil
}

func (h *Handler) CreateAboutTitle(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateAboutTitle")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.AboutTitleCreate](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	title, err := h.about.CreateTitle(ctx, member.ID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create title")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created title")
	return response.Created(c, types.AboutTitleResponse{
		Subtitles: []types.AboutSubtitleResponse{},
		Title:     title.Title,
		Type:      title.Type,
		ID:        title.ID,
	})
}

func (h *Handler) DeleteAboutTitle(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteAboutTitle")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	titleID, err := servermiddleware.IDParam(c, "title_id", apperr.AboutTitleNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed title id")
		return err
	}

	if err = h.about.DeleteTitle(ctx, member.ID, titleID); err != nil {
		span.SetStatus(codes.Error, "failed to delete title")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted title")
	return response.OK(c, nil)
}

func (h *Handler) CreateAboutSubtitle(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateAboutSubtitle")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.AboutSubtitleWrite](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	image, file, err := subtitleImage(c)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to read image")
		span.RecordError(err)
		return err
	}
	if file != nil {
		defer file.Close()
	}

	subtitle, err := h.about.CreateSubtitle(ctx, member.ID, rdata, image)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create subtitle")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("subtitle.id", subtitle.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created subtitle")
	return response.Created(c, subtitle.Response())
}

func (h *Handler) ModifyAboutSubtitle(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ModifyAboutSubtitle")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	subtitleID, err := servermiddleware.IDParam(c, "subtitle_id", apperr.AboutSubtitleNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed subtitle id")
		return err
	}

	rdata, err := bind[types.AboutSubtitleWrite](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	image, file, err := subtitleImage(c)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to read image")
		span.RecordError(err)
		return err
	}
	if file != nil {
		defer file.Close()
	}

	subtitle, err := h.about.ModifySubtitle(ctx, member.ID, subtitleID, rdata, image)
	if err != nil {
		span.SetStatus(codes.Error, "failed to modify subtitle")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "modified subtitle")
	return response.OK(c, subtitle.Response())
}

func (h *Handler) DeleteAboutSubtitle(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteAboutSubtitle")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	subtitleID, err := servermiddleware.IDParam(c, "subtitle_id", apperr.AboutSubtitleNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed subtitle id")
		return err
	}

	subtitle, err := h.about.DeleteSubtitle(ctx, member.ID, subtitleID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to delete subtitle")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted subtitle")
	return response.OK(c, subtitle.Response())
}

func (h *Handler) CreateAboutContent(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateAboutContent")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.AboutContentCreate](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	content, err := h.about.CreateContent(ctx, member.ID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create content")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created content")
	return response.Created(c, content.Response())
}

func (h *Handler) DeleteAboutContent(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteAboutContent")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	contentID, err := servermiddleware.IDParam(c, "content_id", apperr.AboutContentNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed content id")
		return err
	}

	if err = h.about.DeleteContent(ctx, member.ID, contentID); err != nil {
		span.SetStatus(codes.Error, "failed to delete content")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted content")
	return response.OK(c, nil)
}
