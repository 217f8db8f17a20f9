package v1

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

func (h *Handler) EmailAuth(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "EmailAuth")
	defer span.End()

	var rdata types.EmailAuthRequest

	span.AddEvent("parsing request body")
	if err := c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err := c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return err
	}

	if err := h.members.RequestEmailAuth(ctx, rdata.Email); err != nil {
		span.SetStatus(codes.Error, "failed to send code")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "sent code")
	return response.OK(c, nil)
}

func (h *Handler) SignUp(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SignUp")
	defer span.End()

	var rdata types.SignUpRequest

	span.AddEvent("parsing request body")
	if err := c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err := c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return err
	}

	member, err := h.members.SignUp(ctx, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to sign up")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("member.id", member.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "signed up")
	return response.Created(c, member.Response())
}

func (h *Handler) CheckLoginID(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CheckLoginID")
	defer span.End()

	loginID := c.QueryParam("login_id")
	if loginID == "" {
		span.SetStatus(codes.Ok, "missing login id")
		return apperr.InvalidRequest.WithOverride("login_id is required")
	}

	taken, err := h.members.CheckLoginID(ctx, loginID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to check login id")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "checked login id")
	return response.OK(c, taken)
}

func (h *Handler) CheckEmail(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CheckEmail")
	defer span.End()

	email := c.QueryParam("email")
	if email == "" {
		span.SetStatus(codes.Ok, "missing email")
		return apperr.InvalidRequest.WithOverride("email is required")
	}

	taken, err := h.members.CheckEmail(ctx, email)
	if err != nil {
		span.SetStatus(codes.Error, "failed to check email")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "checked email")
	return response.OK(c, taken)
}

// Credentials were already checked by BasicAuthValidator
func (h *Handler) SignIn(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "SignIn")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("member.id", member.ID.String()))

	signed, expiresAt, err := h.tokens.Issue(member.ID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to issue token")
		span.RecordError(err)
		return response.InternalServerError.Wrap(err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "issued token")
	return response.OK(c, types.SignInResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		Member:    member.Response(),
	})
}

func (h *Handler) Me(c echo.Context) error {
	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		return err
	}

	return response.OK(c, member.Response())
}
