package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/models"
)

// Validates a bearer token and loads its member
func (h *Handler) TokenValidator(raw string, c echo.Context) (bool, error) {
	ctx, span := tracer.Start(c.Request().Context(), "TokenValidator")
	defer span.End()

	memberID, err := h.Tokens.Parse(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "rejected token")
		return false, nil
	}

	span.SetAttributes(attribute.String("member.id", memberID.String()))

	member, err := models.ByID[models.Member](ctx, h.DB, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "member of token no longer exists")
			return false, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load member of token")
		return false, response.InternalServerError.Wrap(err)
	}

	c.Set(AuthKey, member)

	span.SetStatus(codes.Ok, "accepted token")
	return true, nil
}

// Requires `Authorization: Bearer <jwt>`
func (h *Handler) RequireToken() echo.MiddlewareFunc {
	return echomiddleware.KeyAuthWithConfig(echomiddleware.KeyAuthConfig{
		KeyLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		Validator: h.TokenValidator,
		ErrorHandler: func(err error, _ echo.Context) error {
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				return appErr
			}

			return apperr.Unauthenticated.Wrap(err)
		},
	})
}
