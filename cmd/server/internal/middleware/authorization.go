package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	srverr "github.com/keeper-project/homepage-api/cmd/server/internal/error"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/models"
)

// True when `has` holds at least one of the roles set on `allowed`
func hasAnyRole(
	ctx context.Context,
	allowed *models.Roles,
	has *models.Roles,
	l *slog.Logger,
) bool {
	ctx, span := tracer.Start(ctx, "hasAnyRole")
	defer span.End()

	l.DebugContext(ctx, "comparing roles", "allowed", *allowed, "has", *has)

	// reflection so a new role field can not be forgotten here
	valAllowed := reflect.Indirect(reflect.ValueOf(allowed))
	valHas := reflect.Indirect(reflect.ValueOf(has))

	for i := range valAllowed.NumField() {
		fieldAllowed := valAllowed.Field(i)
		fieldHas := valHas.Field(i)

		if fieldAllowed.Kind() != reflect.Bool || fieldHas.Kind() != reflect.Bool {
			l.WarnContext(ctx, "non boolean fields on roles skipping")
			continue
		}

		if fieldAllowed.Bool() && fieldHas.Bool() {
			l.DebugContext(ctx, "granting access", "role", valAllowed.Type().Field(i).Name)
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "granting access")
			return true
		}
	}

	l.DebugContext(ctx, "missing role")
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "missing role")
	return false
}

// The member under `authKey` must hold at least one of the roles set on `roles`
func HasRoles(authKey string, roles *models.Roles) echo.MiddlewareFunc {
	l := logger.Logger.With("authKey", authKey, "roles", roles)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "HasRoles", trace.WithAttributes(
				attribute.String("authKey", authKey),
			))
			defer span.End()

			member, ok := c.Get(authKey).(*models.Member)
			if !ok {
				l.WarnContext(ctx, "failed to get member")
				span.RecordError(srverr.ErrTypeAssertMismatch)
				span.SetStatus(codes.Error, fmt.Sprintf("member: %s", srverr.ErrTypeAssertMismatch))
				return apperr.Unauthenticated
			}

			if !hasAnyRole(ctx, roles, &member.Roles, l) {
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "forbidden")
				return apperr.AccessDenied
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "checked roles")
			return next(c)
		}
	}
}
