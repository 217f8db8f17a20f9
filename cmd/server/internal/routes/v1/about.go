package v1

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
)

func (h *Handler) ListAbout(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListAbout")
	defer span.End()

	typ := c.Param("type")
	span.SetAttributes(attribute.String("about.type", typ))

	blocks, err := h.about.ListByType(ctx, typ)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list about blocks")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed about blocks")
	return response.List(c, blocks)
}
