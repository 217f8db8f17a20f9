package v1

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"

	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

func (h *Handler) SearchBooks(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SearchBooks")
	defer span.End()

	var query types.BookQuery
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

	page, err := h.library.SearchBooks(ctx, query)
	if err != nil {
		span.SetStatus(codes.Error, "failed to search books")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "searched books")
	return response.OK(c, page)
}
