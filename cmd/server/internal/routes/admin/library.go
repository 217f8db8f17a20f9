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

// Binds and validates a request body
func bind[T any](c echo.Context) (T, error) {
	var rdata T
	if err := c.Bind(&rdata); err != nil {
		return rdata, apperr.InvalidRequest.Wrap(err)
	}

	if err := c.Validate(rdata); err != nil {
		return rdata, err
	}

	return rdata, nil
}

func (h *Handler) AddBook(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "AddBook")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.BookAdd](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	book, err := h.library.AddBook(ctx, member.ID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to add book")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("book.id", book.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "added book")
	return response.Created(c, book.Response())
}

func (h *Handler) DeleteBook(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteBook")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.BookDelete](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	book, err := h.library.DeleteBook(ctx, member.ID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to delete book")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	if book == nil {
		span.SetStatus(codes.Ok, "removed every copy")
		return response.OK(c, nil)
	}

	span.SetStatus(codes.Ok, "removed copies")
	return response.OK(c, book.Response())
}

func (h *Handler) BorrowBook(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "BorrowBook")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.BookBorrow](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	borrow, err := h.library.BorrowBook(ctx, member.ID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to borrow book")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("borrow.id", borrow.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "borrowed book")
	return response.Created(c, borrow.Response())
}

func (h *Handler) ReturnBook(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ReturnBook")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	rdata, err := bind[types.BookReturn](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid request data")
		span.RecordError(err)
		return err
	}

	returned, err := h.library.ReturnBook(ctx, member.ID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to return book")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "returned book")
	return response.OK(c, returned)
}

func (h *Handler) OverdueBooks(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "OverdueBooks")
	defer span.End()

	type requestData struct {
		Page int `query:"page" validate:"gte=0"`
		Size int `query:"size" validate:"gte=0,lte=100"`
	}

	rdata, err := bind[requestData](c)
	if err != nil {
		span.SetStatus(codes.Ok, "invalid query")
		span.RecordError(err)
		return err
	}

	loans, err := h.library.OverdueBooks(ctx, rdata.Page, rdata.Size)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list overdue loans")
		span.RecordError(err)
		return err
	}

	list := make([]types.BorrowResponse, 0, len(loans))
	for _, loan := range loans {
		list = append(list, loan.Response())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed overdue loans")
	return response.List(c, list)
}
