package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindAccessDenied:    http.StatusForbidden,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindStateConflict:   http.StatusBadRequest,
	apperr.KindInvalid:         http.StatusBadRequest,
	apperr.KindDataIntegrity:   http.StatusConflict,
	apperr.KindRateLimited:     http.StatusTooManyRequests,
	apperr.KindUnknown:         http.StatusInternalServerError,
}

func StatusOf(kind apperr.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// Maps any error into the application error space
func Classify(err error) *apperr.Error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperr.InvalidRequest.Wrap(err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound.Wrap(err)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperr.DataIntegrityViolation.Wrap(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(pgErr.Code == pgUniqueViolation || pgErr.Code == pgForeignKeyViolation) {
		return apperr.DataIntegrityViolation.Wrap(err)
	}

	// Check constraints guard request values the validator let through
	if errors.Is(err, gorm.ErrCheckConstraintViolated) ||
		(errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation) {
		return apperr.InvalidRequest.Wrap(err)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return apperr.NotFound.Wrap(err)
		case http.StatusUnauthorized:
			return apperr.Unauthenticated.Wrap(err)
		case http.StatusForbidden:
			return apperr.AccessDenied.Wrap(err)
		case http.StatusTooManyRequests:
			return apperr.RateLimited.Wrap(err)
		case http.StatusRequestEntityTooLarge:
			return apperr.FileTooLarge.Wrap(err)
		}

		if httpErr.Code >= 400 && httpErr.Code < 500 {
			return apperr.InvalidRequest.Wrap(err)
		}
	}

	return apperr.Unknown.Wrap(err)
}

// The only place errors become HTTP responses
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()

		appErr := Classify(err)
		status := StatusOf(appErr.Kind)

		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "request failed", "error", err)
		} else {
			logger.DebugContext(ctx, "request rejected", "error", err, "kind", appErr.Kind.String())
		}

		code, msg := message(c, appErr.Key)
		if appErr.Override != "" {
			msg = appErr.Override
		}

		body := Envelope{Success: false, Code: code, Msg: msg}

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			body.Data = types.FieldErrors(err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to write error response", "error", err)
		}
	}
}
