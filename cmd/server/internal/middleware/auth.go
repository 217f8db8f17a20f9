package middleware

import (
	"context"
	"errors"
	"os"
	"reflect"

	"github.com/alexedwards/argon2id"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/models"
)

// Used when doing a fake compare in the error case of BasicAuthValidator
var defaultHashForError string

// Generate a hash
func init() {
	var err error

	defaultHashForError, err = argon2id.CreateHash(
		"bnZSraUCS+nZh3MI8F3iiXbKFBcAyJhvAB6u/GBJzhC00ZPAQlyYVpQ+aryw7QvE2ZI=",
		argon2id.DefaultParams,
	)
	if err != nil {
		logger.Logger.Error("error creating default hash", "error", err)
		os.Exit(1)
	}
}

// Does a fake hash and compare for a hard coded password. Used when BasicAuthValidator hits an error or a nonexistent user.
func fakePasswordHash(ctx context.Context) {
	_, span := tracer.Start(ctx, "fakePasswordHash")
	defer span.End()

	_, err := argon2id.ComparePasswordAndHash("i am a very real password", defaultHashForError)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compare fake password with default hash for error")
		return
	}

	span.AddEvent("compared fake password and default hash for error")
}

// Validates login id and password against the members table
func (h *Handler) BasicAuthValidator(loginID, password string, c echo.Context) (bool, error) {
	ctx, span := tracer.Start(c.Request().Context(), "BasicAuthValidator")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.SetAttributes(attribute.String("login_id", loginID))

	span.AddEvent("getting member by login id")
	var member models.Member
	err := db.Where("login_id = ?", loginID).First(&member).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db error when searching for member")

		fakePasswordHash(ctx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// ok because Ok > Error
			span.SetStatus(codes.Ok, "member not found")
			return false, apperr.SignInFailed
		}

		return false, response.InternalServerError.Wrap(err)
	}

	span.SetAttributes(attribute.String("member.id", member.ID.String()))

	span.AddEvent("checking hash")
	comparison, oldParams, err := argon2id.CheckHash(password, member.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check password")
		return false, response.InternalServerError.Wrap(err)
	}

	if comparison && !reflect.DeepEqual(oldParams, argon2id.DefaultParams) {
		span.AddEvent("updating member with the new params")
		newHash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create new hash for password")
			return false, response.InternalServerError.Wrap(err)
		}

		span.AddEvent("saving new hash to the database")
		err = db.Model(&member).Update("password", newHash).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save new hash to the database")
			return false, response.InternalServerError.Wrap(err)
		}
	}

	if !comparison {
		span.AddEvent("failed login attempt")
		return false, apperr.SignInFailed
	}

	span.AddEvent("successful login attempt")
	c.Set(AuthKey, &member)

	return true, nil
}
