package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	srverr "github.com/keeper-project/homepage-api/cmd/server/internal/error"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/models"
)

// Member put on the context by BasicAuthValidator or TokenValidator
func AuthMember(c echo.Context) (*models.Member, error) {
	member, ok := c.Get(AuthKey).(*models.Member)
	if !ok {
		return nil, response.InternalServerError.Wrap(srverr.ErrTypeAssertMismatch)
	}

	return member, nil
}

// Parses the uuid path param `paramName`, a malformed id is reported as `notFound`
func IDParam(c echo.Context, paramName string, notFound *apperr.Error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, notFound
	}

	return id, nil
}
