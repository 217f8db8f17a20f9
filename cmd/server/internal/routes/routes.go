package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/keeper-project/homepage-api/cmd/server/internal/i18n"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/validator"
)

// Largest request body accepted, leaves room for multipart overhead on attachments
const bodyLimit = "110M"

func BuildEcho(logger *slog.Logger, catalog *i18n.Catalog) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	validate := validator.Create()
	e.Validator = &validate
	e.HTTPErrorHandler = response.HTTPErrorHandler(logger)

	e.Pre(middleware.AddTrailingSlash())

	e.Use(
		otelecho.Middleware("keeper-api"),
		slogecho.NewWithConfig(logger, slogecho.Config{}),
		middleware.BodyLimit(bodyLimit),
		response.Locale(catalog),
	)

	e.GET("/health/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	return e, nil
}
