package response

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"

	"github.com/keeper-project/homepage-api/cmd/server/internal/i18n"
	"github.com/keeper-project/homepage-api/internal/apperr"
)

var (
	InternalServerError = apperr.Unknown
	NotFoundError       = apperr.NotFound
)

const localeKey = "locale"

// Not among echo's header constants
const HeaderAcceptLanguage = "Accept-Language"

// Body of every response
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	List    any    `json:"list,omitempty"`
	Msg     string `json:"msg"`
	Code    int    `json:"code"`
	Success bool   `json:"success"`
}

type locale struct {
	catalog *i18n.Catalog
	trans   ut.Translator
}

// Resolves the request locale from Accept-Language once per request
func Locale(catalog *i18n.Catalog) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(localeKey, &locale{
				catalog: catalog,
				trans:   catalog.Translator(c.Request().Header.Get(HeaderAcceptLanguage)),
			})
			return next(c)
		}
	}
}

func message(c echo.Context, key string) (int, string) {
	l, ok := c.Get(localeKey).(*locale)
	if !ok {
		return 0, key
	}

	return l.catalog.Message(l.trans, key)
}

func OK(c echo.Context, data any) error {
	return write(c, http.StatusOK, data, nil)
}

func Created(c echo.Context, data any) error {
	return write(c, http.StatusCreated, data, nil)
}

// `list` is always rendered, an empty slice included
func List[T any](c echo.Context, list []T) error {
	if list == nil {
		list = []T{}
	}

	return write(c, http.StatusOK, nil, list)
}

func write(c echo.Context, status int, data any, list any) error {
	code, msg := message(c, i18n.KeySuccess)

	return c.JSON(status, Envelope{
		Success: true,
		Code:    code,
		Msg:     msg,
		Data:    data,
		List:    list,
	})
}
