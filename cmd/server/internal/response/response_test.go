package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/cmd/server/internal/i18n"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/validator"
)

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()

	catalog, err := i18n.Load()
	require.NoError(t, err)

	e := echo.New()
	v := validator.Create()
	e.Validator = &v
	e.HTTPErrorHandler = HTTPErrorHandler(slog.Default())
	e.Use(Locale(catalog))

	return e
}

func do(t *testing.T, e *echo.Echo, path string, lang string) (int, Envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if lang != "" {
		req.Header.Set(HeaderAcceptLanguage, lang)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return rec.Code, body
}

func TestHTTPErrorHandler(t *testing.T) {
	e := newEcho(t)

	cases := []struct {
		err    error
		name   string
		msg    string
		status int
		code   int
	}{
		{name: "NotFound", err: apperr.ContestNotFound, status: http.StatusNotFound, code: -1200, msg: "Contest not found."},
		{name: "AccessDenied", err: apperr.AccessDenied, status: http.StatusForbidden, code: -1002},
		{name: "Unauthenticated", err: apperr.SignInFailed, status: http.StatusUnauthorized, code: -1101},
		{name: "StateConflict", err: apperr.ContestNotJoinable, status: http.StatusBadRequest, code: -1201},
		{name: "Invalid", err: apperr.InvalidAuthCode, status: http.StatusBadRequest, code: -1102},
		{name: "DataIntegrity", err: apperr.ProblemHasSubmissions, status: http.StatusConflict, code: -1205},
		{name: "RateLimited", err: apperr.RateLimited, status: http.StatusTooManyRequests, code: -1004},
		{
			name:   "WrappedAppErr",
			err:    fmt.Errorf("join: %w", apperr.AlreadyInTeam.Wrap(errors.New("dup"))),
			status: http.StatusBadRequest,
			code:   -1207,
		},
		{name: "GormNotFound", err: gorm.ErrRecordNotFound, status: http.StatusNotFound, code: -1000},
		{name: "GormDuplicate", err: gorm.ErrDuplicatedKey, status: http.StatusConflict, code: -1005},
		{name: "GormForeignKey", err: gorm.ErrForeignKeyViolated, status: http.StatusConflict, code: -1005},
		{
			name:   "PgUnique",
			err:    &pgconn.PgError{Code: "23505"},
			status: http.StatusConflict,
			code:   -1005,
		},
		{
			name:   "PgForeignKey",
			err:    fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"}),
			status: http.StatusConflict,
			code:   -1005,
		},
		{
			name:   "PgCheck",
			err:    &pgconn.PgError{Code: "23514", ConstraintName: "problems_min_score_check"},
			status: http.StatusBadRequest,
			code:   -1001,
		},
		{name: "GormCheck", err: gorm.ErrCheckConstraintViolated, status: http.StatusBadRequest, code: -1001},
		{name: "EchoBadRequest", err: echo.ErrBadRequest, status: http.StatusBadRequest, code: -1001},
		{
			name:   "Override",
			err:    apperr.BookOverTheMax.WithOverride("only 4 copies"),
			status: http.StatusBadRequest,
			code:   -1301,
			msg:    "only 4 copies",
		},
		{
			name:   "Unknown",
			err:    errors.New("connection reset with secret details"),
			status: http.StatusInternalServerError,
			code:   -9999,
			msg:    "An unknown error occurred.",
		},
	}

	for i, tc := range cases {
		path := fmt.Sprintf("/case/%d", i)
		err := tc.err
		e.GET(path, func(echo.Context) error { return err })

		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, e, path, "en")

			assert.Equal(t, tc.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, body.Msg)
			}
			assert.NotContains(t, body.Msg, "secret")
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	e := newEcho(t)

	type req struct {
		Email string `query:"email" validate:"required,email"`
	}

	e.GET("/validate", func(c echo.Context) error {
		var r req
		if err := c.Bind(&r); err != nil {
			return err
		}
		return c.Validate(&r)
	})

	status, body := do(t, e, "/validate?email=nope", "ko")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "잘못된 요청입니다.", body.Msg)

	fields, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
}

func TestSuccessEnvelope(t *testing.T) {
	e := newEcho(t)

	e.GET("/ok", func(c echo.Context) error { return OK(c, map[string]int{"a": 1}) })
	e.GET("/list", func(c echo.Context) error { return List[int](c, nil) })

	status, body := do(t, e, "/ok", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "성공하였습니다.", body.Msg)
	assert.Equal(t, map[string]any{"a": float64(1)}, body.Data)

	_, body = do(t, e, "/list", "en")
	assert.Equal(t, []any{}, body.List)
	assert.Equal(t, "Success.", body.Msg)
}
