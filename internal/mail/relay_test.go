package mail_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/mail"
)

type relayed struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func TestRelayMailer(t *testing.T) {
	ctx := context.Background()

	var received relayed
	var flaky atomic.Int32

	e := echo.New()
	e.POST("/send", func(c echo.Context) error {
		if err := c.Bind(&received); err != nil {
			return err
		}
		return c.NoContent(http.StatusAccepted)
	})
	e.POST("/flaky", func(c echo.Context) error {
		if flaky.Add(1) == 1 {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.POST("/reject", func(c echo.Context) error {
		return c.NoContent(http.StatusBadRequest)
	})

	server := httptest.NewServer(e)
	defer server.Close()

	msg := mail.Message{To: "new@keeper.or.kr", Subject: "code", Body: "123456"}

	t.Run("Delivered", func(t *testing.T) {
		mailer := mail.NewRelayMailer(mail.NewRetryClient(), fmt.Sprintf("%s/send", server.URL), "noreply@keeper.or.kr")

		require.NoError(t, mailer.Send(ctx, msg))
		assert.Equal(t, relayed{
			From:    "noreply@keeper.or.kr",
			To:      "new@keeper.or.kr",
			Subject: "code",
			Body:    "123456",
		}, received)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		mailer := mail.NewRelayMailer(mail.NewRetryClient(), fmt.Sprintf("%s/flaky", server.URL), "noreply@keeper.or.kr")

		require.NoError(t, mailer.Send(ctx, msg))
		assert.EqualValues(t, 2, flaky.Load())
	})

	t.Run("Rejected", func(t *testing.T) {
		mailer := mail.NewRelayMailer(mail.NewRetryClient(), fmt.Sprintf("%s/reject", server.URL), "noreply@keeper.or.kr")

		require.Error(t, mailer.Send(ctx, msg))
	})
}

func TestLogMailer(t *testing.T) {
	mailer := mail.NewLogMailer(logger.Logger)

	require.NoError(t, mailer.Send(context.Background(), mail.Message{To: "a@keeper.or.kr"}))
}
