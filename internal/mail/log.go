package mail

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Mailer = (*LogMailer)(nil)

// Writes messages to the log instead of sending them. Development only.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "LogMailer.Send", trace.WithAttributes(
		attribute.String("subject", msg.Subject),
	))
	defer span.End()

	m.logger.InfoContext(ctx, "mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)

	span.SetStatus(codes.Ok, "logged mail")
	return nil
}
