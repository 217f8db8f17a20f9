// Package mail delivers transactional email such as sign-up codes.
package mail

import (
	"context"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/mail")

//go:generate mockgen -destination ./mock/mock.go -package mock . Mailer

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
