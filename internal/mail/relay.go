package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Mailer = (*RelayMailer)(nil)

// Posts messages as JSON to an HTTP mail relay
type RelayMailer struct {
	client *http.Client
	url    string
	from   string
}

type relayRequest struct {
	From string `json:"from"`
	Message
}

func NewRetryClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	return retryClient.StandardClient()
}

func NewRelayMailer(client *http.Client, url string, from string) *RelayMailer {
	return &RelayMailer{client: client, url: url, from: from}
}

func (m *RelayMailer) Send(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "RelayMailer.Send", trace.WithAttributes(
		attribute.String("url", m.url),
		attribute.String("subject", msg.Subject),
	))
	defer span.End()

	body, err := json.Marshal(relayRequest{From: m.from, Message: msg})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal message")
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach relay")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("invalid status code: %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid status code")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "relayed mail")
	return nil
}
