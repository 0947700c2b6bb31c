// Package notify delivers outbound claim emails off the request path.
package notify

import (
	"context"
	"log/slog"
)

// Kind identifies which email template a message uses.
type Kind string

// Email kinds.
const (
	KindClaimApproved   Kind = "claim_approved"
	KindClaimRejected   Kind = "claim_rejected"
	KindPickupScheduled Kind = "pickup_scheduled"
)

// Message is a single outbound email.
type Message struct {
	Kind      Kind
	Recipient string
	ItemTitle string
	Detail    string
}

// Mailer sends a message. Implementations may fail transiently; the Queue
// retries them.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

// Send implements Mailer.
func (m LogMailer) Send(ctx context.Context, msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email",
		"kind", msg.Kind,
		"recipient", msg.Recipient,
		"item", msg.ItemTitle,
		"detail", msg.Detail,
	)
	return nil
}
