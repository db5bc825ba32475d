// Package events publishes domain events about verification codes so a
// separate mailer can deliver them. The core never sends email itself.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/booktag/internal/logging"
)

const (
	DefaultExchange = "booktag.events"

	RoutingKeyVerificationCodeIssued = "booktag.email.verify.requested"
)

// VerificationCodeIssued is emitted after a code has been stored for a user.
type VerificationCodeIssued struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Publisher interface {
	PublishVerificationCodeIssued(ctx context.Context, evt VerificationCodeIssued) error
	Close() error
}

// LogPublisher writes events to the log instead of a broker. It is used
// when no RabbitMQ URL is configured.
type LogPublisher struct {
	logger logging.Logger
}

func NewLogPublisher(logger logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("module", "events")}
}

func (p *LogPublisher) PublishVerificationCodeIssued(ctx context.Context, evt VerificationCodeIssued) error {
	p.logger.Info(ctx, "verification code issued",
		"routing_key", RoutingKeyVerificationCodeIssued,
		"user_id", evt.UserID,
		"email", evt.Email,
		"expires_at", evt.ExpiresAt,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
