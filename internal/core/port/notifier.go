package port

import (
	"context"
	"time"
)

// VerificationMessage captures data needed to deliver challenge-redemption
// credentials to a freshly registered contact.
type VerificationMessage struct {
	Contact   string
	Username  string
	Code      string
	Link      string
	ExpiresAt time.Time
}

// Notifier delivers verification messages. The transport mechanics (SMTP,
// provider API) live behind this boundary and are not part of the core.
type Notifier interface {
	SendVerification(ctx context.Context, msg VerificationMessage) error
}
