package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/infra/logger"
)

type noopNotifier struct{}

func (noopNotifier) SendVerification(context.Context, port.VerificationMessage) error {
	return nil
}

// LoggingNotifier records verification dispatches for observability without
// delivering them. Used in development where no mailer is wired.
type LoggingNotifier struct {
	logger *zap.Logger
	isDev  bool
}

// NewLoggingNotifier constructs a notifier backed by structured logging. In
// development the raw code is logged to make manual verification possible;
// elsewhere only the masked contact appears.
func NewLoggingNotifier(log *zap.Logger, isDev bool) port.Notifier {
	if log == nil {
		return noopNotifier{}
	}
	return &LoggingNotifier{logger: log, isDev: isDev}
}

func (n *LoggingNotifier) SendVerification(_ context.Context, msg port.VerificationMessage) error {
	fields := []zap.Field{
		zap.String("contact", logger.MaskEmail(msg.Contact)),
		zap.String("username", msg.Username),
		zap.Time("expires_at", msg.ExpiresAt),
	}

	if n.isDev {
		fields = append(fields, zap.String("dev_code", msg.Code))
		if msg.Link != "" {
			fields = append(fields, zap.String("dev_link", msg.Link))
		}
	}

	n.logger.Info("dispatch verification message", fields...)
	return nil
}

var _ port.Notifier = (*LoggingNotifier)(nil)
