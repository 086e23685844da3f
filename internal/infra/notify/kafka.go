package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/infra/config"
	"github.com/mkordulewski/accounts-service/internal/infra/kafka"
	"github.com/mkordulewski/accounts-service/internal/infra/logger"
)

// KafkaNotifier hands verification messages to the mailer topic. A downstream
// mailer service owns rendering and SMTP delivery.
type KafkaNotifier struct {
	producer *kafka.Producer
	topic    string
	from     string
	logger   *zap.Logger
}

// NewKafkaNotifier constructs a notifier that publishes to cfg.Topic.
func NewKafkaNotifier(producer *kafka.Producer, cfg config.MailSettings, log *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		topic:    cfg.Topic,
		from:     cfg.From,
		logger:   log,
	}
}

type mailMessage struct {
	Kind      string    `json:"kind"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Username  string    `json:"username"`
	Code      string    `json:"code"`
	Link      string    `json:"link,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (n *KafkaNotifier) SendVerification(ctx context.Context, msg port.VerificationMessage) error {
	payload := mailMessage{
		Kind:      "account_verification",
		From:      n.from,
		To:        msg.Contact,
		Username:  msg.Username,
		Code:      msg.Code,
		Link:      msg.Link,
		ExpiresAt: msg.ExpiresAt.UTC(),
	}

	bytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: n.producer.TopicName(n.topic),
		Key:   sarama.StringEncoder(msg.Contact),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case n.producer.Producer().Input() <- message:
	case <-ctx.Done():
		return ctx.Err()
	}

	n.logger.Debug("verification message queued",
		zap.String("contact", logger.MaskEmail(msg.Contact)),
	)
	return nil
}

var _ port.Notifier = (*KafkaNotifier)(nil)
