package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrPublishNacked = errors.New("broker did not confirm the message")

// Publisher 是 *amqp.Channel 中发布消息所需的部分
type Publisher interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
}

// QueueTransport 把邮件投递到 RabbitMQ，由 cmd/mail 消费后经 SMTP 发出。
// 通道处于 confirm 模式时，broker 确认后才视为发送成功
type QueueTransport struct {
	mu      sync.Mutex
	ch      Publisher
	queue   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewQueueTransport(ch Publisher, queue string, timeout time.Duration, logger *zap.Logger) *QueueTransport {
	return &QueueTransport{ch: ch, queue: queue, timeout: timeout, logger: logger}
}

func (t *QueueTransport) Send(ctx context.Context, m domain.Mail) error {
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	confirm, err := t.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		"",      // 默认交换机
		t.queue, // 路由键即队列名
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    m.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish mail: %w", err)
	}

	// 通道未开启 confirm 模式时 confirm 为 nil
	if confirm != nil {
		acked, err := confirm.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("wait for confirm: %w", err)
		}
		if !acked {
			return ErrPublishNacked
		}
	}

	t.logger.Info("邮件已投递到队列", zap.String("id", m.ID), zap.String("queue", t.queue))
	return nil
}
