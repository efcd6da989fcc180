package mailer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Worker 消费邮件队列并通过下游 Transport（通常是 SMTP）发送
type Worker struct {
	transport Transport
	logger    *zap.Logger
}

func NewWorker(transport Transport, logger *zap.Logger) *Worker {
	return &Worker{transport: transport, logger: logger}
}

// Handle 处理一条消息：格式错误的消息直接丢弃，发送失败的消息重新入队
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	m := domain.Mail{}
	if err := json.Unmarshal(d.Body, &m); err != nil {
		w.logger.Error("邮件信息反序列化失败", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if len(m.To) == 0 {
		w.logger.Error("邮件没有收件人", zap.String("id", m.ID))
		_ = d.Nack(false, false)
		return
	}
	if m.ID == "" {
		m.ID = d.MessageId
	}

	if err := w.transport.Send(ctx, m); err != nil {
		w.logger.Error("邮件发送失败", zap.String("id", m.ID), zap.Error(err))
		// 收件人地址非法之类的错误重试也不会成功
		requeue := !errors.Is(err, ErrInvalidMessage)
		_ = d.Nack(false, requeue)
		return
	}

	_ = d.Ack(false)
}

// Run 持续消费直到 ctx 取消或通道关闭
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("消息通道已关闭")
				return
			}
			w.Handle(ctx, d)
		}
	}
}
