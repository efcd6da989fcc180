package mailer

import (
	"context"
	"errors"

	"github.com/hvac-crew/schedule/backend/internal/domain"
)

var (
	ErrTransportNotConfigured = errors.New("email transport not configured")
	// ErrInvalidMessage 表示邮件本身有问题（例如收件人地址非法），重试没有意义
	ErrInvalidMessage = errors.New("invalid mail message")
)

// Transport 把一封邮件交给外部系统。返回 nil 表示对方已经接收
type Transport interface {
	Send(ctx context.Context, m domain.Mail) error
}

// Unconfigured 在没有配置任何邮件通道时使用，所有发送都会失败
type Unconfigured struct{}

func (Unconfigured) Send(context.Context, domain.Mail) error {
	return ErrTransportNotConfigured
}
