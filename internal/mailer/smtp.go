package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPTransport 每次发送都建立一次新连接，适合低频的通知邮件
type SMTPTransport struct {
	client   *mail.Client
	from     string
	fromName string
	logger   *zap.Logger
}

func clientOptions(cfg *config.Config) ([]mail.Option, error) {
	smtpCfg := cfg.Email.SMTP
	opts := []mail.Option{
		mail.WithPort(smtpCfg.Port),
		mail.WithTimeout(time.Duration(smtpCfg.DialTimeout) * time.Second),
	}

	switch strings.ToLower(smtpCfg.TLS) {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "starttls", "":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		return nil, fmt.Errorf("unknown SMTP TLS mode %q", smtpCfg.TLS)
	}

	if smtpCfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(smtpCfg.Username),
			mail.WithPassword(smtpCfg.Password),
		)
	}
	return opts, nil
}

func NewSMTPTransport(cfg *config.Config, logger *zap.Logger) (*SMTPTransport, error) {
	if cfg.Email.SMTP.Host == "" {
		return nil, ErrTransportNotConfigured
	}
	from := cfg.SenderAddress()
	if from == "" {
		return nil, errors.New("no sender address: set EMAIL_FROM or EMAIL_SMTP_USERNAME")
	}

	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client, err := mail.NewClient(cfg.Email.SMTP.Host, opts...)
	if err != nil {
		return nil, err
	}

	return &SMTPTransport{
		client:   client,
		from:     from,
		fromName: cfg.Email.FromName,
		logger:   logger,
	}, nil
}

// BuildMessage 把 domain.Mail 转换为 go-mail 的消息：纯文本为正文，HTML 为备选
func BuildMessage(fromName, from string, m domain.Mail) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(fromName, from); err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrInvalidMessage, err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("%w: recipient: %v", ErrInvalidMessage, err)
	}
	msg.Subject(m.Subject)
	if m.ID != "" {
		msg.SetMessageIDWithValue(messageID(m.ID, from))
	}

	if m.Text != "" {
		msg.SetBodyString(mail.TypeTextPlain, m.Text)
		if m.HTML != "" {
			msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
		}
	} else {
		msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	}
	return msg, nil
}

// messageID 补全 Message-ID 的域名部分（id@domain），域名取自发件地址
func messageID(id, from string) string {
	if strings.Contains(id, "@") {
		return id
	}
	host := "localhost"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		host = from[i+1:]
	}
	return id + "@" + host
}

func (t *SMTPTransport) Send(ctx context.Context, m domain.Mail) error {
	msg, err := BuildMessage(t.fromName, t.from, m)
	if err != nil {
		return err
	}
	if err := t.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	t.logger.Info("邮件已发送", zap.String("id", m.ID), zap.Int("recipients", len(m.To)))
	return nil
}

// Check 只建立连接并完成认证，不发送邮件
func (t *SMTPTransport) Check(ctx context.Context) error {
	if err := t.client.DialWithContext(ctx); err != nil {
		return err
	}
	return t.client.Close()
}
