package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/mailer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var smtpCheckTo string

// smtpCheckCmd 与 /diag/smtp 相同：校验连接与认证，可选发送测试邮件
var smtpCheckCmd = &cobra.Command{
	Use:   "smtp-check",
	Short: "Verify SMTP connectivity and optionally send a test message",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		transport, err := mailer.NewSMTPTransport(cfg, zap.NewNop())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := transport.Check(ctx); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "SMTP %s:%d verified\n", cfg.Email.SMTP.Host, cfg.Email.SMTP.Port)

		if smtpCheckTo == "" {
			return nil
		}
		return sendTestMail(ctx, cmd, transport, smtpCheckTo)
	},
}

func init() {
	smtpCheckCmd.Flags().StringVar(&smtpCheckTo, "to", "", "Send a test message to this address")
}

func sendTestMail(ctx context.Context, cmd *cobra.Command, transport mailer.Transport, to string) error {
	id := uuid.NewString()
	err := transport.Send(ctx, domain.Mail{
		ID:      id,
		To:      []string{to},
		Subject: "SMTP test from schedctl",
		HTML:    "<p>SMTP diagnostics: this test message was delivered.</p>",
		Text:    "SMTP diagnostics: this test message was delivered.",
	})
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "test message %s sent to %s\n", id, to)
	return nil
}
