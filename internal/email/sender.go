package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
)

// Sender defines the interface for sending emails. rawMessage must contain
// the complete message, headers included.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSender implements Sender using Go's net/smtp package.
type SMTPSender struct {
	cfg    *config.Config
	auth   smtp.Auth
	addr   string
	logger *zap.Logger
}

// NewSMTPSender creates a Sender. When no SMTP host is configured it falls
// back to a logging sender, which keeps local development mail-free.
func NewSMTPSender(cfg *config.Config, logger *zap.Logger) Sender {
	if cfg.SmtpHost == "" {
		logger.Info("SMTP host not configured, using logging email sender")
		return &LoggingSender{logger: logger}
	}

	auth := smtp.PlainAuth(
		"", // identity
		cfg.SmtpUsername,
		cfg.SmtpPassword,
		cfg.SmtpHost,
	)
	addr := fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort)

	return &SMTPSender{
		cfg:    cfg,
		auth:   auth,
		addr:   addr,
		logger: logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, rawMessage)
	if err != nil {
		s.logger.Error("failed to send email", zap.Strings("to", to), zap.Error(err))
		return fmt.Errorf("smtp error: %w", err)
	}
	s.logger.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

// LoggingSender logs email details instead of sending. Useful for development
// or when SMTP isn't configured.
type LoggingSender struct {
	logger *zap.Logger
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	s.logger.Info("email (logged, not sent)",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.ByteString("raw", rawMessage),
	)
	return nil
}
