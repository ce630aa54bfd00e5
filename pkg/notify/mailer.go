// Package notify delivers crisis alert emails over SMTP.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/mindhaven/bastion/pkg/crisis"
)

// SMTPConfig holds mail provider settings. An empty Host disables delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer implements crisis.Mailer over plain SMTP with optional AUTH.
type SMTPMailer struct {
	cfg SMTPConfig
	log *slog.Logger

	// sendMail is swapped in tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer builds a mailer, or nil when no host is configured so callers
// can disable the email channel outright.
func NewSMTPMailer(cfg SMTPConfig, log *slog.Logger) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if log == nil {
		log = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, log: log, sendMail: smtp.SendMail}
}

// Send delivers one plain-text email. Authentication and configuration
// failures wrap crisis.ErrAuthFailed so the fanout skips retries.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, to, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	if err := m.sendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("notify: smtp auth rejected: %w", crisis.ErrAuthFailed)
		}
		return fmt.Errorf("notify: send mail: %w", err)
	}
	return nil
}

// isAuthError classifies SMTP failures that retrying cannot fix: credential
// rejections (535, 530) and policy rejections of the sender (550 on MAIL).
func isAuthError(err error) bool {
	if protoErr, ok := err.(*textproto.Error); ok {
		switch protoErr.Code {
		case 530, 534, 535:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication failed") ||
		strings.Contains(msg, "username and password not accepted") ||
		strings.Contains(msg, "auth") && strings.Contains(msg, "credentials")
}
