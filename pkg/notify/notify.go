// Package notify provides notification functionality for the domain checker application
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"os"
	"os/exec"
	"strings"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/logger"
)

// Message is a plain-text email
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers a message
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// render formats the message with RFC 5322 headers
func (m Message) render() []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=utf-8\r\n"+
			"\r\n"+
			"%s\r\n",
		m.From,
		m.To,
		m.Subject,
		strings.ReplaceAll(m.Body, "\n", "\r\n"),
	))
}

// SMTP sends mail through an SMTP relay
type SMTP struct {
	cfg *config.Config
	log *logger.Logger
}

// NewSMTP creates an SMTP mailer from the smtp_* settings
func NewSMTP(cfg *config.Config, log *logger.Logger) *SMTP {
	return &SMTP{
		cfg: cfg,
		log: log,
	}
}

// Send delivers msg via the configured relay. net/smtp has no context
// support, so ctx is only checked before dialing.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	s.log.Debugf("Sending mail to %s via %s", msg.To, addr)
	if err := smtp.SendMail(addr, auth, envelopeAddress(msg.From), []string{envelopeAddress(msg.To)}, msg.render()); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", addr, err)
	}

	s.log.Infof("Email notification sent to %s", msg.To)
	return nil
}

// Sendmail pipes mail into a local sendmail binary with -t
type Sendmail struct {
	Path string
	log  *logger.Logger
}

// NewSendmail creates a sendmail mailer
func NewSendmail(path string, log *logger.Logger) *Sendmail {
	return &Sendmail{Path: path, log: log}
}

// Send runs sendmail -t and writes the message to its stdin
func (s *Sendmail) Send(ctx context.Context, msg Message) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, s.Path, "-t")
	cmd.Stdin = bytes.NewReader(msg.render())
	cmd.Stderr = &stderr

	s.log.Debugf("Piping mail for %s into %s", msg.To, s.Path)
	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("%s failed: %w: %s", s.Path, err, detail)
		}
		return fmt.Errorf("%s failed: %w", s.Path, err)
	}

	s.log.Infof("Email notification handed to %s for %s", s.Path, msg.To)
	return nil
}

// LogOnly writes the message to the log instead of sending it
type LogOnly struct {
	log *logger.Logger
}

// NewLogOnly creates a mailer that only logs
func NewLogOnly(log *logger.Logger) *LogOnly {
	return &LogOnly{log: log}
}

// Send logs msg at warn level so it shows without --verbose
func (l *LogOnly) Send(_ context.Context, msg Message) error {
	l.log.Warnf("No mail transport configured, notification for %s:\n%s\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}

// New picks the mail transport: SMTP when a relay is set, else sendmail when the
// binary exists, else log only
func New(cfg *config.Config, log *logger.Logger) Mailer {
	if cfg.SMTPHost != "" {
		return NewSMTP(cfg, log)
	}
	if cfg.SendmailPath != "" {
		if info, err := os.Stat(cfg.SendmailPath); err == nil && !info.IsDir() {
			return NewSendmail(cfg.SendmailPath, log)
		}
		log.Debugf("sendmail not found at %s", cfg.SendmailPath)
	}
	return NewLogOnly(log)
}

// envelopeAddress extracts the bare address from "Name <addr>"
func envelopeAddress(addr string) string {
	if parsed, err := mail.ParseAddress(addr); err == nil {
		return parsed.Address
	}
	return strings.TrimSpace(addr)
}
