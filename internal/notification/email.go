package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// EmailSender abstracts the outgoing mail channel. Implementations must
// tolerate duplicate sends for the same order; delivery upstream is
// at-least-once.
type EmailSender interface {
	SendPaymentConfirmation(ctx context.Context, orderCode string, amountVND int64, to string) error
	SendPaymentRejected(ctx context.Context, orderCode, reason, to string) error
}

// SMTPSender sends plain-text mails over a single SMTP relay.
type SMTPSender struct {
	log  *slog.Logger
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(log *slog.Logger, addr, from string, auth smtp.Auth) *SMTPSender {
	return &SMTPSender{log: log, addr: addr, from: from, auth: auth}
}

func (s *SMTPSender) SendPaymentConfirmation(_ context.Context, orderCode string, amountVND int64, to string) error {
	body := fmt.Sprintf("Subject: Order %s confirmed\r\n\r\nWe received your payment of %d VND. Order %s is being processed.\r\n",
		orderCode, amountVND, orderCode)
	return s.send(to, body)
}

func (s *SMTPSender) SendPaymentRejected(_ context.Context, orderCode, reason, to string) error {
	body := fmt.Sprintf("Subject: Order %s cancelled\r\n\r\nYour payment did not complete (code %s). Order %s has been cancelled.\r\n",
		orderCode, reason, orderCode)
	return s.send(to, body)
}

func (s *SMTPSender) send(to, body string) error {
	if to == "" {
		s.log.Warn("notification skipped, no recipient")
		return nil
	}
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(body)); err != nil {
		return err
	}
	s.log.Info("notification sent", "to", to)
	return nil
}
