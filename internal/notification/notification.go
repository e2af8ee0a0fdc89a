package notification

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

const (
	// KindOTP indicates a one-time-password delivery.
	KindOTP = "otp"
)

// Message describes an outbound notification payload.
type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// Notifier delivers notifications out-of-band. A delivery failure must be
// returned to the caller, never swallowed.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger. It stands in
// for a real mail channel in development and tests. OTP codes are not logged.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message metadata to the logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "to", message.To, "subject", message.Subject)
	return nil
}

// Mailer delivers notifications over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer constructs an SMTP-backed notifier.
func NewMailer(host string, port int, user, password, from string) *Mailer {
	return &Mailer{dialer: gomail.NewDialer(host, port, user, password), from: from}
}

// Send delivers the message as a plain-text email. The dial blocks on network
// I/O; callers must not hold ledger locks across it.
func (m *Mailer) Send(_ context.Context, message Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", message.To)
	msg.SetHeader("Subject", message.Subject)
	msg.SetBody("text/plain", message.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", message.To, err)
	}
	return nil
}
