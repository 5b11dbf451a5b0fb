package fakeidm

import (
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// SMTPConfig configures optional real delivery of email verification codes.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// challengeMailer delivers email verification challenges over SMTP. Tests
// normally skip it and read codes through the server's challenge hook.
type challengeMailer struct {
	config SMTPConfig
	client *mail.Client
}

func newChallengeMailer(config SMTPConfig) (*challengeMailer, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
	}
	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &challengeMailer{config: config, client: client}, nil
}

func (m *challengeMailer) sendVerificationCode(to, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set to address: %w", err)
	}
	msg.Subject("Your verification code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("Your verification code is %s", code))

	if err := m.client.DialAndSend(msg); err != nil {
		slog.Error("Failed to send verification email", "err", err, "to", to)
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
