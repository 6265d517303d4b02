package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realestate_backend/internal/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const (
	defaultTransportTimeout = 5 * time.Second
	maxTransportTimeout     = 8 * time.Second
)

// Message is one outgoing HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers a message through one relay.
type Transport interface {
	Name() string
	Timeout() time.Duration
	Send(ctx context.Context, from string, msg Message) error
}

// SMTPTransport sends through an SMTP relay with go-mail.
type SMTPTransport struct {
	cfg     config.SMTPTransport
	timeout time.Duration
}

func NewSMTPTransport(cfg config.SMTPTransport, fallbackTimeout time.Duration) *SMTPTransport {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = fallbackTimeout
	}
	if timeout <= 0 {
		timeout = defaultTransportTimeout
	}
	if timeout > maxTransportTimeout {
		timeout = maxTransportTimeout
	}
	return &SMTPTransport{cfg: cfg, timeout: timeout}
}

func (t *SMTPTransport) Name() string {
	if t.cfg.Name != "" {
		return t.cfg.Name
	}
	return t.cfg.Host
}

func (t *SMTPTransport) Timeout() time.Duration { return t.timeout }

func (t *SMTPTransport) Send(ctx context.Context, from string, msg Message) error {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	return client.DialAndSendWithContext(ctx, m)
}

// ErrNoTransport is returned when no relay is configured.
var ErrNoTransport = errors.New("no mail transport configured")

// FallbackMailer tries each transport in order until one accepts the message.
type FallbackMailer struct {
	from       string
	transports []Transport
	logger     *zap.Logger
}

func NewFallbackMailer(from string, transports []Transport, logger *zap.Logger) *FallbackMailer {
	return &FallbackMailer{from: from, transports: transports, logger: logger}
}

// NewMailerFromConfig builds a FallbackMailer over the configured SMTP relays.
func NewMailerFromConfig(cfg *config.Config, logger *zap.Logger) *FallbackMailer {
	transports := make([]Transport, 0, len(cfg.SMTPTransports))
	for _, tc := range cfg.SMTPTransports {
		transports = append(transports, NewSMTPTransport(tc, cfg.SMTPTimeout))
	}
	return NewFallbackMailer(cfg.SMTPFrom, transports, logger.Named("mailer"))
}

// Send returns the last transport error when every transport failed.
func (m *FallbackMailer) Send(ctx context.Context, msg Message) error {
	if len(m.transports) == 0 {
		return ErrNoTransport
	}
	var lastErr error
	for _, t := range m.transports {
		tctx, cancel := context.WithTimeout(ctx, t.Timeout())
		err := t.Send(tctx, m.from, msg)
		cancel()
		if err == nil {
			m.logger.Debug("Email sent", zap.String("transport", t.Name()), zap.String("subject", msg.Subject))
			return nil
		}
		m.logger.Warn("Mail transport failed, trying next",
			zap.String("transport", t.Name()),
			zap.Duration("timeout", t.Timeout()),
			zap.Error(err),
		)
		lastErr = fmt.Errorf("%s: %w", t.Name(), err)
		if ctx.Err() != nil {
			break
		}
	}
	return lastErr
}
