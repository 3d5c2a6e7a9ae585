package mailer

import (
	"context"
	"time"

	"github.com/rohits-web03/blogapi/internal/config"
	"github.com/wneessen/go-mail"
)

const defaultSendTimeout = 15 * time.Second

// SMTPTransport submits messages through an authenticated SMTP server.
type SMTPTransport struct {
	cfg config.MailConfig
}

func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(t.cfg.Username),
		mail.WithPassword(t.cfg.Password),
		mail.WithTimeout(t.cfg.Timeout),
	}
	switch {
	case t.cfg.SSLTLS:
		opts = append(opts, mail.WithSSL())
	case t.cfg.StartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return opts
}

func (t *SMTPTransport) Send(ctx context.Context, m Message) error {
	msg := mail.NewMsg()
	if err := msg.From(t.cfg.From); err != nil {
		return &Error{Kind: KindInvalidAddress, Err: err}
	}
	if err := msg.To(m.To); err != nil {
		return &Error{Kind: KindInvalidAddress, Err: err}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	}

	client, err := mail.NewClient(t.cfg.Server, t.options()...)
	if err != nil {
		return &Error{Kind: KindOther, Err: err}
	}
	return client.DialAndSendWithContext(ctx, msg)
}
