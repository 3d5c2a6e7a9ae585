// Package mailer renders and dispatches the transactional messages of the
// account lifecycle. Without SMTP credentials, or with sending disabled,
// messages are printed to the console and reported as delivered.
package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rohits-web03/blogapi/internal/config"
	"github.com/rs/zerolog/log"
)

type MessageKind string

const (
	KindVerification         MessageKind = "verification"
	KindRegistrationComplete MessageKind = "registration_complete"
	KindAccountDeletion      MessageKind = "account_deletion"
)

type Message struct {
	Kind    MessageKind
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

var messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blogapi_mail_messages_total",
	Help: "Transactional messages by kind and outcome.",
}, []string{"kind", "result"})

type Gateway struct {
	frontendURL string
	plainOnly   bool
	transport   Transport
	console     io.Writer
}

// New picks the SMTP transport when sending is enabled and credentials are complete.
func New(cfg config.MailConfig) *Gateway {
	g := &Gateway{
		frontendURL: cfg.FrontendURL,
		plainOnly:   cfg.PreferPlainText,
		console:     os.Stdout,
	}
	if cfg.EnableSending && cfg.CredentialsComplete() {
		g.transport = NewSMTPTransport(cfg)
	} else {
		log.Warn().
			Bool("enabled", cfg.EnableSending).
			Bool("credentials", cfg.CredentialsComplete()).
			Msg("email sending disabled, messages will be printed to stdout")
	}
	return g
}

// WithTransport overrides the delivery path; nil selects console output.
func (g *Gateway) WithTransport(t Transport) *Gateway {
	g.transport = t
	return g
}

func (g *Gateway) WithConsole(w io.Writer) *Gateway {
	g.console = w
	return g
}

func (g *Gateway) SendVerification(ctx context.Context, to, token string) error {
	text, html, err := renderPair(verificationText, verificationHTML, content{
		Email: to,
		Link:  VerificationURL(g.frontendURL, token),
	})
	if err != nil {
		return &Error{Kind: KindOther, Err: err}
	}
	return g.send(ctx, Message{
		Kind:    KindVerification,
		To:      to,
		Subject: "Confirm your email address",
		Text:    text,
		HTML:    html,
	})
}

func (g *Gateway) SendRegistrationComplete(ctx context.Context, to string) error {
	text, html, err := renderPair(registrationText, registrationHTML, content{Email: to})
	if err != nil {
		return &Error{Kind: KindOther, Err: err}
	}
	return g.send(ctx, Message{
		Kind:    KindRegistrationComplete,
		To:      to,
		Subject: "Registration complete",
		Text:    text,
		HTML:    html,
	})
}

func (g *Gateway) SendAccountDeletion(ctx context.Context, to string) error {
	text, html, err := renderPair(deletionText, deletionHTML, content{Email: to})
	if err != nil {
		return &Error{Kind: KindOther, Err: err}
	}
	return g.send(ctx, Message{
		Kind:    KindAccountDeletion,
		To:      to,
		Subject: "Your account has been deleted",
		Text:    text,
		HTML:    html,
	})
}

func (g *Gateway) send(ctx context.Context, m Message) error {
	if g.plainOnly {
		m.HTML = ""
	}

	if g.transport == nil {
		g.printToConsole(m)
		messagesTotal.WithLabelValues(string(m.Kind), "console").Inc()
		return nil
	}

	if err := g.transport.Send(ctx, m); err != nil {
		me := classify(err)
		messagesTotal.WithLabelValues(string(m.Kind), "failed").Inc()
		log.Error().
			Str("op", "mail."+string(m.Kind)).
			Str("reason", string(me.Kind)).
			Msg("mail dispatch failed")
		return me
	}
	messagesTotal.WithLabelValues(string(m.Kind), "sent").Inc()
	log.Info().Str("kind", string(m.Kind)).Str("to", m.To).Msg("mail sent")
	return nil
}

func (g *Gateway) printToConsole(m Message) {
	fmt.Fprintf(g.console, "----- email (%s) -----\nTo: %s\nSubject: %s\n\n%s", m.Kind, m.To, m.Subject, m.Text)
	if m.HTML != "" {
		fmt.Fprintf(g.console, "\n--- html ---\n%s", m.HTML)
	}
	fmt.Fprintln(g.console, "----- end email -----")
}
