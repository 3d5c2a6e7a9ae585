package mailer

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/url"
	"testing"

	"github.com/rohits-web03/blogapi/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type recordingTransport struct {
	sent []Message
	err  error
}

func (r *recordingTransport) Send(_ context.Context, m Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func TestVerificationURL_EscapesToken(t *testing.T) {
	link := VerificationURL("http://localhost:8000/", "a+b/c=")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/verify-email", u.Path)
	assert.Equal(t, "a+b/c=", u.Query().Get("token"))
	assert.Contains(t, link, "token=a%2Bb%2Fc%3D")
}

func TestNew_WithoutCredentialsPrintsToConsole(t *testing.T) {
	var out bytes.Buffer
	g := New(config.MailConfig{EnableSending: true, FrontendURL: "http://front"}).WithConsole(&out)

	require.NoError(t, g.SendVerification(context.Background(), "a@x.com", "tok"))
	assert.Contains(t, out.String(), "To: a@x.com")
	assert.Contains(t, out.String(), "http://front/api/v1/verify-email?token=tok")
}

func TestSend_UsesTransport(t *testing.T) {
	rt := &recordingTransport{}
	g := New(config.MailConfig{FrontendURL: "http://front"}).WithTransport(rt)

	ctx := context.Background()
	require.NoError(t, g.SendVerification(ctx, "a@x.com", "tok"))
	require.NoError(t, g.SendRegistrationComplete(ctx, "a@x.com"))
	require.NoError(t, g.SendAccountDeletion(ctx, "a@x.com"))

	require.Len(t, rt.sent, 3)
	assert.Equal(t, KindVerification, rt.sent[0].Kind)
	assert.Equal(t, KindRegistrationComplete, rt.sent[1].Kind)
	assert.Equal(t, KindAccountDeletion, rt.sent[2].Kind)
	for _, m := range rt.sent {
		assert.Equal(t, "a@x.com", m.To)
		assert.NotEmpty(t, m.Subject)
		assert.NotEmpty(t, m.Text)
		assert.NotEmpty(t, m.HTML)
	}
}

func TestSend_PlainTextOnly(t *testing.T) {
	rt := &recordingTransport{}
	g := New(config.MailConfig{PreferPlainText: true}).WithTransport(rt)

	require.NoError(t, g.SendAccountDeletion(context.Background(), "a@x.com"))
	require.Len(t, rt.sent, 1)
	assert.Empty(t, rt.sent[0].HTML)
}

func TestSend_HTMLEscapesRecipient(t *testing.T) {
	rt := &recordingTransport{}
	g := New(config.MailConfig{}).WithTransport(rt)

	require.NoError(t, g.SendRegistrationComplete(context.Background(), "<b>@x.com"))
	assert.NotContains(t, rt.sent[0].HTML, "<b>@")
}

func TestSend_FailureIsTyped(t *testing.T) {
	rt := &recordingTransport{err: &net.OpError{Op: "dial", Err: errors.New("refused")}}
	g := New(config.MailConfig{}).WithTransport(rt)

	err := g.SendRegistrationComplete(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.Equal(t, KindConnection, KindOf(err))
	assert.Equal(t, "mail dispatch failed: connection", err.Error())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"rcpt rejected", &mail.SendError{Reason: mail.ErrSMTPRcptTo}, KindInvalidAddress},
		{"sender rejected", &mail.SendError{Reason: mail.ErrSMTPMailFrom}, KindInvalidAddress},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindConnection},
		{"typed passthrough", &Error{Kind: KindInvalidAddress}, KindInvalidAddress},
		{"unknown", errors.New("boom"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err).Kind)
		})
	}
}

func TestSMTPTransport_RejectsBadRecipient(t *testing.T) {
	tr := NewSMTPTransport(config.MailConfig{From: "noreply@example.com", Server: "localhost"})

	err := tr.Send(context.Background(), Message{To: "not an address", Subject: "s", Text: "t"})
	assert.Equal(t, KindInvalidAddress, KindOf(err))
}
