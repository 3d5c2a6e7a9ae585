package mailer

import (
	"bytes"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
)

// VerifyPath is the confirmation endpoint the verification link points at.
const VerifyPath = "/api/v1/verify-email"

// VerificationURL builds <origin>/api/v1/verify-email?token=<escaped token>.
func VerificationURL(origin, token string) string {
	q := url.Values{}
	q.Set("token", token)
	return strings.TrimRight(origin, "/") + VerifyPath + "?" + q.Encode()
}

type content struct {
	Email string
	Link  string
}

var (
	verificationText = texttemplate.Must(texttemplate.New("verification").Parse(
		`Hello {{.Email}},

Please confirm your email address by opening the link below:

{{.Link}}

The link is valid for 24 hours. If you did not sign up, ignore this message.
`))
	verificationHTML = htmltemplate.Must(htmltemplate.New("verification").Parse(
		`<p>Hello {{.Email}},</p>
<p>Please confirm your email address by opening the link below:</p>
<p><a href="{{.Link}}">Confirm email</a></p>
<p>The link is valid for 24 hours. If you did not sign up, ignore this message.</p>
`))

	registrationText = texttemplate.Must(texttemplate.New("registration").Parse(
		`Hello {{.Email}},

Your password has been set and your registration is complete. You can now sign in.
`))
	registrationHTML = htmltemplate.Must(htmltemplate.New("registration").Parse(
		`<p>Hello {{.Email}},</p>
<p>Your password has been set and your registration is complete. You can now sign in.</p>
`))

	deletionText = texttemplate.Must(texttemplate.New("deletion").Parse(
		`Hello {{.Email}},

Your account and all of your articles have been deleted.
`))
	deletionHTML = htmltemplate.Must(htmltemplate.New("deletion").Parse(
		`<p>Hello {{.Email}},</p>
<p>Your account and all of your articles have been deleted.</p>
`))
)


func renderPair(text *texttemplate.Template, html *htmltemplate.Template, c content) (string, string, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, c); err != nil {
		return "", "", err
	}
	if err := html.Execute(&hb, c); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
