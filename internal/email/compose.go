package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"mailloop/internal/models"
)

const passwordResetSubject = "Reset your password"

const passwordResetText = `Hi,

We received a request to reset the password for your account.

Reset it here: {{.Link}}

The link expires in one hour. If you didn't request this, you can
safely ignore this email.
`

const passwordResetHTML = `<p>Hi,</p>
<p>We received a request to reset the password for your account.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>The link expires in one hour. If you didn't request this, you can
safely ignore this email.</p>
`

const verificationSubject = "Verify your email address"

const verificationText = `Hi,

Please confirm your email address to finish setting up your account.

Confirm here: {{.Link}}

If you didn't create an account, you can safely ignore this email.
`

const verificationHTML = `<p>Hi,</p>
<p>Please confirm your email address to finish setting up your account.</p>
<p><a href="{{.Link}}">Confirm your email</a></p>
<p>If you didn't create an account, you can safely ignore this email.</p>
`

var (
	passwordResetTextTmpl = texttemplate.Must(texttemplate.New("password_reset_text").Parse(passwordResetText))
	passwordResetHTMLTmpl = htmltemplate.Must(htmltemplate.New("password_reset_html").Parse(passwordResetHTML))
	verificationTextTmpl  = texttemplate.Must(texttemplate.New("verification_text").Parse(verificationText))
	verificationHTMLTmpl  = htmltemplate.Must(htmltemplate.New("verification_html").Parse(verificationHTML))
)

type linkData struct {
	Link string
}

// ComposePasswordReset builds a ready-to-enqueue password reset email.
func ComposePasswordReset(to, resetURL string) (models.EmailJob, error) {
	return composeLinked(to, passwordResetSubject, passwordResetTextTmpl, passwordResetHTMLTmpl, resetURL)
}

// ComposeVerification builds a ready-to-enqueue verification email.
func ComposeVerification(to, verifyURL string) (models.EmailJob, error) {
	return composeLinked(to, verificationSubject, verificationTextTmpl, verificationHTMLTmpl, verifyURL)
}

func composeLinked(
	to, subject string,
	textTmpl *texttemplate.Template,
	htmlTmpl *htmltemplate.Template,
	link string,
) (models.EmailJob, error) {

	data := linkData{Link: link}

	var text bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return models.EmailJob{}, fmt.Errorf("template execution error: %w", err)
	}

	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return models.EmailJob{}, fmt.Errorf("template execution error: %w", err)
	}

	job := models.EmailJob{
		To:       to,
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
		Status:   models.StatusPending,
	}
	if err := job.Validate(); err != nil {
		return models.EmailJob{}, err
	}
	return job, nil
}

// RenderBodies renders caller-supplied text and HTML body templates
// against per-recipient fields (bulk sends). Either template may be
// empty; at least one must render to a non-empty body.
func RenderBodies(textTpl, htmlTpl string, fields map[string]string) (text string, html string, err error) {
	if textTpl != "" {
		t, err := texttemplate.New("bulk_text").Parse(textTpl)
		if err != nil {
			return "", "", fmt.Errorf("template parse error: %w", err)
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, fields); err != nil {
			return "", "", fmt.Errorf("template execution error: %w", err)
		}
		text = buf.String()
	}

	if htmlTpl != "" {
		t, err := htmltemplate.New("bulk_html").Parse(htmlTpl)
		if err != nil {
			return "", "", fmt.Errorf("template parse error: %w", err)
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, fields); err != nil {
			return "", "", fmt.Errorf("template execution error: %w", err)
		}
		html = buf.String()
	}

	return text, html, nil
}
