package mailer

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/config"
	"gopkg.in/gomail.v2"
)

// Welcome is a one-time welcome email for a freshly created account.
// Password is the plaintext credential chosen by the admin; it lives only in
// memory between the create call and delivery and is never logged.
type Welcome struct {
	To       string
	Username string
	Password string
}

// String deliberately omits the password so the value is safe to print.
func (w Welcome) String() string {
	return fmt.Sprintf("Welcome{To:%s Username:%s}", w.To, w.Username)
}

// Sender delivers welcome emails.
type Sender interface {
	SendWelcome(ctx context.Context, msg Welcome) error
}

// NewSender returns an SMTP sender when SMTP is configured, otherwise a
// sender that only logs the recipient.
func NewSender(cfg *config.Config, log zerolog.Logger) Sender {
	if cfg.MailEnabled() {
		return NewSMTPSender(cfg)
	}
	log.Warn().Msg("SMTP_HOST not set, welcome emails will only be logged")
	return NewLogSender(cfg.AppName, log)
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	dial    func() (gomail.SendCloser, error)
	from    string
	appName string
}

// NewSMTPSender creates an SMTPSender from config.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	return &SMTPSender{
		dial:    dialer.Dial,
		from:    cfg.EmailFrom,
		appName: cfg.AppName,
	}
}

// SendWelcome renders and sends the welcome email. It returns ctx.Err() as
// soon as ctx is done; a session still in flight is closed once it returns.
func (s *SMTPSender) SendWelcome(ctx context.Context, msg Welcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, text, html, err := Render(s.appName, msg)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	done := make(chan error, 1)
	go func() { done <- s.deliver(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func (s *SMTPSender) deliver(m *gomail.Message) error {
	sc, err := s.dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if err := gomail.Send(sc, m); err != nil {
		_ = sc.Close()
		return fmt.Errorf("smtp send: %w", err)
	}
	if err := sc.Close(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

// LogSender records that a welcome email would have been sent.
type LogSender struct {
	appName string
	log     zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(appName string, log zerolog.Logger) *LogSender {
	return &LogSender{appName: appName, log: log.With().Str("component", "log_mailer").Logger()}
}

// SendWelcome logs recipient and subject only.
func (s *LogSender) SendWelcome(_ context.Context, msg Welcome) error {
	s.log.Info().
		Str("to", msg.To).
		Str("subject", subjectFor(s.appName)).
		Msg("Welcome email (not sent, SMTP disabled)")
	return nil
}

// ─── Templates ─────────────────────────────────────────────────────────

type templateData struct {
	AppName  string
	Username string
	Email    string
	Password string
}

var textTmpl = texttemplate.Must(texttemplate.New("welcome.txt").Parse(
	`Welcome to {{.AppName}}!

Hello {{.Username}},

An account has been created for you. You can sign in with:

Email: {{.Email}}
Password: {{.Password}}

Please change your password after your first login.

Best regards,
The {{.AppName}} Team
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("welcome.html").Parse(
	`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h1 style="color: #2563eb;">Welcome to {{.AppName}}!</h1>
  <p>Hello {{.Username}},</p>
  <p>An account has been created for you. You can sign in with:</p>
  <div style="background: #f3f4f6; padding: 16px; border-radius: 8px;">
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>Password:</strong> {{.Password}}</p>
  </div>
  <p>Please change your password after your first login.</p>
  <p>Best regards,<br>The {{.AppName}} Team</p>
</body>
</html>
`))

func subjectFor(appName string) string {
	return fmt.Sprintf("Welcome to %s!", appName)
}

// Render produces the subject and both bodies of a welcome email.
func Render(appName string, msg Welcome) (subject, text, html string, err error) {
	data := templateData{AppName: appName, Username: msg.Username, Email: msg.To, Password: msg.Password}

	var tb, hb bytes.Buffer
	if err := textTmpl.Execute(&tb, data); err != nil {
		return "", "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&hb, data); err != nil {
		return "", "", "", fmt.Errorf("render html body: %w", err)
	}
	return subjectFor(appName), tb.String(), hb.String(), nil
}
