// Package email sends transactional mail over SMTP. The only message
// today is the password reset code.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	mail "github.com/wneessen/go-mail"
)

// Config holds SMTP settings. An empty Host leaves the service
// unconfigured; callers should check IsConfigured and fall back to
// logging instead of failing.
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Service sends mail through a single SMTP relay.
type Service struct {
	cfg    Config
	client *mail.Client
}

// NewService builds the SMTP client. Returns an unconfigured service
// (nil client) when no host is set.
func NewService(cfg Config) (*Service, error) {
	if cfg.Host == "" {
		return &Service{cfg: cfg}, nil
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Pass),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Service{cfg: cfg, client: client}, nil
}

// IsConfigured reports whether the service can actually deliver mail.
func (s *Service) IsConfigured() bool {
	return s.client != nil
}

type resetCodeData struct {
	Name string
	Code string
}

// SendResetCode delivers the 6-digit password reset code. The code
// expires one hour after issuance; the template says so.
func (s *Service) SendResetCode(ctx context.Context, to, name, code string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}
	body, err := renderTemplate(resetCodeTemplate, resetCodeData{Name: name, Code: code})
	if err != nil {
		return fmt.Errorf("render reset template: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject("Redefinição de Senha")
	msg.SetBodyString(mail.TypeTextHTML, body)

	return s.client.DialAndSendWithContext(ctx, msg)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const resetCodeTemplate = `<!DOCTYPE html>
<html>
<body>
    <p>Olá{{if .Name}}, {{.Name}}{{end}},</p>
    <p>Recebemos uma solicitação para redefinir sua senha.</p>
    <p>Use o código abaixo para criar uma nova senha:</p>
    <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px;">{{.Code}}</p>
    <p>O código expira em 1 hora.</p>
    <p>Se você não solicitou esta redefinição, por favor, ignore este e-mail.</p>
</body>
</html>`
