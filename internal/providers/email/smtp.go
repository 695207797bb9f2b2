package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
)

//go:embed templates/*.html
var templateFS embed.FS

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg       Config
	templates *template.Template
}

func NewSMTP(cfg Config) (*SMTPProvider, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &SMTPProvider{cfg: cfg, templates: templates}, nil
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to[0], subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, p.cfg.From, to, msg)
}

func (p *SMTPProvider) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]interface{}) error {
	var body bytes.Buffer
	if err := p.templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", templateName, err)
	}

	subject := "Notification from OrbitCRM"
	if subj, ok := data["subject"].(string); ok && subj != "" {
		subject = subj
	} else {
		switch templateName {
		case "portal_invite":
			if orgName, ok := data["org_name"].(string); ok && orgName != "" {
				subject = fmt.Sprintf("%s invited you to their client portal", orgName)
			} else {
				subject = "You have been invited to a client portal"
			}
		case "invoice_sent":
			if number, ok := data["invoice_number"].(string); ok && number != "" {
				subject = fmt.Sprintf("Invoice %s", number)
			} else {
				subject = "You have a new invoice"
			}
		}
	}

	return p.Send(ctx, to, subject, body.String())
}
