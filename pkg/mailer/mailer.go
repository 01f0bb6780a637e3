package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	TemplateEmailVerification = "emailVerification"
	TemplateForgotPassword    = "forgotPassword"
)

// Message is one outbound email. URL is the link rendered into the template.
type Message struct {
	Subject  string `json:"subject"`
	To       string `json:"to"`
	From     string `json:"from"`
	ReplyTo  string `json:"reply_to"`
	Template string `json:"template"`
	Name     string `json:"name"`
	URL      string `json:"url"`
}

func (m Message) Validate() error {
	if m.To == "" || m.From == "" {
		return fmt.Errorf("message needs both sender and recipient")
	}
	if templates.Lookup(m.Template+".html") == nil {
		return fmt.Errorf("unknown mail template %q", m.Template)
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Render executes the message's template.
func Render(msg Message) (string, error) {
	tmpl := templates.Lookup(msg.Template + ".html")
	if tmpl == nil {
		return "", fmt.Errorf("unknown mail template %q", msg.Template)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"Name": msg.Name,
		"Link": msg.URL,
	}); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", msg.Template, err)
	}
	return buf.String(), nil
}

// Compose builds the RFC 5322 message with an HTML body.
func Compose(msg Message) ([]byte, error) {
	htmlBody, err := Render(msg)
	if err != nil {
		return nil, err
	}

	headers := []string{
		fmt.Sprintf("From: %s", msg.From),
		fmt.Sprintf("To: %s", msg.To),
	}
	if msg.ReplyTo != "" {
		headers = append(headers, fmt.Sprintf("Reply-To: %s", msg.ReplyTo))
	}
	headers = append(headers,
		fmt.Sprintf("Subject: %s", msg.Subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	)
	return []byte(strings.Join(headers, "\r\n")), nil
}
