package email

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Template defines the subject and plain-text body of an outbound email.
// Both fields are text/template expressions rendered against a data map.
type Template struct {
	ID      string
	Subject string
	Body    string
}

var templates = map[string]Template{
	"message_notify": {
		ID:      "message_notify",
		Subject: `New message about "{{.listing_title}}"`,
		Body: `You have a new message about "{{.listing_title}}":

{{.preview}}

Reply at {{.thread_url}}`,
	},
}

// RenderTemplate renders the named template against data and returns the
// subject and body.
func RenderTemplate(id string, data map[string]string) (string, string, error) {
	tmpl, ok := templates[id]
	if !ok {
		return "", "", fmt.Errorf("unknown email template: %s", id)
	}

	render := func(text string) (string, error) {
		t, err := template.New(id).Parse(text)
		if err != nil {
			return "", fmt.Errorf("failed to parse email template %s: %w", id, err)
		}
		var sb strings.Builder
		if err := t.Execute(&sb, data); err != nil {
			return "", fmt.Errorf("failed to render email template %s: %w", id, err)
		}
		return sb.String(), nil
	}

	subject, err := render(tmpl.Subject)
	if err != nil {
		return "", "", err
	}
	body, err := render(tmpl.Body)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// BuildRawMessage assembles a complete plain-text email, headers included,
// ready for Sender.Send.
func BuildRawMessage(from, to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
