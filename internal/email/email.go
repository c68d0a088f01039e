package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNotConfigured is returned when no SendGrid API key is set
var ErrNotConfigured = errors.New("SendGrid API key not configured")

// Message is one follow-up email to an attendee
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string // rendered from Text when empty
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// FollowUpSender delivers generated follow-up emails via SendGrid
type FollowUpSender struct {
	apiKey    string
	fromEmail string
	fromName  string
	client    sendClient
}

// NewFollowUpSender creates a new SendGrid sender
func NewFollowUpSender(apiKey, fromEmail, fromName string) *FollowUpSender {
	if fromEmail == "" {
		fromEmail = "noreply@webinarwins.com"
	}
	if fromName == "" {
		fromName = "WebinarWins"
	}
	s := &FollowUpSender{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
	if apiKey != "" {
		s.client = sendgrid.NewSendClient(apiKey)
	}
	return s
}

// Configured reports whether an API key is set
func (s *FollowUpSender) Configured() bool {
	return s.apiKey != "" && s.client != nil
}

// Send delivers msg
func (s *FollowUpSender) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}

	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = TextToHTML(msg.Text)
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, htmlBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}

// TextToHTML renders a plain-text body as simple HTML: blank-line separated
// paragraphs become <p> blocks and single newlines become <br>.
func TextToHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(line))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>\n"))
		b.WriteString("</p>\n")
	}
	return b.String()
}
