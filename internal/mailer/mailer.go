package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"eventhub/internal/dto"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendRegistrationConfirmation sends the confirmation mail for a committed
// registration. When SMTP credentials are not configured the mail is skipped
// without error, so environments without mail still register fine.
func (m *Mailer) SendRegistrationConfirmation(msg dto.ConfirmationMessage) error {
	if m.cfg.From == "" || m.cfg.Password == "" {
		m.log.Warn().Msg("SMTP credentials not configured, skipping confirmation email")
		return nil
	}

	subject := fmt.Sprintf("Registration Confirmed — %s", msg.EventName)
	body := buildConfirmationBody(msg)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.Email}, []byte(b.String())); err != nil {
		m.log.Warn().Err(err).Str("email", msg.Email).Msg("failed to send confirmation email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", msg.Email).Str("event", msg.EventName).Msg("confirmation email sent")
	return nil
}

func buildConfirmationBody(msg dto.ConfirmationMessage) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Hi <strong>%s</strong>,</p>", msg.Name)
	fmt.Fprintf(&b, "<p>You have successfully registered for <strong>%s</strong>. We're excited to have you!</p>", msg.EventName)
	b.WriteString("<h3>Event Details</h3><ul>")
	if msg.EventDate != "" {
		fmt.Fprintf(&b, "<li>Date: %s</li>", msg.EventDate)
	}
	if msg.EventTime != "" {
		fmt.Fprintf(&b, "<li>Time: %s</li>", msg.EventTime)
	}
	if msg.EventMode != "" {
		fmt.Fprintf(&b, "<li>Mode: %s</li>", msg.EventMode)
	}
	if msg.EventLocation != "" {
		fmt.Fprintf(&b, "<li>Venue: %s</li>", msg.EventLocation)
	}
	b.WriteString("</ul>")
	if msg.CommunityLink != "" {
		fmt.Fprintf(&b, "<p><a href=\"%s\">Join the community</a></p>", msg.CommunityLink)
	}
	b.WriteString("<p>Make sure to be on time. If you have any questions, reach out to us!</p>")
	fmt.Fprintf(&b, "<p style=\"color:#6b7280;font-size:13px\">© %d — this is an automated confirmation email.</p>", time.Now().Year())
	b.WriteString("</body></html>")
	return b.String()
}
