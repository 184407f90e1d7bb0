package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"sort"
	"strings"
)

type Sender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(host, port, username, password, from string) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
	}
}

// Invitation describes one participant being added to an event.
type Invitation struct {
	To         string
	Name       string
	EventTitle string
	OwnerName  string
	StartDate  string
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px;">
        <h2>You're invited to {{.EventTitle}}</h2>
        <p>Hi {{.Name}},</p>
        <p>{{.OwnerName}} added you to <strong>{{.EventTitle}}</strong>, starting {{.StartDate}}.</p>
        <p>Open Event Planner to see the details and join the chat.</p>
    </div>
</body>
</html>
`))

func (s *Sender) SendInvitation(inv Invitation) error {
	var body bytes.Buffer
	if err := invitationTemplate.Execute(&body, inv); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("You're invited to %s", inv.EventTitle)

	// No host configured: log instead of sending.
	if s.Host == "" {
		slog.Info("mock invitation email", "to", inv.To, "subject", subject)
		return nil
	}

	headers := map[string]string{
		"From":         s.From,
		"To":           inv.To,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var message strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&message, "%s: %s\r\n", k, headers[k])
	}
	message.WriteString("\r\n")
	message.Write(body.Bytes())

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	return send(addr, auth, s.From, []string{inv.To}, []byte(message.String()))
}

// SendInvitationsAsync mails every invitation in the background. Failures are logged only.
func (s *Sender) SendInvitationsAsync(invs []Invitation) {
	if len(invs) == 0 {
		return
	}
	go func() {
		for _, inv := range invs {
			if err := s.SendInvitation(inv); err != nil {
				slog.Warn("failed to send invitation", "to", inv.To, "error", err)
			}
		}
	}()
}
