package notifications

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer delivers mail through the SendGrid v3 API.
type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendgridMailer(key, senderName, senderEmail string) *SendgridMailer {
	return &SendgridMailer{
		key:        key,
		from:       sgmail.NewEmail(senderName, senderEmail),
		subjPrefix: "[" + senderName + "] ",
	}
}

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(recipientName(msg), msg.ToEmail))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)
	return mail
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" || !strings.Contains(msg.ToEmail, "@") {
		return errors.Errorf("invalid recipient email: %q", msg.ToEmail)
	}

	req := sendgrid.GetRequest(m.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sending email: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer writes mail to the log instead of sending it. It stands in when
// no SendGrid key is configured.
type LogMailer struct {
	mu   sync.Mutex
	sent []Message
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	log.Infow("📧 email (not sent)", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// Sent returns a copy of every message written so far.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// NewMailer picks SendGrid when a key is present and the log mailer otherwise.
func NewMailer(apiKey, senderName, senderEmail string) Mailer {
	if apiKey == "" || senderEmail == "" {
		log.Warn("⚠️ Email service not configured, mail goes to the log")
		return &LogMailer{}
	}
	log.Info("✅ Email service initialized successfully.")
	return NewSendgridMailer(apiKey, senderName, senderEmail)
}

func recipientName(msg Message) string {
	if msg.ToName != "" {
		return msg.ToName
	}
	if i := strings.Index(msg.ToEmail, "@"); i > 0 {
		return msg.ToEmail[:i]
	}
	return msg.ToEmail
}
