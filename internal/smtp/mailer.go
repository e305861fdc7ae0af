package smtp

import (
	"bytes"
	"embed"
	htmlTemplate "html/template"
	textTemplate "text/template"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	defaultTimeout = 10 * time.Second
	sendAttempts   = 3
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type MailClient interface {
	DialAndSend(...*mail.Msg) error
}

type Mailer struct {
	client    MailClient
	from      string
	retryWait time.Duration
}

func NewMailer(host string, port int, username, password, from string) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithTimeout(defaultTimeout),
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, err
	}

	return NewMailerWithClient(client, from), nil
}

// NewMailerWithClient позволяет подменить SMTP клиента.
func NewMailerWithClient(client MailClient, from string) *Mailer {
	return &Mailer{client: client, from: from, retryWait: 2 * time.Second}
}

// Send рендерит шаблон (блоки subject, plainBody и опционально htmlBody) и
// отправляет письмо, повторяя попытку до трёх раз.
func (m *Mailer) Send(recipient string, data any, patterns ...string) error {
	paths := make([]string, len(patterns))
	for i, p := range patterns {
		paths[i] = "templates/" + p
	}

	msg := mail.NewMsg()
	if err := msg.To(recipient); err != nil {
		return err
	}
	if err := msg.From(m.from); err != nil {
		return err
	}

	ts, err := textTemplate.New("").ParseFS(templatesFS, paths...)
	if err != nil {
		return err
	}

	subject := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(subject, "subject", data); err != nil {
		return err
	}
	msg.Subject(subject.String())

	plainBody := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return err
	}
	msg.SetBodyString(mail.TypeTextPlain, plainBody.String())

	if ts.Lookup("htmlBody") != nil {
		hts, err := htmlTemplate.New("").ParseFS(templatesFS, paths...)
		if err != nil {
			return err
		}
		htmlBody := new(bytes.Buffer)
		if err := hts.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
			return err
		}
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody.String())
	}

	for i := 1; i <= sendAttempts; i++ {
		err = m.client.DialAndSend(msg)
		if err == nil {
			return nil
		}
		if i != sendAttempts {
			time.Sleep(m.retryWait)
		}
	}

	return err
}
