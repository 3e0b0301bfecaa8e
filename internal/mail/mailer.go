// Package mail sends transactional email over SMTP. A Mailer failure
// never fails the booking flow that triggered it; callers log and move
// on, the documents stay downloadable from the back office.
package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	Body        string // plain text
	Attachments []Attachment
}

// Mailer is implemented by the SMTP mailer below and by fakes in tests.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail through a single SMTP account.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTP dials nothing; the connection is opened per send.
func NewSMTP(host string, port int, user, pass, from string) (*SMTPMailer, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(user),
		gomail.WithPassword(pass),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// Send delivers one message with its attachments.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mail := gomail.NewMsg()
	if err := mail.From(m.from); err != nil {
		return err
	}
	if err := mail.To(msg.To); err != nil {
		return err
	}
	mail.Subject(msg.Subject)
	mail.SetBodyString(gomail.TypeTextPlain, msg.Body)
	for _, att := range msg.Attachments {
		if err := mail.AttachReader(att.Filename, bytes.NewReader(att.Content)); err != nil {
			return err
		}
	}
	return m.client.DialAndSendWithContext(ctx, mail)
}
