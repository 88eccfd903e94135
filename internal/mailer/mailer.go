// Package mailer is the SMTP boundary of the console. Delivery errors are
// classified here, at the edge, so no flow ever matches on provider message
// text itself.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends transactional mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	addr     string
	from     string
	fromName string
}

// NewSMTPMailer constructs an SMTPMailer. addr is host:port.
func NewSMTPMailer(addr, from, fromName string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from, fromName: fromName}
}

// Send delivers one message. The context is consulted before dialing; smtp
// itself has no cancellation hook.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.fromName, m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

var _ Mailer = (*SMTPMailer)(nil)
