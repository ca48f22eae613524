// Package mail delivers transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends mail through a relay such as Mailpit or a provider gateway.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
	now  func() time.Time
}

// NewSMTPSender builds a sender. PLAIN auth is used only when a username is set.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
		now:  time.Now,
	}
}

// Send delivers msg. net/smtp has no context support, so ctx is only checked
// before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("mail: recipient required")
	}
	if strings.ContainsAny(msg.To+msg.Subject, "\r\n") {
		return errors.New("mail: header injection rejected")
	}
	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) render(msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(msg.Body)
	return buf.Bytes()
}
