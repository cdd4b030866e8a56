package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email mails new requests to the staff inbox.
type Email struct {
	cfg  config.SMTP
	send sendFunc
}

func NewEmail(cfg config.SMTP) *Email {
	return &Email{cfg: cfg, send: smtp.SendMail}
}

func (e *Email) from() string {
	if e.cfg.User != "" {
		return e.cfg.User
	}
	return e.cfg.To
}

func (e *Email) Notify(ctx context.Context, s booking.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := emailBody(s)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	}

	from := e.from()
	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + e.cfg.To + "\r\n")
	msg.WriteString("Subject: " + emailSubject(s) + "\r\n")
	msg.WriteString("MIME-version: 1.0;\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, auth, from, []string{e.cfg.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp %s: %w", addr, err)
	}
	return nil
}
