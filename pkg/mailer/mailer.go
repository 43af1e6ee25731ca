package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Result carries the Message-ID header assigned to a delivered message.
type Result struct {
	MessageID string
}

// Sender delivers emails. Implementations return delivery errors to the caller.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends messages through an authenticated SMTP relay.
type SMTPSender struct {
	dialer dialer
	from   string
	domain string
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errors.New("smtp host and port are required")
	}
	if cfg.FromAddress == "" {
		return nil, errors.New("smtp from address is required")
	}
	return newSMTPSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg), nil
}

func newSMTPSender(d dialer, cfg config.SMTPConfig) *SMTPSender {
	from := (&mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}).String()
	domain := cfg.FromAddress
	if at := strings.LastIndex(domain, "@"); at >= 0 {
		domain = domain[at+1:]
	}
	return &SMTPSender{dialer: d, from: from, domain: domain}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if msg.To == "" {
		return Result{}, errors.New("recipient is required")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return Result{}, fmt.Errorf("sending email to %s: %w", msg.To, err)
	}
	return Result{MessageID: messageID}, nil
}
