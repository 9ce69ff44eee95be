package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"ticketwatch/internal/components/chrono"
	"ticketwatch/internal/status"
	"time"

	"github.com/jordan-wright/email"
)

type EmailConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
	// MinSeverity is one of low, normal or critical, defaults to low.
	MinSeverity string `json:"min_severity"`
}

// Email collects notifications and sends them as a single digest on Close.
type Email struct {
	config      EmailConfig
	minSeverity status.Severity
	time        chrono.TimeAPI
	send        func(mail *email.Email) error

	mutex   sync.Mutex
	pending []Notification
}

func NewEmail(config EmailConfig, clock chrono.TimeAPI) (*Email, error) {
	if config.Server == "" || config.EmailAddress == "" {
		return nil, fmt.Errorf("email notifier needs a server and a sender address")
	}
	if len(config.To) == 0 {
		return nil, fmt.Errorf("email notifier needs at least one recipient")
	}
	if config.Port == 0 {
		config.Port = 587
	}

	minSeverity := status.SEVERITY_LOW
	if config.MinSeverity != "" {
		parsed, ok := status.ParseSeverity(config.MinSeverity)
		if !ok {
			return nil, fmt.Errorf("unknown severity '%s'", config.MinSeverity)
		}
		minSeverity = parsed
	}

	if clock == nil {
		clock, _ = chrono.NewStandardImpl("")
	}

	e := &Email{
		config:      config,
		minSeverity: minSeverity,
		time:        clock,
	}
	e.send = e.sendSmtp
	return e, nil
}

func (e *Email) Notify(_ context.Context, n Notification) error {
	if n.Severity < e.minSeverity {
		return nil
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.pending = append(e.pending, n)
	return nil
}

func (e *Email) digest(pending []Notification) *email.Email {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("Order status check at %s\n\n", e.time.Now().Format(time.DateTime)))
	for _, n := range pending {
		body.WriteString(fmt.Sprintf("[%s] %s: %s\n", n.Severity, n.Title, n.Message))
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Ticketmaster Order Status <%s>", e.config.EmailAddress)
	mail.To = e.config.To
	if len(pending) == 1 {
		mail.Subject = pending[0].Title
	} else {
		mail.Subject = fmt.Sprintf("Ticketmaster order status (%d updates)", len(pending))
	}
	mail.Text = []byte(body.String())
	return mail
}

func (e *Email) sendSmtp(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}

func (e *Email) Close() error {
	e.mutex.Lock()
	pending := e.pending
	e.pending = nil
	e.mutex.Unlock()

	if len(pending) == 0 {
		return nil
	}
	return e.send(e.digest(pending))
}
