// Package mail builds and delivers email messages.
//
// Usage:
//
//	msg := mail.New("manager@example.com").
//	    Subject("Low stock alert: Widget").
//	    Body("<p>Only 2 left</p>")
//	err := mail.Default().Send(ctx, msg)
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"sync"

	"github.com/shashiranjanraj/stockroom/config"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("mail: transport not configured")

// Transport delivers a message. Implementations must honour ctx cancellation.
type Transport interface {
	Send(ctx context.Context, m *Message) error
}

// ------------------- Message -------------------

// Message is a fluent builder for an email.
type Message struct {
	To   []string
	Cc   []string
	From string
	Subj string
	HTML string
	Text string
}

// New starts a message to the given recipients.
func New(to ...string) *Message {
	return &Message{To: to}
}

func (m *Message) CC(addresses ...string) *Message {
	m.Cc = append(m.Cc, addresses...)
	return m
}

func (m *Message) Subject(s string) *Message {
	m.Subj = s
	return m
}

// Body sets the HTML part.
func (m *Message) Body(html string) *Message {
	m.HTML = html
	return m
}

// PlainText sets the plain-text part.
func (m *Message) PlainText(text string) *Message {
	m.Text = text
	return m
}

// Template executes tmpl with data and uses the result as the HTML part.
func (m *Message) Template(tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
	}
	m.HTML = buf.String()
	return nil
}

// Recipients returns To and Cc combined.
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc))
	out = append(out, m.To...)
	return append(out, m.Cc...)
}

func (m *Message) build(from string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	if len(m.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(m.Cc, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + m.Subj + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case m.HTML != "" && m.Text != "":
		boundary := "stockroom-alt-boundary"
		b.WriteString("Content-Type: multipart/alternative; boundary=\"" + boundary + "\"\r\n\r\n")
		b.WriteString("--" + boundary + "\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(m.Text + "\r\n")
		b.WriteString("--" + boundary + "\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(m.HTML + "\r\n")
		b.WriteString("--" + boundary + "--\r\n")
	case m.HTML != "":
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(m.HTML)
	default:
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(m.Text)
	}
	return []byte(b.String())
}

// ------------------- SMTP -------------------

// SMTP holds connection credentials (populated from env/config).
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SMTPFromConfig reads MAIL_* settings.
func SMTPFromConfig() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", ""),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.MailFrom(),
		FromName: config.Get("MAIL_FROM_NAME", "Stockroom"),
	}
}

// SMTPTransport sends over SMTP with implicit TLS on 465 and STARTTLS otherwise.
type SMTPTransport struct {
	cfg SMTP
}

func NewSMTP(cfg SMTP) *SMTPTransport { return &SMTPTransport{cfg: cfg} }

func (t *SMTPTransport) Send(ctx context.Context, m *Message) error {
	cfg := t.cfg
	if cfg.Host == "" {
		return ErrNotConfigured
	}
	rcpts := m.Recipients()
	if len(rcpts) == 0 {
		return errors.New("mail: no recipients")
	}

	from := cfg.From
	if m.From != "" {
		from = m.From
	}
	header := from
	if cfg.FromName != "" {
		header = fmt.Sprintf("%s <%s>", cfg.FromName, from)
	}
	raw := m.build(header)

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	var d net.Dialer
	var conn net.Conn
	var err error
	if cfg.Port == "465" {
		conn, err = (&tls.Dialer{NetDialer: &d, Config: &tls.Config{ServerName: cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fail(ctx, "dial "+addr, err)
	}
	// Unblock the SMTP conversation if ctx ends mid-flight.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fail(ctx, "handshake", err)
	}
	defer client.Close()

	if cfg.Port != "465" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				return fail(ctx, "starttls", err)
			}
		}
	}
	if cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return fail(ctx, "auth", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fail(ctx, "mail from", err)
	}
	for _, r := range rcpts {
		if err := client.Rcpt(r); err != nil {
			return fail(ctx, "rcpt "+r, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fail(ctx, "data", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fail(ctx, "data", err)
	}
	if err := w.Close(); err != nil {
		return fail(ctx, "data", err)
	}

	// The server has accepted the message. A failed QUIT must not report
	// it as undelivered or the caller would send it again.
	_ = client.Quit()
	return nil
}

// fail wraps err for step. Once ctx is done the network error is only the
// echo of the AfterFunc close, so the context error is reported instead.
func fail(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return fmt.Errorf("mail: %s: %w", step, err)
}

// ------------------- Default transport -------------------

var (
	defaultMu sync.RWMutex
	defaultTr Transport
)

// Default returns the process transport, building an SMTP one from config on
// first use.
func Default() Transport {
	defaultMu.RLock()
	t := defaultTr
	defaultMu.RUnlock()
	if t != nil {
		return t
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTr == nil {
		defaultTr = NewSMTP(SMTPFromConfig())
	}
	return defaultTr
}

// SetDefault replaces the process transport (tests swap in a recorder).
func SetDefault(t Transport) {
	defaultMu.Lock()
	defaultTr = t
	defaultMu.Unlock()
}
