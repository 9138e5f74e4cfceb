// Package notification delivers a message to a recipient over every channel
// the message asks for.
//
//	type LowStock struct{ Product models.Product }
//	func (n *LowStock) Via() []string { return []string{"mail", "slack"} }
//	func (n *LowStock) ToMail() (notification.MailData, error) { ... }
//	func (n *LowStock) ToSlack() notification.SlackData { ... }
//
//	err := dispatcher.Send(ctx, "manager@example.com", &LowStock{Product: p})
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	httpc "github.com/shashiranjanraj/stockroom/pkg/http"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/mail"
)

// Notification names the channels it should go out on.
type Notification interface {
	Via() []string
}

// Mailable notifications can render an email.
type Mailable interface {
	ToMail() (MailData, error)
}

// Slackable notifications can render a Slack webhook message.
type Slackable interface {
	ToSlack() SlackData
}

// MailData is a rendered email. To overrides the recipient address.
type MailData struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type SlackData struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // good, warning or danger
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// Channel delivers one notification over one medium. Deliver returns
// ErrSkipped when the channel is not configured. Errors should name the
// channel; Send passes them on unwrapped.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, address string, n Notification) error
}

// ErrSkipped marks a channel that chose not to deliver. Send does not treat
// it as a failure.
var ErrSkipped = errors.New("notification: channel skipped")

// Dispatcher fans a notification out to its channels.
type Dispatcher struct {
	channels map[string]Channel
}

// NewDispatcher wires the mail channel to t and the Slack channel to the
// webhook. An empty webhook leaves Slack configured but skipped.
func NewDispatcher(t mail.Transport, slackWebhook string) *Dispatcher {
	d := &Dispatcher{channels: map[string]Channel{}}
	d.Register(&MailChannel{Transport: t})
	d.Register(&SlackChannel{
		Webhook: slackWebhook,
		Client:  httpc.NewClient(httpc.WithTimeout(5*time.Second), httpc.WithRetry(2, 250*time.Millisecond)),
	})
	return d
}

// Register adds or replaces a channel under its name.
func (d *Dispatcher) Register(ch Channel) { d.channels[ch.Name()] = ch }

// Send delivers n on every channel in n.Via(). Failures are joined so one
// broken channel does not hide another.
func (d *Dispatcher) Send(ctx context.Context, address string, n Notification) error {
	log := logger.WithCtx(ctx)
	var errs []error
	for _, name := range n.Via() {
		ch, ok := d.channels[name]
		if !ok {
			errs = append(errs, fmt.Errorf("notification: unknown channel %q", name))
			continue
		}
		err := ch.Deliver(ctx, address, n)
		switch {
		case errors.Is(err, ErrSkipped):
			log.Debug("notification: channel skipped", "channel", name)
		case err != nil:
			log.Error("notification: channel failed", "channel", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MailChannel sends Mailable notifications through a mail.Transport.
type MailChannel struct {
	Transport mail.Transport
}

func (*MailChannel) Name() string { return "mail" }

func (c *MailChannel) Deliver(ctx context.Context, address string, n Notification) error {
	m, ok := n.(Mailable)
	if !ok {
		return fmt.Errorf("notification: %T cannot be mailed", n)
	}
	if c.Transport == nil {
		return mail.ErrNotConfigured
	}
	data, err := m.ToMail()
	if err != nil {
		return fmt.Errorf("notification: render mail: %w", err)
	}
	if data.To != "" {
		address = data.To
	}
	return c.Transport.Send(ctx, mail.New(address).Subject(data.Subject).Body(data.HTML).PlainText(data.Text))
}

// SlackChannel posts Slackable notifications to an incoming webhook.
type SlackChannel struct {
	Webhook string
	Client  *httpc.Client
}

func (*SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) Deliver(ctx context.Context, _ string, n Notification) error {
	if c.Webhook == "" {
		return ErrSkipped
	}
	s, ok := n.(Slackable)
	if !ok {
		return fmt.Errorf("notification: %T cannot be posted to slack", n)
	}
	client := c.Client
	if client == nil {
		client = httpc.NewClient()
	}
	resp, err := client.PostJSON(ctx, c.Webhook, s.ToSlack())
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("notification: slack: %w", err)
	}
	return nil
}
