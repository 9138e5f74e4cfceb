package mail

import (
	"context"
	"html/template"
	"io"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHTMLOnly(t *testing.T) {
	raw := string(New("a@example.com").Subject("Hi").Body("<b>x</b>").build("Stockroom <s@example.com>"))
	assert.Contains(t, raw, "Subject: Hi\r\n")
	assert.Contains(t, raw, "To: a@example.com\r\n")
	assert.Contains(t, raw, "text/html")
	assert.NotContains(t, raw, "multipart")
}

func TestBuildAlternative(t *testing.T) {
	raw := string(New("a@example.com").Body("<b>x</b>").PlainText("x").build("s@example.com"))
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
}

func TestTemplate(t *testing.T) {
	tmpl := template.Must(template.New("t").Parse("<p>{{.}}</p>"))
	m := New("a@example.com")
	require.NoError(t, m.Template(tmpl, "<Widget>"))
	assert.Equal(t, "<p>&lt;Widget&gt;</p>", m.HTML)
}

func TestRecipients(t *testing.T) {
	m := New("a@example.com").CC("b@example.com")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, m.Recipients())
}

func TestSMTPNotConfigured(t *testing.T) {
	err := NewSMTP(SMTP{}).Send(context.Background(), New("a@example.com"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// fakeSMTP accepts one connection and speaks just enough SMTP to take a
// message. With hangOnQuit it goes silent instead of answering QUIT.
func fakeSMTP(t *testing.T, hangOnQuit bool) (SMTP, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb, _, _ := strings.Cut(line, " ")
			switch strings.ToUpper(verb) {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 localhost")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				data <- string(body)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				if hangOnQuit {
					_, _ = io.Copy(io.Discard, conn)
					return
				}
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("250 OK")
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return SMTP{Host: host, Port: port, From: "stock@example.com"}, data
}

func TestSMTPSend(t *testing.T) {
	cfg, data := fakeSMTP(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, NewSMTP(cfg).Send(ctx, New("a@example.com").Subject("Low stock alert: Widget").PlainText("2 left")))
	body := <-data
	assert.Contains(t, body, "Subject: Low stock alert: Widget")
	assert.Contains(t, body, "2 left")
}

func TestSMTPAcceptedMessageIsDelivered(t *testing.T) {
	cfg, data := fakeSMTP(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := NewSMTP(cfg).Send(ctx, New("a@example.com").Subject("Expiry alert").PlainText("soon"))
	assert.NoError(t, err, "a lost QUIT reply must not turn into a resend")
	assert.Contains(t, <-data, "Subject: Expiry alert")
}

func TestSMTPSilentServerReportsDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = NewSMTP(SMTP{Host: host, Port: port}).Send(ctx, New("a@example.com"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualError(t, err, "mail: handshake: context deadline exceeded")
	assert.Less(t, time.Since(start), 2*time.Second)
}
