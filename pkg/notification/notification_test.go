package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shashiranjanraj/stockroom/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []*mail.Message
	err  error
}

func (r *recorder) Send(_ context.Context, m *mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

type restock struct{ channels []string }

func (n restock) Via() []string { return n.channels }
func (restock) ToMail() (MailData, error) {
	return MailData{Subject: "Restock", HTML: "<p>restock</p>", Text: "restock"}, nil
}
func (restock) ToSlack() SlackData { return SlackData{Text: "restock"} }

func TestSendMail(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, "")

	require.NoError(t, d.Send(context.Background(), "boss@example.com", restock{channels: []string{"mail"}}))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, []string{"boss@example.com"}, rec.sent[0].To)
	assert.Equal(t, "Restock", rec.sent[0].Subj)
}

func TestSendMailFailureIsReturned(t *testing.T) {
	boom := errors.New("smtp down")
	d := NewDispatcher(&recorder{err: boom}, "")

	err := d.Send(context.Background(), "boss@example.com", restock{channels: []string{"mail"}})
	assert.ErrorIs(t, err, boom)
}

func TestSlackSkippedWithoutWebhook(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, "")
	assert.NoError(t, d.Send(context.Background(), "x@example.com", restock{channels: []string{"mail", "slack"}}))
	assert.Len(t, rec.sent, 1)
}

func TestSlackPostsPayload(t *testing.T) {
	var got SlackData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(&recorder{}, srv.URL)
	require.NoError(t, d.Send(context.Background(), "x@example.com", restock{channels: []string{"slack"}}))
	assert.Equal(t, "restock", got.Text)
}

func TestSlackErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(&recorder{}, srv.URL)
	assert.Error(t, d.Send(context.Background(), "x@example.com", restock{channels: []string{"slack"}}))
}

func TestUnknownChannel(t *testing.T) {
	d := NewDispatcher(&recorder{}, "")
	assert.Error(t, d.Send(context.Background(), "x@example.com", restock{channels: []string{"pigeon"}}))
}

type pigeon struct{ delivered []string }

func (*pigeon) Name() string { return "pigeon" }
func (p *pigeon) Deliver(_ context.Context, address string, _ Notification) error {
	p.delivered = append(p.delivered, address)
	return nil
}

func TestRegisteredChannel(t *testing.T) {
	d := NewDispatcher(&recorder{}, "")
	p := &pigeon{}
	d.Register(p)
	require.NoError(t, d.Send(context.Background(), "loft", restock{channels: []string{"pigeon"}}))
	assert.Equal(t, []string{"loft"}, p.delivered)
}

func TestAllChannelFailuresAreJoined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	boom := errors.New("smtp down")
	d := NewDispatcher(&recorder{err: boom}, srv.URL)
	err := d.Send(context.Background(), "x@example.com", restock{channels: []string{"mail", "slack"}})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "slack:")
}

func TestMailWithoutTransport(t *testing.T) {
	d := NewDispatcher(nil, "")
	err := d.Send(context.Background(), "x@example.com", restock{channels: []string{"mail"}})
	assert.ErrorIs(t, err, mail.ErrNotConfigured)
	assert.EqualError(t, err, "mail: transport not configured")
}
