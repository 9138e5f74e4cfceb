package http

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	var got map[string]string
	var ct, token string
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		ct = r.Header.Get("Content-Type")
		token = r.Header.Get("X-Token")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("X-Token", "abc"))
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]string{"text": "hi"})
	require.NoError(t, err)
	require.NoError(t, resp.Err())

	var out struct{ OK bool }
	require.NoError(t, resp.Decode(&out))
	assert.True(t, out.OK)
	assert.Equal(t, "hi", got["text"])
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, "abc", token)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(gohttp.StatusBadGateway)
			return
		}
		w.WriteHeader(gohttp.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewClient(WithRetry(3, time.Millisecond)).PostJSON(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.NoError(t, resp.Err())
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		calls.Add(1)
		w.WriteHeader(gohttp.StatusNotFound)
		_, _ = w.Write([]byte("no such hook"))
	}))
	defer srv.Close()

	resp, err := NewClient(WithRetry(3, time.Millisecond)).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.EqualError(t, resp.Err(), "http: status 404: no such hook")
	assert.EqualValues(t, 1, calls.Load())
}

func TestLastServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewClient(WithRetry(2, time.Millisecond)).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusServiceUnavailable, resp.Status)
}

func TestTransportFailureExhaustsAttempts(t *testing.T) {
	srv := httptest.NewServer(gohttp.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(WithRetry(2, time.Millisecond)).Get(context.Background(), url)
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestRetryWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := NewClient(WithRetry(5, time.Second)).Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
