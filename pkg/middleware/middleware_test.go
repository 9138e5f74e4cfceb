package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"

	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func serve(h http.Handler, token string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthChain(t *testing.T) {
	staffTok, err := auth.GenerateToken(1, "boss", true, false)
	require.NoError(t, err)
	clerkTok, err := auth.GenerateToken(2, "clerk", false, false)
	require.NoError(t, err)

	authed := Authenticate(RequireAuth(ok))
	staffOnly := Authenticate(RequireStaff(ok))

	assert.Equal(t, http.StatusUnauthorized, serve(authed, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(authed, "Bearer garbage"))
	assert.Equal(t, http.StatusUnauthorized, serve(authed, "Basic abc"))
	assert.Equal(t, http.StatusOK, serve(authed, "Bearer "+clerkTok))

	assert.Equal(t, http.StatusUnauthorized, serve(staffOnly, ""))
	assert.Equal(t, http.StatusForbidden, serve(staffOnly, "Bearer "+clerkTok))
	assert.Equal(t, http.StatusOK, serve(staffOnly, "bearer "+staffTok))
}

func TestAuthenticateStoresClaims(t *testing.T) {
	tok, err := auth.GenerateToken(9, "ana", false, true)
	require.NoError(t, err)

	var got *auth.Claims
	h := Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.ClaimsFrom(r.Context())
	}))
	serve(h, "Bearer "+tok)
	require.NotNil(t, got)
	assert.Equal(t, uint(9), got.UserID)
	assert.True(t, got.Superuser)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute)(ok)
	assert.Equal(t, http.StatusOK, serve(h, ""))
	assert.Equal(t, http.StatusOK, serve(h, ""))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, ""))
}

func TestLimiterWindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := &limiter{max: 1, window: time.Second, buckets: map[string]*bucket{}, now: func() time.Time { return now }}
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))
	now = now.Add(2 * time.Second)
	assert.True(t, l.allow("a"))
	assert.Len(t, l.buckets, 1)
}

func TestRecovery(t *testing.T) {
	panics := func() float64 {
		var m dto.Metric
		require.NoError(t, metrics.Panics.Write(&m))
		return m.GetCounter().GetValue()
	}
	before := panics()
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	assert.Equal(t, http.StatusInternalServerError, serve(h, ""))
	assert.Equal(t, before+1, panics())
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(DefaultCORSOptions())(ok)
	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerRecordsRouteAndUser(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.L
	logger.L = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger.L = prev })

	tok, err := auth.GenerateToken(3, "clerk", false, false)
	require.NoError(t, err)

	mux := chi.NewRouter()
	mux.Use(Logger, Authenticate)
	mux.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products/7", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	mux.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["msg"])
	assert.Equal(t, "/api/products/{id}", line["route"])
	assert.Equal(t, "clerk", line["user"])
	assert.EqualValues(t, 200, line["status"])
	assert.EqualValues(t, 2, line["bytes"])
}

func TestCORSAllowList(t *testing.T) {
	opts := DefaultCORSOptions()
	opts.AllowedOrigins = []string{"https://shop.example.com"}
	h := CORS(opts)(ok)

	send := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send("https://shop.example.com")
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

	rec = send("https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
