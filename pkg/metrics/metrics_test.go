package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := counterValue(t, RequestTotal.WithLabelValues(http.MethodGet, "/api/products/{id}", "418"))
	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}
	after := counterValue(t, RequestTotal.WithLabelValues(http.MethodGet, "/api/products/{id}", "418"))
	assert.Equal(t, before+2, after)
}

func TestImplicitOKStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	before := counterValue(t, RequestTotal.WithLabelValues(http.MethodGet, "/ok", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, before+1, counterValue(t, RequestTotal.WithLabelValues(http.MethodGet, "/ok", "200")))
}

func TestObserveJob(t *testing.T) {
	before := counterValue(t, JobsProcessed.WithLabelValues("alerts.batch", "failed"))
	ObserveJob("alerts.batch", false, 30*time.Millisecond)
	assert.Equal(t, before+1, counterValue(t, JobsProcessed.WithLabelValues("alerts.batch", "failed")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	Panics.Add(0)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stockroom_http_panics_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
