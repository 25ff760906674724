package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.RateLimited()
	m.SavingAddition("accepted")
	m.ReportFailure("monthly")
	m.Purged("sessions", 3)
	assert.Nil(t, m.Registry())

	h := m.Middleware(func(*http.Request) string { return "x" })(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()
	m.SavingAddition("accepted")
	m.SavingAddition("accepted")
	m.SavingAddition("rejected")
	m.ReportFailure("trend")
	m.Purged("sessions", 4)
	m.Purged("sessions", 0)
	m.RateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.savingAdditions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.savingAdditions.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportFailures.WithLabelValues("trend")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.purged.WithLabelValues("sessions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestMiddlewareUsesMatchedPattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/budgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Middleware(func(r *http.Request) string { return r.Pattern })(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/budgets/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/budgets/{id}", "418")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "fintrack_http_rate_limited_total 1"))
}
