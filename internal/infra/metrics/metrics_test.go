package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordAuthEvent(t *testing.T) {
	m := New()

	m.RecordAuthEvent("login", nil)
	m.RecordAuthEvent("login", nil)
	m.RecordAuthEvent("login", errors.New("bad password"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeFailure)), 0)
}

func TestMetrics_RecordSweep(t *testing.T) {
	m := New()

	m.RecordSweep(map[string]int64{"refresh_sessions": 3, "pending_registrations": 0}, nil)

	assert.InDelta(t, 1, testutil.ToFloat64(m.expirySweeps.WithLabelValues(OutcomeSuccess)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.expiredRecords.WithLabelValues("refresh_sessions")), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodPost, "/auth/login", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `gatekeeper_http_requests_total{method="POST",route="/auth/login",status="200"} 1`))
	assert.Contains(t, body, "gatekeeper_http_request_duration_seconds_bucket")
}
