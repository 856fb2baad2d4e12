package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordTransaction(t *testing.T) {
	m := New()
	m.RecordTransaction("stake", "confirmed", time.Second)
	m.RecordTransaction("stake", "confirmed", time.Second)
	m.RecordTransaction("claim", "failed", time.Second)

	body := scrape(t, m)
	assert.Contains(t, body, `yieldlock_transactions_total{kind="stake",status="confirmed"} 2`)
	assert.Contains(t, body, `yieldlock_transactions_total{kind="claim",status="failed"} 1`)
}

func TestRecordPollerDuration(t *testing.T) {
	m := New()
	failing := m.RecordPollerDuration(func(context.Context) error { return errors.New("boom") })
	require.Error(t, failing(context.Background()))

	ok := m.RecordPollerDuration(func(context.Context) error { return nil })
	require.NoError(t, ok(context.Background()))

	body := scrape(t, m)
	assert.Contains(t, body, `yieldlock_poll_duration_seconds_count{status="error"} 1`)
	assert.Contains(t, body, `yieldlock_poll_duration_seconds_count{status="success"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordTransaction("stake", "confirmed", time.Second)
	m.AddInFlight(1)
	m.SetConnected(true)
	m.IncContractEvent("Staked")
	m.RecordRefresh("pools", time.Second, nil)
	assert.Nil(t, m.Registry())
	require.NoError(t, m.RecordPollerDuration(func(context.Context) error { return nil })(context.Background()))
}

func TestConnectedGauge(t *testing.T) {
	m := New()
	m.SetConnected(true)
	assert.Contains(t, scrape(t, m), "yieldlock_session_connected 1")
	m.SetConnected(false)
	assert.Contains(t, scrape(t, m), "yieldlock_session_connected 0")
}
