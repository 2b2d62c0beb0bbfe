package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, fn http.HandlerFunc) (int, probeResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp probeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestReadiness_Gate(t *testing.T) {
	h := New()

	// Not ready until explicitly marked.
	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")

	h.SetReady(true)
	code, resp = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)

	// Shutdown drops readiness again.
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestLiveness_FailureThreshold(t *testing.T) {
	h := New()

	var healthy atomic.Bool
	healthy.Store(true)
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("down")
	})

	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)

	// One failure is not enough to flip the probe.
	c := h.liveness[0]
	healthy.Store(false)
	c.run(context.Background())
	code, _ = probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)

	// failureThreshold consecutive failures flip it, with the error exposed.
	c.run(context.Background())
	c.run(context.Background())
	code, resp := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "down", resp.Checks["flaky"])

	// A single success recovers.
	healthy.Store(true)
	c.run(context.Background())
	code, _ = probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestReadiness_FailingCheckBlocks(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	c := h.readiness[0]
	for i := 0; i < failureThreshold; i++ {
		c.run(context.Background())
	}

	assert.False(t, h.IsReady())
	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "connection refused", resp.Checks["db"])
}

func TestStartAndStop(t *testing.T) {
	h := New()
	var runs atomic.Int32
	h.AddLivenessCheck("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

func TestDatabasePing(t *testing.T) {
	require.NoError(t, DatabasePing(pingOK{})(context.Background()))
}

func TestGoroutineCount(t *testing.T) {
	require.NoError(t, GoroutineCount(1_000_000)(context.Background()))
	require.Error(t, GoroutineCount(0)(context.Background()))
}
