package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRPC(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRPC("getAccountInfo", time.Now(), nil)
	m.ObserveRPC("getAccountInfo", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues("getAccountInfo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCErrors.WithLabelValues("getAccountInfo")))
}

func TestObserveRPCNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRPC("getSlot", time.Now(), nil) })
}

func TestNewServer(t *testing.T) {
	assert.Nil(t, NewServer("", prometheus.NewRegistry()))

	registry := NewRegistry()
	m := NewMetrics(registry)
	m.Confirmed.Inc()

	srv := NewServer(":0", registry)
	require.NotNil(t, srv)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "interactdapp_tx_confirmed_total 1")
}
