package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorder(t *testing.T) {
	m := New(false)

	m.ObserveRequest("ok", 10*time.Millisecond)
	m.ObserveRequest("ok", 20*time.Millisecond)
	m.ObserveRequest("inference_failure", time.Millisecond)
	m.ObserveConstruction("failure", time.Second)
	m.SetReady(true)
	m.AddInFlight(2)
	m.AddInFlight(-1)
	m.SetPagesIndexed(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("inference_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.constructionsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelReady))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.pagesIndexed))

	m.SetReady(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelReady))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(true)
	m.ObserveRequest("ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `holocron_embedding_requests_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
