package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/api/v2/policies", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/v2/policies", 200, 20*time.Millisecond)
	m.RecordPolicy(3)
	m.RecordPolicy(2)
	m.RecordEmailChanges(2, 1, 0)
	m.RecordReport(nil)
	m.RecordReport(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v2/policies", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PoliciesAssembled))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.GridsAssembled))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmailChanges.WithLabelValues("insert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsQueued.WithLabelValues("failed")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Second)
		m.RecordPolicy(1)
		m.RecordEmailChanges(1, 1, 1)
		m.RecordReport(nil)
	})
}
