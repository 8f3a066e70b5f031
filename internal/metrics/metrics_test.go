package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitPrometheusMetrics("postbot", reg)

	m.SetArmed(3)
	m.RecordDelivery(ResultDelivered, 2*time.Second)
	m.RecordDelivery(ResultFailed, 0)
	m.RecordDelivery(ResultDelivered, -time.Second)
	m.RecordParse("relative")
	m.RecordUpdate("message")
	m.RecordPersistError()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.armed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveries.WithLabelValues(ResultDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("relative")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updates.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistErrs))
	assert.Equal(t, 1, testutil.CollectAndCount(m.lateness))
}

func TestPrometheusMetrics_NilSafe(t *testing.T) {
	var m *PrometheusMetrics
	assert.NotPanics(t, func() {
		m.SetArmed(1)
		m.RecordDelivery(ResultDelivered, time.Second)
		m.RecordParse("x")
		m.RecordUpdate("x")
		m.RecordPersistError()
	})
}
