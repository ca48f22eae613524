package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("mail:send").End(nil))
	boom := errors.New("smtp down")
	assert.ErrorIs(t, m.Track("mail:send").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:send", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:send", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("mail:send")))
}

func TestEnqueued(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.Enqueued("mail:send", true)
	m.Enqueued("mail:send", true)
	m.Enqueued("mail:send", false)
	m.Enqueued("", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.enqueued.WithLabelValues("mail:send", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enqueued.WithLabelValues("mail:send", "rejected")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.Enqueued("mail:send", true)
	err := errors.New("x")
	assert.Equal(t, err, m.Track("mail:send").End(err))
}
