package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBotMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBotMetrics(reg)

	m.IncEvent("text")
	m.IncEvent("text")
	m.IncReportLookup("not_found")
	m.IncPoll("timeout")
	m.SetActivePolls(3)
	m.SetSessions(12)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.numEvents.WithLabelValues("text")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.numReportLookups.WithLabelValues("not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.numPolls.WithLabelValues("timeout")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.activePolls))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.sessions))

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 6, count)
}
