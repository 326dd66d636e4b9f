package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRegistersOnceAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("minishop", "test", reg)

	c1 := r.Counter("handled_total", "handled", "outcome")
	c2 := r.Counter("handled_total", "handled", "outcome")

	c1.Add(1, observability.L("outcome", "success"))
	c2.Add(2, observability.L("outcome", "success"))

	cv := r.(*registry).counters["handled_total"]
	require.NotNil(t, cv)
	assert.Equal(t, float64(3), testutil.ToFloat64(cv.WithLabelValues("success")))
}

func TestMismatchedLabelsAreDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("minishop", "test", reg)

	c := r.Counter("dropped_total", "dropped", "outcome")
	assert.NotPanics(t, func() {
		c.Add(1, observability.L("unknown", "x"))
	})

	h := r.Histogram("latency_seconds", "latency", nil, "route")
	assert.NotPanics(t, func() {
		h.Observe(0.2, observability.L("route", "/orders"))
	})
	count, err := testutil.GatherAndCount(reg, "minishop_test_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
