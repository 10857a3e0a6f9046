package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalstore/internal/metrics"
)

func TestNewStoreMetrics_Registers(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := metrics.NewStoreMetrics(reg, "user1")

	m.Reads.Inc()
	m.Writes.Add(2)
	m.Failures.WithLabelValues("set").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reads))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Writes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("set")))

	n, err := testutil.GatherAndCount(reg, "signalstore_store_reads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewCacheMetrics_NilRegistererIsAllowed(t *testing.T) {
	m := metrics.NewCacheMetrics(nil, "user1")
	m.Hits.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits))
	assert.Zero(t, testutil.ToFloat64(m.Misses))
}
