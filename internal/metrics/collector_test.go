package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_ReadCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("test_reads", reg, zap.NewNop())

	c.ObserveRead("flat", "success", 128)
	c.ObserveRead("flat", "success", 64)
	c.ObserveRead("flat", "EOF", 0)

	n, err := testutil.GatherAndCount(reg, "test_reads_reads_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	families, err := reg.Gather()
	require.NoError(t, err)

	var bytesTotal float64
	for _, mf := range families {
		if mf.GetName() == "test_reads_read_bytes_total" {
			for _, m := range mf.GetMetric() {
				bytesTotal += m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(192), bytesTotal)
}

func TestCollector_ActiveGaugeBalance(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("test_gauge", reg, nil)

	c.ObserveOpen("multi")
	c.ObserveClone("multi")
	c.ObserveClone("multi")
	c.ObserveDispose("multi")

	value := testutil.ToFloat64(c.activeStreams.WithLabelValues("multi"))
	require.Equal(t, float64(2), value)
}
