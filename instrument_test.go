package ustream

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInstrument_CountsReadsAndBytes(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	child := mustFlat(t, "0123456789")
	defer child.Dispose()

	s, err := Instrument(child, InstrumentConfig{
		Namespace:  "instr_reads",
		Registerer: reg,
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	defer s.Dispose()

	require.True(t, IsOfType(s, Instrumented()))
	require.Equal(t, "0123456789", drain(t, s, 4))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
		byName[mf.GetName()] = total
	}

	// Three successful reads plus the final EOF probe.
	require.Equal(t, float64(4), byName["instr_reads_reads_total"])
	require.Equal(t, float64(10), byName["instr_reads_read_bytes_total"])
}

func TestInstrument_TracksCloneDisposeBalance(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	child := mustFlat(t, "abc")
	defer child.Dispose()

	s, err := Instrument(child, InstrumentConfig{
		Namespace:  "instr_lifecycle",
		Registerer: reg,
	})
	require.NoError(t, err)

	clone, err := s.Clone(0)
	require.NoError(t, err)

	gauge := func() float64 {
		families, err := reg.Gather()
		require.NoError(t, err)
		for _, mf := range families {
			if mf.GetName() == "instr_lifecycle_active_instances" {
				var total float64
				for _, m := range mf.GetMetric() {
					total += m.GetGauge().GetValue()
				}
				return total
			}
		}
		return 0
	}

	require.Equal(t, float64(2), gauge(), "factory instance plus one clone")

	require.NoError(t, clone.Dispose())
	require.Equal(t, float64(1), gauge())

	require.NoError(t, s.Dispose())
	require.Equal(t, float64(0), gauge())
}

func TestInstrument_ReleaseOutcomeLabels(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	child := mustFlat(t, "abcdef")
	defer child.Dispose()

	s, err := Instrument(child, InstrumentConfig{
		Namespace:  "instr_release",
		Registerer: reg,
	})
	require.NoError(t, err)
	defer s.Dispose()

	_, err = readString(t, s, 4)
	require.NoError(t, err)

	require.NoError(t, s.Release(1))
	require.True(t, IsNoSuchElement(s.Release(1)))

	c, err := testutil.GatherAndCount(reg, "instr_release_releases_total")
	require.NoError(t, err)
	require.Equal(t, 2, c, "one success and one no-such-element label pair")
}
