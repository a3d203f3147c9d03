package stats_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davinci26/envoy/ioerr"
	"github.com/davinci26/envoy/stats"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := stats.New("", reg)

	m.IoError(ioerr.CodeAgain)
	m.IoError(ioerr.CodeAgain)
	m.Signal("Terminate")
	m.Posted()
	m.SetServiceState(2)

	mfs := gather(t, reg)

	ioErrs := mfs["envoy_io_errors_total"]
	require.NotNil(t, ioErrs)
	require.Len(t, ioErrs.GetMetric(), 1)
	assert.Equal(t, "Again", ioErrs.GetMetric()[0].GetLabel()[0].GetValue())
	assert.Equal(t, 2.0, ioErrs.GetMetric()[0].GetCounter().GetValue())

	require.NotNil(t, mfs["envoy_signals_total"])
	assert.Equal(t, 1.0, mfs["envoy_dispatcher_posts_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 2.0, mfs["envoy_service_state"].GetMetric()[0].GetGauge().GetValue())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *stats.Metrics
	assert.NotPanics(t, func() {
		m.IoError(ioerr.CodeUnknown)
		m.Signal("Hangup")
		m.Posted()
		m.SetServiceState(1)
	})
}
