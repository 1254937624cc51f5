package metrics_test

import (
	"testing"

	"github.com/jrsteele09/medihelp-client/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.Attempt("success")
	m.Attempt("success")
	m.Retry("rate_limited")
	m.Refresh("failure")

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestAttempts.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestRetries.WithLabelValues("rate_limited")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionRefreshes.WithLabelValues("failure")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.Attempt("success")
		m.Retry("network")
		m.Refresh("success")
	})
}
