package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMetricsRegistersOnce(t *testing.T) {
	m := GetMetrics()
	assert.Same(t, m, GetMetrics())

	m.SignatureVerifications.WithLabelValues(OutcomeAccepted).Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "signature_gateway_signature_verifications_total" {
			found = true
			require.NotEmpty(t, mf.GetMetric())
			assert.GreaterOrEqual(t, mf.GetMetric()[0].GetCounter().GetValue(), 1.0)
		}
	}
	assert.True(t, found)
}
