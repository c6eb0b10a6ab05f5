package http

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTokenExchange_BoundedGrantTypeLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)

	ObserveTokenExchange("authorization_code", "success")
	ObserveTokenExchange("", "invalid_request")
	ObserveTokenExchange("bogus-"+strings.Repeat("x", 64), "unsupported_grant_type")
	ObserveTokenExchange("another-random-value", "unsupported_grant_type")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	labels := map[string]bool{}
	for _, mf := range mfs {
		if mf.GetName() != "oauth_token_exchanges_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "grant_type" {
					labels[lp.GetValue()] = true
				}
			}
		}
	}
	// Caller-chosen strings must not become label values.
	assert.Equal(t, map[string]bool{"authorization_code": true, "unknown": true}, labels)
}
