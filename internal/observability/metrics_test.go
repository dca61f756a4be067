package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBackendCall(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveBackendCall("login", 0.2, nil)
	m.ObserveBackendCall("login", 0.3, errors.New("boom"))
	m.ObserveBackendCall("list_cars", 0.1, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("login", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("list_cars", "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.BackendCallDuration))
}

func TestObserveBackendCall_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveBackendCall("register", 1, nil) })
}
