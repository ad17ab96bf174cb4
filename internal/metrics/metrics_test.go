package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CheckIn("punched")
	m.CheckIn("punched")
	m.CheckIn("already_punched")
	m.ValidationErrors(3)
	m.TextRefreshed(true)
	m.TextRefreshed(false)
	m.LockWait.Observe(0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkIns.WithLabelValues("punched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkIns.WithLabelValues("already_punched")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.validationErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.textRefresh.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LockWait))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
