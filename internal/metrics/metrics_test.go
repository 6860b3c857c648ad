package metrics

import (
	"errors"
	"testing"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAdmission(access.FullAccess)
	m.ObserveAdmission(access.Denied)
	m.ObserveAdmission(access.Denied)
	m.ObserveSettingChange(access.OptionAllowedHosts, access.RestartRequired)
	m.ObserveReload(errors.New("boom"))
	m.ObserveRestart(nil)

	require.Equal(t, 1.0, testutil.ToFloat64(m.AdmissionDecisions.WithLabelValues("full")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.AdmissionDecisions.WithLabelValues("denied")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SettingChanges.WithLabelValues("allowedHosts", "restart_required")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SettingsReloads.WithLabelValues("error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ListenerRestarts.WithLabelValues("success")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAdmission(access.FullAccess)
	m.ObserveSettingChange("port", access.Applied)
	m.ObserveReload(nil)
	m.ObserveRestart(nil)
}
