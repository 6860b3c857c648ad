// Package metrics exposes Prometheus counters for admission decisions and
// settings changes.
package metrics

import (
	"github.com/bcnelson/winterface/internal/access"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	AdmissionDecisions *prometheus.CounterVec
	SettingChanges     *prometheus.CounterVec
	SettingsReloads    *prometheus.CounterVec
	ListenerRestarts   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AdmissionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "winterface",
			Name:      "admission_decisions_total",
			Help:      "Requests classified by the admission filter, by tier.",
		}, []string{"tier"}),
		SettingChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "winterface",
			Name:      "setting_changes_total",
			Help:      "Setting updates by option and outcome.",
		}, []string{"option", "outcome"}),
		SettingsReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "winterface",
			Name:      "settings_reloads_total",
			Help:      "Settings reloads from persistent storage, by result.",
		}, []string{"result"}),
		ListenerRestarts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "winterface",
			Name:      "listener_restarts_total",
			Help:      "Listener re-initialisations, by result.",
		}, []string{"result"}),
	}
}

// ObserveAdmission counts one classified request.
func (m *Metrics) ObserveAdmission(tier access.Tier) {
	if m == nil {
		return
	}
	m.AdmissionDecisions.WithLabelValues(tier.String()).Inc()
}

// ObserveSettingChange counts one setting update attempt.
func (m *Metrics) ObserveSettingChange(option string, outcome access.Outcome) {
	if m == nil {
		return
	}
	m.SettingChanges.WithLabelValues(option, outcome.String()).Inc()
}

// ObserveReload counts one settings reload.
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	m.SettingsReloads.WithLabelValues(result(err)).Inc()
}

// ObserveRestart counts one listener restart.
func (m *Metrics) ObserveRestart(err error) {
	if m == nil {
		return
	}
	m.ListenerRestarts.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
