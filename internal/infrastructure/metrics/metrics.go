package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the fleet compliance counters.
type Metrics struct {
	HoldCascades            *prometheus.CounterVec
	HoldRecords             *prometheus.CounterVec
	Bookings                *prometheus.CounterVec
	NotificationTransitions *prometheus.CounterVec
	SideChannelFailures     *prometheus.CounterVec
}

// New registers the counters on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HoldCascades: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_hold_cascades_total",
			Help: "Hold cascades committed, by action and root entity type",
		}, []string{"action", "entity_type"}),
		HoldRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_hold_records_total",
			Help: "Records whose hold state changed inside a cascade",
		}, []string{"action"}),
		Bookings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_bookings_total",
			Help: "Appointment booking attempts by result",
		}, []string{"result"}),
		NotificationTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_notification_transitions_total",
			Help: "Resolve and dismiss attempts by target status and result",
		}, []string{"status", "result"}),
		SideChannelFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_side_channel_failures_total",
			Help: "Best-effort emails that failed after the main operation committed",
		}, []string{"channel"}),
	}
}

// NewNop returns counters registered on a private registry.
func NewNop() *Metrics { return New(prometheus.NewRegistry()) }

func (m *Metrics) HoldCascade(action, entityType string, records int64) {
	m.HoldCascades.WithLabelValues(action, entityType).Inc()
	m.HoldRecords.WithLabelValues(action).Add(float64(records))
}

func (m *Metrics) Booking(result string) { m.Bookings.WithLabelValues(result).Inc() }

func (m *Metrics) Transition(status, result string) {
	m.NotificationTransitions.WithLabelValues(status, result).Inc()
}

func (m *Metrics) SideChannelFailure(channel string) {
	m.SideChannelFailures.WithLabelValues(channel).Inc()
}
