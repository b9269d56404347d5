package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for nominations, verification codes and
// outbound notifications. A nil *Metrics is valid and records nothing.
type Metrics struct {
	NominationsCreated      prometheus.Counter
	NominationsRejected     *prometheus.CounterVec
	NominationStatusChanges *prometheus.CounterVec
	VerificationCodesSent   prometheus.Counter
	VerificationAttempts    *prometheus.CounterVec
	NotificationsDispatched *prometheus.CounterVec
	NotificationLatency     prometheus.Histogram
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NominationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "faprna_nominations_created_total",
			Help: "Total nominations committed",
		}),
		NominationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faprna_nominations_rejected_total",
			Help: "Nomination submissions refused, by reason",
		}, []string{"reason"}), // reason: "validation", "window_closed", "duplicate", "persistence"

		NominationStatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faprna_nomination_status_changes_total",
			Help: "Admin status transitions by target status",
		}, []string{"status"}),

		VerificationCodesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "faprna_verification_codes_sent_total",
			Help: "Verification codes issued and emailed",
		}),
		VerificationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faprna_verification_attempts_total",
			Help: "Verification attempts by outcome",
		}, []string{"outcome"}), // outcome: "verified", "invalid", "error"

		NotificationsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faprna_notifications_dispatched_total",
			Help: "Outbox notifications processed by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "sent", "retry", "failed"

		NotificationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "faprna_notification_send_duration_seconds",
			Help:    "Duration of outbound email sends",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) IncNominationCreated() {
	if m != nil {
		m.NominationsCreated.Inc()
	}
}

func (m *Metrics) IncNominationRejected(reason string) {
	if m != nil {
		m.NominationsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncStatusChange(status string) {
	if m != nil {
		m.NominationStatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncCodeSent() {
	if m != nil {
		m.VerificationCodesSent.Inc()
	}
}

func (m *Metrics) IncVerificationAttempt(outcome string) {
	if m != nil {
		m.VerificationAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncNotificationDispatched(kind, outcome string) {
	if m != nil {
		m.NotificationsDispatched.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveNotificationLatency records how long one email send took.
func (m *Metrics) ObserveNotificationLatency(d time.Duration) {
	if m != nil {
		m.NotificationLatency.Observe(d.Seconds())
	}
}
