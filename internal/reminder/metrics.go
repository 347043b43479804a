package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts dispatcher traffic. A nil registerer yields working but
// unregistered collectors.
type Metrics struct {
	Registered *prometheus.CounterVec
	Cancelled  prometheus.Counter
	Failures   *prometheus.CounterVec
	QueueDepth prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taskly_reminders_registered_total",
			Help: "Reminders handed to the notification dispatcher",
		}, []string{"slot"}),
		Cancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "taskly_reminder_cancellations_total",
			Help: "Cancellation requests sent to the notification dispatcher",
		}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taskly_reminder_dispatch_failures_total",
			Help: "Dispatcher calls that returned an error",
		}, []string{"op"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "taskly_reminder_queue_depth",
			Help: "Dispatcher requests waiting to be sent",
		}),
	}
}
