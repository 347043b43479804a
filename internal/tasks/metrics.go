package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Snapshots *prometheus.CounterVec
	Tasks     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taskly_task_snapshots_total",
			Help: "Task snapshots received from the store, by result",
		}, []string{"result"}),
		Tasks: f.NewGauge(prometheus.GaugeOpts{
			Name: "taskly_tasks",
			Help: "Tasks in the latest snapshot",
		}),
	}
}
