package incidents

import (
	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	incidentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "created_total",
			Help:      "Total incidents created by source",
		},
		[]string{"source"},
	)

	statusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "status_updates_total",
			Help:      "Total incident status updates by new status",
		},
		[]string{"status"},
	)
)

func recordIncidentCreated(source domain.IncidentSource) {
	incidentsCreated.WithLabelValues(string(source)).Inc()
}

func recordStatusUpdate(status domain.IncidentStatus) {
	statusUpdates.WithLabelValues(string(status)).Inc()
}
