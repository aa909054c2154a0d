// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classbook",
		Name:      "reports_generated_total",
		Help:      "Exported report documents by kind and format.",
	}, []string{"kind", "format"})

	AttendanceWeeksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classbook",
		Name:      "attendance_weeks_recorded_total",
		Help:      "Attendance week submissions.",
	})

	GradesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classbook",
		Name:      "grades_recorded_total",
		Help:      "Grade entries appended.",
	})

	GradesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classbook",
		Name:      "grades_skipped_total",
		Help:      "Submitted grades that could not be parsed as numbers.",
	})

	DatabaseFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classbook",
		Name:      "database_fallbacks_total",
		Help:      "Startups that fell back to the local SQLite store.",
	})
)
