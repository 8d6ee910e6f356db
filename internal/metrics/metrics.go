package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "routeplanner"

// Metrics собирает метрики планировщика.
type Metrics struct {
	// Материализация
	RunsTotal        *prometheus.CounterVec
	VisitsCreated    prometheus.Counter
	VisitsExisting   prometheus.Counter
	TemplatesSkipped *prometheus.CounterVec
	TemplateErrors   prometheus.Counter
	AmbiguousSeasons prometheus.Counter
	RunDuration      prometheus.Histogram

	// Переносы
	RescheduleResults *prometheus.CounterVec
}

// New регистрирует коллекторы в reg. В тестах нужен свой prometheus.NewRegistry(),
// иначе повторная регистрация паникует.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "materialize_runs_total",
			Help:      "Week materialization runs by result.",
		}, []string{"result"}),
		VisitsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_created_total",
			Help:      "Visits created by materialization.",
		}),
		VisitsExisting: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_existing_total",
			Help:      "Template occurrences skipped because the visit already existed.",
		}),
		TemplatesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "templates_skipped_total",
			Help:      "Templates that produced no visits, by reason.",
		}, []string{"reason"}),
		TemplateErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_errors_total",
			Help:      "Templates whose processing failed and was isolated.",
		}),
		AmbiguousSeasons: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ambiguous_seasons_total",
			Help:      "Template evaluations where several seasons covered the week.",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "materialize_run_duration_seconds",
			Help:      "Duration of one week materialization.",
			Buckets:   prometheus.DefBuckets,
		}),
		RescheduleResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reschedule_results_total",
			Help:      "Per-visit reschedule outcomes.",
		}, []string{"result"}),
	}
}
