package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topsis",
			Name:      "evaluations_total",
			Help:      "Evaluations by outcome and validation error kind",
		},
		[]string{"status", "kind"},
	)

	EvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "topsis",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent parsing and scoring a decision table",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	AlternativesEvaluated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "topsis",
			Name:      "alternatives_per_evaluation",
			Help:      "Number of rows in each scored decision table",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topsis",
			Name:      "result_deliveries_total",
			Help:      "Result email deliveries by outcome",
		},
		[]string{"result"}, // "sent" / "failed" / "skipped"
	)
)

func init() {
	prometheus.MustRegister(EvaluationsTotal, EvaluationDuration, AlternativesEvaluated, DeliveriesTotal)
}
