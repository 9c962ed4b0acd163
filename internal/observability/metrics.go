package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recipeSavedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "recipe_service",
		Subsystem: "recipes",
		Name:      "last_recipe_saved_timestamp_seconds",
		Help:      "Unix timestamp of the most recent recipe persisted.",
	})
	evaluationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "recipe_service",
		Subsystem: "engine",
		Name:      "last_evaluation_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed evaluation.",
	})
)

func init() {
	prometheus.MustRegister(recipeSavedGauge, evaluationGauge)
}

// RecordRecipeSaved updates the recipe persistence watermark gauge.
func RecordRecipeSaved(ts time.Time) {
	if ts.IsZero() {
		return
	}
	recipeSavedGauge.Set(float64(ts.Unix()))
}

// RecordEvaluation updates the evaluation watermark gauge.
func RecordEvaluation(ts time.Time) {
	if ts.IsZero() {
		return
	}
	evaluationGauge.Set(float64(ts.Unix()))
}
