package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	evaluatedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipe_service",
		Subsystem: "engine",
		Name:      "recipes_evaluated_total",
		Help:      "Number of recipe evaluations grouped by result.",
	}, []string{"result"})

	checkerFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipe_service",
		Subsystem: "engine",
		Name:      "checker_failures_total",
		Help:      "Number of condition checker errors (converted to non-matches) per property category.",
	}, []string{"category"})

	executorFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipe_service",
		Subsystem: "engine",
		Name:      "executor_failures_total",
		Help:      "Number of action executor errors per action type.",
	}, []string{"action_type"})

	actionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipe_service",
		Subsystem: "engine",
		Name:      "actions_executed_total",
		Help:      "Number of executed actions grouped by type and whether anything changed.",
	}, []string{"action_type", "changed"})
)

func init() {
	prometheus.MustRegister(evaluatedCounter, checkerFailureCounter, executorFailureCounter, actionCounter)
}

func recordEvaluated(matched bool) {
	result := "no_match"
	if matched {
		result = "match"
	}
	evaluatedCounter.WithLabelValues(result).Inc()
}

func recordCheckerFailure(category string) {
	checkerFailureCounter.WithLabelValues(category).Inc()
}

func recordExecutorFailure(actionType string) {
	executorFailureCounter.WithLabelValues(actionType).Inc()
}

func recordActionExecuted(actionType string, changed bool) {
	actionCounter.WithLabelValues(actionType, boolLabel(changed)).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
