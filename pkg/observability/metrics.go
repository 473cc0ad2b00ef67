package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters the webhook and the aggregator record.
type Metrics struct {
	MessagesHandled   prometheus.Counter
	ParseFailures     prometheus.Counter
	LenderEvaluations *prometheus.CounterVec
}

// InitMetrics registers the collectors on a dedicated registry and
// returns them with the handler for the /metrics endpoint.
func InitMetrics(serviceName string) (*Metrics, http.Handler) {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		MessagesHandled: factory.NewCounter(prometheus.CounterOpts{
			Name:        "messages_handled_total",
			Help:        "Collateral messages received and evaluated.",
			ConstLabels: labels,
		}),
		ParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name:        "parse_failures_total",
			Help:        "Messages that produced no usable property record.",
			ConstLabels: labels,
		}),
		LenderEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "lender_evaluations_total",
			Help:        "Per-lender evaluations by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Evaluation outcome label values.
const (
	OutcomeQuoted   = "quoted"
	OutcomeDeclined = "declined"
	OutcomeNoResult = "no_result"
)
