package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cytogate_auth_decisions_total",
			Help: "Authentication and authorization decisions by credential kind and outcome.",
		},
		[]string{"credential", "outcome"},
	)

	tokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cytogate_tokens_issued_total",
		Help: "Personal access tokens issued.",
	})
)

func Init() {
	prometheus.MustRegister(authDecisions, tokensIssued)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome labels for ObserveDecision.
const (
	OutcomeAllowed      = "allowed"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
	OutcomeError        = "error"
)

func ObserveDecision(credential, outcome string) {
	authDecisions.WithLabelValues(credential, outcome).Inc()
}

func ObserveTokenIssued() {
	tokensIssued.Inc()
}
