package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker collectors share the "target" label, the name of the upstream the
// breaker guards. This service has a single target, the catalog feed, but the
// label keeps dashboards stable if more upstreams appear.
var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "upstream_breaker_state",
			Help: "Breaker state per upstream target (0 closed, 1 open, 2 half-open)",
		},
		[]string{"target"},
	)
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_breaker_transitions_total",
			Help: "Breaker state transitions per upstream target",
		},
		[]string{"target", "from", "to"},
	)
	BreakerOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_breaker_opened_total",
			Help: "Times a breaker tripped open, per upstream target",
		},
		[]string{"target"},
	)
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal)
}
