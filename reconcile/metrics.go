package reconcile

import "github.com/uber-go/tally"

// Metrics holds the counters/gauges the reconciler reports.
type Metrics struct {
	ExplicitCalls   tally.Counter
	ImplicitCalls   tally.Counter
	UnreconciledLen tally.Gauge
}

// NewMetrics returns a new instance of Metrics scoped under "reconcile".
func NewMetrics(scope tally.Scope) *Metrics {
	scope = scope.SubScope("reconcile")
	return &Metrics{
		ExplicitCalls:   scope.Tagged(map[string]string{"phase": "explicit"}).Counter("calls"),
		ImplicitCalls:   scope.Tagged(map[string]string{"phase": "implicit"}).Counter("calls"),
		UnreconciledLen: scope.Gauge("unreconciled"),
	}
}
