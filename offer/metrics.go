package offer

import "github.com/uber-go/tally"

// Metrics holds the counters/timers the offer processor reports.
type Metrics struct {
	Enqueued        tally.Counter
	Processed       tally.Counter
	DeclinesShort   tally.Counter
	DeclinesLong    tally.Counter
	Recommendations tally.Counter
	ProcessDuration tally.Timer
}

// NewMetrics returns a new instance of Metrics scoped under "offers".
func NewMetrics(scope tally.Scope) *Metrics {
	scope = scope.SubScope("offers")
	return &Metrics{
		Enqueued:        scope.Counter("enqueued"),
		Processed:       scope.Counter("processed"),
		DeclinesShort:   scope.Tagged(map[string]string{"interval": "short"}).Counter("declines"),
		DeclinesLong:    scope.Tagged(map[string]string{"interval": "long"}).Counter("declines"),
		Recommendations: scope.Counter("recommendations"),
		ProcessDuration: scope.Timer("process_duration"),
	}
}
