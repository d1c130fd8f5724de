// Package driver holds the CORE's handle to the cluster manager: the
// narrow surface of outbound calls (decline an offer, accept a set of
// recommendations, ask for task status reconciliation) that every other
// package issues work through.
//
// There's a real design tension here: some call sites (the offer
// processor and the reconciler) want a Driver handed to them by
// constructor injection, while others (the framework registration
// callback, invoked by the Mesos client library itself) only get to run
// after a successful SUBSCRIBE and have no constructor to inject into.
// This package resolves the tension the way the upstream scheduler does for its own
// process-wide Mesos driver: a process-wide handle that is written
// exactly once, at registration, and is safe to read concurrently
// thereafter, alongside the ordinary Driver interface so the rest of the
// code can still depend on an interface value rather than the package
// global.
package driver

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dcos/scheduler-core/mesosapi"
)

// Refuse intervals known to the driver: a short interval
// signals "retry soon", a long interval signals "not interested for a
// while".
const (
	ShortDeclineInterval = 5 * time.Second
	LongDeclineInterval  = 5 * time.Minute
)

// Driver is the outbound call surface every other package programs
// against.
type Driver interface {
	// DeclineOffer releases offerID back to the cluster manager without
	// using it, for the given refuse interval.
	DeclineOffer(ctx context.Context, offerID mesosapi.OfferID, refuse time.Duration) error
	// AcceptOffers submits an ordered batch of recommendations against a
	// single offer.
	AcceptOffers(ctx context.Context, offerID mesosapi.OfferID, recommendations []mesosapi.OfferRecommendation) error
	// ReconcileTasks asks the cluster manager to report its view of the
	// given tasks' statuses. An empty slice requests implicit
	// reconciliation: the manager's full view of all tasks.
	ReconcileTasks(ctx context.Context, taskIDs []mesosapi.TaskID) error
}

var (
	mu       sync.RWMutex
	instance Driver
)

// Register installs the process-wide Driver handle. It is intended to be
// called exactly once, by the framework runner, immediately after the
// cluster manager acknowledges registration. Calling it again replaces
// the handle, which only ever happens across a framework re-registration.
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		log.Warn("driver: replacing already-registered driver handle")
	}
	instance = d
}

// Get returns the process-wide Driver handle, or nil if none has been
// registered yet. Callers that can be constructed with a Driver directly
// (offer.Processor, reconcile.Reconciler) should prefer that over calling Get;
// Get exists for the few call sites that run before or outside normal
// construction, such as event callbacks from the Mesos client library.
func Get() Driver {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Reset clears the process-wide handle. Used by tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}
