// Package reconcile implements the two-phase (explicit-then-implicit)
// task-status reconciliation protocol with exponential backoff, grounded
// line for line on the upstream Reconciler.
package reconcile

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/atomic"
	"github.com/uber-go/tally"

	"github.com/dcos/scheduler-core/clock"
	"github.com/dcos/scheduler-core/driver"
	"github.com/dcos/scheduler-core/mesosapi"
	"github.com/dcos/scheduler-core/statestore"
)

// Exponential backoff between explicit reconcile requests.
const (
	baseBackoff = 4000 * time.Millisecond
	multiplier  = 2
	maxBackoff  = 30000 * time.Millisecond
)

// neverRequestedMs sentinels lastRequestTimeMs so the very first explicit
// reconcile after Start() always clears the backoff gate, regardless of
// what the injected clock's absolute value is (a fixed-for-tests clock may
// sit at or near the epoch, where 0 >= lastRequestTimeMs+backOffMs would
// otherwise never hold).
const neverRequestedMs = math.MinInt64

// Reconciler synchronizes the scheduler's local view of task state with
// the cluster manager's authoritative view, treating the cluster manager
// as the source of truth.
type Reconciler struct {
	stateStore statestore.StateStore
	clock      clock.Clock
	metrics    *Metrics

	implicitTriggered atomic.Bool

	drvMu sync.Mutex
	drv   driver.Driver

	mu                sync.Mutex
	unreconciled      map[mesosapi.TaskID]mesosapi.TaskStatus
	lastRequestTimeMs int64
	backOffMs         int64
}

// New creates a Reconciler. drv may be nil at construction time, in which
// case Reconcile resolves it lazily via driver.Get(); if no driver is
// registered there either, Reconcile returns an error and makes no call.
func New(stateStore statestore.StateStore, drv driver.Driver, clk clock.Clock, scope tally.Scope) *Reconciler {
	r := &Reconciler{
		stateStore: stateStore,
		drv:        drv,
		clock:      clk,
		metrics:    NewMetrics(scope),
	}
	r.resetTimerValues()
	return r
}

// getDriver returns the configured driver, lazily resolving and caching
// driver.Get() the first time Reconcile runs without one wired in at
// construction. Guarded by drvMu, distinct from the unreconciled-map lock,
// since Reconcile may be called concurrently from multiple goroutines and
// the original construction-time nil-driver path races on a bare field
// read/write otherwise.
func (r *Reconciler) getDriver() (driver.Driver, error) {
	r.drvMu.Lock()
	defer r.drvMu.Unlock()
	if r.drv != nil {
		return r.drv, nil
	}
	d := driver.Get()
	if d == nil {
		return nil, errors.New("reconcile: no driver registered, cannot reconcile")
	}
	r.drv = d
	return d, nil
}

func (r *Reconciler) resetTimerValues() {
	r.lastRequestTimeMs = neverRequestedMs
	r.backOffMs = int64(baseBackoff / time.Millisecond)
}

// Start fetches all known statuses from the state store, inserts the
// non-terminal ones into the unreconciled set, clears the
// implicit-reconciliation-triggered flag, and resets the backoff timer.
// Overwrites the set entirely; must be thread-safe against other
// Reconciler calls.
func (r *Reconciler) Start() error {
	statuses, err := r.stateStore.FetchStatuses()
	if err != nil {
		return errors.Wrap(err, "reconcile: failed to fetch task statuses")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unreconciled = make(map[mesosapi.TaskID]mesosapi.TaskStatus)
	for _, status := range statuses {
		if !status.IsTerminal() {
			r.unreconciled[status.TaskID] = status
		}
	}
	r.implicitTriggered.Store(false)
	r.resetTimerValues()
	r.metrics.UnreconciledLen.Update(float64(len(r.unreconciled)))

	log.WithField("fetched", len(statuses)).WithField("unreconciled", len(r.unreconciled)).
		Info("reconcile: start")
	return nil
}

// Reconcile drives the state machine forward by at most one driver call.
// It may be invoked repeatedly, from any goroutine, including a timer.
//
// No driver call is ever made while the lock guarding unreconciled is
// held: the snapshot-then-release-then-call shape below is load-bearing,
// not stylistic — the driver may itself take a lock when issuing the
// underlying RPC, and holding both at once risks deadlock.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	if r.implicitTriggered.Load() {
		// PHASE 3: implicit reconciliation already triggered, nothing to do.
		return nil
	}

	drv, err := r.getDriver()
	if err != nil {
		return err
	}

	var tasksToReconcile []mesosapi.TaskID
	implicit := false

	r.mu.Lock()
	if len(r.unreconciled) > 0 {
		nowMs := r.clock.Now().UnixNano() / int64(time.Millisecond)
		if nowMs >= r.lastRequestTimeMs+r.backOffMs {
			// PHASE 1: explicit reconciliation against the remaining tasks.
			r.lastRequestTimeMs = nowMs
			// Mirrors the original's overflow behavior: a backoff that
			// overflows past int64 (and so looks non-positive) clamps to
			// 0, not to the max — min(newBackoff>0 ? newBackoff : 0, MAX).
			newBackoff := r.backOffMs * multiplier
			if newBackoff <= 0 {
				newBackoff = 0
			}
			if newBackoff > maxBackoff.Milliseconds() {
				newBackoff = maxBackoff.Milliseconds()
			}
			r.backOffMs = newBackoff

			tasksToReconcile = make([]mesosapi.TaskID, 0, len(r.unreconciled))
			for taskID := range r.unreconciled {
				tasksToReconcile = append(tasksToReconcile, taskID)
			}
		} else {
			remaining := len(r.unreconciled)
			waitMs := r.lastRequestTimeMs + r.backOffMs - nowMs
			r.mu.Unlock()
			log.WithField("wait_ms", waitMs).WithField("remaining", remaining).
				Debug("reconcile: backoff not expired, skipping this call")
			return nil
		}
	} else {
		// PHASE 2: no unreconciled tasks remain, trigger one implicit call.
		r.resetTimerValues()
		implicit = true
	}
	r.mu.Unlock()

	if implicit {
		r.implicitTriggered.Store(true)
		log.Info("reconcile: triggering implicit reconciliation of all tasks")
	} else {
		log.WithField("count", len(tasksToReconcile)).
			Info("reconcile: triggering explicit reconciliation")
	}

	if err := drv.ReconcileTasks(ctx, tasksToReconcile); err != nil {
		if implicit {
			r.metrics.ImplicitCalls.Inc(1)
		} else {
			r.metrics.ExplicitCalls.Inc(1)
		}
		return errors.Wrap(err, "reconcile: driver call failed")
	}
	if implicit {
		r.metrics.ImplicitCalls.Inc(1)
	} else {
		r.metrics.ExplicitCalls.Inc(1)
	}
	return nil
}

// Update reacts to an asynchronous task status callback by marking that
// task id reconciled, if it was still pending reconciliation.
func (r *Reconciler) Update(status mesosapi.TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.unreconciled) == 0 {
		return
	}
	delete(r.unreconciled, status.TaskID)
	r.metrics.UnreconciledLen.Update(float64(len(r.unreconciled)))
}

// IsReconciled reports whether the unreconciled set is empty.
func (r *Reconciler) IsReconciled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unreconciled) == 0
}

// Remaining returns the task ids still pending reconciliation, for tests.
func (r *Reconciler) Remaining() []mesosapi.TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]mesosapi.TaskID, 0, len(r.unreconciled))
	for id := range r.unreconciled {
		ids = append(ids, id)
	}
	return ids
}
