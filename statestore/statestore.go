// Package statestore defines the collaborator the Reconciler pulls its
// initial view of task state from. The hierarchical key-value store
// backing it durably is out of scope here; only the read
// surface the reconciler needs is modeled.
package statestore

import (
	"sync"

	"github.com/dcos/scheduler-core/mesosapi"
)

// StateStore is the read surface the Reconciler depends on.
type StateStore interface {
	// FetchStatuses returns every TaskStatus currently known to the
	// persistence layer.
	FetchStatuses() ([]mesosapi.TaskStatus, error)
}

// Fixture is an in-memory StateStore, used by tests and by any bootstrap
// path that hasn't wired a durable store yet.
type Fixture struct {
	mu       sync.RWMutex
	statuses map[mesosapi.TaskID]mesosapi.TaskStatus
}

// NewFixture creates an empty in-memory StateStore.
func NewFixture() *Fixture {
	return &Fixture{statuses: make(map[mesosapi.TaskID]mesosapi.TaskStatus)}
}

// Put records/overwrites the status for a task id.
func (f *Fixture) Put(status mesosapi.TaskStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[status.TaskID] = status
}

// FetchStatuses implements StateStore.
func (f *Fixture) FetchStatuses() ([]mesosapi.TaskStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]mesosapi.TaskStatus, 0, len(f.statuses))
	for _, status := range f.statuses {
		out = append(out, status)
	}
	return out, nil
}
