package plan

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Step is the smallest unit of Plan work. Its lifecycle:
// PENDING -> (optionally WAITING when blocked) -> PREPARED on start() ->
// STARTING/STARTED as the cluster manager acknowledges -> COMPLETE on
// terminal success, or ERROR on permanent failure.
type Step struct {
	mu sync.RWMutex

	name        string
	status      Status
	requirement *PodInstanceRequirement
	errs        []string
}

// NewStep creates a Step in PENDING status, optionally carrying a
// PodInstanceRequirement naming the pod instance/tasks it will launch.
func NewStep(name string, requirement *PodInstanceRequirement) *Step {
	return &Step{
		name:        name,
		status:      StatusPending,
		requirement: requirement,
	}
}

// Name returns the step's name, unique within its phase.
func (s *Step) Name() string {
	return s.name
}

// Status returns the step's current status.
func (s *Step) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus transitions the step to the given status.
func (s *Step) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == status {
		return
	}
	log.WithField("step", s.name).WithField("from", s.status).WithField("to", status).
		Debug("plan: step status transition")
	s.status = status
}

// Errors returns the step's accumulated errors, if any.
func (s *Step) Errors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.errs...)
}

// AddError appends an error and marks the step ERROR.
func (s *Step) AddError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, msg)
	s.status = StatusError
}

// Requirement returns the step's PodInstanceRequirement, if any.
func (s *Step) Requirement() (PodInstanceRequirement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.requirement == nil {
		return PodInstanceRequirement{}, false
	}
	return *s.requirement, true
}

// IsPrepared reports whether the step is currently PREPARED.
func (s *Step) IsPrepared() bool {
	return s.Status() == StatusPrepared
}

// IsStarting reports whether the step is currently STARTING.
func (s *Step) IsStarting() bool {
	return s.Status() == StatusStarting
}

// Start transitions a PENDING step to PREPARED and returns its requirement,
// the signal that the step is now ready to consume offers. Grounded on the
// Java Step.start()/ResourceCleanupStep.start() pattern.
func (s *Step) Start() (PodInstanceRequirement, bool) {
	s.mu.Lock()
	if s.status == StatusPending {
		s.status = StatusPrepared
	}
	s.mu.Unlock()
	return s.Requirement()
}

// UpdateTaskStatus reacts to a task status update relevant to this step,
// advancing it to COMPLETE on terminal success or ERROR on terminal failure.
func (s *Step) UpdateTaskStatus(terminalSuccess bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if terminalSuccess {
		s.status = StatusComplete
	} else {
		s.status = StatusError
	}
}

// resourceCleanupStep implements the uninstall plan's per-resource teardown
// unit: a Step that transitions PENDING -> PREPARED on Start, and completes
// once notified that its resource id has actually been torn down. Grounded
// on original_source's ResourceCleanupStep.java.
type ResourceCleanupStep struct {
	*Step
	resourceID string
}

// NewResourceCleanupStep creates a cleanup step for the given resourceID,
// named the way the original avoids confusing a raw resource-id UUID with a
// step UUID elsewhere in introspection.
func NewResourceCleanupStep(resourceID string, status Status) *ResourceCleanupStep {
	step := NewStep("unreserve-"+resourceID, nil)
	step.SetStatus(status)
	return &ResourceCleanupStep{
		Step:       step,
		resourceID: resourceID,
	}
}

// UpdateResourceStatus marks this step COMPLETE if resourceID appears among
// the resource ids that were just unreserved/destroyed.
func (r *ResourceCleanupStep) UpdateResourceStatus(uninstalledResourceIDs map[string]bool) {
	if uninstalledResourceIDs[r.resourceID] {
		log.WithField("resource_id", r.resourceID).Info("plan: resource cleanup step complete")
		r.SetStatus(StatusComplete)
	}
}
