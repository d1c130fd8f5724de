// Package mesosapi defines the CORE's own vocabulary for the cluster
// manager's data model. The concrete wire types the cluster
// manager's protocol actually produces are an external collaborator's
// concern; mesosdriver is the only package that knows how to translate
// between these and a real Mesos v1 Scheduler API client.
package mesosapi

import "time"

// OfferID uniquely identifies an Offer.
type OfferID string

// AgentID identifies the worker node (agent) an Offer originates from.
type AgentID string

// TaskID uniquely identifies a task.
type TaskID string

// Reservation labels a reserved Resource with the resource_id used to tie
// RESERVE/CREATE/DESTROY/UNRESERVE operations together across offer cycles.
type Reservation struct {
	ResourceID string
	Labels     map[string]string
}

// Persistence marks a disk Resource as a persistent volume, which must be
// DESTROYed before it can be UNRESERVEd.
type Persistence struct {
	ID string
}

// ResourceKind distinguishes resource categories carried in an Offer.
type ResourceKind int

const (
	ResourceCPU ResourceKind = iota
	ResourceMem
	ResourceDisk
	ResourcePorts
)

// Resource is one reservable unit of cpu/mem/disk/ports advertised within an
// Offer. Disk resources may carry a Persistence marker and/or a Reservation.
type Resource struct {
	Kind        ResourceKind
	Name        string
	Scalar      float64
	Role        string
	Reservation *Reservation
	Persistence *Persistence
}

// IsReserved reports whether this Resource carries a reservation label
// (i.e. is a managed reservation rather than an unreserved, "*"-role
// resource). Grounded on reservation.HasLabeledReservedResources.
func (r Resource) IsReserved() bool {
	return r.Reservation != nil
}

// IsPersistentVolume reports whether this Resource is a persistent disk
// volume that requires DESTROY before UNRESERVE.
func (r Resource) IsPersistentVolume() bool {
	return r.Persistence != nil
}

// Offer is an immutable snapshot of resources advertised by the cluster
// manager on one agent, valid for a short time.
type Offer struct {
	ID        OfferID
	AgentID   AgentID
	Hostname  string
	Resources []Resource
}

// RecommendationKind enumerates the operations a recommendation may apply
// against one offer.
type RecommendationKind int

// Recommendation kinds.
const (
	KindLaunch RecommendationKind = iota
	KindReserve
	KindCreate
	KindDestroy
	KindUnreserve
	KindStore
)

func (k RecommendationKind) String() string {
	switch k {
	case KindLaunch:
		return "LAUNCH"
	case KindReserve:
		return "RESERVE"
	case KindCreate:
		return "CREATE"
	case KindDestroy:
		return "DESTROY"
	case KindUnreserve:
		return "UNRESERVE"
	case KindStore:
		return "STORE"
	default:
		return "UNKNOWN"
	}
}

// TaskSpec is the opaque task launch payload carried by a LAUNCH
// recommendation. The core never inspects its contents.
type TaskSpec struct {
	TaskID TaskID
	Name   string
	Opaque interface{}
}

// OfferRecommendation is an intent to apply one operation against one
// offer. A LAUNCH carries TaskSpec; RESERVE/CREATE/DESTROY/UNRESERVE carry
// Resource, and a DESTROY also carries the volume's VolumeID.
type OfferRecommendation struct {
	Kind     RecommendationKind
	OfferID  OfferID
	TaskSpec *TaskSpec
	Resource *Resource
	VolumeID string
}

// OfferResources groups an Offer with the subset of its resources flagged
// as "unexpected" (candidates for cleanup by the Cleanup Planner).
type OfferResources struct {
	Offer     Offer
	Resources []Resource
}

// TaskState enumerates the cluster manager's task lifecycle states
// (STAGING, STARTING, RUNNING, FINISHED, FAILED, KILLED, LOST, ERROR).
// The last five are terminal.
type TaskState int

const (
	TaskStaging TaskState = iota
	TaskStarting
	TaskRunning
	TaskFinished
	TaskFailed
	TaskKilled
	TaskLost
	TaskError
)

// terminalStates is the set of TaskStates that can never transition further.
var terminalStates = map[TaskState]bool{
	TaskFinished: true,
	TaskFailed:   true,
	TaskKilled:   true,
	TaskLost:     true,
	TaskError:    true,
}

// IsTerminal reports whether s is one of the five terminal states.
func (s TaskState) IsTerminal() bool {
	return terminalStates[s]
}

// TaskStatus is a point-in-time status report for one task.
type TaskStatus struct {
	TaskID    TaskID
	State     TaskState
	AgentID   AgentID
	Timestamp time.Time
	Message   string
}

// IsTerminal reports whether this status is terminal.
func (t TaskStatus) IsTerminal() bool {
	return t.State.IsTerminal()
}
