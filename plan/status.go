package plan

import log "github.com/sirupsen/logrus"

// Status is the finite set of lifecycle states a Step/Phase/Plan element can
// be in. Ordering of the constants is not significant for comparison, but
// the clauses in AggregateStatus below are order-sensitive.
type Status int

const (
	StatusError Status = iota
	StatusWaiting
	StatusPending
	StatusPrepared
	StatusStarting
	StatusStarted
	StatusInProgress
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "ERROR"
	case StatusWaiting:
		return "WAITING"
	case StatusPending:
		return "PENDING"
	case StatusPrepared:
		return "PREPARED"
	case StatusStarting:
		return "STARTING"
	case StatusStarted:
		return "STARTED"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

func allMatch(status Status, statuses []Status) bool {
	for _, s := range statuses {
		if s != status {
			return false
		}
	}
	return true
}

func anyMatch(status Status, statuses []Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// AggregateStatus computes the overall status to display for a parent
// element from its children's statuses, the statuses of the children its
// strategy picked as candidates, its own errors, and whether it is
// interrupted.
//
// Evaluation is ordered; the first matching clause wins. This function must
// never consult the parent's own cached status, or it would create a cycle.
// Grounded line-for-line on the upstream PlanUtils.getAggregateStatus.
func AggregateStatus(childStatuses, candidateStatuses []Status, errors []string, isInterrupted bool) Status {
	var result Status

	switch {
	case len(errors) > 0 || anyMatch(StatusError, childStatuses):
		result = StatusError
	case allMatch(StatusComplete, childStatuses):
		result = StatusComplete
	case isInterrupted:
		result = StatusWaiting
	case anyMatch(StatusPrepared, childStatuses):
		result = StatusInProgress
	case anyMatch(StatusWaiting, candidateStatuses):
		result = StatusWaiting
	case anyMatch(StatusInProgress, candidateStatuses):
		result = StatusInProgress
	case anyMatch(StatusComplete, childStatuses) && anyMatch(StatusPending, candidateStatuses):
		result = StatusInProgress
	case anyMatch(StatusComplete, childStatuses) && anyMatch(StatusStarting, candidateStatuses):
		result = StatusInProgress
	case anyMatch(StatusComplete, childStatuses) && anyMatch(StatusStarted, candidateStatuses):
		result = StatusInProgress
	case anyMatch(StatusPending, candidateStatuses):
		result = StatusPending
	case anyMatch(StatusWaiting, childStatuses):
		result = StatusWaiting
	case anyMatch(StatusStarting, candidateStatuses):
		result = StatusStarting
	case anyMatch(StatusStarted, candidateStatuses):
		result = StatusStarted
	default:
		result = StatusError
		log.WithField("children", childStatuses).
			WithField("candidates", candidateStatuses).
			Warn("plan: unexpected state while aggregating status")
	}

	return result
}
