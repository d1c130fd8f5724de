package plan

// Element is the common read surface shared by Step, Phase, and Plan, used
// by AggregateStatus, IsEligible, and Strategy candidate selection. Grounded
// on the Java Element/PlanChild interfaces referenced throughout PlanUtils.
type Element interface {
	Name() string
	Status() Status
	Errors() []string
}

// Interruptible is implemented only by elements that can themselves be
// interrupted. In this hierarchy that is Plan alone: `interrupted` is
// modeled as a Plan-only flag, not a Phase/Step one.
type Interruptible interface {
	IsInterrupted() bool
}

// Requirer is implemented by elements that may carry a PodInstanceRequirement
// (Step alone).
type Requirer interface {
	Requirement() (PodInstanceRequirement, bool)
}

// IsEligible reports whether element may proceed with work given the
// currently dirty assets. False if the element is complete, has errors, is
// interrupted, or (for a Step) its requirement conflicts with a dirty asset.
// Grounded on Java PlanUtils.isEligible.
func IsEligible(element Element, dirtyAssets []PodInstanceRequirement) bool {
	if element.Status() == StatusComplete || len(element.Errors()) > 0 {
		return false
	}
	if interruptible, ok := element.(Interruptible); ok && interruptible.IsInterrupted() {
		return false
	}
	if requirer, ok := element.(Requirer); ok {
		if req, present := requirer.Requirement(); present && AssetConflicts(req, dirtyAssets) {
			return false
		}
	}
	return true
}

func statusesOf(elements []Element) []Status {
	statuses := make([]Status, len(elements))
	for i, e := range elements {
		statuses[i] = e.Status()
	}
	return statuses
}
