package plan

// Strategy picks the subset of a parent's children eligible to make
// progress next. Built-in strategies are SERIAL and PARALLEL; callers may
// supply their own.
type Strategy interface {
	Name() string
	// Candidates returns the children eligible to be worked on next. It may
	// consult dirtyAssets (e.g. a serial strategy still returns the next
	// incomplete element even if it's currently blocked by a dirty asset;
	// IsEligible is what actually gates dispatch).
	Candidates(children []Element, dirtyAssets []PodInstanceRequirement) []Element
}

// SerialStrategy proceeds through children one at a time, in order: the
// single candidate is the first child that has not yet completed.
type SerialStrategy struct{}

// Name identifies this strategy.
func (SerialStrategy) Name() string { return "serial" }

// Candidates returns at most one element: the first non-COMPLETE child.
func (SerialStrategy) Candidates(children []Element, _ []PodInstanceRequirement) []Element {
	for _, c := range children {
		if c.Status() != StatusComplete {
			return []Element{c}
		}
	}
	return nil
}

// ParallelStrategy allows every non-complete child to be worked on
// concurrently.
type ParallelStrategy struct{}

// Name identifies this strategy.
func (ParallelStrategy) Name() string { return "parallel" }

// Candidates returns every child that has not yet completed.
func (ParallelStrategy) Candidates(children []Element, _ []PodInstanceRequirement) []Element {
	var candidates []Element
	for _, c := range children {
		if c.Status() != StatusComplete {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
