package plan

import "sync"

// Phase is an ordered collection of Steps plus a Strategy.
type Phase struct {
	mu sync.RWMutex

	name     string
	steps    []*Step
	strategy Strategy
}

// NewPhase creates a Phase with the given steps, in order, driven by
// strategy.
func NewPhase(name string, strategy Strategy, steps ...*Step) *Phase {
	return &Phase{name: name, steps: steps, strategy: strategy}
}

// Name returns the phase's name.
func (p *Phase) Name() string {
	return p.name
}

// Steps returns the phase's steps, in order.
func (p *Phase) Steps() []*Step {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Step(nil), p.steps...)
}

func (p *Phase) children() []Element {
	p.mu.RLock()
	defer p.mu.RUnlock()
	elements := make([]Element, len(p.steps))
	for i, s := range p.steps {
		elements[i] = s
	}
	return elements
}

// Candidates returns the steps the phase's Strategy has selected to make
// progress next, given the currently dirty assets.
func (p *Phase) Candidates(dirtyAssets []PodInstanceRequirement) []Element {
	return p.strategy.Candidates(p.children(), dirtyAssets)
}

// Errors aggregates errors across all steps: a Phase carries no errors of
// its own, treating a phase's error state as purely a function of its
// children.
func (p *Phase) Errors() []string {
	var errs []string
	for _, s := range p.Steps() {
		errs = append(errs, s.Errors()...)
	}
	return errs
}

// Status computes this phase's aggregate status from its steps and their
// strategy-selected candidates.
func (p *Phase) Status() Status {
	children := p.children()
	candidates := p.Candidates(nil)
	return AggregateStatus(statusesOf(children), statusesOf(candidates), p.Errors(), false)
}
