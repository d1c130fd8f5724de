package plan

import "sync"

// Plan is an ordered collection of Phases plus its own Strategy and an
// interrupted flag.
type Plan struct {
	mu sync.RWMutex

	name        string
	phases      []*Phase
	strategy    Strategy
	interrupted bool
}

// NewPlan creates a Plan over the given phases, in order, driven by
// strategy.
func NewPlan(name string, strategy Strategy, phases ...*Phase) *Plan {
	return &Plan{name: name, phases: phases, strategy: strategy}
}

// Name returns the plan's name.
func (p *Plan) Name() string {
	return p.name
}

// Phases returns the plan's phases, in order.
func (p *Plan) Phases() []*Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Phase(nil), p.phases...)
}

func (p *Plan) children() []Element {
	p.mu.RLock()
	defer p.mu.RUnlock()
	elements := make([]Element, len(p.phases))
	for i, ph := range p.phases {
		elements[i] = ph
	}
	return elements
}

// Errors aggregates errors across all phases; a Plan carries no errors of
// its own.
func (p *Plan) Errors() []string {
	var errs []string
	for _, ph := range p.Phases() {
		errs = append(errs, ph.Errors()...)
	}
	return errs
}

// IsInterrupted reports whether the plan has been interrupted by an
// operator. Only Plan implements Interruptible in this hierarchy.
func (p *Plan) IsInterrupted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interrupted
}

// Interrupt marks the plan interrupted; work stops being dispatched until
// Proceed is called.
func (p *Plan) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupted = true
}

// Proceed clears the interrupted flag.
func (p *Plan) Proceed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupted = false
}

// Candidates returns the phases the plan's Strategy selects to make
// progress next.
func (p *Plan) Candidates(dirtyAssets []PodInstanceRequirement) []Element {
	return p.strategy.Candidates(p.children(), dirtyAssets)
}

// Status computes this plan's aggregate status.
func (p *Plan) Status() Status {
	children := p.children()
	candidates := p.Candidates(nil)
	return AggregateStatus(statusesOf(children), statusesOf(candidates), p.Errors(), p.IsInterrupted())
}

// HasOperations reports whether the plan still has work left to do: true
// iff not all phases are COMPLETE and the plan is not interrupted. A plan
// can be in ERROR status (e.g. rejected target configuration) while still
// having operations left. Grounded on Java PlanUtils.hasOperations.
func (p *Plan) HasOperations() bool {
	allComplete := true
	for _, ph := range p.Phases() {
		if ph.Status() != StatusComplete {
			allComplete = false
			break
		}
	}
	return !allComplete && !p.IsInterrupted()
}

// DirtyAssets returns the PodInstanceRequirement of every step currently
// PREPARED or STARTING across the whole plan, used to block other steps
// from competing for the same pod instance. Grounded on Java
// PlanUtils.getDirtyAssets.
func DirtyAssets(p *Plan) []PodInstanceRequirement {
	if p == nil {
		return nil
	}
	var dirty []PodInstanceRequirement
	for _, ph := range p.Phases() {
		for _, s := range ph.Steps() {
			if !s.IsPrepared() && !s.IsStarting() {
				continue
			}
			if req, ok := s.Requirement(); ok {
				dirty = append(dirty, req)
			}
		}
	}
	return dirty
}

// LaunchableTasks returns the set of task names named by any step's
// requirement, across all of the given plans. Grounded on Java
// PlanUtils.getLaunchableTasks.
func LaunchableTasks(plans []*Plan) map[string]bool {
	tasks := make(map[string]bool)
	for _, p := range plans {
		for _, ph := range p.Phases() {
			for _, s := range ph.Steps() {
				req, ok := s.Requirement()
				if !ok {
					continue
				}
				for _, t := range req.Tasks {
					tasks[t] = true
				}
			}
		}
	}
	return tasks
}

// ActivePlans filters out interrupted plans, the plans still eligible to
// consume offers. Grounded on Java PlanUtils.getActivePlanManagers.
func ActivePlans(plans []*Plan) []*Plan {
	var active []*Plan
	for _, p := range plans {
		if !p.IsInterrupted() {
			active = append(active, p)
		}
	}
	return active
}
