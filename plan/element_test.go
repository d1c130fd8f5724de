package plan

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ElementTestSuite struct {
	suite.Suite
}

func TestElementTestSuite(t *testing.T) {
	suite.Run(t, new(ElementTestSuite))
}

func (s *ElementTestSuite) TestCompleteStepNotEligible() {
	step := NewStep("step-0", nil)
	step.SetStatus(StatusComplete)
	s.False(IsEligible(step, nil))
}

func (s *ElementTestSuite) TestErroredStepNotEligible() {
	step := NewStep("step-0", nil)
	step.AddError("failed")
	s.False(IsEligible(step, nil))
}

func (s *ElementTestSuite) TestInterruptedPlanNotEligible() {
	p := NewPlan("deploy", SerialStrategy{}, NewPhase("p0", SerialStrategy{}, NewStep("s0", nil)))
	p.Interrupt()
	s.False(IsEligible(p, nil))
}

func (s *ElementTestSuite) TestStepWithConflictingDirtyAssetNotEligible() {
	req := PodInstanceRequirement{Pod: PodInstance{Type: "index", Index: 0}, Tasks: []string{"node"}}
	step := NewStep("step-0", &req)

	dirty := []PodInstanceRequirement{req}
	s.False(IsEligible(step, dirty))
}

func (s *ElementTestSuite) TestStepWithoutConflictIsEligible() {
	req := PodInstanceRequirement{Pod: PodInstance{Type: "index", Index: 0}, Tasks: []string{"node"}}
	step := NewStep("step-0", &req)

	dirty := []PodInstanceRequirement{
		{Pod: PodInstance{Type: "index", Index: 1}, Tasks: []string{"node"}},
	}
	s.True(IsEligible(step, dirty))
}

func (s *ElementTestSuite) TestPendingStepIsEligible() {
	step := NewStep("step-0", nil)
	s.True(IsEligible(step, nil))
}

func (s *ElementTestSuite) TestAssetConflicts() {
	a := PodInstanceRequirement{Pod: PodInstance{Type: "index", Index: 0}, Tasks: []string{"node"}}
	b := PodInstanceRequirement{Pod: PodInstance{Type: "index", Index: 0}, Tasks: []string{"other"}}
	c := PodInstanceRequirement{Pod: PodInstance{Type: "index", Index: 1}, Tasks: []string{"node"}}

	s.True(a.ConflictsWith(b))
	s.False(a.ConflictsWith(c))
	s.True(AssetConflicts(a, []PodInstanceRequirement{c, b}))
	s.False(AssetConflicts(a, []PodInstanceRequirement{c}))
}
