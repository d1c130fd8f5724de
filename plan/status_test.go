package plan

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type StatusTestSuite struct {
	suite.Suite
}

func TestStatusTestSuite(t *testing.T) {
	suite.Run(t, new(StatusTestSuite))
}

func (s *StatusTestSuite) TestAnyErrorWins() {
	status := AggregateStatus(
		[]Status{StatusComplete, StatusComplete},
		nil,
		[]string{"boom"},
		false,
	)
	s.Equal(StatusError, status)
}

func (s *StatusTestSuite) TestChildErrorWins() {
	status := AggregateStatus(
		[]Status{StatusComplete, StatusError},
		[]Status{StatusStarted},
		nil,
		false,
	)
	s.Equal(StatusError, status)
}

func (s *StatusTestSuite) TestAllChildrenCompleteIsComplete() {
	status := AggregateStatus(
		[]Status{StatusComplete, StatusComplete},
		nil,
		nil,
		false,
	)
	s.Equal(StatusComplete, status)
}

func (s *StatusTestSuite) TestInterruptedIsWaiting() {
	status := AggregateStatus(
		[]Status{StatusPending, StatusComplete},
		[]Status{StatusPending},
		nil,
		true,
	)
	s.Equal(StatusWaiting, status)
}

func (s *StatusTestSuite) TestAnyPreparedChildIsInProgress() {
	status := AggregateStatus(
		[]Status{StatusPrepared, StatusPending},
		[]Status{StatusPending},
		nil,
		false,
	)
	s.Equal(StatusInProgress, status)
}

func (s *StatusTestSuite) TestWaitingCandidateIsWaiting() {
	status := AggregateStatus(
		[]Status{StatusPending, StatusPending},
		[]Status{StatusWaiting},
		nil,
		false,
	)
	s.Equal(StatusWaiting, status)
}

func (s *StatusTestSuite) TestInProgressCandidateIsInProgress() {
	status := AggregateStatus(
		[]Status{StatusPending, StatusPending},
		[]Status{StatusInProgress},
		nil,
		false,
	)
	s.Equal(StatusInProgress, status)
}

// Not all children are complete here (one is still PENDING), so clause 2
// does not swallow the case: a completed child alongside a pending
// candidate should read as progress being made, not as simply pending.
func (s *StatusTestSuite) TestCompleteChildWithPendingCandidateIsInProgress() {
	status := AggregateStatus(
		[]Status{StatusComplete, StatusPending},
		[]Status{StatusPending},
		nil,
		false,
	)
	s.Equal(StatusInProgress, status)
}

func (s *StatusTestSuite) TestCompleteChildWithStartingCandidateIsInProgress() {
	status := AggregateStatus(
		[]Status{StatusComplete, StatusWaiting},
		[]Status{StatusStarting},
		nil,
		false,
	)
	s.Equal(StatusInProgress, status)
}

func (s *StatusTestSuite) TestCompleteChildWithStartedCandidateIsInProgress() {
	status := AggregateStatus(
		[]Status{StatusComplete, StatusWaiting},
		[]Status{StatusStarted},
		nil,
		false,
	)
	s.Equal(StatusInProgress, status)
}

func (s *StatusTestSuite) TestPendingCandidateIsPending() {
	status := AggregateStatus(
		[]Status{StatusPending},
		[]Status{StatusPending},
		nil,
		false,
	)
	s.Equal(StatusPending, status)
}

func (s *StatusTestSuite) TestWaitingChildIsWaiting() {
	status := AggregateStatus(
		[]Status{StatusWaiting},
		nil,
		nil,
		false,
	)
	s.Equal(StatusWaiting, status)
}

func (s *StatusTestSuite) TestStartingCandidateIsStarting() {
	status := AggregateStatus(
		[]Status{StatusStarting},
		[]Status{StatusStarting},
		nil,
		false,
	)
	s.Equal(StatusStarting, status)
}

func (s *StatusTestSuite) TestStartedCandidateIsStarted() {
	status := AggregateStatus(
		[]Status{StatusStarted},
		[]Status{StatusStarted},
		nil,
		false,
	)
	s.Equal(StatusStarted, status)
}

func (s *StatusTestSuite) TestNoChildrenIsVacuouslyComplete() {
	// allMatch is vacuously true over an empty set, so a childless
	// Phase/Plan reads as COMPLETE, not as falling through to the
	// unexpected-state default.
	status := AggregateStatus(nil, nil, nil, false)
	s.Equal(StatusComplete, status)
}

func (s *StatusTestSuite) TestUnmatchedFallsBackToError() {
	status := AggregateStatus(
		[]Status{StatusPending},
		[]Status{Status(99)},
		nil,
		false,
	)
	s.Equal(StatusError, status)
}

func (s *StatusTestSuite) TestStringer() {
	s.Equal("COMPLETE", StatusComplete.String())
	s.Equal("ERROR", StatusError.String())
	s.Equal("UNKNOWN", Status(99).String())
}
