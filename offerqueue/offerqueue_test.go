package offerqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dcos/scheduler-core/mesosapi"
)

type QueueTestSuite struct {
	suite.Suite
}

func TestQueueTestSuite(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}

func offer(id string) mesosapi.Offer {
	return mesosapi.Offer{ID: mesosapi.OfferID(id)}
}

func (s *QueueTestSuite) TestUnboundedAcceptsEverything() {
	q := New(0)
	for i := 0; i < 100; i++ {
		s.True(q.Offer(offer("o")))
	}
	s.Equal(100, q.Len())
}

func (s *QueueTestSuite) TestBoundedRejectsOverCapacity() {
	q := New(1)
	s.True(q.Offer(offer("a")))
	s.False(q.Offer(offer("b")))
	s.False(q.Offer(offer("c")))
	s.Equal(1, q.Len())
}

func (s *QueueTestSuite) TestTakeAllDrainsAtomically() {
	q := New(0)
	q.Offer(offer("a"))
	q.Offer(offer("b"))

	drained := q.TakeAll()
	s.Len(drained, 2)
	s.Equal(0, q.Len())
}

func (s *QueueTestSuite) TestTakeAllPreservesOrder() {
	q := New(0)
	q.Offer(offer("a"))
	q.Offer(offer("b"))
	q.Offer(offer("c"))

	drained := q.TakeAll()
	s.Equal([]mesosapi.OfferID{"a", "b", "c"}, []mesosapi.OfferID{drained[0].ID, drained[1].ID, drained[2].ID})
}

func (s *QueueTestSuite) TestTakeAllBlocksUntilOffer() {
	q := New(0)
	var drained []mesosapi.Offer
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drained = q.TakeAll()
	}()

	time.Sleep(20 * time.Millisecond)
	q.Offer(offer("a"))
	wg.Wait()

	s.Len(drained, 1)
}

func (s *QueueTestSuite) TestRemove() {
	q := New(0)
	q.Offer(offer("a"))
	q.Offer(offer("b"))

	s.True(q.Remove("a"))
	s.False(q.Remove("a"))
	s.Equal(1, q.Len())
}

func (s *QueueTestSuite) TestCloseUnblocksTakeAllWithEmptyDrain() {
	q := New(0)
	var drained []mesosapi.Offer
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drained = q.TakeAll()
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()
	wg.Wait()

	s.Empty(drained)
}

func (s *QueueTestSuite) TestOfferAfterCloseRejected() {
	q := New(0)
	q.Close()
	s.False(q.Offer(offer("a")))
}
