package offer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally"

	"github.com/dcos/scheduler-core/mesosapi"
)

type fakeDriver struct {
	mu        sync.Mutex
	declined  []mesosapi.OfferID
	accepted  map[mesosapi.OfferID][]mesosapi.OfferRecommendation
	refuses   []time.Duration
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{accepted: make(map[mesosapi.OfferID][]mesosapi.OfferRecommendation)}
}

func (f *fakeDriver) DeclineOffer(_ context.Context, id mesosapi.OfferID, refuse time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declined = append(f.declined, id)
	f.refuses = append(f.refuses, refuse)
	return nil
}

func (f *fakeDriver) AcceptOffers(_ context.Context, id mesosapi.OfferID, recs []mesosapi.OfferRecommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted[id] = append(f.accepted[id], recs...)
	return nil
}

func (f *fakeDriver) ReconcileTasks(context.Context, []mesosapi.TaskID) error { return nil }

type fakeClient struct {
	offerResp      OfferResponse
	unexpectedResp UnexpectedResourcesResponse
}

func (c *fakeClient) Offers([]mesosapi.Offer) OfferResponse             { return c.offerResp }
func (c *fakeClient) GetUnexpectedResources([]mesosapi.Offer) UnexpectedResourcesResponse {
	return c.unexpectedResp
}
func (c *fakeClient) Status(mesosapi.TaskStatus) {}

type ProcessorTestSuite struct {
	suite.Suite
}

func TestProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

func (s *ProcessorTestSuite) TestDeclinesAllWhenNothingUsed() {
	fd := newFakeDriver()
	client := &fakeClient{
		offerResp: OfferResponse{Result: ResultProcessed, UnusedOffers: []mesosapi.Offer{{ID: "a"}, {ID: "b"}}},
	}
	p := New(client, fd, tally.NoopScope, WithSynchronousMode())
	p.Start()
	p.Enqueue(context.Background(), []mesosapi.Offer{{ID: "a"}, {ID: "b"}})

	s.ElementsMatch([]mesosapi.OfferID{"a", "b"}, fd.declined)
	s.Empty(fd.accepted)
}

func (s *ProcessorTestSuite) TestAcceptsLaunchRecommendation() {
	fd := newFakeDriver()
	taskSpec := &mesosapi.TaskSpec{TaskID: "t1"}
	client := &fakeClient{
		offerResp: OfferResponse{
			Result: ResultProcessed,
			Recommendations: []mesosapi.OfferRecommendation{
				{Kind: mesosapi.KindLaunch, OfferID: "a", TaskSpec: taskSpec},
			},
		},
	}
	p := New(client, fd, tally.NoopScope, WithSynchronousMode())
	p.Start()
	p.Enqueue(context.Background(), []mesosapi.Offer{{ID: "a"}})

	s.Empty(fd.declined)
	s.Len(fd.accepted["a"], 1)
}

func (s *ProcessorTestSuite) TestNotReadyDeclinesShort() {
	fd := newFakeDriver()
	client := &fakeClient{
		offerResp: OfferResponse{Result: ResultNotReady, UnusedOffers: []mesosapi.Offer{{ID: "a"}, {ID: "b"}}},
	}
	p := New(client, fd, tally.NoopScope, WithSynchronousMode())
	p.Start()
	p.Enqueue(context.Background(), []mesosapi.Offer{{ID: "a"}, {ID: "b"}})

	s.ElementsMatch([]mesosapi.OfferID{"a", "b"}, fd.declined)
	for _, r := range fd.refuses {
		s.Equal(5*time.Second, r)
	}
}

func (s *ProcessorTestSuite) TestCleanupOrderingAndNoDecline() {
	fd := newFakeDriver()
	client := &fakeClient{
		offerResp: OfferResponse{Result: ResultProcessed, UnusedOffers: []mesosapi.Offer{{ID: "a"}}},
		unexpectedResp: UnexpectedResourcesResponse{
			Result: ResultProcessed,
			OfferResources: []mesosapi.OfferResources{
				{
					Offer: mesosapi.Offer{ID: "a"},
					Resources: []mesosapi.Resource{
						{Persistence: &mesosapi.Persistence{ID: "v1"}},
					},
				},
			},
		},
	}
	p := New(client, fd, tally.NoopScope, WithSynchronousMode())
	p.Start()
	p.Enqueue(context.Background(), []mesosapi.Offer{{ID: "a"}})

	s.Empty(fd.declined)
	recs := fd.accepted["a"]
	s.Len(recs, 2)
	s.Equal(mesosapi.KindDestroy, recs[0].Kind)
	s.Equal(mesosapi.KindUnreserve, recs[1].Kind)
}

func (s *ProcessorTestSuite) TestQueueOverflowDeclinesAndDoesNotGetEvaluated() {
	fd := newFakeDriver()
	client := &fakeClient{offerResp: OfferResponse{Result: ResultProcessed}}
	p := New(client, fd, tally.NoopScope, WithQueueCapacity(1), WithSynchronousMode())
	p.Start()

	p.Enqueue(context.Background(), []mesosapi.Offer{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	s.Require().NoError(p.AwaitOffersProcessed())
	s.Len(fd.declined, 2, "two of the three offers overflow a capacity-1 queue and are declined")
}

func (s *ProcessorTestSuite) TestAwaitOffersProcessedEmptyIsImmediate() {
	fd := newFakeDriver()
	client := &fakeClient{}
	p := New(client, fd, tally.NoopScope, WithSynchronousMode())
	p.Start()
	s.NoError(p.AwaitOffersProcessed())
}
