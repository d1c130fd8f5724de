// Package offer implements the offer-processing pipeline (C4): it owns
// the offer queue, runs the single consumer loop, invokes the
// MesosEventClient, and turns the result into decline/accept calls
// against the driver. Grounded line for line on the upstream
// OfferProcessor.
package offer

import (
	"context"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/atomic"
	"github.com/uber-go/tally"

	"github.com/dcos/scheduler-core/cleanup"
	"github.com/dcos/scheduler-core/driver"
	"github.com/dcos/scheduler-core/lifecycle"
	"github.com/dcos/scheduler-core/mesosapi"
	"github.com/dcos/scheduler-core/offerqueue"
)

const awaitPollInterval = 100 * time.Millisecond
const awaitTimeout = 5 * time.Second

// Processor owns the offer queue and the single dedicated consumer that
// drains it, matching offers to work via a MesosEventClient and issuing
// decline/accept calls through the driver.
type Processor struct {
	client MesosEventClient
	drv    driver.Driver
	queue  *offerqueue.Queue
	lc     lifecycle.LifeCycle
	metrics *Metrics

	// Multithreaded by default; single-threaded mode runs the consumer
	// synchronously inline with Enqueue, used only by tests.
	synchronous bool

	initialized atomic.Bool

	inProgressMu sync.Mutex
	inProgress   map[mesosapi.OfferID]bool
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithQueueCapacity overrides the offer queue's capacity (0 = unbounded,
// the default).
func WithQueueCapacity(capacity int) Option {
	return func(p *Processor) { p.queue = offerqueue.New(capacity) }
}

// WithSynchronousMode runs the evaluation routine inline with Enqueue
// instead of via the dedicated consumer goroutine. Intended for tests.
func WithSynchronousMode() Option {
	return func(p *Processor) { p.synchronous = true }
}

// New creates a Processor. drv may be nil, in which case driver.Get() is
// consulted lazily the first time a decline/accept call is needed.
func New(client MesosEventClient, drv driver.Driver, scope tally.Scope, opts ...Option) *Processor {
	p := &Processor{
		client:     client,
		drv:        drv,
		queue:      offerqueue.New(0),
		lc:         lifecycle.New(),
		metrics:    NewMetrics(scope),
		inProgress: make(map[mesosapi.OfferID]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) driver() driver.Driver {
	if p.drv != nil {
		return p.drv
	}
	return driver.Get()
}

// Start is idempotent. In multithreaded mode it spawns the single
// consumer goroutine, which loops forever draining the queue and
// evaluating batches. Any uncaught failure inside evaluation is fatal:
// log and force process exit, to avoid a silently zombied scheduler.
func (p *Processor) Start() {
	if !p.synchronous {
		if !p.lc.Start() {
			return
		}
		go p.consume()
	}
	p.initialized.Store(true)
}

// Stop unblocks the consumer goroutine, if one is running, and waits for
// it to exit.
func (p *Processor) Stop() {
	if p.synchronous {
		return
	}
	if p.lc.Stop() {
		p.queue.Close()
		p.lc.Wait()
	}
}

func (p *Processor) consume() {
	defer p.lc.StopComplete()
	for {
		select {
		case <-p.lc.StopCh():
			return
		default:
		}
		p.processQueuedOffers()
	}
}

// Enqueue atomically adds every offer id to the in-progress set, then
// tries to buffer each offer. On rejection (queue full), the offending
// offer is declined short *before* its id is removed from the in-progress
// set — this ordering is an explicit invariant: never let
// offersInProgress appear empty before the decline call actually happens.
func (p *Processor) Enqueue(ctx context.Context, offers []mesosapi.Offer) {
	p.inProgressMu.Lock()
	for _, o := range offers {
		p.inProgress[o.ID] = true
	}
	p.inProgressMu.Unlock()

	p.metrics.Enqueued.Inc(int64(len(offers)))

	for _, o := range offers {
		if p.queue.Offer(o) {
			continue
		}
		log.WithField("offer_id", o.ID).Warn("offer: queue is full, declining and removing from in-progress")
		p.declineShort(ctx, []mesosapi.Offer{o})

		p.inProgressMu.Lock()
		delete(p.inProgress, o.ID)
		p.inProgressMu.Unlock()
	}

	if p.synchronous {
		p.processQueuedOffers()
	}
}

// Dequeue best-effort removes id from the queue, used when the cluster
// manager rescinds an offer before it's been drained.
func (p *Processor) Dequeue(id mesosapi.OfferID) {
	p.queue.Remove(id)
}

// AwaitOffersProcessed polls the in-progress set with a 100ms cadence for
// up to 5s. Testing aid; returns a fatal-shaped error on timeout.
func (p *Processor) AwaitOffersProcessed() error {
	deadline := time.Now().Add(awaitTimeout)
	for time.Now().Before(deadline) {
		p.inProgressMu.Lock()
		empty := len(p.inProgress) == 0
		p.inProgressMu.Unlock()
		if empty {
			return nil
		}
		time.Sleep(awaitPollInterval)
	}
	return fatalError("offer: timed out waiting for offers to be processed")
}

func (p *Processor) processQueuedOffers() {
	offers := p.queue.TakeAll()
	if len(offers) == 0 {
		if !p.initialized.Load() {
			// The scheduler hasn't finished registering yet; most
			// collaborators (driver, plan coordinator) aren't wired up.
			log.Debug("offer: retrying wait for offers, registration not yet complete")
		}
		return
	}

	defer func() {
		p.metrics.Processed.Inc(int64(len(offers)))
		p.inProgressMu.Lock()
		for _, o := range offers {
			delete(p.inProgress, o.ID)
		}
		remaining := len(p.inProgress)
		p.inProgressMu.Unlock()
		log.WithField("processed", len(offers)).WithField("remaining_in_progress", remaining).
			Debug("offer: processed queued offers")
	}()

	func() {
		defer p.metrics.ProcessDuration.Start().Stop()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("offer: evaluation failed, exiting to avoid zombie state")
				os.Exit(1)
			}
		}()
		p.evaluateOffers(context.Background(), offers)
	}()
}

func (p *Processor) evaluateOffers(ctx context.Context, offers []mesosapi.Offer) {
	offerResponse := p.client.Offers(offers)
	unexpected := p.client.GetUnexpectedResources(offerResponse.UnusedOffers)
	cleanupRecs := cleanup.Plan(unexpected.OfferResources)

	consumedByCleanup := cleanup.OfferIDs(cleanupRecs)
	var finalUnused []mesosapi.Offer
	for _, o := range offerResponse.UnusedOffers {
		if !consumedByCleanup[o.ID] {
			finalUnused = append(finalUnused, o)
		}
	}

	if len(finalUnused) > 0 {
		if offerResponse.Result == ResultProcessed && unexpected.Result == ResultProcessed {
			p.declineLong(ctx, finalUnused)
		} else {
			p.declineShort(ctx, finalUnused)
		}
	}

	allRecs := make([]mesosapi.OfferRecommendation, 0, len(offerResponse.Recommendations)+len(cleanupRecs))
	allRecs = append(allRecs, offerResponse.Recommendations...)
	allRecs = append(allRecs, cleanupRecs...)
	p.metrics.Recommendations.Inc(int64(len(allRecs)))
	p.acceptByOffer(ctx, allRecs)
}

// acceptByOffer groups recommendations by offer id (AcceptOffers applies
// against one offer at a time) and submits each group in the order its
// recommendations appeared.
func (p *Processor) acceptByOffer(ctx context.Context, recs []mesosapi.OfferRecommendation) {
	order := make([]mesosapi.OfferID, 0)
	grouped := make(map[mesosapi.OfferID][]mesosapi.OfferRecommendation)
	for _, r := range recs {
		if _, ok := grouped[r.OfferID]; !ok {
			order = append(order, r.OfferID)
		}
		grouped[r.OfferID] = append(grouped[r.OfferID], r)
	}

	d := p.driver()
	if d == nil {
		log.Panic("offer: no driver present for accepting offers, this should never happen")
	}
	for _, offerID := range order {
		if err := d.AcceptOffers(ctx, offerID, grouped[offerID]); err != nil {
			log.WithError(err).WithField("offer_id", offerID).Error("offer: accept call failed")
		}
	}
}

func (p *Processor) declineShort(ctx context.Context, offers []mesosapi.Offer) {
	p.decline(ctx, offers, driver.ShortDeclineInterval)
	p.metrics.DeclinesShort.Inc(int64(len(offers)))
}

func (p *Processor) declineLong(ctx context.Context, offers []mesosapi.Offer) {
	p.decline(ctx, offers, driver.LongDeclineInterval)
	p.metrics.DeclinesLong.Inc(int64(len(offers)))
}

func (p *Processor) decline(ctx context.Context, offers []mesosapi.Offer, refuse time.Duration) {
	d := p.driver()
	if d == nil {
		log.Panic("offer: no driver present for declining offers, this should never happen")
	}
	for _, o := range offers {
		if err := d.DeclineOffer(ctx, o.ID, refuse); err != nil {
			log.WithError(err).WithField("offer_id", o.ID).Error("offer: decline call failed")
		}
	}
}

type fatalErr string

func (f fatalErr) Error() string { return string(f) }

func fatalError(msg string) error { return fatalErr(msg) }
