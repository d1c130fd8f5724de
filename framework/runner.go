// Package framework wires the CORE's pipeline together into a running
// process: its Runner is the leader-election nomination that starts and
// stops the offer processor (C4) and the reconciler (C5), and it
// dispatches driver callbacks into them. Taking the leader lock and
// subscribing to the cluster manager happen in the entrypoint. Grounded on
// the upstream QueueRunner.run()/FrameworkRunner.registerAndRunFramework
// shape.
package framework

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/atomic"

	"github.com/dcos/scheduler-core/background"
	"github.com/dcos/scheduler-core/driver"
	"github.com/dcos/scheduler-core/leader"
	"github.com/dcos/scheduler-core/lifecycle"
	"github.com/dcos/scheduler-core/mesosapi"
	"github.com/dcos/scheduler-core/offer"
	"github.com/dcos/scheduler-core/reconcile"
)

const reconcilePeriod = 10 * time.Second

// Runner reacts to leader election: it kicks off the offer processor,
// the reconciler and the periodic reconcile work, and stops them again.
type Runner struct {
	processor   *offer.Processor
	reconciler  *reconcile.Reconciler
	background  background.Manager
	candidateID string

	lc lifecycle.LifeCycle
}

var _ leader.Nomination = (*Runner)(nil)

// NewRunner assembles a Runner from its already-constructed
// collaborators and registers the periodic reconcile tick against
// backgroundMgr. Callers own the decision of which MesosEventClient,
// Driver implementation, and background.Manager to use; framework just
// sequences them. backgroundMgr must not already have a "reconcile"
// work registered.
func NewRunner(processor *offer.Processor, reconciler *reconcile.Reconciler, backgroundMgr background.Manager, candidateID string) (*Runner, error) {
	r := &Runner{
		processor:   processor,
		reconciler:  reconciler,
		background:  backgroundMgr,
		candidateID: candidateID,
		lc:          lifecycle.New(),
	}

	err := backgroundMgr.RegisterWork(background.Work{
		Name: "reconcile",
		Func: func(*atomic.Bool) {
			if err := r.reconciler.Reconcile(context.Background()); err != nil {
				log.WithError(err).Warn("framework: periodic reconcile failed")
			}
		},
		Period: reconcilePeriod,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GainedLeadershipCallback implements leader.Nomination: it starts the
// offer processor and reconciler and schedules periodic reconciliation.
// It does not register the driver handle (see RegisterDriver). Grounded on
// QueueRunner's
// FrameworkRunner.registerAndRunFramework.
func (r *Runner) GainedLeadershipCallback() error {
	log.Info("framework: gained leadership, registering and starting framework")

	r.background.Start()

	if err := r.reconciler.Start(); err != nil {
		return err
	}

	r.processor.Start()
	r.lc.Start()
	return nil
}

// LostLeadershipCallback implements leader.Nomination: it stops consuming
// offers. The process itself keeps running so it can re-campaign.
func (r *Runner) LostLeadershipCallback() error {
	log.Warn("framework: lost leadership, stopping offer processor")
	r.processor.Stop()
	r.background.Stop()
	r.lc.Stop()
	return nil
}

// ShutDownCallback implements leader.Nomination.
func (r *Runner) ShutDownCallback() error {
	log.Info("framework: shutting down")
	r.processor.Stop()
	r.background.Stop()
	return nil
}

// GetID implements leader.Nomination.
func (r *Runner) GetID() string {
	return r.candidateID
}

// HandleOffers is the driver callback entry point for newly advertised
// offers: it feeds them straight into the offer processor's queue.
func (r *Runner) HandleOffers(ctx context.Context, offers []mesosapi.Offer) {
	r.processor.Enqueue(ctx, offers)
}

// HandleStatusUpdate is the driver callback entry point for task status
// updates: it passes every update to the reconciler. The update is not
// forwarded to the MesosEventClient or to any plan step.
func (r *Runner) HandleStatusUpdate(status mesosapi.TaskStatus) {
	r.reconciler.Update(status)
}

// RegisterDriver installs d as the process-wide driver handle. Exposed
// separately from GainedLeadershipCallback because the entrypoint calls it
// from its Mesos event loop, independently of leadership.
func RegisterDriver(d driver.Driver) {
	driver.Register(d)
}
