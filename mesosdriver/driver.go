// Package mesosdriver is the one package that speaks the real Mesos v1
// HTTP Scheduler API: it translates between mesosapi's plain value types
// and the wire types of github.com/mesos/mesos-go/api/v1/lib, manages the
// SUBSCRIBE/event stream lifecycle, and implements driver.Driver against
// a live master. Grounded on hostmgr/mesos/driver.go and
// master/mesos/driver.go's schedulerDriver shape (singleton instance,
// prepareSubscribe, mesos-stream-id handling), translated from the
// teacher's yarpc/internal-protobuf transport onto the public mesos-go v1
// httpcli client.
package mesosdriver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	mesos "github.com/mesos/mesos-go/api/v1/lib"
	"github.com/mesos/mesos-go/api/v1/lib/httpcli"
	"github.com/mesos/mesos-go/api/v1/lib/scheduler"
	"github.com/mesos/mesos-go/api/v1/lib/scheduler/calls"

	"github.com/dcos/scheduler-core/driver"
	"github.com/dcos/scheduler-core/mesosapi"
)

// mesosStreamIDHeader is the header the master echoes on the SUBSCRIBE
// response and that every subsequent call on that subscription must
// repeat back, per the Mesos v1 HTTP Scheduler API.
const mesosStreamIDHeader = "Mesos-Stream-Id"

var _ driver.Driver = (*Client)(nil)

// EventHandler receives the two kinds of inbound Mesos events the CORE
// cares about. framework.Runner implements this.
type EventHandler interface {
	HandleOffers(ctx context.Context, offers []mesosapi.Offer)
	HandleStatusUpdate(status mesosapi.TaskStatus)
}

// Client is the concrete driver.Driver implementation talking HTTP to a
// Mesos master.
type Client struct {
	cfg    *Config
	caller *httpcli.Client

	mu            sync.RWMutex
	frameworkID   *mesos.FrameworkID
	mesosStreamID string
}

// New creates a Client bound to cfg.Master. It does not subscribe; call
// Run to subscribe and start consuming the event stream.
func New(cfg *Config) *Client {
	cl := httpcli.New(
		httpcli.Endpoint(fmt.Sprintf("http://%s/api/v1/scheduler", cfg.Master)),
	)
	return &Client{
		cfg:    cfg,
		caller: cl,
	}
}

func (c *Client) streamIDHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mesosStreamID
}

// streamIDOpts returns the request options that echo the subscription's
// Mesos-Stream-Id back to the master, or none before SUBSCRIBE completes
// (the SUBSCRIBE call itself must not carry one).
func (c *Client) streamIDOpts() []httpcli.RequestOpt {
	if sid := c.streamIDHeader(); sid != "" {
		return []httpcli.RequestOpt{httpcli.Header(mesosStreamIDHeader, sid)}
	}
	return nil
}

// Run subscribes to the master and dispatches every inbound event to
// handler until ctx is cancelled or the stream ends. Reconnects are the
// caller's responsibility: Run returns on any stream error so the
// caller can decide whether to retry.
func (c *Client) Run(ctx context.Context, handler EventHandler) error {
	info := c.frameworkInfo()
	callType := scheduler.Call_SUBSCRIBE
	subscribeCall := &scheduler.Call{
		FrameworkID: c.currentFrameworkID(),
		Type:        &callType,
		Subscribe:   &scheduler.Call_Subscribe{FrameworkInfo: info},
	}

	resp, err := c.caller.Call(ctx, calls.NonStreaming(subscribeCall))
	if err != nil {
		return errors.Wrap(err, "mesosdriver: subscribe call failed")
	}
	defer resp.Close()

	if h, ok := resp.(interface{ Header() http.Header }); ok {
		if sid := h.Header().Get(mesosStreamIDHeader); sid != "" {
			c.mu.Lock()
			c.mesosStreamID = sid
			c.mu.Unlock()
		}
	}

	decoder := resp.Decoder()
	for {
		var ev scheduler.Event
		if err := decoder.Decode(&ev); err != nil {
			return errors.Wrap(err, "mesosdriver: event stream closed")
		}
		c.dispatch(ctx, &ev, handler)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (c *Client) dispatch(ctx context.Context, ev *scheduler.Event, handler EventHandler) {
	if ev.Type == nil {
		return
	}
	switch *ev.Type {
	case scheduler.Event_SUBSCRIBED:
		c.mu.Lock()
		fid := ev.Subscribed.FrameworkID
		c.frameworkID = &fid
		c.mu.Unlock()
		log.WithField("framework_id", fid.Value).Info("mesosdriver: subscribed")
	case scheduler.Event_OFFERS:
		if ev.Offers == nil {
			return
		}
		offers := make([]mesosapi.Offer, 0, len(ev.Offers.Offers))
		for _, o := range ev.Offers.Offers {
			offers = append(offers, fromOffer(o))
		}
		handler.HandleOffers(ctx, offers)
	case scheduler.Event_UPDATE:
		if ev.Update == nil {
			return
		}
		handler.HandleStatusUpdate(fromTaskStatus(ev.Update.Status))
	case scheduler.Event_ERROR:
		msg := ""
		if ev.Error != nil {
			msg = ev.Error.Message
		}
		log.WithField("message", msg).Error("mesosdriver: received ERROR event from master, exiting")
		os.Exit(1)
	}
}

func (c *Client) frameworkInfo() *mesos.FrameworkInfo {
	fc := c.cfg.Framework
	hostname, _ := os.Hostname()
	info := &mesos.FrameworkInfo{
		User:       fc.User,
		Name:       fc.Name,
		Checkpoint: &fc.Checkpoint,
		Hostname:   &hostname,
	}
	if fc.FailoverTimeout > 0 {
		info.FailoverTimeout = &fc.FailoverTimeout
	}
	if fc.Role != "" {
		info.Role = &fc.Role
	}
	if fc.Principal != "" {
		info.Principal = &fc.Principal
	}
	if fid := c.currentFrameworkID(); fid != nil {
		info.ID = fid
	}
	return info
}

func (c *Client) currentFrameworkID() *mesos.FrameworkID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frameworkID
}

// DeclineOffer implements driver.Driver.
func (c *Client) DeclineOffer(ctx context.Context, offerID mesosapi.OfferID, refuse time.Duration) error {
	seconds := refuse.Seconds()
	call := &scheduler.Call{
		FrameworkID: c.currentFrameworkID(),
		Type:        declineType(),
		Decline: &scheduler.Call_Decline{
			OfferIDs: []mesos.OfferID{toOfferID(offerID)},
			Filters:  &mesos.Filters{RefuseSeconds: &seconds},
		},
	}
	_, err := c.caller.Call(ctx, calls.NonStreaming(call), c.streamIDOpts()...)
	return errors.Wrap(err, "mesosdriver: decline call failed")
}

// AcceptOffers implements driver.Driver. recommendations is translated
// into Offer_Operations in order; LAUNCH/RESERVE/CREATE/DESTROY/UNRESERVE
// each map onto the corresponding mesos.Offer_Operation_Type.
func (c *Client) AcceptOffers(ctx context.Context, offerID mesosapi.OfferID, recommendations []mesosapi.OfferRecommendation) error {
	ops := make([]mesos.Offer_Operation, 0, len(recommendations))
	for _, r := range recommendations {
		op, ok := toOperation(r)
		if !ok {
			log.WithField("kind", r.Kind.String()).Warn("mesosdriver: skipping recommendation with no operation mapping (e.g. STORE)")
			continue
		}
		ops = append(ops, op)
	}
	call := &scheduler.Call{
		FrameworkID: c.currentFrameworkID(),
		Type:        acceptType(),
		Accept: &scheduler.Call_Accept{
			OfferIDs:   []mesos.OfferID{toOfferID(offerID)},
			Operations: ops,
		},
	}
	_, err := c.caller.Call(ctx, calls.NonStreaming(call), c.streamIDOpts()...)
	return errors.Wrap(err, "mesosdriver: accept call failed")
}

// ReconcileTasks implements driver.Driver. An empty taskIDs requests
// implicit reconciliation (the master's full view of every task this
// framework owns).
func (c *Client) ReconcileTasks(ctx context.Context, taskIDs []mesosapi.TaskID) error {
	tasks := make([]scheduler.Call_Reconcile_Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		tasks = append(tasks, scheduler.Call_Reconcile_Task{TaskID: toTaskID(id)})
	}
	call := &scheduler.Call{
		FrameworkID: c.currentFrameworkID(),
		Type:        reconcileType(),
		Reconcile:   &scheduler.Call_Reconcile{Tasks: tasks},
	}
	_, err := c.caller.Call(ctx, calls.NonStreaming(call), c.streamIDOpts()...)
	return errors.Wrap(err, "mesosdriver: reconcile call failed")
}

func declineType() *scheduler.Call_Type   { t := scheduler.Call_DECLINE; return &t }
func acceptType() *scheduler.Call_Type    { t := scheduler.Call_ACCEPT; return &t }
func reconcileType() *scheduler.Call_Type { t := scheduler.Call_RECONCILE; return &t }
