package offer

import "github.com/dcos/scheduler-core/mesosapi"

// Result reports whether a MesosEventClient call was able to actually
// look at the offers/resources it was given.
type Result int

const (
	// ResultProcessed means the client looked at the input and returned a
	// considered response.
	ResultProcessed Result = iota
	// ResultNotReady means the client could not look at the offers (not
	// yet initialized, leadership lost, etc); the processor must use the
	// short decline interval.
	ResultNotReady
	// ResultUninstalled means the client (service) has finished
	// uninstalling and has nothing further to evaluate.
	ResultUninstalled
)

// OfferResponse is returned by MesosEventClient.Offers.
type OfferResponse struct {
	Result          Result
	UnusedOffers    []mesosapi.Offer
	Recommendations []mesosapi.OfferRecommendation
}

// UnexpectedResourcesResponse is returned by
// MesosEventClient.GetUnexpectedResources.
type UnexpectedResourcesResponse struct {
	Result         Result
	OfferResources []mesosapi.OfferResources
}

// MesosEventClient is the adapter the processor calls into: one or more
// underlying services composed over the plan hierarchy (C7), presented
// to the offer processor as a single opaque evaluator.
type MesosEventClient interface {
	// Offers hands a batch of offers to the client for evaluation. The
	// client decides what to do with each offer and returns what it
	// didn't use.
	Offers(offers []mesosapi.Offer) OfferResponse
	// GetUnexpectedResources asks the client to flag, among the offers it
	// didn't use, any reserved resources it no longer recognizes as its
	// own (candidates for cleanup).
	GetUnexpectedResources(unusedOffers []mesosapi.Offer) UnexpectedResourcesResponse
	// Status delivers a task status update to the client, which forwards
	// it to the Reconciler and to the plan step that owns the task.
	Status(status mesosapi.TaskStatus)
}
