// Package cleanup converts unexpected reserved resources discovered on an
// offer into an ordered list of teardown recommendations, respecting the
// resource lifecycle RESERVE -> CREATE -> DESTROY -> UNRESERVE.
package cleanup

import "github.com/dcos/scheduler-core/mesosapi"

// Plan converts offerResources into an ordered []OfferRecommendation: for
// every resource that carries a persistent-volume marker, emit one
// DESTROY recommendation, then always emit one UNRESERVE recommendation.
// All DESTROY recommendations precede all UNRESERVE recommendations in
// the returned slice, regardless of input ordering. Pure function; no I/O.
//
// Grounded on the Java OfferProcessor.toCleanupRecommendations algorithm.
func Plan(groups []mesosapi.OfferResources) []mesosapi.OfferRecommendation {
	var destroys, unreserves []mesosapi.OfferRecommendation

	for _, group := range groups {
		for i := range group.Resources {
			r := group.Resources[i]
			if r.IsPersistentVolume() {
				destroys = append(destroys, mesosapi.OfferRecommendation{
					Kind:     mesosapi.KindDestroy,
					OfferID:  group.Offer.ID,
					Resource: &r,
					VolumeID: r.Persistence.ID,
				})
			}
			unreserves = append(unreserves, mesosapi.OfferRecommendation{
				Kind:     mesosapi.KindUnreserve,
				OfferID:  group.Offer.ID,
				Resource: &r,
			})
		}
	}

	recs := make([]mesosapi.OfferRecommendation, 0, len(destroys)+len(unreserves))
	recs = append(recs, destroys...)
	recs = append(recs, unreserves...)
	return recs
}

// OfferIDs returns the set of offer ids referenced by recs, used by the
// offer processor to compute which unused offers were actually consumed
// by cleanup and should therefore not also be declined.
func OfferIDs(recs []mesosapi.OfferRecommendation) map[mesosapi.OfferID]bool {
	ids := make(map[mesosapi.OfferID]bool, len(recs))
	for _, r := range recs {
		ids[r.OfferID] = true
	}
	return ids
}
