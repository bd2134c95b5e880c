package httpapi

import (
	"errors"
	"net/http"

	"github.com/campustrade/market-service/internal/adapter/messaging/nats"
	"github.com/campustrade/market-service/internal/market/domain"
)

func (h *Handler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	bidderID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req placeBidRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.auction.PlaceBid(r.Context(), listingID(r), bidderID, req.Amount)
	if err != nil {
		if h.metrics != nil {
			switch {
			case errors.Is(err, domain.ErrValidation):
				h.metrics.BidsRejectedTotal.WithLabelValues("too_low_or_invalid").Inc()
			case errors.Is(err, domain.ErrStateConflict):
				h.metrics.BidsRejectedTotal.WithLabelValues("conflict").Inc()
			}
		}
		h.respondError(w, "place_bid", err)
		return
	}

	if h.metrics != nil {
		h.metrics.BidsPlacedTotal.Inc()
	}
	h.refreshCache(r.Context(), listing)
	h.publish(r.Context(), nats.SubjectBidPlaced, struct {
		ListingID string  `json:"listing_id"`
		BidderID  string  `json:"bidder_id"`
		Amount    float64 `json:"amount"`
	}{ListingID: listing.ID, BidderID: bidderID, Amount: req.Amount})
	h.respondJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *Handler) handleListBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.auction.GetBids(r.Context(), listingID(r))
	if err != nil {
		h.respondError(w, "list_bids", err)
		return
	}
	h.respondJSON(w, http.StatusOK, toBidResponses(bids))
}
