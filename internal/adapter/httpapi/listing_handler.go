package httpapi

import (
	"net/http"
	"strconv"

	"github.com/campustrade/market-service/internal/adapter/messaging/nats"
	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/market/usecase"
)

func (h *Handler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req createListingRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.listings.Create(r.Context(), sellerID, usecase.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		PricingMode: domain.PricingMode(req.PricingMode),
		BasePrice:   req.BasePrice,
		Photos:      req.Photos,
	})
	if err != nil {
		h.respondError(w, "create_listing", err)
		return
	}

	if h.metrics != nil {
		h.metrics.ListingsCreatedTotal.Inc()
	}
	h.refreshCache(r.Context(), listing)
	h.publishListingEvent(r.Context(), nats.SubjectListingCreated, listing)
	h.respondJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *Handler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id := listingID(r)

	if h.cache != nil {
		if cached, err := h.cache.GetListing(r.Context(), id); err != nil {
			h.log.Warnf("cache lookup for listing %s failed: %v", id, err)
		} else if cached != nil {
			h.respondJSON(w, http.StatusOK, toListingResponse(cached))
			return
		}
	}

	listing, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, "get_listing", err)
		return
	}
	h.refreshCache(r.Context(), listing)
	h.respondJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *Handler) handleBrowseListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.Filter{
		Status:   domain.ListingStatus(q.Get("status")),
		Category: q.Get("category"),
		SellerID: q.Get("seller_id"),
	}
	if raw := q.Get("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid max_price", http.StatusBadRequest)
			return
		}
		filter.MaxPrice = maxPrice
	}
	if raw := q.Get("page"); raw != "" {
		filter.Page, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := q.Get("limit"); raw != "" {
		filter.Limit, _ = strconv.ParseInt(raw, 10, 64)
	}

	listings, err := h.listings.Browse(r.Context(), filter)
	if err != nil {
		h.respondError(w, "browse_listings", err)
		return
	}
	h.respondJSON(w, http.StatusOK, toListingResponses(listings))
}

func (h *Handler) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req updateListingRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.listings.Update(r.Context(), listingID(r), callerID, usecase.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Price:       req.Price,
		Photos:      req.Photos,
	})
	if err != nil {
		h.respondError(w, "update_listing", err)
		return
	}

	h.refreshCache(r.Context(), listing)
	h.publishListingEvent(r.Context(), nats.SubjectListingUpdated, listing)
	h.respondJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *Handler) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	id := listingID(r)

	if err := h.listings.Delete(r.Context(), id, callerID); err != nil {
		h.respondError(w, "delete_listing", err)
		return
	}

	h.dropCache(r.Context(), id)
	h.publish(r.Context(), nats.SubjectListingDeleted, listingEvent{ID: id, SellerID: callerID})
	h.respondJSON(w, http.StatusNoContent, nil)
}

// handleUpdateStatus accepts the single seller-driven status value:
// sold. Pending is only ever reached through purchase requests and
// close-bidding, so it is not accepted here.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if domain.ListingStatus(req.Status) != domain.StatusSold {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: "status must be \"sold\"", Kind: "validation",
		})
		return
	}

	listing, err := h.lifecycle.MarkSold(r.Context(), listingID(r), callerID)
	if err != nil {
		h.respondError(w, "mark_sold", err)
		return
	}

	if h.metrics != nil {
		h.metrics.StatusChangesTotal.WithLabelValues(string(domain.StatusSold)).Inc()
	}
	h.refreshCache(r.Context(), listing)
	h.publishListingEvent(r.Context(), nats.SubjectListingStatusChanged, listing)
	h.respondJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *Handler) handleRequestPurchase(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	listing, err := h.lifecycle.RequestPurchase(r.Context(), listingID(r), buyerID)
	if err != nil {
		h.respondError(w, "request_purchase", err)
		return
	}

	if h.metrics != nil {
		h.metrics.StatusChangesTotal.WithLabelValues(string(domain.StatusPending)).Inc()
	}
	h.refreshCache(r.Context(), listing)
	h.publishListingEvent(r.Context(), nats.SubjectListingStatusChanged, listing)
	h.respondJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *Handler) handleCloseBidding(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	listing, err := h.lifecycle.CloseBidding(r.Context(), listingID(r), callerID)
	if err != nil {
		h.respondError(w, "close_bidding", err)
		return
	}

	if h.metrics != nil {
		h.metrics.StatusChangesTotal.WithLabelValues(string(domain.StatusPending)).Inc()
	}
	h.refreshCache(r.Context(), listing)
	h.publishListingEvent(r.Context(), nats.SubjectListingStatusChanged, listing)
	h.respondJSON(w, http.StatusOK, toListingResponse(listing))
}
