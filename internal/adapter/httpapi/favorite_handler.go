package httpapi

import "net/http"

func (h *Handler) handleHeart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	id := listingID(r)

	if err := h.favorites.Heart(r.Context(), id, userID); err != nil {
		h.respondError(w, "heart", err)
		return
	}
	if h.metrics != nil {
		h.metrics.HeartsTotal.WithLabelValues("heart").Inc()
	}
	h.dropCache(r.Context(), id)
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleUnheart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	id := listingID(r)

	if err := h.favorites.Unheart(r.Context(), id, userID); err != nil {
		h.respondError(w, "unheart", err)
		return
	}
	if h.metrics != nil {
		h.metrics.HeartsTotal.WithLabelValues("unheart").Inc()
	}
	h.dropCache(r.Context(), id)
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleHeartStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	hearted, count, hot, err := h.favorites.HeartStatus(r.Context(), listingID(r), userID)
	if err != nil {
		h.respondError(w, "heart_status", err)
		return
	}
	h.respondJSON(w, http.StatusOK, heartStatusResponse{
		Hearted:     hearted,
		HeartsCount: count,
		Hot:         hot,
	})
}

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	listings, err := h.favorites.ListFavorites(r.Context(), userID)
	if err != nil {
		h.respondError(w, "list_favorites", err)
		return
	}
	h.respondJSON(w, http.StatusOK, toListingResponses(listings))
}

func (h *Handler) handleListHot(w http.ResponseWriter, r *http.Request) {
	listings, err := h.favorites.ListHot(r.Context())
	if err != nil {
		h.respondError(w, "list_hot", err)
		return
	}
	h.respondJSON(w, http.StatusOK, toListingResponses(listings))
}
