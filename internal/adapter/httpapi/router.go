package httpapi

import (
	"github.com/go-chi/chi/v5"

	httpmw "github.com/campustrade/market-service/internal/adapter/httpapi/middleware"
	"github.com/campustrade/market-service/internal/platform/logger"
	"github.com/campustrade/market-service/internal/platform/metrics"
)

// NewRouter mounts the marketplace surface. Browse-style reads are
// public; everything that mutates or is caller-scoped sits behind JWT.
func NewRouter(h *Handler, jwtSecret string, log logger.Logger, m *metrics.Manager) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(httpmw.RequestLogger(log, m))

	mux.Get("/api/listings", h.handleBrowseListings)
	mux.Get("/api/listings/hot", h.handleListHot)
	mux.Get("/api/listings/{id}", h.handleGetListing)
	mux.Get("/api/listings/{id}/bids", h.handleListBids)

	mux.Group(func(r chi.Router) {
		r.Use(httpmw.JWTAuth(jwtSecret, log))

		r.Post("/api/listings", h.handleCreateListing)
		r.Put("/api/listings/{id}", h.handleUpdateListing)
		r.Delete("/api/listings/{id}", h.handleDeleteListing)
		r.Patch("/api/listings/{id}/status", h.handleUpdateStatus)

		r.Post("/api/listings/{id}/purchase", h.handleRequestPurchase)
		r.Post("/api/listings/{id}/close", h.handleCloseBidding)
		r.Post("/api/listings/{id}/bids", h.handlePlaceBid)

		r.Put("/api/listings/{id}/heart", h.handleHeart)
		r.Delete("/api/listings/{id}/heart", h.handleUnheart)
		r.Get("/api/listings/{id}/heart", h.handleHeartStatus)
		r.Get("/api/favorites", h.handleListFavorites)
	})

	return mux
}
