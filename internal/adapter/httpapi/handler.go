package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmw "github.com/campustrade/market-service/internal/adapter/httpapi/middleware"
	"github.com/campustrade/market-service/internal/adapter/repository/cache"
	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/market/usecase"
	"github.com/campustrade/market-service/internal/platform/logger"
	"github.com/campustrade/market-service/internal/platform/metrics"
)

// EventPublisher is satisfied by the NATS publisher adapter.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type Handler struct {
	listings  *usecase.ListingUsecase
	lifecycle *usecase.LifecycleUsecase
	auction   *usecase.AuctionUsecase
	favorites *usecase.FavoriteUsecase
	cache     *cache.ListingCache
	events    EventPublisher
	metrics   *metrics.Manager
	log       logger.Logger
}

func NewHandler(
	listings *usecase.ListingUsecase,
	lifecycle *usecase.LifecycleUsecase,
	auction *usecase.AuctionUsecase,
	favorites *usecase.FavoriteUsecase,
	listingCache *cache.ListingCache,
	events EventPublisher,
	m *metrics.Manager,
	log logger.Logger,
) *Handler {
	return &Handler{
		listings:  listings,
		lifecycle: lifecycle,
		auction:   auction,
		favorites: favorites,
		cache:     listingCache,
		events:    events,
		metrics:   m,
		log:       log,
	}
}

func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httpmw.UserID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// refreshCache overwrites the cached view after a mutation. Cache
// trouble is never surfaced: the authoritative store already committed.
func (h *Handler) refreshCache(ctx context.Context, listing *domain.Listing) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetListing(ctx, listing); err != nil {
		h.log.Warnf("cache refresh for listing %s failed: %v", listing.ID, err)
	}
}

func (h *Handler) dropCache(ctx context.Context, id string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteListing(ctx, id); err != nil {
		h.log.Warnf("cache invalidation for listing %s failed: %v", id, err)
	}
}

// publish emits a bus event; best effort, mirrors the dispatcher policy.
func (h *Handler) publish(ctx context.Context, subject string, payload interface{}) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(ctx, subject, payload); err != nil {
		h.log.Warnf("publish %s failed: %v", subject, err)
	}
}

func listingID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

type listingEvent struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	Status   string `json:"status,omitempty"`
}

func (h *Handler) publishListingEvent(ctx context.Context, subject string, l *domain.Listing) {
	h.publish(ctx, subject, listingEvent{ID: l.ID, SellerID: l.SellerID, Status: string(l.Status)})
}
