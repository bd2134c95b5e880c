package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustrade/market-service/internal/adapter/messaging/nats"
	"github.com/campustrade/market-service/internal/adapter/repository/memory"
	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/market/usecase"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
	"github.com/campustrade/market-service/internal/platform/metrics"
)

const testJWTSecret = "test-secret"

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) PurchaseRequested(ctx context.Context, l *domain.Listing, buyerID string) error {
	return nil
}
func (noopNotifier) BiddingClosed(ctx context.Context, l *domain.Listing, winnerID string) error {
	return nil
}

type apiFixture struct {
	server *httptest.Server
	events *recordingPublisher
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	listings := memory.NewListingRepository()
	bids := memory.NewBidRepository()
	favorites := memory.NewFavoriteRepository()
	locks := keylock.New()
	log := logger.NewNop()

	listingUC := usecase.NewListingUsecase(listings, bids, favorites, locks, log)
	lifecycleUC := usecase.NewLifecycleUsecase(listings, bids, noopNotifier{}, locks, log)
	auctionUC := usecase.NewAuctionUsecase(listings, bids, locks, log)
	favoriteUC := usecase.NewFavoriteUsecase(favorites, listings, locks, 2, 20, log)

	events := &recordingPublisher{}
	m := metrics.NewManager("market_service_test")
	h := NewHandler(listingUC, lifecycleUC, auctionUC, favoriteUC, nil, events, m, log)

	server := httptest.NewServer(NewRouter(h, testJWTSecret, log, m))
	t.Cleanup(server.Close)
	return &apiFixture{server: server, events: events}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path, userID string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeListing(t *testing.T, resp *http.Response) listingResponse {
	t.Helper()
	defer resp.Body.Close()
	var out listingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	defer resp.Body.Close()
	var out errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *apiFixture) createListing(t *testing.T, sellerID string, req createListingRequest) listingResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/listings", sellerID, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeListing(t, resp)
}

func TestAPI_AuthIsRequiredForMutations(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/listings", "", createListingRequest{Title: "x"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/listings", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_BrowseIsPublic(t *testing.T) {
	f := newAPIFixture(t)
	f.createListing(t, "seller-1", createListingRequest{
		Title: "Textbook", PricingMode: "fixed", BasePrice: 12.00,
	})

	resp := f.do(t, http.MethodGet, "/api/listings", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []listingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out, 1)
}

func TestAPI_CreateAndGetListing(t *testing.T) {
	f := newAPIFixture(t)

	created := f.createListing(t, "seller-1", createListingRequest{
		Title:       "Acoustic guitar",
		Description: "Some scratches",
		Category:    "music",
		PricingMode: "auction",
		BasePrice:   80.00,
	})
	assert.Equal(t, "seller-1", created.SellerID)
	assert.Equal(t, "available", created.Status)
	assert.Equal(t, int64(1), created.Version)

	resp := f.do(t, http.MethodGet, "/api/listings/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeListing(t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Acoustic guitar", got.Title)
}

func TestAPI_GetUnknownListingIs404(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/api/listings/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "not_found", body.Kind)
	assert.False(t, body.Retryable)
}

func TestAPI_BidFlow(t *testing.T) {
	f := newAPIFixture(t)
	listing := f.createListing(t, "seller-1", createListingRequest{
		Title: "Mountain bike", PricingMode: "auction", BasePrice: 100.00,
	})
	bidsPath := "/api/listings/" + listing.ID + "/bids"

	t.Run("FirstBidAccepted", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, bidsPath, "bidder-a", placeBidRequest{Amount: 110.00})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		got := decodeListing(t, resp)
		require.NotNil(t, got.CurrentBid)
		assert.Equal(t, 110.00, *got.CurrentBid)
	})

	t.Run("LowBidRejectedWith400", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, bidsPath, "bidder-b", placeBidRequest{Amount: 105.00})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "validation", body.Kind)
		assert.False(t, body.Retryable)
	})

	t.Run("SellerBidRejectedWith403", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, bidsPath, "seller-1", placeBidRequest{Amount: 120.00})
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("BidsAreListedPublicly", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, bidsPath, "", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var bids []bidResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&bids))
		require.Len(t, bids, 1)
		assert.Equal(t, 110.00, bids[0].Amount)
	})

	t.Run("BidAfterCloseIs409Retryable", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/listings/"+listing.ID+"/close", "seller-1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		closed := decodeListing(t, resp)
		assert.Equal(t, "pending", closed.Status)
		assert.Equal(t, "bidder-a", closed.PendingBuyerID)

		resp = f.do(t, http.MethodPost, bidsPath, "bidder-b", placeBidRequest{Amount: 200.00})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "state_conflict", body.Kind)
		assert.True(t, body.Retryable)
	})
}

func TestAPI_PurchaseAndStatus(t *testing.T) {
	f := newAPIFixture(t)
	listing := f.createListing(t, "seller-1", createListingRequest{
		Title: "Microwave", PricingMode: "fixed", BasePrice: 45.00,
	})

	resp := f.do(t, http.MethodPost, "/api/listings/"+listing.ID+"/purchase", "buyer-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decodeListing(t, resp)
	assert.Equal(t, "pending", pending.Status)
	assert.Equal(t, "buyer-1", pending.PendingBuyerID)

	t.Run("OnlySoldIsAcceptedAsStatus", func(t *testing.T) {
		resp := f.do(t, http.MethodPatch, "/api/listings/"+listing.ID+"/status", "seller-1",
			updateStatusRequest{Status: "available"})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("SellerMarksSold", func(t *testing.T) {
		resp := f.do(t, http.MethodPatch, "/api/listings/"+listing.ID+"/status", "seller-1",
			updateStatusRequest{Status: "sold"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		sold := decodeListing(t, resp)
		assert.Equal(t, "sold", sold.Status)
	})

	t.Run("SoldIsTerminal", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/listings/"+listing.ID+"/purchase", "buyer-2", nil)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decodeError(t, resp)
		assert.True(t, body.Retryable)
	})
}

func TestAPI_OwnershipIsEnforced(t *testing.T) {
	f := newAPIFixture(t)
	listing := f.createListing(t, "seller-1", createListingRequest{
		Title: "Printer", PricingMode: "fixed", BasePrice: 25.00,
	})

	resp := f.do(t, http.MethodPut, "/api/listings/"+listing.ID, "intruder",
		updateListingRequest{Title: "Mine now"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "authorization", body.Kind)

	resp = f.do(t, http.MethodDelete, "/api/listings/"+listing.ID, "intruder", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_HeartsAndFavorites(t *testing.T) {
	f := newAPIFixture(t)
	listing := f.createListing(t, "seller-1", createListingRequest{
		Title: "Poster", PricingMode: "fixed", BasePrice: 5.00,
	})
	heartPath := "/api/listings/" + listing.ID + "/heart"

	for i := 0; i < 2; i++ {
		resp := f.do(t, http.MethodPut, heartPath, "user-1", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	resp := f.do(t, http.MethodPut, heartPath, "user-2", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	t.Run("HeartStatusReflectsTheCaller", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, heartPath, "user-1", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var status heartStatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		assert.True(t, status.Hearted)
		assert.Equal(t, int64(2), status.HeartsCount)
		assert.True(t, status.Hot)

		resp = f.do(t, http.MethodGet, heartPath, "user-3", nil)
		defer resp.Body.Close()
		var other heartStatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&other))
		assert.False(t, other.Hearted)
	})

	t.Run("FavoritesListResolvesListings", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/favorites", "user-1", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []listingResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out, 1)
		assert.Equal(t, listing.ID, out[0].ID)
		assert.Equal(t, int64(2), out[0].HeartsCount)
	})

	t.Run("HotFeedPicksUpThreshold", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/listings/hot", "", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []listingResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out, 1)
		assert.Equal(t, listing.ID, out[0].ID)
	})

	t.Run("UnheartDropsBelowThreshold", func(t *testing.T) {
		resp := f.do(t, http.MethodDelete, heartPath, "user-2", nil)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = f.do(t, http.MethodGet, "/api/listings/hot", "", nil)
		defer resp.Body.Close()
		var out []listingResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Empty(t, out)
	})
}

func TestAPI_EventsArePublished(t *testing.T) {
	f := newAPIFixture(t)
	listing := f.createListing(t, "seller-1", createListingRequest{
		Title: "Keyboard", PricingMode: "auction", BasePrice: 30.00,
	})

	resp := f.do(t, http.MethodPost, "/api/listings/"+listing.ID+"/bids", "bidder-a",
		placeBidRequest{Amount: 35.00})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	assert.Contains(t, f.events.subjects, nats.SubjectListingCreated)
	assert.Contains(t, f.events.subjects, nats.SubjectBidPlaced)
}
