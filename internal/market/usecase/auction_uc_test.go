package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustrade/market-service/internal/adapter/repository/memory"
	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
)

type auctionFixture struct {
	listings *memory.ListingRepository
	bids     *memory.BidRepository
	uc       *AuctionUsecase
}

func newAuctionFixture(t *testing.T) *auctionFixture {
	t.Helper()
	listings := memory.NewListingRepository()
	bids := memory.NewBidRepository()
	uc := NewAuctionUsecase(listings, bids, keylock.New(), logger.NewNop())
	return &auctionFixture{listings: listings, bids: bids, uc: uc}
}

func seedListing(t *testing.T, repo *memory.ListingRepository, listing *domain.Listing) *domain.Listing {
	t.Helper()
	if listing.Status == "" {
		listing.Status = domain.StatusAvailable
	}
	if listing.Version == 0 {
		listing.Version = 1
	}
	require.NoError(t, repo.Create(context.Background(), listing))
	return listing
}

func TestPlaceBid_AcceptsOnlyHigherAmounts(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Calculus textbook",
		PricingMode: domain.PricingAuction,
		BasePrice:   10.00,
	})

	updated, err := f.uc.PlaceBid(ctx, listing.ID, "bidder-a", 12.00)
	require.NoError(t, err)
	require.NotNil(t, updated.CurrentBid)
	assert.Equal(t, 12.00, *updated.CurrentBid)
	assert.Equal(t, "bidder-a", updated.HighBidderID)

	_, err = f.uc.PlaceBid(ctx, listing.ID, "bidder-b", 11.00)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err = f.uc.PlaceBid(ctx, listing.ID, "bidder-b", 15.00)
	require.NoError(t, err)
	assert.Equal(t, 15.00, *updated.CurrentBid)
	assert.Equal(t, "bidder-b", updated.HighBidderID)

	bids, err := f.bids.FindByListingID(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, 12.00, bids[0].Amount)
	assert.Equal(t, 15.00, bids[1].Amount)
}

func TestPlaceBid_EqualToHighIsRejected(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Desk lamp",
		PricingMode: domain.PricingAuction,
		BasePrice:   20.00,
	})

	_, err := f.uc.PlaceBid(ctx, listing.ID, "bidder-a", 25.00)
	require.NoError(t, err)

	_, err = f.uc.PlaceBid(ctx, listing.ID, "bidder-b", 25.00)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPlaceBid_BidAtBasePriceIsRejected(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Mini fridge",
		PricingMode: domain.PricingAuction,
		BasePrice:   40.00,
	})

	// With no bids yet the base price is the floor to beat.
	_, err := f.uc.PlaceBid(ctx, listing.ID, "bidder-a", 40.00)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.PlaceBid(ctx, listing.ID, "bidder-a", 40.01)
	assert.NoError(t, err)
}

func TestPlaceBid_Rejections(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()

	auction := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Bike",
		PricingMode: domain.PricingAuction,
		BasePrice:   50.00,
	})
	fixed := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Poster",
		PricingMode: domain.PricingFixed,
		BasePrice:   5.00,
	})

	t.Run("MissingBidder", func(t *testing.T) {
		_, err := f.uc.PlaceBid(ctx, auction.ID, "", 60.00)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		_, err := f.uc.PlaceBid(ctx, auction.ID, "bidder-a", 0)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = f.uc.PlaceBid(ctx, auction.ID, "bidder-a", -5.00)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("MoreThanTwoDecimals", func(t *testing.T) {
		_, err := f.uc.PlaceBid(ctx, auction.ID, "bidder-a", 51.111)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("FixedPriceListing", func(t *testing.T) {
		_, err := f.uc.PlaceBid(ctx, fixed.ID, "bidder-a", 6.00)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("SellerBidsOnOwnAuction", func(t *testing.T) {
		_, err := f.uc.PlaceBid(ctx, auction.ID, "seller-1", 60.00)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("UnknownListing", func(t *testing.T) {
		_, err := f.uc.PlaceBid(ctx, "missing", "bidder-a", 60.00)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestPlaceBid_ClosedListingIsConflict(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Monitor",
		PricingMode: domain.PricingAuction,
		BasePrice:   80.00,
		Status:      domain.StatusPending,
	})

	_, err := f.uc.PlaceBid(ctx, listing.ID, "bidder-a", 90.00)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestPlaceBid_RevertsHighBidWhenPersistFails(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Guitar",
		PricingMode: domain.PricingAuction,
		BasePrice:   100.00,
	})

	_, err := f.uc.PlaceBid(ctx, listing.ID, "bidder-a", 110.00)
	require.NoError(t, err)

	f.bids.FailNext = errors.New("write concern failure")
	_, err = f.uc.PlaceBid(ctx, listing.ID, "bidder-b", 120.00)
	require.Error(t, err)

	stored, err := f.listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentBid)
	assert.Equal(t, 110.00, *stored.CurrentBid)
	assert.Equal(t, "bidder-a", stored.HighBidderID)

	bids, err := f.bids.FindByListingID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Len(t, bids, 1)
}

// Concurrent bidders race on one listing. Whatever interleaving happens,
// the accepted bids must be strictly increasing and the listing's high
// must equal the largest accepted amount.
func TestPlaceBid_ConcurrentBiddersConverge(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Road bike",
		PricingMode: domain.PricingAuction,
		BasePrice:   100.00,
	})

	const bidders = 50
	amounts := make([]float64, bidders)
	for i := range amounts {
		amounts[i] = 101.00 + float64(i)
	}
	rand.Shuffle(len(amounts), func(i, j int) { amounts[i], amounts[j] = amounts[j], amounts[i] })

	var wg sync.WaitGroup
	var mu sync.Mutex
	var accepted []float64

	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount float64) {
			defer wg.Done()
			if _, err := f.uc.PlaceBid(ctx, listing.ID, fmt.Sprintf("bidder-%d", i), amount); err == nil {
				mu.Lock()
				accepted = append(accepted, amount)
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrValidation)
			}
		}(i, amount)
	}
	wg.Wait()

	require.NotEmpty(t, accepted)

	max := accepted[0]
	for _, a := range accepted[1:] {
		if a > max {
			max = a
		}
	}
	// The top amount always wins: it beats any high it can observe.
	assert.Equal(t, 100.00+float64(bidders), max)

	stored, err := f.listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentBid)
	assert.Equal(t, max, *stored.CurrentBid)

	bids, err := f.bids.FindByListingID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, len(accepted), len(bids))
	assert.Equal(t, int64(1+len(accepted)), stored.Version)
}

func TestGetBids_UnknownListing(t *testing.T) {
	f := newAuctionFixture(t)
	_, err := f.uc.GetBids(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
