package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustrade/market-service/internal/adapter/repository/memory"
	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
)

type favoriteFixture struct {
	listings  *memory.ListingRepository
	favorites *memory.FavoriteRepository
	uc        *FavoriteUsecase
}

func newFavoriteFixture(t *testing.T, hotThreshold, hotLimit int64) *favoriteFixture {
	t.Helper()
	listings := memory.NewListingRepository()
	favorites := memory.NewFavoriteRepository()
	uc := NewFavoriteUsecase(favorites, listings, keylock.New(), hotThreshold, hotLimit, logger.NewNop())
	return &favoriteFixture{listings: listings, favorites: favorites, uc: uc}
}

func TestHeart_IsIdempotent(t *testing.T) {
	f := newFavoriteFixture(t, 5, 20)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Headphones",
		PricingMode: domain.PricingFixed,
		BasePrice:   35.00,
	})

	require.NoError(t, f.uc.Heart(ctx, listing.ID, "user-1"))
	require.NoError(t, f.uc.Heart(ctx, listing.ID, "user-1"))
	require.NoError(t, f.uc.Heart(ctx, listing.ID, "user-2"))

	count, err := f.favorites.CountByListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	stored, err := f.listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.HeartsCount)
}

func TestHeart_UnknownListing(t *testing.T) {
	f := newFavoriteFixture(t, 5, 20)
	err := f.uc.Heart(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnheart_AbsentIsNoOp(t *testing.T) {
	f := newFavoriteFixture(t, 5, 20)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Scarf",
		PricingMode: domain.PricingFixed,
		BasePrice:   7.00,
	})

	require.NoError(t, f.uc.Unheart(ctx, listing.ID, "user-1"))

	stored, err := f.listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.HeartsCount)
}

func TestHeartUnheart_CountNeverDrifts(t *testing.T) {
	f := newFavoriteFixture(t, 5, 20)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Winter coat",
		PricingMode: domain.PricingFixed,
		BasePrice:   55.00,
	})

	const users = 30
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			// Every user hearts twice and the odd ones unheart again.
			require.NoError(t, f.uc.Heart(ctx, listing.ID, userID))
			require.NoError(t, f.uc.Heart(ctx, listing.ID, userID))
			if i%2 == 1 {
				require.NoError(t, f.uc.Unheart(ctx, listing.ID, userID))
			}
		}(i)
	}
	wg.Wait()

	count, err := f.favorites.CountByListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(users/2), count)

	stored, err := f.listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, count, stored.HeartsCount)
}

func TestIsHot_Threshold(t *testing.T) {
	f := newFavoriteFixture(t, 3, 20)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Espresso maker",
		PricingMode: domain.PricingFixed,
		BasePrice:   28.00,
	})

	for i := 0; i < 2; i++ {
		require.NoError(t, f.uc.Heart(ctx, listing.ID, fmt.Sprintf("user-%d", i)))
	}
	hot, err := f.uc.IsHot(ctx, listing.ID)
	require.NoError(t, err)
	assert.False(t, hot)

	require.NoError(t, f.uc.Heart(ctx, listing.ID, "user-2"))
	hot, err = f.uc.IsHot(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, hot)
}

func TestHeartStatus(t *testing.T) {
	f := newFavoriteFixture(t, 2, 20)
	ctx := context.Background()
	listing := seedListing(t, f.listings, &domain.Listing{
		SellerID:    "seller-1",
		Title:       "Bookshelf",
		PricingMode: domain.PricingFixed,
		BasePrice:   18.00,
	})

	require.NoError(t, f.uc.Heart(ctx, listing.ID, "user-1"))
	require.NoError(t, f.uc.Heart(ctx, listing.ID, "user-2"))

	hearted, count, hot, err := f.uc.HeartStatus(ctx, listing.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, hearted)
	assert.Equal(t, int64(2), count)
	assert.True(t, hot)

	hearted, _, _, err = f.uc.HeartStatus(ctx, listing.ID, "user-3")
	require.NoError(t, err)
	assert.False(t, hearted)

	_, _, _, err = f.uc.HeartStatus(ctx, "missing", "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListHot_RanksByHeartsAndSkipsUnavailable(t *testing.T) {
	f := newFavoriteFixture(t, 2, 20)
	ctx := context.Background()

	mild := seedListing(t, f.listings, &domain.Listing{
		SellerID: "seller-1", Title: "Mild", PricingMode: domain.PricingFixed, BasePrice: 10.00,
	})
	popular := seedListing(t, f.listings, &domain.Listing{
		SellerID: "seller-1", Title: "Popular", PricingMode: domain.PricingFixed, BasePrice: 10.00,
	})
	sold := seedListing(t, f.listings, &domain.Listing{
		SellerID: "seller-1", Title: "Sold out", PricingMode: domain.PricingFixed, BasePrice: 10.00,
		Status: domain.StatusSold,
	})

	require.NoError(t, f.uc.Heart(ctx, mild.ID, "u1"))
	for i := 0; i < 3; i++ {
		require.NoError(t, f.uc.Heart(ctx, popular.ID, fmt.Sprintf("u%d", i)))
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, f.uc.Heart(ctx, sold.ID, fmt.Sprintf("u%d", i)))
	}

	hot, err := f.uc.ListHot(ctx)
	require.NoError(t, err)
	require.Len(t, hot, 1)
	assert.Equal(t, popular.ID, hot[0].ID)
}

func TestListFavorites_SkipsDeletedListings(t *testing.T) {
	f := newFavoriteFixture(t, 5, 20)
	ctx := context.Background()

	kept := seedListing(t, f.listings, &domain.Listing{
		SellerID: "seller-1", Title: "Kept", PricingMode: domain.PricingFixed, BasePrice: 10.00,
	})
	doomed := seedListing(t, f.listings, &domain.Listing{
		SellerID: "seller-1", Title: "Doomed", PricingMode: domain.PricingFixed, BasePrice: 10.00,
	})

	require.NoError(t, f.uc.Heart(ctx, kept.ID, "user-1"))
	require.NoError(t, f.uc.Heart(ctx, doomed.ID, "user-1"))
	require.NoError(t, f.listings.Delete(ctx, doomed.ID))

	listings, err := f.uc.ListFavorites(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, kept.ID, listings[0].ID)
}
