package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
)

// FavoriteUsecase is the favorites ledger: per-user membership plus the
// aggregate hearts count feeding hot-item ranking. Heart and Unheart are
// idempotent; the membership write and the counter adjustment run inside
// the same per-listing critical section so the count never drifts from
// the number of distinct hearting users.
type FavoriteUsecase struct {
	favorites    domain.FavoriteRepository
	listings     domain.ListingRepository
	locks        *keylock.KeyedMutex
	hotThreshold int64
	hotLimit     int64
	log          logger.Logger
}

func NewFavoriteUsecase(
	favorites domain.FavoriteRepository,
	listings domain.ListingRepository,
	locks *keylock.KeyedMutex,
	hotThreshold, hotLimit int64,
	log logger.Logger,
) *FavoriteUsecase {
	return &FavoriteUsecase{
		favorites:    favorites,
		listings:     listings,
		locks:        locks,
		hotThreshold: hotThreshold,
		hotLimit:     hotLimit,
		log:          log,
	}
}

// Heart adds the caller's favorite. Repeating it is a no-op.
func (uc *FavoriteUsecase) Heart(ctx context.Context, listingID, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", domain.ErrValidation)
	}

	uc.locks.Lock(listingID)
	defer uc.locks.Unlock(listingID)

	if _, err := uc.listings.FindByID(ctx, listingID); err != nil {
		return err
	}

	added, err := uc.favorites.Add(ctx, &domain.Favorite{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to add favorite for listing %s: %w", listingID, err)
	}
	if !added {
		return nil
	}
	if err := uc.listings.AdjustHearts(ctx, listingID, 1); err != nil {
		return fmt.Errorf("failed to bump hearts for listing %s: %w", listingID, err)
	}
	uc.log.Debugf("user %s hearted listing %s", userID, listingID)
	return nil
}

// Unheart removes the caller's favorite. Absence is a no-op.
func (uc *FavoriteUsecase) Unheart(ctx context.Context, listingID, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", domain.ErrValidation)
	}

	uc.locks.Lock(listingID)
	defer uc.locks.Unlock(listingID)

	removed, err := uc.favorites.Remove(ctx, userID, listingID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite for listing %s: %w", listingID, err)
	}
	if !removed {
		return nil
	}
	if err := uc.listings.AdjustHearts(ctx, listingID, -1); err != nil {
		return fmt.Errorf("failed to lower hearts for listing %s: %w", listingID, err)
	}
	uc.log.Debugf("user %s unhearted listing %s", userID, listingID)
	return nil
}

// ListFavorites resolves the user's hearted listings, newest heart first.
func (uc *FavoriteUsecase) ListFavorites(ctx context.Context, userID string) ([]*domain.Listing, error) {
	favorites, err := uc.favorites.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	listings := make([]*domain.Listing, 0, len(favorites))
	for _, fav := range favorites {
		listing, err := uc.listings.FindByID(ctx, fav.ListingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				uc.log.Warnf("favorite of user %s points at missing listing %s", userID, fav.ListingID)
				continue
			}
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// IsHot classifies a listing against the configured threshold using the
// authoritative favorites cardinality.
func (uc *FavoriteUsecase) IsHot(ctx context.Context, listingID string) (bool, error) {
	if _, err := uc.listings.FindByID(ctx, listingID); err != nil {
		return false, err
	}
	count, err := uc.favorites.CountByListing(ctx, listingID)
	if err != nil {
		return false, err
	}
	return count >= uc.hotThreshold, nil
}

// HeartStatus is the caller's view of a listing's favorites state:
// whether they hearted it, the distinct-user count, and the hot flag.
func (uc *FavoriteUsecase) HeartStatus(ctx context.Context, listingID, userID string) (hearted bool, count int64, hot bool, err error) {
	if _, err = uc.listings.FindByID(ctx, listingID); err != nil {
		return false, 0, false, err
	}
	hearted, err = uc.favorites.Exists(ctx, userID, listingID)
	if err != nil {
		return false, 0, false, err
	}
	count, err = uc.favorites.CountByListing(ctx, listingID)
	if err != nil {
		return false, 0, false, err
	}
	return hearted, count, count >= uc.hotThreshold, nil
}

// ListHot returns the hot feed: available listings at or above the
// threshold, most hearted first.
func (uc *FavoriteUsecase) ListHot(ctx context.Context) ([]*domain.Listing, error) {
	return uc.listings.FindHot(ctx, uc.hotThreshold, uc.hotLimit)
}
