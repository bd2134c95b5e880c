package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
)

type CreateListingInput struct {
	Title       string
	Description string
	Category    string
	Condition   string
	PricingMode domain.PricingMode
	BasePrice   float64
	Photos      []string
}

type UpdateListingInput struct {
	Title       string
	Description string
	Category    string
	Condition   string
	Price       *float64
	Photos      []string
}

// ListingUsecase owns listing CRUD and ownership enforcement. Status
// transitions live in LifecycleUsecase; bids in AuctionUsecase.
type ListingUsecase struct {
	listings  domain.ListingRepository
	bids      domain.BidRepository
	favorites domain.FavoriteRepository
	locks     *keylock.KeyedMutex
	log       logger.Logger
}

func NewListingUsecase(
	listings domain.ListingRepository,
	bids domain.BidRepository,
	favorites domain.FavoriteRepository,
	locks *keylock.KeyedMutex,
	log logger.Logger,
) *ListingUsecase {
	return &ListingUsecase{
		listings:  listings,
		bids:      bids,
		favorites: favorites,
		locks:     locks,
		log:       log,
	}
}

// hasTwoDecimals reports whether v is a currency amount with at most two
// fractional digits.
func hasTwoDecimals(v float64) bool {
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

func (uc *ListingUsecase) Create(ctx context.Context, sellerID string, in CreateListingInput) (*domain.Listing, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("%w: missing seller id", domain.ErrValidation)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if in.PricingMode != domain.PricingFixed && in.PricingMode != domain.PricingAuction {
		return nil, fmt.Errorf("%w: pricing_mode must be fixed or auction", domain.ErrValidation)
	}
	if in.BasePrice <= 0 || !hasTwoDecimals(in.BasePrice) {
		return nil, fmt.Errorf("%w: base_price must be a positive amount with at most two decimals", domain.ErrValidation)
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Condition:   in.Condition,
		PricingMode: in.PricingMode,
		BasePrice:   in.BasePrice,
		Status:      domain.StatusAvailable,
		Photos:      in.Photos,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if listing.Photos == nil {
		listing.Photos = []string{}
	}

	if err := uc.listings.Create(ctx, listing); err != nil {
		uc.log.Errorf("create listing failed for seller %s: %v", sellerID, err)
		return nil, err
	}
	uc.log.Infof("listing %s created by seller %s (%s)", listing.ID, sellerID, listing.PricingMode)
	return listing, nil
}

// Update edits non-status fields. Only the owning seller may update;
// pricing mode is always immutable, and an auction's base price is
// frozen at creation. A fixed price may be edited while available.
func (uc *ListingUsecase) Update(ctx context.Context, id, callerID string, in UpdateListingInput) (*domain.Listing, error) {
	uc.locks.Lock(id)
	defer uc.locks.Unlock(id)

	listing, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != callerID {
		return nil, fmt.Errorf("%w: only the seller may update listing %s", domain.ErrForbidden, id)
	}

	if in.Price != nil {
		if listing.IsAuction() {
			return nil, fmt.Errorf("%w: base_price of an auction listing is immutable", domain.ErrValidation)
		}
		if listing.Status != domain.StatusAvailable {
			return nil, fmt.Errorf("%w: price can only be edited while the listing is available", domain.ErrStateConflict)
		}
		if *in.Price <= 0 || !hasTwoDecimals(*in.Price) {
			return nil, fmt.Errorf("%w: price must be a positive amount with at most two decimals", domain.ErrValidation)
		}
		listing.BasePrice = *in.Price
	}
	if in.Title != "" {
		listing.Title = in.Title
	}
	if in.Description != "" {
		listing.Description = in.Description
	}
	if in.Category != "" {
		listing.Category = in.Category
	}
	if in.Condition != "" {
		listing.Condition = in.Condition
	}
	if in.Photos != nil {
		listing.Photos = in.Photos
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := uc.listings.Update(ctx, listing); err != nil {
		uc.log.Errorf("update listing %s failed: %v", id, err)
		return nil, err
	}
	return listing, nil
}

// Delete removes a listing and cascades to its bids and favorites.
// Sold listings are kept for the record and cannot be deleted.
func (uc *ListingUsecase) Delete(ctx context.Context, id, callerID string) error {
	uc.locks.Lock(id)
	defer uc.locks.Unlock(id)

	listing, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.SellerID != callerID {
		return fmt.Errorf("%w: only the seller may delete listing %s", domain.ErrForbidden, id)
	}
	if listing.Status == domain.StatusSold {
		return fmt.Errorf("%w: sold listings cannot be deleted", domain.ErrStateConflict)
	}

	if err := uc.listings.Delete(ctx, id); err != nil {
		return err
	}
	if n, err := uc.bids.DeleteByListingID(ctx, id); err != nil {
		uc.log.Errorf("cascade delete of bids for listing %s failed: %v", id, err)
	} else if n > 0 {
		uc.log.Infof("cascade deleted %d bids for listing %s", n, id)
	}
	if n, err := uc.favorites.DeleteByListingID(ctx, id); err != nil {
		uc.log.Errorf("cascade delete of favorites for listing %s failed: %v", id, err)
	} else if n > 0 {
		uc.log.Infof("cascade deleted %d favorites for listing %s", n, id)
	}
	return nil
}

func (uc *ListingUsecase) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	return uc.listings.FindByID(ctx, id)
}

// Browse lists listings for the marketplace feed. Unless the caller
// explicitly filters by status, only available listings are returned.
func (uc *ListingUsecase) Browse(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	if filter.Status == "" {
		filter.Status = domain.StatusAvailable
	}
	if filter.MaxPrice < 0 {
		return nil, fmt.Errorf("%w: max_price must not be negative", domain.ErrValidation)
	}
	return uc.listings.FindByFilter(ctx, filter)
}
