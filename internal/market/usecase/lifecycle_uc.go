package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
)

// LifecycleUsecase guards listing status transitions. The permitted
// graph is available -> pending -> sold and available -> sold; sold is
// terminal and nothing returns from pending to available.
type LifecycleUsecase struct {
	listings domain.ListingRepository
	bids     domain.BidRepository
	notifier Notifier
	locks    *keylock.KeyedMutex
	log      logger.Logger
}

func NewLifecycleUsecase(
	listings domain.ListingRepository,
	bids domain.BidRepository,
	notifier Notifier,
	locks *keylock.KeyedMutex,
	log logger.Logger,
) *LifecycleUsecase {
	return &LifecycleUsecase{
		listings: listings,
		bids:     bids,
		notifier: notifier,
		locks:    locks,
		log:      log,
	}
}

// RequestPurchase moves a fixed-price listing to pending on behalf of a
// buyer. The seller is notified; a listing that is no longer available
// is a state conflict the buyer can react to after refetching.
func (uc *LifecycleUsecase) RequestPurchase(ctx context.Context, listingID, buyerID string) (*domain.Listing, error) {
	uc.locks.Lock(listingID)
	defer uc.locks.Unlock(listingID)

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.PricingMode != domain.PricingFixed {
		return nil, fmt.Errorf("%w: purchase requests only apply to fixed-price listings", domain.ErrValidation)
	}
	if listing.SellerID == buyerID {
		return nil, fmt.Errorf("%w: the seller cannot request a purchase of their own listing", domain.ErrForbidden)
	}
	if listing.Status != domain.StatusAvailable {
		return nil, fmt.Errorf("%w: listing %s is %s", domain.ErrStateConflict, listingID, listing.Status)
	}

	listing.Status = domain.StatusPending
	listing.PendingBuyerID = buyerID
	listing.UpdatedAt = time.Now().UTC()

	if err := uc.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	uc.log.Infof("listing %s moved to pending, purchase requested by %s", listingID, buyerID)

	if err := uc.notifier.PurchaseRequested(ctx, listing, buyerID); err != nil {
		uc.log.Errorf("purchase notification for listing %s failed: %v", listingID, err)
	}
	return listing, nil
}

// MarkSold finalizes a listing from available or pending. Seller only.
func (uc *LifecycleUsecase) MarkSold(ctx context.Context, listingID, callerID string) (*domain.Listing, error) {
	uc.locks.Lock(listingID)
	defer uc.locks.Unlock(listingID)

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != callerID {
		return nil, fmt.Errorf("%w: only the seller may mark listing %s sold", domain.ErrForbidden, listingID)
	}
	if listing.Status == domain.StatusSold {
		return nil, fmt.Errorf("%w: listing %s is already sold", domain.ErrStateConflict, listingID)
	}

	listing.Status = domain.StatusSold
	listing.UpdatedAt = time.Now().UTC()

	if err := uc.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	uc.log.Infof("listing %s marked sold by seller %s", listingID, callerID)
	return listing, nil
}

// CloseBidding ends an auction: the current high bidder becomes the
// pending buyer and is notified. Closing an auction nobody bid on is
// rejected so the seller keeps the option to relist or wait.
func (uc *LifecycleUsecase) CloseBidding(ctx context.Context, listingID, callerID string) (*domain.Listing, error) {
	uc.locks.Lock(listingID)
	defer uc.locks.Unlock(listingID)

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsAuction() {
		return nil, fmt.Errorf("%w: listing %s is not an auction", domain.ErrValidation, listingID)
	}
	if listing.SellerID != callerID {
		return nil, fmt.Errorf("%w: only the seller may close bidding on listing %s", domain.ErrForbidden, listingID)
	}
	if listing.Status != domain.StatusAvailable {
		return nil, fmt.Errorf("%w: listing %s is %s", domain.ErrStateConflict, listingID, listing.Status)
	}
	if listing.CurrentBid == nil || listing.HighBidderID == "" {
		return nil, fmt.Errorf("%w: cannot close bidding with no bids", domain.ErrValidation)
	}

	winnerID := listing.HighBidderID
	listing.Status = domain.StatusPending
	listing.PendingBuyerID = winnerID
	listing.UpdatedAt = time.Now().UTC()

	if err := uc.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	uc.log.Infof("bidding closed on listing %s, winner %s at %.2f", listingID, winnerID, *listing.CurrentBid)

	if err := uc.notifier.BiddingClosed(ctx, listing, winnerID); err != nil {
		uc.log.Errorf("bidding-closed notification for listing %s failed: %v", listingID, err)
	}
	return listing, nil
}
