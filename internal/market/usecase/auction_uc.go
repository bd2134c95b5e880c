package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
)

// AuctionUsecase serializes bid submissions per listing and maintains
// the current high bid. Accepted amounts are strictly increasing: a bid
// equal to or below the current high is rejected, never silently dropped.
type AuctionUsecase struct {
	listings domain.ListingRepository
	bids     domain.BidRepository
	locks    *keylock.KeyedMutex
	log      logger.Logger
}

func NewAuctionUsecase(
	listings domain.ListingRepository,
	bids domain.BidRepository,
	locks *keylock.KeyedMutex,
	log logger.Logger,
) *AuctionUsecase {
	return &AuctionUsecase{
		listings: listings,
		bids:     bids,
		locks:    locks,
		log:      log,
	}
}

// PlaceBid validates and records a bid. The acceptance rule is checked
// inside the per-listing critical section, so of two bids racing to beat
// the same high exactly one wins; the repository's version CAS backstops
// writers on other instances. The listing update is the commit point: if
// the bid row cannot be persisted afterwards the update is reverted so
// the two writes never apply partially.
func (uc *AuctionUsecase) PlaceBid(ctx context.Context, listingID, bidderID string, amount float64) (*domain.Listing, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("%w: missing bidder id", domain.ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", domain.ErrValidation)
	}
	if !hasTwoDecimals(amount) {
		return nil, fmt.Errorf("%w: bid amount must have at most two decimals", domain.ErrValidation)
	}

	uc.locks.Lock(listingID)
	defer uc.locks.Unlock(listingID)

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsAuction() {
		return nil, fmt.Errorf("%w: listing %s is not an auction", domain.ErrValidation, listingID)
	}
	if listing.SellerID == bidderID {
		return nil, fmt.Errorf("%w: the seller cannot bid on their own auction", domain.ErrForbidden)
	}
	if listing.Status != domain.StatusAvailable {
		return nil, fmt.Errorf("%w: bidding on listing %s is closed (%s)", domain.ErrStateConflict, listingID, listing.Status)
	}
	if high := listing.CurrentHigh(); amount <= high {
		return nil, fmt.Errorf("%w: bid must exceed current high of %.2f", domain.ErrValidation, high)
	}

	prevBid := listing.CurrentBid
	prevBidder := listing.HighBidderID
	prevUpdated := listing.UpdatedAt

	now := time.Now().UTC()
	listing.CurrentBid = &amount
	listing.HighBidderID = bidderID
	listing.UpdatedAt = now

	if err := uc.listings.Update(ctx, listing); err != nil {
		return nil, err
	}

	bid := &domain.Bid{
		ID:        uuid.NewString(),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}
	if err := uc.bids.Create(ctx, bid); err != nil {
		uc.log.Errorf("bid persist for listing %s failed, reverting high bid: %v", listingID, err)
		listing.CurrentBid = prevBid
		listing.HighBidderID = prevBidder
		listing.UpdatedAt = prevUpdated
		if revertErr := uc.listings.Update(ctx, listing); revertErr != nil {
			uc.log.Errorf("revert of high bid on listing %s failed: %v", listingID, revertErr)
		}
		return nil, fmt.Errorf("failed to record bid for listing %s: %w", listingID, err)
	}

	uc.log.Infof("bid %s accepted on listing %s: %.2f by %s", bid.ID, listingID, amount, bidderID)
	return listing, nil
}

// GetBids returns the listing's bids ascending by timestamp. Pure read,
// safe against concurrent writers.
func (uc *AuctionUsecase) GetBids(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	if _, err := uc.listings.FindByID(ctx, listingID); err != nil {
		return nil, err
	}
	return uc.bids.FindByListingID(ctx, listingID)
}
