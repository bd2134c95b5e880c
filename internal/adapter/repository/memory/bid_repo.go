package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campustrade/market-service/internal/market/domain"
)

type BidRepository struct {
	mu   sync.RWMutex
	bids map[string][]*domain.Bid

	// FailNext makes the next Create return the given error. Lets tests
	// exercise the placeBid rollback path.
	FailNext error
}

func NewBidRepository() *BidRepository {
	return &BidRepository{bids: make(map[string][]*domain.Bid)}
}

func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNext != nil {
		err := r.FailNext
		r.FailNext = nil
		return err
	}

	b := *bid
	r.bids[bid.ListingID] = append(r.bids[bid.ListingID], &b)
	return nil
}

func (r *BidRepository) FindByListingID(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids := make([]*domain.Bid, 0, len(r.bids[listingID]))
	for _, b := range r.bids[listingID] {
		c := *b
		bids = append(bids, &c)
	}
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].CreatedAt.Before(bids[j].CreatedAt)
	})
	return bids, nil
}

func (r *BidRepository) DeleteByListingID(ctx context.Context, listingID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.bids[listingID]))
	delete(r.bids, listingID)
	return n, nil
}
