// Package memory holds concurrency-safe in-memory implementations of
// the repository ports, used by tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/campustrade/market-service/internal/market/domain"
)

type ListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{listings: make(map[string]*domain.Listing)}
}

func cloneListing(l *domain.Listing) *domain.Listing {
	c := *l
	if l.CurrentBid != nil {
		v := *l.CurrentBid
		c.CurrentBid = &v
	}
	c.Photos = append([]string(nil), l.Photos...)
	return &c
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	r.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.listings[listing.ID]
	if !ok {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, listing.ID)
	}
	if stored.Version != listing.Version {
		return fmt.Errorf("%w: listing %s was modified concurrently", domain.ErrStateConflict, listing.ID)
	}

	listing.Version++
	updated := cloneListing(listing)
	updated.HeartsCount = stored.HeartsCount
	r.listings[listing.ID] = updated
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	delete(r.listings, id)
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Listing
	for _, l := range r.listings {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.MaxPrice > 0 && l.BasePrice > filter.MaxPrice {
			continue
		}
		if filter.SellerID != "" && l.SellerID != filter.SellerID {
			continue
		}
		result = append(result, cloneListing(l))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && int64(len(result)) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *ListingRepository) FindHot(ctx context.Context, minHearts, limit int64) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Listing
	for _, l := range r.listings {
		if l.Status != domain.StatusAvailable || l.HeartsCount < minHearts {
			continue
		}
		result = append(result, cloneListing(l))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].HeartsCount > result[j].HeartsCount
	})
	if limit > 0 && int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *ListingRepository) AdjustHearts(ctx context.Context, id string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	listing.HeartsCount += delta
	return nil
}
