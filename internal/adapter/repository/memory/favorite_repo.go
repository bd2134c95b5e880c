package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/campustrade/market-service/internal/market/domain"
)

type favoriteKey struct {
	userID    string
	listingID string
}

type FavoriteRepository struct {
	mu        sync.RWMutex
	favorites map[favoriteKey]*domain.Favorite
}

func NewFavoriteRepository() *FavoriteRepository {
	return &FavoriteRepository{favorites: make(map[favoriteKey]*domain.Favorite)}
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey{userID: favorite.UserID, listingID: favorite.ListingID}
	if _, ok := r.favorites[key]; ok {
		return false, nil
	}

	f := *favorite
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	r.favorites[key] = &f
	return true, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey{userID: userID, listingID: listingID}
	if _, ok := r.favorites[key]; !ok {
		return false, nil
	}
	delete(r.favorites, key)
	return true, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.favorites[favoriteKey{userID: userID, listingID: listingID}]
	return ok, nil
}

func (r *FavoriteRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for key := range r.favorites {
		if key.listingID == listingID {
			count++
		}
	}
	return count, nil
}

func (r *FavoriteRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var favorites []*domain.Favorite
	for key, f := range r.favorites {
		if key.userID == userID {
			c := *f
			favorites = append(favorites, &c)
		}
	}
	sort.Slice(favorites, func(i, j int) bool {
		return favorites[i].CreatedAt.After(favorites[j].CreatedAt)
	})
	return favorites, nil
}

func (r *FavoriteRepository) DeleteByListingID(ctx context.Context, listingID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key := range r.favorites {
		if key.listingID == listingID {
			delete(r.favorites, key)
			n++
		}
	}
	return n, nil
}
