package domain

import "context"

// ListingRepository persists listings. Update is a compare-and-swap on
// the listing's Version: implementations match on (ID, Version), apply
// the new state with Version+1, and return ErrStateConflict when the
// stored version moved underneath the writer.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByFilter(ctx context.Context, filter Filter) ([]*Listing, error)

	// FindHot returns available listings whose hearts count reached
	// minHearts, ordered by hearts count descending, at most limit rows.
	FindHot(ctx context.Context, minHearts, limit int64) ([]*Listing, error)

	// AdjustHearts shifts the denormalized hearts counter kept on the
	// listing for ranking. Callers serialize it with the membership
	// write so the counter never drifts from the favorites cardinality.
	AdjustHearts(ctx context.Context, id string, delta int64) error
}

type BidRepository interface {
	Create(ctx context.Context, bid *Bid) error

	// FindByListingID returns the listing's bids ascending by timestamp.
	FindByListingID(ctx context.Context, listingID string) ([]*Bid, error)

	DeleteByListingID(ctx context.Context, listingID string) (int64, error)
}

type FavoriteRepository interface {
	// Add inserts the membership pair if absent. The boolean reports
	// whether a new row was created, so heart stays idempotent.
	Add(ctx context.Context, favorite *Favorite) (bool, error)

	// Remove deletes the membership pair if present and reports whether
	// a row was actually removed.
	Remove(ctx context.Context, userID, listingID string) (bool, error)

	Exists(ctx context.Context, userID, listingID string) (bool, error)
	CountByListing(ctx context.Context, listingID string) (int64, error)
	FindByUserID(ctx context.Context, userID string) ([]*Favorite, error)
	DeleteByListingID(ctx context.Context, listingID string) (int64, error)
}
