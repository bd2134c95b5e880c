package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campustrade/market-service/internal/market/domain"
)

const (
	listingsCollection  = "listings"
	bidsCollection      = "bids"
	favoritesCollection = "favorites"
)

type listingDocument struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	SellerID       string               `bson:"seller_id"`
	Title          string               `bson:"title"`
	Description    string               `bson:"description"`
	Category       string               `bson:"category"`
	Condition      string               `bson:"condition"`
	PricingMode    domain.PricingMode   `bson:"pricing_mode"`
	BasePrice      float64              `bson:"base_price"`
	CurrentBid     *float64             `bson:"current_bid,omitempty"`
	HighBidderID   string               `bson:"high_bidder_id,omitempty"`
	PendingBuyerID string               `bson:"pending_buyer_id,omitempty"`
	Status         domain.ListingStatus `bson:"status"`
	HeartsCount    int64                `bson:"hearts_count"`
	Photos         []string             `bson:"photos,omitempty"`
	Version        int64                `bson:"version"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

type bidDocument struct {
	ID        string    `bson:"_id"`
	ListingID string    `bson:"listing_id"`
	BidderID  string    `bson:"bidder_id"`
	Amount    float64   `bson:"amount"`
	CreatedAt time.Time `bson:"created_at"`
}

type favoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ListingID string             `bson:"listing_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	if l == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if l.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid listing id %q: %w", l.ID, err)
		}
	}

	return &listingDocument{
		ID:             docID,
		SellerID:       l.SellerID,
		Title:          l.Title,
		Description:    l.Description,
		Category:       l.Category,
		Condition:      l.Condition,
		PricingMode:    l.PricingMode,
		BasePrice:      l.BasePrice,
		CurrentBid:     l.CurrentBid,
		HighBidderID:   l.HighBidderID,
		PendingBuyerID: l.PendingBuyerID,
		Status:         l.Status,
		HeartsCount:    l.HeartsCount,
		Photos:         l.Photos,
		Version:        l.Version,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	if d == nil {
		return nil
	}
	return &domain.Listing{
		ID:             d.ID.Hex(),
		SellerID:       d.SellerID,
		Title:          d.Title,
		Description:    d.Description,
		Category:       d.Category,
		Condition:      d.Condition,
		PricingMode:    d.PricingMode,
		BasePrice:      d.BasePrice,
		CurrentBid:     d.CurrentBid,
		HighBidderID:   d.HighBidderID,
		PendingBuyerID: d.PendingBuyerID,
		Status:         d.Status,
		HeartsCount:    d.HeartsCount,
		Photos:         d.Photos,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	listings := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, toDomainListing(doc))
	}
	return listings
}

func toDomainBid(d *bidDocument) *domain.Bid {
	if d == nil {
		return nil
	}
	return &domain.Bid{
		ID:        d.ID,
		ListingID: d.ListingID,
		BidderID:  d.BidderID,
		Amount:    d.Amount,
		CreatedAt: d.CreatedAt,
	}
}

func toDomainFavorite(d *favoriteDocument) *domain.Favorite {
	if d == nil {
		return nil
	}
	return &domain.Favorite{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ListingID: d.ListingID,
		CreatedAt: d.CreatedAt,
	}
}
