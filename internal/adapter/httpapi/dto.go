package httpapi

import (
	"time"

	"github.com/campustrade/market-service/internal/market/domain"
)

type createListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	PricingMode string   `json:"pricing_mode"`
	BasePrice   float64  `json:"base_price"`
	Photos      []string `json:"photos,omitempty"`
}

type updateListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	Price       *float64 `json:"price,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type placeBidRequest struct {
	Amount float64 `json:"amount"`
}

type listingResponse struct {
	ID             string    `json:"id"`
	SellerID       string    `json:"seller_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	Condition      string    `json:"condition,omitempty"`
	PricingMode    string    `json:"pricing_mode"`
	BasePrice      float64   `json:"base_price"`
	CurrentBid     *float64  `json:"current_bid,omitempty"`
	PendingBuyerID string    `json:"pending_buyer_id,omitempty"`
	Status         string    `json:"status"`
	HeartsCount    int64     `json:"hearts_count"`
	Photos         []string  `json:"photos,omitempty"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type heartStatusResponse struct {
	Hearted     bool  `json:"hearted"`
	HeartsCount int64 `json:"hearts_count"`
	Hot         bool  `json:"hot"`
}

type bidResponse struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func toListingResponse(l *domain.Listing) *listingResponse {
	if l == nil {
		return nil
	}
	return &listingResponse{
		ID:             l.ID,
		SellerID:       l.SellerID,
		Title:          l.Title,
		Description:    l.Description,
		Category:       l.Category,
		Condition:      l.Condition,
		PricingMode:    string(l.PricingMode),
		BasePrice:      l.BasePrice,
		CurrentBid:     l.CurrentBid,
		PendingBuyerID: l.PendingBuyerID,
		Status:         string(l.Status),
		HeartsCount:    l.HeartsCount,
		Photos:         l.Photos,
		Version:        l.Version,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func toListingResponses(listings []*domain.Listing) []*listingResponse {
	out := make([]*listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingResponse(l))
	}
	return out
}

func toBidResponses(bids []*domain.Bid) []*bidResponse {
	out := make([]*bidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, &bidResponse{
			ID:        b.ID,
			ListingID: b.ListingID,
			BidderID:  b.BidderID,
			Amount:    b.Amount,
			CreatedAt: b.CreatedAt,
		})
	}
	return out
}
