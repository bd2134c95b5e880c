package domain

import "time"

type ListingStatus string

const (
	StatusAvailable ListingStatus = "available"
	StatusPending   ListingStatus = "pending"
	StatusSold      ListingStatus = "sold"
)

type PricingMode string

const (
	PricingFixed   PricingMode = "fixed"
	PricingAuction PricingMode = "auction"
)

// Listing is a sellable item record. Status and CurrentBid are the only
// fields mutated outside of seller edits; every accepted mutation bumps
// Version, which repositories use as a compare-and-swap token.
type Listing struct {
	ID             string
	SellerID       string
	Title          string
	Description    string
	Category       string
	Condition      string
	PricingMode    PricingMode
	BasePrice      float64
	CurrentBid     *float64
	HighBidderID   string
	PendingBuyerID string
	Status         ListingStatus
	HeartsCount    int64
	Photos         []string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CurrentHigh is the amount a new bid must strictly exceed.
func (l *Listing) CurrentHigh() float64 {
	if l.CurrentBid != nil {
		return *l.CurrentBid
	}
	return l.BasePrice
}

func (l *Listing) IsAuction() bool {
	return l.PricingMode == PricingAuction
}

// Bid is an immutable offer against an auction listing. Bids are only
// created by the auction usecase and only removed by listing cascade.
type Bid struct {
	ID        string
	ListingID string
	BidderID  string
	Amount    float64
	CreatedAt time.Time
}

type Favorite struct {
	ID        string
	UserID    string
	ListingID string
	CreatedAt time.Time
}

// Filter narrows listing browse results. An empty Status means the
// caller did not ask for anything specific; the usecase then restricts
// browsing to available listings.
type Filter struct {
	Status   ListingStatus
	Category string
	MaxPrice float64
	SellerID string
	Page     int64
	Limit    int64
}
