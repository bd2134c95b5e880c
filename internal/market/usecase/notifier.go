package usecase

import (
	"context"

	"github.com/campustrade/market-service/internal/market/domain"
)

// Notifier is the outbound alerting channel. It is best effort: usecases
// log failures and never let them block or roll back a transition.
type Notifier interface {
	// PurchaseRequested alerts the seller that buyerID wants the listing.
	PurchaseRequested(ctx context.Context, listing *domain.Listing, buyerID string) error

	// BiddingClosed alerts the winning bidder that the seller closed the
	// auction in their favor.
	BiddingClosed(ctx context.Context, listing *domain.Listing, winnerID string) error
}
