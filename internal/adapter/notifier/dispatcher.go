// Package notifier implements the outbound alerting channel: an event
// on the message bus for downstream consumers plus a best-effort mail
// to the affected user. Delivery retries are owned by those consumers;
// a failure here never reaches the caller of the triggering operation.
package notifier

import (
	"context"
	"fmt"

	"github.com/campustrade/market-service/internal/market/domain"
	"github.com/campustrade/market-service/internal/platform/logger"
)

const (
	SubjectPurchaseRequested = "notification.purchase_requested"
	SubjectBiddingClosed     = "notification.bidding_closed"
)

// EventPublisher is satisfied by the NATS publisher adapter.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// Directory resolves an opaque user identifier to a mail address. The
// campus SSO hands out NetIDs, so the default directory appends the
// campus mail domain.
type Directory interface {
	EmailFor(userID string) string
}

type DomainDirectory struct {
	Domain string
}

func (d DomainDirectory) EmailFor(userID string) string {
	return userID + "@" + d.Domain
}

type purchaseRequestedEvent struct {
	ListingID string `json:"listing_id"`
	Title     string `json:"title"`
	SellerID  string `json:"seller_id"`
	BuyerID   string `json:"buyer_id"`
}

type biddingClosedEvent struct {
	ListingID string  `json:"listing_id"`
	Title     string  `json:"title"`
	SellerID  string  `json:"seller_id"`
	WinnerID  string  `json:"winner_id"`
	Amount    float64 `json:"amount"`
}

type Dispatcher struct {
	events    EventPublisher
	mailer    Mailer
	directory Directory
	log       logger.Logger
}

// NewDispatcher builds the dispatcher. mailer and directory may be nil,
// in which case only bus events are emitted.
func NewDispatcher(events EventPublisher, mailer Mailer, directory Directory, log logger.Logger) *Dispatcher {
	return &Dispatcher{events: events, mailer: mailer, directory: directory, log: log}
}

func (d *Dispatcher) PurchaseRequested(ctx context.Context, listing *domain.Listing, buyerID string) error {
	if err := d.events.Publish(ctx, SubjectPurchaseRequested, purchaseRequestedEvent{
		ListingID: listing.ID,
		Title:     listing.Title,
		SellerID:  listing.SellerID,
		BuyerID:   buyerID,
	}); err != nil {
		return err
	}

	d.mail(listing.SellerID,
		"Purchase request for "+listing.Title,
		fmt.Sprintf("A buyer wants to purchase your listing %q. Open the app to confirm the sale.", listing.Title))
	return nil
}

func (d *Dispatcher) BiddingClosed(ctx context.Context, listing *domain.Listing, winnerID string) error {
	amount := listing.CurrentHigh()
	if err := d.events.Publish(ctx, SubjectBiddingClosed, biddingClosedEvent{
		ListingID: listing.ID,
		Title:     listing.Title,
		SellerID:  listing.SellerID,
		WinnerID:  winnerID,
		Amount:    amount,
	}); err != nil {
		return err
	}

	d.mail(winnerID,
		"You won the auction for "+listing.Title,
		fmt.Sprintf("Bidding on %q closed at %.2f in your favor. The seller will contact you to finish the sale.", listing.Title, amount))
	return nil
}

// mail delivers asynchronously; SMTP latency must not sit inside the
// listing's critical section.
func (d *Dispatcher) mail(userID, subject, body string) {
	if d.mailer == nil || d.directory == nil {
		return
	}
	to := d.directory.EmailFor(userID)
	go func() {
		if err := d.mailer.Send(to, subject, body); err != nil {
			d.log.Errorf("notification mail to %s failed: %v", to, err)
		}
	}()
}
