package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campustrade/market-service/internal/market/domain"
)

type BidRepository struct {
	collection *mongo.Collection
}

func NewBidRepository(db *mongo.Database) *BidRepository {
	return &BidRepository{collection: db.Collection(bidsCollection)}
}

func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	doc := bidDocument{
		ID:        bid.ID,
		ListingID: bid.ListingID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert bid for listing %s: %w", bid.ListingID, err)
	}
	return nil
}

func (r *BidRepository) FindByListingID(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"listing_id": listingID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find bids for listing %s: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	var docs []*bidDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bids for listing %s: %w", listingID, err)
	}

	bids := make([]*domain.Bid, 0, len(docs))
	for _, doc := range docs {
		bids = append(bids, toDomainBid(doc))
	}
	return bids, nil
}

func (r *BidRepository) DeleteByListingID(ctx context.Context, listingID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete bids for listing %s: %w", listingID, err)
	}
	return res.DeletedCount, nil
}
