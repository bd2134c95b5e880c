package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campustrade/market-service/internal/market/domain"
)

type ListingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{collection: db.Collection(listingsCollection)}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("insert returned unexpected id type")
	}
	listing.ID = oid.Hex()
	return nil
}

// Update is a compare-and-swap on the version field. A write whose
// version no longer matches the stored document reports a state
// conflict so the caller can refetch and retry.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1

	res, err := r.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", listing.ID, err)
	}
	if res.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("%w: listing %s", domain.ErrNotFound, listing.ID)
		}
		return fmt.Errorf("%w: listing %s was modified concurrently", domain.ErrStateConflict, listing.ID)
	}
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}

	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find listing %s: %w", id, err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.MaxPrice > 0 {
		query["base_price"] = bson.M{"$lte": filter.MaxPrice}
	}
	if filter.SellerID != "" {
		query["seller_id"] = filter.SellerID
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
		if filter.Page > 1 {
			findOptions.SetSkip((filter.Page - 1) * filter.Limit)
		}
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to browse listings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return toDomainListings(docs), nil
}

func (r *ListingRepository) FindHot(ctx context.Context, minHearts, limit int64) ([]*domain.Listing, error) {
	query := bson.M{
		"status":       domain.StatusAvailable,
		"hearts_count": bson.M{"$gte": minHearts},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "hearts_count", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find hot listings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode hot listings: %w", err)
	}
	return toDomainListings(docs), nil
}

func (r *ListingRepository) AdjustHearts(ctx context.Context, id string, delta int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	res, err := r.collection.UpdateByID(ctx, oid, bson.M{"$inc": bson.M{"hearts_count": delta}})
	if err != nil {
		return fmt.Errorf("failed to adjust hearts on listing %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	return nil
}
