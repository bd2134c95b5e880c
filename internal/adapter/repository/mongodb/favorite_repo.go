package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campustrade/market-service/internal/market/domain"
)

type FavoriteRepository struct {
	collection *mongo.Collection
}

// NewFavoriteRepository relies on the unique (user_id, listing_id) index
// created by EnsureIndexes to keep membership a set.
func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{collection: db.Collection(favoritesCollection)}
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) (bool, error) {
	filter := bson.M{"user_id": favorite.UserID, "listing_id": favorite.ListingID}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":    favorite.UserID,
		"listing_id": favorite.ListingID,
		"created_at": favorite.CreatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// A duplicate-key race between the filter check and the upsert
		// means the membership already exists.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to upsert favorite: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

func (r *FavoriteRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites for listing %s: %w", listingID, err)
	}
	return count, nil
}

func (r *FavoriteRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find favorites for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var docs []*favoriteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode favorites for user %s: %w", userID, err)
	}

	favorites := make([]*domain.Favorite, 0, len(docs))
	for _, doc := range docs {
		favorites = append(favorites, toDomainFavorite(doc))
	}
	return favorites, nil
}

func (r *FavoriteRepository) DeleteByListingID(ctx context.Context, listingID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete favorites for listing %s: %w", listingID, err)
	}
	return res.DeletedCount, nil
}
