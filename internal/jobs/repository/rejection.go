package repository

import (
	"context"
	"fmt"
	"time"

	"fixly/pkg/config"
	"fixly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const RejectionCollectionName = "Job_rejections"

// RejectionRepository stores per-provider, per-booking suppressions. The
// deterministic _id makes a repeated reject a duplicate-key insert, which is
// tolerated, so rejecting twice is a no-op.
type RejectionRepository interface {
	Create(ctx context.Context, rejection *model.JobRejection) error
	FindBookingIDsForProvider(ctx context.Context, providerID string) ([]string, error)
	DeleteForBooking(ctx context.Context, bookingID string) error
}

type mongoRejectionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRejectionRepository(cfg *config.Config) RejectionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRejectionRepository{
		cfg:        cfg,
		collection: db.Collection(RejectionCollectionName),
	}
}

// RejectionID builds the deterministic suppression key.
func RejectionID(bookingID string, providerID string) string {
	return fmt.Sprintf("reject_%s_%s", bookingID, providerID)
}

func (r *mongoRejectionRepository) Create(ctx context.Context, rejection *model.JobRejection) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	rejection.ID = RejectionID(rejection.BookingID, rejection.ProviderID)
	rejection.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := r.collection.InsertOne(ctx, rejection)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to create rejection: %w", err)
	}
	return nil
}

func (r *mongoRejectionRepository) FindBookingIDsForProvider(ctx context.Context, providerID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	// The TTL index lags expiry by up to a minute; filtering on expires_at
	// keeps just-expired suppressions out of the feed.
	filter := bson.M{
		"provider_id": providerID,
		"expires_at":  bson.M{"$gt": time.Now()},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find rejections: %w", err)
	}
	defer cursor.Close(ctx)

	var rejections []*model.JobRejection
	if err = cursor.All(ctx, &rejections); err != nil {
		return nil, fmt.Errorf("failed to decode rejections: %w", err)
	}

	bookingIDs := make([]string, 0, len(rejections))
	for _, rejection := range rejections {
		bookingIDs = append(bookingIDs, rejection.BookingID)
	}
	return bookingIDs, nil
}

func (r *mongoRejectionRepository) DeleteForBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to delete rejections: %w", err)
	}
	return nil
}
