package repository

import (
	"context"
	"fmt"
	"time"

	"fixly/pkg/config"
	"fixly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const InboxCollectionName = "Provider_inbox"

// InboxRepository stores the denormalized per-provider pending-job pointers
// maintained by the projector. Entries carry a TTL and are pruned when the
// booking leaves pending.
type InboxRepository interface {
	Upsert(ctx context.Context, entry *model.InboxEntry) error
	FindForProvider(ctx context.Context, providerID string) ([]*model.InboxEntry, error)
	DeleteForBooking(ctx context.Context, bookingID string) error
}

type mongoInboxRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInboxRepository(cfg *config.Config) InboxRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInboxRepository{
		cfg:        cfg,
		collection: db.Collection(InboxCollectionName),
	}
}

// InboxEntryID builds the deterministic entry key so event redelivery
// overwrites instead of duplicating.
func InboxEntryID(bookingID string, providerID string) string {
	return fmt.Sprintf("inbox_%s_%s", bookingID, providerID)
}

func (r *mongoInboxRepository) Upsert(ctx context.Context, entry *model.InboxEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	entry.ID = InboxEntryID(entry.BookingID, entry.ProviderID)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert inbox entry: %w", err)
	}
	return nil
}

func (r *mongoInboxRepository) FindForProvider(ctx context.Context, providerID string) ([]*model.InboxEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"expires_at":  bson.M{"$gt": time.Now()},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find inbox entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.InboxEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode inbox entries: %w", err)
	}
	return entries, nil
}

func (r *mongoInboxRepository) DeleteForBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to delete inbox entries: %w", err)
	}
	return nil
}
