package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fixly/internal/jobs/normalizer"
)

// LegacyCollectionName holds the pre-split customer documents: one document
// per customer phone, bookings nested in an array (or a single booking at
// the root for the oldest records).
const LegacyCollectionName = "Customers"

// RunBackfill re-homes bookings from the legacy nested customer documents
// into the flat Bookings collection. Inserts use $setOnInsert keyed by
// booking_id, so a record that already exists in the flat collection is
// never touched and the backfill is safe to re-run.
func RunBackfill(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	legacy := db.Collection(LegacyCollectionName)
	bookings := db.Collection("Bookings")

	cursor, err := legacy.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("reading legacy customers: %w", err)
	}
	defer cursor.Close(ctx)

	var migrated, skipped int
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("decoding legacy document: %w", err)
		}

		jobs, errs := normalizer.NormalizeDocument(doc)
		for _, normErr := range errs {
			skipped++
			fmt.Printf("⚠️ Skipping malformed legacy booking: %v\n", normErr)
		}

		for _, job := range jobs {
			record := normalizer.ToBooking(job)
			update := bson.M{"$setOnInsert": record}
			opts := options.Update().SetUpsert(true)
			if _, err := bookings.UpdateOne(ctx, bson.M{"booking_id": record.BookingID}, update, opts); err != nil {
				return fmt.Errorf("backfilling booking %s: %w", record.BookingID, err)
			}
			migrated++
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterating legacy customers: %w", err)
	}

	fmt.Printf("📦 Backfill complete: %d bookings migrated, %d malformed entries skipped\n", migrated, skipped)
	return nil
}
