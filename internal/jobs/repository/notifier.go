package repository

import (
	"context"

	"fixly/pkg/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChangeNotifier surfaces booking collection changes as plain signals. Feeds
// re-query the store on every signal instead of trusting event payloads, so
// the signal carries no data.
type ChangeNotifier interface {
	// WatchChanges opens a change stream and pumps one signal per change
	// until ctx is cancelled. Stream failures are delivered on the error
	// channel and close both channels; the caller decides whether to
	// reopen.
	WatchChanges(ctx context.Context) (<-chan struct{}, <-chan error, error)
}

type mongoChangeNotifier struct {
	collection *mongo.Collection
}

func NewMongoChangeNotifier(cfg *config.Config) ChangeNotifier {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoChangeNotifier{
		collection: db.Collection(CollectionName),
	}
}

func (n *mongoChangeNotifier) WatchChanges(ctx context.Context) (<-chan struct{}, <-chan error, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := n.collection.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return nil, nil, err
	}

	events := make(chan struct{})
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			select {
			case events <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()

	return events, errs, nil
}
