package projector

import (
	"context"
	"fmt"
	"time"

	"fixly/internal/jobs/repository"
	"fixly/pkg/config"
	mongotx "fixly/pkg/db/mongo"
	"fixly/pkg/kafka"
	"fixly/pkg/logger"
	"fixly/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Projector maintains the provider inbox collection from the event bus. It
// fans booking.created events out into one inbox entry per notified provider
// and clears inbox entries and rejection suppressions once a booking leaves
// pending. The inbox is a read-side cache only; handlers always re-validate
// against the booking store before acting on it.
type Projector struct {
	inbox      repository.InboxRepository
	rejections repository.RejectionRepository
	tx         mongotx.TransactionManager
	cfg        *config.Config
	log        *logger.Logger
}

func NewProjector(inbox repository.InboxRepository, rejections repository.RejectionRepository, tx mongotx.TransactionManager, cfg *config.Config) *Projector {
	return &Projector{
		inbox:      inbox,
		rejections: rejections,
		tx:         tx,
		cfg:        cfg,
		log:        cfg.Log,
	}
}

// HandleBookingEvent processes messages from the booking-events topic.
func (p *Projector) HandleBookingEvent(ctx context.Context, msg kafka.Message) error {
	eventType := msg.Headers[kafka.HeaderEventType]
	if eventType != kafka.EventBookingCreated {
		p.log.Debug("Skipping booking event", "event_type", eventType, "key", msg.Key)
		return nil
	}

	var event kafka.BookingCreatedEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("decoding booking.created event: %w", err)
	}
	if event.BookingID == "" {
		return fmt.Errorf("booking.created event without booking_id (key %q)", msg.Key)
	}

	now := time.Now()
	expiresAt := now.Add(p.cfg.InboxEntryTTL)

	var coords *model.Coordinates
	if event.Latitude != nil && event.Longitude != nil {
		coords = &model.Coordinates{Latitude: *event.Latitude, Longitude: *event.Longitude}
	}

	for _, providerID := range event.NotifiedProviderIDs {
		entry := &model.InboxEntry{
			ID:            repository.InboxEntryID(event.BookingID, providerID),
			ProviderID:    providerID,
			BookingID:     event.BookingID,
			CustomerPhone: event.CustomerPhone,
			ServiceName:   event.ServiceName,
			TotalPrice:    event.TotalPrice,
			Address:       event.Address,
			Coordinates:   coords,
			ExpiresAt:     expiresAt,
			CreatedAt:     now,
		}
		if err := p.inbox.Upsert(ctx, entry); err != nil {
			// Returning the error sends the whole message back
			// through retry; Upsert is idempotent so replays of
			// already-written providers are harmless.
			return fmt.Errorf("upserting inbox entry for provider %s: %w", providerID, err)
		}
	}

	p.log.Info("Projected booking into provider inboxes",
		"booking_id", event.BookingID,
		"providers", len(event.NotifiedProviderIDs),
	)
	return nil
}

// HandleJobEvent processes messages from the job-events topic.
func (p *Projector) HandleJobEvent(ctx context.Context, msg kafka.Message) error {
	eventType := msg.Headers[kafka.HeaderEventType]

	switch eventType {
	case kafka.EventJobAccepted, kafka.EventJobStatusChanged, kafka.EventJobCompleted:
	default:
		// otp_generated and rejected carry no inbox consequences;
		// rejection suppression is written synchronously by the jobs
		// service.
		return nil
	}

	var event kafka.JobLifecycleEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("decoding job lifecycle event: %w", err)
	}
	if event.BookingID == "" {
		return fmt.Errorf("job lifecycle event without booking_id (key %q)", msg.Key)
	}

	// Both projection collections clear in one transaction; a partial
	// teardown is never observable between the two deletes.
	err := p.tx.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := p.inbox.DeleteForBooking(sessCtx, event.BookingID); err != nil {
			return fmt.Errorf("deleting inbox entries for booking %s: %w", event.BookingID, err)
		}
		if err := p.rejections.DeleteForBooking(sessCtx, event.BookingID); err != nil {
			return fmt.Errorf("deleting rejections for booking %s: %w", event.BookingID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.log.Info("Cleared projections for booking",
		"booking_id", event.BookingID,
		"event_type", eventType,
		"to_status", event.ToStatus,
	)
	return nil
}
