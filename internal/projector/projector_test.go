package projector

import (
	"context"
	"errors"
	"testing"
	"time"

	"fixly/internal/jobs/repository"
	"fixly/pkg/config"
	mongotx "fixly/pkg/db/mongo"
	"fixly/pkg/kafka"
	"fixly/pkg/logger"
	"fixly/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockInboxRepository struct {
	upsertFunc           func(ctx context.Context, entry *model.InboxEntry) error
	findForProviderFunc  func(ctx context.Context, providerID string) ([]*model.InboxEntry, error)
	deleteForBookingFunc func(ctx context.Context, bookingID string) error
}

func (m *mockInboxRepository) Upsert(ctx context.Context, entry *model.InboxEntry) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, entry)
	}
	return nil
}

func (m *mockInboxRepository) FindForProvider(ctx context.Context, providerID string) ([]*model.InboxEntry, error) {
	if m.findForProviderFunc != nil {
		return m.findForProviderFunc(ctx, providerID)
	}
	return nil, nil
}

func (m *mockInboxRepository) DeleteForBooking(ctx context.Context, bookingID string) error {
	if m.deleteForBookingFunc != nil {
		return m.deleteForBookingFunc(ctx, bookingID)
	}
	return nil
}

// recordingTxManager runs the function directly and counts invocations.
type recordingTxManager struct {
	calls int
}

func (m *recordingTxManager) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.calls++
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockRejectionRepository struct {
	deleteForBookingFunc func(ctx context.Context, bookingID string) error
}

func (m *mockRejectionRepository) Create(ctx context.Context, rejection *model.JobRejection) error {
	return nil
}

func (m *mockRejectionRepository) FindBookingIDsForProvider(ctx context.Context, providerID string) ([]string, error) {
	return nil, nil
}

func (m *mockRejectionRepository) DeleteForBooking(ctx context.Context, bookingID string) error {
	if m.deleteForBookingFunc != nil {
		return m.deleteForBookingFunc(ctx, bookingID)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		InboxEntryTTL: 2 * time.Hour,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func bookingCreatedMessage(t *testing.T, event kafka.BookingCreatedEvent) kafka.Message {
	t.Helper()
	return kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(kafka.EventBookingCreated).
		Build()
}

func TestHandleBookingEvent_FansOutPerProvider(t *testing.T) {
	var entries []*model.InboxEntry
	inbox := &mockInboxRepository{
		upsertFunc: func(ctx context.Context, entry *model.InboxEntry) error {
			entries = append(entries, entry)
			return nil
		},
	}
	p := NewProjector(inbox, &mockRejectionRepository{}, &recordingTxManager{}, testConfig())

	lat, lng := 12.98, 77.60
	msg := bookingCreatedMessage(t, kafka.BookingCreatedEvent{
		BookingID:           "bkg_1",
		CustomerPhone:       "+919876543210",
		ServiceName:         "plumbing",
		TotalPrice:          499,
		Latitude:            &lat,
		Longitude:           &lng,
		NotifiedProviderIDs: []string{"prv_1", "prv_2", "prv_3"},
		CreatedAt:           time.Now(),
	})

	if err := p.HandleBookingEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleBookingEvent: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("got %d inbox entries, want 3", len(entries))
	}
	for i, want := range []string{"prv_1", "prv_2", "prv_3"} {
		if entries[i].ProviderID != want {
			t.Errorf("entry %d provider = %q, want %q", i, entries[i].ProviderID, want)
		}
		if entries[i].ID != repository.InboxEntryID("bkg_1", want) {
			t.Errorf("entry %d id = %q", i, entries[i].ID)
		}
		if entries[i].ExpiresAt.Before(time.Now().Add(time.Hour)) {
			t.Errorf("entry %d expires too soon: %v", i, entries[i].ExpiresAt)
		}
		if entries[i].Coordinates == nil || entries[i].Coordinates.Latitude != lat {
			t.Errorf("entry %d coordinates not carried over", i)
		}
	}
}

func TestHandleBookingEvent_IgnoresOtherEventTypes(t *testing.T) {
	inbox := &mockInboxRepository{
		upsertFunc: func(ctx context.Context, entry *model.InboxEntry) error {
			t.Error("Upsert must not be called for non-created events")
			return nil
		},
	}
	p := NewProjector(inbox, &mockRejectionRepository{}, &recordingTxManager{}, testConfig())

	msg := kafka.NewMessage().
		WithKey("bkg_1").
		WithValue(map[string]string{"booking_id": "bkg_1"}).
		WithEventType("booking.updated").
		Build()

	if err := p.HandleBookingEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleBookingEvent: %v", err)
	}
}

func TestHandleBookingEvent_MalformedPayload(t *testing.T) {
	p := NewProjector(&mockInboxRepository{}, &mockRejectionRepository{}, &recordingTxManager{}, testConfig())

	msg := kafka.NewMessage().
		WithKey("bkg_1").
		WithRawValue([]byte("{not json")).
		WithEventType(kafka.EventBookingCreated).
		Build()

	if err := p.HandleBookingEvent(context.Background(), msg); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestHandleJobEvent_ClearsProjections(t *testing.T) {
	var inboxDeleted, rejectionsDeleted string
	inbox := &mockInboxRepository{
		deleteForBookingFunc: func(ctx context.Context, bookingID string) error {
			inboxDeleted = bookingID
			return nil
		},
	}
	rejections := &mockRejectionRepository{
		deleteForBookingFunc: func(ctx context.Context, bookingID string) error {
			rejectionsDeleted = bookingID
			return nil
		},
	}
	tx := &recordingTxManager{}
	p := NewProjector(inbox, rejections, tx, testConfig())

	msg := kafka.NewMessage().
		WithKey("bkg_1").
		WithValue(kafka.JobLifecycleEvent{
			BookingID:  "bkg_1",
			ProviderID: "prv_1",
			FromStatus: "pending",
			ToStatus:   "accepted",
			OccurredAt: time.Now(),
		}).
		WithEventType(kafka.EventJobAccepted).
		Build()

	if err := p.HandleJobEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleJobEvent: %v", err)
	}
	if inboxDeleted != "bkg_1" || rejectionsDeleted != "bkg_1" {
		t.Errorf("deleted inbox=%q rejections=%q, want bkg_1 for both", inboxDeleted, rejectionsDeleted)
	}
	if tx.calls != 1 {
		t.Errorf("transaction invocations = %d, want both deletes inside one", tx.calls)
	}
}

func TestHandleJobEvent_IgnoresOTPAndRejectionEvents(t *testing.T) {
	inbox := &mockInboxRepository{
		deleteForBookingFunc: func(ctx context.Context, bookingID string) error {
			t.Error("DeleteForBooking must not run for otp/rejected events")
			return nil
		},
	}
	p := NewProjector(inbox, &mockRejectionRepository{}, &recordingTxManager{}, testConfig())

	for _, eventType := range []string{kafka.EventJobOTPGenerated, kafka.EventJobRejected} {
		msg := kafka.NewMessage().
			WithKey("bkg_1").
			WithValue(kafka.JobLifecycleEvent{BookingID: "bkg_1", ToStatus: "pending"}).
			WithEventType(eventType).
			Build()
		if err := p.HandleJobEvent(context.Background(), msg); err != nil {
			t.Fatalf("HandleJobEvent(%s): %v", eventType, err)
		}
	}
}

func TestHandleJobEvent_AbortsTeardownOnFirstFailure(t *testing.T) {
	inbox := &mockInboxRepository{
		deleteForBookingFunc: func(ctx context.Context, bookingID string) error {
			return errors.New("connection reset")
		},
	}
	rejections := &mockRejectionRepository{
		deleteForBookingFunc: func(ctx context.Context, bookingID string) error {
			t.Error("rejection delete must not run after the inbox delete fails")
			return nil
		},
	}
	p := NewProjector(inbox, rejections, &recordingTxManager{}, testConfig())

	msg := kafka.NewMessage().
		WithKey("bkg_1").
		WithValue(kafka.JobLifecycleEvent{BookingID: "bkg_1", ToStatus: "accepted"}).
		WithEventType(kafka.EventJobAccepted).
		Build()

	if err := p.HandleJobEvent(context.Background(), msg); err == nil {
		t.Fatal("expected teardown failure to surface for redelivery")
	}
}
