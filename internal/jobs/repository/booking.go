package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	jobserrors "fixly/internal/jobs/errors"
	"fixly/pkg/config"
	"fixly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

// BookingRepository is the authoritative store for booking records. All
// state-changing writes are conditional updates whose filters encode the
// legality of the change, so concurrent writers race on the database rather
// than on in-process state.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error)
	FindPendingForProvider(ctx context.Context, providerID string, excludedBookingIDs []string) ([]*model.Booking, error)
	FindOngoingForProvider(ctx context.Context, providerID string) ([]*model.Booking, error)
	FindCompletedForProvider(ctx context.Context, providerID string, limit int, before *time.Time, beforeBookingID string) ([]*model.Booking, error)
	AcceptBooking(ctx context.Context, bookingID string, providerID string, now time.Time) (*model.Booking, error)
	AdvanceStatus(ctx context.Context, bookingID string, providerID string, from model.JobStatus, to model.JobStatus, now time.Time) (*model.Booking, error)
	SetPaymentPending(ctx context.Context, bookingID string, providerID string, otp string, now time.Time) (*model.Booking, error)
	RegenerateOTP(ctx context.Context, bookingID string, providerID string, otp string, now time.Time) (*model.Booking, error)
	CompleteWithOTP(ctx context.Context, bookingID string, providerID string, otp string, validityWindow time.Duration, now time.Time) (*model.Booking, error)
	Watch(ctx context.Context) (*mongo.ChangeStream, error)
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function, as wrapping a SessionContext would
// break transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	booking.ID = booking.BookingID

	_, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, jobserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindPendingForProvider(ctx context.Context, providerID string, excludedBookingIDs []string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"status":                model.StatusPending,
		"notified_provider_ids": providerID,
	}
	if len(excludedBookingIDs) > 0 {
		filter["booking_id"] = bson.M{"$nin": excludedBookingIDs}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode pending bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) FindOngoingForProvider(ctx context.Context, providerID string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"status": bson.M{"$in": []model.JobStatus{
			model.StatusAccepted,
			model.StatusArrived,
			model.StatusInProgress,
			model.StatusPaymentPending,
		}},
	}

	opts := options.Find().SetSort(bson.D{{Key: "accepted_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ongoing bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode ongoing bookings: %w", err)
	}
	return bookings, nil
}

// FindCompletedForProvider pages through completed bookings newest first.
// The cursor position is (completed_at, booking_id) of the last row of the
// previous page; booking_id breaks ties between bookings completed in the
// same millisecond.
func (r *mongoBookingRepository) FindCompletedForProvider(ctx context.Context, providerID string, limit int, before *time.Time, beforeBookingID string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"status":      model.StatusCompleted,
	}
	if before != nil {
		filter["$or"] = bson.A{
			bson.M{"completed_at": bson.M{"$lt": before}},
			bson.M{
				"completed_at": before,
				"booking_id":   bson.M{"$lt": beforeBookingID},
			},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}, {Key: "booking_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find completed bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode completed bookings: %w", err)
	}
	return bookings, nil
}

// AcceptBooking is the single compare-and-swap of the acceptance race. The
// filter admits exactly one winner: the booking must still be pending and the
// provider must be in the notified set. Losers get a classified error from a
// single re-read.
func (r *mongoBookingRepository) AcceptBooking(ctx context.Context, bookingID string, providerID string, now time.Time) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"booking_id":            bookingID,
		"status":                model.StatusPending,
		"notified_provider_ids": providerID,
	}
	update := bson.M{
		"$set": bson.M{
			"status":      model.StatusAccepted,
			"provider_id": providerID,
			"accepted_at": now,
		},
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to accept booking: %w", err)
	}

	return r.classifyAcceptFailure(ctx, bookingID, providerID)
}

func (r *mongoBookingRepository) classifyAcceptFailure(ctx context.Context, bookingID string, providerID string) (*model.Booking, error) {
	current, err := r.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Winner retrying its own accept is idempotent.
	if current.Status != model.StatusPending && current.ProviderID == providerID {
		return current, nil
	}
	if current.Status != model.StatusPending {
		return nil, jobserrors.ErrAlreadyTaken
	}
	for _, id := range current.NotifiedProviderIDs {
		if id == providerID {
			// Pending and notified but the CAS missed: another accept
			// landed between our update and the re-read.
			return nil, jobserrors.ErrAlreadyTaken
		}
	}
	return nil, jobserrors.ErrNotEligible
}

// AdvanceStatus applies one forward lifecycle step. The filter pins the
// expected current status, so a concurrent transition from another device
// makes this a no-match instead of a double-apply.
func (r *mongoBookingRepository) AdvanceStatus(ctx context.Context, bookingID string, providerID string, from model.JobStatus, to model.JobStatus, now time.Time) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	set := bson.M{"status": to}
	switch to {
	case model.StatusArrived:
		set["arrived_at"] = now
	case model.StatusInProgress:
		set["service_started_at"] = now
	}

	filter := bson.M{
		"booking_id":  bookingID,
		"provider_id": providerID,
		"status":      from,
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to advance booking status: %w", err)
	}

	return nil, r.classifyTransitionFailure(ctx, bookingID, providerID)
}

func (r *mongoBookingRepository) classifyTransitionFailure(ctx context.Context, bookingID string, providerID string) error {
	current, err := r.FindByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if current.ProviderID != providerID {
		return jobserrors.ErrNotEligible
	}
	return jobserrors.ErrInvalidTransition
}

// SetPaymentPending moves in_progress to payment_pending and arms the
// completion code in the same write.
func (r *mongoBookingRepository) SetPaymentPending(ctx context.Context, bookingID string, providerID string, otp string, now time.Time) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"booking_id":  bookingID,
		"provider_id": providerID,
		"status":      model.StatusInProgress,
	}
	update := bson.M{
		"$set": bson.M{
			"status":                   model.StatusPaymentPending,
			"payment.status":           "pending",
			"payment.completion_otp":   otp,
			"payment.otp_generated_at": now,
		},
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to set payment pending: %w", err)
	}

	return nil, r.classifyTransitionFailure(ctx, bookingID, providerID)
}

// RegenerateOTP replaces an expired completion code without moving status.
func (r *mongoBookingRepository) RegenerateOTP(ctx context.Context, bookingID string, providerID string, otp string, now time.Time) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"booking_id":  bookingID,
		"provider_id": providerID,
		"status":      model.StatusPaymentPending,
	}
	update := bson.M{
		"$set": bson.M{
			"payment.completion_otp":   otp,
			"payment.otp_generated_at": now,
		},
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to regenerate completion code: %w", err)
	}

	return nil, r.classifyTransitionFailure(ctx, bookingID, providerID)
}

// CompleteWithOTP is the completion handshake: code match, freshness, and the
// payment_pending -> completed transition are one conditional update. The
// no-match path re-reads once to tell an expired code from a wrong one from
// an illegal transition.
func (r *mongoBookingRepository) CompleteWithOTP(ctx context.Context, bookingID string, providerID string, otp string, validityWindow time.Duration, now time.Time) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"booking_id":               bookingID,
		"provider_id":              providerID,
		"status":                   model.StatusPaymentPending,
		"payment.completion_otp":   otp,
		"payment.otp_generated_at": bson.M{"$gte": now.Add(-validityWindow)},
	}
	update := bson.M{
		"$set": bson.M{
			"status":         model.StatusCompleted,
			"completed_at":   now,
			"payment.status": "paid",
		},
		"$unset": bson.M{"payment.completion_otp": ""},
		"$inc":   bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to complete booking: %w", err)
	}

	return nil, r.classifyCompletionFailure(ctx, bookingID, providerID, otp, validityWindow, now)
}

func (r *mongoBookingRepository) classifyCompletionFailure(ctx context.Context, bookingID string, providerID string, otp string, validityWindow time.Duration, now time.Time) error {
	current, err := r.FindByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if current.ProviderID != providerID {
		return jobserrors.ErrNotEligible
	}
	if current.Status != model.StatusPaymentPending {
		return jobserrors.ErrInvalidTransition
	}
	if current.Payment.OTPGeneratedAt == nil || now.Sub(*current.Payment.OTPGeneratedAt) > validityWindow {
		return jobserrors.ErrOtpExpired
	}
	if current.Payment.CompletionOTP != otp {
		return jobserrors.ErrOtpMismatch
	}
	// Filter missed but the re-read matches: the code was regenerated
	// between the update and now. Treat as mismatch so the caller retries
	// with the fresh code.
	return jobserrors.ErrOtpMismatch
}

// Watch opens a change stream over the booking collection. Feeds re-query on
// every relevant event rather than patching state from the event payload.
func (r *mongoBookingRepository) Watch(ctx context.Context) (*mongo.ChangeStream, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open booking change stream: %w", err)
	}
	return stream, nil
}
