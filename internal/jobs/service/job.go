package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	jobserrors "fixly/internal/jobs/errors"
	"fixly/internal/jobs/normalizer"
	"fixly/internal/jobs/repository"
	"fixly/pkg/config"
	apperrors "fixly/pkg/errors"
	"fixly/pkg/kafka"
	"fixly/pkg/model"
	"fixly/pkg/sealer"
)

// EventPublisher is the slice of the Kafka producer the service needs.
// Publishing is best-effort: a failed publish is logged, never surfaced to
// the caller, because the authoritative store has already moved.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type JobService interface {
	GetNewJobs(ctx context.Context, providerID string) ([]*model.Job, error)
	GetOngoingJobs(ctx context.Context, providerID string) ([]*model.Job, error)
	GetCompletedJobs(ctx context.Context, providerID string, limit int, pageToken string) ([]*model.Job, string, error)
	GetJob(ctx context.Context, bookingID string) (*model.Job, error)
	AcceptJob(ctx context.Context, bookingID string, providerID string) (*model.Job, error)
	AdvanceStatus(ctx context.Context, bookingID string, providerID string, target model.JobStatus) (*model.Job, error)
	RegenerateOTP(ctx context.Context, bookingID string, providerID string) (*model.Job, error)
	CompleteJob(ctx context.Context, bookingID string, providerID string, otp string) (*model.Job, error)
	RejectJob(ctx context.Context, bookingID string, providerID string) error
}

type jobService struct {
	repo          repository.BookingRepository
	rejectionRepo repository.RejectionRepository
	publisher     EventPublisher
	cursorSealer  *sealer.Sealer
	cfg           *config.Config
	now           func() time.Time
}

func NewJobService(
	repo repository.BookingRepository,
	rejectionRepo repository.RejectionRepository,
	publisher EventPublisher,
	cursorSealer *sealer.Sealer,
	cfg *config.Config,
) JobService {
	return &jobService{
		repo:          repo,
		rejectionRepo: rejectionRepo,
		publisher:     publisher,
		cursorSealer:  cursorSealer,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *jobService) GetNewJobs(ctx context.Context, providerID string) ([]*model.Job, error) {
	rejected, err := s.rejectionRepo.FindBookingIDsForProvider(ctx, providerID)
	if err != nil {
		// A broken suppression lookup degrades to an unfiltered feed
		// rather than an empty one.
		s.cfg.Log.Warn("Failed to load rejection suppressions", "provider_id", providerID, "error", err)
		rejected = nil
	}

	bookings, err := s.repo.FindPendingForProvider(ctx, providerID, rejected)
	if err != nil {
		return nil, apperrors.Internal("Failed to load new jobs", err)
	}
	return normalizer.FromBookings(bookings), nil
}

func (s *jobService) GetOngoingJobs(ctx context.Context, providerID string) ([]*model.Job, error) {
	bookings, err := s.repo.FindOngoingForProvider(ctx, providerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load ongoing jobs", err)
	}
	return normalizer.FromBookings(bookings), nil
}

// GetCompletedJobs pages newest first. The page token is an opaque sealed
// cursor; clients cannot decode or forge positions.
func (s *jobService) GetCompletedJobs(ctx context.Context, providerID string, limit int, pageToken string) ([]*model.Job, string, error) {
	limit = config.NormalizePaginationLimit(limit)

	var before *time.Time
	var beforeBookingID string
	if pageToken != "" {
		completedAt, bookingID, err := s.cursorSealer.OpenCursor(pageToken)
		if err != nil {
			return nil, "", apperrors.InvalidInput("Invalid page token")
		}
		before = &completedAt
		beforeBookingID = bookingID
	}

	bookings, err := s.repo.FindCompletedForProvider(ctx, providerID, limit, before, beforeBookingID)
	if err != nil {
		return nil, "", apperrors.Internal("Failed to load completed jobs", err)
	}

	nextToken := ""
	if len(bookings) == limit {
		last := bookings[len(bookings)-1]
		if last.CompletedAt != nil {
			nextToken, err = s.cursorSealer.SealCursor(*last.CompletedAt, last.BookingID)
			if err != nil {
				return nil, "", apperrors.Internal("Failed to build page token", err)
			}
		}
	}

	return normalizer.FromBookings(bookings), nextToken, nil
}

func (s *jobService) GetJob(ctx context.Context, bookingID string) (*model.Job, error) {
	booking, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, s.translateError(err, bookingID, "", "")
	}
	return normalizer.FromBooking(booking), nil
}

// AcceptJob races providerID against every other notified provider. Exactly
// one caller wins; the winner retrying gets its job back unchanged.
func (s *jobService) AcceptJob(ctx context.Context, bookingID string, providerID string) (*model.Job, error) {
	booking, err := s.repo.AcceptBooking(ctx, bookingID, providerID, s.now())
	if err != nil {
		return nil, s.translateError(err, bookingID, providerID, "")
	}

	s.publishLifecycleEvent(ctx, kafka.EventJobAccepted, booking, model.StatusPending)

	s.cfg.Log.Info("Job accepted",
		"booking_id", bookingID,
		"provider_id", providerID,
		"version", booking.Version,
	)
	return normalizer.FromBooking(booking), nil
}

// AdvanceStatus applies one forward lifecycle step. The in_progress ->
// payment_pending step generates the completion code as part of the same
// write; all other steps are plain conditional updates.
func (s *jobService) AdvanceStatus(ctx context.Context, bookingID string, providerID string, target model.JobStatus) (*model.Job, error) {
	if !target.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown status: %s", target))
	}

	current, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, s.translateError(err, bookingID, providerID, "")
	}
	if !model.CanTransitionTo(current.Status, target) {
		return nil, apperrors.InvalidTransition(string(current.Status), string(target))
	}

	var updated *model.Booking
	switch target {
	case model.StatusPaymentPending:
		otp, otpErr := generateOTP()
		if otpErr != nil {
			return nil, apperrors.Internal("Failed to generate completion code", otpErr)
		}
		updated, err = s.repo.SetPaymentPending(ctx, bookingID, providerID, otp, s.now())
		if err == nil {
			s.publishLifecycleEvent(ctx, kafka.EventJobOTPGenerated, updated, current.Status)
		}
	default:
		updated, err = s.repo.AdvanceStatus(ctx, bookingID, providerID, current.Status, target, s.now())
	}
	if err != nil {
		return nil, s.translateError(err, bookingID, providerID, string(target))
	}

	s.publishLifecycleEvent(ctx, kafka.EventJobStatusChanged, updated, current.Status)

	s.cfg.Log.Info("Job status advanced",
		"booking_id", bookingID,
		"provider_id", providerID,
		"from", current.Status,
		"to", target,
	)
	return normalizer.FromBooking(updated), nil
}

// RegenerateOTP issues a fresh completion code after an expiry. Only legal
// in payment_pending.
func (s *jobService) RegenerateOTP(ctx context.Context, bookingID string, providerID string) (*model.Job, error) {
	otp, err := generateOTP()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate completion code", err)
	}

	updated, err := s.repo.RegenerateOTP(ctx, bookingID, providerID, otp, s.now())
	if err != nil {
		return nil, s.translateError(err, bookingID, providerID, string(model.StatusPaymentPending))
	}

	s.publishLifecycleEvent(ctx, kafka.EventJobOTPGenerated, updated, model.StatusPaymentPending)

	s.cfg.Log.Info("Completion code regenerated", "booking_id", bookingID, "provider_id", providerID)
	return normalizer.FromBooking(updated), nil
}

// CompleteJob closes the handshake: the customer-supplied code must match
// and still be inside the validity window.
func (s *jobService) CompleteJob(ctx context.Context, bookingID string, providerID string, otp string) (*model.Job, error) {
	updated, err := s.repo.CompleteWithOTP(ctx, bookingID, providerID, otp, s.cfg.OTPValidityWindow, s.now())
	if err != nil {
		return nil, s.translateError(err, bookingID, providerID, string(model.StatusCompleted))
	}

	s.publishLifecycleEvent(ctx, kafka.EventJobCompleted, updated, model.StatusPaymentPending)

	s.cfg.Log.Info("Job completed",
		"booking_id", bookingID,
		"provider_id", providerID,
		"payment_mode", updated.Payment.Mode,
	)
	return normalizer.FromBooking(updated), nil
}

// RejectJob records a suppression so the booking stops appearing in this
// provider's new-jobs feed. It does not touch the booking itself; other
// providers still race for it.
func (s *jobService) RejectJob(ctx context.Context, bookingID string, providerID string) error {
	booking, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return s.translateError(err, bookingID, providerID, "")
	}
	if booking.Status != model.StatusPending {
		// Nothing to suppress once the job has left the feed.
		return nil
	}

	rejection := &model.JobRejection{
		ProviderID: providerID,
		BookingID:  bookingID,
		ExpiresAt:  s.now().Add(s.cfg.RejectionTTL),
	}
	if err := s.rejectionRepo.Create(ctx, rejection); err != nil {
		return apperrors.Internal("Failed to record rejection", err)
	}

	s.publishLifecycleEvent(ctx, kafka.EventJobRejected, booking, booking.Status)

	s.cfg.Log.Info("Job rejected", "booking_id", bookingID, "provider_id", providerID)
	return nil
}

func (s *jobService) publishLifecycleEvent(ctx context.Context, eventType string, booking *model.Booking, from model.JobStatus) {
	if s.publisher == nil {
		return
	}

	event := kafka.JobLifecycleEvent{
		BookingID:  booking.BookingID,
		ProviderID: booking.ProviderID,
		FromStatus: string(from),
		ToStatus:   string(booking.Status),
		OccurredAt: s.now(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.BookingID).
		WithValue(event).
		WithEventType(eventType).
		WithSource("jobs-service").
		WithSchemaVersion("1").
		Build()
	msg.Topic = kafka.TopicJobEvents

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish lifecycle event",
			"event_type", eventType,
			"booking_id", booking.BookingID,
			"error", err,
		)
	}
}

// translateError maps repository sentinels to transport-ready AppErrors.
func (s *jobService) translateError(err error, bookingID, providerID, target string) error {
	switch {
	case errors.Is(err, jobserrors.ErrNotFound):
		return apperrors.NotFoundWithID("job", bookingID)
	case errors.Is(err, jobserrors.ErrAlreadyTaken):
		return apperrors.AlreadyTaken(bookingID)
	case errors.Is(err, jobserrors.ErrNotEligible):
		return apperrors.NotEligible(bookingID, providerID)
	case errors.Is(err, jobserrors.ErrInvalidTransition):
		return apperrors.InvalidTransition("", target)
	case errors.Is(err, jobserrors.ErrOtpExpired):
		return apperrors.OtpExpired()
	case errors.Is(err, jobserrors.ErrOtpMismatch):
		return apperrors.OtpMismatch()
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal("Job operation failed", err)
	}
}

// generateOTP returns a 6-digit numeric code with a crypto source. Leading
// zeros are kept: the code is a string end to end.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
