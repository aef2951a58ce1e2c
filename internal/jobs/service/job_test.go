package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	jobserrors "fixly/internal/jobs/errors"
	"fixly/pkg/config"
	apperrors "fixly/pkg/errors"
	"fixly/pkg/kafka"
	"fixly/pkg/logger"
	"fixly/pkg/model"
	"fixly/pkg/sealer"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockBookingRepository struct {
	mu sync.Mutex

	findByBookingIDFunc          func(ctx context.Context, bookingID string) (*model.Booking, error)
	findPendingForProviderFunc   func(ctx context.Context, providerID string, excluded []string) ([]*model.Booking, error)
	findOngoingForProviderFunc   func(ctx context.Context, providerID string) ([]*model.Booking, error)
	findCompletedForProviderFunc func(ctx context.Context, providerID string, limit int, before *time.Time, beforeBookingID string) ([]*model.Booking, error)
	acceptBookingFunc            func(ctx context.Context, bookingID, providerID string, now time.Time) (*model.Booking, error)
	advanceStatusFunc            func(ctx context.Context, bookingID, providerID string, from, to model.JobStatus, now time.Time) (*model.Booking, error)
	setPaymentPendingFunc        func(ctx context.Context, bookingID, providerID, otp string, now time.Time) (*model.Booking, error)
	regenerateOTPFunc            func(ctx context.Context, bookingID, providerID, otp string, now time.Time) (*model.Booking, error)
	completeWithOTPFunc          func(ctx context.Context, bookingID, providerID, otp string, window time.Duration, now time.Time) (*model.Booking, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockBookingRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error) {
	if m.findByBookingIDFunc != nil {
		return m.findByBookingIDFunc(ctx, bookingID)
	}
	return nil, jobserrors.ErrNotFound
}

func (m *mockBookingRepository) FindPendingForProvider(ctx context.Context, providerID string, excluded []string) ([]*model.Booking, error) {
	if m.findPendingForProviderFunc != nil {
		return m.findPendingForProviderFunc(ctx, providerID, excluded)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindOngoingForProvider(ctx context.Context, providerID string) ([]*model.Booking, error) {
	if m.findOngoingForProviderFunc != nil {
		return m.findOngoingForProviderFunc(ctx, providerID)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindCompletedForProvider(ctx context.Context, providerID string, limit int, before *time.Time, beforeBookingID string) ([]*model.Booking, error) {
	if m.findCompletedForProviderFunc != nil {
		return m.findCompletedForProviderFunc(ctx, providerID, limit, before, beforeBookingID)
	}
	return nil, nil
}

func (m *mockBookingRepository) AcceptBooking(ctx context.Context, bookingID, providerID string, now time.Time) (*model.Booking, error) {
	if m.acceptBookingFunc != nil {
		return m.acceptBookingFunc(ctx, bookingID, providerID, now)
	}
	return nil, jobserrors.ErrNotFound
}

func (m *mockBookingRepository) AdvanceStatus(ctx context.Context, bookingID, providerID string, from, to model.JobStatus, now time.Time) (*model.Booking, error) {
	if m.advanceStatusFunc != nil {
		return m.advanceStatusFunc(ctx, bookingID, providerID, from, to, now)
	}
	return nil, jobserrors.ErrNotFound
}

func (m *mockBookingRepository) SetPaymentPending(ctx context.Context, bookingID, providerID, otp string, now time.Time) (*model.Booking, error) {
	if m.setPaymentPendingFunc != nil {
		return m.setPaymentPendingFunc(ctx, bookingID, providerID, otp, now)
	}
	return nil, jobserrors.ErrNotFound
}

func (m *mockBookingRepository) RegenerateOTP(ctx context.Context, bookingID, providerID, otp string, now time.Time) (*model.Booking, error) {
	if m.regenerateOTPFunc != nil {
		return m.regenerateOTPFunc(ctx, bookingID, providerID, otp, now)
	}
	return nil, jobserrors.ErrNotFound
}

func (m *mockBookingRepository) CompleteWithOTP(ctx context.Context, bookingID, providerID, otp string, window time.Duration, now time.Time) (*model.Booking, error) {
	if m.completeWithOTPFunc != nil {
		return m.completeWithOTPFunc(ctx, bookingID, providerID, otp, window, now)
	}
	return nil, jobserrors.ErrNotFound
}

func (m *mockBookingRepository) Watch(ctx context.Context) (*mongo.ChangeStream, error) {
	return nil, nil
}

type mockRejectionRepository struct {
	mu       sync.Mutex
	created  []*model.JobRejection
	rejected map[string][]string
}

func (m *mockRejectionRepository) Create(ctx context.Context, rejection *model.JobRejection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, rejection)
	return nil
}

func (m *mockRejectionRepository) FindBookingIDsForProvider(ctx context.Context, providerID string) ([]string, error) {
	if m.rejected != nil {
		return m.rejected[providerID], nil
	}
	return nil, nil
}

func (m *mockRejectionRepository) DeleteForBooking(ctx context.Context, bookingID string) error {
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		types = append(types, msg.GetEventType())
	}
	return types
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		OTPValidityWindow:  30 * time.Minute,
		RejectionTTL:       6 * time.Hour,
		FeedRetryBaseDelay: time.Millisecond,
		FeedRetryMaxDelay:  4 * time.Millisecond,
		FeedMaxRetries:     3,
	}
}

func testSealer(t *testing.T) *sealer.Sealer {
	t.Helper()
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	s, err := sealer.New(key)
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	return s
}

func newTestService(t *testing.T, repo *mockBookingRepository, rejections *mockRejectionRepository, publisher *mockPublisher) JobService {
	t.Helper()
	if rejections == nil {
		rejections = &mockRejectionRepository{}
	}
	return NewJobService(repo, rejections, publisher, testSealer(t), testConfig(t))
}

// casBookingStore emulates the accept compare-and-swap the way the database
// runs it: one mutex-guarded check-then-set per call.
type casBookingStore struct {
	mu      sync.Mutex
	booking *model.Booking
}

func (s *casBookingStore) accept(bookingID, providerID string, now time.Time) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.booking
	if b == nil || b.BookingID != bookingID {
		return nil, jobserrors.ErrNotFound
	}
	if b.Status == model.StatusPending && contains(b.NotifiedProviderIDs, providerID) {
		b.Status = model.StatusAccepted
		b.ProviderID = providerID
		b.AcceptedAt = &now
		b.Version++
		copied := *b
		return &copied, nil
	}
	if b.Status != model.StatusPending && b.ProviderID == providerID {
		copied := *b
		return &copied, nil
	}
	if b.Status != model.StatusPending {
		return nil, jobserrors.ErrAlreadyTaken
	}
	return nil, jobserrors.ErrNotEligible
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func pendingBooking(providers ...string) *model.Booking {
	return &model.Booking{
		BookingID:           "bkg_100",
		CustomerPhone:       "+14155552671",
		ServiceName:         "deep cleaning",
		TotalPrice:          1499,
		Status:              model.StatusPending,
		NotifiedProviderIDs: providers,
		Version:             1,
		CreatedAt:           time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAcceptJob_ConcurrentProviders(t *testing.T) {
	const numProviders = 20

	providers := make([]string, numProviders)
	for i := range providers {
		providers[i] = string(rune('a'+i%26)) + "_provider"
	}
	// Provider ids must be unique for the assertion below.
	for i := range providers {
		providers[i] = providers[i] + "_" + string(rune('0'+i/10)) + string(rune('0'+i%10))
	}

	store := &casBookingStore{booking: pendingBooking(providers...)}
	repo := &mockBookingRepository{
		acceptBookingFunc: func(ctx context.Context, bookingID, providerID string, now time.Time) (*model.Booking, error) {
			return store.accept(bookingID, providerID, now)
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(t, repo, nil, publisher)

	var wg sync.WaitGroup
	results := make([]error, numProviders)
	winners := make([]*model.Job, numProviders)

	for i := 0; i < numProviders; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			job, err := svc.AcceptJob(context.Background(), "bkg_100", providers[idx])
			results[idx] = err
			winners[idx] = job
		}(i)
	}
	wg.Wait()

	accepted := 0
	alreadyTaken := 0
	for i, err := range results {
		switch {
		case err == nil:
			accepted++
			if winners[i].Status != model.StatusAccepted {
				t.Errorf("winner job status = %q, want accepted", winners[i].Status)
			}
			if winners[i].ProviderID != providers[i] {
				t.Errorf("winner ProviderID = %q, want %q", winners[i].ProviderID, providers[i])
			}
		case apperrors.IsCode(err, apperrors.CodeAlreadyTaken):
			alreadyTaken++
		default:
			t.Errorf("provider %d: unexpected error %v", i, err)
		}
	}

	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1 winner", accepted)
	}
	if alreadyTaken != numProviders-1 {
		t.Errorf("alreadyTaken = %d, want %d", alreadyTaken, numProviders-1)
	}
}

func TestAcceptJob_WinnerRetryIsIdempotent(t *testing.T) {
	store := &casBookingStore{booking: pendingBooking("prov_1", "prov_2")}
	repo := &mockBookingRepository{
		acceptBookingFunc: func(ctx context.Context, bookingID, providerID string, now time.Time) (*model.Booking, error) {
			return store.accept(bookingID, providerID, now)
		},
	}
	svc := newTestService(t, repo, nil, &mockPublisher{})

	first, err := svc.AcceptJob(context.Background(), "bkg_100", "prov_1")
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}

	retry, err := svc.AcceptJob(context.Background(), "bkg_100", "prov_1")
	if err != nil {
		t.Fatalf("winner retry should succeed, got: %v", err)
	}
	if retry.Version != first.Version {
		t.Errorf("retry bumped version %d -> %d; retry must not re-apply", first.Version, retry.Version)
	}

	_, err = svc.AcceptJob(context.Background(), "bkg_100", "prov_2")
	if !apperrors.IsCode(err, apperrors.CodeAlreadyTaken) {
		t.Errorf("loser err = %v, want ALREADY_TAKEN", err)
	}
}

func TestAcceptJob_NotNotified(t *testing.T) {
	store := &casBookingStore{booking: pendingBooking("prov_1")}
	repo := &mockBookingRepository{
		acceptBookingFunc: func(ctx context.Context, bookingID, providerID string, now time.Time) (*model.Booking, error) {
			return store.accept(bookingID, providerID, now)
		},
	}
	svc := newTestService(t, repo, nil, &mockPublisher{})

	_, err := svc.AcceptJob(context.Background(), "bkg_100", "prov_outsider")
	if !apperrors.IsCode(err, apperrors.CodeNotEligible) {
		t.Errorf("err = %v, want NOT_ELIGIBLE", err)
	}
}

func TestAcceptJob_PublishesEvent(t *testing.T) {
	store := &casBookingStore{booking: pendingBooking("prov_1")}
	repo := &mockBookingRepository{
		acceptBookingFunc: func(ctx context.Context, bookingID, providerID string, now time.Time) (*model.Booking, error) {
			return store.accept(bookingID, providerID, now)
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(t, repo, nil, publisher)

	if _, err := svc.AcceptJob(context.Background(), "bkg_100", "prov_1"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != kafka.EventJobAccepted {
		t.Errorf("published events = %v, want [%s]", types, kafka.EventJobAccepted)
	}
	if publisher.messages[0].Key != "bkg_100" {
		t.Errorf("message key = %q, want booking id", publisher.messages[0].Key)
	}
}

func TestAcceptJob_PublishFailureDoesNotFailAccept(t *testing.T) {
	store := &casBookingStore{booking: pendingBooking("prov_1")}
	repo := &mockBookingRepository{
		acceptBookingFunc: func(ctx context.Context, bookingID, providerID string, now time.Time) (*model.Booking, error) {
			return store.accept(bookingID, providerID, now)
		},
	}
	publisher := &mockPublisher{err: context.DeadlineExceeded}
	svc := newTestService(t, repo, nil, publisher)

	if _, err := svc.AcceptJob(context.Background(), "bkg_100", "prov_1"); err != nil {
		t.Fatalf("accept must not fail on publish error, got: %v", err)
	}
}

func TestAdvanceStatus_IllegalSkipRejected(t *testing.T) {
	booking := pendingBooking("prov_1")
	booking.Status = model.StatusAccepted
	booking.ProviderID = "prov_1"

	advanced := false
	repo := &mockBookingRepository{
		findByBookingIDFunc: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			copied := *booking
			return &copied, nil
		},
		advanceStatusFunc: func(ctx context.Context, bookingID, providerID string, from, to model.JobStatus, now time.Time) (*model.Booking, error) {
			advanced = true
			return booking, nil
		},
	}
	svc := newTestService(t, repo, nil, &mockPublisher{})

	// accepted -> in_progress skips arrived.
	_, err := svc.AdvanceStatus(context.Background(), "bkg_100", "prov_1", model.StatusInProgress)
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("err = %v, want INVALID_TRANSITION", err)
	}
	if advanced {
		t.Error("repository write must not run for an illegal transition")
	}

	// Reverse transitions are equally illegal.
	_, err = svc.AdvanceStatus(context.Background(), "bkg_100", "prov_1", model.StatusPending)
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Errorf("reverse err = %v, want INVALID_TRANSITION", err)
	}
}

func TestAdvanceStatus_PaymentPendingGeneratesOTP(t *testing.T) {
	booking := pendingBooking("prov_1")
	booking.Status = model.StatusInProgress
	booking.ProviderID = "prov_1"

	var capturedOTP string
	repo := &mockBookingRepository{
		findByBookingIDFunc: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			copied := *booking
			return &copied, nil
		},
		setPaymentPendingFunc: func(ctx context.Context, bookingID, providerID, otp string, now time.Time) (*model.Booking, error) {
			capturedOTP = otp
			updated := *booking
			updated.Status = model.StatusPaymentPending
			updated.Payment.CompletionOTP = otp
			updated.Payment.OTPGeneratedAt = &now
			return &updated, nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(t, repo, nil, publisher)

	job, err := svc.AdvanceStatus(context.Background(), "bkg_100", "prov_1", model.StatusPaymentPending)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if job.Status != model.StatusPaymentPending {
		t.Errorf("status = %q, want payment_pending", job.Status)
	}
	if len(capturedOTP) != 6 {
		t.Fatalf("otp = %q, want 6 digits", capturedOTP)
	}
	for _, r := range capturedOTP {
		if r < '0' || r > '9' {
			t.Fatalf("otp %q contains non-digit", capturedOTP)
		}
	}

	types := publisher.eventTypes()
	if !containsString(types, kafka.EventJobOTPGenerated) || !containsString(types, kafka.EventJobStatusChanged) {
		t.Errorf("events = %v, want otp_generated and status_changed", types)
	}
}

func containsString(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func TestCompleteJob_StaleOTP(t *testing.T) {
	repo := &mockBookingRepository{
		completeWithOTPFunc: func(ctx context.Context, bookingID, providerID, otp string, window time.Duration, now time.Time) (*model.Booking, error) {
			return nil, jobserrors.ErrOtpExpired
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(t, repo, nil, publisher)

	_, err := svc.CompleteJob(context.Background(), "bkg_100", "prov_1", "123456")
	if !apperrors.IsCode(err, apperrors.CodeOtpExpired) {
		t.Fatalf("err = %v, want OTP_EXPIRED", err)
	}
	if len(publisher.eventTypes()) != 0 {
		t.Error("no event may be published for a failed completion")
	}
}

func TestCompleteJob_Mismatch(t *testing.T) {
	repo := &mockBookingRepository{
		completeWithOTPFunc: func(ctx context.Context, bookingID, providerID, otp string, window time.Duration, now time.Time) (*model.Booking, error) {
			return nil, jobserrors.ErrOtpMismatch
		},
	}
	svc := newTestService(t, repo, nil, &mockPublisher{})

	_, err := svc.CompleteJob(context.Background(), "bkg_100", "prov_1", "000000")
	if !apperrors.IsCode(err, apperrors.CodeOtpMismatch) {
		t.Fatalf("err = %v, want OTP_MISMATCH", err)
	}
}

func TestCompleteJob_Success(t *testing.T) {
	booking := pendingBooking("prov_1")
	booking.Status = model.StatusCompleted
	booking.ProviderID = "prov_1"
	completedAt := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	booking.CompletedAt = &completedAt
	booking.Payment = model.Payment{Mode: "cash", Amount: 1499, Status: "paid"}

	repo := &mockBookingRepository{
		completeWithOTPFunc: func(ctx context.Context, bookingID, providerID, otp string, window time.Duration, now time.Time) (*model.Booking, error) {
			if otp != "654321" {
				return nil, jobserrors.ErrOtpMismatch
			}
			return booking, nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(t, repo, nil, publisher)

	job, err := svc.CompleteJob(context.Background(), "bkg_100", "prov_1", "654321")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if job.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", job.Status)
	}
	if job.PaymentStatus != "paid" {
		t.Errorf("payment status = %q, want paid", job.PaymentStatus)
	}

	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != kafka.EventJobCompleted {
		t.Errorf("events = %v, want [job.completed]", types)
	}
}

func TestRejectJob_RecordsSuppression(t *testing.T) {
	booking := pendingBooking("prov_1", "prov_2")
	repo := &mockBookingRepository{
		findByBookingIDFunc: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			copied := *booking
			return &copied, nil
		},
	}
	rejections := &mockRejectionRepository{}
	svc := newTestService(t, repo, rejections, &mockPublisher{})

	if err := svc.RejectJob(context.Background(), "bkg_100", "prov_2"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if len(rejections.created) != 1 {
		t.Fatalf("created %d suppressions, want 1", len(rejections.created))
	}
	r := rejections.created[0]
	if r.BookingID != "bkg_100" || r.ProviderID != "prov_2" {
		t.Errorf("suppression = %+v", r)
	}
	if !r.ExpiresAt.After(time.Now()) {
		t.Error("suppression must carry a future expiry")
	}
}

func TestRejectJob_NonPendingIsNoop(t *testing.T) {
	booking := pendingBooking("prov_1")
	booking.Status = model.StatusAccepted
	booking.ProviderID = "prov_1"

	repo := &mockBookingRepository{
		findByBookingIDFunc: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			return booking, nil
		},
	}
	rejections := &mockRejectionRepository{}
	svc := newTestService(t, repo, rejections, &mockPublisher{})

	if err := svc.RejectJob(context.Background(), "bkg_100", "prov_2"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(rejections.created) != 0 {
		t.Errorf("created %d suppressions, want 0 for non-pending booking", len(rejections.created))
	}
}

func TestGetNewJobs_FiltersRejected(t *testing.T) {
	var capturedExcluded []string
	repo := &mockBookingRepository{
		findPendingForProviderFunc: func(ctx context.Context, providerID string, excluded []string) ([]*model.Booking, error) {
			capturedExcluded = excluded
			return []*model.Booking{pendingBooking(providerID)}, nil
		},
	}
	rejections := &mockRejectionRepository{rejected: map[string][]string{
		"prov_1": {"bkg_055"},
	}}
	svc := newTestService(t, repo, rejections, &mockPublisher{})

	jobs, err := svc.GetNewJobs(context.Background(), "prov_1")
	if err != nil {
		t.Fatalf("get new jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	if len(capturedExcluded) != 1 || capturedExcluded[0] != "bkg_055" {
		t.Errorf("excluded = %v, want rejected booking ids passed through", capturedExcluded)
	}
}

func TestGetCompletedJobs_CursorRoundTrip(t *testing.T) {
	completedAt := time.Date(2026, 2, 28, 18, 0, 0, 0, time.UTC)

	makeCompleted := func(id string) *model.Booking {
		b := pendingBooking("prov_1")
		b.BookingID = id
		b.Status = model.StatusCompleted
		b.ProviderID = "prov_1"
		b.CompletedAt = &completedAt
		return b
	}

	var capturedBefore *time.Time
	var capturedBeforeID string
	page := 0
	repo := &mockBookingRepository{
		findCompletedForProviderFunc: func(ctx context.Context, providerID string, limit int, before *time.Time, beforeBookingID string) ([]*model.Booking, error) {
			capturedBefore = before
			capturedBeforeID = beforeBookingID
			page++
			if page == 1 {
				// Full first page of `limit` rows triggers a next token.
				out := make([]*model.Booking, limit)
				for i := range out {
					out[i] = makeCompleted("bkg_" + string(rune('a'+i)))
				}
				return out, nil
			}
			return []*model.Booking{makeCompleted("bkg_zz")}, nil
		},
	}
	svc := newTestService(t, repo, nil, &mockPublisher{})

	jobs, token, err := svc.GetCompletedJobs(context.Background(), "prov_1", 5, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("first page size = %d, want 5", len(jobs))
	}
	if token == "" {
		t.Fatal("full page must carry a next page token")
	}

	_, token2, err := svc.GetCompletedJobs(context.Background(), "prov_1", 5, token)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if capturedBefore == nil || !capturedBefore.Equal(completedAt) {
		t.Errorf("cursor time = %v, want %v", capturedBefore, completedAt)
	}
	if capturedBeforeID != "bkg_"+string(rune('a'+4)) {
		t.Errorf("cursor booking id = %q, want last row of page 1", capturedBeforeID)
	}
	if token2 != "" {
		t.Errorf("short page returned token %q, want none", token2)
	}
}

func TestGetCompletedJobs_ForgedTokenRejected(t *testing.T) {
	repo := &mockBookingRepository{}
	svc := newTestService(t, repo, nil, &mockPublisher{})

	_, _, err := svc.GetCompletedJobs(context.Background(), "prov_1", 5, "not-a-real-token")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
