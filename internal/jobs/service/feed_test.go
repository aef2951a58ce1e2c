package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fixly/pkg/model"
)

// fakeNotifier scripts change stream behavior: each call to WatchChanges
// returns the next scripted session.
type fakeNotifier struct {
	mu       sync.Mutex
	sessions []*fakeSession
	opened   int
}

type fakeSession struct {
	events chan struct{}
	errs   chan error
	err    error // returned from WatchChanges itself when set
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		events: make(chan struct{}, 8),
		errs:   make(chan error, 1),
	}
}

func (n *fakeNotifier) WatchChanges(ctx context.Context) (<-chan struct{}, <-chan error, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.opened >= len(n.sessions) {
		// Keep the last session open forever.
		s := newFakeSession()
		n.opened++
		return s.events, s.errs, nil
	}
	s := n.sessions[n.opened]
	n.opened++
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.events, s.errs, nil
}

// scriptedJobs lets each query call return the next configured result.
type scriptedJobs struct {
	mu      sync.Mutex
	results []queryResult
	calls   int
}

type queryResult struct {
	jobs []*model.Job
	err  error
}

func (s *scriptedJobs) next() ([]*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	return s.results[idx].jobs, s.results[idx].err
}

func newFeedUnderTest(t *testing.T, script *scriptedJobs, notifier *fakeNotifier) FeedService {
	t.Helper()
	return newFeedUnderTestWithBackoff(t, script, notifier, time.Millisecond)
}

// A slower backoff keeps Offline updates observable before the recovery
// push evicts them from the buffer.
func newFeedUnderTestWithBackoff(t *testing.T, script *scriptedJobs, notifier *fakeNotifier, backoff time.Duration) FeedService {
	t.Helper()
	repo := &mockBookingRepository{
		findPendingForProviderFunc: func(ctx context.Context, providerID string, excluded []string) ([]*model.Booking, error) {
			jobs, err := script.next()
			if err != nil {
				return nil, err
			}
			bookings := make([]*model.Booking, 0, len(jobs))
			for _, j := range jobs {
				bookings = append(bookings, &model.Booking{
					BookingID:           j.BookingID,
					Status:              model.StatusPending,
					NotifiedProviderIDs: []string{providerID},
				})
			}
			return bookings, nil
		},
	}
	jobs := newTestService(t, repo, nil, &mockPublisher{})
	cfg := testConfig(t)
	cfg.FeedRetryBaseDelay = backoff
	cfg.FeedRetryMaxDelay = 4 * backoff
	return NewFeedService(jobs, notifier, cfg)
}

func recv(t *testing.T, updates <-chan FeedUpdate) FeedUpdate {
	t.Helper()
	select {
	case u, ok := <-updates:
		if !ok {
			t.Fatal("feed channel closed unexpectedly")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed update")
	}
	return FeedUpdate{}
}

func job(id string) *model.Job {
	return &model.Job{BookingID: id, Status: model.StatusPending}
}

func TestFeed_InitialSnapshotAndChangePush(t *testing.T) {
	session := newFakeSession()
	notifier := &fakeNotifier{sessions: []*fakeSession{session}}
	script := &scriptedJobs{results: []queryResult{
		{jobs: []*model.Job{job("bkg_1")}},
		{jobs: []*model.Job{job("bkg_1"), job("bkg_2")}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFeedUnderTest(t, script, notifier)
	updates := feed.SubscribeNewJobs(ctx, "prov_1")

	first := recv(t, updates)
	if first.Offline {
		t.Error("initial snapshot must not be Offline")
	}
	if len(first.Jobs) != 1 || first.Jobs[0].BookingID != "bkg_1" {
		t.Fatalf("initial snapshot = %+v", first.Jobs)
	}

	session.events <- struct{}{}

	second := recv(t, updates)
	if second.Offline {
		t.Error("re-query push must not be Offline")
	}
	if len(second.Jobs) != 2 {
		t.Fatalf("after change got %d jobs, want 2", len(second.Jobs))
	}
}

func TestFeed_QueryErrorEmitsOfflineSnapshotThenRecovers(t *testing.T) {
	session := newFakeSession()
	notifier := &fakeNotifier{sessions: []*fakeSession{session}}
	script := &scriptedJobs{results: []queryResult{
		{jobs: []*model.Job{job("bkg_1")}},
		{err: errors.New("store unreachable")},
		{jobs: []*model.Job{job("bkg_1"), job("bkg_3")}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFeedUnderTest(t, script, notifier)
	updates := feed.SubscribeNewJobs(ctx, "prov_1")

	first := recv(t, updates)
	if first.Offline || len(first.Jobs) != 1 {
		t.Fatalf("initial = %+v", first)
	}

	// The re-query for this event fails: last-known snapshot, Offline up.
	session.events <- struct{}{}
	degraded := recv(t, updates)
	if !degraded.Offline {
		t.Fatal("failed re-query must raise the Offline flag")
	}
	if len(degraded.Jobs) != 1 || degraded.Jobs[0].BookingID != "bkg_1" {
		t.Fatalf("Offline update must carry the last-known snapshot, got %+v", degraded.Jobs)
	}

	// Next event succeeds: flag drops, fresh data flows.
	session.events <- struct{}{}
	recovered := recv(t, updates)
	if recovered.Offline {
		t.Error("successful re-query must clear the Offline flag")
	}
	if len(recovered.Jobs) != 2 {
		t.Errorf("recovered jobs = %d, want 2", len(recovered.Jobs))
	}
}

func TestFeed_StreamErrorRetriesNeverTerminates(t *testing.T) {
	broken := newFakeSession()
	healthy := newFakeSession()
	notifier := &fakeNotifier{sessions: []*fakeSession{broken, healthy}}
	script := &scriptedJobs{results: []queryResult{
		{jobs: []*model.Job{job("bkg_1")}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFeedUnderTestWithBackoff(t, script, notifier, 200*time.Millisecond)
	updates := feed.SubscribeNewJobs(ctx, "prov_1")

	recv(t, updates) // initial snapshot

	broken.errs <- errors.New("stream reset")

	// The loop flags Offline, backs off, reopens the stream, and re-queries.
	sawOffline := false
	sawRecovered := false
	for i := 0; i < 4 && !(sawOffline && sawRecovered); i++ {
		u := recv(t, updates)
		if u.Offline {
			sawOffline = true
		} else {
			sawRecovered = true
		}
	}
	if !sawOffline {
		t.Error("stream error must surface an Offline update")
	}
	if !sawRecovered {
		t.Error("feed must come back online after reopening the stream")
	}

	// Still alive: a change on the reopened stream pushes an update.
	healthy.events <- struct{}{}
	recv(t, updates)
}

func TestFeed_CancelClosesChannel(t *testing.T) {
	notifier := &fakeNotifier{}
	script := &scriptedJobs{results: []queryResult{
		{jobs: []*model.Job{job("bkg_1")}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	feed := newFeedUnderTest(t, script, notifier)
	updates := feed.SubscribeNewJobs(ctx, "prov_1")

	recv(t, updates)
	cancel()

	select {
	case _, ok := <-updates:
		if ok {
			// A final in-flight update is fine; the close must follow.
			select {
			case _, ok2 := <-updates:
				if ok2 {
					t.Error("feed kept emitting after cancel")
				}
			case <-time.After(2 * time.Second):
				t.Error("feed channel not closed after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("feed channel not closed after cancel")
	}
}

func TestFeed_BackoffPinsAtMaxPastRetryBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.FeedRetryBaseDelay = 10 * time.Millisecond
	cfg.FeedRetryMaxDelay = time.Hour
	cfg.FeedMaxRetries = 3
	s := &feedService{cfg: cfg}

	steps := []struct {
		failures int
		want     time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, time.Hour},
		{100, time.Hour},
	}
	for _, step := range steps {
		if got := s.backoffDelay(step.failures); got != step.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", step.failures, got, step.want)
		}
	}
}
