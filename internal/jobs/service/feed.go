package service

import (
	"context"
	"time"

	"fixly/internal/jobs/repository"
	"fixly/pkg/config"
	"fixly/pkg/model"
)

// FeedUpdate is one push to a feed subscriber. Offline means the update is a
// last-known snapshot emitted while the store is unreachable; the flag drops
// on the first successful re-query.
type FeedUpdate struct {
	Jobs    []*model.Job `json:"jobs"`
	Offline bool         `json:"offline"`
}

// FeedService pushes live job-list updates. Each subscription re-queries the
// authoritative store on every relevant change; a feed never terminates on a
// transient error, it degrades to Offline snapshots and keeps retrying.
type FeedService interface {
	SubscribeNewJobs(ctx context.Context, providerID string) <-chan FeedUpdate
	SubscribeOngoingJobs(ctx context.Context, providerID string) <-chan FeedUpdate
}

type feedService struct {
	jobs     JobService
	notifier repository.ChangeNotifier
	cfg      *config.Config
}

func NewFeedService(jobs JobService, notifier repository.ChangeNotifier, cfg *config.Config) FeedService {
	return &feedService{
		jobs:     jobs,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *feedService) SubscribeNewJobs(ctx context.Context, providerID string) <-chan FeedUpdate {
	return s.subscribe(ctx, providerID, func(ctx context.Context) ([]*model.Job, error) {
		return s.jobs.GetNewJobs(ctx, providerID)
	})
}

func (s *feedService) SubscribeOngoingJobs(ctx context.Context, providerID string) <-chan FeedUpdate {
	return s.subscribe(ctx, providerID, func(ctx context.Context) ([]*model.Job, error) {
		return s.jobs.GetOngoingJobs(ctx, providerID)
	})
}

func (s *feedService) subscribe(ctx context.Context, providerID string, query func(ctx context.Context) ([]*model.Job, error)) <-chan FeedUpdate {
	updates := make(chan FeedUpdate, 1)
	go s.run(ctx, providerID, query, updates)
	return updates
}

// run is the subscription loop: snapshot, watch, re-query per change. Any
// failure flips the feed Offline, re-emits the last snapshot, and retries
// with capped exponential backoff; past FeedMaxRetries the delay stays at
// the cap but the loop never stops until ctx is cancelled.
func (s *feedService) run(ctx context.Context, providerID string, query func(ctx context.Context) ([]*model.Job, error), updates chan FeedUpdate) {
	defer close(updates)

	var last []*model.Job
	failures := 0

	for {
		if ctx.Err() != nil {
			return
		}

		jobs, err := query(ctx)
		if err != nil {
			s.cfg.Log.Warn("Feed query failed",
				"provider_id", providerID, "failures", failures+1, "error", err)
			s.push(ctx, updates, FeedUpdate{Jobs: last, Offline: true})
			failures++
			if !s.sleep(ctx, s.backoffDelay(failures)) {
				return
			}
			continue
		}
		last = jobs
		failures = 0
		s.push(ctx, updates, FeedUpdate{Jobs: last})

		events, errs, err := s.notifier.WatchChanges(ctx)
		if err != nil {
			s.cfg.Log.Warn("Feed watch failed",
				"provider_id", providerID, "failures", failures+1, "error", err)
			s.push(ctx, updates, FeedUpdate{Jobs: last, Offline: true})
			failures++
			if !s.sleep(ctx, s.backoffDelay(failures)) {
				return
			}
			continue
		}

		if !s.consume(ctx, providerID, query, updates, events, errs, &last) {
			return
		}
		// Stream ended; flag Offline and reopen.
		s.push(ctx, updates, FeedUpdate{Jobs: last, Offline: true})
		failures++
		if !s.sleep(ctx, s.backoffDelay(failures)) {
			return
		}
	}
}

// consume drains one open stream. Returns false only on ctx cancellation.
func (s *feedService) consume(ctx context.Context, providerID string, query func(ctx context.Context) ([]*model.Job, error), updates chan FeedUpdate, events <-chan struct{}, errs <-chan error, last *[]*model.Job) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case err, ok := <-errs:
			if ok && err != nil {
				s.cfg.Log.Warn("Feed stream error", "provider_id", providerID, "error", err)
			}
			return true
		case _, ok := <-events:
			if !ok {
				return true
			}
			jobs, err := query(ctx)
			if err != nil {
				s.cfg.Log.Warn("Feed re-query failed", "provider_id", providerID, "error", err)
				s.push(ctx, updates, FeedUpdate{Jobs: *last, Offline: true})
				continue
			}
			*last = jobs
			s.push(ctx, updates, FeedUpdate{Jobs: jobs})
		}
	}
}

// push delivers latest-wins: a slow subscriber gets the newest update, not a
// backlog.
func (s *feedService) push(ctx context.Context, updates chan FeedUpdate, u FeedUpdate) {
	select {
	case updates <- u:
		return
	default:
	}
	// Buffer full: evict the stale update, then deliver.
	select {
	case <-updates:
	default:
	}
	select {
	case <-ctx.Done():
	case updates <- u:
	}
}

// backoffDelay grows geometrically per consecutive failure. Past
// FeedMaxRetries graduated attempts the delay pins at FeedRetryMaxDelay.
func (s *feedService) backoffDelay(failures int) time.Duration {
	if failures > s.cfg.FeedMaxRetries {
		return s.cfg.FeedRetryMaxDelay
	}
	delay := s.cfg.FeedRetryBaseDelay
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= s.cfg.FeedRetryMaxDelay {
			return s.cfg.FeedRetryMaxDelay
		}
	}
	if delay > s.cfg.FeedRetryMaxDelay {
		return s.cfg.FeedRetryMaxDelay
	}
	return delay
}

func (s *feedService) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
