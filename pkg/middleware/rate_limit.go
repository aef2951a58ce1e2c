package middleware

import (
	"net/http"
	"sync"
	"time"

	"fixly/pkg/logger"
)

// ProviderExtractor pulls the provider identity a request should be limited on.
type ProviderExtractor func(r *http.Request) string

// ProviderRateLimiter is a sliding-window limiter keyed by provider ID.
// Accept storms during fan-out notifications are the main thing it absorbs.
type ProviderRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor ProviderExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewProviderRateLimiter(limit int, window time.Duration, extractor ProviderExtractor, log *logger.Logger) *ProviderRateLimiter {
	limiter := &ProviderRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *ProviderRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for providerID, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, providerID)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ProviderRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *ProviderRateLimiter) Allow(providerID string) bool {
	if providerID == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[providerID]

	validTimestamps := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		rl.requests[providerID] = validTimestamps
		return false
	}

	rl.requests[providerID] = append(validTimestamps, now)
	return true
}

func ProviderRateLimit(limiter *ProviderRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			providerID := extractProviderID(r, limiter.extractor)

			if providerID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(providerID) {
				rejectRateLimited(w, limiter.log, r, providerID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractProviderID(r *http.Request, extractor ProviderExtractor) string {
	if extractor == nil {
		return r.Header.Get("X-Provider-ID")
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, providerID string) {
	log.Warn("Rate limit exceeded",
		"request_id", RequestID(r.Context()),
		"provider_id", providerID,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
}

func DefaultProviderExtractor(r *http.Request) string {
	return r.Header.Get("X-Provider-ID")
}
