package model

import "strings"

// JobStatus is the canonical lifecycle status of a booking. The raw store
// knows these as loose strings under two field names; everything past the
// normalizer sees only this type.
type JobStatus string

const (
	StatusPending        JobStatus = "pending"
	StatusAccepted       JobStatus = "accepted"
	StatusArrived        JobStatus = "arrived"
	StatusInProgress     JobStatus = "in_progress"
	StatusPaymentPending JobStatus = "payment_pending"
	StatusCompleted      JobStatus = "completed"
)

// statusOrder defines the single legal path through the lifecycle.
// payment_pending is mandatory for every payment mode; online and QR
// payments auto-confirm but still pass through it.
var statusOrder = []JobStatus{
	StatusPending,
	StatusAccepted,
	StatusArrived,
	StatusInProgress,
	StatusPaymentPending,
	StatusCompleted,
}

var statusRank = func() map[JobStatus]int {
	m := make(map[JobStatus]int, len(statusOrder))
	for i, s := range statusOrder {
		m[s] = i
	}
	return m
}()

// ParseStatus resolves a raw status string to a JobStatus. Matching is
// case-insensitive; the empty string defaults to pending because legacy
// records were created without an explicit status. Unknown values are
// returned as-is with ok=false so callers can reject them.
func ParseStatus(raw string) (JobStatus, bool) {
	s := JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return StatusPending, true
	}
	_, known := statusRank[s]
	return s, known
}

// Valid reports whether s is one of the lifecycle statuses.
func (s JobStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of s in the lifecycle order, or -1 for unknown
// statuses.
func (s JobStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Next returns the immediate successor of s, or "" when s is terminal or
// unknown.
func (s JobStatus) Next() JobStatus {
	r, ok := statusRank[s]
	if !ok || r == len(statusOrder)-1 {
		return ""
	}
	return statusOrder[r+1]
}

// Terminal reports whether s ends the lifecycle.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted
}

// Active reports whether a booking in status s belongs to a provider's
// ongoing feed: accepted up to and including payment_pending.
func (s JobStatus) Active() bool {
	r, ok := statusRank[s]
	return ok && r > statusRank[StatusPending] && r < statusRank[StatusCompleted]
}

// CanTransitionTo is the lifecycle guard: only the immediate successor is a
// legal target. No status may be skipped and no transition may go backward.
// Every mutation that advances status must consult this guard before
// writing, and the store-side update filter repeats the check so concurrent
// devices cannot race past it.
func CanTransitionTo(current, target JobStatus) bool {
	return current.Next() == target && target != ""
}
