package kafka

import "time"

// Topics carried on the bus. booking-events is produced by order placement;
// job-events is produced by the jobs service. Both are keyed by booking id
// so per-booking ordering holds within a partition.
const (
	TopicBookingEvents = "booking-events"
	TopicJobEvents     = "job-events"

	TopicBookingEventsDLQ = "booking-events-dlq"
	TopicJobEventsDLQ     = "job-events-dlq"
)

// Event types.
const (
	EventBookingCreated   = "booking.created"
	EventJobAccepted      = "job.accepted"
	EventJobStatusChanged = "job.status_changed"
	EventJobOTPGenerated  = "job.otp_generated"
	EventJobCompleted     = "job.completed"
	EventJobRejected      = "job.rejected"
)

// BookingCreatedEvent is published by the order-placement system when a
// customer places a booking. The projector fans it out into per-provider
// inbox entries.
type BookingCreatedEvent struct {
	BookingID           string    `json:"booking_id"`
	CustomerPhone       string    `json:"customer_phone"`
	ServiceName         string    `json:"service_name"`
	TotalPrice          float64   `json:"total_price"`
	Address             string    `json:"address,omitempty"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	NotifiedProviderIDs []string  `json:"notified_provider_ids"`
	CreatedAt           time.Time `json:"created_at"`
}

// JobLifecycleEvent is published by the jobs service on every state change.
// For job.accepted and later events the projector uses it to drop the
// booking's inbox entries and rejection suppressions.
type JobLifecycleEvent struct {
	BookingID  string    `json:"booking_id"`
	ProviderID string    `json:"provider_id,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	OccurredAt time.Time `json:"occurred_at"`
}
