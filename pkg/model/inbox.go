package model

import "time"

// InboxEntry is a denormalized per-provider pointer to a pending booking,
// maintained by the projector so a provider's client never scans the full
// booking store. Entries are never authoritative: any state-changing action
// must re-validate against the booking store first.
type InboxEntry struct {
	ID            string       `json:"id" bson:"_id"`
	ProviderID    string       `json:"provider_id" bson:"provider_id" validate:"required"`
	BookingID     string       `json:"booking_id" bson:"booking_id" validate:"required"`
	CustomerPhone string       `json:"customer_phone" bson:"customer_phone"`
	ServiceName   string       `json:"service_name" bson:"service_name"`
	TotalPrice    float64      `json:"total_price" bson:"total_price"`
	Address       string       `json:"address,omitempty" bson:"address,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	ExpiresAt     time.Time    `json:"expires_at" bson:"expires_at"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
}

// JobRejection is per-provider, per-booking suppression state. It is created
// when a provider dismisses a pending job and disappears when the booking
// leaves pending or the TTL index expires it, so a dismissal survives process
// restarts and is shared across the provider's devices.
type JobRejection struct {
	ID         string    `json:"id" bson:"_id"`
	ProviderID string    `json:"provider_id" bson:"provider_id"`
	BookingID  string    `json:"booking_id" bson:"booking_id"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
