package model

import (
	"time"
)

// Booking is the authoritative record for one requested service job.
// Bookings are stored one document per booking, keyed by booking_id, with a
// version counter used as the compare-and-swap token for all state-changing
// writes. The customer_phone field is a secondary index linking a booking
// back to the customer that owns it.
type Booking struct {
	ID                  string            `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID           string            `json:"booking_id" bson:"booking_id" validate:"required"`
	CustomerPhone       string            `json:"customer_phone" bson:"customer_phone" validate:"required,e164"`
	CustomerName        string            `json:"customer_name" bson:"customer_name" validate:"omitempty,max=100"`
	ServiceName         string            `json:"service_name" bson:"service_name" validate:"required,min=2,max=100"`
	SubServices         []string          `json:"sub_services,omitempty" bson:"sub_services,omitempty"`
	TotalPrice          float64           `json:"total_price" bson:"total_price" validate:"required,gt=0"`
	Address             string            `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=300"`
	Status              JobStatus         `json:"status" bson:"status" validate:"required,job_status"`
	NotifiedProviderIDs []string          `json:"notified_provider_ids,omitempty" bson:"notified_provider_ids,omitempty"`
	ProviderID          string            `json:"provider_id,omitempty" bson:"provider_id,omitempty"`
	Coordinates         *Coordinates      `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	Payment             Payment           `json:"payment" bson:"payment"`
	Version             int64             `json:"version" bson:"version"`
	CreatedAt           time.Time         `json:"created_at" bson:"created_at"`
	AcceptedAt          *time.Time        `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	ArrivedAt           *time.Time        `json:"arrived_at,omitempty" bson:"arrived_at,omitempty"`
	ServiceStartedAt    *time.Time        `json:"service_started_at,omitempty" bson:"service_started_at,omitempty"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Extra               map[string]string `json:"extra,omitempty" bson:"extra,omitempty"`
}

// Payment carries the completion-handshake state for a booking.
type Payment struct {
	Mode           string     `json:"mode" bson:"mode" validate:"omitempty,oneof=cash qr online"`
	Amount         float64    `json:"amount" bson:"amount" validate:"omitempty,gte=0"`
	Status         string     `json:"status" bson:"status" validate:"omitempty,oneof=unpaid pending paid"`
	CompletionOTP  string     `json:"-" bson:"completion_otp,omitempty"`
	OTPGeneratedAt *time.Time `json:"otp_generated_at,omitempty" bson:"otp_generated_at,omitempty"`
	QRRef          string     `json:"qr_ref,omitempty" bson:"qr_ref,omitempty"`
}

// Coordinates is a complete lat/lng pair. A booking either has both values
// or carries no coordinates at all; half pairs never leave the normalizer.
type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
}

// StageTimestamp returns the timestamp recorded when the booking entered the
// given status, or nil if that stage has not been reached.
func (b *Booking) StageTimestamp(status JobStatus) *time.Time {
	switch status {
	case StatusPending:
		t := b.CreatedAt
		return &t
	case StatusAccepted:
		return b.AcceptedAt
	case StatusArrived:
		return b.ArrivedAt
	case StatusInProgress:
		return b.ServiceStartedAt
	case StatusCompleted:
		return b.CompletedAt
	}
	return nil
}
