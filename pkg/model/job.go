package model

import "time"

// Job is the canonical read model derived from a Booking record by the
// normalizer. It is never persisted; it is always re-derived from the
// authoritative store so there is exactly one writable source of truth.
type Job struct {
	BookingID           string       `json:"booking_id"`
	CustomerPhone       string       `json:"customer_phone"`
	CustomerName        string       `json:"customer_name,omitempty"`
	ServiceName         string       `json:"service_name"`
	SubServices         []string     `json:"sub_services,omitempty"`
	TotalPrice          float64      `json:"total_price"`
	Address             string       `json:"address,omitempty"`
	Status              JobStatus    `json:"status"`
	Version             int64        `json:"version"`
	NotifiedProviderIDs []string     `json:"notified_provider_ids,omitempty"`
	ProviderID          string       `json:"provider_id,omitempty"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	PaymentMode         string       `json:"payment_mode,omitempty"`
	PaymentAmount       float64      `json:"payment_amount,omitempty"`
	PaymentStatus       string       `json:"payment_status,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	AcceptedAt          *time.Time   `json:"accepted_at,omitempty"`
	ArrivedAt           *time.Time   `json:"arrived_at,omitempty"`
	ServiceStartedAt    *time.Time   `json:"service_started_at,omitempty"`
	CompletedAt         *time.Time   `json:"completed_at,omitempty"`
}

// NotifiedTo reports whether providerID was fanned out this job while it was
// pending. After acceptance the notified set is inert history.
func (j *Job) NotifiedTo(providerID string) bool {
	for _, id := range j.NotifiedProviderIDs {
		if id == providerID {
			return true
		}
	}
	return false
}

// VisibleAsNew reports whether this job belongs in providerID's new-jobs
// feed: still pending and the provider was among the notified set.
func (j *Job) VisibleAsNew(providerID string) bool {
	return j.Status == StatusPending && j.NotifiedTo(providerID)
}

// VisibleAsOngoing reports whether this job belongs in providerID's
// ongoing-jobs feed: assigned to the provider and in the active range.
func (j *Job) VisibleAsOngoing(providerID string) bool {
	return j.ProviderID == providerID && j.Status.Active()
}
