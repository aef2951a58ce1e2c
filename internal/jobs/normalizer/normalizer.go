// Package normalizer maps raw booking documents, in any of the shapes the
// order-placement system has produced over time, to the canonical Job read
// model. It is pure: no I/O, no clock, no mutation of its input.
package normalizer

import (
	"fmt"
	"time"

	jobserrors "fixly/internal/jobs/errors"
	"fixly/pkg/model"
	"fixly/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeDocument walks a raw customer document and yields one Job per
// well-formed booking. Documents come in two shapes: a bookings[] array, or a
// legacy single booking at the root. Malformed entries are returned as errors
// alongside the good ones; one bad booking never fails the batch.
func NormalizeDocument(raw bson.M) ([]*model.Job, []error) {
	customerPhone := stringField(raw, "customer_phone", "customerPhone", "phone")

	if rawBookings, ok := arrayField(raw, "bookings"); ok {
		jobs := make([]*model.Job, 0, len(rawBookings))
		var errs []error
		for i, item := range rawBookings {
			entry, ok := asDocument(item)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: bookings[%d] is not a document", jobserrors.ErrMalformedRecord, i))
				continue
			}
			job, err := NormalizeBooking(entry, customerPhone)
			if err != nil {
				errs = append(errs, fmt.Errorf("bookings[%d]: %w", i, err))
				continue
			}
			jobs = append(jobs, job)
		}
		return jobs, errs
	}

	// Legacy shape: the booking fields live at the document root.
	job, err := NormalizeBooking(raw, customerPhone)
	if err != nil {
		return nil, []error{err}
	}
	return []*model.Job{job}, nil
}

// NormalizeBooking maps one raw booking entry to a Job. A missing booking id
// is the one unrecoverable defect; everything else gets a default.
func NormalizeBooking(raw bson.M, fallbackPhone string) (*model.Job, error) {
	bookingID := stringField(raw, "booking_id", "bookingId")
	if bookingID == "" {
		return nil, fmt.Errorf("%w: missing booking id", jobserrors.ErrMalformedRecord)
	}

	phone := stringField(raw, "customer_phone", "customerPhone", "phone")
	if phone == "" {
		phone = fallbackPhone
	}

	status, _ := model.ParseStatus(stringField(raw, "status", "bookingStatus"))

	job := &model.Job{
		BookingID:           bookingID,
		CustomerPhone:       sanitizer.NormalizePhone(phone),
		CustomerName:        sanitizer.NormalizeName(stringField(raw, "customer_name", "customerName", "name")),
		ServiceName:         sanitizer.NormalizeServiceName(stringField(raw, "service_name", "serviceName")),
		SubServices:         sanitizer.NormalizeSubServices(stringSliceField(raw, "sub_services", "subServices")),
		TotalPrice:          sanitizer.NormalizeAmount(numberField(raw, "total_price", "totalPrice")),
		Address:             sanitizer.NormalizeAddress(stringField(raw, "address")),
		Status:              status,
		NotifiedProviderIDs: sanitizer.NormalizeProviderIDs(stringSliceField(raw, "notified_provider_ids", "notifiedProviderIds")),
		ProviderID:          stringField(raw, "provider_id", "providerId", "acceptedByProviderId"),
		Coordinates:         coordinatesField(raw),
		PaymentMode:         stringField(raw, "payment_mode", "paymentMode"),
		PaymentStatus:       stringField(raw, "payment_status", "paymentStatus"),
		CreatedAt:           timeField(raw, "created_at", "createdAt"),
		AcceptedAt:          timePtrField(raw, "accepted_at", "acceptedAt"),
		ArrivedAt:           timePtrField(raw, "arrived_at", "arrivedAt"),
		ServiceStartedAt:    timePtrField(raw, "service_started_at", "serviceStartedAt"),
		CompletedAt:         timePtrField(raw, "completed_at", "completedAt"),
	}

	if payment, ok := documentField(raw, "payment"); ok {
		if job.PaymentMode == "" {
			job.PaymentMode = stringField(payment, "mode")
		}
		if job.PaymentStatus == "" {
			job.PaymentStatus = stringField(payment, "status")
		}
		job.PaymentAmount = numberField(payment, "amount")
	}
	if job.PaymentAmount == 0 {
		job.PaymentAmount = job.TotalPrice
	}

	return job, nil
}

// FromBooking derives the Job read model from an authoritative Booking
// record. Repositories decode into Booking; everything above the service
// boundary sees Jobs.
func FromBooking(b *model.Booking) *model.Job {
	return &model.Job{
		BookingID:           b.BookingID,
		CustomerPhone:       b.CustomerPhone,
		CustomerName:        b.CustomerName,
		ServiceName:         b.ServiceName,
		SubServices:         b.SubServices,
		TotalPrice:          b.TotalPrice,
		Address:             b.Address,
		Status:              b.Status,
		Version:             b.Version,
		NotifiedProviderIDs: b.NotifiedProviderIDs,
		ProviderID:          b.ProviderID,
		Coordinates:         b.Coordinates,
		PaymentMode:         b.Payment.Mode,
		PaymentAmount:       b.Payment.Amount,
		PaymentStatus:       b.Payment.Status,
		CreatedAt:           b.CreatedAt,
		AcceptedAt:          b.AcceptedAt,
		ArrivedAt:           b.ArrivedAt,
		ServiceStartedAt:    b.ServiceStartedAt,
		CompletedAt:         b.CompletedAt,
	}
}

// FromBookings maps a result set, preserving order.
func FromBookings(bookings []*model.Booking) []*model.Job {
	jobs := make([]*model.Job, 0, len(bookings))
	for _, b := range bookings {
		jobs = append(jobs, FromBooking(b))
	}
	return jobs
}

// ToBooking converts a normalized Job back into an authoritative Booking
// record. Used by the legacy backfill, which reads nested customer documents
// through NormalizeDocument and re-homes each booking as a flat record.
func ToBooking(j *model.Job) *model.Booking {
	return &model.Booking{
		BookingID:           j.BookingID,
		CustomerPhone:       j.CustomerPhone,
		CustomerName:        j.CustomerName,
		ServiceName:         j.ServiceName,
		SubServices:         j.SubServices,
		TotalPrice:          j.TotalPrice,
		Address:             j.Address,
		Status:              j.Status,
		Version:             j.Version,
		NotifiedProviderIDs: j.NotifiedProviderIDs,
		ProviderID:          j.ProviderID,
		Coordinates:         j.Coordinates,
		Payment: model.Payment{
			Mode:   j.PaymentMode,
			Amount: j.PaymentAmount,
			Status: j.PaymentStatus,
		},
		CreatedAt:        j.CreatedAt,
		AcceptedAt:       j.AcceptedAt,
		ArrivedAt:        j.ArrivedAt,
		ServiceStartedAt: j.ServiceStartedAt,
		CompletedAt:      j.CompletedAt,
	}
}

func stringField(raw bson.M, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				return sanitizer.TrimAndNormalize(s)
			}
		}
	}
	return ""
}

// numberField accepts any numeric BSON/JSON representation.
func numberField(raw bson.M, keys ...string) float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int32:
			return float64(n)
		case int64:
			return float64(n)
		case primitive.Decimal128:
			if f, err := parseDecimal128(n); err == nil {
				return f
			}
		}
	}
	return 0
}

func parseDecimal128(d primitive.Decimal128) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(d.String(), "%g", &f)
	return f, err
}

func arrayField(raw bson.M, key string) ([]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	switch arr := v.(type) {
	case primitive.A:
		return []any(arr), true
	case []any:
		return arr, true
	}
	return nil, false
}

func asDocument(v any) (bson.M, bool) {
	switch doc := v.(type) {
	case bson.M:
		return doc, true
	case map[string]any:
		return bson.M(doc), true
	case bson.D:
		return doc.Map(), true
	}
	return nil, false
}

func documentField(raw bson.M, key string) (bson.M, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	return asDocument(v)
}

func stringSliceField(raw bson.M, keys ...string) []string {
	for _, key := range keys {
		arr, ok := arrayField(raw, key)
		if !ok {
			continue
		}
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// coordinatesField extracts a complete lat/lng pair. Half pairs and
// non-numeric values yield nil; a Job either has both coordinates or none.
func coordinatesField(raw bson.M) *model.Coordinates {
	src := raw
	if nested, ok := documentField(raw, "coordinates"); ok {
		src = nested
	}

	lat, latOK := numberFieldOK(src, "latitude", "lat")
	lng, lngOK := numberFieldOK(src, "longitude", "lng", "long")
	if !latOK || !lngOK {
		return nil
	}
	return &model.Coordinates{Latitude: lat, Longitude: lng}
}

func numberFieldOK(raw bson.M, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int32:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

func timeField(raw bson.M, keys ...string) time.Time {
	if t := timePtrField(raw, keys...); t != nil {
		return *t
	}
	return time.Time{}
}

func timePtrField(raw bson.M, keys ...string) *time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			out := t
			return &out
		case primitive.DateTime:
			out := t.Time()
			return &out
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return &parsed
			}
		}
	}
	return nil
}
