package errors

import "errors"

var (
	ErrNotFound = errors.New("job not found")

	ErrAlreadyTaken = errors.New("job already taken by another provider")

	ErrNotEligible = errors.New("provider not eligible for this job")

	ErrInvalidTransition = errors.New("invalid job status transition")

	ErrOtpExpired = errors.New("completion code has expired")

	ErrOtpMismatch = errors.New("completion code does not match")

	ErrMalformedRecord = errors.New("job record is malformed")

	ErrInvalidCursor = errors.New("invalid page cursor")
)
