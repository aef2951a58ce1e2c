// Package sanitizer provides input normalization for booking data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Phone numbers: convert to E.164 format (+[country][number])
//   - Names and addresses: collapse whitespace, trim leading/trailing spaces
//   - Service labels: lowercase after whitespace normalization
//   - Slices: remove duplicates and empty values after normalization
//   - Amounts: clamp negatives to zero
package sanitizer
