package sanitizer

// NormalizeAmount clamps negative monetary values to zero. Prices come from
// the order-placement system and are occasionally serialized as negative
// sentinel values by old clients.
func NormalizeAmount(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	return amount
}
