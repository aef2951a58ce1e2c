package http

import (
	"net/http"
	"strconv"

	"fixly/pkg/config"
	apperrors "fixly/pkg/errors"
)

// ExtractLimit reads and normalizes the limit query parameter.
func ExtractLimit(r *http.Request) (int, error) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}
	return config.NormalizePaginationLimit(limit), nil
}

// ExtractProviderID reads the mandatory provider_id query parameter.
func ExtractProviderID(r *http.Request) (string, error) {
	providerID := r.URL.Query().Get("provider_id")
	if providerID == "" {
		return "", apperrors.InvalidInput("provider_id query parameter is required")
	}
	return providerID, nil
}
