package model

import "time"

// Position is a provider's current location.
type Position struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Waypoint is one stop on an optimized route. DistanceToNextKm and
// DurationToNext describe the leg from this stop to the following one and
// are zero on the final stop.
type Waypoint struct {
	BookingID        string        `json:"booking_id"`
	ServiceName      string        `json:"service_name"`
	Coordinates      Coordinates   `json:"coordinates"`
	DistanceFromPrev float64       `json:"distance_from_prev_km"`
	DistanceToNextKm float64       `json:"distance_to_next_km"`
	DurationToNext   time.Duration `json:"duration_to_next_ns"`
}

// Route is the ephemeral result of route optimization. It is recomputed on
// demand and never persisted.
//
// OptimizationScore is a heuristic quality signal in [0,1], not an
// optimality proof: it compares the greedy route's total distance against
// the sum of direct start-to-job distances, a deliberately crude upper
// bound rather than a true worst-case permutation.
type Route struct {
	Waypoints         []Waypoint `json:"waypoints"`
	Skipped           []string   `json:"skipped,omitempty"`
	TotalDistanceKm   float64    `json:"total_distance_km"`
	OptimizationScore float64    `json:"optimization_score"`
}
