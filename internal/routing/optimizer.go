// Package routing computes suggested visit orders for a provider's jobs.
// It is pure: no I/O, no clock, deterministic for a given input.
package routing

import (
	"math"
	"time"

	"fixly/pkg/model"
)

const earthRadiusKm = 6371.0

// Optimizer orders jobs by greedy nearest-neighbor over great-circle
// distance. The result is a driving suggestion, not an optimal tour.
type Optimizer struct {
	avgSpeedKmh float64
}

func NewOptimizer(avgSpeedKmh float64) *Optimizer {
	return &Optimizer{avgSpeedKmh: avgSpeedKmh}
}

// Stop is one candidate visit. Jobs without coordinates cannot be ordered
// and end up in Route.Skipped.
type Stop struct {
	BookingID   string
	ServiceName string
	Coordinates *model.Coordinates
}

// Optimize builds a route from start through every locatable stop, always
// moving to the nearest unvisited one. An empty input yields an empty route
// with a perfect score; a single stop yields one waypoint with no
// distance-to-next leg.
func (o *Optimizer) Optimize(start model.Position, stops []Stop) *model.Route {
	route := &model.Route{
		Waypoints: []model.Waypoint{},
		Skipped:   nil,
	}

	remaining := make([]Stop, 0, len(stops))
	for _, stop := range stops {
		if stop.Coordinates == nil {
			route.Skipped = append(route.Skipped, stop.BookingID)
			continue
		}
		remaining = append(remaining, stop)
	}

	if len(remaining) == 0 {
		route.OptimizationScore = 1.0
		return route
	}

	// Worst case for the score: every job visited directly from the start.
	worstCase := 0.0
	for _, stop := range remaining {
		worstCase += haversineKm(start.Latitude, start.Longitude, stop.Coordinates.Latitude, stop.Coordinates.Longitude)
	}

	currentLat, currentLng := start.Latitude, start.Longitude
	total := 0.0

	for len(remaining) > 0 {
		nearest := 0
		nearestDist := haversineKm(currentLat, currentLng, remaining[0].Coordinates.Latitude, remaining[0].Coordinates.Longitude)
		for i := 1; i < len(remaining); i++ {
			d := haversineKm(currentLat, currentLng, remaining[i].Coordinates.Latitude, remaining[i].Coordinates.Longitude)
			if d < nearestDist {
				nearest = i
				nearestDist = d
			}
		}

		stop := remaining[nearest]
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)

		route.Waypoints = append(route.Waypoints, model.Waypoint{
			BookingID:        stop.BookingID,
			ServiceName:      stop.ServiceName,
			Coordinates:      *stop.Coordinates,
			DistanceFromPrev: nearestDist,
		})
		total += nearestDist
		currentLat, currentLng = stop.Coordinates.Latitude, stop.Coordinates.Longitude
	}

	// Fill in the leg to the next waypoint; the final stop has none.
	for i := 0; i < len(route.Waypoints)-1; i++ {
		leg := route.Waypoints[i+1].DistanceFromPrev
		route.Waypoints[i].DistanceToNextKm = leg
		route.Waypoints[i].DurationToNext = o.travelTime(leg)
	}

	route.TotalDistanceKm = total
	if len(route.Waypoints) == 1 {
		// A single stop is trivially optimal even though total and the
		// bound coincide.
		route.OptimizationScore = 1.0
	} else {
		route.OptimizationScore = score(total, worstCase)
	}
	return route
}

func (o *Optimizer) travelTime(distanceKm float64) time.Duration {
	if o.avgSpeedKmh <= 0 {
		return 0
	}
	hours := distanceKm / o.avgSpeedKmh
	return time.Duration(hours * float64(time.Hour))
}

// score compares the greedy total against the direct-from-start bound and
// clamps to [0, 1]. A single stop scores 1.0 because total and bound agree.
func score(total, worstCase float64) float64 {
	if worstCase <= 0 {
		return 1.0
	}
	s := 1.0 - total/worstCase
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
