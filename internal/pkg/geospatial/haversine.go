package geospatial

import "math"

const (
	earthRadiusKm = 6371.0

	// kmPerDegree approximates the length of one degree of latitude.
	kmPerDegree = 111.0

	// DefaultAvgSpeedKmh is the urban driving speed used for travel estimates.
	DefaultAvgSpeedKmh = 40.0
)

// Haversine calculates the great-circle distance in kilometres between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Distance returns the haversine distance in kilometres rounded to two
// decimals. A missing (NaN or infinite) coordinate yields +Inf so that the
// point never falls inside any radius.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	for _, v := range [...]float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
	}
	return Round2(Haversine(lat1, lon1, lat2, lon2))
}

// EstimateTravelTime returns whole minutes to cover distanceKm at avgSpeedKmh.
// Any positive distance takes at least one minute.
func EstimateTravelTime(distanceKm, avgSpeedKmh float64) int {
	if distanceKm <= 0 || math.IsNaN(distanceKm) {
		return 0
	}
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = DefaultAvgSpeedKmh
	}
	minutes := int(distanceKm / avgSpeedKmh * 60)
	if minutes < 1 {
		return 1
	}
	return minutes
}

// IsValidCoordinate reports whether lat/lon are finite and within WGS 84 ranges.
func IsValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// BoundingBox returns a box around a point with the given radius in kilometres.
// The box is a coarse pre-filter and always contains the true circle for
// radii small against the Earth. Near the poles cos(lat) tends to zero and the
// longitude span becomes unbounded.
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusKm / kmPerDegree
	lonDelta := radiusKm / (kmPerDegree * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
