package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// NewLocation builds a GeoPoint from nullable storage columns. A workshop
// has a location only when both values are present.
func NewLocation(lat, lon *float64) *GeoPoint {
	if lat == nil || lon == nil {
		return nil
	}
	return &GeoPoint{Lat: *lat, Lon: *lon}
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// LocationInfo is the result of a reverse geocoding lookup.
type LocationInfo struct {
	FormattedAddress string `json:"formatted_address"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	Country          string `json:"country,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`
}

// GeocodeResult is the outcome of resolving a free-text address.
type GeocodeResult struct {
	Success          bool    `json:"success"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
}

// DistanceResult is the distance between two points plus a driving estimate.
type DistanceResult struct {
	DistanceKm                 float64 `json:"distance_km"`
	EstimatedTravelTimeMinutes int     `json:"estimated_travel_time_minutes"`
}

// City is a reference city with its centre coordinate.
type City struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
