package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/mechlink/mechlink/internal/core/usecases"
)

// Pinger is a backing store that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SearchDefaults are the request defaults applied before a body or query
// string is parsed.
type SearchDefaults struct {
	RadiusKm   float64
	MaxResults int
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Search      *usecases.SearchService
	Geocoding   *usecases.GeocodingService
	Distance    *usecases.DistanceService
	Suggestions *usecases.SuggestionService
	Workshops   *usecases.WorkshopService
	Defaults    SearchDefaults
	NATS        *nats.Conn
	DB          Pinger
	Cache       Pinger
}

func (d *Dependencies) defaultRadius() float64 {
	if d.Defaults.RadiusKm > 0 {
		return d.Defaults.RadiusKm
	}
	return 25
}
