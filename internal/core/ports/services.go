package ports

import (
	"context"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// Geocoder resolves addresses against an external provider. A nil result
// with a nil error means the provider had no match.
type Geocoder interface {
	Forward(ctx context.Context, address, region string) (*domain.GeoPoint, error)
	Reverse(ctx context.Context, p domain.GeoPoint) (*domain.LocationInfo, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSearchPerformed(ctx context.Context, event *domain.SearchEvent) error
	PublishWorkshopUpdated(ctx context.Context, update *domain.WorkshopUpdate) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeWorkshopUpdates(ctx context.Context, handler func(ctx context.Context, update *domain.WorkshopUpdate) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
