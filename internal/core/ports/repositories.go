package ports

import (
	"context"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// WorkshopRepository persists workshops.
type WorkshopRepository interface {
	// FindActiveInBounds returns active, located workshops inside b that pass f.
	// The box is a pre-filter; callers apply exact distance themselves.
	FindActiveInBounds(ctx context.Context, b domain.Bounds, f domain.AttributeFilter) ([]domain.Workshop, error)
	GetByID(ctx context.Context, id string) (*domain.Workshop, error)
	ListActive(ctx context.Context) ([]domain.Workshop, error)
	ListMissingLocation(ctx context.Context, limit int) ([]domain.Workshop, error)
	UpdateLocation(ctx context.Context, id string, loc domain.GeoPoint) error
	Upsert(ctx context.Context, w *domain.Workshop) error
}
