package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/pkg/metrics"
)

// BackfillService fills in missing workshop coordinates from their addresses.
type BackfillService struct {
	workshops ports.WorkshopRepository
	geocoding *GeocodingService
	publisher ports.EventPublisher
}

// NewBackfillService creates a new BackfillService. publisher may be nil.
func NewBackfillService(workshops ports.WorkshopRepository, geocoding *GeocodingService, publisher ports.EventPublisher) *BackfillService {
	return &BackfillService{workshops: workshops, geocoding: geocoding, publisher: publisher}
}

// MissingLocation returns up to limit ids of active workshops without coordinates.
func (s *BackfillService) MissingLocation(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	workshops, err := s.workshops.ListMissingLocation(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list workshops missing location: %w", err)
	}
	ids := make([]string, 0, len(workshops))
	for _, w := range workshops {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

// BackfillWorkshop geocodes the street address of a workshop, falling back
// to its city, and stores the result. A workshop that already has a
// location is returned unchanged.
func (s *BackfillService) BackfillWorkshop(ctx context.Context, id string) (*domain.GeoPoint, error) {
	w, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workshop %s: %w", id, err)
	}
	if w.Location != nil {
		metrics.BackfillProcessed.WithLabelValues("skipped").Inc()
		return w.Location, nil
	}

	p, err := s.locate(ctx, w)
	if err != nil {
		metrics.BackfillProcessed.WithLabelValues("unresolved").Inc()
		return nil, err
	}

	if err := s.workshops.UpdateLocation(ctx, id, *p); err != nil {
		metrics.BackfillProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("update location of %s: %w", id, err)
	}
	metrics.BackfillProcessed.WithLabelValues("updated").Inc()
	slog.InfoContext(ctx, "workshop location backfilled", "workshop_id", id, "lat", p.Lat, "lon", p.Lon)

	if s.publisher != nil {
		update := &domain.WorkshopUpdate{WorkshopID: id, Reason: "geocoded", Location: p, UpdatedAt: time.Now().UTC()}
		if err := s.publisher.PublishWorkshopUpdated(ctx, update); err != nil {
			slog.WarnContext(ctx, "publish workshop update", "workshop_id", id, "error", err)
		}
	}
	return p, nil
}

func (s *BackfillService) locate(ctx context.Context, w *domain.Workshop) (*domain.GeoPoint, error) {
	var queries []string
	if addr := strings.TrimSpace(w.Address); addr != "" {
		if w.City != "" {
			addr += ", " + w.City
		}
		queries = append(queries, addr)
	}
	if city := strings.TrimSpace(w.City); city != "" {
		queries = append(queries, city)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: workshop %s has no address or city", domain.ErrInvalidInput, w.ID)
	}

	var lastErr error
	for _, q := range queries {
		p, err := s.geocoding.Resolve(ctx, q, "")
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("locate workshop %s: %w", w.ID, lastErr)
}
