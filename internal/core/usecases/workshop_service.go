package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/pkg/metrics"
)

// WorkshopService handles single-workshop reads and writes.
type WorkshopService struct {
	workshops    ports.WorkshopRepository
	cache        ports.CacheService
	availability *AvailabilityEvaluator
	publisher    ports.EventPublisher
}

// NewWorkshopService creates a new WorkshopService. cache and publisher may be nil.
func NewWorkshopService(
	workshops ports.WorkshopRepository,
	cache ports.CacheService,
	availability *AvailabilityEvaluator,
	publisher ports.EventPublisher,
) *WorkshopService {
	if availability == nil {
		availability = NewAvailabilityEvaluator(nil, nil)
	}
	return &WorkshopService{workshops: workshops, cache: cache, availability: availability, publisher: publisher}
}

// GetByID returns a single workshop.
func (s *WorkshopService) GetByID(ctx context.Context, id string) (*domain.Workshop, error) {
	cacheKey := "workshops:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var w domain.Workshop
			if err := json.Unmarshal(data, &w); err == nil {
				metrics.CacheHits.WithLabelValues("workshop").Inc()
				return &w, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("workshop").Inc()
	}

	w, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(w); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return w, nil
}

// Availability evaluates a workshop's schedule on day at the "HH:MM" time at.
// Empty values mean today and now.
func (s *WorkshopService) Availability(ctx context.Context, id, day, at string) (*domain.Availability, error) {
	var wd domain.Weekday
	if day != "" {
		d, ok := domain.ParseWeekday(day)
		if !ok {
			return nil, fmt.Errorf("%w: unknown day %q", domain.ErrInvalidInput, day)
		}
		wd = d
	}
	if at != "" {
		if _, err := ParseClock(at); err != nil {
			return nil, fmt.Errorf("%w: time must be HH:MM", domain.ErrInvalidInput)
		}
	}

	w, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	av := s.availability.Evaluate(w.WorkingHours, wd, at)
	return &av, nil
}

// Import upserts workshops, assigning ids where missing, and announces each
// change. It returns the number of workshops written.
func (s *WorkshopService) Import(ctx context.Context, workshops []domain.Workshop) (int, error) {
	n := 0
	for i := range workshops {
		w := &workshops[i]
		if strings.TrimSpace(w.Name) == "" {
			return n, fmt.Errorf("%w: workshop %d has no name", domain.ErrInvalidInput, i)
		}
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		if err := s.workshops.Upsert(ctx, w); err != nil {
			return n, fmt.Errorf("upsert workshop %s: %w", w.ID, err)
		}
		n++
		s.Invalidate(ctx, w.ID)
		s.announce(ctx, &domain.WorkshopUpdate{
			WorkshopID: w.ID,
			Reason:     "imported",
			Location:   w.Location,
			UpdatedAt:  time.Now().UTC(),
		})
	}
	return n, nil
}

// Invalidate drops the cached copy of a workshop.
func (s *WorkshopService) Invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, "workshops:id:"+id); err != nil {
		slog.WarnContext(ctx, "invalidate workshop cache", "workshop_id", id, "error", err)
	}
}

func (s *WorkshopService) announce(ctx context.Context, u *domain.WorkshopUpdate) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishWorkshopUpdated(ctx, u); err != nil {
		slog.WarnContext(ctx, "publish workshop update", "workshop_id", u.WorkshopID, "error", err)
	}
}

// OnWorkshopUpdated returns a handler for workshop update events that drops
// every cached view derived from the changed workshop.
func OnWorkshopUpdated(workshops *WorkshopService, suggestions *SuggestionService) func(context.Context, *domain.WorkshopUpdate) error {
	return func(ctx context.Context, u *domain.WorkshopUpdate) error {
		metrics.WorkshopUpdatesReceived.Inc()
		if u == nil || u.WorkshopID == "" {
			return fmt.Errorf("%w: update without workshop id", domain.ErrInvalidInput)
		}
		if workshops != nil {
			workshops.Invalidate(ctx, u.WorkshopID)
		}
		if suggestions != nil {
			suggestions.Invalidate(ctx)
		}
		slog.DebugContext(ctx, "workshop caches invalidated", "workshop_id", u.WorkshopID, "reason", u.Reason)
		return nil
	}
}
