package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// --- Mock WorkshopRepository ---

type mockWorkshopRepo struct {
	findInBoundsFn   func(ctx context.Context, b domain.Bounds, f domain.AttributeFilter) ([]domain.Workshop, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.Workshop, error)
	listActiveFn     func(ctx context.Context) ([]domain.Workshop, error)
	listMissingFn    func(ctx context.Context, limit int) ([]domain.Workshop, error)
	updateLocationFn func(ctx context.Context, id string, loc domain.GeoPoint) error
	upsertFn         func(ctx context.Context, w *domain.Workshop) error

	listActiveCalls int
}

func (m *mockWorkshopRepo) FindActiveInBounds(ctx context.Context, b domain.Bounds, f domain.AttributeFilter) ([]domain.Workshop, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, b, f)
	}
	return nil, nil
}

func (m *mockWorkshopRepo) GetByID(ctx context.Context, id string) (*domain.Workshop, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrWorkshopNotFound
}

func (m *mockWorkshopRepo) ListActive(ctx context.Context) ([]domain.Workshop, error) {
	m.listActiveCalls++
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

func (m *mockWorkshopRepo) ListMissingLocation(ctx context.Context, limit int) ([]domain.Workshop, error) {
	if m.listMissingFn != nil {
		return m.listMissingFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockWorkshopRepo) UpdateLocation(ctx context.Context, id string, loc domain.GeoPoint) error {
	if m.updateLocationFn != nil {
		return m.updateLocationFn(ctx, id, loc)
	}
	return nil
}

func (m *mockWorkshopRepo) Upsert(ctx context.Context, w *domain.Workshop) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, w)
	}
	return nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	forwardFn func(ctx context.Context, address, region string) (*domain.GeoPoint, error)
	reverseFn func(ctx context.Context, p domain.GeoPoint) (*domain.LocationInfo, error)

	forwardCalls int
}

func (m *mockGeocoder) Forward(ctx context.Context, address, region string) (*domain.GeoPoint, error) {
	m.forwardCalls++
	if m.forwardFn != nil {
		return m.forwardFn(ctx, address, region)
	}
	return nil, nil
}

func (m *mockGeocoder) Reverse(ctx context.Context, p domain.GeoPoint) (*domain.LocationInfo, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return nil, nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	searchErr error
	searches  []*domain.SearchEvent
	updates   []*domain.WorkshopUpdate
}

func (m *mockPublisher) PublishSearchPerformed(ctx context.Context, event *domain.SearchEvent) error {
	m.searches = append(m.searches, event)
	return m.searchErr
}

func (m *mockPublisher) PublishWorkshopUpdated(ctx context.Context, update *domain.WorkshopUpdate) error {
	m.updates = append(m.updates, update)
	return nil
}

// --- Fixtures ---

// Monday 2024-01-15 10:30 UTC.
var fixedNow = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func sanJuanWorkshops() []domain.Workshop {
	return []domain.Workshop{
		{
			ID:              "ws-near",
			Name:            "Taller Condado",
			City:            "San Juan",
			Location:        &domain.GeoPoint{Lat: 18.4655, Lon: -66.1057},
			Services:        []string{"Oil Change", "Brake Repair"},
			Specialties:     []string{"Toyota"},
			WorkingHours:    domain.WeeklySchedule{domain.Monday: "08:00-17:00"},
			RatingAverage:   4.5,
			TotalReviews:    30,
			YearsInBusiness: ptr(12),
			IsActive:        true,
			IsVerified:      true,
		},
		{
			ID:            "ws-mid",
			Name:          "Mecánica Santurce",
			City:          "San Juan",
			Location:      &domain.GeoPoint{Lat: 18.4745, Lon: -66.1057},
			Services:      []string{"Oil Change"},
			Specialties:   []string{"Honda"},
			WorkingHours:  domain.WeeklySchedule{domain.Monday: "12:00-18:00"},
			RatingAverage: 4.9,
			TotalReviews:  80,
			IsActive:      true,
		},
		{
			ID:            "ws-far",
			Name:          "Garage del Sur",
			City:          "Ponce",
			Location:      &domain.GeoPoint{Lat: 18.0111, Lon: -66.6141},
			Services:      []string{"Oil Change", "Transmission"},
			Specialties:   []string{"Toyota"},
			RatingAverage: 5,
			TotalReviews:  200,
			IsActive:      true,
			IsVerified:    true,
		},
	}
}

// boxedRepo serves workshops inside the requested bounds, like the database does.
func boxedRepo(workshops []domain.Workshop) *mockWorkshopRepo {
	return &mockWorkshopRepo{
		findInBoundsFn: func(ctx context.Context, b domain.Bounds, f domain.AttributeFilter) ([]domain.Workshop, error) {
			var out []domain.Workshop
			for _, w := range workshops {
				if w.Location != nil && b.Contains(*w.Location) {
					out = append(out, w)
				}
			}
			return out, nil
		},
		getByIDFn: func(ctx context.Context, id string) (*domain.Workshop, error) {
			for _, w := range workshops {
				if w.ID == id {
					w := w
					return &w, nil
				}
			}
			return nil, domain.ErrWorkshopNotFound
		},
		listActiveFn: func(ctx context.Context) ([]domain.Workshop, error) {
			return workshops, nil
		},
	}
}
