package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/usecases"
)

func TestWorkshopService_GetByIDCaches(t *testing.T) {
	calls := 0
	repo := boxedRepo(sanJuanWorkshops())
	inner := repo.getByIDFn
	repo.getByIDFn = func(ctx context.Context, id string) (*domain.Workshop, error) {
		calls++
		return inner(ctx, id)
	}
	svc := usecases.NewWorkshopService(repo, newMockCache(), newEvaluator(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		w, err := svc.GetByID(ctx, "ws-near")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w.Name != "Taller Condado" {
			t.Errorf("Name = %q", w.Name)
		}
	}
	if calls != 1 {
		t.Errorf("repository called %d times, want 1", calls)
	}

	svc.Invalidate(ctx, "ws-near")
	if _, err := svc.GetByID(ctx, "ws-near"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("repository called %d times after invalidation, want 2", calls)
	}
}

func TestWorkshopService_NotFound(t *testing.T) {
	svc := usecases.NewWorkshopService(boxedRepo(nil), nil, nil, nil)

	_, err := svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrWorkshopNotFound) {
		t.Errorf("expected ErrWorkshopNotFound, got %v", err)
	}
}

func TestWorkshopService_Availability(t *testing.T) {
	svc := usecases.NewWorkshopService(boxedRepo(sanJuanWorkshops()), nil, newEvaluator(), nil)
	ctx := context.Background()

	av, err := svc.Availability(ctx, "ws-mid", "Monday", "10:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if av.IsOpenNow || av.NextOpenTime == nil || *av.NextOpenTime != "12:00" {
		t.Errorf("availability = %+v", av)
	}

	if _, err := svc.Availability(ctx, "ws-mid", "someday", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad day: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Availability(ctx, "ws-mid", "", "noon"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad time: expected ErrInvalidInput, got %v", err)
	}
}

func TestWorkshopService_Import(t *testing.T) {
	var stored []*domain.Workshop
	repo := &mockWorkshopRepo{
		upsertFn: func(ctx context.Context, w *domain.Workshop) error {
			stored = append(stored, w)
			return nil
		},
	}
	pub := &mockPublisher{}
	cache := newMockCache()
	svc := usecases.NewWorkshopService(repo, cache, nil, pub)

	n, err := svc.Import(context.Background(), []domain.Workshop{
		{ID: "ws-1", Name: "Taller Uno"},
		{Name: "Taller Dos", Location: &domain.GeoPoint{Lat: 18.2, Lon: -66.5}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(stored) != 2 {
		t.Fatalf("imported %d, stored %d, want 2", n, len(stored))
	}
	if stored[0].ID != "ws-1" {
		t.Errorf("existing id replaced: %q", stored[0].ID)
	}
	if _, err := uuid.Parse(stored[1].ID); err != nil {
		t.Errorf("assigned id %q is not a uuid: %v", stored[1].ID, err)
	}
	if len(pub.updates) != 2 || pub.updates[1].Reason != "imported" || pub.updates[1].Location == nil {
		t.Errorf("updates = %+v", pub.updates)
	}
	if len(cache.deleted) != 2 {
		t.Errorf("invalidated %v, want both workshops", cache.deleted)
	}
}

func TestWorkshopService_ImportRejectsUnnamed(t *testing.T) {
	svc := usecases.NewWorkshopService(&mockWorkshopRepo{}, nil, nil, nil)

	n, err := svc.Import(context.Background(), []domain.Workshop{{Name: "ok"}, {Name: " "}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if n != 1 {
		t.Errorf("imported %d before failing, want 1", n)
	}
}

func TestOnWorkshopUpdated(t *testing.T) {
	cache := newMockCache()
	workshops := usecases.NewWorkshopService(&mockWorkshopRepo{}, cache, nil, nil)
	suggestions := usecases.NewSuggestionService(&mockWorkshopRepo{}, cache)
	handle := usecases.OnWorkshopUpdated(workshops, suggestions)
	ctx := context.Background()

	if err := handle(ctx, &domain.WorkshopUpdate{WorkshopID: "ws-near", Reason: "geocoded"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{
		"workshops:id:ws-near":     true,
		"workshops:suggestions":    true,
		"workshops:filter-options": true,
	}
	for _, k := range cache.deleted {
		delete(want, k)
	}
	if len(want) != 0 {
		t.Errorf("keys not invalidated: %v (deleted %v)", want, cache.deleted)
	}

	if err := handle(ctx, &domain.WorkshopUpdate{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if err := handle(ctx, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil update, got %v", err)
	}
}
