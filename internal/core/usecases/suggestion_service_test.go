package usecases_test

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/usecases"
)

func TestSuggestions_RanksByFrequency(t *testing.T) {
	svc := usecases.NewSuggestionService(boxedRepo(sanJuanWorkshops()), nil)

	s, err := svc.Suggestions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.Services) != 3 {
		t.Fatalf("services = %+v", s.Services)
	}
	top := s.Services[0]
	if top.Value != "Oil Change" || top.Count != 3 || top.Type != "service" {
		t.Errorf("top service = %+v, want Oil Change x3", top)
	}
	// Ties keep first-seen order.
	if s.Services[1].Value != "Brake Repair" || s.Services[2].Value != "Transmission" {
		t.Errorf("services = %+v", s.Services)
	}
	if s.Brands[0].Value != "Toyota" || s.Brands[0].Count != 2 {
		t.Errorf("top brand = %+v", s.Brands[0])
	}
	if s.Cities[0].Value != "San Juan" || s.Cities[0].Count != 2 {
		t.Errorf("top city = %+v", s.Cities[0])
	}
	if len(s.PopularSearches) == 0 {
		t.Error("expected popular searches")
	}
}

func TestSuggestions_CachedUntilInvalidated(t *testing.T) {
	repo := boxedRepo(sanJuanWorkshops())
	cache := newMockCache()
	svc := usecases.NewSuggestionService(repo, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Suggestions(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if repo.listActiveCalls != 1 {
		t.Errorf("ListActive called %d times, want 1", repo.listActiveCalls)
	}

	svc.Invalidate(ctx)
	if _, err := svc.Suggestions(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listActiveCalls != 2 {
		t.Errorf("ListActive called %d times after invalidation, want 2", repo.listActiveCalls)
	}
}

func TestFilterOptions(t *testing.T) {
	svc := usecases.NewSuggestionService(boxedRepo(sanJuanWorkshops()), nil)

	opts, err := svc.FilterOptions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(opts.Services, []string{"Brake Repair", "Oil Change", "Transmission"}) {
		t.Errorf("Services = %v", opts.Services)
	}
	if !reflect.DeepEqual(opts.Specialties, []string{"Honda", "Toyota"}) {
		t.Errorf("Specialties = %v", opts.Specialties)
	}
	if !reflect.DeepEqual(opts.Cities, []string{"Ponce", "San Juan"}) {
		t.Errorf("Cities = %v", opts.Cities)
	}
	if !sort.IntsAreSorted(opts.RadiusOptions) || len(opts.RatingOptions) != 5 {
		t.Errorf("RadiusOptions = %v RatingOptions = %v", opts.RadiusOptions, opts.RatingOptions)
	}
	found := false
	for _, o := range opts.SortOptions {
		if o.Value == domain.SortByScore {
			found = true
		}
	}
	if !found {
		t.Error("score sort option missing")
	}
}

func TestCities(t *testing.T) {
	cities := usecases.NewSuggestionService(nil, nil).Cities()
	if len(cities) == 0 || cities[0].Name != "San Juan" {
		t.Fatalf("cities = %+v", cities)
	}
	for _, c := range cities {
		if c.Latitude < 17.8 || c.Latitude > 18.6 || c.Longitude < -67.3 || c.Longitude > -65.2 {
			t.Errorf("%s at (%v, %v) is outside Puerto Rico", c.Name, c.Latitude, c.Longitude)
		}
	}
}
