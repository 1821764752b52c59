package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/pkg/metrics"
)

const (
	suggestionsCacheKey   = "workshops:suggestions"
	filterOptionsCacheKey = "workshops:filter-options"
	suggestionsTTLSeconds = 300
	suggestionsTopN       = 10
)

var popularSearches = []string{
	"Oil change nearby",
	"Workshop Toyota",
	"Mechanic open now",
	"Urgent brakes",
	"Verified workshop",
}

var referenceCities = []domain.City{
	{Name: "San Juan", Latitude: 18.4655, Longitude: -66.1057},
	{Name: "Bayamón", Latitude: 18.3964, Longitude: -66.1577},
	{Name: "Carolina", Latitude: 18.3809, Longitude: -65.9571},
	{Name: "Ponce", Latitude: 18.0113, Longitude: -66.6140},
	{Name: "Caguas", Latitude: 18.2342, Longitude: -66.0359},
	{Name: "Guaynabo", Latitude: 18.4178, Longitude: -66.1103},
	{Name: "Arecibo", Latitude: 18.4509, Longitude: -66.7151},
	{Name: "Toa Baja", Latitude: 18.4448, Longitude: -66.2540},
	{Name: "Mayagüez", Latitude: 18.2013, Longitude: -67.1397},
	{Name: "Trujillo Alto", Latitude: 18.3629, Longitude: -66.0115},
}

// SuggestionService derives search hints from the active workshop catalogue.
type SuggestionService struct {
	workshops ports.WorkshopRepository
	cache     ports.CacheService
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(workshops ports.WorkshopRepository, cache ports.CacheService) *SuggestionService {
	return &SuggestionService{workshops: workshops, cache: cache}
}

// Suggestions returns the most common services, specialties and cities.
func (s *SuggestionService) Suggestions(ctx context.Context) (*domain.SearchSuggestions, error) {
	var cached domain.SearchSuggestions
	if s.fromCache(ctx, suggestionsCacheKey, &cached) {
		return &cached, nil
	}

	workshops, err := s.workshops.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active workshops: %w", err)
	}

	services := newCounter()
	specialties := newCounter()
	cities := newCounter()
	for _, w := range workshops {
		for _, svc := range w.Services {
			services.add(svc)
		}
		for _, sp := range w.Specialties {
			specialties.add(sp)
		}
		if w.City != "" {
			cities.add(w.City)
		}
	}

	out := &domain.SearchSuggestions{
		Services:        services.top("service", suggestionsTopN),
		Brands:          specialties.top("brand", suggestionsTopN),
		Cities:          cities.top("city", suggestionsTopN),
		PopularSearches: popularSearches,
	}
	s.toCache(ctx, suggestionsCacheKey, out)
	return out, nil
}

// FilterOptions returns the sorted distinct values a search form can offer.
func (s *SuggestionService) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	var cached domain.FilterOptions
	if s.fromCache(ctx, filterOptionsCacheKey, &cached) {
		return &cached, nil
	}

	workshops, err := s.workshops.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active workshops: %w", err)
	}

	services := map[string]bool{}
	specialties := map[string]bool{}
	cities := map[string]bool{}
	for _, w := range workshops {
		for _, svc := range w.Services {
			services[svc] = true
		}
		for _, sp := range w.Specialties {
			specialties[sp] = true
		}
		if w.City != "" {
			cities[w.City] = true
		}
	}

	out := &domain.FilterOptions{
		Services:      sortedKeys(services),
		Specialties:   sortedKeys(specialties),
		Cities:        sortedKeys(cities),
		RatingOptions: []int{1, 2, 3, 4, 5},
		RadiusOptions: []int{5, 10, 15, 20, 25, 30, 50, 100},
		SortOptions: []domain.SortOption{
			{Value: domain.SortByDistance, Label: "Distance"},
			{Value: domain.SortByRating, Label: "Rating"},
			{Value: domain.SortByReviews, Label: "Number of reviews"},
			{Value: domain.SortByYears, Label: "Years in business"},
			{Value: domain.SortByScore, Label: "Relevance"},
		},
	}
	s.toCache(ctx, filterOptionsCacheKey, out)
	return out, nil
}

// Cities returns the reference cities with their centre coordinates.
func (s *SuggestionService) Cities() []domain.City {
	return referenceCities
}

// Invalidate drops cached suggestions after the catalogue changed.
func (s *SuggestionService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{suggestionsCacheKey, filterOptionsCacheKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "invalidate suggestions cache", "key", key, "error", err)
		}
	}
}

func (s *SuggestionService) fromCache(ctx context.Context, key string, v any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, v) == nil {
		metrics.CacheHits.WithLabelValues("suggestions").Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues("suggestions").Inc()
	return false
}

func (s *SuggestionService) toCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, suggestionsTTLSeconds)
	}
}

// counter tallies labels and remembers first-seen order for stable ties.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) top(kind string, n int) []domain.Suggestion {
	labels := append([]string(nil), c.order...)
	sort.SliceStable(labels, func(i, j int) bool {
		return c.counts[labels[i]] > c.counts[labels[j]]
	})
	if len(labels) > n {
		labels = labels[:n]
	}
	out := make([]domain.Suggestion, 0, len(labels))
	for _, l := range labels {
		out = append(out, domain.Suggestion{Type: kind, Value: l, DisplayText: l, Count: c.counts[l]})
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
