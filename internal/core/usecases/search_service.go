package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/pkg/geospatial"
	"github.com/mechlink/mechlink/internal/pkg/metrics"
)

// SearchOptions holds the limits applied to every search.
type SearchOptions struct {
	MaxRadiusKm       float64
	DefaultMaxResults int
	MaxResultsLimit   int
	AvgSpeedKmh       float64
}

// DefaultSearchOptions returns the limits used when none are configured.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxRadiusKm:       200,
		DefaultMaxResults: 20,
		MaxResultsLimit:   100,
		AvgSpeedKmh:       geospatial.DefaultAvgSpeedKmh,
	}
}

// SearchService finds and ranks workshops around a point.
type SearchService struct {
	workshops    ports.WorkshopRepository
	geocoding    *GeocodingService
	availability *AvailabilityEvaluator
	publisher    ports.EventPublisher
	opts         SearchOptions
}

// NewSearchService creates a new SearchService. geocoding and publisher may be nil.
func NewSearchService(
	workshops ports.WorkshopRepository,
	geocoding *GeocodingService,
	availability *AvailabilityEvaluator,
	publisher ports.EventPublisher,
	opts SearchOptions,
) *SearchService {
	def := DefaultSearchOptions()
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = def.MaxRadiusKm
	}
	if opts.MaxResultsLimit <= 0 {
		opts.MaxResultsLimit = def.MaxResultsLimit
	}
	if opts.DefaultMaxResults <= 0 || opts.DefaultMaxResults > opts.MaxResultsLimit {
		opts.DefaultMaxResults = min(def.DefaultMaxResults, opts.MaxResultsLimit)
	}
	if opts.AvgSpeedKmh <= 0 {
		opts.AvgSpeedKmh = def.AvgSpeedKmh
	}
	if availability == nil {
		availability = NewAvailabilityEvaluator(nil, nil)
	}
	return &SearchService{
		workshops:    workshops,
		geocoding:    geocoding,
		availability: availability,
		publisher:    publisher,
		opts:         opts,
	}
}

// Search runs the full pipeline: resolve the origin, prune by bounding box,
// keep workshops within the exact radius, apply attribute, service,
// specialty and schedule filters, score, sort and paginate.
func (s *SearchService) Search(ctx context.Context, c domain.SearchCriteria) (*domain.SearchResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()

	res, err := s.search(ctx, c)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(outcomeOf(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcomeOf(err))
		return nil, err
	}
	metrics.SearchesTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.Float64("search.radius_km", res.SearchRadiusKm),
		attribute.Int("search.total_found", res.TotalFound),
	)

	s.publishSearch(ctx, c, res, time.Since(start))
	return res, nil
}

func (s *SearchService) search(ctx context.Context, c domain.SearchCriteria) (*domain.SearchResult, error) {
	c, day, err := s.normalize(c)
	if err != nil {
		return nil, err
	}

	center, err := s.resolveOrigin(ctx, c)
	if err != nil {
		return nil, err
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(center.Lat, center.Lon, c.RadiusKm)
	bounds := domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}

	attrs := c.Attributes()
	boxed, err := s.workshops.FindActiveInBounds(ctx, bounds, attrs)
	if err != nil {
		return nil, fmt.Errorf("find workshops in bounds: %w", err)
	}
	metrics.SearchCandidates.WithLabelValues("bounds").Observe(float64(len(boxed)))

	cands := make([]domain.Candidate, 0, len(boxed))
	for i := range boxed {
		w := &boxed[i]
		if w.Location == nil || !w.IsActive {
			continue
		}
		d := geospatial.Distance(center.Lat, center.Lon, w.Location.Lat, w.Location.Lon)
		if d > c.RadiusKm {
			continue
		}
		cands = append(cands, domain.Candidate{Workshop: w, Match: &domain.MatchMetadata{DistanceKm: d}})
	}
	inRadius := len(cands)
	metrics.SearchCandidates.WithLabelValues("radius").Observe(float64(inRadius))

	cands = FilterByAttributes(cands, attrs)
	if len(c.RequiredServices) > 0 || len(c.PreferredServices) > 0 {
		cands = FilterByServices(cands, c.RequiredServices, c.PreferredServices, c.MatchAll())
	}
	if len(c.CarBrands) > 0 || len(c.Specializations) > 0 {
		cands = FilterBySpecialties(cands, c.CarBrands, c.Specializations)
	}
	if c.HasScheduleFilter() {
		cands = FilterByAvailability(cands, s.availability, day, c.TimeOfDay, c.OpenNow)
	}
	metrics.SearchCandidates.WithLabelValues("filtered").Observe(float64(len(cands)))

	results := make([]domain.WorkshopResult, 0, len(cands))
	for _, cand := range cands {
		results = append(results, s.toResult(cand, c.RadiusKm))
	}

	SortResults(results, c.SortBy, c.SortOrder)

	total := len(results)
	page := paginate(results, c.Offset, c.MaxResults)

	return &domain.SearchResult{
		Workshops:      page,
		SearchCenter:   *center,
		TotalFound:     total,
		SearchRadiusKm: c.RadiusKm,
		FiltersApplied: domain.FiltersApplied{
			Services:     nonNil(c.RequiredServices),
			CarBrands:    nonNil(c.CarBrands),
			MinRating:    c.MinRating,
			VerifiedOnly: c.VerifiedOnly,
			OpenNow:      c.OpenNow,
		},
		SearchMetadata: domain.SearchMetadata{
			SortBy:                 c.SortBy,
			SortOrder:              c.SortOrder,
			TotalWorkshopsInRadius: inRadius,
			Offset:                 c.Offset,
			MaxResults:             c.MaxResults,
			Returned:               len(page),
		},
	}, nil
}

// Nearby returns one page of workshops within radiusKm of lat/lon, closest first.
func (s *SearchService) Nearby(ctx context.Context, lat, lon, radiusKm float64, offset, limit int) (*domain.SearchResult, error) {
	return s.Search(ctx, domain.SearchCriteria{
		Latitude:   &lat,
		Longitude:  &lon,
		RadiusKm:   radiusKm,
		SortBy:     domain.SortByDistance,
		SortOrder:  domain.SortAsc,
		MaxResults: limit,
		Offset:     offset,
	})
}

// SearchByServices returns workshops offering services, best matches first.
func (s *SearchService) SearchByServices(ctx context.Context, lat, lon, radiusKm float64, services []string, matchAll bool, limit int) (*domain.SearchResult, error) {
	if len(normalizeTerms(services)) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", domain.ErrInvalidInput)
	}
	return s.Search(ctx, domain.SearchCriteria{
		Latitude:         &lat,
		Longitude:        &lon,
		RadiusKm:         radiusKm,
		RequiredServices: services,
		MatchAllServices: &matchAll,
		SortBy:           domain.SortByScore,
		MaxResults:       limit,
	})
}

// SearchByBrand returns workshops specialised in brand, closest first.
func (s *SearchService) SearchByBrand(ctx context.Context, lat, lon, radiusKm float64, brand string, limit int) (*domain.SearchResult, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, fmt.Errorf("%w: car brand is required", domain.ErrInvalidInput)
	}
	return s.Search(ctx, domain.SearchCriteria{
		Latitude:   &lat,
		Longitude:  &lon,
		RadiusKm:   radiusKm,
		CarBrands:  []string{brand},
		SortBy:     domain.SortByDistance,
		SortOrder:  domain.SortAsc,
		MaxResults: limit,
	})
}

// SearchOpenNow returns workshops open on day at the given time (now when
// empty), closest first.
func (s *SearchService) SearchOpenNow(ctx context.Context, lat, lon, radiusKm float64, day, at string, limit int) (*domain.SearchResult, error) {
	return s.Search(ctx, domain.SearchCriteria{
		Latitude:   &lat,
		Longitude:  &lon,
		RadiusKm:   radiusKm,
		OpenNow:    true,
		DayOfWeek:  day,
		TimeOfDay:  at,
		SortBy:     domain.SortByDistance,
		SortOrder:  domain.SortAsc,
		MaxResults: limit,
	})
}

// normalize validates c and fills in defaults. It returns the parsed day.
func (s *SearchService) normalize(c domain.SearchCriteria) (domain.SearchCriteria, domain.Weekday, error) {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
	}

	if c.RadiusKm <= 0 || math.IsNaN(c.RadiusKm) || c.RadiusKm > s.opts.MaxRadiusKm {
		return c, "", invalid("radius_km must be in (0, %g], got %g", s.opts.MaxRadiusKm, c.RadiusKm)
	}

	switch {
	case c.MaxResults == 0:
		c.MaxResults = s.opts.DefaultMaxResults
	case c.MaxResults < 0 || c.MaxResults > s.opts.MaxResultsLimit:
		return c, "", invalid("max_results must be 1-%d, got %d", s.opts.MaxResultsLimit, c.MaxResults)
	}
	if c.Offset < 0 {
		return c, "", invalid("offset must not be negative")
	}

	if c.SortBy == "" {
		c.SortBy = domain.SortByDistance
	}
	switch c.SortBy {
	case domain.SortByDistance, domain.SortByRating, domain.SortByReviews,
		domain.SortByYears, domain.SortByScore, domain.SortByRelevance:
	default:
		return c, "", invalid("unknown sort_by %q", c.SortBy)
	}
	if c.SortOrder == "" {
		c.SortOrder = domain.SortAsc
	}
	if c.SortOrder != domain.SortAsc && c.SortOrder != domain.SortDesc {
		return c, "", invalid("sort_order must be asc or desc, got %q", c.SortOrder)
	}

	if c.MinRating != nil && (*c.MinRating < 0 || *c.MinRating > 5) {
		return c, "", invalid("min_rating must be 0-5")
	}
	if c.MinReviews != nil && *c.MinReviews < 0 {
		return c, "", invalid("min_reviews must not be negative")
	}
	if c.MinYearsInBusiness != nil && c.MaxYearsInBusiness != nil && *c.MinYearsInBusiness > *c.MaxYearsInBusiness {
		return c, "", invalid("min_years_in_business exceeds max_years_in_business")
	}

	var day domain.Weekday
	if c.DayOfWeek != "" {
		d, ok := domain.ParseWeekday(c.DayOfWeek)
		if !ok {
			return c, "", invalid("unknown day_of_week %q", c.DayOfWeek)
		}
		day = d
	}
	if c.TimeOfDay != "" {
		if _, err := ParseClock(c.TimeOfDay); err != nil {
			return c, "", invalid("time_of_day must be HH:MM, got %q", c.TimeOfDay)
		}
	}

	return c, day, nil
}

// resolveOrigin returns the explicit coordinate of c or geocodes its address.
func (s *SearchService) resolveOrigin(ctx context.Context, c domain.SearchCriteria) (*domain.GeoPoint, error) {
	if c.Latitude != nil && c.Longitude != nil {
		if !geospatial.IsValidCoordinate(*c.Latitude, *c.Longitude) {
			return nil, fmt.Errorf("%w: coordinates out of range (%v, %v)", domain.ErrInvalidInput, *c.Latitude, *c.Longitude)
		}
		return &domain.GeoPoint{Lat: *c.Latitude, Lon: *c.Longitude}, nil
	}
	if strings.TrimSpace(c.Address) == "" {
		return nil, fmt.Errorf("%w: coordinates or address required", domain.ErrInvalidInput)
	}
	if s.geocoding == nil {
		return nil, fmt.Errorf("%w: address search not configured", domain.ErrProviderUnavailable)
	}
	return s.geocoding.Resolve(ctx, c.Address, c.City)
}

func (s *SearchService) toResult(c domain.Candidate, radiusKm float64) domain.WorkshopResult {
	m := c.Match
	score, breakdown := Score(c.Workshop, m, radiusKm)
	m.Score, m.Breakdown = score, breakdown

	return domain.WorkshopResult{
		Workshop:                   *c.Workshop,
		DistanceKm:                 m.DistanceKm,
		EstimatedTravelTimeMinutes: geospatial.EstimateTravelTime(m.DistanceKm, s.opts.AvgSpeedKmh),
		MatchingServices:           nonNil(m.MatchingServices),
		MatchingSpecialties:        nonNil(m.MatchingSpecialties),
		SearchScore:                score,
		ScoreBreakdown:             &breakdown,
		Availability:               m.Availability,
	}
}

func (s *SearchService) publishSearch(ctx context.Context, c domain.SearchCriteria, res *domain.SearchResult, took time.Duration) {
	if s.publisher == nil {
		return
	}
	event := &domain.SearchEvent{
		ID:         uuid.NewString(),
		Center:     res.SearchCenter,
		RadiusKm:   res.SearchRadiusKm,
		Services:   c.RequiredServices,
		CarBrands:  c.CarBrands,
		TotalFound: res.TotalFound,
		DurationMs: took.Milliseconds(),
	}
	if c.Latitude == nil || c.Longitude == nil {
		event.GeocodedFrom = c.Address
	}
	if err := s.publisher.PublishSearchPerformed(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish search event", "error", err)
	}
}

func paginate(results []domain.WorkshopResult, offset, limit int) []domain.WorkshopResult {
	if offset >= len(results) {
		return []domain.WorkshopResult{}
	}
	end := min(offset+limit, len(results))
	return results[offset:end]
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrProviderUnavailable):
		return "origin_unresolved"
	default:
		return "error"
	}
}
