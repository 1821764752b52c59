package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/pkg/geospatial"
	"github.com/mechlink/mechlink/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/mechlink/mechlink/internal/core/usecases")

// GeocodingOptions configures a GeocodingService.
type GeocodingOptions struct {
	Timeout         time.Duration
	DefaultRegion   string
	CacheTTLSeconds int
}

// GeocodingService resolves addresses to coordinates and back.
type GeocodingService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	opts     GeocodingOptions
}

// NewGeocodingService creates a new GeocodingService.
func NewGeocodingService(geocoder ports.Geocoder, cache ports.CacheService, opts GeocodingOptions) *GeocodingService {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.CacheTTLSeconds <= 0 {
		opts.CacheTTLSeconds = 86400
	}
	return &GeocodingService{geocoder: geocoder, cache: cache, opts: opts}
}

// Resolve returns the coordinate of address within region (the default
// region when empty). It fails with domain.ErrNotFound when the provider has
// no match and domain.ErrProviderUnavailable when the provider errors or
// times out.
func (s *GeocodingService) Resolve(ctx context.Context, address, region string) (*domain.GeoPoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address must not be empty", domain.ErrInvalidInput)
	}
	if region = strings.TrimSpace(region); region == "" {
		region = s.opts.DefaultRegion
	}

	ctx, span := tracer.Start(ctx, "GeocodingService.Resolve")
	defer span.End()

	cacheKey := "geocode:fwd:" + strings.ToLower(address+"|"+region)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p domain.GeoPoint
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return &p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	p, err := s.geocoder.Forward(callCtx, address, region)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider error")
		slog.WarnContext(ctx, "geocoding failed", "address", address, "region", region, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if p == nil || !geospatial.IsValidCoordinate(p.Lat, p.Lon) {
		metrics.GeocodeRequests.WithLabelValues("forward", "not_found").Inc()
		return nil, fmt.Errorf("%w: no match for %q", domain.ErrNotFound, address)
	}
	metrics.GeocodeRequests.WithLabelValues("forward", "ok").Inc()
	span.SetAttributes(attribute.Float64("geo.lat", p.Lat), attribute.Float64("geo.lon", p.Lon))

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return p, nil
}

// Geocode resolves address within city and reports the outcome as a
// GeocodeResult. Failures are reported in the result, never as an error.
func (s *GeocodingService) Geocode(ctx context.Context, address, city string) domain.GeocodeResult {
	p, err := s.Resolve(ctx, address, city)
	if err != nil {
		msg := "could not geocode the provided address"
		if errors.Is(err, domain.ErrInvalidInput) {
			msg = "address is required"
		}
		return domain.GeocodeResult{Success: false, ErrorMessage: msg}
	}

	formatted := address
	if info, err := s.ReverseGeocode(ctx, p.Lat, p.Lon); err == nil && info.FormattedAddress != "" {
		formatted = info.FormattedAddress
	}

	return domain.GeocodeResult{
		Success:          true,
		Latitude:         p.Lat,
		Longitude:        p.Lon,
		FormattedAddress: formatted,
	}
}

// ReverseGeocode returns the address information at lat/lon.
func (s *GeocodingService) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.LocationInfo, error) {
	if !geospatial.IsValidCoordinate(lat, lon) {
		return nil, fmt.Errorf("%w: coordinates out of range (%v, %v)", domain.ErrInvalidInput, lat, lon)
	}

	ctx, span := tracer.Start(ctx, "GeocodingService.ReverseGeocode")
	defer span.End()

	cacheKey := fmt.Sprintf("geocode:rev:%.5f:%.5f", lat, lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var info domain.LocationInfo
			if err := json.Unmarshal(data, &info); err == nil {
				metrics.CacheHits.WithLabelValues("reverse_geocode").Inc()
				return &info, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("reverse_geocode").Inc()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	info, err := s.geocoder.Reverse(callCtx, domain.GeoPoint{Lat: lat, Lon: lon})
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider error")
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if info == nil {
		metrics.GeocodeRequests.WithLabelValues("reverse", "not_found").Inc()
		return nil, fmt.Errorf("%w: no address at (%v, %v)", domain.ErrNotFound, lat, lon)
	}
	metrics.GeocodeRequests.WithLabelValues("reverse", "ok").Inc()

	if s.cache != nil {
		if data, err := json.Marshal(info); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return info, nil
}
