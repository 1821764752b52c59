package usecases

import (
	"fmt"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/pkg/geospatial"
)

// DistanceService measures point-to-point distances.
type DistanceService struct {
	avgSpeedKmh float64
}

// NewDistanceService creates a new DistanceService. A non-positive speed
// uses geospatial.DefaultAvgSpeedKmh.
func NewDistanceService(avgSpeedKmh float64) *DistanceService {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = geospatial.DefaultAvgSpeedKmh
	}
	return &DistanceService{avgSpeedKmh: avgSpeedKmh}
}

// Between returns the distance and estimated driving time between two points.
func (s *DistanceService) Between(lat1, lon1, lat2, lon2 float64) (domain.DistanceResult, error) {
	if !geospatial.IsValidCoordinate(lat1, lon1) || !geospatial.IsValidCoordinate(lat2, lon2) {
		return domain.DistanceResult{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
	}
	d := geospatial.Distance(lat1, lon1, lat2, lon2)
	return domain.DistanceResult{
		DistanceKm:                 d,
		EstimatedTravelTimeMinutes: geospatial.EstimateTravelTime(d, s.avgSpeedKmh),
	}, nil
}
