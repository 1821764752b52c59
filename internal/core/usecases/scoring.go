package usecases

import (
	"math"
	"sort"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/pkg/geospatial"
)

// Score weights. They sum to 100.
const (
	weightProximity   = 40.0
	weightRating      = 25.0
	weightReviews     = 10.0
	weightFilterMatch = 15.0
	weightVerified    = 5.0
	weightTenure      = 5.0

	reviewsSaturation = 50.0
	matchesSaturation = 3.0
	tenureSaturation  = 20.0
	maxRating         = 5.0
)

// Score computes a 0-100 relevance score for w given its match metadata and
// the search radius.
func Score(w *domain.Workshop, m *domain.MatchMetadata, radiusKm float64) (float64, domain.ScoreBreakdown) {
	var b domain.ScoreBreakdown

	if radiusKm > 0 && !math.IsInf(m.DistanceKm, 0) && !math.IsNaN(m.DistanceKm) {
		b.Proximity = weightProximity * clamp(1-m.DistanceKm/radiusKm, 0, 1)
	}
	b.Rating = weightRating * clamp(w.RatingAverage, 0, maxRating) / maxRating
	b.Reviews = weightReviews * clamp(float64(w.TotalReviews)/reviewsSaturation, 0, 1)
	b.FilterMatch = weightFilterMatch * clamp(float64(m.TotalMatches)/matchesSaturation, 0, 1)
	if w.IsVerified {
		b.Verified = weightVerified
	}
	if w.YearsInBusiness != nil {
		b.Tenure = weightTenure * clamp(float64(*w.YearsInBusiness)/tenureSaturation, 0, 1)
	}

	total := b.Proximity + b.Rating + b.Reviews + b.FilterMatch + b.Verified + b.Tenure

	b.Proximity = geospatial.Round2(b.Proximity)
	b.Rating = geospatial.Round2(b.Rating)
	b.Reviews = geospatial.Round2(b.Reviews)
	b.FilterMatch = geospatial.Round2(b.FilterMatch)
	b.Tenure = geospatial.Round2(b.Tenure)

	return geospatial.Round2(clamp(total, 0, 100)), b
}

// SortResults orders results in place by key. Score and relevance always
// sort descending; the other keys honour order. Ties keep input order.
func SortResults(results []domain.WorkshopResult, key domain.SortKey, order domain.SortOrder) {
	desc := order == domain.SortDesc

	var value func(r *domain.WorkshopResult) float64
	switch key {
	case domain.SortByRating:
		value = func(r *domain.WorkshopResult) float64 { return r.RatingAverage }
	case domain.SortByReviews:
		value = func(r *domain.WorkshopResult) float64 { return float64(r.TotalReviews) }
	case domain.SortByYears:
		value = func(r *domain.WorkshopResult) float64 {
			if r.YearsInBusiness == nil {
				return 0
			}
			return float64(*r.YearsInBusiness)
		}
	case domain.SortByScore, domain.SortByRelevance:
		value = func(r *domain.WorkshopResult) float64 { return r.SearchScore }
		desc = true
	default:
		value = func(r *domain.WorkshopResult) float64 { return r.DistanceKm }
	}

	sort.SliceStable(results, func(i, j int) bool {
		if desc {
			return value(&results[i]) > value(&results[j])
		}
		return value(&results[i]) < value(&results[j])
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
