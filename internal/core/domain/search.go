package domain

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortByDistance  SortKey = "distance"
	SortByRating    SortKey = "rating"
	SortByReviews   SortKey = "reviews"
	SortByYears     SortKey = "years"
	SortByScore     SortKey = "score"
	SortByRelevance SortKey = "relevance" // alias of score
)

// SortOrder is "asc" or "desc". Score ordering ignores it.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchCriteria describes one workshop search. Either Latitude and
// Longitude or Address must be set.
type SearchCriteria struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	RadiusKm  float64  `json:"radius_km"`

	RequiredServices  []string `json:"required_services,omitempty"`
	PreferredServices []string `json:"preferred_services,omitempty"`
	MatchAllServices  *bool    `json:"match_all_services,omitempty"`

	CarBrands       []string `json:"car_brands,omitempty"`
	Specializations []string `json:"specializations,omitempty"`

	MinRating          *float64 `json:"min_rating,omitempty"`
	MinReviews         *int     `json:"min_reviews,omitempty"`
	VerifiedOnly       bool     `json:"verified_only"`
	MinYearsInBusiness *int     `json:"min_years_in_business,omitempty"`
	MaxYearsInBusiness *int     `json:"max_years_in_business,omitempty"`

	OpenNow   bool   `json:"open_now"`
	DayOfWeek string `json:"day_of_week,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`

	SortBy     SortKey   `json:"sort_by,omitempty"`
	SortOrder  SortOrder `json:"sort_order,omitempty"`
	MaxResults int       `json:"max_results,omitempty"`
	Offset     int       `json:"offset,omitempty"`
}

// MatchAll reports whether every required service must match. Defaults to true.
func (c SearchCriteria) MatchAll() bool {
	return c.MatchAllServices == nil || *c.MatchAllServices
}

// HasScheduleFilter reports whether the availability stage applies.
func (c SearchCriteria) HasScheduleFilter() bool {
	return c.OpenNow || c.DayOfWeek != "" || c.TimeOfDay != ""
}

// Attributes extracts the threshold filters that can be pushed to storage.
func (c SearchCriteria) Attributes() AttributeFilter {
	return AttributeFilter{
		MinRating:          c.MinRating,
		MinReviews:         c.MinReviews,
		VerifiedOnly:       c.VerifiedOnly,
		MinYearsInBusiness: c.MinYearsInBusiness,
		MaxYearsInBusiness: c.MaxYearsInBusiness,
	}
}

// AttributeFilter holds per-workshop thresholds. Nil fields do not filter.
type AttributeFilter struct {
	MinRating          *float64
	MinReviews         *int
	VerifiedOnly       bool
	MinYearsInBusiness *int
	MaxYearsInBusiness *int
}

// Matches reports whether w passes every set threshold. A workshop without
// a known tenure fails any tenure bound.
func (f AttributeFilter) Matches(w *Workshop) bool {
	if f.MinRating != nil && w.RatingAverage < *f.MinRating {
		return false
	}
	if f.MinReviews != nil && w.TotalReviews < *f.MinReviews {
		return false
	}
	if f.VerifiedOnly && !w.IsVerified {
		return false
	}
	if f.MinYearsInBusiness != nil && (w.YearsInBusiness == nil || *w.YearsInBusiness < *f.MinYearsInBusiness) {
		return false
	}
	if f.MaxYearsInBusiness != nil && (w.YearsInBusiness == nil || *w.YearsInBusiness > *f.MaxYearsInBusiness) {
		return false
	}
	return true
}

// ScoreBreakdown holds the weighted components of a relevance score.
type ScoreBreakdown struct {
	Proximity   float64 `json:"proximity"`
	Rating      float64 `json:"rating"`
	Reviews     float64 `json:"reviews"`
	FilterMatch float64 `json:"filter_match"`
	Verified    float64 `json:"verified"`
	Tenure      float64 `json:"tenure"`
}

// MatchMetadata accumulates per-candidate facts across filter stages.
type MatchMetadata struct {
	DistanceKm            float64
	MatchingServices      []string
	RequiredMatches       int
	PreferredMatches      int
	TotalMatches          int
	MatchingSpecialties   []string
	BrandMatches          int
	SpecializationMatches int
	Availability          *Availability
	Score                 float64
	Breakdown             ScoreBreakdown
}

// Candidate pairs a workshop with its match metadata during a search.
type Candidate struct {
	Workshop *Workshop
	Match    *MatchMetadata
}

// WorkshopResult is one ranked workshop in a search response.
type WorkshopResult struct {
	Workshop
	DistanceKm                 float64         `json:"distance_km"`
	EstimatedTravelTimeMinutes int             `json:"estimated_travel_time_minutes"`
	MatchingServices           []string        `json:"matching_services"`
	MatchingSpecialties        []string        `json:"matching_specialties"`
	SearchScore                float64         `json:"search_score"`
	ScoreBreakdown             *ScoreBreakdown `json:"score_breakdown,omitempty"`
	Availability               *Availability   `json:"availability,omitempty"`
}

// FiltersApplied echoes the filters of a search.
type FiltersApplied struct {
	Services     []string `json:"services"`
	CarBrands    []string `json:"car_brands"`
	MinRating    *float64 `json:"min_rating"`
	VerifiedOnly bool     `json:"verified_only"`
	OpenNow      bool     `json:"open_now"`
}

// SearchMetadata describes how results were ordered and cut.
type SearchMetadata struct {
	SortBy                 SortKey   `json:"sort_by"`
	SortOrder              SortOrder `json:"sort_order"`
	TotalWorkshopsInRadius int       `json:"total_workshops_in_radius"`
	Offset                 int       `json:"offset"`
	MaxResults             int       `json:"max_results"`
	Returned               int       `json:"returned"`
}

// SearchResult is the packaged outcome of a search.
type SearchResult struct {
	Workshops      []WorkshopResult `json:"workshops"`
	SearchCenter   GeoPoint         `json:"search_center"`
	TotalFound     int              `json:"total_found"`
	SearchRadiusKm float64          `json:"search_radius_km"`
	FiltersApplied FiltersApplied   `json:"filters_applied"`
	SearchMetadata SearchMetadata   `json:"search_metadata"`
}

// SearchEvent records a completed search for analytics consumers.
type SearchEvent struct {
	ID           string   `json:"id"`
	Center       GeoPoint `json:"center"`
	RadiusKm     float64  `json:"radius_km"`
	Services     []string `json:"services,omitempty"`
	CarBrands    []string `json:"car_brands,omitempty"`
	TotalFound   int      `json:"total_found"`
	DurationMs   int64    `json:"duration_ms"`
	GeocodedFrom string   `json:"geocoded_from,omitempty"`
}

// Suggestion is a searchable term with the number of workshops carrying it.
type Suggestion struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	DisplayText string `json:"display_text"`
	Count       int    `json:"count"`
}

// SearchSuggestions feeds search-box autocompletion.
type SearchSuggestions struct {
	Services        []Suggestion `json:"services"`
	Brands          []Suggestion `json:"brands"`
	Cities          []Suggestion `json:"cities"`
	PopularSearches []string     `json:"popular_searches"`
}

// SortOption is a selectable sort key with its display label.
type SortOption struct {
	Value SortKey `json:"value"`
	Label string  `json:"label"`
}

// FilterOptions lists the values a search UI may offer.
type FilterOptions struct {
	Services      []string     `json:"services"`
	Specialties   []string     `json:"specialties"`
	Cities        []string     `json:"cities"`
	RatingOptions []int        `json:"rating_options"`
	RadiusOptions []int        `json:"radius_options"`
	SortOptions   []SortOption `json:"sort_options"`
}
