package http

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// AdvancedSearchHandler runs a full multi-criteria search from a JSON body.
func AdvancedSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		criteria := domain.SearchCriteria{RadiusKm: deps.defaultRadius()}
		if err := c.BodyParser(&criteria); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if criteria.Latitude == nil && criteria.Longitude == nil && strings.TrimSpace(criteria.Address) == "" {
			return errBadRequest(c, "latitude/longitude or address is required")
		}

		res, err := deps.Search.Search(c.UserContext(), criteria)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// BasicSearchHandler is the query-string search kept for older clients.
// services is a comma-separated list of which any one must match.
func BasicSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		radius, err := queryFloat(c, "radius_km", 10)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		maxResults, err := queryInt(c, "max_results", deps.Defaults.MaxResults)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		matchAny := false
		criteria := domain.SearchCriteria{
			Address:          c.Query("address"),
			City:             c.Query("city", "Puerto Rico"),
			RadiusKm:         radius,
			MaxResults:       maxResults,
			RequiredServices: splitList(c.Query("services")),
			MatchAllServices: &matchAny,
			VerifiedOnly:     c.QueryBool("verified_only", false),
			SortBy:           domain.SortByDistance,
			SortOrder:        domain.SortAsc,
		}
		if c.Query("latitude") != "" && c.Query("longitude") != "" {
			lat, lon, err := queryPoint(c, "latitude", "longitude")
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			criteria.Latitude, criteria.Longitude = &lat, &lon
		} else if strings.TrimSpace(criteria.Address) == "" {
			return errBadRequest(c, "latitude/longitude or address is required")
		}
		if c.Query("min_rating") != "" {
			r, err := queryFloat(c, "min_rating", 0)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			criteria.MinRating = &r
		}

		res, err := deps.Search.Search(c.UserContext(), criteria)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// NearbyHandler returns a page of workshops around a point, closest first.
func NearbyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("latitude") == "" || c.Query("longitude") == "" {
			return errBadRequest(c, "latitude and longitude are required")
		}
		lat, lon, err := queryPoint(c, "latitude", "longitude")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius, err := queryFloat(c, "radius_km", 10)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		limit, err := queryInt(c, "limit", deps.Defaults.MaxResults)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		offset, err := queryInt(c, "offset", 0)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		res, err := deps.Search.Nearby(c.UserContext(), lat, lon, radius, offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		SetLinkHeaders(c, res.TotalFound, res.SearchMetadata)
		return c.JSON(res)
	}
}

type servicesSearchRequest struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	RadiusKm         float64  `json:"radius_km"`
	Services         []string `json:"services"`
	MatchAllServices bool     `json:"match_all_services"`
	MaxResults       int      `json:"max_results"`
}

// SearchByServicesHandler ranks workshops by how well they cover the
// requested services.
func SearchByServicesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := servicesSearchRequest{RadiusKm: 20, MatchAllServices: true}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}

		res, err := deps.Search.SearchByServices(c.UserContext(), *req.Latitude, *req.Longitude,
			req.RadiusKm, req.Services, req.MatchAllServices, req.MaxResults)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

type brandSearchRequest struct {
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	RadiusKm   float64  `json:"radius_km"`
	CarBrand   string   `json:"car_brand"`
	MaxResults int      `json:"max_results"`
}

// SearchByBrandHandler returns workshops specialised in one car brand.
func SearchByBrandHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := brandSearchRequest{RadiusKm: 30}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}

		res, err := deps.Search.SearchByBrand(c.UserContext(), *req.Latitude, *req.Longitude,
			req.RadiusKm, req.CarBrand, req.MaxResults)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

type openNowSearchRequest struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusKm    float64  `json:"radius_km"`
	CurrentTime string   `json:"current_time"`
	DayOfWeek   string   `json:"day_of_week"`
	MaxResults  int      `json:"max_results"`
}

// SearchOpenNowHandler returns workshops open at the given or current time.
func SearchOpenNowHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := openNowSearchRequest{RadiusKm: 25}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}

		res, err := deps.Search.SearchOpenNow(c.UserContext(), *req.Latitude, *req.Longitude,
			req.RadiusKm, req.DayOfWeek, req.CurrentTime, req.MaxResults)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

type geocodeRequest struct {
	Address string `json:"address"`
	City    string `json:"city"`
}

// GeocodeHandler resolves an address. An unresolvable address is reported
// in the body with success=false, not as an HTTP error.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := geocodeRequest{City: "Puerto Rico"}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(strings.TrimSpace(req.Address)) < 5 {
			return errBadRequest(c, "address must be at least 5 characters")
		}
		if len(req.Address) > 200 {
			return errBadRequest(c, "address too long (max 200 characters)")
		}
		return c.JSON(deps.Geocoding.Geocode(c.UserContext(), req.Address, req.City))
	}
}

// ReverseGeocodeHandler describes the place at a coordinate.
func ReverseGeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("latitude") == "" || c.Query("longitude") == "" {
			return errBadRequest(c, "latitude and longitude are required")
		}
		lat, lon, err := queryPoint(c, "latitude", "longitude")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		info, err := deps.Geocoding.ReverseGeocode(c.UserContext(), lat, lon)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(info)
	}
}

// DistanceHandler returns the great-circle distance between two points and
// an estimated driving time.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, p := range []string{"lat1", "lon1", "lat2", "lon2"} {
			if c.Query(p) == "" {
				return errBadRequest(c, "lat1, lon1, lat2 and lon2 are required")
			}
		}
		lat1, lon1, err := queryPoint(c, "lat1", "lon1")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lat2, lon2, err := queryPoint(c, "lat2", "lon2")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		res, err := deps.Distance.Between(lat1, lon1, lat2, lon2)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// CitiesHandler lists the reference cities with their centre coordinates.
func CitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Suggestions.Cities())
	}
}

// SearchSuggestionsHandler feeds search-box autocompletion.
func SearchSuggestionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Suggestions.Suggestions(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(s)
	}
}

// FilterOptionsHandler lists the values a search form can offer.
func FilterOptionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := deps.Suggestions.FilterOptions(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(opts)
	}
}

// GetWorkshopHandler returns a single workshop by ID.
func GetWorkshopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := deps.Workshops.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(w)
	}
}

// WorkshopAvailabilityHandler evaluates a workshop's opening hours for
// ?day=&time=, defaulting to now.
func WorkshopAvailabilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		av, err := deps.Workshops.Availability(c.UserContext(), c.Params("id"), c.Query("day"), c.Query("time"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(av)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// queryFloat parses an optional numeric query parameter. Unlike
// fiber's QueryFloat it rejects malformed text instead of falling back
// to def.
func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func queryPoint(c *fiber.Ctx, latKey, lonKey string) (lat, lon float64, err error) {
	if lat, err = queryFloat(c, latKey, 0); err != nil {
		return 0, 0, err
	}
	if lon, err = queryFloat(c, lonKey, 0); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
