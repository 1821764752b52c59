package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	availabilityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Availability",
		Fields: graphql.Fields{
			"is_open_now":    &graphql.Field{Type: graphql.Boolean},
			"is_open_today":  &graphql.Field{Type: graphql.Boolean},
			"today_hours":    &graphql.Field{Type: graphql.String},
			"opens_at":       &graphql.Field{Type: graphql.String},
			"closes_at":      &graphql.Field{Type: graphql.String},
			"next_open_time": &graphql.Field{Type: graphql.String},
		},
	})

	workshopFields := func() graphql.Fields {
		return graphql.Fields{
			"id":                &graphql.Field{Type: graphql.String},
			"name":              &graphql.Field{Type: graphql.String},
			"description":       &graphql.Field{Type: graphql.String},
			"address":           &graphql.Field{Type: graphql.String},
			"city":              &graphql.Field{Type: graphql.String},
			"phone":             &graphql.Field{Type: graphql.String},
			"website":           &graphql.Field{Type: graphql.String},
			"location":          &graphql.Field{Type: geoPointType},
			"services":          &graphql.Field{Type: graphql.NewList(graphql.String)},
			"specialties":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"rating_average":    &graphql.Field{Type: graphql.Float},
			"total_reviews":     &graphql.Field{Type: graphql.Int},
			"years_in_business": &graphql.Field{Type: graphql.Int},
			"is_verified":       &graphql.Field{Type: graphql.Boolean},
		}
	}

	workshopType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Workshop",
		Fields: workshopFields(),
	})

	resultFields := workshopFields()
	resultFields["distance_km"] = &graphql.Field{Type: graphql.Float}
	resultFields["estimated_travel_time_minutes"] = &graphql.Field{Type: graphql.Int}
	resultFields["matching_services"] = &graphql.Field{Type: graphql.NewList(graphql.String)}
	resultFields["matching_specialties"] = &graphql.Field{Type: graphql.NewList(graphql.String)}
	resultFields["search_score"] = &graphql.Field{Type: graphql.Float}
	resultFields["availability"] = &graphql.Field{Type: availabilityType}
	workshopResultType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "WorkshopResult",
		Fields: resultFields,
	})

	searchResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchResult",
		Fields: graphql.Fields{
			"workshops":        &graphql.Field{Type: graphql.NewList(workshopResultType)},
			"search_center":    &graphql.Field{Type: geoPointType},
			"total_found":      &graphql.Field{Type: graphql.Int},
			"search_radius_km": &graphql.Field{Type: graphql.Float},
		},
	})

	distanceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Distance",
		Fields: graphql.Fields{
			"distance_km":                   &graphql.Field{Type: graphql.Float},
			"estimated_travel_time_minutes": &graphql.Field{Type: graphql.Int},
		},
	})

	geocodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeResult",
		Fields: graphql.Fields{
			"success":           &graphql.Field{Type: graphql.Boolean},
			"latitude":          &graphql.Field{Type: graphql.Float},
			"longitude":         &graphql.Field{Type: graphql.Float},
			"formatted_address": &graphql.Field{Type: graphql.String},
			"error_message":     &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"searchWorkshops": &graphql.Field{
				Type:        searchResultType,
				Description: "Search workshops around a point or address",
				Args: graphql.FieldConfigArgument{
					"latitude":      &graphql.ArgumentConfig{Type: graphql.Float},
					"longitude":     &graphql.ArgumentConfig{Type: graphql.Float},
					"address":       &graphql.ArgumentConfig{Type: graphql.String},
					"radius_km":     &graphql.ArgumentConfig{Type: graphql.Float},
					"services":      &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"car_brands":    &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"min_rating":    &graphql.ArgumentConfig{Type: graphql.Float},
					"verified_only": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"open_now":      &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"sort_by":       &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "distance"},
					"max_results":   &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c := domain.SearchCriteria{RadiusKm: deps.defaultRadius()}
					if v, ok := p.Args["latitude"].(float64); ok {
						c.Latitude = &v
					}
					if v, ok := p.Args["longitude"].(float64); ok {
						c.Longitude = &v
					}
					if v, ok := p.Args["address"].(string); ok {
						c.Address = v
					}
					if v, ok := p.Args["radius_km"].(float64); ok {
						c.RadiusKm = v
					}
					c.RequiredServices = stringArgs(p.Args["services"])
					c.CarBrands = stringArgs(p.Args["car_brands"])
					if v, ok := p.Args["min_rating"].(float64); ok {
						c.MinRating = &v
					}
					c.VerifiedOnly, _ = p.Args["verified_only"].(bool)
					c.OpenNow, _ = p.Args["open_now"].(bool)
					if v, ok := p.Args["sort_by"].(string); ok {
						c.SortBy = domain.SortKey(v)
					}
					if v, ok := p.Args["max_results"].(int); ok {
						c.MaxResults = v
					}
					if c.SortBy == domain.SortByRating || c.SortBy == domain.SortByReviews || c.SortBy == domain.SortByYears {
						c.SortOrder = domain.SortDesc
					}

					res, err := deps.Search.Search(p.Context, c)
					if err != nil {
						return nil, err
					}
					return searchResultMap(res), nil
				},
			},
			"workshop": &graphql.Field{
				Type:        workshopType,
				Description: "Get a workshop by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					w, err := deps.Workshops.GetByID(p.Context, id)
					if err != nil {
						return nil, err
					}
					return workshopMap(w), nil
				},
			},
			"geocode": &graphql.Field{
				Type:        geocodeType,
				Description: "Resolve an address to coordinates",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"city":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "Puerto Rico"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					address, _ := p.Args["address"].(string)
					city, _ := p.Args["city"].(string)
					return deps.Geocoding.Geocode(p.Context, address, city), nil
				},
			},
			"distance": &graphql.Field{
				Type:        distanceType,
				Description: "Great-circle distance and driving estimate between two points",
				Args: graphql.FieldConfigArgument{
					"lat1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat1, _ := p.Args["lat1"].(float64)
					lon1, _ := p.Args["lon1"].(float64)
					lat2, _ := p.Args["lat2"].(float64)
					lon2, _ := p.Args["lon2"].(float64)
					return deps.Distance.Between(lat1, lon1, lat2, lon2)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

func stringArgs(v interface{}) []string {
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// workshopMap flattens a workshop so the default resolver finds every
// field by its schema name, including those of an embedding result.
func workshopMap(w *domain.Workshop) map[string]interface{} {
	m := map[string]interface{}{
		"id":             w.ID,
		"name":           w.Name,
		"description":    w.Description,
		"address":        w.Address,
		"city":           w.City,
		"phone":          w.Phone,
		"website":        w.Website,
		"services":       w.Services,
		"specialties":    w.Specialties,
		"rating_average": w.RatingAverage,
		"total_reviews":  w.TotalReviews,
		"is_verified":    w.IsVerified,
	}
	if w.Location != nil {
		m["location"] = *w.Location
	}
	if w.YearsInBusiness != nil {
		m["years_in_business"] = *w.YearsInBusiness
	}
	return m
}

func searchResultMap(res *domain.SearchResult) map[string]interface{} {
	workshops := make([]map[string]interface{}, 0, len(res.Workshops))
	for i := range res.Workshops {
		r := &res.Workshops[i]
		m := workshopMap(&r.Workshop)
		m["distance_km"] = r.DistanceKm
		m["estimated_travel_time_minutes"] = r.EstimatedTravelTimeMinutes
		m["matching_services"] = r.MatchingServices
		m["matching_specialties"] = r.MatchingSpecialties
		m["search_score"] = r.SearchScore
		if r.Availability != nil {
			m["availability"] = *r.Availability
		}
		workshops = append(workshops, m)
	}
	return map[string]interface{}{
		"workshops":        workshops,
		"search_center":    res.SearchCenter,
		"total_found":      res.TotalFound,
		"search_radius_km": res.SearchRadiusKm,
	}
}
