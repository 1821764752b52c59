package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/mechlink/mechlink/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// deprecatedRoutes are still served but announce their successor.
var deprecatedRoutes = []DeprecatedRoute{
	{
		Method:    fiber.MethodPost,
		Path:      "/v1/geographic/search",
		Sunset:    time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
		Successor: "/v1/geographic/advanced-search",
	},
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(deprecatedRoutes))

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	geo := app.Group("/v1/geographic")
	geo.Post("/advanced-search", timeout.NewWithContext(AdvancedSearchHandler(deps), requestTimeout))
	geo.Post("/search", timeout.NewWithContext(BasicSearchHandler(deps), requestTimeout))
	geo.Get("/nearby", timeout.NewWithContext(NearbyHandler(deps), requestTimeout))
	geo.Post("/search-by-services", timeout.NewWithContext(SearchByServicesHandler(deps), requestTimeout))
	geo.Post("/search-by-brand", timeout.NewWithContext(SearchByBrandHandler(deps), requestTimeout))
	geo.Post("/search-open-now", timeout.NewWithContext(SearchOpenNowHandler(deps), requestTimeout))
	geo.Post("/geocode", timeout.NewWithContext(GeocodeHandler(deps), requestTimeout))
	geo.Get("/reverse-geocode", timeout.NewWithContext(ReverseGeocodeHandler(deps), requestTimeout))
	geo.Get("/distance", DistanceHandler(deps))
	geo.Get("/cities", CitiesHandler(deps))
	geo.Get("/search-suggestions", timeout.NewWithContext(SearchSuggestionsHandler(deps), requestTimeout))
	geo.Get("/filter-options", timeout.NewWithContext(FilterOptionsHandler(deps), requestTimeout))

	workshops := app.Group("/v1/workshops")
	workshops.Get("/:id", timeout.NewWithContext(GetWorkshopHandler(deps), requestTimeout))
	workshops.Get("/:id/availability", timeout.NewWithContext(WorkshopAvailabilityHandler(deps), requestTimeout))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	SetupDocs(app, "api/openapi.yaml")

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
