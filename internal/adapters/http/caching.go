package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type cacheRule struct {
	prefix  string
	suffix  string
	control string
}

// cacheRules are matched in order; the first hit wins.
var cacheRules = []cacheRule{
	{prefix: "/v1/health", control: "no-cache"},
	{prefix: "/v1/ready", control: "no-cache"},
	{prefix: "/metrics", control: "no-cache"},
	{prefix: "/v1/workshops/", suffix: "/availability", control: "private, max-age=0"},
	{prefix: "/v1/workshops/", control: "public, max-age=600"},
	{prefix: "/v1/geographic/nearby", control: "public, max-age=60"},
	{prefix: "/v1/geographic/distance", control: "public, max-age=3600"},
	{prefix: "/v1/geographic/reverse-geocode", control: "public, max-age=86400"},
	{prefix: "/v1/geographic/cities", control: "public, max-age=86400"},
	{prefix: "/v1/geographic/search-suggestions", control: "public, max-age=300"},
	{prefix: "/v1/geographic/filter-options", control: "public, max-age=300"},
	{prefix: "/v1/", control: "public, max-age=60"},
}

// CachingMiddleware sets a default Cache-Control on GET responses that
// did not choose one themselves.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}
		if c.Response().StatusCode() >= 400 {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}
		if control := cacheControlFor(c.Path()); control != "" {
			c.Set(fiber.HeaderCacheControl, control)
		}
		return err
	}
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if strings.HasPrefix(path, r.prefix) && strings.HasSuffix(path, r.suffix) {
			return r.control
		}
	}
	return ""
}
