package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint scheduled for removal.
type DeprecatedRoute struct {
	Method    string
	Path      string
	Sunset    time.Time
	Successor string
}

// DeprecationMiddleware announces deprecated routes through the
// Deprecation, Sunset and Link headers (RFC 8594, RFC 8288).
func DeprecationMiddleware(routes []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range routes {
			if c.Path() != d.Path || (d.Method != "" && c.Method() != d.Method) {
				continue
			}
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.Sunset.UTC().Format(time.RFC1123))
			if d.Successor != "" {
				c.Set(fiber.HeaderLink, fmt.Sprintf(`<%s>; rel="successor-version"`, d.Successor))
			}
			LoggerFromCtx(c.UserContext()).Debug("deprecated route called", "path", d.Path, "successor", d.Successor)
			break
		}
		return c.Next()
	}
}
