package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// SetLinkHeaders adds RFC 8288 first/prev/next links for a paged search.
// Every other query parameter of the request is carried over.
func SetLinkHeaders(c *fiber.Ctx, total int, meta domain.SearchMetadata) {
	limit := meta.MaxResults
	if limit <= 0 {
		return
	}

	link := func(offset int, rel string) string {
		args := fasthttp.AcquireArgs()
		defer fasthttp.ReleaseArgs(args)
		c.Request().URI().QueryArgs().CopyTo(args)
		args.Set("offset", strconv.Itoa(offset))
		args.Set("limit", strconv.Itoa(limit))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, c.Path(), args.String(), rel)
	}

	links := []string{link(0, "first")}
	if meta.Offset > 0 {
		links = append(links, link(max(meta.Offset-limit, 0), "prev"))
	}
	if meta.Offset+limit < total {
		links = append(links, link(meta.Offset+limit, "next"))
	}
	c.Set(fiber.HeaderLink, strings.Join(links, ", "))
}
