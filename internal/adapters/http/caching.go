package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses when the
// handler has not already chosen one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		// Geocode answers are stable for a given query
		case strings.HasPrefix(path, "/v1/geocode"):
			ttl = "public, max-age=3600"

		// Capture state is live authoring state
		case strings.HasPrefix(path, "/v1/capture"):
			ttl = "no-store"

		// Route documents change under the author's hands
		case strings.HasPrefix(path, "/v1/routes"):
			ttl = "private, max-age=30"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
